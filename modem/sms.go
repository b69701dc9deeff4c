package modem

import (
	"context"
	"fmt"

	"i4.energy/across/atgsm/at"
)

// InitSMS selects text mode, SIM storage for all message stores and the
// 8859-1 character set. ListSMS and GetSMS call it before every read.
func (m *Modem) InitSMS(ctx context.Context) error {
	for _, cmd := range []string{at.CmdSetTextMode, at.CmdSMSStorage, at.CmdCharset} {
		if _, err := m.query(ctx, cmd); err != nil {
			return fmt.Errorf("configure SMS: %w", err)
		}
	}
	return nil
}

// ListSMS returns the stored messages: all of them with includeRead, only the
// unread ones otherwise. With keepUnread the modem leaves the returned
// messages marked unread. A failed listing yields an empty slice.
func (m *Modem) ListSMS(ctx context.Context, includeRead, keepUnread bool) ([]SMS, error) {
	if err := m.InitSMS(ctx); err != nil {
		return []SMS{}, err
	}

	filter := at.FilterUnread
	if includeRead {
		filter = at.FilterAll
	}
	reply, err := m.query(ctx, at.ListSMS(filter, keepUnread))
	if err != nil {
		return []SMS{}, err
	}
	return ParseSMSList(reply, m.config.charset), nil
}

// GetSMS reads the message stored at index. ok is false when there is none.
func (m *Modem) GetSMS(ctx context.Context, index int, keepUnread bool) (sms SMS, ok bool, err error) {
	if err := m.InitSMS(ctx); err != nil {
		return SMS{}, false, err
	}

	reply, err := m.query(ctx, at.ReadSMS(index, keepUnread))
	if err != nil {
		return SMS{}, false, err
	}
	sms, ok = ParseSMSRead(index, reply, m.config.charset)
	return sms, ok, nil
}

func (m *Modem) DeleteSMS(ctx context.Context, index int) (bool, error) {
	return m.expectOK(ctx, at.DeleteSMS(index))
}

// DeleteAllSMS deletes every read message, and unread ones too with
// includeUnread.
func (m *Modem) DeleteAllSMS(ctx context.Context, includeUnread bool) (bool, error) {
	filter := at.DeleteRead
	if includeUnread {
		filter = at.DeleteAll
	}
	return m.expectOK(ctx, at.DeleteAllSMS(filter))
}
