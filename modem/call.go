package modem

import (
	"context"

	"i4.energy/across/atgsm/at"
)

// Dial starts a voice call to number.
func (m *Modem) Dial(ctx context.Context, number string) (bool, error) {
	return m.expectOK(ctx, at.Dial(number))
}

// Answer picks up an incoming call.
func (m *Modem) Answer(ctx context.Context) (bool, error) {
	return m.expectOK(ctx, at.CmdAnswer)
}

func (m *Modem) HangUp(ctx context.Context) (bool, error) {
	return m.expectOK(ctx, at.CmdHangUp)
}

// PressKey emulates a keypad press, e.g. to send DTMF during a call.
func (m *Modem) PressKey(ctx context.Context, key string) (bool, error) {
	return m.expectOK(ctx, at.PressKey(key))
}
