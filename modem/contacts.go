package modem

import (
	"context"

	"i4.energy/across/atgsm/at"
)

// InitContacts selects the SIM phonebook.
func (m *Modem) InitContacts(ctx context.Context) (bool, error) {
	return m.expectOK(ctx, at.CmdPhonebookSIM)
}

// GetContact reads the SIM phonebook entry at index. ok is false when the
// entry is empty or cannot be read.
func (m *Modem) GetContact(ctx context.Context, index int) (contact Contact, ok bool, err error) {
	if _, err := m.InitContacts(ctx); err != nil {
		return Contact{}, false, err
	}

	reply, err := m.query(ctx, at.ReadContact(index))
	if err != nil {
		return Contact{}, false, err
	}
	contact, ok = ParseContact(index, reply)
	return contact, ok, nil
}

// SetContact writes a phonebook entry at index.
func (m *Modem) SetContact(ctx context.Context, index int, name, number string) (bool, error) {
	return m.expectOK(ctx, at.WriteContact(index, name, number))
}
