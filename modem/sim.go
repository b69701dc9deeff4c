package modem

import (
	"context"

	"i4.energy/across/atgsm/at"
)

// IsSIMLocked reports whether the SIM card waits for its PIN.
func (m *Modem) IsSIMLocked(ctx context.Context) (bool, error) {
	return m.expect(ctx, at.CmdSimStatus, at.SimPin)
}

func (m *Modem) UnlockSIM(ctx context.Context, pin string) (bool, error) {
	return m.expectOK(ctx, at.EnterPIN(pin))
}

func (m *Modem) ChangeSIMPIN(ctx context.Context, pin, newPIN string) (bool, error) {
	return m.expectOK(ctx, at.ChangePIN(pin, newPIN))
}

// EnableSIMPIN makes the SIM card ask for its PIN at power up.
func (m *Modem) EnableSIMPIN(ctx context.Context, pin string) (bool, error) {
	return m.expectOK(ctx, at.LockSIM(true, pin))
}

func (m *Modem) DisableSIMPIN(ctx context.Context, pin string) (bool, error) {
	return m.expectOK(ctx, at.LockSIM(false, pin))
}

// ResetSIMPIN unblocks the SIM card with its PUK and sets a new PIN.
func (m *Modem) ResetSIMPIN(ctx context.Context, puk, newPIN string) (bool, error) {
	return m.expectOK(ctx, at.EnterPUK(puk, newPIN))
}

// WaitForSIMReady polls AT+CPIN? until the SIM card reports READY, typically
// after UnlockSIM. It returns an error wrapping ErrSIMNotReady when the
// polling budget runs out or ctx is done.
func (m *Modem) WaitForSIMReady(ctx context.Context, config PollConfig) error {
	return m.waitForSIMReady(ctx, config)
}
