package modem

import (
	"context"

	"i4.energy/across/atgsm/at"
)

// IsResponding reports whether the modem answers a bare AT with OK.
func (m *Modem) IsResponding(ctx context.Context) (bool, error) {
	return m.expectOK(ctx, at.CmdAt)
}

// IMEI returns the device identity, or "" when the modem does not report one.
func (m *Modem) IMEI(ctx context.Context) (string, error) {
	return m.info(ctx, at.CmdIMEI)
}

// SetIMEI rewrites the device identity. Not every firmware accepts this.
func (m *Modem) SetIMEI(ctx context.Context, imei string) (bool, error) {
	return m.expectOK(ctx, at.SetIMEI(imei))
}

// IMSI returns the subscriber identity stored on the SIM.
func (m *Modem) IMSI(ctx context.Context) (string, error) {
	return m.info(ctx, at.CmdIMSI)
}

// ICCID returns the SIM card serial number.
func (m *Modem) ICCID(ctx context.Context) (string, error) {
	return m.info(ctx, at.CmdICCID)
}

// SignalStrength returns the RSSI reported by AT+CSQ, 0 when there is no reply.
func (m *Modem) SignalStrength(ctx context.Context) (int, error) {
	q, err := m.SignalQuality(ctx)
	return q.RSSI, err
}

func (m *Modem) SignalQuality(ctx context.Context) (SignalQuality, error) {
	reply, err := m.query(ctx, at.CmdSignal)
	if err != nil {
		return SignalQuality{}, err
	}
	return ParseSignalQuality(reply), nil
}

// IsNetworkReady reports whether the modem is registered and ready for traffic.
func (m *Modem) IsNetworkReady(ctx context.Context) (bool, error) {
	return m.expect(ctx, at.CmdNetwork, at.NetworkReady)
}

// Reboot powers the modem down for a restart. The outcome of the command
// itself is not reported; the modem may drop off the bus before answering.
func (m *Modem) Reboot(ctx context.Context) error {
	_, err := m.query(ctx, at.CmdReboot)
	return err
}

func (m *Modem) info(ctx context.Context, cmd string) (string, error) {
	reply, err := m.query(ctx, cmd)
	if err != nil {
		return "", err
	}
	return FirstLine(reply), nil
}
