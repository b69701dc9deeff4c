package modem

import (
	"context"
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

// overridden in tests
var (
	getPortsList = serial.GetPortsList
	portDialer   = func(name string, baudRate int) Dialer {
		return SerialDialer{PortName: name, BaudRate: baudRate}
	}
)

// Discover returns the serial ports that have a modem answering AT behind
// them. Every candidate is opened with baudRate, probed once and closed
// again. Ports that cannot be opened are skipped.
func Discover(ctx context.Context, baudRate int, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	names, err := getPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}

	var found []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		config, err := NewConfigBuilder().
			WithDialer(portDialer(name, baudRate)).
			WithLogger(logger).
			Build()
		if err != nil {
			return found, err
		}

		m, err := New(ctx, config)
		if err != nil {
			logger.Debug("Skipping serial port", "port", name, "error", err)
			continue
		}
		ok, err := m.IsResponding(ctx)
		if cerr := m.Close(); cerr != nil {
			logger.Debug("Failed to close probed port", "port", name, "error", cerr)
		}
		if err != nil {
			logger.Debug("Probe failed", "port", name, "error", err)
			continue
		}
		if ok {
			found = append(found, name)
		}
	}
	return found, nil
}
