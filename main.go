package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"i4.energy/across/atgsm/modem"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB2", "Serial port to connect to the modem")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.Duration("read-timeout", 100*time.Millisecond, "Timeout of a single serial read")
	flag.Bool("discover", false, "Probe all serial ports and use the first one with a modem")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("sim-pin", "", "SIM card PIN code (if required)")
	flag.Parse()

	ctx := context.Background()

	config, err := LoadConfig(WithDefaults(), WithEnv(ctx), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	portName := config.SerialPort
	if config.Discover {
		portName, err = discoverPort(ctx, config, logger)
		if err != nil {
			logger.Error("Modem discovery failed", "error", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	modemConfig, err := modem.NewConfigBuilder().
		WithReadTimeout(config.ReadTimeout).
		WithLogger(logger.With("component", "modem", "port", portName)).
		WithMetrics(modem.NewMetrics(registry)).
		WithDialer(modem.SerialDialer{
			PortName: portName,
			BaudRate: config.BaudRate,
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}

	if config.SimPIN != "" {
		if err := unlockSIM(ctx, m, config.SimPIN, logger); err != nil {
			logger.Error("Failed to unlock SIM", "error", err)
			m.Close()
			os.Exit(1)
		}
	}

	logger.Info("Starting AT session gateway", "port", portName, "baud_rate", config.BaudRate)

	httpServer := &http.Server{
		Addr:    config.BindAddress,
		Handler: NewServer(logger.With("component", "server"), m, registry),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	logger.Info("Closing modem connection")
	if err := m.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
		os.Exit(1)
	}
}

// discoverPort returns the first serial port with a modem answering AT.
func discoverPort(ctx context.Context, config *Config, logger *slog.Logger) (string, error) {
	ports, err := modem.Discover(ctx, config.BaudRate, logger.With("component", "discover"))
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", errors.New("no modem found on any serial port")
	}
	logger.Info("Discovered modems", "ports", ports)
	return ports[0], nil
}

// unlockSIM enters pin when the SIM card asks for it and waits until the card
// is ready.
func unlockSIM(ctx context.Context, m *modem.Modem, pin string, logger *slog.Logger) error {
	locked, err := m.IsSIMLocked(ctx)
	if err != nil {
		return err
	}
	if !locked {
		logger.Debug("SIM does not require a PIN")
		return nil
	}

	ok, err := m.UnlockSIM(ctx, pin)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("SIM rejected the PIN")
	}

	if err := m.WaitForSIMReady(ctx, modem.PollConfig{Interval: 500 * time.Millisecond, Timeout: 30 * time.Second}); err != nil {
		return err
	}
	logger.Info("SIM unlocked")
	return nil
}
