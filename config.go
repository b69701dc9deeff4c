package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `env:"BIND_ADDRESS,overwrite"`
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB2")
	SerialPort string `env:"SERIAL_PORT,overwrite"`
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int `env:"BAUD_RATE,overwrite"`
	// ReadTimeout bounds a single read on the serial port
	ReadTimeout time.Duration `env:"READ_TIMEOUT,overwrite"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `env:"LOG_LEVEL,overwrite"`
	// SimPIN is the SIM card PIN code, entered at startup when the SIM asks for it
	SimPIN string `env:"SIM_PIN,overwrite"`
	// Discover probes every serial port for a modem instead of using SerialPort
	Discover bool `env:"DISCOVER,overwrite"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB2"
		c.BaudRate = 115200
		c.ReadTimeout = 100 * time.Millisecond
		c.LogLevel = "info"
		return nil
	}
}

// WithEnv loads configuration from environment variables. Unset variables
// keep the values applied so far.
func WithEnv(ctx context.Context) ConfigOption {
	return withLookuper(ctx, envconfig.OsLookuper())
}

func withLookuper(ctx context.Context, l envconfig.Lookuper) ConfigOption {
	return func(c *Config) error {
		if err := envconfig.ProcessWith(ctx, c, l); err != nil {
			return fmt.Errorf("parsing env vars: %w", err)
		}
		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set explicitly
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *flag.Flag) {
			value := f.Value.String()
			switch f.Name {
			case "bind-address":
				c.BindAddress = value
			case "serial-port":
				c.SerialPort = value
			case "baud-rate":
				if b, perr := strconv.Atoi(value); perr == nil {
					c.BaudRate = b
				}
			case "read-timeout":
				d, perr := time.ParseDuration(value)
				if perr != nil {
					err = fmt.Errorf("flag -%s: %w", f.Name, perr)
					return
				}
				c.ReadTimeout = d
			case "log-level":
				c.LogLevel = value
			case "sim-pin":
				c.SimPIN = value
			case "discover":
				c.Discover, _ = strconv.ParseBool(value)
			}
		})
		return err
	}
}
