package modem

import (
	"log/slog"
	"time"
)

const (
	DefaultReadTimeout  = 100 * time.Millisecond
	DefaultMaxIdleReads = 3
)

// Config holds the settings of a Modem session. Use NewConfigBuilder to
// create one.
type Config struct {
	dialer       Dialer
	readTimeout  time.Duration
	maxIdleReads int
	charset      Charset
	logger       *slog.Logger
	metrics      *Metrics
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.readTimeout <= 0 {
		c.readTimeout = DefaultReadTimeout
	}
	if c.maxIdleReads <= 0 {
		c.maxIdleReads = DefaultMaxIdleReads
	}
	if c.charset.Decode == nil {
		c.charset = UCS2
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
}

// ConfigBuilder assembles a Config step by step.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets how the transport to the modem is opened. Required.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithReadTimeout bounds every single read on the transport.
func (b *ConfigBuilder) WithReadTimeout(d time.Duration) *ConfigBuilder {
	b.config.readTimeout = d
	return b
}

// WithMaxIdleReads sets how many consecutive empty reads end a reply that
// has started but not yet reached a final result code.
func (b *ConfigBuilder) WithMaxIdleReads(n int) *ConfigBuilder {
	b.config.maxIdleReads = n
	return b
}

// WithCharset sets the payload codec used for SMS content.
func (b *ConfigBuilder) WithCharset(c Charset) *ConfigBuilder {
	b.config.charset = c
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

func (b *ConfigBuilder) WithMetrics(m *Metrics) *ConfigBuilder {
	b.config.metrics = m
	return b
}

// Build validates the settings and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	config.setDefaults()
	return config, nil
}
