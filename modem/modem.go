package modem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"i4.energy/across/atgsm/at"
)

// readChunk is the size of a single transport read.
const readChunk = 256

// Modem represents a GSM/3G/4G cellular modem that communicates via AT commands.
//
// Every command travels through a FIFO admission queue so that exactly one
// request/response exchange owns the serial line at any time; the line is
// half-duplex and replies carry nothing that would tie them to a request.
// All methods are safe for concurrent use.
type Modem struct {
	// transport provides the physical connection to the modem
	transport Transport
	// config contains the session settings
	config Config
	logger *slog.Logger
	// queue serializes exchanges on the transport
	queue *Queue

	// pending holds bytes read from the transport but not yet split into lines.
	// Only the exchange holding the queue head touches it.
	pending []byte
	buf     []byte

	mu     sync.Mutex
	closed bool
}

// PollConfig defines configuration for polling operations like waiting for SIM readiness.
type PollConfig struct {
	// Interval is the time between polling attempts
	Interval time.Duration
	// Timeout is the maximum time to wait for the condition
	Timeout time.Duration
	// MaxRetries is the maximum number of polling attempts
	MaxRetries int
}

// New opens the transport through the configured Dialer and prepares the
// session. The admission queue starts empty.
func New(ctx context.Context, config Config) (*Modem, error) {
	if config.dialer == nil {
		return nil, ErrNoDialer
	}
	config.setDefaults()

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	if err := transport.SetReadTimeout(config.readTimeout); err != nil {
		transport.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	return &Modem{
		transport: transport,
		config:    config,
		logger:    config.logger,
		queue:     NewQueue(),
		buf:       make([]byte, readChunk),
	}, nil
}

// Close rejects commands still waiting for their turn, waits for the one in
// flight and closes the transport. After calling Close(), the modem cannot
// be reused.
func (m *Modem) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	m.closed = true
	m.mu.Unlock()

	m.queue.Close()
	return m.transport.Close()
}

// Pending returns the number of commands queued on the session, the one in
// flight included.
func (m *Modem) Pending() int {
	return m.queue.Len()
}

// Command sends cmd once it reaches the head of the queue and returns the
// framed reply.
//
// The reply text is returned even when err is not nil. err wraps
// ErrNoResponse or ErrResponseTimeout when the modem did not finish
// answering, ErrDeviceError when it answered with an error marker, and the
// transport's own error when reading or writing failed.
//
// A context that is already done is reported without queueing; once queued,
// the caller waits for its turn.
func (m *Modem) Command(ctx context.Context, cmd string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var reply string
	err := m.queue.Do(func(id string) error {
		m.config.metrics.setQueueDepth(m.queue.Len())

		start := time.Now()
		var err error
		reply, err = m.exchange(cmd)
		elapsed := time.Since(start)

		m.config.metrics.observeExchange(err, elapsed)
		m.logger.Debug("AT exchange",
			"ticket", id,
			"command", cmd,
			"reply", reply,
			"duration", elapsed,
			"error", err,
		)
		return err
	})
	m.config.metrics.setQueueDepth(m.queue.Len())
	return reply, err
}

// exchange writes one command and frames its reply. It must only run while
// holding the queue head.
func (m *Modem) exchange(cmd string) (string, error) {
	if err := m.transport.ResetInputBuffer(); err != nil {
		return "", fmt.Errorf("reset input buffer: %w", err)
	}
	if err := m.transport.ResetOutputBuffer(); err != nil {
		return "", fmt.Errorf("reset output buffer: %w", err)
	}
	m.pending = nil

	if _, err := m.transport.Write([]byte(cmd + at.Terminator)); err != nil {
		return "", fmt.Errorf("write command %q: %w", cmd, err)
	}

	// The first line is the echo of the command, or the blank line that
	// precedes the reply when echo is off.
	_, ok, err := m.readLine()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoResponse
	}

	var lines []string
	idle := 0
	for {
		line, ok, err := m.readLine()
		if err != nil {
			return joinReply(lines), err
		}
		if !ok {
			idle++
			if idle >= m.config.maxIdleReads {
				return joinReply(lines), ErrResponseTimeout
			}
			continue
		}
		idle = 0
		lines = append(lines, line)

		if at.Classify(line) == at.TypeURC {
			m.logger.Debug("Unsolicited result code inside reply", "command", cmd, "line", line)
		}
		if !at.IsTerminal(line) {
			continue
		}

		reply := joinReply(lines)
		if strings.Contains(line, at.ERROR) {
			return reply, fmt.Errorf("%w: %s", ErrDeviceError, line)
		}
		return reply, nil
	}
}

// readLine returns the next line from the transport. ok is false when a read
// timed out without delivering anything. A read that times out after part of
// a line has arrived returns that part.
func (m *Modem) readLine() (line string, ok bool, err error) {
	for {
		if advance, token, _ := at.Splitter(m.pending, false); advance > 0 {
			line = decodeLine(token)
			m.pending = m.pending[advance:]
			return line, true, nil
		}

		n, err := m.transport.Read(m.buf)
		if n > 0 {
			m.pending = append(m.pending, m.buf[:n]...)
		}
		if err != nil {
			return "", false, fmt.Errorf("read reply: %w", err)
		}
		if n > 0 {
			continue
		}

		if len(m.pending) == 0 {
			return "", false, nil
		}
		line = decodeLine(m.pending)
		m.pending = nil
		return line, true, nil
	}
}

func joinReply(lines []string) string {
	return strings.Trim(strings.Join(lines, at.CRLF), at.CRLF)
}

// query runs cmd and degrades protocol failures to the text received so far.
// Only transport failures and a closed session come back as errors.
func (m *Modem) query(ctx context.Context, cmd string) (string, error) {
	reply, err := m.Command(ctx, cmd)
	if err != nil && isProtocolError(err) {
		m.logger.Debug("AT command did not succeed", "command", cmd, "error", err)
		return reply, nil
	}
	if err != nil {
		m.logger.Warn("AT command failed", "command", cmd, "error", err)
	}
	return reply, err
}

// expect runs cmd and reports whether marker appears in the reply.
func (m *Modem) expect(ctx context.Context, cmd, marker string) (bool, error) {
	reply, err := m.query(ctx, cmd)
	if err != nil {
		return false, err
	}
	return strings.Contains(reply, marker), nil
}

func (m *Modem) expectOK(ctx context.Context, cmd string) (bool, error) {
	return m.expect(ctx, cmd, at.OK)
}

// waitForSIMReady polls the SIM card status until it reports ready state.
// This is necessary after entering a SIM PIN, as the SIM card needs time
// to authenticate and become operational. Uses configurable polling interval
// and retry limits to avoid infinite waiting.
func (m *Modem) waitForSIMReady(ctx context.Context, config PollConfig) error {
	var (
		pollInterval = config.Interval
		timeout      = config.Timeout
		maxRetries   = config.MaxRetries
	)

	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = int(timeout / pollInterval)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	retries := 0

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrSIMNotReady, ctx.Err())
		case <-ticker.C:
			retries++
			if retries > maxRetries {
				return fmt.Errorf("%w after %d retries", ErrSIMNotReady, maxRetries)
			}
			ready, err := m.expect(ctx, at.CmdSimStatus, at.SimReady)
			if err != nil {
				return fmt.Errorf("SIM status check failed: %w", err)
			}
			if ready {
				return nil
			}
		}
	}
}
