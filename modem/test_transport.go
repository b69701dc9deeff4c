package modem

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"i4.energy/across/atgsm/at"
)

// TestTransport is a scripted, in-memory Transport for tests. Every written
// command is echoed and answered with the reply registered for it; commands
// without a script are answered with ERROR. Reads return (0, nil) when no
// data is pending, like a serial port whose read timeout expired.
type TestTransport struct {
	mu          sync.Mutex
	replies     map[string]string
	holds       map[string]chan struct{}
	gate        chan struct{}
	pending     []byte
	writes      []string
	overlaps    int
	readTimeout time.Duration
	closed      bool
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		replies: make(map[string]string),
		holds:   make(map[string]chan struct{}),
	}
}

// Reply scripts the answer to cmd. The reply should include its final
// result code and line endings, e.g. "\r\n+CSQ: 15,99\r\n\r\nOK\r\n".
func (t *TestTransport) Reply(cmd, reply string) *TestTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[cmd] = reply
	return t
}

// Hold makes reads block after cmd has been written until release is called.
func (t *TestTransport) Hold(cmd string) (release func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	gate := make(chan struct{})
	t.holds[cmd] = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Writes returns the commands written so far, without terminators.
func (t *TestTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}

// Overlaps counts exchanges that started while an earlier reply was still
// unread.
func (t *TestTransport) Overlaps() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overlaps
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}

	if len(t.pending) > 0 {
		t.overlaps++
	}
	cmd := strings.TrimSuffix(string(p), at.Terminator)
	t.writes = append(t.writes, cmd)

	reply, ok := t.replies[cmd]
	if !ok {
		reply = at.CRLF + at.ERROR + at.CRLF
	}
	t.pending = append(t.pending, cmd+"\r"+at.CRLF+reply...)
	t.gate = t.holds[cmd]
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	gate := t.gate
	t.mu.Unlock()
	if gate != nil {
		<-gate
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.EOF
	}
	if len(t.pending) == 0 {
		t.mu.Unlock()
		time.Sleep(time.Millisecond)
		t.mu.Lock()
		return 0, nil
	}
	n = copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *TestTransport) ResetInputBuffer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) > 0 {
		t.overlaps++
	}
	t.pending = nil
	return nil
}

func (t *TestTransport) ResetOutputBuffer() error {
	return nil
}

func (t *TestTransport) SetReadTimeout(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readTimeout = d
	return nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// TestDialer hands out a fixed Transport.
type TestDialer struct {
	Transport Transport
}

func (d TestDialer) Dial(ctx context.Context) (Transport, error) {
	return d.Transport, nil
}
