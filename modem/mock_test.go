package modem_test

import (
	gomock "go.uber.org/mock/gomock"

	"i4.energy/across/atgsm/at"
	"i4.energy/across/atgsm/modem"
)

type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// Open expects the read timeout to be applied when the session is created.
func (b *MockSequenceBuilder) Open() *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().SetReadTimeout(modem.DefaultReadTimeout).Return(nil),
	)
	return b
}

// Write expects the buffer resets and the command write that start every
// exchange.
func (b *MockSequenceBuilder) Write(cmd string) *MockSequenceBuilder {
	wire := []byte(cmd + at.Terminator)
	b.calls = append(b.calls,
		b.transport.EXPECT().ResetInputBuffer().Return(nil),
		b.transport.EXPECT().ResetOutputBuffer().Return(nil),
		b.transport.EXPECT().Write(wire).Return(len(wire), nil),
	)
	return b
}

// Read expects one read per chunk. An empty chunk is a read that timed out.
func (b *MockSequenceBuilder) Read(chunks ...string) *MockSequenceBuilder {
	for _, chunk := range chunks {
		chunk := chunk
		if chunk == "" {
			b.calls = append(b.calls, b.transport.EXPECT().Read(gomock.Any()).Return(0, nil))
			continue
		}
		b.calls = append(b.calls,
			b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
				return copy(p, chunk), nil
			}),
		)
	}
	return b
}

func (b *MockSequenceBuilder) Exchange(cmd string, chunks ...string) *MockSequenceBuilder {
	return b.Write(cmd).Read(chunks...)
}

// AT expects a liveness probe answered with OK, echo on.
func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.Exchange("AT", "AT\r\r\nOK\r\n")
}

func (b *MockSequenceBuilder) Close() *MockSequenceBuilder {
	b.calls = append(b.calls, b.transport.EXPECT().Close().Return(nil))
	return b
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
