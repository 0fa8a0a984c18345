package board

import (
	"canvas/protocol"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Socket ---

type MockSocket struct {
	mock.Mock
}

func (m *MockSocket) Read() (protocol.Frame, error) {
	args := m.Called()
	return args.Get(0).(protocol.Frame), args.Error(1)
}

func (m *MockSocket) Write(f protocol.Frame) error {
	args := m.Called(f)
	return args.Error(0)
}

func (m *MockSocket) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSocket) Close(reason string) {
	m.Called(reason)
}

// --- MessageHandler ---

type MockMessageHandler struct {
	mock.Mock
}

func (m *MockMessageHandler) Handle(msg protocol.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockMessageHandler) Disconnect() {
	m.Called()
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) (<-chan time.Time, func()) {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time), args.Get(1).(func())
}

// seqIds hands out a1, a2, ...
type seqIds struct {
	n atomic.Int64
}

func (s *seqIds) Generate() string {
	return fmt.Sprintf("a%d", s.n.Add(1))
}

// recordingPeer keeps every frame it is given.
type recordingPeer struct {
	id       string
	mu       sync.Mutex
	frames   []protocol.Frame
	volatile []protocol.Frame
	sendErr  error
}

func newRecordingPeer(id string) *recordingPeer {
	return &recordingPeer{id: id}
}

func (p *recordingPeer) Id() string {
	return p.id
}

func (p *recordingPeer) Send(f protocol.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.frames = append(p.frames, f)
	return nil
}

func (p *recordingPeer) SendVolatile(f protocol.Frame) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volatile = append(p.volatile, f)
	return true
}

func (p *recordingPeer) Frames() []protocol.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]protocol.Frame(nil), p.frames...)
}

func (p *recordingPeer) Volatile() []protocol.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]protocol.Frame(nil), p.volatile...)
}

func (p *recordingPeer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = nil
	p.volatile = nil
}

type event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func decodeEvent(t *testing.T, f protocol.Frame) event {
	t.Helper()
	require.False(t, f.Binary, "expected a text frame")
	var e event
	require.NoError(t, json.Unmarshal(f.Data, &e))
	return e
}

// eventNames lists the event of every frame.
func eventNames(t *testing.T, frames []protocol.Frame) []string {
	t.Helper()
	names := make([]string, 0, len(frames))
	for _, f := range frames {
		names = append(names, decodeEvent(t, f).Event)
	}
	return names
}

func decodeData[T any](t *testing.T, f protocol.Frame) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(decodeEvent(t, f).Data, &out))
	return out
}

func textFrame(event string, data any) protocol.Frame {
	b, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		panic(err)
	}
	return protocol.Frame{Data: b}
}
