package clip

import (
	"slices"
	"sync"
)

// Memory is an in-process clipboard. It backs headless environments
// (containers, CI, servers without a display) and doubles as the fake used
// in tests: Write simulates any application placing content on the clipboard.
type Memory struct {
	mu      sync.Mutex
	token   int64
	payload Payload
	writes  int
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return "memory (headless)" }

func (m *Memory) ChangeToken() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Memory) Read() (Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePayload(m.payload), nil
}

func (m *Memory) Write(p Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = clonePayload(p)
	m.token++
	m.writes++
	return nil
}

// Writes returns how many times Write has been called.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Close() {}

func clonePayload(p Payload) Payload {
	return Payload{
		Files:    slices.Clone(p.Files),
		Image:    slices.Clone(p.Image),
		Text:     p.Text,
		RichText: slices.Clone(p.RichText),
	}
}
