package sink

import (
	"bytes"
	"io"
	"sort"
	"sync"
)

// Memory keeps artifacts in memory. Content becomes visible when its writer closes.
type Memory struct {
	names names
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (m *Memory) Create(name string) (io.WriteCloser, error) {
	clean, err := m.names.claim(name)
	if err != nil {
		return nil, err
	}
	return &bufferWriter{commit: func(b []byte) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.files[clean] = b
		return nil
	}}, nil
}

func (m *Memory) Close() error {
	m.names.close()
	return nil
}

// Get returns the content of a closed artifact.
func (m *Memory) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[name]
	return b, ok
}

// Files returns a copy of every closed artifact keyed by name.
func (m *Memory) Files() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		out[k] = v
	}
	return out
}

// Names lists closed artifacts in sorted order.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for k := range m.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// bufferWriter collects bytes and hands them to commit exactly once on Close.
type bufferWriter struct {
	buf    bytes.Buffer
	commit func([]byte) error
	done   bool
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	if b.done {
		return 0, ErrClosed
	}
	return b.buf.Write(p)
}

func (b *bufferWriter) Close() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.commit(b.buf.Bytes())
}
