package sink

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ManifestName is written last; its presence marks a complete artifact set.
const ManifestName = "manifest.json"

// Artifact is one written file.
type Artifact struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Manifest describes a finished run.
type Manifest struct {
	RunID     string            `json:"run_id"`
	Tool      string            `json:"tool"`
	Version   string            `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Formats   map[string]string `json:"formats,omitempty"`
	Artifacts []Artifact        `json:"artifacts"`
}

// NewManifest stamps a fresh run id and timestamp.
func NewManifest(tool, version string) Manifest {
	return Manifest{
		RunID:     uuid.NewString(),
		Tool:      tool,
		Version:   version,
		CreatedAt: time.Now().UTC(),
		Formats:   make(map[string]string),
	}
}

// WriteManifest records the tracked artifacts and writes the manifest through t.
func WriteManifest(t *Tracker, m Manifest) error {
	m.Artifacts = t.Artifacts()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return WriteFile(t, ManifestName, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ReadManifest decodes a manifest.
func ReadManifest(data []byte) (Manifest, error) {
	var m Manifest
	err := json.Unmarshal(data, &m)
	return m, err
}

// Tracker wraps a Sink and records the size of every artifact closed through it.
type Tracker struct {
	Sink

	mu        sync.Mutex
	artifacts map[string]int64
}

func Track(s Sink) *Tracker {
	return &Tracker{Sink: s, artifacts: make(map[string]int64)}
}

func (t *Tracker) Create(name string) (io.WriteCloser, error) {
	w, err := t.Sink.Create(name)
	if err != nil {
		return nil, err
	}
	clean, _ := cleanName(name)
	return &countingWriter{w: w, done: func(n int64) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.artifacts[clean] = n
	}}, nil
}

// Artifacts returns the closed artifacts sorted by name.
func (t *Tracker) Artifacts() []Artifact {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Artifact, 0, len(t.artifacts))
	for name, size := range t.artifacts {
		out = append(out, Artifact{Name: name, Size: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TotalBytes sums the sizes of every closed artifact.
func (t *Tracker) TotalBytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int64
	for _, size := range t.artifacts {
		n += size
	}
	return n
}

type countingWriter struct {
	w    io.WriteCloser
	n    int64
	done func(int64)
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (c *countingWriter) Close() error {
	if err := c.w.Close(); err != nil {
		return err
	}
	c.done(c.n)
	return nil
}
