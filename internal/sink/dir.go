package sink

import (
	"io"
	"os"
	"path/filepath"
)

// Dir writes artifacts as files under Root, creating parent directories on demand.
// Existing files are truncated: a run always regenerates the full set.
type Dir struct {
	Root  string
	names names
}

func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Dir{Root: root}, nil
}

func (d *Dir) Create(name string) (io.WriteCloser, error) {
	clean, err := d.names.claim(name)
	if err != nil {
		return nil, err
	}
	p := filepath.Join(d.Root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
}

func (d *Dir) Close() error {
	d.names.close()
	return nil
}
