// Package sink provides the destinations emitters write artifacts into.
//
// A Sink hands out one writer per artifact name. Names use forward slashes and
// are relative ("w_b/w_1_0.mif"). Every sink rejects a second Create for a
// name it has already handed out, so no two components can write the same path.
package sink

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
)

var (
	ErrDuplicate   = errors.New("sink: duplicate artifact")
	ErrInvalidName = errors.New("sink: invalid artifact name")
	ErrClosed      = errors.New("sink: closed")
)

// Sink creates artifact writers. Implementations are safe for concurrent use.
type Sink interface {
	Create(name string) (io.WriteCloser, error)
	Close() error
}

// WriteFile creates name, runs fn, and closes the writer on every path.
// The first error wins.
func WriteFile(s Sink, name string, fn func(w io.Writer) error) (err error) {
	w, err := s.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", name, cerr)
		}
	}()
	if err := fn(w); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Join builds an artifact name from a directory prefix and a file name.
func Join(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return path.Join(dir, name)
}

func cleanName(name string) (string, error) {
	if name == "" || strings.Contains(name, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	clean := path.Clean(name)
	if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}

// names tracks handed-out names for duplicate detection.
type names struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	closed bool
}

func (n *names) claim(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return "", ErrClosed
	}
	if n.seen == nil {
		n.seen = make(map[string]struct{})
	}
	if _, ok := n.seen[clean]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicate, clean)
	}
	n.seen[clean] = struct{}{}
	return clean, nil
}

func (n *names) close() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	was := n.closed
	n.closed = true
	return !was
}
