package sink

import (
	"fmt"
	"io"
	"os"

	"github.com/samcharles93/fxmif/pkg/bundle"
)

// Bundle writes every artifact as a named section of one bundle file.
// Section content is byte-identical to what Dir would write for the same name.
type Bundle struct {
	names names
	f     *os.File
	w     *bundle.Writer
}

func NewBundle(path string) (*Bundle, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := bundle.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Bundle{f: f, w: w}, nil
}

func (b *Bundle) Create(name string) (io.WriteCloser, error) {
	clean, err := b.names.claim(name)
	if err != nil {
		return nil, err
	}
	return &bufferWriter{commit: func(p []byte) error {
		return b.w.WriteSection(clean, p)
	}}, nil
}

// Close finalises the bundle. Writers still open at this point are lost.
func (b *Bundle) Close() error {
	if !b.names.close() {
		return nil
	}
	ferr := b.w.Finalise()
	cerr := b.f.Close()
	if ferr != nil {
		return fmt.Errorf("finalise bundle: %w", ferr)
	}
	return cerr
}

// Extract copies every section of an opened bundle into dst.
func Extract(bf *bundle.File, dst Sink) (int, error) {
	n := 0
	for i := range bf.Sections {
		s := &bf.Sections[i]
		data := bf.SectionData(s)
		if err := WriteFile(dst, s.Name, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
