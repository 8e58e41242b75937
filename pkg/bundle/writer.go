package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"unicode/utf8"
)

const writerPadBufSize = 4096

type pendingSection struct {
	name   string
	offset uint64
	size   uint64
}

// Writer builds a bundle in a streaming fashion.
//
// The writer reserves space for the header up-front and patches it during Finalise.
// It is safe for concurrent use; section payloads are written whole, one at a time.
type Writer struct {
	f        *os.File
	sections []pendingSection
	seen     map[string]struct{}
	closed   bool

	padBuf []byte

	mu sync.Mutex
}

// NewWriter creates a new bundle writer targeting the given file.
// It truncates the file and reserves space for the header (patched in Finalise()).
func NewWriter(f *os.File) (*Writer, error) {
	if f == nil {
		return nil, errors.New("bundle: nil file")
	}

	// Make sure we always produce a file whose on-disk size matches header.FileSize.
	if err := f.Truncate(0); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	w := &Writer{
		f:      f,
		seen:   make(map[string]struct{}),
		padBuf: make([]byte, writerPadBufSize),
	}
	if err := w.writeZeros(headerSize); err != nil {
		return nil, err
	}
	return w, nil
}

// WriteSection writes a section payload and records it in the directory.
// Sections may be written in any order; a name may only be written once.
func (w *Writer) WriteSection(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("bundle: writer already finalised")
	}
	if _, ok := w.seen[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSection, name)
	}

	// Align each section start for clean mmapping.
	if err := w.alignTo(align); err != nil {
		return err
	}
	offset, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := writeFull(w.f, data); err != nil {
		return err
	}

	w.sections = append(w.sections, pendingSection{
		name:   name,
		offset: uint64(offset),
		size:   uint64(len(data)),
	})
	w.seen[name] = struct{}{}
	return nil
}

// Len reports how many sections have been written.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sections)
}

// Finalise writes the names table and section directory and patches the header.
// After Finalise, the writer must not be used again.
func (w *Writer) Finalise() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("bundle: writer already finalised")
	}
	w.closed = true

	// Deterministic directory ordering.
	sort.Slice(w.sections, func(i, j int) bool {
		return w.sections[i].name < w.sections[j].name
	})

	if err := w.alignTo(align); err != nil {
		return err
	}
	namesOffset, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	entries := make([]sectionEntry, len(w.sections))
	var namesSize uint64
	for i, s := range w.sections {
		entries[i] = sectionEntry{
			NameOff: uint32(namesSize),
			NameLen: uint32(len(s.name)),
			Offset:  s.offset,
			Size:    s.size,
		}
		if err := writeFull(w.f, []byte(s.name)); err != nil {
			return err
		}
		namesSize += uint64(len(s.name))
	}
	if namesSize > uint64(^uint32(0)) {
		return errors.New("bundle: names table too large")
	}

	if err := w.alignTo(align); err != nil {
		return err
	}
	dirOffset, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	var secBuf [sectionSize]byte
	for i := range entries {
		if !encodeSection(secBuf[:], entries[i]) {
			return errors.New("bundle: encode section failed")
		}
		if err := writeFull(w.f, secBuf[:]); err != nil {
			return err
		}
	}

	// Compute final file size and truncate to it (critical if target file was reused).
	fileSize, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := w.f.Truncate(fileSize); err != nil {
		return err
	}

	var header Header
	copy(header.Magic[:], Magic)
	header.Major = CurrentMajor
	header.Minor = CurrentMinor
	header.HeaderSize = headerSize
	header.SectionCount = uint32(len(entries))
	header.SectionDirOffset = uint64(dirOffset)
	header.NamesOffset = uint64(namesOffset)
	header.NamesSize = namesSize
	header.FileSize = uint64(fileSize)

	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	var hdrBuf [headerSize]byte
	if !encodeHeader(hdrBuf[:], header) {
		return errors.New("bundle: encode header failed")
	}
	if err := writeFull(w.f, hdrBuf[:]); err != nil {
		return err
	}
	return w.f.Sync()
}

func (w *Writer) alignTo(n int64) error {
	pos, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	mod := pos % n
	if mod == 0 {
		return nil
	}
	return w.writeZeros(int(n - mod))
}

func (w *Writer) writeZeros(n int) error {
	for n > 0 {
		toWrite := min(n, len(w.padBuf))
		if err := writeFull(w.f, w.padBuf[:toWrite]); err != nil {
			return err
		}
		n -= toWrite
	}
	return nil
}

func writeFull(f *os.File, p []byte) error {
	for len(p) > 0 {
		n, err := f.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func validName(name string) error {
	if name == "" || len(name) > MaxNameLen || !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
