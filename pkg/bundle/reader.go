package bundle

import (
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/sys/unix"
)

// File is an opened bundle. Section payloads are views into Data.
type File struct {
	Data     []byte
	Header   *Header
	Sections []Section
	mmapped  bool
}

// Open maps a bundle read-only and validates its structure.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned file must be closed to release any mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < headerSize || size64 > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		bf, parseErr := parseFileData(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return bf, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

// OpenReaderAt loads and validates a bundle from a random-access reader without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parseFileData(data []byte, mmapped bool) (*File, error) {
	hdr, ok := decodeHeader(data)
	if !ok {
		return nil, ErrCorruptFile
	}
	if !hdr.Valid() {
		return nil, ErrInvalidMagic
	}
	if !hdr.Compatible() {
		return nil, ErrUnsupportedMajor
	}
	size := uint64(len(data))
	if hdr.FileSize != size || uint64(hdr.HeaderSize) > size {
		return nil, ErrCorruptFile
	}

	dirStart := hdr.SectionDirOffset
	dirEnd := dirStart + uint64(hdr.SectionCount)*sectionSize
	if dirStart < uint64(hdr.HeaderSize) || dirEnd < dirStart || dirEnd > size {
		return nil, ErrCorruptFile
	}
	namesStart := hdr.NamesOffset
	namesEnd := namesStart + hdr.NamesSize
	if namesStart < uint64(hdr.HeaderSize) || namesEnd < namesStart || namesEnd > size {
		return nil, ErrCorruptFile
	}
	names := data[namesStart:namesEnd]

	sections := make([]Section, hdr.SectionCount)
	for i := range sections {
		start := dirStart + uint64(i)*sectionSize
		e, ok := decodeSection(data[start : start+sectionSize])
		if !ok {
			return nil, ErrCorruptFile
		}
		nameEnd := uint64(e.NameOff) + uint64(e.NameLen)
		if e.NameLen == 0 || nameEnd > uint64(len(names)) {
			return nil, fmt.Errorf("%w: section %d name out of range", ErrCorruptFile, i)
		}
		end := e.Offset + e.Size
		switch {
		case end < e.Offset || end > size:
			return nil, fmt.Errorf("%w: section %d out of bounds", ErrCorruptFile, i)
		case e.Offset < uint64(hdr.HeaderSize):
			return nil, fmt.Errorf("%w: section %d overlaps header", ErrCorruptFile, i)
		case rangesOverlap(e.Offset, end, dirStart, dirEnd):
			return nil, fmt.Errorf("%w: section %d overlaps section directory", ErrCorruptFile, i)
		case e.Offset%align != 0:
			return nil, fmt.Errorf("%w: section %d offset not %d-byte aligned", ErrCorruptFile, i, align)
		}
		sections[i] = Section{
			Name:   string(names[e.NameOff:nameEnd]),
			Offset: e.Offset,
			Size:   e.Size,
		}
	}
	if !sort.SliceIsSorted(sections, func(i, j int) bool { return sections[i].Name < sections[j].Name }) {
		return nil, fmt.Errorf("%w: section directory not sorted", ErrCorruptFile)
	}

	return &File{Data: data, Header: &hdr, Sections: sections, mmapped: mmapped}, nil
}

// Close releases file resources and any mmap backing.
func (f *File) Close() error {
	if f == nil {
		return nil
	}
	var err error
	if f.Data != nil && f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.Header = nil
	f.Sections = nil
	f.mmapped = false
	return err
}

// Section returns the section with the given name, or nil if it does not exist.
func (f *File) Section(name string) *Section {
	i := sort.Search(len(f.Sections), func(i int) bool { return f.Sections[i].Name >= name })
	if i < len(f.Sections) && f.Sections[i].Name == name {
		return &f.Sections[i]
	}
	return nil
}

// SectionData returns a zero-copy slice covering the section payload.
// The caller must not retain this slice after File.Close().
func (f *File) SectionData(s *Section) []byte {
	if f == nil || s == nil || f.Data == nil {
		return nil
	}
	end := s.End()
	if end < s.Offset || end > uint64(len(f.Data)) {
		return nil
	}
	return f.Data[s.Offset:end]
}

// Names lists section names in directory order.
func (f *File) Names() []string {
	out := make([]string, len(f.Sections))
	for i := range f.Sections {
		out[i] = f.Sections[i].Name
	}
	return out
}
