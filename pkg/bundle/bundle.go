// Package bundle implements a single-file container of named byte sections.
//
// A bundle holds the same artifacts a directory run would produce, one section
// per artifact, with section payloads byte-identical to the files. It describes
// content only; consumers decide how to lay sections out on disk.
package bundle

import "errors"

// Bundle global constants must never change.
const (
	// Magic is encoded as "FXB\0".
	Magic = "FXB\x00"

	// CurrentMajor changes only with breaking layout changes.
	CurrentMajor uint16 = 1
	// CurrentMinor may add optional fields.
	CurrentMinor uint16 = 0

	// MaxNameLen bounds a section name in bytes.
	MaxNameLen = 4096
)

// On-disk sizes; every integer is little-endian.
const (
	headerSize  = 48
	sectionSize = 24
	align       = 8
)

var (
	ErrInvalidMagic     = errors.New("bundle: invalid magic")
	ErrUnsupportedMajor = errors.New("bundle: unsupported major version")
	ErrCorruptFile      = errors.New("bundle: corrupt file")
	ErrDuplicateSection = errors.New("bundle: duplicate section")
	ErrInvalidName      = errors.New("bundle: invalid section name")
)

// Header is the fixed file header.
type Header struct {
	Magic            [4]byte
	Major            uint16
	Minor            uint16
	HeaderSize       uint32
	SectionCount     uint32
	SectionDirOffset uint64
	NamesOffset      uint64
	NamesSize        uint64
	FileSize         uint64
}

func (h *Header) Valid() bool {
	return string(h.Magic[:]) == Magic && h.HeaderSize >= headerSize
}

func (h *Header) Compatible() bool {
	return h.Major == CurrentMajor
}

// sectionEntry is one directory record. The name lives in the names table.
type sectionEntry struct {
	NameOff uint32
	NameLen uint32
	Offset  uint64
	Size    uint64
}

// Section is a decoded directory record.
type Section struct {
	Name   string
	Offset uint64
	Size   uint64
}

func (s *Section) End() uint64 {
	return s.Offset + s.Size
}
