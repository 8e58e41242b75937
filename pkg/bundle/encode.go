package bundle

import "encoding/binary"

func encodeHeader(dst []byte, h Header) bool {
	if len(dst) < headerSize {
		return false
	}
	copy(dst[0:4], h.Magic[:])
	le := binary.LittleEndian
	le.PutUint16(dst[4:6], h.Major)
	le.PutUint16(dst[6:8], h.Minor)
	le.PutUint32(dst[8:12], h.HeaderSize)
	le.PutUint32(dst[12:16], h.SectionCount)
	le.PutUint64(dst[16:24], h.SectionDirOffset)
	le.PutUint64(dst[24:32], h.NamesOffset)
	le.PutUint64(dst[32:40], h.NamesSize)
	le.PutUint64(dst[40:48], h.FileSize)
	return true
}

func decodeHeader(src []byte) (Header, bool) {
	if len(src) < headerSize {
		return Header{}, false
	}
	var h Header
	copy(h.Magic[:], src[0:4])
	le := binary.LittleEndian
	h.Major = le.Uint16(src[4:6])
	h.Minor = le.Uint16(src[6:8])
	h.HeaderSize = le.Uint32(src[8:12])
	h.SectionCount = le.Uint32(src[12:16])
	h.SectionDirOffset = le.Uint64(src[16:24])
	h.NamesOffset = le.Uint64(src[24:32])
	h.NamesSize = le.Uint64(src[32:40])
	h.FileSize = le.Uint64(src[40:48])
	return h, true
}

func encodeSection(dst []byte, s sectionEntry) bool {
	if len(dst) < sectionSize {
		return false
	}
	le := binary.LittleEndian
	le.PutUint32(dst[0:4], s.NameOff)
	le.PutUint32(dst[4:8], s.NameLen)
	le.PutUint64(dst[8:16], s.Offset)
	le.PutUint64(dst[16:24], s.Size)
	return true
}

func decodeSection(src []byte) (sectionEntry, bool) {
	if len(src) < sectionSize {
		return sectionEntry{}, false
	}
	le := binary.LittleEndian
	return sectionEntry{
		NameOff: le.Uint32(src[0:4]),
		NameLen: le.Uint32(src[4:8]),
		Offset:  le.Uint64(src[8:16]),
		Size:    le.Uint64(src[16:24]),
	}, true
}

func rangesOverlap(a0, a1, b0, b1 uint64) bool {
	// half-open ranges [a0,a1) and [b0,b1)
	return a0 < b1 && b0 < a1
}
