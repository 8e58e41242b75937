package bundle

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeBundle(t *testing.T, sections map[string][]byte, order []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "artifacts.fxb")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer func() { _ = f.Close() }()

	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	for _, name := range order {
		if err := w.WriteSection(name, sections[name]); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("finalise: %v", err)
	}
	return path
}

func TestOpenRoundTrip(t *testing.T) {
	t.Parallel()

	sections := map[string][]byte{
		"w_b/w_1_0.mif":  []byte("0000000000000001\n0000000000000010\n"),
		"weightValues.h": []byte("int weightValues[]={1,2,0};\n"),
		"w_b/b_1_0.mif":  []byte("0000000000000011"),
		"empty.txt":      {},
	}
	path := writeBundle(t, sections, []string{"weightValues.h", "w_b/w_1_0.mif", "empty.txt", "w_b/b_1_0.mif"})

	bf, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if cerr := bf.Close(); cerr != nil {
			t.Fatalf("close: %v", cerr)
		}
	}()

	want := []string{"empty.txt", "w_b/b_1_0.mif", "w_b/w_1_0.mif", "weightValues.h"}
	got := bf.Names()
	if len(got) != len(want) {
		t.Fatalf("names: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names: got %v want %v", got, want)
		}
	}
	for name, payload := range sections {
		s := bf.Section(name)
		if s == nil {
			t.Fatalf("missing section %s", name)
		}
		if s.Offset%align != 0 {
			t.Fatalf("section %s not aligned: %d", name, s.Offset)
		}
		if data := bf.SectionData(s); !bytes.Equal(data, payload) {
			t.Fatalf("section %s mismatch: got %q want %q", name, data, payload)
		}
	}
	if bf.Section("missing") != nil {
		t.Fatalf("unexpected section for missing name")
	}
}

func TestOpenReaderAtRoundTrip(t *testing.T) {
	t.Parallel()

	path := writeBundle(t, map[string][]byte{"a": []byte("alpha")}, []string{"a"})
	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer func() { _ = rf.Close() }()
	st, err := rf.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	bf, err := OpenReaderAt(rf, st.Size())
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	if bf.mmapped {
		t.Fatalf("OpenReaderAt should not mmap")
	}
	if bf.Header.HeaderSize != headerSize {
		t.Fatalf("header size mismatch: got %d want %d", bf.Header.HeaderSize, headerSize)
	}
	if got := string(bf.SectionData(bf.Section("a"))); got != "alpha" {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestWriterRejectsDuplicatesAndBadNames(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "dup.fxb"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = f.Close() }()
	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteSection("x", []byte("1")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.WriteSection("x", []byte("2")); !errors.Is(err, ErrDuplicateSection) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := w.WriteSection("", nil); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name error, got %v", err)
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("finalise: %v", err)
	}
	if err := w.WriteSection("y", nil); err == nil {
		t.Fatalf("expected error after finalise")
	}
}

func TestParseRejectsCorruption(t *testing.T) {
	t.Parallel()

	path := writeBundle(t, map[string][]byte{"a": []byte("alpha")}, []string{"a"})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	bad := bytes.Clone(data)
	bad[0] = 'X'
	if _, err := parseFileData(bad, false); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected invalid magic, got %v", err)
	}

	if _, err := parseFileData(data[:len(data)-1], false); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected corrupt file for truncated data, got %v", err)
	}

	bad = bytes.Clone(data)
	bad[4] = 9
	if _, err := parseFileData(bad, false); !errors.Is(err, ErrUnsupportedMajor) {
		t.Fatalf("expected unsupported major, got %v", err)
	}
}

func TestHeaderAndSectionEncodingLittleEndian(t *testing.T) {
	t.Parallel()

	h := Header{
		Magic:            [4]byte{'F', 'X', 'B', 0},
		Major:            0x1122,
		Minor:            0x3344,
		HeaderSize:       headerSize,
		SectionCount:     7,
		SectionDirOffset: 0x0102030405060708,
		NamesOffset:      0x0a0b,
		NamesSize:        3,
		FileSize:         0x1112131415161718,
	}
	var raw [headerSize]byte
	if !encodeHeader(raw[:], h) {
		t.Fatalf("encode header failed")
	}
	if raw[4] != 0x22 || raw[5] != 0x11 {
		t.Fatalf("major is not little-endian: %x", raw[4:6])
	}
	if raw[16] != 0x08 || raw[23] != 0x01 {
		t.Fatalf("section dir offset is not little-endian: %x", raw[16:24])
	}
	decoded, ok := decodeHeader(raw[:])
	if !ok || decoded != h {
		t.Fatalf("header round-trip mismatch: got %+v want %+v", decoded, h)
	}

	s := sectionEntry{NameOff: 0x11223344, NameLen: 5, Offset: 0x0102030405060708, Size: 9}
	var secRaw [sectionSize]byte
	if !encodeSection(secRaw[:], s) {
		t.Fatalf("encode section failed")
	}
	if secRaw[0] != 0x44 || secRaw[3] != 0x11 {
		t.Fatalf("name offset is not little-endian: %x", secRaw[0:4])
	}
	decodedS, ok := decodeSection(secRaw[:])
	if !ok || decodedS != s {
		t.Fatalf("section round-trip mismatch: got %+v want %+v", decodedS, s)
	}
}
