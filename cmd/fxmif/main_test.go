package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/fxmif/internal/sink"
	"github.com/samcharles93/fxmif/pkg/bundle"
)

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	argv := append([]string{"fxmif", "--log-level", "error", "--log-format", "text"}, args...)
	return newApp().Run(context.Background(), argv)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func writeParams(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weightsandbiases.json")
	doc := `{"weights": [[[0.5, -0.25], [1.0, 0.0]], [[0.125, 0.75]]], "biases": [[[0.5], [0.0]], [[-0.5]]]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}
	return path
}

func writeImages(t *testing.T) string {
	t.Helper()
	pixels := strings.TrimSuffix(strings.Repeat("0.5,", 784), ",")
	path := filepath.Join(t.TempDir(), "images.json")
	body := `[{"pixels": [` + pixels + `], "label": 3}, {"pixels": [` + pixels + `], "label": 8}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write images: %v", err)
	}
	return path
}

func TestLutCommand(t *testing.T) {
	out := t.TempDir()
	if err := runApp(t, "lut", "--out", out, "--address-bits", "4"); err != nil {
		t.Fatalf("lut: %v", err)
	}
	lines := readLines(t, filepath.Join(out, "sigContent.mif"))
	if len(lines) != 16 {
		t.Fatalf("expected 16 entries, got %d", len(lines))
	}
	if len(lines[0]) != 16 {
		t.Fatalf("expected 16-bit words, got %q", lines[0])
	}
	data, err := os.ReadFile(filepath.Join(out, sink.ManifestName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	m, err := sink.ReadManifest(data)
	if err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Formats["lut"] != "Q1.15" || len(m.Artifacts) != 1 || m.RunID == "" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestConfigPrecedence(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("data_width: 8\nlut_address_bits: 3\nworkers: 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// file only
	out := t.TempDir()
	if err := runApp(t, "--config", cfgPath, "lut", "--out", out); err != nil {
		t.Fatalf("lut: %v", err)
	}
	lines := readLines(t, filepath.Join(out, "sigContent.mif"))
	if len(lines) != 8 || len(lines[0]) != 8 {
		t.Fatalf("config file not applied: %d lines of %d bits", len(lines), len(lines[0]))
	}

	// env beats file
	t.Setenv("FXMIF_LUT_ADDRESS_BITS", "4")
	out = t.TempDir()
	if err := runApp(t, "--config", cfgPath, "lut", "--out", out); err != nil {
		t.Fatalf("lut: %v", err)
	}
	if n := len(readLines(t, filepath.Join(out, "sigContent.mif"))); n != 16 {
		t.Fatalf("env not applied: %d lines", n)
	}

	// flag beats env
	out = t.TempDir()
	if err := runApp(t, "--config", cfgPath, "lut", "--out", out, "--address-bits", "2"); err != nil {
		t.Fatalf("lut: %v", err)
	}
	if n := len(readLines(t, filepath.Join(out, "sigContent.mif"))); n != 4 {
		t.Fatalf("flag not applied: %d lines", n)
	}
}

func TestAllCommandIntoBundleThenUnpack(t *testing.T) {
	dir := t.TempDir()
	bundleFile := filepath.Join(dir, "run.fxb")
	err := runApp(t, "all",
		"--bundle", bundleFile,
		"--input", writeParams(t),
		"--json", writeImages(t),
		"--index", "0",
		"--all", "--quiet",
		"--workers", "4",
	)
	if err != nil {
		t.Fatalf("all: %v", err)
	}

	f, err := bundle.Open(bundleFile)
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	for _, name := range []string{
		"sigContent.mif",
		"weightValues.h",
		"biasValues.h",
		"w_b/w_1_0.mif",
		"w_b/b_2_0.mif",
		"testData/test_data.txt",
		"testData/dataValues.h",
		"testData/visual_data3.txt",
		"testData/test_data_0001.txt",
		"testData.txt",
		sink.ManifestName,
	} {
		if f.Section(name) == nil {
			t.Fatalf("missing section %s in %v", name, f.Names())
		}
	}
	var buf strings.Builder
	if err := printBundle(&buf, f); err != nil {
		t.Fatalf("printBundle: %v", err)
	}
	if !strings.Contains(buf.String(), "weightValues.h") || strings.Contains(buf.String(), "incomplete") {
		t.Fatalf("unexpected inspect output:\n%s", buf.String())
	}
	want := string(f.SectionData(f.Section("w_b/b_2_0.mif")))
	_ = f.Close()

	out := filepath.Join(dir, "unpacked")
	if err := runApp(t, "unpack", "--bundle", bundleFile, "--out", out); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(out, "w_b", "b_2_0.mif"))
	if err != nil {
		t.Fatalf("read unpacked: %v", err)
	}
	if string(got) != want || want != "1111110000000000" {
		t.Fatalf("unpacked bias: got %q want %q", got, want)
	}
}

func TestTestdataRequiresDataset(t *testing.T) {
	if err := runApp(t, "testdata", "--out", t.TempDir()); err == nil {
		t.Fatalf("expected error without a dataset")
	}
}

func TestParamsRejectsMalformedInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"weights": []}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := t.TempDir()
	if err := runApp(t, "params", "--input", path, "--out", out); err == nil {
		t.Fatalf("expected error for malformed document")
	}
	if _, err := os.Stat(filepath.Join(out, sink.ManifestName)); !os.IsNotExist(err) {
		t.Fatalf("no manifest expected after failure")
	}
}
