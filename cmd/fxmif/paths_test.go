package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/samcharles93/fxmif/internal/sink"
)

func TestResolveOutDir(t *testing.T) {
	t.Run("explicit output wins", func(t *testing.T) {
		t.Setenv(envOutDir, "/ignored")
		got := resolveOutDir(" build/out/ ")
		if got != filepath.Clean("build/out") {
			t.Fatalf("unexpected output dir: got %q", got)
		}
	})

	t.Run("env output dir overrides default", func(t *testing.T) {
		envDir := filepath.Join(t.TempDir(), "artifacts")
		t.Setenv(envOutDir, envDir)
		if got := resolveOutDir(""); got != envDir {
			t.Fatalf("unexpected output dir: got %q want %q", got, envDir)
		}
	})

	t.Run("default output dir is ./out", func(t *testing.T) {
		t.Setenv(envOutDir, "")
		if got := resolveOutDir(""); got != filepath.Join(".", "out") {
			t.Fatalf("unexpected output dir: got %q", got)
		}
	})
}

func TestOpenSinkRemovesStaleManifest(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, sink.ManifestName)
	if err := os.WriteFile(stale, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	s, dest, err := openSink("", dir)
	if err != nil {
		t.Fatalf("openSink returned error: %v", err)
	}
	defer s.Close()
	if dest != dir {
		t.Fatalf("unexpected destination: %q", dest)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale manifest to be removed, stat err=%v", err)
	}
}

func TestRunWithSinkBundle(t *testing.T) {
	prevBundle, prevOut := bundlePath, outDir
	defer func() { bundlePath, outDir = prevBundle, prevOut }()

	bundlePath = filepath.Join(t.TempDir(), "nested", "run.fxb")
	outDir = ""
	err := runWithSink(context.Background(), map[string]string{"lut": "Q1.15"}, func(s sink.Sink) error {
		return sink.WriteFile(s, "a.txt", func(w io.Writer) error {
			_, err := io.WriteString(w, "hello")
			return err
		})
	})
	if err != nil {
		t.Fatalf("runWithSink returned error: %v", err)
	}
	if st, err := os.Stat(bundlePath); err != nil || st.Size() == 0 {
		t.Fatalf("expected bundle file, stat err=%v", err)
	}
}

func TestRunWithSinkSkipsManifestOnError(t *testing.T) {
	prevBundle, prevOut := bundlePath, outDir
	defer func() { bundlePath, outDir = prevBundle, prevOut }()

	bundlePath = ""
	outDir = t.TempDir()
	err := runWithSink(context.Background(), nil, func(s sink.Sink) error {
		return os.ErrInvalid
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, err := os.Stat(filepath.Join(outDir, sink.ManifestName)); !os.IsNotExist(err) {
		t.Fatalf("manifest must not exist after a failed run, stat err=%v", err)
	}
}
