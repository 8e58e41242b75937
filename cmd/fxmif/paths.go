package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/samcharles93/fxmif/internal/logger"
	"github.com/samcharles93/fxmif/internal/sink"
	"github.com/samcharles93/fxmif/internal/version"
)

const envOutDir = envPrefix + "OUT_DIR"

// resolveOutDir picks the flag, then FXMIF_OUT_DIR, then ./out.
func resolveOutDir(outFlag string) string {
	if dir := strings.TrimSpace(outFlag); dir != "" {
		return filepath.Clean(dir)
	}
	if dir := strings.TrimSpace(os.Getenv(envOutDir)); dir != "" {
		return filepath.Clean(dir)
	}
	return filepath.Join(".", "out")
}

// openSink opens the bundle when bundleFlag is set, otherwise a directory sink.
// A stale manifest is removed first so an interrupted run never looks complete.
func openSink(bundleFlag, outFlag string) (sink.Sink, string, error) {
	if p := strings.TrimSpace(bundleFlag); p != "" {
		p = filepath.Clean(p)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, "", err
		}
		s, err := sink.NewBundle(p)
		if err != nil {
			return nil, "", err
		}
		return s, p, nil
	}

	dir := resolveOutDir(outFlag)
	s, err := sink.NewDir(dir)
	if err != nil {
		return nil, "", err
	}
	if err := os.Remove(filepath.Join(dir, sink.ManifestName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", err
	}
	return s, dir, nil
}

// runWithSink opens the configured sink, runs fn against it and finishes the
// run by writing the manifest. On error the sink is closed without a manifest.
func runWithSink(ctx context.Context, formats map[string]string, fn func(s sink.Sink) error) error {
	log := logger.FromContext(ctx)

	s, dest, err := openSink(bundlePath, outDir)
	if err != nil {
		return err
	}
	tracker := sink.Track(s)
	if err := fn(tracker); err != nil {
		_ = s.Close()
		return err
	}

	m := sink.NewManifest("fxmif", version.String())
	for k, v := range formats {
		m.Formats[k] = v
	}
	if err := sink.WriteManifest(tracker, m); err != nil {
		_ = s.Close()
		return fmt.Errorf("manifest: %w", err)
	}
	if err := s.Close(); err != nil {
		return err
	}

	log.Info("artifacts written",
		"dest", dest,
		"files", humanize.Comma(int64(len(tracker.Artifacts()))),
		"size", humanize.Bytes(uint64(tracker.TotalBytes())),
		"run_id", m.RunID,
	)
	return nil
}
