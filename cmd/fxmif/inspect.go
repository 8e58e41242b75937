package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fxmif/internal/sink"
	"github.com/samcharles93/fxmif/pkg/bundle"
)

func inspectCmd() *cli.Command {
	var path string

	return &cli.Command{
		Name:   "inspect",
		Usage:  "List the sections of an artifact bundle",
		Before: prepare,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bundle",
				Aliases:     []string{"b"},
				Usage:       "path to bundle file",
				Required:    true,
				Destination: &path,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := bundle.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			return printBundle(os.Stdout, f)
		},
	}
}

func printBundle(w io.Writer, f *bundle.File) error {
	h := f.Header
	_, _ = fmt.Fprintf(w, "bundle v%d.%d  %s sections  %s\n",
		h.Major, h.Minor, humanize.Comma(int64(h.SectionCount)), humanize.Bytes(h.FileSize))

	if s := f.Section(sink.ManifestName); s != nil {
		m, err := sink.ReadManifest(f.SectionData(s))
		if err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		_, _ = fmt.Fprintf(w, "run %s  %s %s  created %s\n", m.RunID, m.Tool, m.Version, humanize.Time(m.CreatedAt))
		for _, k := range slices.Sorted(maps.Keys(m.Formats)) {
			_, _ = fmt.Fprintf(w, "  %-8s %s\n", k, m.Formats[k])
		}
	} else {
		_, _ = fmt.Fprintln(w, "no manifest: incomplete run")
	}
	_, _ = fmt.Fprintln(w)

	data := make([][]string, 0, len(f.Sections))
	for _, s := range f.Sections {
		data = append(data, []string{s.Name, humanize.Bytes(s.Size), strconv.FormatUint(s.Offset, 10)})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"NAME", "SIZE", "OFFSET"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}
