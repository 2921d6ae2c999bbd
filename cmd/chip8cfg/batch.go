package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"chip8cfg/internal/output"
	"chip8cfg/internal/render"
)

func newBatchCmd() *cobra.Command {
	var asm bool
	cmd := &cobra.Command{
		Use:   "batch <glob>...",
		Short: "Analyze many ROMs and write per-ROM graphs and reports",
		Long: `Analyze every ROM matched by the glob patterns (** is supported) and write
<name>.dot and a block report for each into the output directory, plus an
index.html summary. A ROM that fails to analyze is logged, listed in the
index and skipped; the command fails if any did.

Examples:
  chip8cfg batch 'roms/**/*.ch8'
  chip8cfg batch --format json --out-dir graphs 'games/*.ch8' 'demos/*.ch8'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			roms, err := expandGlobs(args)
			if err != nil {
				return err
			}
			if len(roms) == 0 {
				return fmt.Errorf("no roms match %v", args)
			}
			return e.batch(cmd, roms, asm)
		},
	}
	cmd.Flags().StringP("out-dir", "o", "out", "output directory")
	cmd.Flags().StringP("format", "f", "text", "report format: text, json, yaml, msgpack")
	cmd.Flags().String("rankdir", "LR", "layout direction: LR, TB, RL, BT")
	cmd.Flags().String("theme", "plain", "node styling: plain, nasa, mono")
	cmd.Flags().Bool("labels", false, "show each block's instructions")
	cmd.Flags().BoolVar(&asm, "asm", false, "also write <name>.asm listings")
	return cmd
}

// expandGlobs returns the sorted, de-duplicated files matched by patterns.
func expandGlobs(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func (e *env) batch(cmd *cobra.Command, roms []string, asm bool) error {
	bar := newProgressBar(cmd, len(roms))
	var (
		errs    []error
		entries []render.IndexEntry
	)
	for _, rom := range roms {
		entry, err := e.batchOne(rom, asm)
		if err != nil {
			e.log.Warn("skipped", "rom", rom, "err", err)
			errs = append(errs, err)
			entry = render.IndexEntry{Name: romName(rom), Err: err.Error()}
		}
		entries = append(entries, entry)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	index, err := output.WriteIndex(e.cfg.OutDir, func(w io.Writer) error {
		return render.WriteIndexHTML(w, "chip8cfg batch", entries)
	})
	if err != nil {
		return err
	}
	e.log.Info("batch done", "roms", len(roms), "failed", len(errs), "index", index)
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d roms failed: %w", len(errs), len(roms), errors.Join(errs...))
	}
	return nil
}

func (e *env) batchOne(rom string, asm bool) (render.IndexEntry, error) {
	a, err := e.analyze(rom)
	if err != nil {
		return render.IndexEntry{}, err
	}
	dot, err := e.dot(a, "blocks")
	if err != nil {
		return render.IndexEntry{}, err
	}
	var files []string
	path, err := output.WriteDOT(e.cfg.OutDir, a.name, dot)
	if err != nil {
		return render.IndexEntry{}, err
	}
	files = append(files, filepath.Base(path))

	report := output.NewReport(a.name, a.graph, a.prog)
	path, err = output.WriteReportFile(e.cfg.OutDir, a.name, report, e.cfg.ReportFormat())
	if err != nil {
		return render.IndexEntry{}, err
	}
	files = append(files, filepath.Base(path))

	if asm {
		path, err := output.WriteASM(e.cfg.OutDir, a.name, a.prog)
		if err != nil {
			return render.IndexEntry{}, err
		}
		files = append(files, filepath.Base(path))
	}
	return render.IndexEntry{
		Name:  a.name,
		Stats: render.ComputeStats(a.graph, a.prog),
		Files: files,
	}, nil
}

// newProgressBar returns nil unless stderr is an interactive terminal, so
// logs and piped output stay clean.
func newProgressBar(cmd *cobra.Command, max int) *progressbar.ProgressBar {
	f, ok := cmd.ErrOrStderr().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	var w io.Writer = f
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription("analyzing"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
