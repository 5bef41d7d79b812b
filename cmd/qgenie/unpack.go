package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/meigma/qgenie"
	"github.com/meigma/qgenie/internal/progress"
)

type unpackFlags struct {
	workers       int
	strict        bool
	removePartial bool
	printConfig   bool
}

func newUnpackCmd(a *app) *cobra.Command {
	var f unpackFlags
	cmd := &cobra.Command{
		Use:   "unpack <bundle> <outdir>",
		Short: "Extract every section of a bundle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUnpack(cmd, f, args[0], args[1])
		},
	}
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "concurrent decompressions (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "verify per-section checksums before writing")
	cmd.Flags().BoolVar(&f.removePartial, "remove-partial", false, "remove output files of failed sections")
	cmd.Flags().BoolVar(&f.printConfig, "print-config", false, "print the extracted config.json")
	return cmd
}

func (a *app) runUnpack(cmd *cobra.Command, f unpackFlags, bundle, outdir string) error {
	cfg := a.cfg
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("strict") {
		cfg.Strict = f.strict
	}
	if flags.Changed("remove-partial") {
		cfg.RemovePartial = f.removePartial
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	bar := newProgressBar(cmd.ErrOrStderr(), !cfg.NoProgress)
	u := qgenie.NewUnpacker(
		qgenie.WithWorkers(cfg.Workers),
		qgenie.WithLogger(a.logger),
		qgenie.WithProgress(bar.Handle),
		qgenie.WithVerifyEntryChecksums(cfg.Strict),
		qgenie.WithRemovePartial(cfg.RemovePartial),
		qgenie.WithMaxDecoderMemory(cfg.DecoderMemoryLimit),
	)
	stats, err := u.Unpack(bundle, outdir)
	bar.Finish()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "extracted %d, skipped %d, wrote %s to %s\n",
		stats.Extracted, stats.Skipped, humanize.IBytes(stats.Bytes), outdir)

	if f.printConfig {
		data, err := os.ReadFile(filepath.Join(outdir, qgenie.ConfigName))
		if err != nil {
			return fmt.Errorf("read %s: %w", qgenie.ConfigName, err)
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

// newProgressBar returns a bar on w when w is a terminal.
func newProgressBar(w io.Writer, enabled bool) *progress.Bar {
	f, ok := w.(*os.File)
	if !ok {
		return progress.New(nil, false)
	}
	return progress.New(f, enabled)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
