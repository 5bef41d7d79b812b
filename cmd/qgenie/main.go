// Command qgenie unpacks, inspects, and verifies model bundles.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/meigma/qgenie/internal/config"
)

// app holds state shared by every subcommand.
type app struct {
	cfgFile    string
	logLevel   string
	logFormat  string
	noProgress bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "qgenie",
		Short: "Unpack model bundles",
		Long: `qgenie extracts model bundles into a directory of plain files.

A bundle holds a compressed config.json and any number of zstd-compressed
sections. Unpacking validates the whole-file checksum first, then
decompresses sections in parallel, skipping files that are already present
with the expected size.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is qgenie.yaml in home or pwd)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	pf.BoolVar(&a.noProgress, "no-progress", false, "disable progress bar")

	cmd.AddCommand(
		newUnpackCmd(a),
		newInspectCmd(a),
		newVerifyCmd(a),
	)
	return cmd
}

// setup loads configuration, applies flag overrides, and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("no-progress") {
		cfg.NoProgress = a.noProgress
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(newHandler(cmd.ErrOrStderr(), cfg.LogFormat, level))
	return nil
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:   level,
		NoColor: !isTerminal(w),
	})
}
