package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/qgenie"
)

func newVerifyCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "verify <bundle>",
		Short: "Check a bundle without extracting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("strict") {
				a.cfg.Strict = strict
			}
			err := qgenie.Verify(args[0],
				qgenie.WithWorkers(a.cfg.Workers),
				qgenie.WithLogger(a.logger),
				qgenie.WithVerifyEntryChecksums(a.cfg.Strict),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "also verify per-section checksums")
	return cmd
}
