package main

import (
	"github.com/spf13/cobra"

	"chip8cfg/internal/output"
)

func newBlocksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks <rom>",
		Short: "Print the block report",
		Long: `Print every recovered block with its length, exit kind, predecessors,
successors and call sites. Indices are block numbers in address order.

Examples:
  chip8cfg blocks pong.ch8
  chip8cfg blocks --format json pong.ch8 | jq '.blocks[0]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			a, err := e.analyze(args[0])
			if err != nil {
				return err
			}
			return output.WriteReport(cmd.OutOrStdout(), output.NewReport(a.name, a.graph, a.prog), e.cfg.ReportFormat())
		},
	}
	cmd.Flags().StringP("format", "f", "text", "report format: text, json, yaml, msgpack")
	return cmd
}
