package main

import (
	"io"

	"github.com/spf13/cobra"

	"chip8cfg/internal/chip8"
	"chip8cfg/internal/output"
)

func newDisasmCmd() *cobra.Command {
	var linear bool
	cmd := &cobra.Command{
		Use:   "disasm <rom>",
		Short: "Print the instruction listing grouped by block",
		Long: `Print the program's instructions grouped under their recovered blocks.
With --linear the whole buffer is listed in address order without building
the graph, including bytes no block covers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			if linear {
				code, err := readROM(args[0])
				if err != nil {
					return err
				}
				p := chip8.NewProgram(code, uint16(e.cfg.LoadBase))
				_, err = io.WriteString(cmd.OutOrStdout(), chip8.Format(p.Disassemble(0, chip8.Address(p.Len()))))
				return err
			}
			a, err := e.analyze(args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), output.BlockListing(a.graph, a.prog))
			return err
		},
	}
	cmd.Flags().BoolVar(&linear, "linear", false, "list the whole buffer without block headers")
	return cmd
}
