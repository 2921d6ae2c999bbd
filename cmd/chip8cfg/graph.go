package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	latticerender "github.com/zboralski/lattice/render"

	"chip8cfg/internal/callgraph"
	"chip8cfg/internal/output"
	"chip8cfg/internal/render"
)

func newGraphCmd() *cobra.Command {
	var (
		style string
		write bool
	)
	cmd := &cobra.Command{
		Use:   "graph <rom>",
		Short: "Emit the control-flow graph as DOT",
		Long: `Emit the recovered control-flow graph as a Graphviz digraph.

Styles:
  blocks     one node per block, numbered in address order (default)
  lattice    lattice CFG with instruction ranges and call sites
  callgraph  the procedure and the subroutines it calls

The graph goes to stdout unless --write or --out-dir is given; --write uses
out_dir from the config file or CHIP8CFG_OUT_DIR.

Examples:
  chip8cfg graph pong.ch8 | dot -Tsvg > pong.svg
  chip8cfg graph --theme nasa --labels --out-dir out pong.ch8
  chip8cfg graph --write pong.ch8`,
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
			dot, err := e.dot(a, style)
			if err != nil {
				return err
			}
			if !write && !cmd.Flags().Changed("out-dir") {
				_, err := io.WriteString(cmd.OutOrStdout(), dot)
				return err
			}
			path, err := output.WriteDOT(e.cfg.OutDir, a.name, dot)
			if err != nil {
				return err
			}
			e.log.Info("wrote", "path", path, "bytes", len(dot))
			return nil
		},
	}
	cmd.Flags().String("rankdir", "LR", "layout direction: LR, TB, RL, BT")
	cmd.Flags().String("theme", "plain", "node styling: plain, nasa, mono")
	cmd.Flags().Bool("labels", false, "show each block's instructions")
	cmd.Flags().StringVar(&style, "style", "blocks", "graph style: blocks, lattice, callgraph")
	cmd.Flags().StringP("out-dir", "o", "out", "write <rom>.dot here instead of stdout")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write <rom>.dot to the configured out_dir")
	return cmd
}

// dot renders a in the given style.
func (e *env) dot(a *analysis, style string) (string, error) {
	switch style {
	case "blocks", "":
		theme, err := render.ThemeByName(e.cfg.Theme)
		if err != nil {
			return "", err
		}
		return render.CFGDOT(a.graph, render.CFGOptions{
			RankDir: e.cfg.RankDir,
			Labels:  e.cfg.Labels,
			Program: a.prog,
			Theme:   theme,
		}), nil
	case "lattice":
		return latticerender.DOTCFG(callgraph.BuildCFG(a.name, a.graph, a.prog), a.name), nil
	case "callgraph":
		return latticerender.DOT(callgraph.BuildCallGraph(a.name, a.graph, a.prog), a.name), nil
	}
	return "", fmt.Errorf("unknown graph style %q", style)
}
