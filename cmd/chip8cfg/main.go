package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"chip8cfg/internal/cfg"
	"chip8cfg/internal/chip8"
	"chip8cfg/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chip8cfg",
		Short: "CHIP-8 control-flow graph recovery",
		Long: `chip8cfg recovers the basic blocks and control-flow edges of a CHIP-8
program and emits them as a Graphviz digraph, a block report or a listing.

Settings come from flags, CHIP8CFG_* environment variables, chip8cfg.toml
(or --config) and built-in defaults, in that order.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.BoolP("verbose", "v", false, "debug logging (overrides log-level)")
	pf.String("config", "", "config file (default ./"+config.DefaultFile+" if present)")
	pf.Int("load-base", chip8.DefaultLoadBase, "program load address")
	pf.Int("entry", 0, "procedure entry, byte offset from the load base")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Bool("verify", false, "check graph invariants after building")

	root.AddCommand(
		newGraphCmd(),
		newBlocksCmd(),
		newDisasmCmd(),
		newBatchCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// env is the resolved configuration and logger for one command run.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	verify bool
}

func setup(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	level := c.Level()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	verify, _ := cmd.Flags().GetBool("verify")
	return &env{
		cfg:    c,
		log:    slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})),
		verify: verify,
	}, nil
}

// analysis is one analyzed ROM.
type analysis struct {
	name  string
	prog  *chip8.Program
	graph *cfg.Graph
}

func readROM(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rom: %w", err)
	}
	return code, nil
}

func (e *env) analyze(path string) (*analysis, error) {
	code, err := readROM(path)
	if err != nil {
		return nil, err
	}
	prog := chip8.NewProgram(code, uint16(e.cfg.LoadBase))
	g, err := cfg.Build(prog, cfg.NewProcedure(e.cfg.EntryAddress()), cfg.Options{Logger: e.log})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if e.verify {
		if err := g.Check(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	e.log.Info("analyzed", "rom", path, "bytes", len(code), "blocks", len(g.Blocks), "edges", len(g.Edges()))
	return &analysis{name: romName(path), prog: prog, graph: g}, nil
}

// romName is the file name without directory or extension.
func romName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
