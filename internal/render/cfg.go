package render

import (
	"fmt"
	"strings"

	"chip8cfg/internal/cfg"
	"chip8cfg/internal/chip8"
)

// CFGOptions controls CFGDOT output.
type CFGOptions struct {
	Title   string
	RankDir string // "LR" (default), "TB", "RL", "BT"
	// Labels adds each block's disassembly to its node. Requires Program.
	Labels  bool
	Program *chip8.Program
	Theme   *Theme // nil renders plain, unstyled statements
}

// maxLabelLines caps the instruction lines shown per block.
const maxLabelLines = 12

// CFGDOT renders a procedure's basic-block CFG as DOT.
// Nodes are numbered by address order. Each (source, destination) pair is
// emitted once, whatever kinds of edge connect the two blocks.
func CFGDOT(g *cfg.Graph, opts CFGOptions) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "LR"
	}

	var b strings.Builder
	b.WriteString("digraph {\n")
	fmt.Fprintf(&b, "\trankdir=%q\n", rankdir)
	if t := opts.Theme; t != nil {
		fmt.Fprintf(&b, "\tbgcolor=%q;\n", t.Background)
		fmt.Fprintf(&b, "\tnode [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Courier,monospace\", fontsize=8, fontcolor=%q];\n",
			t.NodeFill, t.NodeBorder, t.TextColor)
		b.WriteString("\tedge [penwidth=0.7, arrowsize=0.5, arrowhead=vee];\n")
	}
	if opts.Title != "" {
		fmt.Fprintf(&b, "\tlabelloc=t;\n\tlabel=%q;\n", opts.Title)
	}

	for i, blk := range g.Blocks {
		attrs := nodeAttrs(g, blk, opts)
		if attrs == "" {
			fmt.Fprintf(&b, "\t%d;\n", i)
		} else {
			fmt.Fprintf(&b, "\t%d [%s];\n", i, attrs)
		}
	}

	for _, e := range g.Edges() {
		from, to := g.Index(e.From), g.Index(e.To)
		if opts.Theme == nil {
			fmt.Fprintf(&b, "\t%d -> %d;\n", from, to)
			continue
		}
		color := opts.Theme.EdgeFallthrough
		if e.Kind&cfg.EdgeJump != 0 {
			color = opts.Theme.EdgeJump
		}
		fmt.Fprintf(&b, "\t%d -> %d [color=%q];\n", from, to, color)
	}

	b.WriteString("}\n")
	return b.String()
}

func nodeAttrs(g *cfg.Graph, blk *cfg.Block, opts CFGOptions) string {
	var attrs []string
	if opts.Labels && opts.Program != nil {
		attrs = append(attrs, fmt.Sprintf("label=<%s>", blockLabel(blk, opts.Program)))
	}
	if t := opts.Theme; t != nil {
		if blk.Address == g.Proc.EntryBlock {
			attrs = append(attrs, fmt.Sprintf("penwidth=1.5, color=%q", t.EntryBorder))
		}
		switch blk.Exit() {
		case cfg.ExitReturn:
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", t.ReturnFill))
		case cfg.ExitOpen:
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", t.OpenFill))
		}
	}
	return strings.Join(attrs, ", ")
}

// blockLabel renders one line per instruction, truncating long blocks.
func blockLabel(blk *cfg.Block, p *chip8.Program) string {
	insts := p.Disassemble(blk.Address, blk.Terminal()+chip8.InstSize)
	lines := make([]string, 0, len(insts)+1)
	for _, inst := range insts {
		lines = append(lines, dotEscape(fmt.Sprintf("0x%03x: %s", inst.Abs, inst.Text)))
	}
	if len(lines) > maxLabelLines {
		kept := append(lines[:5:5], fmt.Sprintf("... (%d more)", len(lines)-10))
		lines = append(kept, lines[len(lines)-5:]...)
	}
	if len(lines) == 0 {
		lines = append(lines, dotEscape(fmt.Sprintf("0x%03x: <end>", int(blk.Address)+int(p.Base()))))
	}
	return strings.Join(lines, "<br align=\"left\"/>") + "<br align=\"left\"/>"
}
