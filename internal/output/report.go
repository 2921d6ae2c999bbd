package output

import (
	"fmt"

	"chip8cfg/internal/cfg"
	"chip8cfg/internal/chip8"
)

// Report is the serializable form of a recovered CFG.
type Report struct {
	Program  string        `json:"program,omitempty" yaml:"program,omitempty" msgpack:"program,omitempty"`
	LoadBase string        `json:"load_base" yaml:"load_base" msgpack:"load_base"`
	Entry    string        `json:"entry" yaml:"entry" msgpack:"entry"`
	Blocks   []BlockRecord `json:"blocks" yaml:"blocks" msgpack:"blocks"`
	Edges    []EdgeRecord  `json:"edges" yaml:"edges" msgpack:"edges"`
}

// BlockRecord is one block. Preds and Succs are node indices.
type BlockRecord struct {
	Index  int      `json:"index" yaml:"index" msgpack:"index"`
	Addr   string   `json:"addr" yaml:"addr" msgpack:"addr"`
	Length int      `json:"length" yaml:"length" msgpack:"length"`
	Exit   string   `json:"exit" yaml:"exit" msgpack:"exit"`
	Preds  []int    `json:"preds" yaml:"preds,flow" msgpack:"preds"`
	Succs  []int    `json:"succs" yaml:"succs,flow" msgpack:"succs"`
	Calls  []string `json:"calls,omitempty" yaml:"calls,omitempty,flow" msgpack:"calls,omitempty"`
}

// EdgeRecord is one distinct (from, to) node pair.
type EdgeRecord struct {
	From int    `json:"from" yaml:"from" msgpack:"from"`
	To   int    `json:"to" yaml:"to" msgpack:"to"`
	Kind string `json:"kind" yaml:"kind" msgpack:"kind"`
}

// NewReport converts g into its serializable form. Addresses are absolute.
func NewReport(name string, g *cfg.Graph, p *chip8.Program) Report {
	abs := func(a chip8.Address) string {
		return fmt.Sprintf("0x%03x", int(a)+int(p.Base()))
	}
	r := Report{
		Program:  name,
		LoadBase: fmt.Sprintf("0x%03x", p.Base()),
		Entry:    abs(g.Proc.EntryBlock),
		Blocks:   make([]BlockRecord, 0, len(g.Blocks)),
		Edges:    make([]EdgeRecord, 0, len(g.Edges())),
	}
	for i, blk := range g.Blocks {
		rec := BlockRecord{
			Index:  i,
			Addr:   abs(blk.Address),
			Length: blk.Length,
			Exit:   blk.Exit().String(),
			Preds:  indices(g, blk.Predecessors()),
			Succs:  indices(g, blk.Successors()),
		}
		for _, c := range blk.Calls {
			rec.Calls = append(rec.Calls, abs(c))
		}
		r.Blocks = append(r.Blocks, rec)
	}
	for _, e := range g.Edges() {
		r.Edges = append(r.Edges, EdgeRecord{
			From: g.Index(e.From),
			To:   g.Index(e.To),
			Kind: e.Kind.String(),
		})
	}
	return r
}

func indices(g *cfg.Graph, addrs []chip8.Address) []int {
	out := make([]int, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, g.Index(a))
	}
	return out
}
