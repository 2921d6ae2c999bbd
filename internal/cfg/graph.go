package cfg

import (
	"errors"
	"fmt"
	"slices"

	"chip8cfg/internal/chip8"
)

// Graph is the control-flow graph of one procedure.
// Blocks are sorted by ascending address; the index of a block in Blocks is
// its node number in rendered output.
type Graph struct {
	Proc   Procedure
	Blocks []*Block

	index map[chip8.Address]int
	edges []Edge
}

func newGraph(proc Procedure, sorted []*Block, kinds map[edgeKey]EdgeKind) *Graph {
	g := &Graph{
		Proc:   proc,
		Blocks: sorted,
		index:  make(map[chip8.Address]int, len(sorted)),
		edges:  make([]Edge, 0, len(kinds)),
	}
	for i, blk := range sorted {
		g.index[blk.Address] = i
	}
	for k, kind := range kinds {
		g.edges = append(g.edges, Edge{From: k.from, To: k.to, Kind: kind})
	}
	slices.SortFunc(g.edges, func(a, b Edge) int {
		if a.From != b.From {
			return int(a.From - b.From)
		}
		return int(a.To - b.To)
	})
	return g
}

// Block returns the block starting at addr.
func (g *Graph) Block(addr chip8.Address) (*Block, bool) {
	i, ok := g.index[addr]
	if !ok {
		return nil, false
	}
	return g.Blocks[i], true
}

// Index returns the position of the block at addr in address order, or -1.
func (g *Graph) Index(addr chip8.Address) int {
	if i, ok := g.index[addr]; ok {
		return i
	}
	return -1
}

// Entry returns the procedure's entry block.
func (g *Graph) Entry() *Block {
	blk, _ := g.Block(g.Proc.EntryBlock)
	return blk
}

// Edges returns every distinct (From, To) pair, sorted by From then To.
func (g *Graph) Edges() []Edge { return g.edges }

// Check verifies the structural invariants of the graph: strictly ascending
// (hence unique) addresses, computed lengths, symmetric adjacency between
// known blocks and a resolved entry block.
func (g *Graph) Check() error {
	var errs []error
	if g.Entry() == nil {
		errs = append(errs, fmt.Errorf("entry block 0x%03x missing", int(g.Proc.EntryBlock)))
	}
	for i, blk := range g.Blocks {
		if i > 0 && g.Blocks[i-1].Address >= blk.Address {
			errs = append(errs, fmt.Errorf("block 0x%03x out of order", int(blk.Address)))
		}
		if blk.Length == UnknownLength {
			errs = append(errs, fmt.Errorf("block 0x%03x has no length", int(blk.Address)))
		}
		for s := range blk.Succs {
			other, ok := g.Block(s)
			if !ok {
				errs = append(errs, fmt.Errorf("block 0x%03x: unknown successor 0x%03x", int(blk.Address), int(s)))
				continue
			}
			if _, ok := other.Preds[blk.Address]; !ok {
				errs = append(errs, fmt.Errorf("edge 0x%03x->0x%03x missing predecessor link", int(blk.Address), int(s)))
			}
		}
		for p := range blk.Preds {
			other, ok := g.Block(p)
			if !ok {
				errs = append(errs, fmt.Errorf("block 0x%03x: unknown predecessor 0x%03x", int(blk.Address), int(p)))
				continue
			}
			if _, ok := other.Succs[blk.Address]; !ok {
				errs = append(errs, fmt.Errorf("edge 0x%03x->0x%03x missing successor link", int(p), int(blk.Address)))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("cfg: invalid graph: %w", err)
	}
	return nil
}
