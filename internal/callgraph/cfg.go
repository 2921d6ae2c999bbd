package callgraph

import (
	"fmt"

	"github.com/zboralski/lattice"

	"chip8cfg/internal/cfg"
	"chip8cfg/internal/chip8"
)

// BuildCFG maps a recovered CFG to a lattice.CFGGraph with one function.
// Block Start/End are instruction indices (byte offset / 2), End exclusive.
// CALL sites become lattice call sites named by their absolute target.
func BuildCFG(name string, g *cfg.Graph, p *chip8.Program) *lattice.CFGGraph {
	return &lattice.CFGGraph{Funcs: []*lattice.FuncCFG{convertFuncCFG(name, g, p)}}
}

func convertFuncCFG(name string, g *cfg.Graph, p *chip8.Program) *lattice.FuncCFG {
	kinds := make(map[[2]chip8.Address]cfg.EdgeKind, len(g.Edges()))
	for _, e := range g.Edges() {
		kinds[[2]chip8.Address{e.From, e.To}] = e.Kind
	}

	lcfg := &lattice.FuncCFG{Name: name}
	for i, blk := range g.Blocks {
		end := blk.Terminal() + chip8.InstSize
		if blk.Exit() == cfg.ExitOpen {
			end = blk.Terminal()
		}
		lb := &lattice.BasicBlock{
			ID:    i,
			Start: int(blk.Address) / chip8.InstSize,
			End:   int(end) / chip8.InstSize,
			Term:  blk.Exit() == cfg.ExitReturn || blk.Exit() == cfg.ExitOpen,
		}

		// Two-way blocks get T (jump taken) / F (skip fall-through) labels.
		twoWay := blk.Exit() == cfg.ExitBoth && len(blk.Succs) > 1
		for _, s := range blk.Successors() {
			cond := ""
			if twoWay {
				cond = "F"
				if kinds[[2]chip8.Address{blk.Address, s}]&cfg.EdgeJump != 0 {
					cond = "T"
				}
			}
			lb.Succs = append(lb.Succs, lattice.Successor{BlockID: g.Index(s), Cond: cond})
		}

		for _, site := range blk.Calls {
			lb.Calls = append(lb.Calls, lattice.CallSite{
				Offset: int(site) / chip8.InstSize,
				Callee: calleeName(p, site),
			})
		}
		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}

// calleeName returns sub_<abs> for the CALL at site.
func calleeName(p *chip8.Program, site chip8.Address) string {
	op, err := p.Fetch(site)
	if err != nil {
		return fmt.Sprintf("0x%03x", int(site)+int(p.Base()))
	}
	return fmt.Sprintf("sub_%03x", op.NNN())
}
