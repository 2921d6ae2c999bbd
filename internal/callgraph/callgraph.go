// Package callgraph exports recovered CHIP-8 graphs as lattice graphs.
package callgraph

import (
	"github.com/zboralski/lattice"

	"chip8cfg/internal/cfg"
	"chip8cfg/internal/chip8"
)

// BuildCallGraph constructs a one-level lattice.Graph: the analyzed procedure
// calls every CALL target found in its blocks. Callees are leaves; their
// bodies are never explored.
func BuildCallGraph(name string, g *cfg.Graph, p *chip8.Program) *lattice.Graph {
	lg := &lattice.Graph{Nodes: []string{name}}
	seen := map[string]bool{name: true}
	for _, blk := range g.Blocks {
		for _, site := range blk.Calls {
			callee := calleeName(p, site)
			if !seen[callee] {
				seen[callee] = true
				lg.Nodes = append(lg.Nodes, callee)
			}
			lg.Edges = append(lg.Edges, lattice.Edge{
				Caller: name,
				Callee: callee,
			})
		}
	}
	lg.Dedup()
	return lg
}
