package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zboralski/lattice/render"

	"chip8cfg/internal/cfg"
	"chip8cfg/internal/chip8"
)

// loopProgram is:
//
//	0x200: CALL 0x300        ; entry (B0)
//	0x202: ADD V0, 0x01      ; loop head (B1)
//	0x204: CALL 0x310
//	0x206: SE V0, 0x10
//	0x208: JP 0x202          ; T -> B1, F -> B2
//	0x20a: CALL 0x300        ; exit (B2)
//	0x20c: RET
func loopProgram(t *testing.T) (*cfg.Graph, *chip8.Program) {
	t.Helper()
	p := chip8.NewProgram([]byte{
		0x23, 0x00,
		0x70, 0x01,
		0x23, 0x10,
		0x30, 0x10,
		0x12, 0x02,
		0x23, 0x00,
		0x00, 0xEE,
	}, chip8.DefaultLoadBase)
	g, err := cfg.Build(p, cfg.NewProcedure(0), cfg.Options{})
	require.NoError(t, err)
	return g, p
}

func TestBuildCFG_DOTOutput(t *testing.T) {
	g, p := loopProgram(t)
	lg := BuildCFG("main", g, p)

	require.Len(t, lg.Funcs, 1)
	f := lg.Funcs[0]
	assert.Equal(t, "main", f.Name)
	require.Len(t, f.Blocks, 3)

	// B0: entry, one call, falls into the loop head.
	b0 := f.Blocks[0]
	assert.Equal(t, 0, b0.Start)
	assert.Equal(t, 1, b0.End)
	require.Len(t, b0.Calls, 1)
	assert.Equal(t, "sub_300", b0.Calls[0].Callee)
	require.Len(t, b0.Succs, 1)
	assert.Equal(t, 1, b0.Succs[0].BlockID)
	assert.Equal(t, "", b0.Succs[0].Cond)

	// B1: loop head, taken jump back to itself, skip falls to B2.
	b1 := f.Blocks[1]
	assert.Equal(t, 1, b1.Start)
	assert.Equal(t, 5, b1.End)
	require.Len(t, b1.Succs, 2)
	assert.Equal(t, 1, b1.Succs[0].BlockID)
	assert.Equal(t, "T", b1.Succs[0].Cond)
	assert.Equal(t, 2, b1.Succs[1].BlockID)
	assert.Equal(t, "F", b1.Succs[1].Cond)
	require.Len(t, b1.Calls, 1)
	assert.Equal(t, "sub_310", b1.Calls[0].Callee)
	assert.Equal(t, 2, b1.Calls[0].Offset)

	// B2: terminal.
	b2 := f.Blocks[2]
	assert.True(t, b2.Term)
	assert.Empty(t, b2.Succs)

	dot := render.DOTCFG(lg, "chip8cfg CFG example")
	assert.NotEmpty(t, dot)
}

func TestBuildCallGraph_DOTOutput(t *testing.T) {
	g, p := loopProgram(t)
	cg := BuildCallGraph("main", g, p)

	assert.ElementsMatch(t, []string{"main", "sub_300", "sub_310"}, cg.Nodes)
	for _, e := range cg.Edges {
		assert.Equal(t, "main", e.Caller)
	}

	dot := render.DOT(cg, "chip8cfg call graph example")
	assert.NotEmpty(t, dot)
}
