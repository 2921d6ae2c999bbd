package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chip8cfg/internal/cfg"
)

func TestComputeStats(t *testing.T) {
	// CALL; SE; JP 0x200; RET
	g, p := buildGraph(t, 0x2300, 0x3000, 0x1200, 0x00EE)
	s := ComputeStats(g, p)

	assert.Equal(t, 8, s.Bytes)
	assert.Equal(t, len(g.Blocks), s.Blocks)
	assert.Equal(t, len(g.Edges()), s.Edges)
	assert.Equal(t, 1, s.Calls)
	assert.Equal(t, 1, s.Skips)
	assert.Equal(t, 1, s.Exits[cfg.ExitReturn])
	assert.Equal(t, 1, s.Exits[cfg.ExitBoth])
}

func TestWriteIndexHTML(t *testing.T) {
	g, p := buildGraph(t, 0x2300, 0x3000, 0x1200, 0x00EE)
	entries := []IndexEntry{
		{Name: "loop", Stats: ComputeStats(g, p), Files: []string{"loop.dot", "loop.txt"}},
		{Name: "<bad>", Err: "chip8: block at 0x003: address out of range"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteIndexHTML(&buf, "roms & demos", entries))
	html := buf.String()

	assert.Contains(t, html, "<title>roms &amp; demos</title>")
	assert.Contains(t, html, "<tr><td>ROMs</td><td class=\"num\">2</td></tr>")
	assert.Contains(t, html, "<tr><td>Failed</td><td class=\"num\">1</td></tr>")
	assert.Contains(t, html, "<tr><td>Call sites</td><td class=\"num\">1</td></tr>")
	assert.Contains(t, html, "<tr><td>Skips</td><td class=\"num\">1</td></tr>")
	assert.Contains(t, html, "<td>return</td>")
	assert.Contains(t, html, `<a href="loop.dot">loop.dot</a> | <a href="loop.txt">loop.txt</a>`)
	assert.Contains(t, html, `<td class="rom">&lt;bad&gt;</td><td class="err" colspan="5">`)
	assert.NotContains(t, html, "<td>open</td>")
}

func TestWriteIndexHTML_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIndexHTML(&buf, "empty", nil))
	assert.NotContains(t, buf.String(), "Block Exits")
	assert.Contains(t, buf.String(), "</body></html>\n")
}
