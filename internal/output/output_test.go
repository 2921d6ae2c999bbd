package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"chip8cfg/internal/cfg"
	"chip8cfg/internal/chip8"
)

// skipJump is:
//
//	0x200: SE V0, 0x00
//	0x202: JP 0x20a
//	0x204: CALL 0x300
//	0x206: LD V0, 0x00
//	0x208: LD V0, 0x00
//	0x20a: RET
func skipJump(t *testing.T) (*cfg.Graph, *chip8.Program) {
	t.Helper()
	p := chip8.NewProgram([]byte{
		0x30, 0x00, 0x12, 0x0A, 0x23, 0x00, 0x60, 0x00, 0x60, 0x00, 0x00, 0xEE,
	}, chip8.DefaultLoadBase)
	g, err := cfg.Build(p, cfg.NewProcedure(0), cfg.Options{})
	require.NoError(t, err)
	return g, p
}

func TestNewReport(t *testing.T) {
	g, p := skipJump(t)
	r := NewReport("skip", g, p)

	assert.Equal(t, "0x200", r.LoadBase)
	assert.Equal(t, "0x200", r.Entry)
	require.Len(t, r.Blocks, 3)

	assert.Equal(t, BlockRecord{
		Index: 0, Addr: "0x200", Length: 2, Exit: "fallthrough+jump",
		Preds: []int{}, Succs: []int{1, 2},
	}, r.Blocks[0])
	assert.Equal(t, []string{"0x204"}, r.Blocks[1].Calls)
	assert.Equal(t, []int{0, 1}, r.Blocks[2].Preds)
	assert.Equal(t, "return", r.Blocks[2].Exit)

	assert.Equal(t, []EdgeRecord{
		{From: 0, To: 1, Kind: "fallthrough"},
		{From: 0, To: 2, Kind: "jump"},
		{From: 1, To: 2, Kind: "fallthrough"},
	}, r.Edges)
}

func TestWriteText(t *testing.T) {
	g, p := skipJump(t)
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, NewReport("skip", g, p)))

	want := "0\t0x200\tfallthrough+jump\n" +
		"\tLength\t\t2\n" +
		"\tPrevious\n" +
		"\tNext\t\t1\t2\n" +
		"1\t0x204\tfallthrough\n" +
		"\tLength\t\t4\n" +
		"\tPrevious\t0\n" +
		"\tNext\t\t2\n" +
		"\tCalls\t\t0x204\n" +
		"2\t0x20a\treturn\n" +
		"\tLength\t\t0\n" +
		"\tPrevious\t0\t1\n" +
		"\tNext\t\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReport_Encodings(t *testing.T) {
	g, p := skipJump(t)
	r := NewReport("skip", g, p)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, r, FormatJSON))
		var got Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, r, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, r, FormatYAML))
		assert.Contains(t, buf.String(), "succs: [1, 2]")
		var got Report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, r.Edges, got.Edges)
	})

	t.Run("msgpack", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, r, FormatMsgpack))
		got, err := ReadMsgpack(&buf)
		require.NoError(t, err)
		assert.Equal(t, r.Entry, got.Entry)
		assert.Equal(t, r.Edges, got.Edges)
		require.Len(t, got.Blocks, 3)
		assert.Equal(t, []int{1, 2}, got.Blocks[0].Succs)
		assert.Equal(t, []string{"0x204"}, got.Blocks[1].Calls)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, WriteReport(&bytes.Buffer{}, r, Format("xml")))
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	assert.Equal(t, ".yaml", f.Ext())

	_, err = ParseFormat("dot")
	assert.Error(t, err)
}

func TestWriteFiles(t *testing.T) {
	g, p := skipJump(t)
	dir := filepath.Join(t.TempDir(), "nested")

	path, err := WriteDOT(dir, "skip", "digraph {}\n")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "digraph {}\n", string(data))

	path, err = WriteReportFile(dir, "skip", NewReport("skip", g, p), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "skip.json"), path)

	path, err = WriteASM(dir, "skip", p)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0x204  23 00  CALL 0x300\n")
}

func TestBlockListing(t *testing.T) {
	g, p := skipJump(t)
	got := BlockListing(g, p)
	assert.Contains(t, got, "; block 0  0x200  fallthrough+jump\n0x200  30 00  SE V0, 0x00\n0x202  12 0a  JP 0x20a\n")
	assert.Contains(t, got, "; block 2  0x20a  return\n0x20a  00 ee  RET\n")
}
