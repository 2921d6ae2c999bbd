// Package output writes chip8cfg analysis results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"chip8cfg/internal/cfg"
	"chip8cfg/internal/chip8"
)

// Format selects how a block report is encoded.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// Formats lists the report encodings accepted by ParseFormat.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMsgpack}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("output: unsupported format %q", s)
}

// Ext returns the file extension used for f.
func (f Format) Ext() string {
	switch f {
	case FormatText:
		return ".txt"
	case FormatYAML:
		return ".yaml"
	case FormatMsgpack:
		return ".msgpack"
	}
	return ".json"
}

// WriteReport encodes r to w.
func WriteReport(w io.Writer, r Report, f Format) error {
	switch f {
	case FormatText:
		return WriteText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("output: encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("output: encode yaml: %w", err)
		}
		return enc.Close()
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(r); err != nil {
			return fmt.Errorf("output: encode msgpack: %w", err)
		}
	default:
		return fmt.Errorf("output: unsupported format %q", f)
	}
	return nil
}

// ReadMsgpack decodes a report written with FormatMsgpack.
func ReadMsgpack(rd io.Reader) (Report, error) {
	var r Report
	if err := msgpack.NewDecoder(rd).Decode(&r); err != nil {
		return Report{}, fmt.Errorf("output: decode msgpack: %w", err)
	}
	return r, nil
}

// WriteText renders the console block report: one entry per block with its
// length and the node indices of its predecessors and successors.
//
//	0	0x200
//		Length		2
//		Previous
//		Next		1	2
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	for _, blk := range r.Blocks {
		fmt.Fprintf(&b, "%d\t%s\t%s\n", blk.Index, blk.Addr, blk.Exit)
		fmt.Fprintf(&b, "\tLength\t\t%d\n", blk.Length)
		b.WriteString("\tPrevious")
		for _, p := range blk.Preds {
			fmt.Fprintf(&b, "\t%d", p)
		}
		b.WriteString("\n\tNext\t")
		for _, n := range blk.Succs {
			fmt.Fprintf(&b, "\t%d", n)
		}
		b.WriteByte('\n')
		if len(blk.Calls) > 0 {
			fmt.Fprintf(&b, "\tCalls\t\t%s\n", strings.Join(blk.Calls, " "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteReportFile writes r to dir/<name><ext>.
func WriteReportFile(dir, name string, r Report, f Format) (string, error) {
	path := filepath.Join(dir, name+f.Ext())
	if err := writeFile(path, func(w io.Writer) error { return WriteReport(w, r, f) }); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDOT writes a rendered graph to dir/<name>.dot.
func WriteDOT(dir, name, dot string) (string, error) {
	path := filepath.Join(dir, name+".dot")
	if err := writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, dot)
		return err
	}); err != nil {
		return "", err
	}
	return path, nil
}

// WriteASM writes the linear disassembly of p to dir/<name>.asm.
func WriteASM(dir, name string, p *chip8.Program) (string, error) {
	path := filepath.Join(dir, name+".asm")
	text := chip8.Format(p.Disassemble(0, chip8.Address(p.Len())))
	if err := writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	}); err != nil {
		return "", err
	}
	return path, nil
}

// WriteIndex writes dir/index.html using write.
func WriteIndex(dir string, write func(io.Writer) error) (string, error) {
	path := filepath.Join(dir, "index.html")
	if err := writeFile(path, write); err != nil {
		return "", err
	}
	return path, nil
}

// BlockListing renders each block's instructions under a header line.
func BlockListing(g *cfg.Graph, p *chip8.Program) string {
	var b strings.Builder
	for i, blk := range g.Blocks {
		fmt.Fprintf(&b, "; block %d  0x%03x  %s\n", i, int(blk.Address)+int(p.Base()), blk.Exit())
		b.WriteString(chip8.Format(p.Disassemble(blk.Address, blk.Terminal()+chip8.InstSize)))
	}
	return b.String()
}

func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return f.Close()
}
