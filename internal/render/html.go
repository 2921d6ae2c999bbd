package render

import (
	"fmt"
	"io"
	"strings"

	"chip8cfg/internal/cfg"
	"chip8cfg/internal/chip8"
)

// Stats summarizes one recovered graph.
type Stats struct {
	Bytes  int
	Blocks int
	Edges  int
	Calls  int
	Skips  int
	Exits  map[cfg.Exit]int
}

// ComputeStats counts blocks, edges, call sites, skips and exit kinds of g.
func ComputeStats(g *cfg.Graph, p *chip8.Program) Stats {
	s := Stats{
		Bytes:  p.Len(),
		Blocks: len(g.Blocks),
		Edges:  len(g.Edges()),
		Exits:  make(map[cfg.Exit]int),
	}
	for _, blk := range g.Blocks {
		s.Calls += len(blk.Calls)
		s.Exits[blk.Exit()]++
		end := blk.Terminal()
		for a, ok := p.NextConditional(blk.Address); ok && a <= end; a, ok = p.NextConditional(a + chip8.InstSize) {
			s.Skips++
		}
	}
	return s
}

// IndexEntry is one ROM row of the batch index page.
type IndexEntry struct {
	Name  string
	Stats Stats
	Files []string // paths relative to the index
	Err   string   // set when analysis failed
}

var exitOrder = []cfg.Exit{cfg.ExitFallthrough, cfg.ExitJump, cfg.ExitBoth, cfg.ExitReturn, cfg.ExitOpen}

// WriteIndexHTML writes a small HTML page summarizing a batch run.
func WriteIndexHTML(w io.Writer, title string, entries []IndexEntry) error {
	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; font-size: 14px; color: #1A1A1A; background: #F5F5F5; margin: 2em; max-width: 900px; }
h1 { font-size: 18px; font-weight: 600; margin-bottom: 0.5em; }
h2 { font-size: 14px; font-weight: 600; margin-top: 1.5em; border-bottom: 1px solid #ddd; padding-bottom: 4px; }
table { border-collapse: collapse; margin: 0.5em 0; }
th, td { text-align: left; padding: 3px 12px 3px 0; font-size: 13px; }
th { font-weight: 600; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
td.err { color: #B71C1C; }
a { color: #0B3D91; }
.mbar { height: 6px; border-radius: 2px; display: inline-block; vertical-align: middle; background: #0B3D91; }
.rom { font-family: "Courier New", monospace; font-size: 12px; }
</style>
</head>
<body>
`, dotEscape(title))
	fmt.Fprintf(&b, "<h1>%s</h1>\n", dotEscape(title))

	var total Stats
	total.Exits = make(map[cfg.Exit]int)
	failed := 0
	for _, e := range entries {
		if e.Err != "" {
			failed++
			continue
		}
		total.Bytes += e.Stats.Bytes
		total.Blocks += e.Stats.Blocks
		total.Edges += e.Stats.Edges
		total.Calls += e.Stats.Calls
		total.Skips += e.Stats.Skips
		for k, n := range e.Stats.Exits {
			total.Exits[k] += n
		}
	}

	b.WriteString("<h2>Summary</h2>\n<table>\n")
	fmt.Fprintf(&b, "<tr><td>ROMs</td><td class=\"num\">%d</td></tr>\n", len(entries))
	fmt.Fprintf(&b, "<tr><td>Failed</td><td class=\"num\">%d</td></tr>\n", failed)
	fmt.Fprintf(&b, "<tr><td>Bytes</td><td class=\"num\">%d</td></tr>\n", total.Bytes)
	fmt.Fprintf(&b, "<tr><td>Blocks</td><td class=\"num\">%d</td></tr>\n", total.Blocks)
	fmt.Fprintf(&b, "<tr><td>Edges</td><td class=\"num\">%d</td></tr>\n", total.Edges)
	fmt.Fprintf(&b, "<tr><td>Call sites</td><td class=\"num\">%d</td></tr>\n", total.Calls)
	fmt.Fprintf(&b, "<tr><td>Skips</td><td class=\"num\">%d</td></tr>\n", total.Skips)
	b.WriteString("</table>\n")

	if total.Blocks > 0 {
		b.WriteString("<h2>Block Exits</h2>\n<table>\n")
		b.WriteString("<tr><th>Exit</th><th>Blocks</th><th></th></tr>\n")
		for _, k := range exitOrder {
			n := total.Exits[k]
			if n == 0 {
				continue
			}
			barW := max(n*200/total.Blocks, 2)
			fmt.Fprintf(&b, "<tr><td>%s</td><td class=\"num\">%d</td><td><span class=\"mbar\" style=\"width:%dpx\"></span></td></tr>\n",
				k, n, barW)
		}
		b.WriteString("</table>\n")
	}

	b.WriteString("<h2>ROMs</h2>\n<table>\n")
	b.WriteString("<tr><th>ROM</th><th>Bytes</th><th>Blocks</th><th>Edges</th><th>Calls</th><th>Files</th></tr>\n")
	for _, e := range entries {
		if e.Err != "" {
			fmt.Fprintf(&b, "<tr><td class=\"rom\">%s</td><td class=\"err\" colspan=\"5\">%s</td></tr>\n",
				dotEscape(e.Name), dotEscape(e.Err))
			continue
		}
		links := make([]string, 0, len(e.Files))
		for _, f := range e.Files {
			links = append(links, fmt.Sprintf(`<a href="%s">%s</a>`, dotEscape(f), dotEscape(f)))
		}
		fmt.Fprintf(&b, "<tr><td class=\"rom\">%s</td><td class=\"num\">%d</td><td class=\"num\">%d</td><td class=\"num\">%d</td><td class=\"num\">%d</td><td>%s</td></tr>\n",
			dotEscape(e.Name), e.Stats.Bytes, e.Stats.Blocks, e.Stats.Edges, e.Stats.Calls, strings.Join(links, " | "))
	}
	b.WriteString("</table>\n</body></html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}
