// Package render produces Graphviz DOT and HTML summaries of recovered CHIP-8
// control-flow graphs.
package render

import "strings"

// dotEscape escapes a string for DOT HTML labels and the batch index page.
func dotEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
