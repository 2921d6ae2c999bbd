package chip8

import (
	"fmt"
	"strings"
)

// Inst is a decoded instruction with its offset and absolute address.
type Inst struct {
	Addr Address
	Abs  uint16 // Addr + load base
	Op   Opcode
	Text string
}

// Disassemble decodes instructions in [start, end) linearly.
// end is clamped to the last complete instruction; an odd trailing byte is dropped.
func (p *Program) Disassemble(start, end Address) []Inst {
	if start < 0 {
		start = 0
	}
	if int(end) > len(p.code) {
		end = Address(len(p.code))
	}
	var result []Inst
	for pc := start; pc < end && p.Contains(pc); pc += InstSize {
		op, _ := p.opAt(pc)
		result = append(result, Inst{
			Addr: pc,
			Abs:  uint16(int(pc) + int(p.base)),
			Op:   op,
			Text: op.String(),
		})
	}
	return result
}

// Format renders instructions as stable text output.
// Each line: <abs addr>  <hex bytes>  <mnemonic>
func Format(insts []Inst) string {
	var b strings.Builder
	for _, inst := range insts {
		fmt.Fprintf(&b, "0x%03x  %02x %02x  %s\n",
			inst.Abs, byte(inst.Op>>8), byte(inst.Op), inst.Text)
	}
	return b.String()
}
