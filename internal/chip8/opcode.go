package chip8

import "fmt"

// CHIP-8 opcode detection from the raw 16-bit encoding.
// These functions identify basic-block terminators and extract jump targets.

// Opcode is one big-endian CHIP-8 instruction word.
type Opcode uint16

// opReturn is 00EE (RET). It is matched exactly; 0NNN machine calls that
// happen to end in EE are not returns.
const opReturn Opcode = 0x00EE

// Family returns the top nibble, which selects the instruction family.
func (op Opcode) Family() uint8 { return uint8(op >> 12) }

// NNN returns the low 12 bits (absolute address operand).
func (op Opcode) NNN() uint16 { return uint16(op) & 0x0FFF }

func (op Opcode) x() uint8  { return uint8(op>>8) & 0xF }
func (op Opcode) y() uint8  { return uint8(op>>4) & 0xF }
func (op Opcode) kk() uint8 { return uint8(op) }
func (op Opcode) n() uint8  { return uint8(op) & 0xF }

// IsConditional reports whether op skips the next instruction when its
// predicate holds: SE Vx,kk (3), SNE Vx,kk (4), SE Vx,Vy (5), SNE Vx,Vy (9)
// and the SKP/SKNP key skips (E).
func (op Opcode) IsConditional() bool {
	switch op.Family() {
	case 0x3, 0x4, 0x5, 0x9, 0xE:
		return true
	}
	return false
}

// IsJump reports whether op is JP addr (1NNN).
func (op Opcode) IsJump() bool { return op.Family() == 0x1 }

// IsReturn reports whether op is RET (00EE).
func (op Opcode) IsReturn() bool { return op == opReturn }

// IsCall reports whether op is CALL addr (2NNN). Calls do not end a block.
func (op Opcode) IsCall() bool { return op.Family() == 0x2 }

// IsTerminator returns true if op ends a scan chain (JP or RET).
// CALL and the skip instructions are NOT terminators.
func (op Opcode) IsTerminator() bool { return op.IsJump() || op.IsReturn() }

// String renders op as a mnemonic with operands, e.g. "SE V3, 0x1f".
// Unknown encodings render as ".word 0xNNNN".
func (op Opcode) String() string {
	x, y := op.x(), op.y()
	switch op.Family() {
	case 0x0:
		switch op {
		case 0x00E0:
			return "CLS"
		case opReturn:
			return "RET"
		}
		return fmt.Sprintf("SYS 0x%03x", op.NNN())
	case 0x1:
		return fmt.Sprintf("JP 0x%03x", op.NNN())
	case 0x2:
		return fmt.Sprintf("CALL 0x%03x", op.NNN())
	case 0x3:
		return fmt.Sprintf("SE V%X, 0x%02x", x, op.kk())
	case 0x4:
		return fmt.Sprintf("SNE V%X, 0x%02x", x, op.kk())
	case 0x5:
		if op.n() == 0 {
			return fmt.Sprintf("SE V%X, V%X", x, y)
		}
	case 0x6:
		return fmt.Sprintf("LD V%X, 0x%02x", x, op.kk())
	case 0x7:
		return fmt.Sprintf("ADD V%X, 0x%02x", x, op.kk())
	case 0x8:
		if m, ok := aluMnemonics[op.n()]; ok {
			return fmt.Sprintf("%s V%X, V%X", m, x, y)
		}
	case 0x9:
		if op.n() == 0 {
			return fmt.Sprintf("SNE V%X, V%X", x, y)
		}
	case 0xA:
		return fmt.Sprintf("LD I, 0x%03x", op.NNN())
	case 0xB:
		return fmt.Sprintf("JP V0, 0x%03x", op.NNN())
	case 0xC:
		return fmt.Sprintf("RND V%X, 0x%02x", x, op.kk())
	case 0xD:
		return fmt.Sprintf("DRW V%X, V%X, %d", x, y, op.n())
	case 0xE:
		switch op.kk() {
		case 0x9E:
			return fmt.Sprintf("SKP V%X", x)
		case 0xA1:
			return fmt.Sprintf("SKNP V%X", x)
		}
	case 0xF:
		if f, ok := miscFormats[op.kk()]; ok {
			return fmt.Sprintf(f, x)
		}
	}
	return fmt.Sprintf(".word 0x%04x", uint16(op))
}

var aluMnemonics = map[uint8]string{
	0x0: "LD",
	0x1: "OR",
	0x2: "AND",
	0x3: "XOR",
	0x4: "ADD",
	0x5: "SUB",
	0x6: "SHR",
	0x7: "SUBN",
	0xE: "SHL",
}

var miscFormats = map[uint8]string{
	0x07: "LD V%X, DT",
	0x0A: "LD V%X, K",
	0x15: "LD DT, V%X",
	0x18: "LD ST, V%X",
	0x1E: "ADD I, V%X",
	0x29: "LD F, V%X",
	0x33: "LD B, V%X",
	0x55: "LD [I], V%X",
	0x65: "LD V%X, [I]",
}
