// Package chip8 classifies CHIP-8 instructions for control-flow recovery.
package chip8

import (
	"errors"
	"fmt"
	"iter"
)

// Address is a byte offset from the program's load base.
type Address int

// NoAddress means "no instruction here". It is never a valid offset.
const NoAddress Address = -1

// DefaultLoadBase is where CHIP-8 interpreters load programs.
const DefaultLoadBase = 0x200

// InstSize is the width of every instruction in bytes.
const InstSize = 2

var (
	// ErrOutOfRange reports a read whose second byte lies outside the buffer,
	// or an address that cannot start an instruction in it.
	ErrOutOfRange = errors.New("address out of range")
	// ErrMisaligned reports an odd block address.
	ErrMisaligned = errors.New("address not instruction aligned")
)

// Program is an immutable CHIP-8 instruction buffer.
type Program struct {
	code []byte
	base uint16
}

// NewProgram wraps code loaded at base. The slice must not be modified afterwards.
func NewProgram(code []byte, base uint16) *Program {
	return &Program{code: code, base: base}
}

// Len returns the buffer size in bytes.
func (p *Program) Len() int { return len(p.code) }

// Base returns the load base.
func (p *Program) Base() uint16 { return p.base }

// Contains reports whether a full instruction can be read at pc.
func (p *Program) Contains(pc Address) bool {
	return pc >= 0 && int(pc)+1 < len(p.code)
}

// Fetch decodes the instruction at pc.
func (p *Program) Fetch(pc Address) (Opcode, error) {
	if !p.Contains(pc) {
		return 0, fmt.Errorf("chip8: fetch 0x%03x (len %d): %w", int(pc), len(p.code), ErrOutOfRange)
	}
	return Opcode(uint16(p.code[pc])<<8 | uint16(p.code[pc+1])), nil
}

// CheckBlockAddress validates addr as the start of a block.
func (p *Program) CheckBlockAddress(addr Address) error {
	if !p.Contains(addr) {
		return fmt.Errorf("chip8: block at 0x%03x (len %d): %w", int(addr), len(p.code), ErrOutOfRange)
	}
	if addr%InstSize != 0 {
		return fmt.Errorf("chip8: block at 0x%03x: %w", int(addr), ErrMisaligned)
	}
	return nil
}

// opAt returns the opcode at pc and false for NoAddress or offsets past the end.
func (p *Program) opAt(pc Address) (Opcode, bool) {
	if !p.Contains(pc) {
		return 0, false
	}
	return Opcode(uint16(p.code[pc])<<8 | uint16(p.code[pc+1])), true
}

// IsConditional reports whether the instruction at pc is a skip.
// It returns false for NoAddress and for offsets past the end.
func (p *Program) IsConditional(pc Address) bool {
	op, ok := p.opAt(pc)
	return ok && op.IsConditional()
}

// IsJump reports whether the instruction at pc is JP addr.
func (p *Program) IsJump(pc Address) bool {
	op, ok := p.opAt(pc)
	return ok && op.IsJump()
}

// IsReturn reports whether the instruction at pc is RET.
func (p *Program) IsReturn(pc Address) bool {
	op, ok := p.opAt(pc)
	return ok && op.IsReturn()
}

// Rebase converts an absolute 12-bit address into a buffer offset.
// The result is negative for targets below the load base.
func (p *Program) Rebase(abs uint16) Address {
	return Address(int(abs) - int(p.base))
}

// JumpTarget decodes the JP instruction at pc and returns its rebased target.
// Callers must only use it where IsJump(pc) holds.
func (p *Program) JumpTarget(pc Address) (Address, error) {
	op, err := p.Fetch(pc)
	if err != nil {
		return NoAddress, err
	}
	if !op.IsJump() {
		return NoAddress, fmt.Errorf("chip8: 0x%03x: %s is not a jump", int(pc), op)
	}
	return p.Rebase(op.NNN()), nil
}

// scan yields every complete instruction offset from pc to the end of the
// buffer. A dangling odd byte at the end is reported through errp.
func (p *Program) scan(pc Address, errp *error) iter.Seq2[Address, Opcode] {
	return func(yield func(Address, Opcode) bool) {
		if pc < 0 {
			return
		}
		for a := pc; int(a) < len(p.code); a += InstSize {
			op, ok := p.opAt(a)
			if !ok {
				if errp != nil {
					*errp = fmt.Errorf("chip8: truncated instruction at 0x%03x: %w", int(a), ErrOutOfRange)
				}
				return
			}
			if !yield(a, op) {
				return
			}
		}
	}
}

// Conditionals returns a lazy forward scan over the skip instructions
// starting at pc. Each call starts a fresh scan.
func (p *Program) Conditionals(pc Address) iter.Seq[Address] {
	return func(yield func(Address) bool) {
		for a, op := range p.scan(pc, nil) {
			if op.IsConditional() && !yield(a) {
				return
			}
		}
	}
}

// NextConditional returns the first skip instruction at or after pc,
// or (NoAddress, false) if the buffer ends first.
func (p *Program) NextConditional(pc Address) (Address, bool) {
	for a := range p.Conditionals(pc) {
		return a, true
	}
	return NoAddress, false
}

// TermKind distinguishes the two scan-chain terminators.
type TermKind uint8

const (
	TermJump TermKind = iota + 1
	TermReturn
)

func (k TermKind) String() string {
	switch k {
	case TermJump:
		return "jump"
	case TermReturn:
		return "return"
	}
	return "none"
}

// Terminator describes the first JP or RET found by NextTerminator.
type Terminator struct {
	Addr Address
	Kind TermKind
	// AfterConditional is true when the instruction at Addr-2 is a skip,
	// so Addr+2 is reachable by skipping over the terminator.
	AfterConditional bool
	// Target is the rebased jump target, NoAddress for RET.
	Target Address
}

// NextTerminator scans forward from pc for the first JP or RET.
// found is false when the buffer ends first. An odd trailing byte reached
// by the scan is an error, since it cannot be decoded.
func (p *Program) NextTerminator(pc Address) (t Terminator, found bool, err error) {
	for a, op := range p.scan(pc, &err) {
		if !op.IsTerminator() {
			continue
		}
		t = Terminator{
			Addr:             a,
			AfterConditional: p.IsConditional(a - InstSize),
			Target:           NoAddress,
		}
		if op.IsJump() {
			t.Kind = TermJump
			t.Target = p.Rebase(op.NNN())
		} else {
			t.Kind = TermReturn
		}
		return t, true, nil
	}
	return Terminator{Addr: NoAddress, Target: NoAddress}, false, err
}
