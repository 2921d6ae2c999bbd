package cfg

import (
	"maps"
	"slices"

	"chip8cfg/internal/chip8"
)

// UnknownLength marks a block whose length has not been computed yet.
const UnknownLength = -1

// Block is a basic block keyed by its start address.
type Block struct {
	Address chip8.Address
	// Length is the byte distance from Address to the block's terminal
	// instruction, which lives at Address+Length.
	Length int
	Preds  map[chip8.Address]struct{}
	Succs  map[chip8.Address]struct{}
	// Calls lists CALL sites inside the block. Their targets are not explored.
	Calls []chip8.Address

	exit Exit
}

func newBlock(addr chip8.Address) *Block {
	return &Block{
		Address: addr,
		Length:  UnknownLength,
		Preds:   make(map[chip8.Address]struct{}),
		Succs:   make(map[chip8.Address]struct{}),
	}
}

// Terminal returns the address of the block's last instruction.
func (b *Block) Terminal() chip8.Address {
	return b.Address + chip8.Address(b.Length)
}

// Exit classifies how control leaves the block.
func (b *Block) Exit() Exit { return b.exit }

// Predecessors returns the predecessor addresses in ascending order.
func (b *Block) Predecessors() []chip8.Address {
	return slices.Sorted(maps.Keys(b.Preds))
}

// Successors returns the successor addresses in ascending order.
func (b *Block) Successors() []chip8.Address {
	return slices.Sorted(maps.Keys(b.Succs))
}

// Exit is the terminal classification of a block.
type Exit uint8

const (
	// ExitOpen: no terminator before the end of the buffer; no outgoing edges.
	ExitOpen Exit = iota
	// ExitFallthrough: control continues into the next block by address.
	ExitFallthrough
	// ExitJump: the terminal JP is the only way out.
	ExitJump
	// ExitBoth: a skip before the terminal JP adds a fall-through edge.
	ExitBoth
	// ExitReturn: RET with no statically known successor.
	ExitReturn
)

func (e Exit) String() string {
	switch e {
	case ExitFallthrough:
		return "fallthrough"
	case ExitJump:
		return "jump"
	case ExitBoth:
		return "fallthrough+jump"
	case ExitReturn:
		return "return"
	}
	return "open"
}

// EdgeKind is a bitmask; a pair of blocks can be linked both ways at once.
type EdgeKind uint8

const (
	EdgeFallthrough EdgeKind = 1 << iota
	EdgeJump
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeFallthrough:
		return "fallthrough"
	case EdgeJump:
		return "jump"
	case EdgeFallthrough | EdgeJump:
		return "fallthrough+jump"
	}
	return ""
}

// Edge is one distinct (From, To) adjacency pair.
type Edge struct {
	From chip8.Address
	To   chip8.Address
	Kind EdgeKind
}

// Procedure is the unit of analysis. Only one is analyzed per run.
type Procedure struct {
	EntryAddress chip8.Address
	// EntryBlock is the address of the entry block, NoAddress until resolved.
	EntryBlock chip8.Address
}

// NewProcedure returns an unresolved procedure starting at entry.
func NewProcedure(entry chip8.Address) Procedure {
	return Procedure{EntryAddress: entry, EntryBlock: chip8.NoAddress}
}
