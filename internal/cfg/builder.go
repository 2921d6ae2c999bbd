// Package cfg recovers basic blocks and control-flow edges from a CHIP-8 program.
package cfg

import (
	"fmt"
	"log/slog"
	"slices"

	"chip8cfg/internal/chip8"
)

// Options controls graph construction.
type Options struct {
	Logger *slog.Logger // optional; receives debug events
}

type edgeKey struct{ from, to chip8.Address }

type builder struct {
	prog   *chip8.Program
	blocks map[chip8.Address]*Block
	work   []chip8.Address
	kinds  map[edgeKey]EdgeKind
	log    *slog.Logger
}

// Build discovers the basic blocks of proc and wires their edges.
// The algorithm:
//  1. Discovery: a worklist of block-start addresses is drained; each address
//     starts a scan chain that stops at the next JP or RET. Jump targets are
//     pushed as new blocks. A skip right before the terminator makes the
//     following address a block that continues the same chain inline.
//  2. Measure: blocks are sorted by address; each length runs up to the
//     instruction before the next block. The last block runs to its next
//     terminator, or to the end of the buffer if there is none.
//  3. Jump targets first seen while measuring (jumps in regions discovery
//     never scanned) are fed back to step 1 until nothing new appears.
//  4. Wire: edges are derived from each block's terminal instruction.
//
// Errors are fatal: no partial graph is returned.
func Build(prog *chip8.Program, proc Procedure, opts Options) (*Graph, error) {
	if err := prog.CheckBlockAddress(proc.EntryAddress); err != nil {
		return nil, fmt.Errorf("cfg: entry: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	b := &builder{
		prog:   prog,
		blocks: make(map[chip8.Address]*Block),
		kinds:  make(map[edgeKey]EdgeKind),
		log:    log,
	}

	b.block(proc.EntryAddress)
	proc.EntryBlock = proc.EntryAddress
	b.work = append(b.work, proc.EntryAddress)

	var sorted []*Block
	for round := 1; ; round++ {
		if err := b.discover(); err != nil {
			return nil, err
		}
		sorted = b.sorted()
		if err := b.measure(sorted); err != nil {
			return nil, err
		}
		fresh, err := b.unseenTargets(sorted)
		if err != nil {
			return nil, err
		}
		if len(fresh) == 0 {
			break
		}
		b.log.Debug("rescan", "round", round, "targets", len(fresh))
		for _, t := range fresh {
			b.block(t)
			b.work = append(b.work, t)
		}
	}

	if err := b.wire(sorted); err != nil {
		return nil, err
	}
	b.collectCalls(sorted)

	b.log.Debug("cfg built", "blocks", len(sorted), "edges", len(b.kinds))
	return newGraph(proc, sorted, b.kinds), nil
}

// block returns the block at addr, creating it on first reference.
func (b *builder) block(addr chip8.Address) (*Block, bool) {
	if blk, ok := b.blocks[addr]; ok {
		return blk, false
	}
	blk := newBlock(addr)
	b.blocks[addr] = blk
	b.log.Debug("new block", "addr", hexAddr(addr))
	return blk, true
}

// discover drains the worklist.
func (b *builder) discover() error {
	for len(b.work) > 0 {
		addr := b.work[len(b.work)-1]
		b.work = b.work[:len(b.work)-1]

		for {
			term, found, err := b.prog.NextTerminator(addr)
			if err != nil {
				return fmt.Errorf("cfg: scan from 0x%03x: %w", int(addr), err)
			}
			if !found {
				break
			}
			if term.Kind == chip8.TermJump {
				if err := b.prog.CheckBlockAddress(term.Target); err != nil {
					return fmt.Errorf("cfg: jump at 0x%03x: %w", int(term.Addr), err)
				}
				if _, created := b.block(term.Target); created {
					b.work = append(b.work, term.Target)
				}
			}
			if !term.AfterConditional {
				break
			}
			// The skip can step over the terminator; the chain continues there.
			addr = term.Addr + chip8.InstSize
			if _, created := b.block(addr); !created {
				break // already scanned or queued
			}
		}
	}
	return nil
}

func (b *builder) sorted() []*Block {
	out := make([]*Block, 0, len(b.blocks))
	for _, blk := range b.blocks {
		out = append(out, blk)
	}
	slices.SortFunc(out, func(x, y *Block) int { return int(x.Address - y.Address) })
	return out
}

// measure computes block lengths over the address-sorted blocks.
func (b *builder) measure(sorted []*Block) error {
	for i, blk := range sorted {
		blk.exit = ExitOpen
		if i+1 < len(sorted) {
			blk.Length = int(sorted[i+1].Address-blk.Address) - chip8.InstSize
			continue
		}
		term, found, err := b.prog.NextTerminator(blk.Address)
		if err != nil {
			return fmt.Errorf("cfg: last block 0x%03x: %w", int(blk.Address), err)
		}
		if found {
			blk.Length = int(term.Addr - blk.Address)
		} else {
			// No terminator: the block runs to the end of the buffer.
			blk.Length = b.prog.Len() - int(blk.Address)
		}
	}
	return nil
}

// closed reports whether the block's terminal instruction exists.
func (b *builder) closed(blk *Block, last bool) bool {
	if !last {
		return true
	}
	return b.prog.IsJump(blk.Terminal()) || b.prog.IsReturn(blk.Terminal())
}

// unseenTargets returns jump targets at block terminals that have no block yet.
// Targets outside the buffer or misaligned are skipped and get no edge.
func (b *builder) unseenTargets(sorted []*Block) ([]chip8.Address, error) {
	var fresh []chip8.Address
	for i, blk := range sorted {
		if !b.closed(blk, i == len(sorted)-1) {
			continue
		}
		op, err := b.prog.Fetch(blk.Terminal())
		if err != nil {
			return nil, fmt.Errorf("cfg: block 0x%03x terminal: %w", int(blk.Address), err)
		}
		if !op.IsJump() {
			continue
		}
		target := b.prog.Rebase(op.NNN())
		if _, ok := b.blocks[target]; ok || slices.Contains(fresh, target) {
			continue
		}
		// A terminal reached only by measuring may be data that decodes as JP.
		if err := b.prog.CheckBlockAddress(target); err != nil {
			b.log.Debug("ignored jump", "at", hexAddr(blk.Terminal()), "err", err)
			continue
		}
		fresh = append(fresh, target)
	}
	return fresh, nil
}

// wire adds edges from each block's terminal instruction:
// fall-through when a skip precedes it or when it is neither JP nor RET,
// and a jump edge when it is JP to a known block.
func (b *builder) wire(sorted []*Block) error {
	for i, blk := range sorted {
		last := i == len(sorted)-1
		if !b.closed(blk, last) {
			continue
		}
		t := blk.Terminal()
		op, err := b.prog.Fetch(t)
		if err != nil {
			return fmt.Errorf("cfg: block 0x%03x terminal: %w", int(blk.Address), err)
		}

		// The skip may sit in the previous block when a jump lands on T.
		skipped := b.prog.IsConditional(t - chip8.InstSize)
		fall := (skipped || !op.IsTerminator()) && !last
		if fall {
			b.link(blk, sorted[i+1], EdgeFallthrough)
		}
		var jump bool
		if op.IsJump() {
			if target, ok := b.blocks[b.prog.Rebase(op.NNN())]; ok {
				b.link(blk, target, EdgeJump)
				jump = true
			}
		}

		switch {
		case fall && jump:
			blk.exit = ExitBoth
		case jump:
			blk.exit = ExitJump
		case fall:
			blk.exit = ExitFallthrough
		case op.IsReturn():
			blk.exit = ExitReturn
		}
	}
	return nil
}

func (b *builder) link(from, to *Block, kind EdgeKind) {
	from.Succs[to.Address] = struct{}{}
	to.Preds[from.Address] = struct{}{}
	b.kinds[edgeKey{from.Address, to.Address}] |= kind
}

// collectCalls records CALL sites inside each block.
func (b *builder) collectCalls(sorted []*Block) {
	for _, blk := range sorted {
		for _, inst := range b.prog.Disassemble(blk.Address, blk.Terminal()+chip8.InstSize) {
			if inst.Op.IsCall() {
				blk.Calls = append(blk.Calls, inst.Addr)
			}
		}
	}
}

type hexAddr chip8.Address

func (a hexAddr) String() string { return fmt.Sprintf("0x%03x", int(a)) }
