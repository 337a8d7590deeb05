// Package cpu implements the Sharp LR35902 (SM83) instruction-accurate
// interpreter: registers, flags, the fetch-decode-execute loop, interrupt
// dispatch, and HALT/STOP.
package cpu

import (
	"github.com/corebound/gbcore/internal/bus"
	"github.com/corebound/gbcore/internal/errs"
	"github.com/corebound/gbcore/internal/interrupt"
)

// CPU holds SM83 register state and drives one Bus.
type CPU struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	IME       bool
	halted    bool
	stopped   bool
	eiPending bool // EI's one-shot IME-enable latch, applied after the *next* instruction

	bus *bus.Bus
}

// New creates a CPU wired to b, with registers zeroed except SP ($FFFE)
// (cold-boot state;
// the composition root calls ResetNoBoot for the post-boot state when no
// boot ROM runs).
func New(b *bus.Bus) *CPU {
	return &CPU{bus: b, SP: 0xFFFE}
}

func (c *CPU) SetPC(pc uint16) { c.PC = pc }
func (c *CPU) Bus() *bus.Bus   { return c.bus }

// ResetNoBoot sets registers to the documented DMG post-boot state.
func (c *CPU) ResetNoBoot() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.IME = false
	c.halted = false
	c.stopped = false
	c.eiPending = false
}

// Resume clears HALT/STOP. An external joypad collaborator calls this on
// a button press, since both suspension states otherwise exit only
// through a pending interrupt (HALT) or a reset (STOP).
func (c *CPU) Resume() {
	c.halted = false
	c.stopped = false
}

// Stopped reports whether STOP has halted the step loop, letting the
// composition root's Run distinguish a clean stop from an indefinite wait.
func (c *CPU) Stopped() bool { return c.stopped }

const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

func (c *CPU) setZNHC(z, n, h, cy bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if cy {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) add8(a, b byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b)
	res = byte(r)
	return res, res == 0, false, ((a & 0x0F) + (b & 0x0F)) > 0x0F, r > 0xFF
}

func (c *CPU) adc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res = byte(r)
	return res, res == 0, false, ((a & 0x0F) + (b & 0x0F) + ci) > 0x0F, r > 0xFF
}

func (c *CPU) sub8(a, b byte) (res byte, z, n, h, cy bool) {
	r := int16(a) - int16(b)
	res = byte(r)
	return res, res == 0, true, (a & 0x0F) < (b & 0x0F), int16(a) < int16(b)
}

func (c *CPU) sbc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := int16(a) - int16(b) - int16(ci)
	res = byte(r)
	return res, res == 0, true, (a & 0x0F) < ((b & 0x0F) + ci), int16(a) < int16(b)+int16(ci)
}

func (c *CPU) and8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a & b
	return res, res == 0, false, true, false
}

func (c *CPU) xor8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a ^ b
	return res, res == 0, false, false, false
}

func (c *CPU) or8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a | b
	return res, res == 0, false, false, false
}

func (c *CPU) cp8(a, b byte) (z, n, h, cy bool) {
	_, z, n, h, cy = c.sub8(a, b)
	return
}

func (c *CPU) read8(addr uint16) byte            { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) error  { return c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) error {
	if err := c.write8(addr, byte(v&0x00FF)); err != nil {
		return err
	}
	return c.write8(addr+1, byte(v>>8))
}

func (c *CPU) getAF() uint16  { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) setAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) getBC() uint16  { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) getDE() uint16  { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) getHL() uint16  { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

func (c *CPU) push16(v uint16) error {
	c.SP -= 2
	return c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// reg8Get/reg8Set decode the standard SM83 3-bit register field
// (0=B,1=C,2=D,3=E,4=H,5=L,6=(HL),7=A) shared by LD r,r', the ALU-reg
// block, and every CB-prefixed operation.
func (c *CPU) reg8Get(idx byte) byte {
	switch idx {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.getHL())
	default:
		return c.A
	}
}

func (c *CPU) reg8Set(idx byte, v byte) error {
	switch idx {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		return c.write8(c.getHL(), v)
	default:
		c.A = v
	}
	return nil
}

// Step executes one instruction (or one interrupt dispatch, or one HALT/
// STOP no-op) and returns the T-cycles it charged. Timer advances by
// cycles/4 machine cycles per spec; the interrupt controller is consulted
// for pending/HALT-wake checks through the Bus.
func (c *CPU) Step() (cycles int, err error) {
	// eiArmedBefore captures whether EI ran on the *previous* Step call.
	// IME must stay 0 through this entire instruction and flip only once
	// it completes, so the flag set by this instruction's own EI handler
	// (if any) is deliberately not read until the next Step call.
	eiArmedBefore := c.eiPending
	defer func() {
		if err == nil && cycles > 0 {
			c.bus.Tick(cycles / 4)
		}
		if eiArmedBefore {
			c.IME = true
			c.eiPending = false
		}
	}()

	ic := c.bus.Interrupts()

	if c.stopped {
		return 4, nil
	}

	if c.halted {
		if !ic.Any() {
			return 4, nil
		}
		if !c.IME {
			c.halted = false
			// fall through to fetch: HALT bug is intentionally not
			// replicated, only "do not deadlock" is required.
		} else if kind, ok := ic.Pending(); ok {
			return c.dispatchInterrupt(ic, kind)
		}
	}

	if c.IME {
		if kind, ok := ic.Pending(); ok {
			return c.dispatchInterrupt(ic, kind)
		}
	}

	op := c.fetch8()
	if op == 0xCB {
		cb := c.fetch8()
		return cbTable[cb](c)
	}
	return primaryTable[op](c)
}

// dispatchInterrupt acks kind, pushes PC, and jumps to its vector. Shared
// by the HALT-wake path and the normal IME-checked path.
func (c *CPU) dispatchInterrupt(ic *interrupt.Controller, kind interrupt.Kind) (int, error) {
	ic.Ack(kind)
	c.IME = false
	c.halted = false
	if err := c.push16(c.PC); err != nil {
		return 0, err
	}
	c.PC = 0x0040 + uint16(kind)*8
	return 20, nil
}

func illegalOpcode(op byte) handler {
	return func(c *CPU) (int, error) {
		return 0, errs.New(errs.IllegalInstruction, "illegal opcode encountered")
	}
}
