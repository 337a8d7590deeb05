// Package bus wires the CPU-visible address space to the cartridge,
// banked WRAM, VRAM/OAM (owned directly — rendering is an external
// collaborator), the timer, and the interrupt controller.
package bus

import (
	"io"

	"github.com/corebound/gbcore/internal/cart"
	"github.com/corebound/gbcore/internal/errs"
	"github.com/corebound/gbcore/internal/interrupt"
	"github.com/corebound/gbcore/internal/timer"
)

// Bus implements the region table of spec section 4.2.
type Bus struct {
	cart cart.Cartridge

	// WRAM: 8 banks of 4 KiB. Bank 0 is fixed at $C000-$CFFF; the
	// switchable bank (1-7, selected through $FF70) sits at $D000-$DFFF.
	// The bus has no DMG/CGB mode: $FF70 switches banks for every cartridge.
	wram     [8][0x1000]byte
	wramBank byte // FF70; a value of 0 maps bank 1 (the register still reads back 0)

	// VRAM: 2 banks of 8 KiB, selected through $FF4F for every cartridge
	// (no DMG/CGB mode).
	vram     [2][0x2000]byte
	vramBank byte // FF4F, bit 0 only

	oam  [0xA0]byte
	hram [0x7F]byte

	// io is the 128-byte scratch for anything not specially decoded below.
	io [0x80]byte

	ic *interrupt.Controller
	tm *timer.Timer

	sb byte // FF01
	sc byte // FF02

	// serialOut receives each byte shadowed through SB on a transfer-start
	// write, matching the original C bus.c's immediate-completion link
	// model; nil means no external link observer is attached.
	serialOut io.Writer

	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int
}

// New wires a Bus to a cartridge, a fresh interrupt controller, and a
// fresh timer.
func New(c cart.Cartridge) *Bus {
	return &Bus{
		cart:     c,
		ic:       interrupt.New(),
		tm:       timer.New(),
		wramBank: 1,
	}
}

// Interrupts exposes the bus's interrupt controller so the CPU and an
// external PPU/joypad/serial driver can share it.
func (b *Bus) Interrupts() *interrupt.Controller { return b.ic }

// Cart returns the underlying cartridge for battery-RAM persistence.
func (b *Bus) Cart() cart.Cartridge { return b.cart }

// SeedDiv sets the timer's internal counter directly, used by the
// composition root to reproduce the post-boot DIV value without charging
// cycles through Tick.
func (b *Bus) SeedDiv(v uint16) { b.tm.SeedDiv(v) }

// SetSerialWriter attaches an observer that receives each byte shadowed
// through SB whenever a transfer-start write completes. Used by test
// harnesses that read blargg-style pass/fail reports off the serial link.
func (b *Bus) SetSerialWriter(w io.Writer) { b.serialOut = w }

func (b *Bus) wramBankIndex() int {
	n := b.wramBank & 0x07
	if n == 0 {
		n = 1
	}
	return int(n)
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return b.cart.Read(addr)
	case addr <= 0x9FFF:
		return b.vram[b.vramBank&0x01][addr-0x8000]
	case addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr <= 0xCFFF:
		return b.wram[0][addr-0xC000]
	case addr <= 0xDFFF:
		return b.wram[b.wramBankIndex()][addr-0xD000]
	case addr <= 0xFDFF:
		return b.readEcho(addr)
	case addr <= 0xFE9F:
		if b.dmaActive {
			return 0xFF
		}
		return b.oam[addr-0xFE00]
	case addr <= 0xFEFF:
		return 0xFF
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	case addr == 0xFF04:
		return b.tm.DIV()
	case addr == 0xFF05:
		return b.tm.TIMA()
	case addr == 0xFF06:
		return b.tm.TMA()
	case addr == 0xFF07:
		return b.tm.TAC()
	case addr == 0xFF0F:
		return b.ic.IF()
	case addr == 0xFF4F:
		return 0xFE | b.vramBank
	case addr == 0xFF70:
		return 0xF8 | b.wramBank
	case addr <= 0xFF7F:
		return b.io[addr-0xFF00]
	case addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	default: // 0xFFFF
		return b.ic.IE()
	}
}

func (b *Bus) readEcho(addr uint16) byte {
	mirror := addr - 0x2000
	if mirror <= 0xCFFF {
		return b.wram[0][mirror-0xC000]
	}
	return b.wram[b.wramBankIndex()][mirror-0xD000]
}

// Write dispatches a CPU write per the region table. Illegal writes
// (MBC-less bank-control region, an MBC-less cartridge's $A000-$BFFF
// window, the $FEA0-$FEFF unusable window) report
// errs.IllegalMemoryWrite; everything else always succeeds (a write to
// disabled cartridge RAM is accepted and silently dropped, per spec).
func (b *Bus) Write(addr uint16, value byte) error {
	switch {
	case addr < 0x8000:
		return b.cart.Write(addr, value)
	case addr <= 0x9FFF:
		b.vram[b.vramBank&0x01][addr-0x8000] = value
		return nil
	case addr <= 0xBFFF:
		return b.cart.Write(addr, value)
	case addr <= 0xCFFF:
		b.wram[0][addr-0xC000] = value
		return nil
	case addr <= 0xDFFF:
		b.wram[b.wramBankIndex()][addr-0xD000] = value
		return nil
	case addr <= 0xFDFF:
		b.writeEcho(addr, value)
		return nil
	case addr <= 0xFE9F:
		if !b.dmaActive {
			b.oam[addr-0xFE00] = value
		}
		return nil
	case addr <= 0xFEFF:
		return errs.New(errs.IllegalMemoryWrite, "write to unusable region $FEA0-$FEFF")
	case addr == 0xFF01:
		b.sb = value
		return nil
	case addr == 0xFF02:
		b.sc = value & 0x81
		if b.sc&0x80 != 0 {
			if b.serialOut != nil {
				b.serialOut.Write([]byte{b.sb})
			}
			b.ic.Request(interrupt.Serial)
			b.sc &^= 0x80
		}
		return nil
	case addr == 0xFF04:
		b.tm.WriteDIV(b.ic)
		return nil
	case addr == 0xFF05:
		b.tm.WriteTIMA(value)
		return nil
	case addr == 0xFF06:
		b.tm.WriteTMA(value)
		return nil
	case addr == 0xFF07:
		b.tm.WriteTAC(value, b.ic)
		return nil
	case addr == 0xFF0F:
		b.ic.SetIF(value)
		return nil
	case addr == 0xFF46:
		b.startOAMDMA(value)
		return nil
	case addr == 0xFF4F:
		b.vramBank = value & 0x01
		return nil
	case addr == 0xFF70:
		b.wramBank = value & 0x07
		return nil
	case addr <= 0xFF7F:
		b.io[addr-0xFF00] = value
		return nil
	case addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
		return nil
	default: // 0xFFFF
		b.ic.SetIE(value)
		return nil
	}
}

func (b *Bus) writeEcho(addr uint16, value byte) {
	mirror := addr - 0x2000
	if mirror <= 0xCFFF {
		b.wram[0][mirror-0xC000] = value
		return
	}
	b.wram[b.wramBankIndex()][mirror-0xD000] = value
}

func (b *Bus) startOAMDMA(value byte) {
	b.dmaActive = true
	b.dmaSrc = uint16(value) << 8
	b.dmaIndex = 0
}

// Tick advances the timer and any in-flight OAM DMA by the given number
// of machine cycles (each worth 4 T-cycles, matching Timer.Tick's unit).
func (b *Bus) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		b.tm.Tick(b.ic)
		b.stepOAMDMA()
	}
}

func (b *Bus) stepOAMDMA() {
	if !b.dmaActive {
		return
	}
	v := b.Read(b.dmaSrc + uint16(b.dmaIndex))
	b.oam[b.dmaIndex] = v
	b.dmaIndex++
	if b.dmaIndex >= 0xA0 {
		b.dmaActive = false
	}
}
