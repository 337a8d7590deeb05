// Package gameboy is the composition root: it wires a Cartridge, Bus, and
// CPU together and exposes the small surface an external PPU/APU/joypad/
// serial driver needs — a step function, interrupt requests, and raw bus
// access — without owning any of those collaborators itself.
package gameboy

import (
	"io"
	"log/slog"

	"github.com/corebound/gbcore/internal/bus"
	"github.com/corebound/gbcore/internal/cart"
	"github.com/corebound/gbcore/internal/cpu"
	"github.com/corebound/gbcore/internal/interrupt"
)

// postBootDiv is the DIV internal-counter value observed immediately after
// the DMG boot ROM hands off to cartridge code with no boot ROM emulated.
const postBootDiv = 0xABCC

// Gameboy owns the Cartridge, Bus, and CPU for one running ROM.
type Gameboy struct {
	cart cart.Cartridge
	bus  *bus.Bus
	cpu  *cpu.CPU

	trace bool
	log   *slog.Logger
}

// New returns a Gameboy with no ROM loaded; call Init before Step/Run.
func New(trace bool) *Gameboy {
	return &Gameboy{trace: trace, log: slog.Default()}
}

// Init loads romPath, validates its header, builds the Cartridge/Bus/CPU
// chain, and seeds post-boot register and DIV state (no boot ROM runs).
func (g *Gameboy) Init(romPath string) error {
	c, h, err := cart.Load(romPath)
	if err != nil {
		return err
	}
	g.log.Info("rom loaded", "title", h.Title, "cart_type", h.CartTypeStr, "rom_banks", h.ROMBanks, "ram_bytes", h.RAMSizeBytes)

	g.cart = c
	g.bus = bus.New(c)
	g.cpu = cpu.New(g.bus)
	g.cpu.ResetNoBoot()
	g.cpu.SetPC(0x0100)
	g.bus.SeedDiv(postBootDiv)
	return nil
}

// Step runs exactly one CPU step (one instruction, one interrupt dispatch,
// or one HALT/STOP no-op) and logs it when tracing is enabled.
func (g *Gameboy) Step() error {
	pc := g.cpu.PC
	cycles, err := g.cpu.Step()
	if err != nil {
		return err
	}
	if g.trace {
		g.log.Info("step", "pc", pc, "cycles", cycles)
	}
	return nil
}

// Run loops calling Step until an error (illegal opcode, etc.) or the CPU
// enters STOP, which is a clean shutdown rather than a failure.
func (g *Gameboy) Run() error {
	for {
		if err := g.Step(); err != nil {
			return err
		}
		if g.cpu.Stopped() {
			return nil
		}
	}
}

// RequestInterrupt lets an external PPU/joypad/serial collaborator raise
// one of the five interrupt sources without reaching into the CPU or Bus.
func (g *Gameboy) RequestInterrupt(kind interrupt.Kind) {
	g.bus.Interrupts().Request(kind)
}

// BusRead/BusWrite expose the memory map to external collaborators (a PPU
// reading/writing VRAM and OAM, a joypad driver writing $FF00).
func (g *Gameboy) BusRead(addr uint16) byte           { return g.bus.Read(addr) }
func (g *Gameboy) BusWrite(addr uint16, v byte) error { return g.bus.Write(addr, v) }

// SetSerialWriter attaches an observer for the core's shadow serial link,
// used by test harnesses reading blargg-style pass/fail reports.
func (g *Gameboy) SetSerialWriter(w io.Writer) { g.bus.SetSerialWriter(w) }

// SaveRAM persists cartridge battery RAM, if the loaded cartridge has any.
func (g *Gameboy) SaveRAM() ([]byte, bool) {
	bb, ok := g.cart.(cart.BatteryBacked)
	if !ok {
		return nil, false
	}
	return bb.SaveRAM(), true
}

// LoadRAM restores cartridge battery RAM saved by SaveRAM.
func (g *Gameboy) LoadRAM(data []byte) bool {
	bb, ok := g.cart.(cart.BatteryBacked)
	if !ok {
		return false
	}
	bb.LoadRAM(data)
	return true
}
