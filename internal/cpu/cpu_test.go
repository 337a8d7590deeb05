package cpu

import (
	"testing"

	"github.com/corebound/gbcore/internal/bus"
	"github.com/corebound/gbcore/internal/cart"
	"github.com/corebound/gbcore/internal/errs"
	"github.com/corebound/gbcore/internal/interrupt"
)

func newTestCPU(t *testing.T) *CPU {
	t.Helper()
	rom := make([]byte, 0x8000)
	rom[0x014D] = 0xE7 // valid checksum over an all-zero header
	c, _, err := cart.New(rom)
	if err != nil {
		t.Fatalf("cart.New: %v", err)
	}
	b := bus.New(c)
	cpu := New(b)
	cpu.PC = 0xC000 // run out of WRAM so tests can poke opcodes freely
	return cpu
}

func (c *CPU) poke(addr uint16, bytes ...byte) {
	for i, b := range bytes {
		c.bus.Write(addr+uint16(i), b)
	}
}

func TestStep_AddAccumulatorToItself(t *testing.T) {
	c := newTestCPU(t)
	c.A = 0x11
	c.poke(c.PC, 0x87) // ADD A,A
	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if cycles != 4 {
		t.Fatalf("cycles got %d want 4", cycles)
	}
	if c.A != 0x22 {
		t.Fatalf("A got %02x want 22", c.A)
	}
	if c.F != 0 {
		t.Fatalf("F got %02x want 00", c.F)
	}
}

func TestStep_DAACorrectsBCDAddition(t *testing.T) {
	c := newTestCPU(t)
	c.A = 0x45
	c.poke(c.PC, 0xC6, 0x38) // ADD A,0x38 -> 0x7D, needs DAA to become 0x83 (BCD 45+38=83)
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step ADD: %v", err)
	}
	c.poke(c.PC, 0x27) // DAA
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step DAA: %v", err)
	}
	if c.A != 0x83 {
		t.Fatalf("A got %02x want 83", c.A)
	}
}

func TestStep_LoadHLFromSPPlusOffset(t *testing.T) {
	c := newTestCPU(t)
	c.SP = 0xFFF8
	c.poke(c.PC, 0xF8, 0x02) // LD HL,SP+2
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.getHL() != 0xFFFA {
		t.Fatalf("HL got %04x want FFFA", c.getHL())
	}
	if c.F&flagZ != 0 || c.F&flagN != 0 {
		t.Fatalf("Z/N should be clear after LD HL,SP+e8: F=%02x", c.F)
	}
}

func TestStep_RST18PushesReturnAddressAndJumps(t *testing.T) {
	c := newTestCPU(t)
	c.SP = 0xFFFE
	c.PC = 0xC100
	c.poke(c.PC, 0xDF) // RST $18
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.PC != 0x0018 {
		t.Fatalf("PC got %04x want 0018", c.PC)
	}
	ret := c.read16(c.SP)
	if ret != 0xC101 {
		t.Fatalf("pushed return addr got %04x want C101", ret)
	}
}

func TestStep_PushPopRoundTrip(t *testing.T) {
	c := newTestCPU(t)
	c.setBC(0xBEEF)
	c.SP = 0xFFFE
	c.poke(c.PC, 0xC5, 0xD1) // PUSH BC; POP DE
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step PUSH: %v", err)
	}
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step POP: %v", err)
	}
	if c.getDE() != 0xBEEF {
		t.Fatalf("DE got %04x want BEEF", c.getDE())
	}
}

func TestStep_FlagLowNibbleAlwaysZero(t *testing.T) {
	c := newTestCPU(t)
	c.A, c.F = 0x00, 0xFF // force garbage low nibble before the op
	c.poke(c.PC, 0xAF)    // XOR A -> A=0, Z set, everything else clear
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.F&0x0F != 0 {
		t.Fatalf("low nibble of F got %02x want 0", c.F&0x0F)
	}
	if c.F != flagZ {
		t.Fatalf("F got %02x want only Z set", c.F)
	}
}

func TestStep_IllegalOpcodeIsFatal(t *testing.T) {
	c := newTestCPU(t)
	c.poke(c.PC, 0xD3) // illegal
	_, err := c.Step()
	if err == nil {
		t.Fatalf("expected error for illegal opcode")
	}
	if code, ok := errs.CodeOf(err); !ok || code != errs.IllegalInstruction {
		t.Fatalf("CodeOf got %v, ok=%v, want IllegalInstruction", code, ok)
	}
}

func TestStep_InterruptDispatchHonorsPriorityAndVector(t *testing.T) {
	c := newTestCPU(t)
	c.IME = true
	c.PC = 0xC200
	c.SP = 0xFFFE
	ic := c.bus.Interrupts()
	ic.SetIE(0xFF)
	ic.Request(interrupt.Timer)
	ic.Request(interrupt.VBlank) // higher priority, should win

	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if cycles != 20 {
		t.Fatalf("cycles got %d want 20", cycles)
	}
	if c.PC != 0x0040 {
		t.Fatalf("PC got %04x want 0040 (VBlank vector)", c.PC)
	}
	if c.IME {
		t.Fatalf("IME should be cleared on dispatch")
	}
	if ret := c.read16(c.SP); ret != 0xC200 {
		t.Fatalf("pushed return addr got %04x want C200", ret)
	}
	// Timer interrupt is still pending; VBlank's IF bit was acked.
	if kind, ok := ic.Pending(); !ok || kind != interrupt.Timer {
		t.Fatalf("expected Timer still pending, got %v ok=%v", kind, ok)
	}
}

func TestStep_EIDelaysIMEByOneInstruction(t *testing.T) {
	c := newTestCPU(t)
	c.PC = 0xC300
	ic := c.bus.Interrupts()
	ic.SetIE(0xFF)
	c.poke(c.PC, 0xFB, 0x00, 0x00) // EI; NOP; NOP

	if _, err := c.Step(); err != nil { // EI
		t.Fatalf("Step EI: %v", err)
	}
	if c.IME {
		t.Fatalf("IME should not be set immediately after EI")
	}

	ic.Request(interrupt.VBlank)
	if _, err := c.Step(); err != nil { // NOP: IME becomes true only after this completes
		t.Fatalf("Step NOP: %v", err)
	}
	if !c.IME {
		t.Fatalf("IME should be set after the instruction following EI")
	}

	// The now-armed interrupt is serviced on the next Step.
	prevPC := c.PC
	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("Step dispatch: %v", err)
	}
	if cycles != 20 || c.PC != 0x0040 {
		t.Fatalf("expected VBlank dispatch from %04x, got PC=%04x cycles=%d", prevPC, c.PC, cycles)
	}
}

func TestStep_HaltWakesWithoutServicingWhenIMEClear(t *testing.T) {
	c := newTestCPU(t)
	c.IME = false
	c.PC = 0xC400
	c.poke(c.PC, 0x76, 0x00) // HALT; NOP
	ic := c.bus.Interrupts()
	ic.SetIE(0xFF)

	if _, err := c.Step(); err != nil { // HALT
		t.Fatalf("Step HALT: %v", err)
	}
	if !c.halted {
		t.Fatalf("expected halted=true after HALT with no pending interrupt")
	}

	ic.Request(interrupt.Timer)
	if _, err := c.Step(); err != nil { // should wake and fetch the NOP, not dispatch
		t.Fatalf("Step wake: %v", err)
	}
	if c.halted {
		t.Fatalf("expected halted=false after waking")
	}
	if c.PC != 0xC402 {
		t.Fatalf("PC got %04x want C402 (NOP fetched, no dispatch)", c.PC)
	}
	if kind, ok := ic.Pending(); !ok || kind != interrupt.Timer {
		t.Fatalf("Timer interrupt should remain pending since IME was clear")
	}
}

func TestStep_HaltServicesInterruptWhenIMESet(t *testing.T) {
	c := newTestCPU(t)
	c.IME = true
	c.PC = 0xC500
	c.poke(c.PC, 0x76) // HALT
	ic := c.bus.Interrupts()
	ic.SetIE(0xFF)

	if _, err := c.Step(); err != nil {
		t.Fatalf("Step HALT: %v", err)
	}
	ic.Request(interrupt.LCDSTAT)
	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("Step wake+dispatch: %v", err)
	}
	if cycles != 20 || c.PC != 0x0048 {
		t.Fatalf("expected LCDSTAT dispatch, got PC=%04x cycles=%d", c.PC, cycles)
	}
}

func TestStep_StopHaltsTheLoopUntilResume(t *testing.T) {
	c := newTestCPU(t)
	c.poke(c.PC, 0x10, 0x00) // STOP
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step STOP: %v", err)
	}
	if !c.stopped {
		t.Fatalf("expected stopped=true after STOP")
	}
	pc := c.PC
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step while stopped: %v", err)
	}
	if c.PC != pc {
		t.Fatalf("PC advanced while stopped: %04x -> %04x", pc, c.PC)
	}
	c.Resume()
	if c.stopped {
		t.Fatalf("expected stopped=false after Resume")
	}
}
