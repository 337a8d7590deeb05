package cart

import "github.com/corebound/gbcore/internal/errs"

// ROMOnly is the MBC-None cartridge: a bare ROM, no banking, no external
// RAM. Per spec, writes to its bank-control region ($0000-$7FFF) are
// illegal since there is no MBC to receive them; writes to $A000-$BFFF
// (no RAM present) are also illegal rather than silently dropped, since
// there is no RAM-enable latch to have disabled them against.
type ROMOnly struct {
	rom []byte
}

func NewROMOnly(rom []byte) *ROMOnly {
	return &ROMOnly{rom: rom}
}

func (c *ROMOnly) Read(addr uint16) byte {
	if addr < 0x8000 {
		return byteAt(c.rom, int(addr))
	}
	return 0xFF
}

func (c *ROMOnly) Write(addr uint16, value byte) error {
	return errs.New(errs.IllegalMemoryWrite, "write to MBC-less cartridge bank-control region")
}
