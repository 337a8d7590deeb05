// Package cart implements cartridge loading, header parsing, and the
// MBC1/MBC2/MBC3 memory bank controllers (MBC5/6/7 are out of scope).
package cart

import (
	"os"

	"fmt"

	"github.com/corebound/gbcore/internal/errs"
)

// Cartridge is the minimal interface the Bus needs for ROM/RAM banking.
type Cartridge interface {
	// Read returns a byte from ROM ($0000-$7FFF) or external RAM
	// ($A000-$BFFF, or the currently latched RTC register for MBC3).
	Read(addr uint16) byte
	// Write handles bank-control writes ($0000-$7FFF) and external RAM
	// writes ($A000-$BFFF). It returns errs.IllegalMemoryWrite when the
	// cartridge has no MBC and a bank-control region is targeted; a
	// write to disabled RAM is accepted and silently dropped.
	Write(addr uint16, value byte) error
}

// BatteryBacked is implemented by cartridges with persistable external RAM.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// Load reads a ROM file from disk and constructs the matching Cartridge,
// validating the header checksum per spec.
func Load(romPath string) (Cartridge, *Header, error) {
	data, err := os.ReadFile(romPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errs.Wrap(errs.FileNotFound, err, "rom file not found")
		}
		return nil, nil, errs.Wrap(errs.RomReadFailure, err, "reading rom file")
	}
	return New(data)
}

// New builds a Cartridge from an in-memory ROM image, validating the header
// checksum and dispatching on cartridge type.
func New(rom []byte) (Cartridge, *Header, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, nil, err
	}
	if !HeaderChecksumOK(rom) {
		return nil, nil, errs.New(errs.HeaderChecksumFailed, "header checksum mismatch")
	}

	c, err := newController(rom, h)
	if err != nil {
		return nil, nil, err
	}
	return c, h, nil
}

func newController(rom []byte, h *Header) (Cartridge, error) {
	switch h.CartType {
	case 0x00:
		return NewROMOnly(rom), nil
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes), nil
	case 0x05, 0x06:
		return NewMBC2(rom), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return NewMBC3(rom, h.RAMSizeBytes), nil
	default:
		return nil, errs.New(errs.UnsupportedMBC, fmt.Sprintf("unsupported cartridge type %#02x", h.CartType))
	}
}
