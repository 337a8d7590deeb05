package cart

// MBC2 supports ROM banking up to 256 KiB (16 banks) and has a built-in
// 512x4-bit RAM array addressed at $A000-$A1FF (mirrored every $200 bytes
// through $BFFF). Unlike MBC1/MBC3, its bank-control registers are
// distinguished by address bit 8 rather than by address range: writes
// below $4000 select RAM-enable when bit 8 is clear, ROM bank when bit 8
// is set.
type MBC2 struct {
	rom []byte
	ram [512]byte // 512 half-bytes; only the low nibble of each is used

	romBank    byte // 4 bits, 1..15 (0 remapped to 1)
	ramEnabled bool
}

func NewMBC2(rom []byte) *MBC2 {
	return &MBC2{rom: rom, romBank: 1}
}

func (m *MBC2) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return byteAt(m.rom, int(addr))
	case addr < 0x8000:
		return romBankByte(m.rom, int(m.romBank), addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		// high nibble of the upper byte reads back as 1s on real hardware
		return m.ram[addr&0x01FF] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(addr uint16, value byte) error {
	switch {
	case addr < 0x4000:
		if addr&0x0100 == 0 {
			m.ramEnabled = (value & 0x0F) == 0x0A
		} else {
			m.romBank = nonZeroBank(value & 0x0F)
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if m.ramEnabled {
			m.ram[addr&0x01FF] = value & 0x0F
		}
	}
	return nil
}

func (m *MBC2) SaveRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram[:])
	return out
}

func (m *MBC2) LoadRAM(data []byte) {
	if len(data) == 0 {
		return
	}
	copy(m.ram[:], data)
}
