package cart

import "testing"

func TestMBC2_ROMBankingViaAddressBit8(t *testing.T) {
	rom := make([]byte, 256*1024)
	for bank := 0; bank < 16; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC2(rom)

	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default bank got %02X want 01", got)
	}

	// Address bit 8 clear: this is the RAM-enable register, not ROM bank.
	m.Write(0x0000, 0x05)
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("write with bit8 clear should not change rom bank, got %02X", got)
	}

	// Address bit 8 set: selects ROM bank.
	m.Write(0x0100, 0x05)
	if got := m.Read(0x4000); got != 0x05 {
		t.Fatalf("bank select got %02X want 05", got)
	}

	// Bank 0 remaps to 1.
	m.Write(0x0100, 0x00)
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("bank0 remap got %02X want 01", got)
	}
}

func TestMBC2_RAMIsHalfByteAndMirrored(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC2(rom)

	m.Write(0x0000, 0x0A) // enable, bit8 clear
	m.Write(0xA010, 0xFF)

	if got := m.Read(0xA010); got != 0xFF {
		t.Fatalf("got %02X want FF (high nibble reads as 1s)", got)
	}
	// mirrored every 0x200 bytes
	if got := m.Read(0xA210); got != 0xFF {
		t.Fatalf("mirror got %02X want FF", got)
	}
	if got := m.Read(0xB810); got != 0xFF {
		t.Fatalf("mirror at B810 got %02X want FF", got)
	}
}

func TestMBC2_RAMDisabledReadsFF(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC2(rom)
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("disabled ram read got %02X want FF", got)
	}
}
