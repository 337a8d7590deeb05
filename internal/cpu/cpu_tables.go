package cpu

// handler executes one decoded opcode, returning the T-cycles charged
// (including any conditional-branch-taken penalty) or an error that
// terminates the step loop.
type handler func(c *CPU) (int, error)

var primaryTable [256]handler
var cbTable [256]handler

// illegalOpcodes are never valid on real hardware; they must fail rather
// than silently act as NOP.
var illegalOpcodes = [...]byte{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

func init() {
	for i := range primaryTable {
		primaryTable[i] = opNOP
	}
	for _, op := range illegalOpcodes {
		primaryTable[op] = illegalOpcode(op)
	}

	buildLoadRegToRegTable()
	buildALURegTable()
	buildMiscPrimaryTable()
	buildCBTable()
}

// buildLoadRegToRegTable fills the 0x40-0x7F block: LD r,r' (and LD
// (HL),r / LD r,(HL)), except 0x76 which is HALT.
func buildLoadRegToRegTable() {
	for op := 0x40; op <= 0x7F; op++ {
		op := byte(op)
		if op == 0x76 {
			primaryTable[op] = opHALT
			continue
		}
		dst := (op >> 3) & 7
		src := op & 7
		cycles := 4
		if dst == 6 || src == 6 {
			cycles = 8
		}
		primaryTable[op] = func(c *CPU) (int, error) {
			v := c.reg8Get(src)
			if err := c.reg8Set(dst, v); err != nil {
				return 0, err
			}
			return cycles, nil
		}
	}
}

// buildALURegTable fills the 0x80-0xBF block: ADD/ADC/SUB/SBC/AND/XOR/OR/CP
// against each of the 8 register-field sources.
func buildALURegTable() {
	type aluOp func(c *CPU, a, b byte) (byte, bool, bool, bool, bool)
	ops := [8]aluOp{
		func(c *CPU, a, b byte) (byte, bool, bool, bool, bool) { return c.add8(a, b) },
		func(c *CPU, a, b byte) (byte, bool, bool, bool, bool) { return c.adc8(a, b, c.F&flagC != 0) },
		func(c *CPU, a, b byte) (byte, bool, bool, bool, bool) { return c.sub8(a, b) },
		func(c *CPU, a, b byte) (byte, bool, bool, bool, bool) { return c.sbc8(a, b, c.F&flagC != 0) },
		func(c *CPU, a, b byte) (byte, bool, bool, bool, bool) { return c.and8(a, b) },
		func(c *CPU, a, b byte) (byte, bool, bool, bool, bool) { return c.xor8(a, b) },
		func(c *CPU, a, b byte) (byte, bool, bool, bool, bool) { return c.or8(a, b) },
		nil, // CP: handled specially below, result discarded
	}

	for op := 0x80; op <= 0xBF; op++ {
		op := byte(op)
		group := (op >> 3) & 7
		src := op & 7
		cycles := 4
		if src == 6 {
			cycles = 8
		}
		if group == 7 {
			primaryTable[op] = func(c *CPU) (int, error) {
				z, n, h, cy := c.cp8(c.A, c.reg8Get(src))
				c.setZNHC(z, n, h, cy)
				return cycles, nil
			}
			continue
		}
		aluFn := ops[group]
		primaryTable[op] = func(c *CPU) (int, error) {
			r, z, n, h, cy := aluFn(c, c.A, c.reg8Get(src))
			c.A = r
			c.setZNHC(z, n, h, cy)
			return cycles, nil
		}
	}
}

// buildCBTable fills all 256 CB-prefixed opcodes: rotate/shift/SWAP (group
// 0), BIT (group 1), RES (group 2), SET (group 3), each against one of the
// 8 register-field targets.
func buildCBTable() {
	for cb := 0; cb < 256; cb++ {
		cb := byte(cb)
		reg := cb & 7
		group := (cb >> 6) & 3
		y := (cb >> 3) & 7
		cycles := 8
		if reg == 6 {
			cycles = 16
			if group == 1 {
				cycles = 12 // BIT (HL) has no write-back
			}
		}

		switch group {
		case 0:
			cbTable[cb] = func(c *CPU) (int, error) {
				v := c.reg8Get(reg)
				var cflag byte
				switch y {
				case 0: // RLC
					cflag = (v >> 7) & 1
					v = (v << 1) | cflag
				case 1: // RRC
					cflag = v & 1
					v = (v >> 1) | (cflag << 7)
				case 2: // RL
					cflag = (v >> 7) & 1
					cin := byte(0)
					if c.F&flagC != 0 {
						cin = 1
					}
					v = (v << 1) | cin
				case 3: // RR
					cflag = v & 1
					cin := byte(0)
					if c.F&flagC != 0 {
						cin = 1
					}
					v = (v >> 1) | (cin << 7)
				case 4: // SLA
					cflag = (v >> 7) & 1
					v <<= 1
				case 5: // SRA
					cflag = v & 1
					v = (v >> 1) | (v & 0x80)
				case 6: // SWAP
					v = (v << 4) | (v >> 4)
					cflag = 0
				case 7: // SRL
					cflag = v & 1
					v >>= 1
				}
				c.setZNHC(v == 0, false, false, cflag == 1)
				if err := c.reg8Set(reg, v); err != nil {
					return 0, err
				}
				return cycles, nil
			}
		case 1: // BIT y, r — Z from bit, N=0, H=1, C unchanged
			cbTable[cb] = func(c *CPU) (int, error) {
				v := c.reg8Get(reg)
				bit := (v >> y) & 1
				c.F = (c.F & flagC) | flagH
				if bit == 0 {
					c.F |= flagZ
				}
				return cycles, nil
			}
		case 2: // RES y, r
			cbTable[cb] = func(c *CPU) (int, error) {
				v := c.reg8Get(reg) &^ (1 << y)
				if err := c.reg8Set(reg, v); err != nil {
					return 0, err
				}
				return cycles, nil
			}
		case 3: // SET y, r
			cbTable[cb] = func(c *CPU) (int, error) {
				v := c.reg8Get(reg) | (1 << y)
				if err := c.reg8Set(reg, v); err != nil {
					return 0, err
				}
				return cycles, nil
			}
		}
	}
}

func opNOP(c *CPU) (int, error) { return 4, nil }

func opHALT(c *CPU) (int, error) {
	c.halted = true
	return 4, nil
}

func opSTOP(c *CPU) (int, error) {
	c.fetch8() // STOP is followed by a padding byte, conventionally $00
	c.stopped = true
	return 4, nil
}

// buildMiscPrimaryTable assigns every primary opcode not covered by the
// two regular blocks above: immediate/indirect loads, 16-bit register
// ops, rotates, flag ops, control flow, stack ops, and EI/DI/STOP.
func buildMiscPrimaryTable() {
	primaryTable[0x00] = opNOP
	primaryTable[0x10] = opSTOP

	// LD r,d8
	ldImm := func(dst byte) handler {
		return func(c *CPU) (int, error) {
			v := c.fetch8()
			if err := c.reg8Set(dst, v); err != nil {
				return 0, err
			}
			if dst == 6 {
				return 12, nil
			}
			return 8, nil
		}
	}
	primaryTable[0x06] = ldImm(0)
	primaryTable[0x0E] = ldImm(1)
	primaryTable[0x16] = ldImm(2)
	primaryTable[0x1E] = ldImm(3)
	primaryTable[0x26] = ldImm(4)
	primaryTable[0x2E] = ldImm(5)
	primaryTable[0x36] = ldImm(6)
	primaryTable[0x3E] = ldImm(7)

	// 16-bit immediate loads
	primaryTable[0x01] = func(c *CPU) (int, error) { c.setBC(c.fetch16()); return 12, nil }
	primaryTable[0x11] = func(c *CPU) (int, error) { c.setDE(c.fetch16()); return 12, nil }
	primaryTable[0x21] = func(c *CPU) (int, error) { c.setHL(c.fetch16()); return 12, nil }
	primaryTable[0x31] = func(c *CPU) (int, error) { c.SP = c.fetch16(); return 12, nil }
	primaryTable[0x08] = func(c *CPU) (int, error) { // LD (a16),SP
		addr := c.fetch16()
		if err := c.write16(addr, c.SP); err != nil {
			return 0, err
		}
		return 20, nil
	}

	// (BC)/(DE) <-> A
	primaryTable[0x02] = func(c *CPU) (int, error) {
		if err := c.write8(c.getBC(), c.A); err != nil {
			return 0, err
		}
		return 8, nil
	}
	primaryTable[0x12] = func(c *CPU) (int, error) {
		if err := c.write8(c.getDE(), c.A); err != nil {
			return 0, err
		}
		return 8, nil
	}
	primaryTable[0x0A] = func(c *CPU) (int, error) { c.A = c.read8(c.getBC()); return 8, nil }
	primaryTable[0x1A] = func(c *CPU) (int, error) { c.A = c.read8(c.getDE()); return 8, nil }

	// LDI/LDD via HL
	primaryTable[0x22] = func(c *CPU) (int, error) {
		hl := c.getHL()
		if err := c.write8(hl, c.A); err != nil {
			return 0, err
		}
		c.setHL(hl + 1)
		return 8, nil
	}
	primaryTable[0x2A] = func(c *CPU) (int, error) {
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
		return 8, nil
	}
	primaryTable[0x32] = func(c *CPU) (int, error) {
		hl := c.getHL()
		if err := c.write8(hl, c.A); err != nil {
			return 0, err
		}
		c.setHL(hl - 1)
		return 8, nil
	}
	primaryTable[0x3A] = func(c *CPU) (int, error) {
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
		return 8, nil
	}

	// LDH
	primaryTable[0xE0] = func(c *CPU) (int, error) {
		n := uint16(c.fetch8())
		if err := c.write8(0xFF00+n, c.A); err != nil {
			return 0, err
		}
		return 12, nil
	}
	primaryTable[0xF0] = func(c *CPU) (int, error) {
		n := uint16(c.fetch8())
		c.A = c.read8(0xFF00 + n)
		return 12, nil
	}
	primaryTable[0xE2] = func(c *CPU) (int, error) {
		if err := c.write8(0xFF00+uint16(c.C), c.A); err != nil {
			return 0, err
		}
		return 8, nil
	}
	primaryTable[0xF2] = func(c *CPU) (int, error) { c.A = c.read8(0xFF00 + uint16(c.C)); return 8, nil }

	primaryTable[0xEA] = func(c *CPU) (int, error) { // LD (a16),A
		addr := c.fetch16()
		if err := c.write8(addr, c.A); err != nil {
			return 0, err
		}
		return 16, nil
	}
	primaryTable[0xFA] = func(c *CPU) (int, error) { // LD A,(a16)
		addr := c.fetch16()
		c.A = c.read8(addr)
		return 16, nil
	}

	// Accumulator rotates
	primaryTable[0x07] = func(c *CPU) (int, error) { // RLCA
		cval := (c.A >> 7) & 1
		c.A = (c.A << 1) | cval
		c.setZNHC(false, false, false, cval == 1)
		return 4, nil
	}
	primaryTable[0x0F] = func(c *CPU) (int, error) { // RRCA
		cval := c.A & 1
		c.A = (c.A >> 1) | (cval << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 4, nil
	}
	primaryTable[0x17] = func(c *CPU) (int, error) { // RLA
		cval := (c.A >> 7) & 1
		cin := byte(0)
		if c.F&flagC != 0 {
			cin = 1
		}
		c.A = (c.A << 1) | cin
		c.setZNHC(false, false, false, cval == 1)
		return 4, nil
	}
	primaryTable[0x1F] = func(c *CPU) (int, error) { // RRA
		cval := c.A & 1
		cin := byte(0)
		if c.F&flagC != 0 {
			cin = 1
		}
		c.A = (c.A >> 1) | (cin << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 4, nil
	}

	primaryTable[0x27] = func(c *CPU) (int, error) { // DAA
		a := c.A
		cf := c.F&flagC != 0
		if c.F&flagN == 0 {
			if cf || a > 0x99 {
				a += 0x60
				cf = true
			}
			if c.F&flagH != 0 || (a&0x0F) > 9 {
				a += 0x06
			}
		} else {
			if cf {
				a -= 0x60
			}
			if c.F&flagH != 0 {
				a -= 0x06
			}
		}
		c.A = a
		c.setZNHC(c.A == 0, c.F&flagN != 0, false, cf)
		return 4, nil
	}
	primaryTable[0x2F] = func(c *CPU) (int, error) { // CPL
		c.A = ^c.A
		c.F = (c.F & (flagZ | flagC)) | flagN | flagH
		return 4, nil
	}
	primaryTable[0x37] = func(c *CPU) (int, error) { // SCF
		c.F = (c.F & flagZ) | flagC
		return 4, nil
	}
	primaryTable[0x3F] = func(c *CPU) (int, error) { // CCF
		c.F = (c.F & (flagZ | flagC)) ^ flagC
		return 4, nil
	}

	// INC/DEC 8-bit
	incDec8 := func(idx byte, delta int8) handler {
		cycles := 4
		if idx == 6 {
			cycles = 12
		}
		return func(c *CPU) (int, error) {
			old := c.reg8Get(idx)
			var v byte
			var h bool
			if delta > 0 {
				v = old + 1
				h = (old & 0x0F) == 0x0F
			} else {
				v = old - 1
				h = (old & 0x0F) == 0x00
			}
			if err := c.reg8Set(idx, v); err != nil {
				return 0, err
			}
			c.setZNHC(v == 0, delta < 0, h, c.F&flagC != 0)
			return cycles, nil
		}
	}
	primaryTable[0x04] = incDec8(0, 1)
	primaryTable[0x0C] = incDec8(1, 1)
	primaryTable[0x14] = incDec8(2, 1)
	primaryTable[0x1C] = incDec8(3, 1)
	primaryTable[0x24] = incDec8(4, 1)
	primaryTable[0x2C] = incDec8(5, 1)
	primaryTable[0x34] = incDec8(6, 1)
	primaryTable[0x3C] = incDec8(7, 1)
	primaryTable[0x05] = incDec8(0, -1)
	primaryTable[0x0D] = incDec8(1, -1)
	primaryTable[0x15] = incDec8(2, -1)
	primaryTable[0x1D] = incDec8(3, -1)
	primaryTable[0x25] = incDec8(4, -1)
	primaryTable[0x2D] = incDec8(5, -1)
	primaryTable[0x35] = incDec8(6, -1)
	primaryTable[0x3D] = incDec8(7, -1)

	// ALU against (HL) and immediate
	primaryTable[0x86] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.add8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0x8E] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.adc8(c.A, c.read8(c.getHL()), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0x96] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.sub8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0x9E] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.sbc8(c.A, c.read8(c.getHL()), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xA6] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.and8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xAE] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.xor8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xB6] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.or8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xBE] = func(c *CPU) (int, error) {
		z, n, h, cy := c.cp8(c.A, c.read8(c.getHL()))
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xC6] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.add8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xCE] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.adc8(c.A, c.fetch8(), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xD6] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.sub8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xDE] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.sbc8(c.A, c.fetch8(), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xE6] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.and8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xEE] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.xor8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xF6] = func(c *CPU) (int, error) {
		r, z, n, h, cy := c.or8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}
	primaryTable[0xFE] = func(c *CPU) (int, error) {
		z, n, h, cy := c.cp8(c.A, c.fetch8())
		c.setZNHC(z, n, h, cy)
		return 8, nil
	}

	// Jumps
	primaryTable[0xC3] = func(c *CPU) (int, error) { c.PC = c.fetch16(); return 16, nil }
	primaryTable[0xE9] = func(c *CPU) (int, error) { c.PC = c.getHL(); return 4, nil }
	primaryTable[0x18] = func(c *CPU) (int, error) {
		off := int8(c.fetch8())
		c.PC = uint16(int32(c.PC) + int32(off))
		return 12, nil
	}
	jrCC := func(test func(*CPU) bool) handler {
		return func(c *CPU) (int, error) {
			off := int8(c.fetch8())
			if test(c) {
				c.PC = uint16(int32(c.PC) + int32(off))
				return 12, nil
			}
			return 8, nil
		}
	}
	primaryTable[0x20] = jrCC(func(c *CPU) bool { return c.F&flagZ == 0 })
	primaryTable[0x28] = jrCC(func(c *CPU) bool { return c.F&flagZ != 0 })
	primaryTable[0x30] = jrCC(func(c *CPU) bool { return c.F&flagC == 0 })
	primaryTable[0x38] = jrCC(func(c *CPU) bool { return c.F&flagC != 0 })

	jpCC := func(test func(*CPU) bool) handler {
		return func(c *CPU) (int, error) {
			addr := c.fetch16()
			if test(c) {
				c.PC = addr
				return 16, nil
			}
			return 12, nil
		}
	}
	primaryTable[0xC2] = jpCC(func(c *CPU) bool { return c.F&flagZ == 0 })
	primaryTable[0xCA] = jpCC(func(c *CPU) bool { return c.F&flagZ != 0 })
	primaryTable[0xD2] = jpCC(func(c *CPU) bool { return c.F&flagC == 0 })
	primaryTable[0xDA] = jpCC(func(c *CPU) bool { return c.F&flagC != 0 })

	// Calls/rets
	primaryTable[0xCD] = func(c *CPU) (int, error) {
		addr := c.fetch16()
		if err := c.push16(c.PC); err != nil {
			return 0, err
		}
		c.PC = addr
		return 24, nil
	}
	callCC := func(test func(*CPU) bool) handler {
		return func(c *CPU) (int, error) {
			addr := c.fetch16()
			if test(c) {
				if err := c.push16(c.PC); err != nil {
					return 0, err
				}
				c.PC = addr
				return 24, nil
			}
			return 12, nil
		}
	}
	primaryTable[0xC4] = callCC(func(c *CPU) bool { return c.F&flagZ == 0 })
	primaryTable[0xCC] = callCC(func(c *CPU) bool { return c.F&flagZ != 0 })
	primaryTable[0xD4] = callCC(func(c *CPU) bool { return c.F&flagC == 0 })
	primaryTable[0xDC] = callCC(func(c *CPU) bool { return c.F&flagC != 0 })

	primaryTable[0xC9] = func(c *CPU) (int, error) { c.PC = c.pop16(); return 16, nil }
	primaryTable[0xD9] = func(c *CPU) (int, error) { c.PC = c.pop16(); c.IME = true; return 16, nil }
	retCC := func(test func(*CPU) bool) handler {
		return func(c *CPU) (int, error) {
			if test(c) {
				c.PC = c.pop16()
				return 20, nil
			}
			return 8, nil
		}
	}
	primaryTable[0xC0] = retCC(func(c *CPU) bool { return c.F&flagZ == 0 })
	primaryTable[0xC8] = retCC(func(c *CPU) bool { return c.F&flagZ != 0 })
	primaryTable[0xD0] = retCC(func(c *CPU) bool { return c.F&flagC == 0 })
	primaryTable[0xD8] = retCC(func(c *CPU) bool { return c.F&flagC != 0 })

	rst := func(vec uint16) handler {
		return func(c *CPU) (int, error) {
			if err := c.push16(c.PC); err != nil {
				return 0, err
			}
			c.PC = vec
			return 16, nil
		}
	}
	primaryTable[0xC7] = rst(0x00)
	primaryTable[0xCF] = rst(0x08)
	primaryTable[0xD7] = rst(0x10)
	primaryTable[0xDF] = rst(0x18)
	primaryTable[0xE7] = rst(0x20)
	primaryTable[0xEF] = rst(0x28)
	primaryTable[0xF7] = rst(0x30)
	primaryTable[0xFF] = rst(0x38)

	// 16-bit INC/DEC and ADD HL,rr
	primaryTable[0x03] = func(c *CPU) (int, error) { c.setBC(c.getBC() + 1); return 8, nil }
	primaryTable[0x13] = func(c *CPU) (int, error) { c.setDE(c.getDE() + 1); return 8, nil }
	primaryTable[0x23] = func(c *CPU) (int, error) { c.setHL(c.getHL() + 1); return 8, nil }
	primaryTable[0x33] = func(c *CPU) (int, error) { c.SP++; return 8, nil }
	primaryTable[0x0B] = func(c *CPU) (int, error) { c.setBC(c.getBC() - 1); return 8, nil }
	primaryTable[0x1B] = func(c *CPU) (int, error) { c.setDE(c.getDE() - 1); return 8, nil }
	primaryTable[0x2B] = func(c *CPU) (int, error) { c.setHL(c.getHL() - 1); return 8, nil }
	primaryTable[0x3B] = func(c *CPU) (int, error) { c.SP--; return 8, nil }

	addHL := func(get func(*CPU) uint16) handler {
		return func(c *CPU) (int, error) {
			hl := c.getHL()
			rhs := get(c)
			r := uint32(hl) + uint32(rhs)
			h := (hl&0x0FFF)+(rhs&0x0FFF) > 0x0FFF
			c.setHL(uint16(r))
			c.setZNHC(c.F&flagZ != 0, false, h, r > 0xFFFF)
			return 8, nil
		}
	}
	primaryTable[0x09] = addHL(func(c *CPU) uint16 { return c.getBC() })
	primaryTable[0x19] = addHL(func(c *CPU) uint16 { return c.getDE() })
	primaryTable[0x29] = addHL(func(c *CPU) uint16 { return c.getHL() })
	primaryTable[0x39] = addHL(func(c *CPU) uint16 { return c.SP })

	// Stack/SP ops
	primaryTable[0xF8] = func(c *CPU) (int, error) { // LD HL,SP+e8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.setHL(uint16(int32(int16(c.SP)) + int32(off)))
		c.setZNHC(false, false, h, cy)
		return 12, nil
	}
	primaryTable[0xF9] = func(c *CPU) (int, error) { c.SP = c.getHL(); return 8, nil }
	primaryTable[0xE8] = func(c *CPU) (int, error) { // ADD SP,e8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.SP = uint16(int32(int16(c.SP)) + int32(off))
		c.setZNHC(false, false, h, cy)
		return 16, nil
	}

	primaryTable[0xF3] = func(c *CPU) (int, error) { c.IME = false; c.eiPending = false; return 4, nil }
	primaryTable[0xFB] = func(c *CPU) (int, error) { c.eiPending = true; return 4, nil }

	push := func(get func(*CPU) uint16) handler {
		return func(c *CPU) (int, error) {
			if err := c.push16(get(c)); err != nil {
				return 0, err
			}
			return 16, nil
		}
	}
	primaryTable[0xF5] = push(func(c *CPU) uint16 { return c.getAF() })
	primaryTable[0xC5] = push(func(c *CPU) uint16 { return c.getBC() })
	primaryTable[0xD5] = push(func(c *CPU) uint16 { return c.getDE() })
	primaryTable[0xE5] = push(func(c *CPU) uint16 { return c.getHL() })

	pop := func(set func(*CPU, uint16)) handler {
		return func(c *CPU) (int, error) {
			set(c, c.pop16())
			return 12, nil
		}
	}
	primaryTable[0xF1] = pop(func(c *CPU, v uint16) { c.setAF(v) })
	primaryTable[0xC1] = pop(func(c *CPU, v uint16) { c.setBC(v) })
	primaryTable[0xD1] = pop(func(c *CPU, v uint16) { c.setDE(v) })
	primaryTable[0xE1] = pop(func(c *CPU, v uint16) { c.setHL(v) })
}
