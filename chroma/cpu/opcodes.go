package cpu

import "github.com/marcval/go-chroma/chroma/bit"

// reg returns the 8-bit register encoded in three opcode bits, in the
// hardware order B, C, D, E, H, L, -, A. Encoding 6 is the (HL) memory
// operand and is special-cased by the callers.
func (c *CPU) reg(index byte) *byte {
	switch index & 0x07 {
	case 0:
		return &c.b
	case 1:
		return &c.c
	case 2:
		return &c.d
	case 3:
		return &c.e
	case 4:
		return &c.h
	case 5:
		return &c.l
	default:
		return &c.a
	}
}

// readOperand resolves the source operand for the regular opcode blocks,
// returning the extra cycles for the (HL) form.
func (c *CPU) readOperand(index byte) (byte, int) {
	if index&0x07 == 6 {
		return c.memory.Read(c.getHL()), 4
	}
	return *c.reg(index), 0
}

// execute runs a single decoded instruction and returns its T-cycles.
//
// The LD (0x40-0x7F) and ALU (0x80-0xBF) quadrants are fully regular and
// decode by bit fields; everything else dispatches explicitly.
func (c *CPU) execute(opcode byte) int {
	switch {
	case opcode >= 0x40 && opcode <= 0x7F:
		if opcode == 0x76 {
			return c.halt()
		}
		return c.executeLoad(opcode)
	case opcode >= 0x80 && opcode <= 0xBF:
		return c.executeALU(opcode)
	default:
		return c.executeIrregular(opcode)
	}
}

// executeLoad covers LD r,r' / LD r,(HL) / LD (HL),r.
func (c *CPU) executeLoad(opcode byte) int {
	source := opcode & 0x07
	destination := opcode >> 3 & 0x07

	value, cycles := c.readOperand(source)
	if destination == 6 {
		c.memory.Write(c.getHL(), value)
		return 8
	}
	*c.reg(destination) = value
	return 4 + cycles
}

// executeALU covers the eight accumulator operations against the eight
// operand encodings.
func (c *CPU) executeALU(opcode byte) int {
	value, cycles := c.readOperand(opcode & 0x07)
	c.aluOp(opcode>>3&0x07, value)
	return 4 + cycles
}

func (c *CPU) aluOp(operation, value byte) {
	switch operation {
	case 0: // ADD
		c.addToA(value, false)
	case 1: // ADC
		c.addToA(value, true)
	case 2: // SUB
		c.subFromA(value, false, false)
	case 3: // SBC
		c.subFromA(value, true, false)
	case 4: // AND
		c.and(value)
	case 5: // XOR
		c.xor(value)
	case 6: // OR
		c.or(value)
	case 7: // CP
		c.subFromA(value, false, true)
	}
}

func (c *CPU) halt() int {
	if _, pending := c.ic.Pending(); pending {
		if !c.ic.Enabled() {
			// HALT with IME clear and a pending interrupt triggers the
			// HALT bug instead of halting.
			c.haltBug = true
		}
		// With IME set the pending interrupt dispatches at the next
		// boundary; HALT degenerates to a NOP.
		return 4
	}
	c.halted = true
	return 4
}

func (c *CPU) stop() int {
	// STOP is encoded as 0x10 0x00; swallow the padding byte.
	c.pc++
	if switcher, ok := c.memory.(SpeedSwitcher); ok && switcher.SpeedSwitchArmed() {
		switcher.PerformSpeedSwitch()
		return 4
	}
	c.stopped = true
	return 4
}

func (c *CPU) executeIrregular(opcode byte) int {
	switch opcode {
	case 0x00: // NOP
		return 4
	case 0x01: // LD BC,nn
		c.setBC(c.readImmediateWord())
		return 12
	case 0x02: // LD (BC),A
		c.memory.Write(c.getBC(), c.a)
		return 8
	case 0x03: // INC BC
		c.setBC(c.getBC() + 1)
		return 8
	case 0x04: // INC B
		c.inc(&c.b)
		return 4
	case 0x05: // DEC B
		c.dec(&c.b)
		return 4
	case 0x06: // LD B,n
		c.b = c.readImmediate()
		return 8
	case 0x07: // RLCA
		c.a = c.rotateLeftCircular(c.a)
		c.resetFlag(zeroFlag)
		return 4
	case 0x08: // LD (nn),SP
		address := c.readImmediateWord()
		c.memory.Write(address, bit.Low(c.sp))
		c.memory.Write(address+1, bit.High(c.sp))
		return 20
	case 0x09: // ADD HL,BC
		c.addToHL(c.getBC())
		return 8
	case 0x0A: // LD A,(BC)
		c.a = c.memory.Read(c.getBC())
		return 8
	case 0x0B: // DEC BC
		c.setBC(c.getBC() - 1)
		return 8
	case 0x0C: // INC C
		c.inc(&c.c)
		return 4
	case 0x0D: // DEC C
		c.dec(&c.c)
		return 4
	case 0x0E: // LD C,n
		c.c = c.readImmediate()
		return 8
	case 0x0F: // RRCA
		c.a = c.rotateRightCircular(c.a)
		c.resetFlag(zeroFlag)
		return 4
	case 0x10: // STOP
		return c.stop()
	case 0x11: // LD DE,nn
		c.setDE(c.readImmediateWord())
		return 12
	case 0x12: // LD (DE),A
		c.memory.Write(c.getDE(), c.a)
		return 8
	case 0x13: // INC DE
		c.setDE(c.getDE() + 1)
		return 8
	case 0x14: // INC D
		c.inc(&c.d)
		return 4
	case 0x15: // DEC D
		c.dec(&c.d)
		return 4
	case 0x16: // LD D,n
		c.d = c.readImmediate()
		return 8
	case 0x17: // RLA
		c.a = c.rotateLeft(c.a)
		c.resetFlag(zeroFlag)
		return 4
	case 0x18: // JR e
		c.jr()
		return 12
	case 0x19: // ADD HL,DE
		c.addToHL(c.getDE())
		return 8
	case 0x1A: // LD A,(DE)
		c.a = c.memory.Read(c.getDE())
		return 8
	case 0x1B: // DEC DE
		c.setDE(c.getDE() - 1)
		return 8
	case 0x1C: // INC E
		c.inc(&c.e)
		return 4
	case 0x1D: // DEC E
		c.dec(&c.e)
		return 4
	case 0x1E: // LD E,n
		c.e = c.readImmediate()
		return 8
	case 0x1F: // RRA
		c.a = c.rotateRight(c.a)
		c.resetFlag(zeroFlag)
		return 4
	case 0x20: // JR NZ,e
		if !c.isSetFlag(zeroFlag) {
			c.jr()
			return 12
		}
		c.pc++
		return 8
	case 0x21: // LD HL,nn
		c.setHL(c.readImmediateWord())
		return 12
	case 0x22: // LD (HL+),A
		c.memory.Write(c.getHL(), c.a)
		c.setHL(c.getHL() + 1)
		return 8
	case 0x23: // INC HL
		c.setHL(c.getHL() + 1)
		return 8
	case 0x24: // INC H
		c.inc(&c.h)
		return 4
	case 0x25: // DEC H
		c.dec(&c.h)
		return 4
	case 0x26: // LD H,n
		c.h = c.readImmediate()
		return 8
	case 0x27: // DAA
		c.daa()
		return 4
	case 0x28: // JR Z,e
		if c.isSetFlag(zeroFlag) {
			c.jr()
			return 12
		}
		c.pc++
		return 8
	case 0x29: // ADD HL,HL
		c.addToHL(c.getHL())
		return 8
	case 0x2A: // LD A,(HL+)
		c.a = c.memory.Read(c.getHL())
		c.setHL(c.getHL() + 1)
		return 8
	case 0x2B: // DEC HL
		c.setHL(c.getHL() - 1)
		return 8
	case 0x2C: // INC L
		c.inc(&c.l)
		return 4
	case 0x2D: // DEC L
		c.dec(&c.l)
		return 4
	case 0x2E: // LD L,n
		c.l = c.readImmediate()
		return 8
	case 0x2F: // CPL
		c.a = ^c.a
		c.setFlag(subFlag)
		c.setFlag(halfCarryFlag)
		return 4
	case 0x30: // JR NC,e
		if !c.isSetFlag(carryFlag) {
			c.jr()
			return 12
		}
		c.pc++
		return 8
	case 0x31: // LD SP,nn
		c.sp = c.readImmediateWord()
		return 12
	case 0x32: // LD (HL-),A
		c.memory.Write(c.getHL(), c.a)
		c.setHL(c.getHL() - 1)
		return 8
	case 0x33: // INC SP
		c.sp++
		return 8
	case 0x34: // INC (HL)
		value := c.memory.Read(c.getHL())
		c.inc(&value)
		c.memory.Write(c.getHL(), value)
		return 12
	case 0x35: // DEC (HL)
		value := c.memory.Read(c.getHL())
		c.dec(&value)
		c.memory.Write(c.getHL(), value)
		return 12
	case 0x36: // LD (HL),n
		c.memory.Write(c.getHL(), c.readImmediate())
		return 12
	case 0x37: // SCF
		c.setFlag(carryFlag)
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		return 4
	case 0x38: // JR C,e
		if c.isSetFlag(carryFlag) {
			c.jr()
			return 12
		}
		c.pc++
		return 8
	case 0x39: // ADD HL,SP
		c.addToHL(c.sp)
		return 8
	case 0x3A: // LD A,(HL-)
		c.a = c.memory.Read(c.getHL())
		c.setHL(c.getHL() - 1)
		return 8
	case 0x3B: // DEC SP
		c.sp--
		return 8
	case 0x3C: // INC A
		c.inc(&c.a)
		return 4
	case 0x3D: // DEC A
		c.dec(&c.a)
		return 4
	case 0x3E: // LD A,n
		c.a = c.readImmediate()
		return 8
	case 0x3F: // CCF
		c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		return 4
	case 0xC0: // RET NZ
		if !c.isSetFlag(zeroFlag) {
			c.ret()
			return 20
		}
		return 8
	case 0xC1: // POP BC
		c.setBC(c.popStack())
		return 12
	case 0xC2: // JP NZ,nn
		return c.jumpIf(!c.isSetFlag(zeroFlag))
	case 0xC3: // JP nn
		c.pc = c.readImmediateWord()
		return 16
	case 0xC4: // CALL NZ,nn
		return c.callIf(!c.isSetFlag(zeroFlag))
	case 0xC5: // PUSH BC
		c.pushStack(c.getBC())
		return 16
	case 0xC6: // ADD A,n
		c.addToA(c.readImmediate(), false)
		return 8
	case 0xC7: // RST 00
		c.rst(0x00)
		return 16
	case 0xC8: // RET Z
		if c.isSetFlag(zeroFlag) {
			c.ret()
			return 20
		}
		return 8
	case 0xC9: // RET
		c.ret()
		return 16
	case 0xCA: // JP Z,nn
		return c.jumpIf(c.isSetFlag(zeroFlag))
	case 0xCB:
		return c.executeCB(c.readImmediate())
	case 0xCC: // CALL Z,nn
		return c.callIf(c.isSetFlag(zeroFlag))
	case 0xCD: // CALL nn
		c.call()
		return 24
	case 0xCE: // ADC A,n
		c.addToA(c.readImmediate(), true)
		return 8
	case 0xCF: // RST 08
		c.rst(0x08)
		return 16
	case 0xD0: // RET NC
		if !c.isSetFlag(carryFlag) {
			c.ret()
			return 20
		}
		return 8
	case 0xD1: // POP DE
		c.setDE(c.popStack())
		return 12
	case 0xD2: // JP NC,nn
		return c.jumpIf(!c.isSetFlag(carryFlag))
	case 0xD4: // CALL NC,nn
		return c.callIf(!c.isSetFlag(carryFlag))
	case 0xD5: // PUSH DE
		c.pushStack(c.getDE())
		return 16
	case 0xD6: // SUB n
		c.subFromA(c.readImmediate(), false, false)
		return 8
	case 0xD7: // RST 10
		c.rst(0x10)
		return 16
	case 0xD8: // RET C
		if c.isSetFlag(carryFlag) {
			c.ret()
			return 20
		}
		return 8
	case 0xD9: // RETI
		c.ret()
		c.ic.Enable()
		return 16
	case 0xDA: // JP C,nn
		return c.jumpIf(c.isSetFlag(carryFlag))
	case 0xDC: // CALL C,nn
		return c.callIf(c.isSetFlag(carryFlag))
	case 0xDE: // SBC A,n
		c.subFromA(c.readImmediate(), true, false)
		return 8
	case 0xDF: // RST 18
		c.rst(0x18)
		return 16
	case 0xE0: // LDH (n),A
		c.memory.Write(0xFF00+uint16(c.readImmediate()), c.a)
		return 12
	case 0xE1: // POP HL
		c.setHL(c.popStack())
		return 12
	case 0xE2: // LD (C),A
		c.memory.Write(0xFF00+uint16(c.c), c.a)
		return 8
	case 0xE5: // PUSH HL
		c.pushStack(c.getHL())
		return 16
	case 0xE6: // AND n
		c.and(c.readImmediate())
		return 8
	case 0xE7: // RST 20
		c.rst(0x20)
		return 16
	case 0xE8: // ADD SP,e
		c.sp = c.addSPOffset(c.readImmediate())
		return 16
	case 0xE9: // JP HL
		c.pc = c.getHL()
		return 4
	case 0xEA: // LD (nn),A
		c.memory.Write(c.readImmediateWord(), c.a)
		return 16
	case 0xEE: // XOR n
		c.xor(c.readImmediate())
		return 8
	case 0xEF: // RST 28
		c.rst(0x28)
		return 16
	case 0xF0: // LDH A,(n)
		c.a = c.memory.Read(0xFF00 + uint16(c.readImmediate()))
		return 12
	case 0xF1: // POP AF
		c.setAF(c.popStack())
		return 12
	case 0xF2: // LD A,(C)
		c.a = c.memory.Read(0xFF00 + uint16(c.c))
		return 8
	case 0xF3: // DI
		c.ic.Disable()
		return 4
	case 0xF5: // PUSH AF
		c.pushStack(c.getAF())
		return 16
	case 0xF6: // OR n
		c.or(c.readImmediate())
		return 8
	case 0xF7: // RST 30
		c.rst(0x30)
		return 16
	case 0xF8: // LD HL,SP+e
		c.setHL(c.addSPOffset(c.readImmediate()))
		return 12
	case 0xF9: // LD SP,HL
		c.sp = c.getHL()
		return 8
	case 0xFA: // LD A,(nn)
		c.a = c.memory.Read(c.readImmediateWord())
		return 16
	case 0xFB: // EI
		c.ic.ScheduleEnable()
		return 4
	case 0xFE: // CP n
		c.subFromA(c.readImmediate(), false, true)
		return 8
	case 0xFF: // RST 38
		c.rst(0x38)
		return 16
	default:
		// 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC,
		// 0xFD: no instruction decodes; the core locks up like hardware.
		c.locked = true
		return 4
	}
}

func (c *CPU) jumpIf(condition bool) int {
	if condition {
		c.pc = c.readImmediateWord()
		return 16
	}
	c.pc += 2
	return 12
}

func (c *CPU) callIf(condition bool) int {
	if condition {
		c.call()
		return 24
	}
	c.pc += 2
	return 12
}
