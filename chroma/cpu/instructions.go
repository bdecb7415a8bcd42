package cpu

import "github.com/marcval/go-chroma/chroma/bit"

// readImmediate fetches the byte at PC and advances it.
func (c *CPU) readImmediate() byte {
	value := c.memory.Read(c.pc)
	c.pc++
	return value
}

// readImmediateWord fetches a little-endian word at PC.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.memory.Write(c.sp, bit.High(value))
	c.sp--
	c.memory.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.memory.Read(c.sp)
	c.sp++
	high := c.memory.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

func (c *CPU) inc(r *byte) {
	*r++
	value := *r
	c.setFlagToCondition(zeroFlag, value == 0)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0)
	c.resetFlag(subFlag)
}

func (c *CPU) dec(r *byte) {
	c.setFlagToCondition(halfCarryFlag, *r&0x0F == 0)
	*r--
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlag(subFlag)
}

// addToA adds value (plus the carry flag for ADC) into A.
func (c *CPU) addToA(value byte, withCarry bool) {
	carry := byte(0)
	if withCarry && c.isSetFlag(carryFlag) {
		carry = 1
	}
	a := c.a
	result := uint16(a) + uint16(value) + uint16(carry)
	c.a = byte(result)

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0x0F+value&0x0F+carry > 0x0F)
	c.setFlagToCondition(carryFlag, result > 0xFF)
}

// subFromA subtracts value (plus carry for SBC) from A. CP uses the same
// path with discard set.
func (c *CPU) subFromA(value byte, withCarry, discard bool) {
	carry := int(0)
	if withCarry && c.isSetFlag(carryFlag) {
		carry = 1
	}
	a := c.a
	result := int(a) - int(value) - carry

	c.setFlagToCondition(zeroFlag, byte(result) == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, int(a&0x0F)-int(value&0x0F)-carry < 0)
	c.setFlagToCondition(carryFlag, result < 0)

	if !discard {
		c.a = byte(result)
	}
}

func (c *CPU) and(value byte) {
	c.a &= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) or(value byte) {
	c.a |= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

func (c *CPU) xor(value byte) {
	c.a ^= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

// addToHL implements ADD HL,rr: Z is preserved, H/C come from bits 11/15.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	result := uint32(hl) + uint32(value)

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, hl&0x0FFF+value&0x0FFF > 0x0FFF)
	c.setFlagToCondition(carryFlag, result > 0xFFFF)
	c.setHL(uint16(result))
}

// addSPOffset computes SP plus a signed immediate, with H and C taken from
// the unsigned addition of the low bytes. ADD SP,e and LD HL,SP+e share it.
func (c *CPU) addSPOffset(offset byte) uint16 {
	sp := c.sp
	result := sp + uint16(int8(offset))

	c.f = 0
	c.setFlagToCondition(halfCarryFlag, sp&0x0F+uint16(offset)&0x0F > 0x0F)
	c.setFlagToCondition(carryFlag, sp&0xFF+uint16(offset)&0xFF > 0xFF)
	return result
}

// rotateLeftCircular rotates left through itself; bit 7 lands in carry.
func (c *CPU) rotateLeftCircular(value byte) byte {
	result := value<<1 | value>>7
	c.f = 0
	c.setFlagToCondition(carryFlag, value > 0x7F)
	c.setFlagToCondition(zeroFlag, result == 0)
	return result
}

// rotateLeft rotates left through the carry flag.
func (c *CPU) rotateLeft(value byte) byte {
	result := value<<1 | c.flagToBit(carryFlag)
	c.f = 0
	c.setFlagToCondition(carryFlag, value > 0x7F)
	c.setFlagToCondition(zeroFlag, result == 0)
	return result
}

// rotateRightCircular rotates right through itself; bit 0 lands in carry.
func (c *CPU) rotateRightCircular(value byte) byte {
	result := value>>1 | value<<7
	c.f = 0
	c.setFlagToCondition(carryFlag, value&1 == 1)
	c.setFlagToCondition(zeroFlag, result == 0)
	return result
}

// rotateRight rotates right through the carry flag.
func (c *CPU) rotateRight(value byte) byte {
	result := value>>1 | c.flagToBit(carryFlag)<<7
	c.f = 0
	c.setFlagToCondition(carryFlag, value&1 == 1)
	c.setFlagToCondition(zeroFlag, result == 0)
	return result
}

func (c *CPU) shiftLeftArithmetic(value byte) byte {
	result := value << 1
	c.f = 0
	c.setFlagToCondition(carryFlag, value > 0x7F)
	c.setFlagToCondition(zeroFlag, result == 0)
	return result
}

func (c *CPU) shiftRightArithmetic(value byte) byte {
	result := value>>1 | value&0x80
	c.f = 0
	c.setFlagToCondition(carryFlag, value&1 == 1)
	c.setFlagToCondition(zeroFlag, result == 0)
	return result
}

func (c *CPU) shiftRightLogical(value byte) byte {
	result := value >> 1
	c.f = 0
	c.setFlagToCondition(carryFlag, value&1 == 1)
	c.setFlagToCondition(zeroFlag, result == 0)
	return result
}

func (c *CPU) swapNibbles(value byte) byte {
	result := value<<4 | value>>4
	c.f = 0
	c.setFlagToCondition(zeroFlag, result == 0)
	return result
}

// testBit implements BIT n,r: Z reflects the complement of the bit, carry
// is preserved.
func (c *CPU) testBit(index uint8, value byte) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// daa decimal-adjusts A after BCD arithmetic.
func (c *CPU) daa() {
	a := uint16(c.a)
	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			a = (a - 0x06) & 0xFF
		}
		if c.isSetFlag(carryFlag) {
			a = (a - 0x60) & 0xFF
		}
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			a += 0x06
		}
		if c.isSetFlag(carryFlag) || a > 0x9F {
			a += 0x60
		}
	}

	c.a = byte(a)
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(halfCarryFlag)
	if a&0x100 == 0x100 {
		c.setFlag(carryFlag)
	}
}

// jr adds the signed immediate to PC.
func (c *CPU) jr() {
	offset := int8(c.readImmediate())
	c.pc += uint16(offset)
}

// call pushes the return address and jumps to the immediate word.
func (c *CPU) call() {
	target := c.readImmediateWord()
	c.pushStack(c.pc)
	c.pc = target
}

func (c *CPU) ret() {
	c.pc = c.popStack()
}

func (c *CPU) rst(vector uint16) {
	c.pushStack(c.pc)
	c.pc = vector
}
