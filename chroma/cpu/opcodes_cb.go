package cpu

import "github.com/marcval/go-chroma/chroma/bit"

// executeCB runs a CB-prefixed instruction. The prefix table is entirely
// regular: the low 3 bits select the operand, bits 6-7 the operation class
// (rotate/shift, BIT, RES, SET) and bits 3-5 the sub-operation or bit
// index.
func (c *CPU) executeCB(opcode byte) int {
	operand := opcode & 0x07
	index := opcode >> 3 & 0x07

	// BIT only reads its operand; its (HL) form is one m-cycle shorter
	// than the read-modify-write operations.
	if opcode>>6 == 1 {
		value, extra := c.readOperand(operand)
		c.testBit(index, value)
		return 8 + extra
	}

	var value byte
	if operand == 6 {
		value = c.memory.Read(c.getHL())
	} else {
		value = *c.reg(operand)
	}

	switch opcode >> 6 {
	case 0:
		value = c.rotateOrShift(index, value)
	case 2: // RES
		value = bit.Reset(index, value)
	case 3: // SET
		value = bit.Set(index, value)
	}

	if operand == 6 {
		c.memory.Write(c.getHL(), value)
		return 16
	}
	*c.reg(operand) = value
	return 8
}

func (c *CPU) rotateOrShift(operation, value byte) byte {
	switch operation {
	case 0: // RLC
		return c.rotateLeftCircular(value)
	case 1: // RRC
		return c.rotateRightCircular(value)
	case 2: // RL
		return c.rotateLeft(value)
	case 3: // RR
		return c.rotateRight(value)
	case 4: // SLA
		return c.shiftLeftArithmetic(value)
	case 5: // SRA
		return c.shiftRightArithmetic(value)
	case 6: // SWAP
		return c.swapNibbles(value)
	default: // SRL
		return c.shiftRightLogical(value)
	}
}
