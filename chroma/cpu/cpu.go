package cpu

import (
	"github.com/marcval/go-chroma/chroma/interrupt"
)

// Flag is one of the 4 flags in the F register.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// Bus is the CPU's view of memory.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// SpeedSwitcher is implemented by a bus that supports the CGB KEY1
// double-speed switch; STOP consults it.
type SpeedSwitcher interface {
	SpeedSwitchArmed() bool
	PerformSpeedSwitch()
}

// CPU is the LR35902 core. Exec runs one instruction (or services one
// interrupt) and returns the elapsed T-cycles; the emulator distributes
// those cycles to the other units.
type CPU struct {
	memory Bus
	ic     *interrupt.Controller

	a, b, c, d, e, h, l, f byte
	sp, pc                 uint16

	halted  bool
	stopped bool
	locked  bool // an illegal opcode freezes the core until reset
	haltBug bool // next fetch does not advance PC
	enabled bool // cleared while a VRAM DMA owns the bus

	currentOpcode byte
}

func New(memory Bus, ic *interrupt.Controller) *CPU {
	return &CPU{
		memory:  memory,
		ic:      ic,
		enabled: true,
	}
}

// ResetToBootHandoff puts the registers in the state the CGB boot ROM
// leaves them in, for running without a boot ROM image.
func (c *CPU) ResetToBootHandoff() {
	c.a, c.f = 0x11, 0x80
	c.b, c.c = 0x00, 0x00
	c.d, c.e = 0xFF, 0x56
	c.h, c.l = 0x00, 0x0D
	c.sp = 0xFFFE
	c.pc = 0x0100
}

// Disable pauses instruction execution; the DMA controller holds the CPU
// while a general-purpose or HBlank transfer moves bytes.
func (c *CPU) Disable() { c.enabled = false }

// Enable resumes instruction execution.
func (c *CPU) Enable() { c.enabled = true }

// Enabled reports whether the core is currently allowed to execute.
func (c *CPU) Enabled() bool { return c.enabled }

// Halted reports whether the core is sleeping in HALT.
func (c *CPU) Halted() bool { return c.halted }

// PC returns the program counter, for tracing.
func (c *CPU) PC() uint16 { return c.pc }

// Exec advances the CPU by one instruction boundary and returns the
// T-cycles consumed. While disabled (VRAM DMA) or locked (illegal opcode)
// it just burns a machine cycle.
func (c *CPU) Exec() int {
	if !c.enabled || c.locked {
		return 4
	}

	if c.stopped {
		if _, ok := c.ic.Pending(); !ok {
			return 4
		}
		c.stopped = false
	}

	if c.halted {
		if _, ok := c.ic.Pending(); !ok {
			return 4
		}
		c.halted = false
	}

	// The interrupt check sits at the instruction boundary: dispatch uses
	// the IME state established by the previous instruction.
	if kind, ok := c.ic.Consume(); ok {
		c.serviceInterrupt(kind)
		return 20
	}

	// An EI from the previous instruction becomes visible only after the
	// instruction we are about to execute.
	c.ic.CommitEnable()

	c.currentOpcode = c.fetch()
	return c.execute(c.currentOpcode)
}

// serviceInterrupt runs the 5 m-cycle dispatch sequence: two idle cycles,
// push PC, jump to the vector. Consume already cleared IME and the IF bit.
func (c *CPU) serviceInterrupt(kind interrupt.Kind) {
	c.pushStack(c.pc)
	c.pc = kind.Vector()
}

func (c *CPU) fetch() byte {
	opcode := c.memory.Read(c.pc)
	if c.haltBug {
		// The HALT bug: PC fails to advance once, so the byte after HALT
		// executes twice.
		c.haltBug = false
		return opcode
	}
	c.pc++
	return opcode
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= byte(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= byte(flag)
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&byte(flag) != 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) flagToBit(flag Flag) byte {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) getAF() uint16 { return uint16(c.a)<<8 | uint16(c.f&0xF0) }
func (c *CPU) getBC() uint16 { return uint16(c.b)<<8 | uint16(c.c) }
func (c *CPU) getDE() uint16 { return uint16(c.d)<<8 | uint16(c.e) }
func (c *CPU) getHL() uint16 { return uint16(c.h)<<8 | uint16(c.l) }

func (c *CPU) setAF(value uint16) {
	c.a = byte(value >> 8)
	// The low nibble of F does not exist in hardware.
	c.f = byte(value) & 0xF0
}

func (c *CPU) setBC(value uint16) {
	c.b = byte(value >> 8)
	c.c = byte(value)
}

func (c *CPU) setDE(value uint16) {
	c.d = byte(value >> 8)
	c.e = byte(value)
}

func (c *CPU) setHL(value uint16) {
	c.h = byte(value >> 8)
	c.l = byte(value)
}
