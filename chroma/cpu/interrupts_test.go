package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marcval/go-chroma/chroma/addr"
	"github.com/marcval/go-chroma/chroma/interrupt"
)

func TestInterruptDispatch(t *testing.T) {
	cpu, bus, ic := newTestCPU(0x00) // NOP
	ic.Write(addr.IE, 0xFF)
	ic.Enable()
	ic.Request(interrupt.TimerOverflow)

	cycles := cpu.Exec()
	assert.Equal(t, 20, cycles, "dispatch takes 5 m-cycles")
	assert.Equal(t, uint16(0x0050), cpu.pc, "timer vector")
	assert.False(t, ic.Enabled(), "IME cleared by dispatch")
	assert.Equal(t, byte(0x01), bus[0xFFFD], "old PC high pushed")
	assert.Equal(t, byte(0x00), bus[0xFFFC], "old PC low pushed")
	assert.Zero(t, ic.Read(addr.IF)&0x04, "IF bit cleared")
}

func TestInterruptPriority(t *testing.T) {
	cpu, _, ic := newTestCPU(0x00)
	ic.Write(addr.IE, 0xFF)
	ic.Enable()
	ic.Request(interrupt.Button)
	ic.Request(interrupt.VBlank)

	cpu.Exec()
	assert.Equal(t, uint16(0x0040), cpu.pc, "lowest bit wins")
	assert.Equal(t, byte(0x10), ic.Read(addr.IF)&0x1F, "button stays pending")
}

func TestInterruptsRespectIME(t *testing.T) {
	cpu, _, ic := newTestCPU(0x00, 0x00)
	ic.Write(addr.IE, 0xFF)
	ic.Request(interrupt.VBlank)

	cpu.Exec()
	assert.Equal(t, uint16(0x0101), cpu.pc, "no dispatch with IME clear")
}

func TestEITakesEffectAfterNextInstruction(t *testing.T) {
	cpu, _, ic := newTestCPU(0xFB, 0x00, 0x00) // EI; NOP; NOP
	ic.Write(addr.IE, 0xFF)
	ic.Request(interrupt.VBlank)

	cpu.Exec() // EI
	assert.False(t, ic.Enabled())
	cpu.Exec() // NOP; IME becomes visible after this boundary
	cycles := cpu.Exec()
	assert.Equal(t, 20, cycles, "dispatch after the instruction following EI")
	assert.Equal(t, uint16(0x0040), cpu.pc)
}

func TestDIIsImmediate(t *testing.T) {
	cpu, _, ic := newTestCPU(0xF3, 0x00) // DI; NOP
	ic.Enable()
	ic.Write(addr.IE, 0xFF)

	cpu.Exec() // DI
	assert.False(t, ic.Enabled(), "IME cleared without delay")

	ic.Request(interrupt.VBlank)
	cpu.Exec() // NOP: no dispatch at the boundary after DI
	assert.Equal(t, uint16(0x0102), cpu.pc)
}

func TestRETIEnablesInterrupts(t *testing.T) {
	cpu, bus, ic := newTestCPU()
	bus[0xC000] = 0xD9 // RETI
	cpu.pc = 0xC000
	cpu.pushStack(0x1234)

	cpu.Exec()
	assert.Equal(t, uint16(0x1234), cpu.pc)
	assert.True(t, ic.Enabled())
}

func TestHALTWakesOnPendingInterrupt(t *testing.T) {
	cpu, _, ic := newTestCPU(0x76, 0x00) // HALT; NOP
	ic.Write(addr.IE, 0x04)

	cpu.Exec()
	assert.True(t, cpu.Halted())
	assert.Equal(t, 4, cpu.Exec(), "halted core burns cycles")
	assert.True(t, cpu.Halted())

	// A pending interrupt wakes the core even with IME clear; execution
	// continues after HALT without a dispatch.
	ic.Request(interrupt.TimerOverflow)
	cpu.Exec()
	assert.False(t, cpu.Halted())
	assert.Equal(t, uint16(0x0102), cpu.pc, "the NOP after HALT executed")
}

func TestHALTWithIMEDispatchesOnWake(t *testing.T) {
	cpu, _, ic := newTestCPU(0x76) // HALT
	ic.Write(addr.IE, 0x04)
	ic.Enable()

	cpu.Exec()
	assert.True(t, cpu.Halted())

	ic.Request(interrupt.TimerOverflow)
	cycles := cpu.Exec()
	assert.Equal(t, 20, cycles)
	assert.Equal(t, uint16(0x0050), cpu.pc)
}

func TestHALTBug(t *testing.T) {
	// HALT with IME clear and an interrupt already pending: the byte after
	// HALT is read twice. INC A as the next byte increments A twice... by
	// executing once as INC A and once more on the repeated fetch.
	cpu, _, ic := newTestCPU(0x76, 0x3C, 0x3C) // HALT; INC A; INC A
	ic.Write(addr.IE, 0x04)
	ic.Request(interrupt.TimerOverflow)

	cpu.Exec() // HALT: does not halt, arms the bug
	assert.False(t, cpu.Halted())

	cpu.Exec() // INC A fetched without advancing PC
	assert.Equal(t, byte(1), cpu.a)
	assert.Equal(t, uint16(0x0101), cpu.pc, "PC did not advance")

	cpu.Exec() // the same INC A again
	assert.Equal(t, byte(2), cpu.a)
	assert.Equal(t, uint16(0x0102), cpu.pc)
}

func TestDisabledCPUBurnsCycles(t *testing.T) {
	cpu, _, _ := newTestCPU(0x3C) // INC A
	cpu.Disable()
	assert.Equal(t, 4, cpu.Exec())
	assert.Equal(t, byte(0), cpu.a, "nothing executes while disabled")

	cpu.Enable()
	cpu.Exec()
	assert.Equal(t, byte(1), cpu.a)
}

func TestHALTAsNOPWithIMEAndPending(t *testing.T) {
	cpu, bus, ic := newTestCPU(0xFB, 0x76, 0x3C) // EI; HALT; INC A
	ic.Write(addr.IE, 0x04)
	ic.Request(interrupt.TimerOverflow)

	cpu.Exec() // EI
	cpu.Exec() // HALT: IME is committed before it runs, so it does not halt
	assert.False(t, cpu.Halted())
	assert.Equal(t, uint16(0x0102), cpu.pc, "no HALT bug: PC moved past HALT")

	cpu.Exec() // the pending interrupt dispatches
	assert.Equal(t, uint16(0x0050), cpu.pc)
	assert.Equal(t, byte(0x02), bus[0xFFFC], "return address is the byte after HALT")
}
