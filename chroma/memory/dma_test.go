package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marcval/go-chroma/chroma/addr"
)

// flatBus is a 64KB byte array standing in for the raw memory view.
type flatBus [0x10000]byte

func (b *flatBus) Read(address uint16) byte         { return b[address] }
func (b *flatBus) Write(address uint16, value byte) { b[address] = value }

type stubCPU struct {
	enabled bool
}

func (c *stubCPU) Disable() { c.enabled = false }
func (c *stubCPU) Enable()  { c.enabled = true }

func newTestDMA(inHBlank func() bool) (*DMA, *flatBus, *stubCPU) {
	bus := &flatBus{}
	for i := 0; i < 0x200; i++ {
		bus[0xC000+i] = byte(i)
	}
	cpu := &stubCPU{enabled: true}
	return NewDMA(bus, cpu, inHBlank), bus, cpu
}

func TestLegacyOAMDMA(t *testing.T) {
	dma, bus, cpu := newTestDMA(nil)
	dma.Write(addr.DMA, 0xC0)
	assert.True(t, dma.OAMActive())

	for i := 0; i < 160; i++ {
		assert.Equal(t, byte(0x00), bus[0xFE00+i])
		dma.Tick(false)
		assert.Equal(t, byte(i), bus[0xFE00+i])
	}
	assert.False(t, dma.OAMActive(), "transfer completes after 160 m-cycles")
	assert.True(t, cpu.enabled, "legacy DMA never halts the CPU")

	dma.Tick(false)
	assert.Equal(t, byte(0x00), bus[0xFEA0], "no byte written past OAM")
}

func TestGeneralPurposeDMA(t *testing.T) {
	dma, bus, cpu := newTestDMA(nil)
	dma.Write(addr.HDMA1, 0xC0)
	dma.Write(addr.HDMA2, 0x05) // low nibble masked away
	dma.Write(addr.HDMA3, 0x01) // masked with 0x1F, ORed with 0x80 -> 0x81
	dma.Write(addr.HDMA4, 0x23) // low nibble masked -> 0x20
	dma.Write(addr.HDMA5, 0x06) // 7 lines = 112 bytes

	for i := 0; i < 112; i++ {
		dma.Tick(false)
		if i < 111 {
			assert.False(t, cpu.enabled, "CPU halted during the transfer")
		}
		assert.Equal(t, byte(i), bus[0x8120+i])
	}
	assert.True(t, cpu.enabled, "CPU released on completion")
	assert.Equal(t, byte(0xFF), dma.Read(addr.HDMA5))
}

func TestGeneralPurposeDMADoubleSpeedHalvesRate(t *testing.T) {
	dma, bus, _ := newTestDMA(nil)
	dma.Write(addr.HDMA1, 0xC0)
	dma.Write(addr.HDMA2, 0x00)
	dma.Write(addr.HDMA3, 0x00)
	dma.Write(addr.HDMA4, 0x00)
	dma.Write(addr.HDMA5, 0x00) // 1 line = 16 bytes

	for i := 0; i < 16; i++ {
		dma.Tick(true)
	}
	assert.Equal(t, byte(7), bus[0x8007], "eighth byte has moved")
	assert.Equal(t, byte(0), bus[0x8008], "ninth byte has not: half rate in double speed")
}

func TestHBlankDMAOnlyProgressesInHBlank(t *testing.T) {
	inHBlank := false
	dma, bus, cpu := newTestDMA(func() bool { return inHBlank })
	dma.Write(addr.HDMA1, 0xC0)
	dma.Write(addr.HDMA2, 0x00)
	dma.Write(addr.HDMA3, 0x00)
	dma.Write(addr.HDMA4, 0x00)
	dma.Write(addr.HDMA5, 0x86) // 7 lines, HBlank mode

	for i := 0; i < 112; i++ {
		inHBlank = false
		dma.Tick(false)
		assert.Equal(t, byte(0x00), bus[0x8000+i], "no transfer outside HBlank")
		assert.True(t, cpu.enabled, "CPU runs outside HBlank")

		inHBlank = true
		dma.Tick(false)
		assert.Equal(t, byte(i), bus[0x8000+i])
	}
	assert.Equal(t, byte(0xFF), dma.Read(addr.HDMA5))
	assert.True(t, cpu.enabled)
}

func TestHBlankDMACancel(t *testing.T) {
	dma, bus, cpu := newTestDMA(func() bool { return true })
	dma.Write(addr.HDMA1, 0xC0)
	dma.Write(addr.HDMA2, 0x00)
	dma.Write(addr.HDMA3, 0x00)
	dma.Write(addr.HDMA4, 0x00)
	dma.Write(addr.HDMA5, 0x86) // 7 lines, HBlank mode

	// Transfer exactly two lines.
	for i := 0; i < 0x20; i++ {
		dma.Tick(false)
	}
	assert.False(t, cpu.enabled)

	dma.Write(addr.HDMA5, 0x00)
	assert.Equal(t, byte(0x84), dma.Read(addr.HDMA5), "remaining lines with the abort bit")
	assert.True(t, cpu.enabled, "CPU re-enabled by the cancel")

	dma.Tick(false)
	assert.Equal(t, byte(0x00), bus[0x8020], "no bytes move after the cancel")
}

func TestHBlankDMAReportsRemainingLines(t *testing.T) {
	dma, _, _ := newTestDMA(func() bool { return true })
	dma.Write(addr.HDMA1, 0xC0)
	dma.Write(addr.HDMA2, 0x00)
	dma.Write(addr.HDMA3, 0x00)
	dma.Write(addr.HDMA4, 0x00)
	dma.Write(addr.HDMA5, 0x86)

	assert.Equal(t, byte(0x06), dma.Read(addr.HDMA5), "before any byte moves")
	for i := 0; i < 16; i++ {
		dma.Tick(false)
	}
	assert.Equal(t, byte(0x05), dma.Read(addr.HDMA5), "after one full line")
}

func TestHDMARegisterMasks(t *testing.T) {
	dma, bus, _ := newTestDMA(nil)
	bus[0xC123&0xFFF0] = 0xAA // the masked source is 0xC120

	dma.Write(addr.HDMA1, 0xC1)
	dma.Write(addr.HDMA2, 0x23)
	dma.Write(addr.HDMA3, 0x61) // -> 0x81 after masking
	dma.Write(addr.HDMA4, 0x45) // -> 0x40
	dma.Write(addr.HDMA5, 0x00)

	dma.Tick(false)
	assert.Equal(t, byte(0xAA), bus[0x8140])
}
