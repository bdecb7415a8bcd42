package memory

import (
	"github.com/marcval/go-chroma/chroma/addr"
	"github.com/marcval/go-chroma/chroma/bit"
)

// Bus is the raw memory view the DMA engines copy through. It bypasses the
// CPU-side access restrictions; the hardware DMA units are not subject to
// them.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// CPUControl lets the VRAM DMA engines halt the CPU for the duration of a
// transfer.
type CPUControl interface {
	Disable()
	Enable()
}

type dmaKind int

const (
	dmaNone dmaKind = iota
	dmaLegacy
	dmaGeneralPurpose
	dmaHBlank
)

// DMA implements the three transfer engines: legacy OAM DMA (one byte per
// m-cycle into 0xFE00 while the CPU keeps running), general-purpose VRAM
// DMA (CPU halted until done) and HBlank VRAM DMA (one byte per m-cycle
// for as long as the PPU reports HBlank; the amount moved per HBlank is
// not capped at 16 bytes). The VRAM engines transfer at half rate in
// double-speed mode.
type DMA struct {
	bus      Bus
	cpu      CPUControl
	inHBlank func() bool

	dma      byte // 0xFF46
	srcHigh  byte
	srcLow   byte
	destHigh byte
	destLow  byte
	hdma5    byte

	kind        dmaKind
	source      uint16
	destination uint16
	transferred int
	toTransfer  int
	inProgress  bool

	doubleSpeedToggle bool
}

func NewDMA(bus Bus, cpu CPUControl, inHBlank func() bool) *DMA {
	return &DMA{
		bus:      bus,
		cpu:      cpu,
		inHBlank: inHBlank,
		hdma5:    0xFF,
	}
}

// OAMActive reports whether a legacy OAM DMA is in flight; the bus uses it
// to black out non-HRAM reads.
func (d *DMA) OAMActive() bool {
	return d.kind == dmaLegacy
}

// Tick advances the active transfer by one m-cycle.
func (d *DMA) Tick(doubleSpeed bool) {
	switch d.kind {
	case dmaLegacy:
		d.tickLegacy()
	case dmaGeneralPurpose:
		d.tickGeneralPurpose(doubleSpeed)
	case dmaHBlank:
		d.tickHBlank(doubleSpeed)
	}
}

func (d *DMA) tickLegacy() {
	current := d.bus.Read(d.source + uint16(d.transferred))
	d.bus.Write(addr.OAMStart+uint16(d.transferred), current)
	d.transferred++
	if d.transferred == 160 {
		d.kind = dmaNone
	}
}

// skipForDoubleSpeed halves the transfer rate when the CPU clock is
// doubled; the VRAM side of the machine does not speed up.
func (d *DMA) skipForDoubleSpeed(doubleSpeed bool) bool {
	if !doubleSpeed {
		return false
	}
	d.doubleSpeedToggle = !d.doubleSpeedToggle
	return d.doubleSpeedToggle
}

func (d *DMA) tickGeneralPurpose(doubleSpeed bool) {
	if d.skipForDoubleSpeed(doubleSpeed) {
		return
	}
	if !d.inProgress {
		d.inProgress = true
		d.cpu.Disable()
	}
	d.copyByte()
	if d.transferred == d.toTransfer {
		d.kind = dmaNone
		d.hdma5 = 0xFF
		d.cpu.Enable()
	}
}

func (d *DMA) tickHBlank(doubleSpeed bool) {
	if d.inHBlank != nil && !d.inHBlank() {
		if d.inProgress {
			d.inProgress = false
			d.cpu.Enable()
		}
		return
	}
	if d.skipForDoubleSpeed(doubleSpeed) {
		return
	}
	if !d.inProgress {
		d.inProgress = true
		d.cpu.Disable()
	}
	d.copyByte()
	if d.transferred == d.toTransfer {
		d.kind = dmaNone
		d.hdma5 = 0xFF
		d.cpu.Enable()
		return
	}
	linesRemaining := (d.toTransfer - d.transferred + 15) / 16
	d.hdma5 = byte(linesRemaining - 1)
}

func (d *DMA) copyByte() {
	current := d.bus.Read(d.source + uint16(d.transferred))
	d.bus.Write(d.destination+uint16(d.transferred), current)
	d.transferred++
}

func (d *DMA) Read(address uint16) byte {
	switch address {
	case addr.DMA:
		return d.dma
	case addr.HDMA1, addr.HDMA2, addr.HDMA3, addr.HDMA4:
		// The address registers are write-only.
		return 0xFF
	case addr.HDMA5:
		return d.hdma5
	default:
		return 0xFF
	}
}

func (d *DMA) Write(address uint16, value byte) {
	switch address {
	case addr.DMA:
		d.dma = value
		d.kind = dmaLegacy
		d.source = uint16(value) << 8
		d.transferred = 0
	case addr.HDMA1:
		d.srcHigh = value
	case addr.HDMA2:
		d.srcLow = value & 0xF0
	case addr.HDMA3:
		d.destHigh = value&0x1F | 0x80
	case addr.HDMA4:
		d.destLow = value & 0xF0
	case addr.HDMA5:
		d.writeControl(value)
	}
}

func (d *DMA) writeControl(value byte) {
	if d.kind == dmaHBlank || (d.kind == dmaGeneralPurpose && d.inProgress) {
		// Writing with bit 7 clear cancels an active HBlank transfer and
		// re-enables the CPU. The high bit of HDMA5 marks the abort.
		if d.kind == dmaHBlank && !bit.IsSet(7, value) {
			if d.inProgress {
				d.cpu.Enable()
			}
			d.kind = dmaNone
			d.inProgress = false
			d.hdma5 = bit.Set(7, d.hdma5)
		}
		return
	}

	length := (int(value&0x7F) + 1) * 16
	d.source = bit.Combine(d.srcHigh, d.srcLow)
	d.destination = bit.Combine(d.destHigh, d.destLow)
	d.transferred = 0
	d.toTransfer = length
	d.inProgress = false
	d.doubleSpeedToggle = false
	if bit.IsSet(7, value) {
		d.kind = dmaHBlank
		d.hdma5 = value & 0x7F
	} else {
		d.kind = dmaGeneralPurpose
		d.hdma5 = 0x00
	}
}
