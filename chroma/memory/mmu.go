package memory

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/marcval/go-chroma/chroma/addr"
	"github.com/marcval/go-chroma/chroma/audio"
	"github.com/marcval/go-chroma/chroma/cart"
	"github.com/marcval/go-chroma/chroma/interrupt"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// Region names a memory area whose CPU access the PPU can block while it
// owns the bus to that area.
type Region int

const (
	RegionVRAM Region = iota
	RegionOAM
)

// PPU is the slice of the LCD controller the bus needs: register access
// and the mode-dependent OAM/VRAM blocking query.
type PPU interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	AccessBlocked(region Region) bool
}

// MMU is the single point of address decoding. Every CPU access routes
// through here; the subsystems own their registers and the MMU dispatches
// to them. Reads of unmapped I/O return 0xFF and writes are dropped, so
// emulated code can never fault the bus.
type MMU struct {
	cart cart.Cartridge
	vram *VRAM
	wram *WRAM
	cram *CRAM
	oam  *OAM
	hram [0x7F]byte

	joypad *Joypad
	timer  Timer
	ic     *interrupt.Controller
	apu    *audio.APU
	dma    *DMA
	ppu    PPU

	regionMap [256]memRegion

	// serial: transfers complete immediately into the sink
	sb byte
	sc byte
	sw io.Writer

	// CGB control registers
	key0 byte
	key1 byte

	bootROM     []byte
	bootEnabled bool
}

// New wires a bus around the given cartridge. The PPU and DMA are attached
// afterwards by the emulator core, which owns the construction order.
func New(c cart.Cartridge, ic *interrupt.Controller, apu *audio.APU) *MMU {
	m := &MMU{
		cart:   c,
		vram:   NewVRAM(),
		wram:   NewWRAM(),
		cram:   NewCRAM(),
		oam:    NewOAM(),
		joypad: NewJoypad(),
		ic:     ic,
		apu:    apu,
	}
	m.timer.TimerInterruptHandler = func() { ic.Request(interrupt.TimerOverflow) }
	m.joypad.ButtonInterruptHandler = func() { ic.Request(interrupt.Button) }
	m.initRegionMap()
	return m
}

func (m *MMU) initRegionMap() {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionIO
}

// SetPPU attaches the LCD controller for register routing and access blocking.
func (m *MMU) SetPPU(ppu PPU) { m.ppu = ppu }

// SetDMA attaches the DMA controller for register routing.
func (m *MMU) SetDMA(dma *DMA) { m.dma = dma }

// SetSerialWriter sets a sink that receives bytes written to the link port.
func (m *MMU) SetSerialWriter(w io.Writer) { m.sw = w }

// SetBootROM maps a boot ROM over 0x0000-0x00FF until unmapped via 0xFF50.
func (m *MMU) SetBootROM(data []byte) {
	m.bootROM = nil
	m.bootEnabled = false
	if len(data) >= 0x100 {
		m.bootROM = data
		m.bootEnabled = true
	}
}

// VRAM exposes video RAM to the PPU.
func (m *MMU) VRAM() *VRAM { return m.vram }

// CRAM exposes palette memory to the PPU.
func (m *MMU) CRAM() *CRAM { return m.cram }

// OAM exposes the object attribute table to the PPU.
func (m *MMU) OAM() *OAM { return m.oam }

// Cart exposes the cartridge for battery persistence.
func (m *MMU) Cart() cart.Cartridge { return m.cart }

// Joypad exposes the button state sink.
func (m *MMU) Joypad() *Joypad { return m.joypad }

// Divider exposes the internal timer counter for the APU's DIV-APU edges.
func (m *MMU) Divider() uint16 { return m.timer.Divider() }

// DoubleSpeed reports whether the CGB double-speed mode is active (KEY1 bit 7).
func (m *MMU) DoubleSpeed() bool { return m.key1&0x80 != 0 }

// SpeedSwitchArmed reports whether a speed switch is requested (KEY1 bit 0).
func (m *MMU) SpeedSwitchArmed() bool { return m.key1&0x01 != 0 }

// PerformSpeedSwitch toggles the speed if armed; the CPU invokes this on STOP.
func (m *MMU) PerformSpeedSwitch() {
	if !m.SpeedSwitchArmed() {
		return
	}
	m.key1 = m.key1&^0x01 ^ 0x80
	slog.Debug("Speed switch performed", "double", m.DoubleSpeed())
}

// Tick advances the bus-owned peripherals by the given CPU T-cycles.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	if ticker, ok := m.cart.(interface{ Tick(int) }); ok {
		wall := cycles
		if m.DoubleSpeed() {
			wall = cycles / 2
		}
		ticker.Tick(wall)
	}
	if m.dma != nil {
		for i := 0; i < cycles/4; i++ {
			m.dma.Tick(m.DoubleSpeed())
		}
	}
}

func (m *MMU) Read(address uint16) byte {
	// During a legacy OAM DMA the CPU only sees HRAM and IE; everything
	// else reads back as 0xFF.
	if m.dma != nil && m.dma.OAMActive() && address < 0xFF80 {
		return 0xFF
	}
	return m.busRead(address)
}

func (m *MMU) busRead(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.bootEnabled && address < 0x0100 {
			return m.bootROM[address]
		}
		return m.cart.Read(address)
	case regionVRAM:
		if m.ppu != nil && m.ppu.AccessBlocked(RegionVRAM) {
			return 0xFF
		}
		return m.vram.Read(address)
	case regionExtRAM:
		return m.cart.Read(address)
	case regionWRAM:
		return m.wram.Read(address)
	case regionEcho:
		return m.wram.Read(address - 0x2000)
	case regionOAM:
		if address > addr.OAMEnd {
			// 0xFEA0-0xFEFF is prohibited; reads come back empty.
			return 0xFF
		}
		if m.ppu != nil && m.ppu.AccessBlocked(RegionOAM) {
			return 0xFF
		}
		return m.oam.Read(address)
	case regionIO:
		return m.readIO(address)
	}
	return 0xFF
}

func (m *MMU) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return m.joypad.Read()
	case address == addr.SB:
		return m.sb
	case address == addr.SC:
		return 0x7E | m.sc&0x81
	case address >= addr.DIV && address <= addr.TAC:
		return m.timer.Read(address)
	case address == addr.IF, address == addr.IE:
		return m.ic.Read(address)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return m.apu.ReadRegister(address)
	case address >= addr.LCDC && address <= addr.WX && address != addr.DMA:
		if m.ppu == nil {
			return 0xFF
		}
		return m.ppu.Read(address)
	case address == addr.DMA, address >= addr.HDMA1 && address <= addr.HDMA5:
		if m.dma == nil {
			return 0xFF
		}
		return m.dma.Read(address)
	case address == addr.KEY0:
		return m.key0
	case address == addr.KEY1:
		return 0x7E | m.key1&0x81
	case address == addr.VBK:
		return m.vram.Read(address)
	case address == addr.BANK:
		return 0xFF
	case address >= addr.BCPS && address <= addr.OCPD:
		return m.cram.Read(address)
	case address == addr.OPRI:
		if m.ppu == nil {
			return 0xFF
		}
		return m.ppu.Read(address)
	case address == addr.SVBK:
		return m.wram.Read(address)
	case address >= 0xFF80 && address <= 0xFFFE:
		return m.hram[address-0xFF80]
	}
	return 0xFF
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		m.cart.Write(address, value)
	case regionVRAM:
		if m.ppu != nil && m.ppu.AccessBlocked(RegionVRAM) {
			return
		}
		m.vram.Write(address, value)
	case regionWRAM:
		m.wram.Write(address, value)
	case regionEcho:
		if address <= 0xFDFF {
			m.wram.Write(address-0x2000, value)
		}
	case regionOAM:
		if address > addr.OAMEnd {
			return
		}
		if m.ppu != nil && m.ppu.AccessBlocked(RegionOAM) {
			return
		}
		if m.dma != nil && m.dma.OAMActive() {
			return
		}
		m.oam.Write(address, value)
	case regionIO:
		m.writeIO(address, value)
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		m.joypad.Write(value)
	case address == addr.SB:
		m.sb = value
	case address == addr.SC:
		m.sc = value & 0x81
		if m.sc&0x80 != 0 {
			// No link cable: the transfer completes immediately against an
			// open line, shifting in 0xFF.
			if m.sw != nil {
				_, _ = m.sw.Write([]byte{m.sb})
			}
			m.sb = 0xFF
			m.sc &^= 0x80
			m.ic.Request(interrupt.SerialIO)
		}
	case address >= addr.DIV && address <= addr.TAC:
		m.timer.Write(address, value)
	case address == addr.IF, address == addr.IE:
		m.ic.Write(address, value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		m.apu.WriteRegister(address, value)
	case address >= addr.LCDC && address <= addr.WX && address != addr.DMA:
		if m.ppu != nil {
			m.ppu.Write(address, value)
		}
	case address == addr.DMA, address >= addr.HDMA1 && address <= addr.HDMA5:
		if m.dma != nil {
			m.dma.Write(address, value)
		}
	case address == addr.KEY0:
		m.key0 = value
	case address == addr.KEY1:
		m.key1 = m.key1&0x80 | value&0x01
	case address == addr.VBK:
		m.vram.Write(address, value)
	case address == addr.BANK:
		if value != 0 && m.bootEnabled {
			m.bootEnabled = false
			slog.Debug("Boot ROM unmapped", "value", fmt.Sprintf("0x%02X", value))
		}
	case address >= addr.BCPS && address <= addr.OCPD:
		m.cram.Write(address, value)
	case address == addr.OPRI:
		if m.ppu != nil {
			m.ppu.Write(address, value)
		}
	case address == addr.SVBK:
		m.wram.Write(address, value)
	case address >= 0xFF80 && address <= 0xFFFE:
		m.hram[address-0xFF80] = value
	}
}

// RawView returns the unrestricted memory view used by the DMA engines.
// It skips the PPU blocking rules and the OAM DMA blackout.
func (m *MMU) RawView() Bus {
	return rawView{m}
}

type rawView struct {
	m *MMU
}

func (r rawView) Read(address uint16) byte {
	switch r.m.regionMap[address>>8] {
	case regionVRAM:
		return r.m.vram.Read(address)
	case regionOAM:
		if address > addr.OAMEnd {
			return 0xFF
		}
		return r.m.oam.Read(address)
	default:
		return r.m.busRead(address)
	}
}

func (r rawView) Write(address uint16, value byte) {
	switch r.m.regionMap[address>>8] {
	case regionVRAM:
		r.m.vram.Write(address, value)
	case regionOAM:
		if address <= addr.OAMEnd {
			r.m.oam.Write(address, value)
		}
	default:
		r.m.Write(address, value)
	}
}
