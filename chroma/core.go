// Package chroma implements the core of a Game Boy Color: an LR35902 CPU,
// interrupt controller, timer, LCD controller, four-channel APU, the three
// DMA engines, banked memories and the MBC cartridge mappers, all advanced
// in lockstep by a shared machine clock. Host concerns (pixels, sound,
// buttons) hang off small interfaces; see the backend package.
package chroma

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/marcval/go-chroma/chroma/addr"
	"github.com/marcval/go-chroma/chroma/audio"
	"github.com/marcval/go-chroma/chroma/cart"
	"github.com/marcval/go-chroma/chroma/cpu"
	"github.com/marcval/go-chroma/chroma/interrupt"
	"github.com/marcval/go-chroma/chroma/memory"
	"github.com/marcval/go-chroma/chroma/video"
)

const dotsPerFrame = 70224

// Options configures a core instance. Zero values give a headless machine
// rendering into an internal framebuffer with audio discarded.
type Options struct {
	Renderer    video.Renderer
	AudioDriver audio.Driver
	BootROM     []byte
}

// CGB owns every hardware unit and drives them from a single loop. One
// Step executes one CPU instruction (or interrupt dispatch) and advances
// the timer, DMA engines, PPU and APU by the elapsed machine cycles.
type CGB struct {
	cpu *cpu.CPU
	ppu *video.PPU
	mmu *memory.MMU
	ic  *interrupt.Controller
	apu *audio.APU
	dma *memory.DMA

	framebuffer *video.FrameBuffer // set when no external renderer was given

	dotRemainder     int
	instructionCount uint64
	frameCount       uint64
}

// New builds a machine around the given ROM image.
func New(rom []byte, options Options) (*CGB, error) {
	cartridge, err := cart.New(rom)
	if err != nil {
		return nil, err
	}
	header, err := cart.ParseHeader(rom)
	if err != nil {
		return nil, err
	}

	g := &CGB{}
	renderer := options.Renderer
	if renderer == nil {
		g.framebuffer = video.NewFrameBuffer()
		renderer = g.framebuffer
	}

	g.ic = interrupt.New()
	g.apu = audio.New(options.AudioDriver)
	g.mmu = memory.New(cartridge, g.ic, g.apu)
	g.ppu = video.New(g.mmu.VRAM(), g.mmu.OAM(), g.mmu.CRAM(), g.ic, renderer)
	g.ppu.SetCGBMode(header.CGBCompatible())
	g.mmu.SetPPU(g.ppu)
	g.cpu = cpu.New(g.mmu, g.ic)
	g.dma = memory.NewDMA(g.mmu.RawView(), g.cpu, g.hblankDMAWindow)
	g.mmu.SetDMA(g.dma)

	if len(options.BootROM) > 0 {
		g.mmu.SetBootROM(options.BootROM)
	} else {
		g.bootHandoff()
	}

	return g, nil
}

// NewWithFile loads a ROM from disk.
func NewWithFile(path string, options Options) (*CGB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}
	slog.Debug("Loaded ROM data", "path", path, "size", len(data))
	return New(data, options)
}

// hblankDMAWindow gates the HBlank VRAM DMA: it only advances while the
// PPU really is in HBlank, never while the LCD is off.
func (g *CGB) hblankDMAWindow() bool {
	return g.ppu.LCDEnabled() && g.ppu.Mode() == video.ModeHBlank
}

// bootHandoff reproduces the register state the boot ROM leaves behind,
// for running without a boot ROM image.
func (g *CGB) bootHandoff() {
	g.cpu.ResetToBootHandoff()
	g.mmu.Write(addr.NR52, 0x80)
	g.mmu.Write(addr.NR50, 0x77)
	g.mmu.Write(addr.NR51, 0xF3)
	g.mmu.Write(addr.LCDC, 0x91)
	g.mmu.Write(addr.BGP, 0xFC)
	g.mmu.Write(addr.OBP0, 0xFF)
	g.mmu.Write(addr.OBP1, 0xFF)
}

// Step runs one instruction boundary and distributes the elapsed cycles.
// It returns the consumed T-cycles (at the CPU clock).
func (g *CGB) Step() int {
	cycles := g.cpu.Exec()
	g.mmu.Tick(cycles)

	dots := cycles
	if g.mmu.DoubleSpeed() {
		// The PPU keeps counting real dots while the CPU clock doubles.
		dots = cycles / 2
	}
	g.ppu.Tick(dots)
	g.apu.Tick(g.mmu.Divider(), g.mmu.DoubleSpeed())

	g.instructionCount++
	g.dotRemainder += dots
	return cycles
}

// RunUntilFrame executes until one full frame of dots has elapsed.
func (g *CGB) RunUntilFrame() {
	for g.dotRemainder < dotsPerFrame {
		g.Step()
	}
	g.dotRemainder -= dotsPerFrame
	g.frameCount++
}

// Frame returns the internal framebuffer, or nil when an external
// renderer was supplied.
func (g *CGB) Frame() *video.FrameBuffer {
	return g.framebuffer
}

// Press pushes a button down.
func (g *CGB) Press(key memory.JoypadKey) {
	g.mmu.Joypad().Press(key)
}

// Release lets a button go.
func (g *CGB) Release(key memory.JoypadKey) {
	g.mmu.Joypad().Release(key)
}

// InstructionCount reports executed instruction boundaries.
func (g *CGB) InstructionCount() uint64 { return g.instructionCount }

// FrameCount reports completed frames.
func (g *CGB) FrameCount() uint64 { return g.frameCount }

// MMU exposes the bus for debugging front ends.
func (g *CGB) MMU() *memory.MMU { return g.mmu }

// SnapshotRAM returns the battery-backed cartridge RAM, or nil when the
// mapper has none.
func (g *CGB) SnapshotRAM() []byte {
	if battery, ok := g.mmu.Cart().(cart.BatteryBacked); ok {
		return battery.SnapshotRAM()
	}
	return nil
}

// RestoreRAM reinstates battery-backed RAM.
func (g *CGB) RestoreRAM(data []byte) error {
	battery, ok := g.mmu.Cart().(cart.BatteryBacked)
	if !ok {
		return fmt.Errorf("%w: cartridge has no battery RAM", cart.ErrSnapshotMismatch)
	}
	return battery.RestoreRAM(data)
}

// SnapshotRTC captures the MBC3 clock, if present.
func (g *CGB) SnapshotRTC(now time.Time) (cart.RTCSnapshot, bool) {
	if mbc, ok := g.mmu.Cart().(*cart.MBC3); ok {
		return mbc.SnapshotRTC(now), true
	}
	return cart.RTCSnapshot{}, false
}

// RestoreRTC reinstates an MBC3 clock snapshot, crediting elapsed wall time.
func (g *CGB) RestoreRTC(snap cart.RTCSnapshot, now time.Time) error {
	mbc, ok := g.mmu.Cart().(*cart.MBC3)
	if !ok {
		return fmt.Errorf("%w: cartridge has no RTC", cart.ErrSnapshotMismatch)
	}
	return mbc.RestoreRTC(snap, now)
}

// SetSerialWriter attaches a sink for serial port output; test ROMs print
// their results through it.
func (g *CGB) SetSerialWriter(w io.Writer) {
	g.mmu.SetSerialWriter(w)
}
