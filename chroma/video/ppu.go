package video

import (
	"github.com/marcval/go-chroma/chroma/addr"
	"github.com/marcval/go-chroma/chroma/interrupt"
	"github.com/marcval/go-chroma/chroma/memory"
)

// Mode is the PPU rendering stage; the values match STAT bits 1-0.
type Mode int

const (
	ModeHBlank  Mode = 0
	ModeVBlank  Mode = 1
	ModeOAMScan Mode = 2
	ModeDraw    Mode = 3
)

const (
	dotsPerLine   = 456
	linesPerFrame = 154
	dotsPerFrame  = dotsPerLine * linesPerFrame

	oamScanEnd = 80
	drawEnd    = 248
)

// STAT bit positions.
const (
	statLycIrq    = 6
	statOamIrq    = 5
	statVblankIrq = 4
	statHblankIrq = 3
	statLycEqual  = 2
)

// LCDC bit positions.
const (
	lcdcEnable        = 7
	lcdcWindowTileMap = 6
	lcdcWindowEnable  = 5
	lcdcTileData      = 4
	lcdcBGTileMap     = 3
	lcdcObjSize       = 2
	lcdcObjEnable     = 1
	lcdcBGEnable      = 0
)

// PPU is the LCD controller: a dot-clock state machine over 154 lines of
// 456 dots. Lines 0-143 cycle through OAM scan (mode 2, dots 0-79),
// drawing (mode 3, dots 80-247) and HBlank; lines 144-153 are VBlank.
// Rendering happens a full scanline at a time on entry to mode 3.
type PPU struct {
	vram     *memory.VRAM
	oam      *memory.OAM
	cram     *memory.CRAM
	ic       *interrupt.Controller
	renderer Renderer

	dot    int
	line   int
	column int
	mode   Mode

	lcdc byte
	stat byte
	scy  byte
	scx  byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte
	opri byte

	cgbMode bool

	// The STAT interrupt fires on the rising edge of this line, which ORs
	// all enabled sources. A source turning on while the line is already
	// high is swallowed (STAT blocking).
	interruptLine bool

	// Mode 2 progressively collects up to 10 objects intersecting the line.
	currentObjectIndex int
	intersecting       []memory.Object

	lineRendered bool
	windowLine   int

	// Per-line background state consulted by the object layer.
	lineColorIndex [ScreenWidth]byte
	lineBGPriority [ScreenWidth]bool
}

func New(vram *memory.VRAM, oam *memory.OAM, cram *memory.CRAM, ic *interrupt.Controller, renderer Renderer) *PPU {
	return &PPU{
		vram:         vram,
		oam:          oam,
		cram:         cram,
		ic:           ic,
		renderer:     renderer,
		intersecting: make([]memory.Object, 0, 10),
		stat:         0x02,
	}
}

// SetCGBMode switches between CGB rendering (CRAM palettes, tile
// attributes) and DMG compatibility rendering (BGP/OBP onto the grey ramp).
func (p *PPU) SetCGBMode(enabled bool) {
	p.cgbMode = enabled
}

// Mode returns the current rendering stage.
func (p *PPU) Mode() Mode {
	return p.mode
}

// LCDEnabled reports LCDC bit 7.
func (p *PPU) LCDEnabled() bool {
	return p.lcdc&(1<<lcdcEnable) != 0
}

// AccessBlocked implements the bus query for mode-restricted access: OAM
// is unavailable during modes 2 and 3, VRAM during mode 3. A disabled LCD
// blocks nothing.
func (p *PPU) AccessBlocked(region memory.Region) bool {
	if !p.LCDEnabled() {
		return false
	}
	switch region {
	case memory.RegionOAM:
		return p.mode == ModeOAMScan || p.mode == ModeDraw
	case memory.RegionVRAM:
		return p.mode == ModeDraw
	}
	return false
}

// Tick advances the PPU by the given number of dots.
func (p *PPU) Tick(dots int) {
	if !p.LCDEnabled() {
		return
	}
	for i := 0; i < dots; i++ {
		p.step()
	}
}

func (p *PPU) step() {
	p.dot++
	if p.dot == dotsPerFrame {
		p.dot = 0
		p.windowLine = 0
		p.renderer.PresentFrame()
	}
	p.line = p.dot / dotsPerLine
	p.column = p.dot % dotsPerLine

	p.updateMode()
	p.updateSTATLine()

	switch p.mode {
	case ModeOAMScan:
		if p.column == 0 {
			p.currentObjectIndex = 0
			p.intersecting = p.intersecting[:0]
			p.lineRendered = false
		}
		p.scanObjects()
	case ModeDraw:
		if !p.lineRendered {
			p.lineRendered = true
			p.renderScanline()
		}
	case ModeVBlank:
		if p.line == ScreenHeight && p.column == 0 {
			p.ic.Request(interrupt.VBlank)
		}
	}
}

func (p *PPU) updateMode() {
	if p.line >= ScreenHeight {
		p.mode = ModeVBlank
	} else {
		switch {
		case p.column < oamScanEnd:
			p.mode = ModeOAMScan
		case p.column < drawEnd:
			p.mode = ModeDraw
		default:
			p.mode = ModeHBlank
		}
	}
	p.stat = p.stat&^0x03 | byte(p.mode)
	if p.line == int(p.lyc) {
		p.stat |= 1 << statLycEqual
	} else {
		p.stat &^= 1 << statLycEqual
	}
}

func (p *PPU) updateSTATLine() {
	newLine := p.modeInterruptEnabled() ||
		(p.stat&(1<<statLycIrq) != 0 && p.stat&(1<<statLycEqual) != 0)
	if newLine && !p.interruptLine {
		p.ic.Request(interrupt.Stat)
	}
	p.interruptLine = newLine
}

func (p *PPU) modeInterruptEnabled() bool {
	switch p.mode {
	case ModeHBlank:
		return p.stat&(1<<statHblankIrq) != 0
	case ModeVBlank:
		return p.stat&(1<<statVblankIrq) != 0
	case ModeOAMScan:
		return p.stat&(1<<statOamIrq) != 0
	default:
		return false
	}
}

// scanObjects advances the progressive OAM scan: the hardware checks one
// object every two dots and keeps at most 10 per line.
func (p *PPU) scanObjects() {
	tall := p.lcdc&(1<<lcdcObjSize) != 0
	objectIndexForDot := p.column / 2
	for p.currentObjectIndex <= objectIndexForDot &&
		p.currentObjectIndex < 40 &&
		len(p.intersecting) < 10 {
		if p.oam.IntersectsLine(p.currentObjectIndex, p.line, tall) {
			p.intersecting = append(p.intersecting, p.oam.Object(p.currentObjectIndex))
		}
		p.currentObjectIndex++
	}
}

func (p *PPU) renderScanline() {
	p.drawBackgroundLine()
	p.drawWindowLine()
	p.drawObjectLine()
}

func (p *PPU) drawBackgroundLine() {
	if !p.cgbMode && p.lcdc&(1<<lcdcBGEnable) == 0 {
		// A DMG with the background disabled shows blank color 0.
		for x := 0; x < ScreenWidth; x++ {
			p.lineColorIndex[x] = 0
			p.lineBGPriority[x] = false
			p.renderer.DrawPixel(uint8(x), uint8(p.line), p.dmgBackgroundColor(0), 0)
		}
		return
	}

	tileMap := p.bgTileMap()
	y := (p.line + int(p.scy)) & 0xFF
	row := uint16(y / 8)
	tileY := y % 8

	for x := 0; x < ScreenWidth; x++ {
		mapX := (x + int(p.scx)) & 0xFF
		cell := row*32 + uint16(mapX/8)
		colorIndex, color, priority := p.fetchTilePixel(tileMap, cell, tileY, mapX%8)
		p.lineColorIndex[x] = colorIndex
		p.lineBGPriority[x] = priority
		p.renderer.DrawPixel(uint8(x), uint8(p.line), color, 0)
	}
}

func (p *PPU) drawWindowLine() {
	if p.lcdc&(1<<lcdcWindowEnable) == 0 {
		return
	}
	if int(p.wy) > p.line || p.wy >= ScreenHeight || p.wx > 166 {
		return
	}
	if p.windowLine >= ScreenHeight {
		return
	}

	tileMap := p.windowTileMap()
	row := uint16(p.windowLine / 8)
	tileY := p.windowLine % 8
	startX := int(p.wx) - 7

	drew := false
	for x := max(startX, 0); x < ScreenWidth; x++ {
		winX := x - startX
		cell := row*32 + uint16(winX/8)
		colorIndex, color, priority := p.fetchTilePixel(tileMap, cell, tileY, winX%8)
		p.lineColorIndex[x] = colorIndex
		p.lineBGPriority[x] = priority
		p.renderer.DrawPixel(uint8(x), uint8(p.line), color, 0)
		drew = true
	}
	if drew {
		// The window keeps its own line counter: it only advances on lines
		// where the window actually rendered.
		p.windowLine++
	}
}

func (p *PPU) bgTileMap() int {
	if p.lcdc&(1<<lcdcBGTileMap) != 0 {
		return 1
	}
	return 0
}

func (p *PPU) windowTileMap() int {
	if p.lcdc&(1<<lcdcWindowTileMap) != 0 {
		return 1
	}
	return 0
}

// fetchTilePixel resolves one background or window pixel: tile index from
// the map, CGB attributes from bank 1, tile data with flips applied, and
// the palette lookup.
func (p *PPU) fetchTilePixel(tileMap int, cell uint16, tileY, tileX int) (byte, Color, bool) {
	chr := p.vram.TileIndex(tileMap, cell)

	var attrs memory.TileAttributes
	bank := 0
	if p.cgbMode {
		attrs = p.vram.TileAttrs(tileMap, cell)
		bank = attrs.Bank()
		if attrs.FlipVertical() {
			tileY = 7 - tileY
		}
		if attrs.FlipHorizontal() {
			tileX = 7 - tileX
		}
	}

	rowAddress := p.tileRowAddress(chr, tileY)
	low := p.vram.ReadBank(bank, rowAddress)
	high := p.vram.ReadBank(bank, rowAddress+1)

	pixelBit := uint8(7 - tileX)
	colorIndex := (high>>pixelBit&1)<<1 | low>>pixelBit&1

	if p.cgbMode {
		color := Color(p.cram.BackgroundColor(attrs.Palette(), int(colorIndex)))
		return colorIndex, color, attrs.Priority()
	}
	return colorIndex, p.dmgBackgroundColor(colorIndex), false
}

// tileRowAddress applies the LCDC bit 4 addressing mode: unsigned indexes
// off 0x8000, signed offsets off 0x9000.
func (p *PPU) tileRowAddress(chr byte, tileY int) uint16 {
	if p.lcdc&(1<<lcdcTileData) != 0 {
		return addr.TileData0 + uint16(chr)*16 + uint16(tileY)*2
	}
	return uint16(int(addr.TileData2) + int(int8(chr))*16 + tileY*2)
}

func (p *PPU) drawObjectLine() {
	if p.lcdc&(1<<lcdcObjEnable) == 0 {
		return
	}
	tall := p.lcdc&(1<<lcdcObjSize) != 0

	objects := make([]memory.Object, len(p.intersecting))
	copy(objects, p.intersecting)
	if p.opri == 0 {
		// CGB priority by X coordinate, ties broken by OAM order. The sort
		// must be stable for the tie-break to hold.
		for i := 1; i < len(objects); i++ {
			for j := i; j > 0 && objects[j].LCDX < objects[j-1].LCDX; j-- {
				objects[j], objects[j-1] = objects[j-1], objects[j]
			}
		}
	}

	// Highest priority first in the list; draw back to front so earlier
	// objects overwrite later ones.
	for i := len(objects) - 1; i >= 0; i-- {
		p.drawObject(objects[i], tall)
	}
}

func (p *PPU) drawObject(object memory.Object, tall bool) {
	row := p.line - (int(object.LCDY) - 16)
	height := 8
	tileIndex := object.TileIndex
	if tall {
		height = 16
		tileIndex &= 0xFE
	}
	if object.Attributes.FlipVertical() {
		row = height - 1 - row
	}
	if row >= 8 {
		tileIndex++
		row -= 8
	}

	bank := 0
	if p.cgbMode {
		bank = object.Attributes.Bank()
	}
	rowAddress := addr.TileData0 + uint16(tileIndex)*16 + uint16(row)*2
	low := p.vram.ReadBank(bank, rowAddress)
	high := p.vram.ReadBank(bank, rowAddress+1)

	screenX := int(object.LCDX) - 8
	for pixel := 0; pixel < 8; pixel++ {
		x := screenX + pixel
		if x < 0 || x >= ScreenWidth {
			continue
		}

		pixelBit := uint8(7 - pixel)
		if object.Attributes.FlipHorizontal() {
			pixelBit = uint8(pixel)
		}
		colorIndex := (high>>pixelBit&1)<<1 | low>>pixelBit&1
		if colorIndex == 0 {
			// Color 0 is transparent for objects.
			continue
		}
		if p.backgroundWins(object, x) {
			continue
		}

		var color Color
		if p.cgbMode {
			color = Color(p.cram.ObjectColor(object.Attributes.CGBPalette(), int(colorIndex)))
		} else {
			palette := p.obp0
			if object.Attributes.DMGPalette() == 1 {
				palette = p.obp1
			}
			color = dmgShades[palette>>(colorIndex*2)&0x03]
		}
		p.renderer.DrawPixel(uint8(x), uint8(p.line), color, 1)
	}
}

// backgroundWins resolves the background-versus-object priority for one
// pixel. In CGB mode LCDC bit 0 is a master switch that lets objects win
// everywhere when cleared.
func (p *PPU) backgroundWins(object memory.Object, x int) bool {
	if p.lineColorIndex[x] == 0 {
		return false
	}
	if p.cgbMode && p.lcdc&(1<<lcdcBGEnable) == 0 {
		return false
	}
	if p.cgbMode && p.lineBGPriority[x] {
		return true
	}
	return object.Attributes.BehindBackground()
}

func (p *PPU) dmgBackgroundColor(colorIndex byte) Color {
	return dmgShades[p.bgp>>(colorIndex*2)&0x03]
}

func (p *PPU) Read(address uint16) byte {
	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		if !p.LCDEnabled() {
			return 0x80 | p.stat&^0x03
		}
		return 0x80 | p.stat
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return byte(p.line)
	case addr.LYC:
		return p.lyc
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp0
	case addr.OBP1:
		return p.obp1
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	case addr.OPRI:
		return p.opri
	default:
		return 0xFF
	}
}

func (p *PPU) Write(address uint16, value byte) {
	switch address {
	case addr.LCDC:
		wasEnabled := p.LCDEnabled()
		p.lcdc = value
		if wasEnabled && !p.LCDEnabled() {
			p.reset()
		}
	case addr.STAT:
		// Bits 0-2 are read-only hardware status.
		p.stat = p.stat&0x07 | value&0x78
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LYC:
		p.lyc = value
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp0 = value
	case addr.OBP1:
		p.obp1 = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	case addr.OPRI:
		p.opri = value & 0x01
	}
}

// reset is the LCD-disable state: line 0, HBlank, no pixels and no
// interrupts until re-enabled. Re-enabling starts a fresh frame.
func (p *PPU) reset() {
	p.dot = 0
	p.line = 0
	p.column = 0
	p.mode = ModeHBlank
	p.stat = p.stat &^ 0x03
	p.interruptLine = false
	p.windowLine = 0
	p.currentObjectIndex = 0
	p.intersecting = p.intersecting[:0]
	p.lineRendered = false
}
