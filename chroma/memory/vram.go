package memory

import "github.com/marcval/go-chroma/chroma/addr"

const (
	vramBankSize  = 0x2000
	vramStart     = 0x8000
	tileMap0Start = 0x1800
	tileMap1Start = 0x1C00
)

// TileAttributes is the per-tile attribute byte kept in VRAM bank 1 under
// the tile map area (CGB only).
type TileAttributes byte

// Priority reports whether the background tile claims priority over objects.
func (t TileAttributes) Priority() bool { return t&0x80 != 0 }

// FlipVertical reports whether the tile row order is mirrored.
func (t TileAttributes) FlipVertical() bool { return t&0x40 != 0 }

// FlipHorizontal reports whether the tile pixel order is mirrored.
func (t TileAttributes) FlipHorizontal() bool { return t&0x20 != 0 }

// Bank returns the VRAM bank holding the tile data (0 or 1).
func (t TileAttributes) Bank() int {
	if t&0x08 != 0 {
		return 1
	}
	return 0
}

// Palette returns the CGB background palette index (0-7).
func (t TileAttributes) Palette() int { return int(t & 0x07) }

// VRAM is the two-bank CGB video RAM. The CPU sees the bank selected via
// VBK (0xFF4F); the PPU reads both banks directly.
type VRAM struct {
	banks [2][vramBankSize]byte
	bank  byte
}

func NewVRAM() *VRAM {
	return &VRAM{}
}

func (v *VRAM) Read(address uint16) byte {
	if address == addr.VBK {
		// Undocumented bits read as 1.
		return v.bank | 0xFE
	}
	return v.banks[v.bank][address-vramStart]
}

func (v *VRAM) Write(address uint16, value byte) {
	if address == addr.VBK {
		v.bank = value & 0x01
		return
	}
	v.banks[v.bank][address-vramStart] = value
}

// ReadBank reads from an explicit bank, bypassing VBK. The PPU uses this
// for tile data referenced by CGB attributes.
func (v *VRAM) ReadBank(bank int, address uint16) byte {
	return v.banks[bank][address-vramStart]
}

// TileIndex returns the chr code for a tile map cell.
func (v *VRAM) TileIndex(tileMap int, cell uint16) byte {
	return v.banks[0][v.tileMapOffset(tileMap)+cell]
}

// TileAttrs returns the CGB attributes for a tile map cell (bank 1 shadow
// of the tile map).
func (v *VRAM) TileAttrs(tileMap int, cell uint16) TileAttributes {
	return TileAttributes(v.banks[1][v.tileMapOffset(tileMap)+cell])
}

func (v *VRAM) tileMapOffset(tileMap int) uint16 {
	if tileMap == 0 {
		return tileMap0Start
	}
	return tileMap1Start
}
