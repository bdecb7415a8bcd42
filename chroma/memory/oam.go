package memory

import "github.com/marcval/go-chroma/chroma/addr"

// ObjectAttributes is byte 3 of an OAM entry.
type ObjectAttributes byte

// BehindBackground reports whether non-zero background pixels cover the object.
func (a ObjectAttributes) BehindBackground() bool { return a&0x80 != 0 }

// FlipVertical reports whether the object rows are mirrored.
func (a ObjectAttributes) FlipVertical() bool { return a&0x40 != 0 }

// FlipHorizontal reports whether the object pixels are mirrored.
func (a ObjectAttributes) FlipHorizontal() bool { return a&0x20 != 0 }

// DMGPalette selects OBP0 or OBP1 in DMG mode.
func (a ObjectAttributes) DMGPalette() int {
	if a&0x10 != 0 {
		return 1
	}
	return 0
}

// Bank returns the VRAM bank holding the tile data (CGB).
func (a ObjectAttributes) Bank() int {
	if a&0x08 != 0 {
		return 1
	}
	return 0
}

// CGBPalette returns the CGB object palette index (0-7).
func (a ObjectAttributes) CGBPalette() int { return int(a & 0x07) }

// Object is one decoded OAM entry. LCDY/LCDX carry the raw hardware
// offsets (+16/+8).
type Object struct {
	Index      int
	LCDY       byte
	LCDX       byte
	TileIndex  byte
	Attributes ObjectAttributes
}

// OAM is the 160-byte object attribute table for 40 objects.
type OAM struct {
	bytes [160]byte
}

func NewOAM() *OAM {
	return &OAM{}
}

func (o *OAM) Read(address uint16) byte {
	return o.bytes[address-addr.OAMStart]
}

func (o *OAM) Write(address uint16, value byte) {
	o.bytes[address-addr.OAMStart] = value
}

// Object decodes the entry at the given index (0-39).
func (o *OAM) Object(index int) Object {
	offset := 4 * index
	return Object{
		Index:      index,
		LCDY:       o.bytes[offset],
		LCDX:       o.bytes[offset+1],
		TileIndex:  o.bytes[offset+2],
		Attributes: ObjectAttributes(o.bytes[offset+3]),
	}
}

// IntersectsLine reports whether the object at index covers the given
// scanline for the current object height.
func (o *OAM) IntersectsLine(index int, line int, tall bool) bool {
	y := int(o.bytes[4*index]) - 16
	height := 8
	if tall {
		height = 16
	}
	return y <= line && line < y+height
}
