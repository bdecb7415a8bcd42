package memory

import "github.com/marcval/go-chroma/chroma/addr"

const (
	wramBankSize = 0x1000
	wramStart    = 0xC000
	wramBank0End = 0xCFFF
)

// WRAM is the 8-bank CGB work RAM. Bank 0 is fixed at 0xC000-0xCFFF;
// SVBK (0xFF70) selects which of banks 1-7 appears at 0xD000-0xDFFF, with
// a written 0 acting as 1.
type WRAM struct {
	bytes [8 * wramBankSize]byte
	bank  byte
}

func NewWRAM() *WRAM {
	return &WRAM{bank: 1}
}

func (w *WRAM) Read(address uint16) byte {
	if address == addr.SVBK {
		return w.bank | 0xF8
	}
	return w.bytes[w.offset(address)]
}

func (w *WRAM) Write(address uint16, value byte) {
	if address == addr.SVBK {
		w.bank = value & 0x07
		if w.bank == 0 {
			w.bank = 1
		}
		return
	}
	w.bytes[w.offset(address)] = value
}

func (w *WRAM) offset(address uint16) uint32 {
	if address <= wramBank0End {
		return uint32(address - wramStart)
	}
	return uint32(w.bank)*wramBankSize + uint32(address-wramBank0End-1)
}
