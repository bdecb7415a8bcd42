package cart

import (
	"fmt"

	"github.com/marcval/go-chroma/chroma/bit"
)

// MBC2 carries 512x4 bits of RAM on the controller itself. A single
// register range 0x0000-0x3FFF serves double duty: bit 8 of the write
// address selects between RAM enable (clear) and ROM bank select (set).
type MBC2 struct {
	rom        []byte
	ram        [512]byte
	romBank    uint32
	ramEnabled bool
}

func NewMBC2(rom []byte) *MBC2 {
	return &MBC2{
		rom:     rom,
		romBank: 1,
	}
}

func (m *MBC2) Read(address uint16) byte {
	switch {
	case address <= 0x3FFF:
		return m.rom[uint32(address)%uint32(len(m.rom))]
	case address <= 0x7FFF:
		offset := (uint32(address&0x3FFF) | m.romBank<<14) % uint32(len(m.rom))
		return m.rom[offset]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		// Only 512 half-bytes exist; the region echoes every 512 bytes
		// and the upper nibble is open bus.
		return m.ram[address&0x1FF] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(address uint16, value byte) {
	switch {
	case address <= 0x3FFF:
		if bit.IsSet16(8, address) {
			m.romBank = uint32(value & 0x0F)
			if m.romBank == 0 {
				m.romBank = 1
			}
		} else {
			m.ramEnabled = value&0x0F == 0x0A
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled {
			m.ram[address&0x1FF] = value & 0x0F
		}
	}
}

func (m *MBC2) SnapshotRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram[:])
	return out
}

func (m *MBC2) RestoreRAM(data []byte) error {
	if len(data) != len(m.ram) {
		return fmt.Errorf("%w: got %d bytes of RAM, want %d", ErrSnapshotMismatch, len(data), len(m.ram))
	}
	copy(m.ram[:], data)
	return nil
}
