package cart

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrLoad indicates a malformed ROM image or an unsupported mapper. It is
// surfaced to the caller before emulation starts; nothing emulated ever
// sees it.
var ErrLoad = errors.New("cartridge load error")

// ErrSnapshotMismatch indicates a RAM or RTC restore of the wrong shape.
var ErrSnapshotMismatch = errors.New("snapshot size mismatch")

// Cartridge is the contract the memory bus needs from a mapper: reads and
// writes covering 0x0000-0x7FFF (ROM + control registers) and
// 0xA000-0xBFFF (external RAM / RTC).
type Cartridge interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// BatteryBacked is implemented by mappers whose external RAM survives
// power-off. SnapshotRAM returns a copy; RestoreRAM fails fast when the
// size does not match the mapper's RAM.
type BatteryBacked interface {
	SnapshotRAM() []byte
	RestoreRAM(data []byte) error
}

// New picks a mapper implementation based on the ROM header.
func New(rom []byte) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	if !HeaderChecksumOK(rom) {
		slog.Warn("Cartridge header checksum mismatch", "title", h.Title)
	}

	slog.Debug("Loading cartridge",
		"title", h.Title,
		"type", fmt.Sprintf("0x%02X", h.CartType),
		"rom", h.ROMSizeBytes,
		"ram", h.RAMSizeBytes,
		"cgb", h.CGBCompatible())

	switch h.CartType {
	case 0x00, 0x08, 0x09:
		return NewROMOnly(rom), nil
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes), nil
	case 0x05, 0x06:
		return NewMBC2(rom), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return NewMBC3(rom, h.RAMSizeBytes, h.HasRTC()), nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return NewMBC5(rom, h.RAMSizeBytes), nil
	default:
		return nil, fmt.Errorf("%w: unsupported cartridge type 0x%02X", ErrLoad, h.CartType)
	}
}

// ROMOnly maps the ROM image directly with no banking and no external RAM.
type ROMOnly struct {
	rom []byte
}

func NewROMOnly(rom []byte) *ROMOnly {
	return &ROMOnly{rom: rom}
}

func (r *ROMOnly) Read(address uint16) byte {
	if int(address) < len(r.rom) {
		return r.rom[address]
	}
	return 0xFF
}

func (r *ROMOnly) Write(address uint16, value byte) {}
