package cart

import (
	"fmt"
	"time"

	"github.com/marcval/go-chroma/chroma/bit"
)

// cyclesPerSecond is the base machine clock; the RTC counts wall time in
// emulated seconds derived from it.
const cyclesPerSecond = 4194304

// RTCCounters are the five MBC3 clock registers. daysHigh packs bit 8 of
// the day counter (bit 0), the halt flag (bit 6) and the day-carry flag
// (bit 7).
type RTCCounters struct {
	Seconds  uint8
	Minutes  uint8
	Hours    uint8
	DaysLow  uint8
	DaysHigh uint8
}

// Halted reports the state of the halt flag in daysHigh.
func (r RTCCounters) Halted() bool {
	return bit.IsSet(6, r.DaysHigh)
}

func (r RTCCounters) totalSeconds() uint64 {
	days := uint64(r.DaysLow) | uint64(r.DaysHigh&0x01)<<8
	return uint64(r.Seconds) +
		60*uint64(r.Minutes) +
		3600*uint64(r.Hours) +
		86400*days
}

// Advanced returns the counters moved forward by the given number of
// seconds. A halted clock does not move. Once the day counter passes 511
// the carry flag sticks until software clears it.
func (r RTCCounters) Advanced(seconds uint64) RTCCounters {
	if r.Halted() || seconds == 0 {
		return r
	}

	total := r.totalSeconds() + seconds
	days := total / 86400
	total -= days * 86400
	hours := total / 3600
	total -= hours * 3600
	minutes := total / 60
	total -= minutes * 60

	carry := bit.IsSet(7, r.DaysHigh) || days >= 512
	daysHigh := uint8(days>>8) & 0x01
	daysHigh |= r.DaysHigh & 0x40
	if carry {
		daysHigh |= 0x80
	}

	return RTCCounters{
		Seconds:  uint8(total),
		Minutes:  uint8(minutes),
		Hours:    uint8(hours),
		DaysLow:  uint8(days),
		DaysHigh: daysHigh,
	}
}

// RTCSnapshot captures the clock for battery persistence. SavedAt is the
// wall-clock Unix time of the snapshot so a restore can account for time
// that passed while the emulator was off.
type RTCSnapshot struct {
	Counters RTCCounters
	Latched  RTCCounters
	SavedAt  int64
}

// MBC3 supports up to 2MB ROM, 32KB RAM and a real-time clock. Register
// ranges:
//   - 0x0000-0x1FFF: RAM/RTC enable (0x0A)
//   - 0x2000-0x3FFF: 7-bit ROM bank, 0 selects 1
//   - 0x4000-0x5FFF: RAM bank 0x00-0x07 or RTC register 0x08-0x0C
//   - 0x6000-0x7FFF: latch clock data on a 0-to-1 transition
type MBC3 struct {
	rom        []byte
	ram        []byte
	romBank    uint32
	ramBank    uint8
	ramEnabled bool

	hasRTC     bool
	rtc        RTCCounters
	latched    RTCCounters
	latchState bool
	cycleAcc   uint64
}

func NewMBC3(rom []byte, ramSize int, hasRTC bool) *MBC3 {
	return &MBC3{
		rom:     rom,
		ram:     make([]byte, ramSize),
		romBank: 1,
		hasRTC:  hasRTC,
	}
}

func (m *MBC3) Read(address uint16) byte {
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
		switch {
		case m.ramBank <= 0x07:
			if len(m.ram) == 0 {
				return 0xFF
			}
			return m.ram[m.ramOffset(address)]
		case m.hasRTC && m.ramBank <= 0x0C:
			// Reads present the latched shadow registers, not the live clock.
			switch m.ramBank {
			case 0x08:
				return m.latched.Seconds
			case 0x09:
				return m.latched.Minutes
			case 0x0A:
				return m.latched.Hours
			case 0x0B:
				return m.latched.DaysLow
			case 0x0C:
				return m.latched.DaysHigh
			}
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(address uint16, value byte) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		m.romBank = uint32(value & 0x7F)
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address <= 0x5FFF:
		if value <= 0x0C {
			m.ramBank = value & 0x0F
		}
	case address <= 0x7FFF:
		newState := value&0x01 == 0x01
		if newState && !m.latchState {
			m.latched = m.rtc
		}
		m.latchState = newState
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		switch {
		case m.ramBank <= 0x07:
			if len(m.ram) > 0 {
				m.ram[m.ramOffset(address)] = value
			}
		case m.hasRTC && m.ramBank <= 0x0C:
			// Writes land on both the live clock and the shadow registers.
			switch m.ramBank {
			case 0x08:
				m.rtc.Seconds = value
				m.latched.Seconds = value
			case 0x09:
				m.rtc.Minutes = value
				m.latched.Minutes = value
			case 0x0A:
				m.rtc.Hours = value
				m.latched.Hours = value
			case 0x0B:
				m.rtc.DaysLow = value
				m.latched.DaysLow = value
			case 0x0C:
				m.rtc.DaysHigh = value
				m.latched.DaysHigh = value
			}
		}
	}
}

func (m *MBC3) ramOffset(address uint16) uint32 {
	return (uint32(m.ramBank)<<13 | uint32(address&0x1FFF)) % uint32(len(m.ram))
}

// Tick advances the clock by emulated T-cycles.
func (m *MBC3) Tick(cycles int) {
	if !m.hasRTC {
		return
	}
	m.cycleAcc += uint64(cycles)
	if m.cycleAcc >= cyclesPerSecond {
		seconds := m.cycleAcc / cyclesPerSecond
		m.cycleAcc -= seconds * cyclesPerSecond
		m.rtc = m.rtc.Advanced(seconds)
	}
}

// AdvanceRTC moves the live clock forward by whole seconds. Used when
// restoring a battery save and by tests.
func (m *MBC3) AdvanceRTC(seconds uint64) {
	m.rtc = m.rtc.Advanced(seconds)
}

func (m *MBC3) SnapshotRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC3) RestoreRAM(data []byte) error {
	if len(data) != len(m.ram) {
		return fmt.Errorf("%w: got %d bytes of RAM, want %d", ErrSnapshotMismatch, len(data), len(m.ram))
	}
	copy(m.ram, data)
	return nil
}

// SnapshotRTC captures the clock state together with the wall-clock time.
func (m *MBC3) SnapshotRTC(now time.Time) RTCSnapshot {
	return RTCSnapshot{
		Counters: m.rtc,
		Latched:  m.latched,
		SavedAt:  now.Unix(),
	}
}

// RestoreRTC reinstates a snapshot and, unless the clock was halted,
// credits the wall-clock time that passed since it was taken.
func (m *MBC3) RestoreRTC(snap RTCSnapshot, now time.Time) error {
	if !m.hasRTC {
		return fmt.Errorf("%w: cartridge has no RTC", ErrSnapshotMismatch)
	}
	m.rtc = snap.Counters
	m.latched = snap.Latched
	if elapsed := now.Unix() - snap.SavedAt; elapsed > 0 {
		m.rtc = m.rtc.Advanced(uint64(elapsed))
	}
	return nil
}
