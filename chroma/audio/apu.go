package audio

import (
	"github.com/marcval/go-chroma/chroma/addr"
	"github.com/marcval/go-chroma/chroma/bit"
)

// APU is the four-channel audio unit. It has no sample clock of its own:
// everything is driven by the DIV-APU counter, which advances on falling
// edges of DIV bit 4 (bit 5 in double speed) and fans out to the length
// timers (every 2 steps), the CH1 wavelength sweep (every 4) and the
// envelopes (every 8). Register writes describe waveforms; the resulting
// channel descriptors go to the Driver, which owns actual synthesis.
type APU struct {
	driver Driver

	previousDivider byte
	divAPU          uint16

	ch1Length   lengthTimer
	ch2Length   lengthTimer
	ch3Length   lengthTimer
	ch4Length   lengthTimer
	ch1Envelope envelopeSweeper
	ch2Envelope envelopeSweeper
	ch4Envelope envelopeSweeper
	ch1Sweep    wavelengthSweeper
	ch2Sweep    wavelengthSweeper
	ch3Player   customWavePlayer

	// CH4 LFSR parameters from NR43.
	noiseShift   uint8
	noiseWidth7  bool
	noiseDivider uint8
	nr41         byte

	operational [4]bool

	powered      bool
	masterVolume byte // NR50
	mixing       byte // NR51

	waveRAM [16]byte
}

func New(driver Driver) *APU {
	if driver == nil {
		driver = NullDriver{}
	}
	return &APU{
		driver:      driver,
		ch1Length:   newLengthTimer(CH1, 64),
		ch2Length:   newLengthTimer(CH2, 64),
		ch3Length:   newLengthTimer(CH3, 256),
		ch4Length:   newLengthTimer(CH4, 64),
		ch1Envelope: envelopeSweeper{channel: CH1},
		ch2Envelope: envelopeSweeper{channel: CH2},
		ch4Envelope: envelopeSweeper{channel: CH4},
		ch1Sweep:    wavelengthSweeper{channel: CH1},
		ch2Sweep:    wavelengthSweeper{channel: CH2},
		ch3Player:   customWavePlayer{channel: CH3},
	}
}

// Tick observes the timer divider once per m-cycle and advances the frame
// sequencer on the falling edge of the DIV-APU bit.
func (a *APU) Tick(divider uint16, doubleSpeed bool) {
	upper := bit.High(divider)
	dividerBit := uint8(4)
	if doubleSpeed {
		dividerBit = 5
	}
	if a.powered && bit.IsSet(dividerBit, a.previousDivider) && !bit.IsSet(dividerBit, upper) {
		a.divAPU++
		if a.divAPU%2 == 0 {
			a.tickLengths()
		}
		if a.divAPU%4 == 0 {
			a.tickSweeps()
		}
		if a.divAPU%8 == 0 {
			a.tickEnvelopes()
		}
	}
	a.previousDivider = upper
}

func (a *APU) tickLengths() {
	if a.ch1Length.tickAndCheckExpired() {
		a.stop(CH1)
	}
	if a.ch2Length.tickAndCheckExpired() {
		a.stop(CH2)
	}
	if a.ch3Length.tickAndCheckExpired() {
		a.stop(CH3)
	}
	if a.ch4Length.tickAndCheckExpired() {
		a.stop(CH4)
	}
}

func (a *APU) tickSweeps() {
	if a.ch1Sweep.tickAndCheckOverflow(a.driver) {
		a.stop(CH1)
	}
	if a.ch2Sweep.tickAndCheckOverflow(a.driver) {
		a.stop(CH2)
	}
	a.ch3Player.play(a.driver)
}

func (a *APU) tickEnvelopes() {
	if a.ch1Envelope.tickAndCheckDACOff(a.driver) {
		a.stop(CH1)
	}
	if a.ch2Envelope.tickAndCheckDACOff(a.driver) {
		a.stop(CH2)
	}
	if a.ch4Envelope.tickAndCheckDACOff(a.driver) {
		a.stop(CH4)
	}
}

// Operational reports whether a channel is currently playing; NR52's low
// bits expose this to software.
func (a *APU) Operational(channel Channel) bool {
	return a.operational[channel]
}

func (a *APU) trigger(channel Channel) {
	switch channel {
	case CH1:
		a.ch1Sweep.trigger()
		a.ch1Length.trigger()
		a.ch1Envelope.trigger()
		if a.ch1Envelope.pending.dacOff() {
			a.stop(CH1)
			return
		}
		a.operational[CH1] = true
		a.ch1Sweep.triggered = false
		a.driver.PlayPulse(CH1, a.ch1Sweep.pulseOptions())
		a.driver.SetGain(CH1, float32(a.ch1Envelope.value)/15.0)
	case CH2:
		a.ch2Sweep.trigger()
		a.ch2Length.trigger()
		a.ch2Envelope.trigger()
		if a.ch2Envelope.pending.dacOff() {
			a.stop(CH2)
			return
		}
		a.operational[CH2] = true
		a.ch2Sweep.triggered = false
		a.driver.PlayPulse(CH2, a.ch2Sweep.pulseOptions())
		a.driver.SetGain(CH2, float32(a.ch2Envelope.value)/15.0)
	case CH3:
		a.ch3Length.trigger()
		a.ch3Player.waveform = a.waveRAM
		a.ch3Player.trigger()
		if !a.ch3Player.enabled {
			a.stop(CH3)
			return
		}
		a.operational[CH3] = true
		a.ch3Player.play(a.driver)
	case CH4:
		a.ch4Length.trigger()
		a.ch4Envelope.trigger()
		if a.ch4Envelope.pending.dacOff() {
			a.stop(CH4)
			return
		}
		a.operational[CH4] = true
		a.driver.PlayNoise(CH4, NoiseOptions{
			Shift:   a.noiseShift,
			Divider: a.noiseDivider,
			Width7:  a.noiseWidth7,
			Gain:    float32(a.ch4Envelope.value) / 15.0,
		})
	}
}

func (a *APU) stop(channel Channel) {
	a.operational[channel] = false
	switch channel {
	case CH1:
		a.ch1Length.operational = false
		a.ch1Envelope.operational = false
		a.ch1Sweep.operational = false
	case CH2:
		a.ch2Length.operational = false
		a.ch2Envelope.operational = false
		a.ch2Sweep.operational = false
	case CH3:
		a.ch3Length.operational = false
		a.ch3Player.playing = false
	case CH4:
		a.ch4Length.operational = false
		a.ch4Envelope.operational = false
	}
	a.driver.Stop(channel)
}

// ReadRegister returns the register value with write-only and unused bits
// fixed to 1.
func (a *APU) ReadRegister(address uint16) byte {
	switch address {
	case addr.NR10:
		return 0x80 | a.ch1Sweep.pending.pace<<4 | boolBit(a.ch1Sweep.pending.decrease, 3) | a.ch1Sweep.pending.shift
	case addr.NR11:
		return byte(a.ch1Sweep.pending.duty)<<6 | 0x3F
	case addr.NR12:
		return envelopeByte(a.ch1Envelope.pending)
	case addr.NR14:
		return 0xBF | boolBit(a.ch1Length.enabled, 6)
	case addr.NR21:
		return byte(a.ch2Sweep.pending.duty)<<6 | 0x3F
	case addr.NR22:
		return envelopeByte(a.ch2Envelope.pending)
	case addr.NR24:
		return 0xBF | boolBit(a.ch2Length.enabled, 6)
	case addr.NR30:
		return 0x7F | boolBit(a.ch3Player.enabled, 7)
	case addr.NR32:
		return 0x9F | a.ch3Player.gain<<5
	case addr.NR34:
		return 0xBF | boolBit(a.ch3Length.enabled, 6)
	case addr.NR42:
		return envelopeByte(a.ch4Envelope.pending)
	case addr.NR43:
		return a.noiseShift<<4 | boolBit(a.noiseWidth7, 3) | a.noiseDivider
	case addr.NR44:
		return 0xBF | boolBit(a.ch4Length.enabled, 6)
	case addr.NR50:
		return a.masterVolume
	case addr.NR51:
		return a.mixing
	case addr.NR52:
		status := byte(0x70)
		if a.powered {
			status = bit.Set(7, status)
		}
		for channel := CH1; channel <= CH4; channel++ {
			if a.operational[channel] {
				status = bit.Set(uint8(channel), status)
			}
		}
		return status
	}
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		return a.waveRAM[address-addr.WaveRAMStart]
	}
	// NR13/NR23/NR31/NR33/NR41 and the gaps are write-only or unmapped.
	return 0xFF
}

// WriteRegister stores a register write, updating the pending settings of
// the owning channel. While the APU is powered off only NR52 and wave RAM
// accept writes.
func (a *APU) WriteRegister(address uint16, value byte) {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		a.waveRAM[address-addr.WaveRAMStart] = value
		return
	}
	if !a.powered && address != addr.NR52 {
		return
	}

	switch address {
	case addr.NR10:
		a.ch1Sweep.pending.shift = value & 0x07
		a.ch1Sweep.pending.decrease = bit.IsSet(3, value)
		a.ch1Sweep.pending.pace = value >> 4 & 0x07
	case addr.NR11:
		a.ch1Sweep.pending.duty = DutyCycle(value >> 6)
		a.ch1Length.setLength(value & 0x3F)
	case addr.NR12:
		writeEnvelope(&a.ch1Envelope, value)
		if a.ch1Envelope.pending.dacOff() {
			a.stop(CH1)
		}
	case addr.NR13:
		a.ch1Sweep.pending.setLowerBits(value)
	case addr.NR14:
		a.ch1Sweep.pending.setUpperBits(value)
		a.ch1Length.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.trigger(CH1)
		}
	case addr.NR21:
		a.ch2Sweep.pending.duty = DutyCycle(value >> 6)
		a.ch2Length.setLength(value & 0x3F)
	case addr.NR22:
		writeEnvelope(&a.ch2Envelope, value)
		if a.ch2Envelope.pending.dacOff() {
			a.stop(CH2)
		}
	case addr.NR23:
		a.ch2Sweep.pending.setLowerBits(value)
	case addr.NR24:
		a.ch2Sweep.pending.setUpperBits(value)
		a.ch2Length.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.trigger(CH2)
		}
	case addr.NR30:
		a.ch3Player.enabled = bit.IsSet(7, value)
		if !a.ch3Player.enabled {
			a.stop(CH3)
		}
	case addr.NR31:
		a.ch3Length.setLength(value)
	case addr.NR32:
		a.ch3Player.gain = value >> 5 & 0x03
	case addr.NR33:
		a.ch3Player.setLowerBits(value)
	case addr.NR34:
		a.ch3Player.setUpperBits(value)
		a.ch3Length.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.trigger(CH3)
		}
	case addr.NR41:
		a.nr41 = value
		a.ch4Length.setLength(value & 0x3F)
	case addr.NR42:
		writeEnvelope(&a.ch4Envelope, value)
		if a.ch4Envelope.pending.dacOff() {
			a.stop(CH4)
		}
	case addr.NR43:
		a.noiseShift = value >> 4
		a.noiseWidth7 = bit.IsSet(3, value)
		a.noiseDivider = value & 0x07
	case addr.NR44:
		a.ch4Length.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.trigger(CH4)
		}
	case addr.NR50:
		a.masterVolume = value
		a.driver.SetMasterVolume(value)
	case addr.NR51:
		a.mixing = value
	case addr.NR52:
		wasPowered := a.powered
		a.powered = bit.IsSet(7, value)
		if wasPowered && !a.powered {
			a.powerOff()
		}
	}
}

// powerOff zeroes every register except NR52 and wave RAM and silences
// all channels.
func (a *APU) powerOff() {
	for channel := CH1; channel <= CH4; channel++ {
		a.stop(channel)
	}
	a.ch1Sweep = wavelengthSweeper{channel: CH1}
	a.ch2Sweep = wavelengthSweeper{channel: CH2}
	a.ch1Envelope = envelopeSweeper{channel: CH1}
	a.ch2Envelope = envelopeSweeper{channel: CH2}
	a.ch4Envelope = envelopeSweeper{channel: CH4}
	waveform := a.ch3Player.waveform
	a.ch3Player = customWavePlayer{channel: CH3, waveform: waveform}
	a.ch1Length = newLengthTimer(CH1, 64)
	a.ch2Length = newLengthTimer(CH2, 64)
	a.ch3Length = newLengthTimer(CH3, 256)
	a.ch4Length = newLengthTimer(CH4, 64)
	a.noiseShift, a.noiseWidth7, a.noiseDivider = 0, false, 0
	a.nr41 = 0
	a.masterVolume, a.mixing = 0, 0
}

func envelopeByte(settings envelopeSettings) byte {
	return settings.initial<<4 | boolBit(settings.ascending, 3) | settings.pace
}

func writeEnvelope(sweeper *envelopeSweeper, value byte) {
	sweeper.pending.pace = value & 0x07
	sweeper.pending.ascending = bit.IsSet(3, value)
	sweeper.pending.initial = value >> 4
}

func boolBit(condition bool, index uint8) byte {
	if condition {
		return 1 << index
	}
	return 0
}
