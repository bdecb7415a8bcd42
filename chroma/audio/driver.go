package audio

// Channel identifies one of the four APU voices.
type Channel int

const (
	CH1 Channel = iota // square wave with wavelength sweep
	CH2                // square wave
	CH3                // custom 32-sample wave
	CH4                // noise
)

func (c Channel) String() string {
	switch c {
	case CH1:
		return "CH1"
	case CH2:
		return "CH2"
	case CH3:
		return "CH3"
	case CH4:
		return "CH4"
	}
	return "?"
}

// DutyCycle selects the pulse shape of the square channels.
type DutyCycle uint8

const (
	Duty125 DutyCycle = iota // 12.5%
	Duty250                  // 25%
	Duty500                  // 50%
	Duty750                  // 75%
)

// PulseOptions describes a square wave to the host audio sink.
type PulseOptions struct {
	Frequency float32 // Hz
	Duty      DutyCycle
}

// CustomWaveOptions describes the CH3 waveform. Samples are scaled to
// [-1, 0], one per 4-bit wave RAM nibble.
type CustomWaveOptions struct {
	Samples   [32]float32
	Frequency float32 // Hz
	Gain      float32 // 0, 1.0, 0.5 or 0.25
}

// NoiseOptions carries the CH4 LFSR parameters.
type NoiseOptions struct {
	Shift   uint8 // clock shift, 4 bits
	Divider uint8 // clock divider code, 3 bits
	Width7  bool  // 7-bit LFSR instead of 15-bit
	Gain    float32
}

// Frequency returns the LFSR clock rate in Hz: 524288 / r / 2^(shift+1),
// where a divider code of 0 counts as 0.5.
func (n NoiseOptions) Frequency() float32 {
	r := float32(n.Divider)
	if n.Divider == 0 {
		r = 0.5
	}
	return 524288.0 / r / float32(uint32(1)<<(n.Shift+1))
}

// Driver is the host audio sink. The APU derives channel descriptors from
// register writes and pushes them here; the driver owns the continuous
// signal synthesis.
type Driver interface {
	PlayPulse(channel Channel, options PulseOptions)
	PlayCustomWave(channel Channel, options CustomWaveOptions)
	PlayNoise(channel Channel, options NoiseOptions)
	SetGain(channel Channel, gain float32)
	Stop(channel Channel)
	SetMasterVolume(value uint8)
	MuteAll()
	UnmuteAll()
}

// NullDriver discards everything; used headless and in tests.
type NullDriver struct{}

func (NullDriver) PlayPulse(Channel, PulseOptions)           {}
func (NullDriver) PlayCustomWave(Channel, CustomWaveOptions) {}
func (NullDriver) PlayNoise(Channel, NoiseOptions)           {}
func (NullDriver) SetGain(Channel, float32)                  {}
func (NullDriver) Stop(Channel)                              {}
func (NullDriver) SetMasterVolume(uint8)                     {}
func (NullDriver) MuteAll()                                  {}
func (NullDriver) UnmuteAll()                                {}
