// Package speaker turns the APU's channel descriptors into sound through
// an oto player. The APU describes waveforms (frequency, duty, gain,
// sample tables, LFSR parameters); this package owns the continuous
// synthesis the hardware DACs would do.
package speaker

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/marcval/go-chroma/chroma/audio"
)

const sampleRate = 44100

type waveKind int

const (
	kindOff waveKind = iota
	kindPulse
	kindWave
	kindNoise
)

type channelState struct {
	kind      waveKind
	frequency float64
	duty      audio.DutyCycle
	gain      float64
	samples   [32]float32

	lfsr    uint16
	width7  bool
	clock   float64 // LFSR steps per output sample
	clockAc float64

	phase float64
}

// Speaker implements audio.Driver on top of an oto stream.
type Speaker struct {
	mu sync.Mutex

	ctx    *oto.Context
	player *oto.Player

	channels     [4]channelState
	masterVolume float64
	muted        bool
}

// New opens the host audio device and starts the stream.
func New() (*Speaker, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	s := &Speaker{ctx: ctx, masterVolume: 1}
	s.player = ctx.NewPlayer(s)
	s.player.Play()
	return s, nil
}

// Close stops the stream.
func (s *Speaker) Close() error {
	if s.player != nil {
		return s.player.Close()
	}
	return nil
}

func (s *Speaker) PlayPulse(channel audio.Channel, options audio.PulseOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := &s.channels[channel]
	ch.kind = kindPulse
	ch.frequency = float64(options.Frequency)
	ch.duty = options.Duty
	if ch.gain == 0 {
		ch.gain = 1
	}
}

func (s *Speaker) PlayCustomWave(channel audio.Channel, options audio.CustomWaveOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := &s.channels[channel]
	ch.kind = kindWave
	ch.frequency = float64(options.Frequency)
	ch.samples = options.Samples
	ch.gain = float64(options.Gain)
}

func (s *Speaker) PlayNoise(channel audio.Channel, options audio.NoiseOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := &s.channels[channel]
	ch.kind = kindNoise
	ch.lfsr = 0x7FFF
	ch.width7 = options.Width7
	ch.clock = float64(options.Frequency()) / sampleRate
	ch.gain = float64(options.Gain)
}

func (s *Speaker) SetGain(channel audio.Channel, gain float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channel].gain = float64(gain)
}

func (s *Speaker) Stop(channel audio.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channel].kind = kindOff
}

func (s *Speaker) SetMasterVolume(value uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// NR50: use the louder of the two stereo lanes, 0-7 scaled to (0, 1].
	left := value >> 4 & 0x07
	right := value & 0x07
	volume := left
	if right > left {
		volume = right
	}
	s.masterVolume = float64(volume+1) / 8
}

func (s *Speaker) MuteAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = true
}

func (s *Speaker) UnmuteAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = false
}

var dutyThresholds = map[audio.DutyCycle]float64{
	audio.Duty125: 0.125,
	audio.Duty250: 0.25,
	audio.Duty500: 0.5,
	audio.Duty750: 0.75,
}

// Read synthesizes the next chunk of float32 samples; oto pulls it from
// its playback goroutine.
func (s *Speaker) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(p) / 4
	for i := 0; i < count; i++ {
		var mixed float64
		if !s.muted {
			for index := range s.channels {
				mixed += s.channels[index].sample()
			}
			mixed = mixed / 4 * s.masterVolume
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(float32(mixed)))
	}
	return count * 4, nil
}

func (ch *channelState) sample() float64 {
	switch ch.kind {
	case kindPulse:
		ch.phase += ch.frequency / sampleRate
		ch.phase -= math.Floor(ch.phase)
		if ch.phase < dutyThresholds[ch.duty] {
			return ch.gain
		}
		return -ch.gain
	case kindWave:
		ch.phase += ch.frequency / sampleRate
		ch.phase -= math.Floor(ch.phase)
		index := int(ch.phase * 32)
		if index > 31 {
			index = 31
		}
		// Samples arrive in [-1, 0]; recenter around zero.
		return (float64(ch.samples[index]) + 0.5) * ch.gain
	case kindNoise:
		ch.clockAc += ch.clock
		for ch.clockAc >= 1 {
			ch.clockAc--
			feedback := (ch.lfsr ^ ch.lfsr>>1) & 1
			ch.lfsr = ch.lfsr>>1 | feedback<<14
			if ch.width7 {
				ch.lfsr = ch.lfsr&^(1<<6) | feedback<<6
			}
		}
		if ch.lfsr&1 == 0 {
			return ch.gain
		}
		return -ch.gain
	default:
		return 0
	}
}
