package audio

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 44100
	BufferSize = 512

	hitDuration = 0.25
	hitFreq     = 180.0
)

// PortAudioVoice plays a synthesized knock through the default output
// device.
type PortAudioVoice struct {
	stream *portaudio.Stream

	mu      sync.Mutex
	sample  []float32
	cursor  int
	volume  float32
	playing bool
}

func NewPortAudioVoice() *PortAudioVoice {
	return &PortAudioVoice{sample: synthHit(SampleRate, rand.New(rand.NewSource(1))), volume: 1}
}

func (v *PortAudioVoice) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, v.process)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start stream: %w", err)
	}
	v.stream = stream
	return nil
}

func (v *PortAudioVoice) Close() error {
	if v.stream == nil {
		return nil
	}
	v.stream.Stop()
	err := v.stream.Close()
	v.stream = nil
	portaudio.Terminate()
	return err
}

func (v *PortAudioVoice) SetVolume(vol float64) {
	v.mu.Lock()
	v.volume = float32(math.Max(0, math.Min(1, vol)))
	v.mu.Unlock()
}

func (v *PortAudioVoice) Rewind() {
	v.mu.Lock()
	v.cursor = 0
	v.mu.Unlock()
}

func (v *PortAudioVoice) Play() {
	v.mu.Lock()
	v.playing = true
	v.mu.Unlock()
}

// Playing reports whether the knock is still sounding.
func (v *PortAudioVoice) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

func (v *PortAudioVoice) process(out [][]float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fill(out)
}

// fill writes the next block; the caller holds mu.
func (v *PortAudioVoice) fill(out [][]float32) {
	for i := range out[0] {
		var s float32
		if v.playing {
			if v.cursor < len(v.sample) {
				s = v.sample[v.cursor] * v.volume
				v.cursor++
			} else {
				v.playing = false
			}
		}
		for ch := range out {
			out[ch][i] = s
		}
	}
}

// synthHit renders a decaying low sine with a short filtered noise
// transient on top.
func synthHit(rate int, rng *rand.Rand) []float32 {
	n := int(hitDuration * float64(rate))
	out := make([]float32, n)
	dt := 1.0 / float64(rate)
	var state float64
	for i := range out {
		t := float64(i) * dt
		body := math.Sin(2*math.Pi*hitFreq*t) * math.Exp(-t*18)
		var noise float64
		noise, state = lpf(rng.Float64()*2-1, 2500, dt, state)
		click := noise * math.Exp(-t*90)
		out[i] = float32(0.8*body + 0.5*click)
	}
	return out
}

// lpf is a one-pole low pass filter.
func lpf(sample, cutoff, dt, state float64) (float64, float64) {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	out := state + alpha*(sample-state)
	return out, out
}
