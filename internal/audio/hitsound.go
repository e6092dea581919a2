package audio

import (
	"math/rand"

	"github.com/san-kum/physbox/internal/physics"
)

// DefaultThreshold is the impact speed a collision must exceed to be heard.
const DefaultThreshold = 1.5

// Voice is a single playable sound. Playing it again restarts it.
type Voice interface {
	SetVolume(v float64)
	Rewind()
	Play()
}

type NopVoice struct{}

func (NopVoice) SetVolume(float64) {}
func (NopVoice) Rewind()           {}
func (NopVoice) Play()             {}

// HitSound plays one shared voice for collisions above a speed threshold,
// at a random volume each time.
type HitSound struct {
	voice     Voice
	threshold float64
	rand      func() float64
	triggers  int

	// OnTrigger, when set, is called after each playback with the impact
	// speed and the chosen volume.
	OnTrigger func(impact, volume float64)
}

// NewHitSound uses rnd for volumes; nil selects math/rand.
func NewHitSound(v Voice, threshold float64, rnd func() float64) *HitSound {
	if v == nil {
		v = NopVoice{}
	}
	if rnd == nil {
		rnd = rand.Float64
	}
	return &HitSound{voice: v, threshold: threshold, rand: rnd}
}

func (h *HitSound) Threshold() float64 { return h.threshold }

// Triggers counts playbacks since creation.
func (h *HitSound) Triggers() int { return h.triggers }

// Trigger plays the voice when impact exceeds the threshold and reports
// whether it did.
func (h *HitSound) Trigger(impact float64) bool {
	if impact <= h.threshold {
		return false
	}
	vol := h.rand()
	h.voice.SetVolume(vol)
	h.voice.Rewind()
	h.voice.Play()
	h.triggers++
	if h.OnTrigger != nil {
		h.OnTrigger(impact, vol)
	}
	return true
}

// OnCollide is a physics.CollideHandler.
func (h *HitSound) OnCollide(ev physics.CollideEvent) {
	if ev.Contact == nil {
		return
	}
	h.Trigger(ev.Contact.ImpactVelocityAlongNormal())
}
