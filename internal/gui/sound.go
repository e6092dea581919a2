package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// SoundVoice plays a loaded sound file through raylib's audio device. The
// device must be initialized first.
type SoundVoice struct {
	sound rl.Sound
}

func LoadSoundVoice(path string) (*SoundVoice, error) {
	snd := rl.LoadSound(path)
	if !rl.IsSoundValid(snd) {
		return nil, fmt.Errorf("load sound %s", path)
	}
	return &SoundVoice{sound: snd}, nil
}

func (v *SoundVoice) SetVolume(vol float64) { rl.SetSoundVolume(v.sound, float32(vol)) }

// Rewind stops the sound so the next Play starts from the beginning.
func (v *SoundVoice) Rewind() { rl.StopSound(v.sound) }

func (v *SoundVoice) Play() { rl.PlaySound(v.sound) }

func (v *SoundVoice) Unload() { rl.UnloadSound(v.sound) }
