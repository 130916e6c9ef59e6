package main

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const audioSampleRate = beep.SampleRate(44100)

// tone is one step of a cue
type tone struct {
	freq float64
	dur  time.Duration
}

var cueTones = map[Cue][]tone{
	CueWheelSpin:      {{440, 80 * time.Millisecond}, {523, 80 * time.Millisecond}, {659, 80 * time.Millisecond}},
	CueWheelSelect:    {{784, 120 * time.Millisecond}, {1047, 240 * time.Millisecond}},
	CueStoneCollision: {{180, 60 * time.Millisecond}},
	CueEndScored:      {{523, 150 * time.Millisecond}, {659, 150 * time.Millisecond}},
	CueGameOver:       {{523, 200 * time.Millisecond}, {392, 200 * time.Millisecond}, {262, 400 * time.Millisecond}},
}

// BeepCues plays generated tones through the local speaker
type BeepCues struct {
	mu      sync.Mutex
	mixer   *beep.Mixer
	enabled bool
}

// NewBeepCues opens the speaker. When that fails the service stays silent
// and Play returns ErrAudioDisabled.
func NewBeepCues(enable bool) *BeepCues {
	bc := &BeepCues{mixer: &beep.Mixer{}}
	if !enable {
		return bc
	}
	if err := speaker.Init(audioSampleRate, audioSampleRate.N(100*time.Millisecond)); err != nil {
		log.Printf("audio: speaker unavailable, cues disabled: %v", err)
		return bc
	}
	speaker.Play(bc.mixer)
	bc.enabled = true
	return bc
}

// Enabled reports whether cues reach a speaker
func (bc *BeepCues) Enabled() bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.enabled
}

// Play implements AudioCues
func (bc *BeepCues) Play(cue Cue, volume float64) error {
	s, err := cueStream(cue, volume, audioSampleRate)
	if err != nil {
		return err
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()
	if !bc.enabled {
		return ErrAudioDisabled
	}
	speaker.Lock()
	bc.mixer.Add(s)
	speaker.Unlock()
	return nil
}

// Close silences everything still playing
func (bc *BeepCues) Close() {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if !bc.enabled {
		return
	}
	speaker.Lock()
	bc.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	bc.enabled = false
}

// cueStream builds the finite streamer for a cue at volume 0..1
func cueStream(cue Cue, volume float64, sr beep.SampleRate) (beep.Streamer, error) {
	tones, ok := cueTones[cue]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCue, int(cue))
	}

	parts := make([]beep.Streamer, 0, len(tones))
	for _, t := range tones {
		sine, err := generators.SineTone(sr, t.freq)
		if err != nil {
			return nil, fmt.Errorf("cue %s: %w", cue, err)
		}
		parts = append(parts, beep.Take(sr.N(t.dur), sine))
	}

	volume = Clamp01(volume)
	return &effects.Volume{
		Streamer: beep.Seq(parts...),
		Base:     2,
		Volume:   math.Log2(math.Max(volume, 1e-3)) - 1,
		Silent:   volume == 0,
	}, nil
}
