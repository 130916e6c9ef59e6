package main

import (
	"log"
	"math"
	"math/rand/v2"
)

// PowerUp is the wheel outcome applied to the next stone
type PowerUp int

const (
	PowerUpNone   PowerUp = 0
	PowerUpJumbo  PowerUp = 1
	PowerUpMini   PowerUp = 2
	PowerUpFreeze PowerUp = 3
)

func (p PowerUp) String() string {
	switch p {
	case PowerUpJumbo:
		return "jumbo"
	case PowerUpMini:
		return "mini"
	case PowerUpFreeze:
		return "freeze"
	default:
		return "none"
	}
}

// Variant maps a power-up onto the stone shape it produces
func (p PowerUp) Variant() StoneVariant {
	switch p {
	case PowerUpJumbo:
		return VariantJumbo
	case PowerUpMini:
		return VariantMini
	case PowerUpFreeze:
		return VariantFreeze
	default:
		return VariantStandard
	}
}

// Wheel timing and layout
const (
	DefaultSpinDuration = 3.0 // seconds
	MinSpinRotations    = 2
	MaxSpinRotations    = 4

	// Sector bounds in degrees. Mini wraps through 0.
	JumboSectorStart  = 210.0
	JumboSectorEnd    = 330.0
	FreezeSectorStart = 90.0
	FreezeSectorEnd   = 210.0
)

// PowerUpForAngle resolves a wheel angle in degrees to its sector
func PowerUpForAngle(deg float64) PowerUp {
	a := RepeatAngle(deg)
	switch {
	case a >= JumboSectorStart && a < JumboSectorEnd:
		return PowerUpJumbo
	case a >= FreezeSectorStart && a < FreezeSectorEnd:
		return PowerUpFreeze
	default:
		return PowerUpMini
	}
}

// sectorAngle draws a uniform angle inside the sector of p
func sectorAngle(rng *rand.Rand, p PowerUp) float64 {
	switch p {
	case PowerUpJumbo:
		return arcAngle(rng, JumboSectorStart, JumboSectorEnd)
	case PowerUpFreeze:
		return arcAngle(rng, FreezeSectorStart, FreezeSectorEnd)
	default:
		if rng.Float64() < 0.5 {
			return arcAngle(rng, JumboSectorEnd, 360)
		}
		return arcAngle(rng, 0, FreezeSectorStart)
	}
}

// arcAngle draws from [start, end). Rounding can land exactly on end, which
// belongs to the next sector.
func arcAngle(rng *rand.Rand, start, end float64) float64 {
	a := start + rng.Float64()*(end-start)
	if a >= end {
		a = math.Nextafter(end, start)
	}
	return a
}

// PowerUpWheel picks a random power-up with an eased spin animation.
// Not safe for concurrent use; Update is driven by the owner's tick loop.
type PowerUpWheel struct {
	Duration float64
	// OnSettled is called once per spin with the resolved power-up
	OnSettled func(p PowerUp)

	rng   *rand.Rand
	audio AudioCues

	current  PowerUp
	spinning bool
	angle    float64

	drawn      PowerUp
	startAngle float64
	target     float64
	landing    float64 // target without the full rotations, in [0, 360)
	elapsed    float64
}

// NewPowerUpWheel creates an idle wheel. rng may be nil for a random seed.
func NewPowerUpWheel(rng *rand.Rand, audio AudioCues) *PowerUpWheel {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	w := &PowerUpWheel{
		Duration: DefaultSpinDuration,
		rng:      rng,
		audio:    audio,
	}
	w.ResetPowerUp()
	return w
}

// Spin starts a selection. No-op returning false while already spinning.
func (w *PowerUpWheel) Spin() bool {
	if w.spinning {
		return false
	}
	w.spinning = true
	w.current = PowerUpNone
	w.playCue(CueWheelSpin)

	w.drawn = PowerUp(1 + w.rng.IntN(3))
	w.landing = sectorAngle(w.rng, w.drawn)
	rotations := MinSpinRotations + w.rng.IntN(MaxSpinRotations-MinSpinRotations+1)

	w.startAngle = RepeatAngle(w.angle)
	w.angle = w.startAngle
	w.target = w.landing + float64(rotations)*360
	w.elapsed = 0
	return true
}

// Update advances the spin animation by dt seconds
func (w *PowerUpWheel) Update(dt float64) {
	if !w.spinning {
		return
	}
	w.elapsed += dt
	if w.elapsed < w.Duration {
		t := w.elapsed / w.Duration
		w.angle = Lerp(w.startAngle, w.target, EaseOutCubic(t))
		return
	}
	w.settle()
}

func (w *PowerUpWheel) settle() {
	w.angle = w.target
	// landing is the exact normalization of target
	w.current = PowerUpForAngle(w.landing)
	if w.current != w.drawn {
		log.Printf("wheel: landed on %s but drew %s", w.current, w.drawn)
	}
	w.playCue(CueWheelSelect)
	w.spinning = false
	if w.OnSettled != nil {
		w.OnSettled(w.current)
	}
}

func (w *PowerUpWheel) playCue(cue Cue) {
	if w.audio == nil {
		return
	}
	if err := w.audio.Play(cue, 1); err != nil {
		log.Printf("wheel: %s cue: %v", cue, err)
	}
}

// CurrentPowerUp returns the resolved power-up, or none while idle or spinning
func (w *PowerUpWheel) CurrentPowerUp() PowerUp {
	return w.current
}

// IsSpinning reports whether a selection is in flight
func (w *PowerUpWheel) IsSpinning() bool {
	return w.spinning
}

// ResetPowerUp clears the selection unconditionally
func (w *PowerUpWheel) ResetPowerUp() {
	w.current = PowerUpNone
}

// Angle returns the displayed wheel angle in degrees
func (w *PowerUpWheel) Angle() float64 {
	return w.angle
}
