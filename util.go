package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Clamp01 restricts v to [0, 1]
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp interpolates linearly between a and b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// EaseOutCubic maps linear progress t in [0,1] onto a decelerating curve
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// RepeatAngle wraps a degree angle into [0, 360)
func RepeatAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
