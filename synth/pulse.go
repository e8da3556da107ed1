// Package synth generates region sums that look like a camera watching a
// face: a baseline colour per channel, a cardiac pulse weighted across the
// channels, a slow illumination drift and a little deterministic noise.
package synth

import (
	"math"

	"gopulse/harmonic"
)

// Pulse produces one harmonic.Frame per call to Next. Fields may be changed
// between calls.
type Pulse struct {
	FrameRate float64    // frames per second
	BPM       float64    // pulse frequency
	Amplitude float64    // pulse amplitude in per-pixel intensity units
	Drift     float64    // illumination drift amplitude
	DriftHz   float64    // illumination drift frequency
	Noise     float64    // peak noise amplitude
	Area      uint64     // tracked region size in pixels
	Base      [3]float64 // mean per-pixel red, green, blue
	Weights   [3]float64 // share of the pulse seen by red, green, blue

	phase      float64
	driftPhase float64
	count      int
}

// NewPulse returns a generator with green-dominant weights, the way skin
// absorption shows up on a consumer camera.
func NewPulse(frameRate, bpm float64) *Pulse {
	return &Pulse{
		FrameRate: frameRate,
		BPM:       bpm,
		Amplitude: 2,
		Drift:     0.5,
		DriftHz:   0.1,
		Noise:     0.05,
		Area:      10000,
		Base:      [3]float64{120, 100, 80},
		Weights:   [3]float64{0.3, 1, 0.15},
	}
}

// Next advances the generator by one frame.
func (s *Pulse) Next() harmonic.Frame {
	pulse := s.Amplitude * math.Sin(2*math.Pi*s.phase)
	drift := s.Drift * math.Sin(2*math.Pi*s.driftPhase)

	var sums [3]uint64
	for c := range sums {
		intensity := s.Base[c] + drift + s.Weights[c]*pulse + s.noise(c)
		sums[c] = uint64(math.Round(math.Max(0, intensity) * float64(s.Area)))
	}

	s.phase = fract(s.phase + s.BPM/60.0/s.FrameRate)
	s.driftPhase = fract(s.driftPhase + s.DriftHz/s.FrameRate)
	s.count++

	return harmonic.Frame{
		Red:      sums[0],
		Green:    sums[1],
		Blue:     sums[2],
		Area:     s.Area,
		Interval: 1000.0 / s.FrameRate,
	}
}

// Frames returns the next n frames.
func (s *Pulse) Frames(n int) []harmonic.Frame {
	frames := make([]harmonic.Frame, n)
	for i := range frames {
		frames[i] = s.Next()
	}
	return frames
}

// noise is a cheap hash of the frame counter and channel in [-Noise, Noise).
func (s *Pulse) noise(channel int) float64 {
	x := float64(s.count)*12.9898 + float64(channel)*78.233
	return s.Noise * (2*fract(math.Sin(x)*43758.5453) - 1)
}

func fract(x float64) float64 { return x - math.Floor(x) }
