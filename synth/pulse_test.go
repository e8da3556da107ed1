package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopulse/harmonic"
)

func TestPulseIsDeterministic(t *testing.T) {
	a := NewPulse(25, 72).Frames(100)
	b := NewPulse(25, 72).Frames(100)

	assert.Equal(t, a, b)
}

func TestPulseFrameLayout(t *testing.T) {
	s := NewPulse(25, 72)
	s.Noise = 0
	s.Drift = 0
	s.Amplitude = 0

	f := s.Next()

	assert.Equal(t, uint64(120*10000), f.Red)
	assert.Equal(t, uint64(100*10000), f.Green)
	assert.Equal(t, uint64(80*10000), f.Blue)
	assert.Equal(t, uint64(10000), f.Area)
	assert.InDelta(t, 40.0, f.Interval, 1e-9)
}

func TestPulseNoiseIsBounded(t *testing.T) {
	s := NewPulse(30, 60)
	s.Drift = 0
	s.Amplitude = 0
	s.Noise = 0.5

	for i := 0; i < 500; i++ {
		f := s.Next()
		green := float64(f.Green) / float64(f.Area)
		assert.InDelta(t, 100, green, 0.5+1e-4)
	}
}

func TestPulseNeverGoesNegative(t *testing.T) {
	s := NewPulse(25, 90)
	s.Base = [3]float64{0, 0, 0}

	for _, f := range s.Frames(200) {
		assert.LessOrEqual(t, f.Green, uint64(3*s.Area))
	}
}

func TestPulseRecoveredBySpectralAnalysis(t *testing.T) {
	tests := map[string]struct {
		bpm  float64
		mode harmonic.Mode
	}{
		"72 single": {bpm: 72, mode: harmonic.Single},
		"72 dual":   {bpm: 72, mode: harmonic.Dual},
		"64 single": {bpm: 64, mode: harmonic.Single},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			settings := harmonic.DefaultSettings()
			p, err := harmonic.NewProcessor(256, 256, settings)
			require.NoError(t, err)

			s := NewPulse(25, tc.bpm)
			for _, f := range s.Frames(3 * 256) {
				p.WriteFrame(f, tc.mode)
			}

			estimate := p.ComputeFrequency()
			require.False(t, estimate.TooNoisy, "snr %.2f", estimate.SNR)
			assert.InEpsilon(t, tc.bpm, estimate.BPM, 0.03)
		})
	}
}
