package harmonic

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Estimate is the outcome of one spectral analysis. BPM and InRange are only
// meaningful when TooNoisy is false.
type Estimate struct {
	BPM      float64
	SNR      float64
	InRange  bool
	TooNoisy bool
}

// ComputeFrequency analyses the most recent BufferLength samples and reports
// the dominant frequency in the search band together with a weighted SNR.
func (p *Processor) ComputeFrequency() Estimate {
	first := p.curpos - p.BufferLength

	duration := 0.0 // ms
	for i := 0; i < p.BufferLength; i++ {
		duration += p.times.At(first + i)
	}

	projected := false
	if p.pcaEnabled {
		if projected = p.projectPrincipal(); projected {
			p.observers.pcaProjection(p.fftInput)
		}
	}

	if !projected {
		for i := range p.fftInput {
			p.fftInput[i] = p.signal.At(first + i)
		}
	}

	p.coefficients = p.fft.Coefficients(p.coefficients, p.fftInput)
	for i, c := range p.coefficients {
		p.amplitude[i] = real(c)*real(c) + imag(c)*imag(c)
	}
	p.observers.spectrum(p.amplitude)

	bins := len(p.amplitude)
	bottom := lo.Clamp(int(p.Settings.BottomBPM*duration/60000.0), 0, bins)
	top := lo.Clamp(int(p.Settings.TopBPM*duration/60000.0), 0, bins)
	half := p.Settings.HalfInterval

	peak := strongestBin(p.amplitude, bottom+half, top-half)
	if peak < 0 {
		return p.tooNoisy(MinSNR)
	}

	signalPower := 0.0
	noisePower := 0.0
	for i := bottom; i < top; i++ {
		if i >= peak-half && i <= peak+half {
			signalPower += p.amplitude[i]
		} else {
			noisePower += p.amplitude[i]
		}
	}
	snr := decibels(signalPower, noisePower)

	weightedIndex := 0.0
	harmonicPower := 0.0
	for i := peak - half; i <= peak+half; i++ {
		harmonicPower += p.amplitude[i]
		weightedIndex += float64(i) * p.amplitude[i]
	}
	centroid := weightedIndex / harmonicPower

	bias := math.Abs(float64(peak) - centroid)
	weight := (float64(half+1) - bias) / float64(half+1)
	snr *= weight * weight * weight * weight

	if snr <= p.Settings.SNRThreshold {
		return p.tooNoisy(snr)
	}

	bpm := centroid * 60000.0 / duration
	inRange := bpm >= p.leftThreshold && bpm <= p.rightThreshold

	p.bpm = bpm
	p.snr = snr
	p.observers.frequency(bpm, snr, inRange)

	return Estimate{BPM: bpm, SNR: snr, InRange: inRange}
}

// Spectrum returns a copy of the amplitude spectrum from the last analysis.
func (p *Processor) Spectrum() []float64 {
	return snapshot(p.amplitude)
}

func (p *Processor) tooNoisy(snr float64) Estimate {
	p.snr = snr
	p.observers.tooNoisy(snr)
	return Estimate{SNR: snr, TooNoisy: true}
}

// strongestBin returns the index of the largest positive power in
// [from, to), or -1 when there is none. Ties keep the lowest index.
func strongestBin(power []float64, from, to int) int {
	peak := -1
	maxPower := 0.0
	for i := from; i < to; i++ {
		if maxPower < power[i] {
			maxPower = power[i]
			peak = i
		}
	}
	return peak
}

// decibels clamps degenerate power ratios to MinSNR and MaxSNR.
func decibels(signalPower, noisePower float64) float64 {
	switch {
	case signalPower <= 0:
		return MinSNR
	case noisePower <= 0:
		return MaxSNR
	}
	return lo.Clamp(10*math.Log10(signalPower/noisePower), MinSNR, MaxSNR)
}

// projectPrincipal fills the FFT input with the PCA matrix projected onto its
// first principal axis, oldest row first. It reports false when the
// decomposition fails or the window has no variance.
func (p *Processor) projectPrincipal() bool {
	var pc stat.PC
	if ok := pc.PrincipalComponents(p.pcaRaw, nil); !ok {
		return false
	}

	p.pcaVars = pc.VarsTo(nil)
	if len(p.pcaVars) == 0 || p.pcaVars[0] <= 0 {
		return false
	}
	pc.VectorsTo(&p.pcaBasis)

	var means [3]float64
	column := make([]float64, p.BufferLength)
	for j := range means {
		mat.Col(column, j, p.pcaRaw)
		means[j] = stat.Mean(column, nil)
	}

	scale := math.Sqrt(p.pcaVars[0])
	for i := range p.fftInput {
		row := Loop(p.pcaPos+i, p.BufferLength)
		projection := 0.0
		for j := range means {
			projection += (p.pcaRaw.At(row, j) - means[j]) * p.pcaBasis.At(j, 0)
		}
		p.fftInput[i] = projection / scale
	}

	return true
}
