package harmonic

import (
	"math"
)

// WriteFrame ingests f using the variant selected by mode.
func (p *Processor) WriteFrame(f Frame, mode Mode) {
	if mode == Single {
		p.WriteOneColor(f.Red, f.Green, f.Blue, f.Area, f.Interval)
		return
	}
	p.WriteRGB(f.Red, f.Green, f.Blue, f.Area, f.Interval)
}

// WriteRGB ingests one frame in dual channel mode: the chrominance channels
// R-G and R+G-2B are normalised independently and their z-score difference
// becomes the combined signal. The area normalised triple is also recorded in
// the PCA matrix whether or not PCA is enabled.
func (p *Processor) WriteRGB(red, green, blue, area uint64, interval float64) {
	a := p.normalisingArea(area)
	r := float64(red) / a
	g := float64(green) / a
	b := float64(blue) / a

	p.pcaRaw.Set(p.pcaPos, 0, r)
	p.pcaRaw.Set(p.pcaPos, 1, g)
	p.pcaRaw.Set(p.pcaPos, 2, b)

	p.ch1Mean = p.push(p.ch1, r-g, p.ch1Mean)
	p.ch2Mean = p.push(p.ch2, r+g-2*b, p.ch2Mean)

	p.times.Data[p.curpos] = interval
	p.observers.time(p.times.Data)

	z1 := zscore(p.ch1.Data[p.curpos], p.ch1Mean, p.stdDev(p.ch1, p.ch1Mean))
	z2 := zscore(p.ch2.Data[p.curpos], p.ch2Mean, p.stdDev(p.ch2, p.ch2Mean))

	p.phaseFilter(z1 - z2)
	p.observers.polarity(p.polarity.Data)

	p.observers.signal(p.signal.Data)
	p.observers.actualValues(ActualValues{
		Signal: p.signal.Data[p.curpos],
		C1:     r,
		C2:     g,
		C3:     b,
		BPM:    p.bpm,
		SNR:    p.snr,
	})

	p.pcaPos = Loop(p.pcaPos+1, p.BufferLength)
	p.advance()
}

// WriteOneColor ingests one frame in single channel mode using the channel
// chosen by SwitchToChannel, and feeds the slow output accumulator.
func (p *Processor) WriteOneColor(red, green, blue, area uint64, interval float64) {
	var sum uint64
	switch p.channel {
	case Red:
		sum = red
	case Blue:
		sum = blue
	default:
		sum = green
	}
	value := float64(sum) / p.normalisingArea(area)

	p.ch1Mean = p.push(p.ch1, value, p.ch1Mean)

	p.times.Data[p.curpos] = interval
	p.observers.time(p.times.Data)

	p.phaseFilter(zscore(value, p.ch1Mean, p.stdDev(p.ch1, p.ch1Mean)))
	p.observers.polarity(p.polarity.Data)

	p.accumulator += p.signal.Data[p.curpos]
	p.strobe--
	if p.strobe == 0 {
		p.slow.Data[p.slowPos] = p.accumulator / float64(p.Settings.StrobeFactor)
		p.observers.slowSignal(p.slow.Data)
		p.slowPos = Loop(p.slowPos+1, p.DataLength)
		p.strobe = p.Settings.StrobeFactor
		p.accumulator = 0
	}

	p.observers.signal(p.signal.Data)
	p.observers.actualValues(ActualValues{
		Signal: p.signal.Data[p.curpos],
		C1:     value,
		C2:     value,
		C3:     value,
		BPM:    p.bpm,
		SNR:    p.snr,
	})

	p.advance()
}

func (p *Processor) normalisingArea(area uint64) float64 {
	if area == 0 {
		p.log.Debug("frame reported zero area, using raw sums")
		return 1
	}
	return float64(area)
}

// push overwrites the current slot of rb and returns the running mean of the
// window after the write.
func (p *Processor) push(rb *RingBuffer, value, mean float64) float64 {
	mean += (value - rb.Data[p.curpos]) / float64(p.DataLength)
	rb.Data[p.curpos] = value
	return mean
}

// stdDev is recomputed over the whole window on every sample.
func (p *Processor) stdDev(rb *RingBuffer, mean float64) float64 {
	var sum float64
	for _, v := range rb.Data {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(p.DataLength-1))
}

// flatTolerance bounds the std, relative to the mean, below which a window is
// treated as constant. The running mean drifts by rounding error, so an exact
// zero test is not enough.
const flatTolerance = 1e-12

// zscore treats a constant window as carrying no signal.
func zscore(value, mean, std float64) float64 {
	if std <= flatTolerance*(1+math.Abs(mean)) {
		return 0
	}
	return (value - mean) / std
}

// phaseFilter smooths the combined signal, runs the short moving average and
// updates the polarity output. Polarity lags the input by about FilterLength
// samples.
func (p *Processor) phaseFilter(x float64) {
	length := p.Settings.FilterLength
	tap := Loop(p.ticks, length)

	p.taps.Data[tap] = x
	p.signal.Data[p.curpos] = (x + p.signal.At(p.curpos-1)) / 2

	p.filtered.Data[tap] = p.taps.Sum() / float64(length)

	// both compared outputs must be full averages before the pair is used
	if p.ticks >= 2*(length-1) {
		p.compareDelta(p.filtered.Data[tap] - p.filtered.At(tap-(length-1)))
	}

	p.polarity.Data[p.curpos] = p.output
}

// compareDelta pushes delta into the lag pair and advances the crossing
// parity on a sign change. An exact zero keeps the previous delta, so a
// crossing that passes through zero is still counted once.
func (p *Processor) compareDelta(delta float64) {
	if delta == 0 {
		return
	}

	p.lagPair.Set(p.deltas, delta)
	p.deltas++

	if p.lagPair.Data[0]*p.lagPair.Data[1] < 0 {
		p.zeroCrossing = (p.zeroCrossing + 1) % 2
		if p.zeroCrossing == 0 {
			p.output *= -1
		}
	}
}

func (p *Processor) advance() {
	p.curpos = Loop(p.curpos+1, p.DataLength)
	p.ticks++
}
