package harmonic

// CountFrequency estimates the heart rate from the polarity window by timing
// ZeroCrossingTarget sign changes, walking backwards from the newest sample.
// Both walks are bounded by DataLength steps, so a window that never
// changes sign yields a best-effort answer instead of looping.
func (p *Processor) CountFrequency() float64 {
	position := p.curpos - 1
	watchdog := 0
	remaining := p.zeroCrossingTarget
	elapsed := 0.0

	// skip the run the newest sample belongs to
	for p.polarity.At(position)*p.polarity.At(position-1) > 0 && watchdog < p.DataLength {
		position--
		watchdog++
	}

	for remaining > 0 && watchdog < p.DataLength {
		if p.polarity.At(position)*p.polarity.At(position-1) < 0 {
			remaining--
		}
		position--
		watchdog++
		elapsed += p.times.At(position)
	}
	elapsed -= p.times.At(position)

	bpm := 0.0
	if p.zeroCrossingTarget > 1 && elapsed > 0 {
		bpm = 60.0 * float64(p.zeroCrossingTarget-1) / (elapsed / 1000.0)
	}

	p.bpm = bpm
	p.observers.frequency(bpm, 0, true)

	return bpm
}
