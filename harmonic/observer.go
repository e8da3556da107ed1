package harmonic

// ActualValues carries the point values of the most recent sample. In dual
// channel mode C1..C3 are the area normalised red, green and blue; in single
// channel mode all three hold the selected channel.
type ActualValues struct {
	Signal float64
	C1     float64
	C2     float64
	C3     float64
	BPM    float64
	SNR    float64
}

// Observer receives point-in-time snapshots. Slices handed to an observer are
// copies and may be retained.
type Observer interface {
	TimeUpdated(times []float64)
	SignalUpdated(signal []float64)
	PolarityUpdated(polarity []float64)
	SlowSignalUpdated(slow []float64)
	PCAProjectionUpdated(projection []float64)
	ActualValues(values ActualValues)
	SpectrumUpdated(spectrum []float64)
	FrequencyUpdated(bpm, snr float64, inRange bool)
	TooNoisy(snr float64)
}

// ObserverFuncs adapts a set of optional callbacks to Observer. Nil fields are
// skipped.
type ObserverFuncs struct {
	OnTime          func(times []float64)
	OnSignal        func(signal []float64)
	OnPolarity      func(polarity []float64)
	OnSlowSignal    func(slow []float64)
	OnPCAProjection func(projection []float64)
	OnActualValues  func(values ActualValues)
	OnSpectrum      func(spectrum []float64)
	OnFrequency     func(bpm, snr float64, inRange bool)
	OnTooNoisy      func(snr float64)
}

func (o ObserverFuncs) TimeUpdated(times []float64) {
	if o.OnTime != nil {
		o.OnTime(times)
	}
}

func (o ObserverFuncs) SignalUpdated(signal []float64) {
	if o.OnSignal != nil {
		o.OnSignal(signal)
	}
}

func (o ObserverFuncs) PolarityUpdated(polarity []float64) {
	if o.OnPolarity != nil {
		o.OnPolarity(polarity)
	}
}

func (o ObserverFuncs) SlowSignalUpdated(slow []float64) {
	if o.OnSlowSignal != nil {
		o.OnSlowSignal(slow)
	}
}

func (o ObserverFuncs) PCAProjectionUpdated(projection []float64) {
	if o.OnPCAProjection != nil {
		o.OnPCAProjection(projection)
	}
}

func (o ObserverFuncs) ActualValues(values ActualValues) {
	if o.OnActualValues != nil {
		o.OnActualValues(values)
	}
}

func (o ObserverFuncs) SpectrumUpdated(spectrum []float64) {
	if o.OnSpectrum != nil {
		o.OnSpectrum(spectrum)
	}
}

func (o ObserverFuncs) FrequencyUpdated(bpm, snr float64, inRange bool) {
	if o.OnFrequency != nil {
		o.OnFrequency(bpm, snr, inRange)
	}
}

func (o ObserverFuncs) TooNoisy(snr float64) {
	if o.OnTooNoisy != nil {
		o.OnTooNoisy(snr)
	}
}

// observers fans a notification out to every attached Observer, copying
// slice payloads per observer.
type observers []Observer

func (obs observers) time(data []float64) {
	for _, o := range obs {
		o.TimeUpdated(snapshot(data))
	}
}

func (obs observers) signal(data []float64) {
	for _, o := range obs {
		o.SignalUpdated(snapshot(data))
	}
}

func (obs observers) polarity(data []float64) {
	for _, o := range obs {
		o.PolarityUpdated(snapshot(data))
	}
}

func (obs observers) slowSignal(data []float64) {
	for _, o := range obs {
		o.SlowSignalUpdated(snapshot(data))
	}
}

func (obs observers) pcaProjection(data []float64) {
	for _, o := range obs {
		o.PCAProjectionUpdated(snapshot(data))
	}
}

func (obs observers) actualValues(values ActualValues) {
	for _, o := range obs {
		o.ActualValues(values)
	}
}

func (obs observers) spectrum(data []float64) {
	for _, o := range obs {
		o.SpectrumUpdated(snapshot(data))
	}
}

func (obs observers) frequency(bpm, snr float64, inRange bool) {
	for _, o := range obs {
		o.FrequencyUpdated(bpm, snr, inRange)
	}
}

func (obs observers) tooNoisy(snr float64) {
	for _, o := range obs {
		o.TooNoisy(snr)
	}
}
