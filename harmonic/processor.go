package harmonic

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// Channel selects the colour used by WriteOneColor.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

var ChannelNames = map[Channel]string{
	Red:   "red",
	Green: "green",
	Blue:  "blue",
}

func (c Channel) String() string {
	if name, ok := ChannelNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

func ParseChannel(name string) (Channel, error) {
	for c, n := range ChannelNames {
		if n == name {
			return c, nil
		}
	}
	return Green, fmt.Errorf("unknown channel %q, valid options are: red, green, blue", name)
}

// Mode selects which ingestion variant WriteFrame dispatches to.
type Mode int

const (
	Dual Mode = iota
	Single
)

var ModeNames = map[Mode]string{
	Dual:   "dual",
	Single: "single",
}

func (m Mode) String() string {
	if name, ok := ModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(name string) (Mode, error) {
	for m, n := range ModeNames {
		if n == name {
			return m, nil
		}
	}
	return Dual, fmt.Errorf("unknown mode %q, valid options are: dual, single", name)
}

// Numeric fallbacks reported when the spectral band carries no usable power.
const (
	MinSNR = -100.0
	MaxSNR = 100.0
)

const (
	initialFrameInterval  = 35.0 // ms, keeps early durations non-zero
	defaultLeftThreshold  = 70.0
	defaultRightThreshold = 80.0
	defaultZeroCrossings  = 4
)

// Settings fixes the filter lengths and frequency band of a Processor for its
// whole lifetime.
type Settings struct {
	FilterLength int     // taps of the phase filter moving average
	StrobeFactor int     // block size of the slow output
	BottomBPM    float64 // lower edge of the spectral search band
	TopBPM       float64 // upper edge of the spectral search band
	HalfInterval int     // bins either side of the peak counted as signal
	SNRThreshold float64 // dB, weighted SNR above which a frequency is reported
	Logger       logrus.FieldLogger
}

func DefaultSettings() Settings {
	return Settings{
		FilterLength: 5,
		StrobeFactor: 3,
		BottomBPM:    42,
		TopBPM:       270,
		HalfInterval: 2,
		SNRThreshold: 2.0,
	}
}

// Frame is one set of region sums delivered by the capture driver. Interval
// is the time since the previous frame in milliseconds.
type Frame struct {
	Red      uint64
	Green    uint64
	Blue     uint64
	Area     uint64
	Interval float64
}

// Processor turns per-frame colour sums into a heart rate estimate. It is not
// safe for concurrent use; callers serialise ingestion and analysis.
type Processor struct {
	DataLength   int
	BufferLength int
	Settings     Settings

	channel            Channel
	pcaEnabled         bool
	zeroCrossingTarget int

	curpos  int
	pcaPos  int
	slowPos int
	ticks   int

	ch1      *RingBuffer
	ch2      *RingBuffer
	times    *RingBuffer
	signal   *RingBuffer
	polarity *RingBuffer
	slow     *RingBuffer
	ch1Mean  float64
	ch2Mean  float64

	taps     *RingBuffer
	filtered *RingBuffer
	lagPair  *RingBuffer

	zeroCrossing int
	deltas       int
	output       float64
	strobe       int
	accumulator  float64

	pcaRaw   *mat.Dense
	pcaBasis mat.Dense
	pcaVars  []float64

	fft          *fourier.FFT
	fftInput     []float64
	coefficients []complex128
	amplitude    []float64

	leftThreshold  float64
	rightThreshold float64
	bpm            float64
	snr            float64

	observers observers
	log       logrus.FieldLogger
}

func NewProcessor(dataLength, bufferLength int, settings Settings) (*Processor, error) {
	if dataLength < 2 {
		return nil, fmt.Errorf("data length must be at least 2, got %d", dataLength)
	}

	if bufferLength < 2 || bufferLength > dataLength {
		return nil, fmt.Errorf("buffer length must be between 2 and data length %d, got %d", dataLength, bufferLength)
	}

	if settings.FilterLength < 2 {
		return nil, fmt.Errorf("filter length must be at least 2, got %d", settings.FilterLength)
	}

	if settings.StrobeFactor < 1 {
		return nil, fmt.Errorf("strobe factor must be positive, got %d", settings.StrobeFactor)
	}

	if settings.HalfInterval < 1 {
		return nil, fmt.Errorf("half interval must be positive, got %d", settings.HalfInterval)
	}

	if settings.BottomBPM < 0 || settings.TopBPM <= settings.BottomBPM {
		return nil, fmt.Errorf("search band must satisfy 0 <= bottom < top, got %.1f..%.1f bpm", settings.BottomBPM, settings.TopBPM)
	}

	logger := settings.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	p := &Processor{
		DataLength:   dataLength,
		BufferLength: bufferLength,
		Settings:     settings,

		channel:            Green,
		zeroCrossingTarget: defaultZeroCrossings,

		ch1:      NewRingBuffer(dataLength),
		ch2:      NewRingBuffer(dataLength),
		times:    NewRingBufferFilled(dataLength, initialFrameInterval),
		signal:   NewRingBuffer(dataLength),
		polarity: NewRingBuffer(dataLength),
		slow:     NewRingBuffer(dataLength),

		taps:     NewRingBuffer(settings.FilterLength),
		filtered: NewRingBuffer(settings.FilterLength),
		lagPair:  NewRingBuffer(2),

		output: 1.0,
		strobe: settings.StrobeFactor,

		pcaRaw:  mat.NewDense(bufferLength, 3, nil),
		pcaVars: make([]float64, 3),

		fft:          fourier.NewFFT(bufferLength),
		fftInput:     make([]float64, bufferLength),
		coefficients: make([]complex128, bufferLength/2+1),
		amplitude:    make([]float64, bufferLength/2+1),

		leftThreshold:  defaultLeftThreshold,
		rightThreshold: defaultRightThreshold,
		snr:            MinSNR,

		log: logger,
	}

	// alternate the polarity window so the first analysis is not degenerate
	for i := range p.polarity.Data {
		if i%4 != 0 {
			p.polarity.Data[i] = p.output
		} else {
			p.polarity.Data[i] = -p.output
		}
	}

	return p, nil
}

// Attach registers an observer for every future notification.
func (p *Processor) Attach(o Observer) {
	p.observers = append(p.observers, o)
}

func (p *Processor) SetPCA(enabled bool) {
	p.pcaEnabled = enabled
}

func (p *Processor) PCAEnabled() bool {
	return p.pcaEnabled
}

func (p *Processor) SwitchToChannel(c Channel) {
	p.channel = c
}

func (p *Processor) Channel() Channel {
	return p.channel
}

func (p *Processor) SetZeroCrossingTarget(n int) {
	p.zeroCrossingTarget = n
}

func (p *Processor) ZeroCrossingTarget() int {
	return p.zeroCrossingTarget
}

// SetThresholds replaces the plausible bpm range used for the in-range flag.
func (p *Processor) SetThresholds(low, high float64) {
	p.leftThreshold = low
	p.rightThreshold = high
}

func (p *Processor) Thresholds() (low, high float64) {
	return p.leftThreshold, p.rightThreshold
}

// Cursor is the slot the next sample will be written to.
func (p *Processor) Cursor() int {
	return p.curpos
}

// Last returns the most recent frequency and SNR reported by either
// estimator.
func (p *Processor) Last() (bpm, snr float64) {
	return p.bpm, p.snr
}

// WindowFull reports whether at least DataLength samples have been ingested.
func (p *Processor) WindowFull() bool {
	return p.ticks >= p.DataLength
}

func (p *Processor) String() (output string) {
	output += fmt.Sprintf("%24s   %d\n", "Data Length:", p.DataLength)
	output += fmt.Sprintf("%24s   %d\n", "Buffer Length:", p.BufferLength)
	output += fmt.Sprintf("%24s   %d\n", "Filter Length:", p.Settings.FilterLength)
	output += fmt.Sprintf("%24s   %d\n", "Strobe Factor:", p.Settings.StrobeFactor)
	output += fmt.Sprintf("%24s   %.0f-%.0f bpm\n", "Search Band:", p.Settings.BottomBPM, p.Settings.TopBPM)
	output += fmt.Sprintf("%24s   %.0f-%.0f bpm\n", "Plausible Range:", p.leftThreshold, p.rightThreshold)
	output += fmt.Sprintf("%24s   %.1f dB\n", "SNR Threshold:", p.Settings.SNRThreshold)
	output += fmt.Sprintf("%24s   %s\n", "Channel:", p.channel)
	output += fmt.Sprintf("%24s   %t\n", "PCA:", p.pcaEnabled)
	output += fmt.Sprintf("%24s   %d\n", "Zero Crossings:", p.zeroCrossingTarget)
	return
}
