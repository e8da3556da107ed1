package pipeline

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopulse/harmonic"
	"gopulse/synth"
)

func newProcessor(t *testing.T, dataLength, bufferLength int) *harmonic.Processor {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	settings := harmonic.DefaultSettings()
	settings.Logger = logger

	p, err := harmonic.NewProcessor(dataLength, bufferLength, settings)
	require.NoError(t, err)
	return p
}

// drain runs the driver and collects what it reports.
func drain(d *Driver, source Source) (progress []int, err error) {
	progressCh := make(chan int)
	errorsCh := make(chan error)
	done := make(chan bool)

	go d.Run(source, progressCh, errorsCh, done)

	for {
		select {
		case current := <-progressCh:
			progress = append(progress, current)
		case err := <-errorsCh:
			return progress, err
		case <-done:
			return progress, nil
		}
	}
}

type failingSource struct {
	remaining int
}

var errCapture = errors.New("capture lost")

func (s *failingSource) Next() (harmonic.Frame, error) {
	if s.remaining == 0 {
		return harmonic.Frame{}, errCapture
	}
	s.remaining--
	return harmonic.Frame{Red: 1, Green: 1, Blue: 1, Area: 1, Interval: 40}, nil
}

func TestNewDriverValidation(t *testing.T) {
	p := newProcessor(t, 64, 64)

	tests := map[string]struct {
		processor *harmonic.Processor
		options   Options
		hasError  bool
	}{
		"valid":         {processor: p, options: Options{Every: 1}},
		"no processor":  {options: Options{Every: 1}, hasError: true},
		"zero interval": {processor: p, options: Options{Every: 0}, hasError: true},
		"bad mode":      {processor: p, options: Options{Every: 1, Mode: harmonic.Mode(9)}, hasError: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := NewDriver(tc.processor, tc.options)
			if tc.hasError {
				assert.Error(t, err)
				assert.Nil(t, d)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPushAnalysisCadence(t *testing.T) {
	d, err := NewDriver(newProcessor(t, 64, 64), Options{Mode: harmonic.Single, Every: 16})
	require.NoError(t, err)

	s := synth.NewPulse(25, 72)
	analysed := []int{}
	for i := 0; i < 200; i++ {
		if result, ok := d.Push(s.Next()); ok {
			analysed = append(analysed, result.Frame)
		}
	}

	assert.Equal(t, 128, d.Warmup())
	assert.Equal(t, []int{128, 144, 160, 176, 192}, analysed)
	assert.Len(t, d.Results, 5)
	assert.Equal(t, 200, d.Frames())
}

func TestPushCountsCrossings(t *testing.T) {
	d, err := NewDriver(newProcessor(t, 256, 256), Options{Mode: harmonic.Single, Every: 256, CountCrossings: true})
	require.NoError(t, err)

	s := synth.NewPulse(25, 70.3125)
	for _, f := range s.Frames(3 * 256) {
		d.Push(f)
	}

	require.Len(t, d.Results, 2)
	last := d.Results[1]
	assert.InEpsilon(t, 70.3125, last.Counted, 0.05)
}

func TestRunReportsProgress(t *testing.T) {
	tests := map[string]struct {
		mode harmonic.Mode
		bpm  float64
	}{
		"single": {mode: harmonic.Single, bpm: 72},
		"dual":   {mode: harmonic.Dual, bpm: 66},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := NewDriver(newProcessor(t, 256, 256), Options{Mode: tc.mode, Every: 25})
			require.NoError(t, err)

			frames := synth.NewPulse(25, tc.bpm).Frames(1000)
			progress, err := drain(d, NewFrameSlice(frames))
			require.NoError(t, err)

			require.NotEmpty(t, progress)
			assert.Equal(t, 0, progress[0])
			assert.Equal(t, 100, progress[len(progress)-1])
			assert.IsIncreasing(t, progress[1:])

			summary := Summarize(d.Results)
			assert.Equal(t, len(d.Results), summary.Analyses)
			assert.Equal(t, summary.Analyses, summary.Accepted)
			assert.InEpsilon(t, tc.bpm, summary.MeanBPM, 0.03)
		})
	}
}

func TestRunStopsOnSourceError(t *testing.T) {
	d, err := NewDriver(newProcessor(t, 64, 64), Options{Mode: harmonic.Dual, Every: 1})
	require.NoError(t, err)

	_, err = drain(d, &failingSource{remaining: 10})

	assert.ErrorIs(t, err, errCapture)
	assert.Equal(t, 10, d.Frames())
}

func TestSummarize(t *testing.T) {
	tests := map[string]struct {
		results  []Result
		expected Summary
	}{
		"empty": {
			expected: Summary{},
		},
		"all noisy": {
			results: []Result{
				{Frame: 1, Spectral: harmonic.Estimate{SNR: -3, TooNoisy: true}},
			},
			expected: Summary{Analyses: 1},
		},
		"mixed": {
			results: []Result{
				{Frame: 1, Spectral: harmonic.Estimate{BPM: 70, SNR: 4, InRange: true}},
				{Frame: 2, Spectral: harmonic.Estimate{SNR: -1, TooNoisy: true}},
				{Frame: 3, Spectral: harmonic.Estimate{BPM: 90, SNR: 8}},
			},
			expected: Summary{Analyses: 3, Accepted: 2, InRange: 1, MeanBPM: 80, MeanSNR: 6, LastBPM: 90},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Summarize(tc.results))
		})
	}
}
