// Package pipeline drives a harmonic.Processor from a frame source: every
// frame is ingested and, once the processor has settled, the spectral
// analyzer runs every Every frames.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"

	"gopulse/harmonic"
)

// Source yields frames until it returns io.EOF.
type Source interface {
	Next() (harmonic.Frame, error)
}

// Sized sources know how many frames they hold, which enables progress
// reporting.
type Sized interface {
	Len() int
}

// FrameSlice is a Source over frames already in memory.
type FrameSlice struct {
	frames []harmonic.Frame
	pos    int
}

func NewFrameSlice(frames []harmonic.Frame) *FrameSlice {
	return &FrameSlice{frames: frames}
}

func (s *FrameSlice) Next() (harmonic.Frame, error) {
	if s.pos >= len(s.frames) {
		return harmonic.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *FrameSlice) Len() int {
	return len(s.frames)
}

// Result is one analysis taken after Frame frames had been ingested.
type Result struct {
	Frame    int
	Spectral harmonic.Estimate
	Counted  float64 // zero-crossing bpm, 0 unless counting is enabled
}

type Options struct {
	Mode           harmonic.Mode
	Every          int  // frames between analyses
	CountCrossings bool // also run the zero-crossing estimator
}

type Driver struct {
	Processor *harmonic.Processor
	Options   Options
	Results   []Result

	frames int
}

func NewDriver(p *harmonic.Processor, options Options) (*Driver, error) {
	if p == nil {
		return nil, errors.New("driver needs a processor")
	}

	if options.Every < 1 {
		return nil, fmt.Errorf("analysis interval must be at least one frame, got %d", options.Every)
	}

	if _, ok := harmonic.ModeNames[options.Mode]; !ok {
		return nil, fmt.Errorf("unknown mode %d", options.Mode)
	}

	return &Driver{Processor: p, Options: options}, nil
}

// Frames is the number of frames pushed so far.
func (d *Driver) Frames() int {
	return d.frames
}

// Warmup is the number of frames after which both the normalisation window
// and the analysis window hold only ingested samples.
func (d *Driver) Warmup() int {
	return d.Processor.DataLength + d.Processor.BufferLength
}

// Push ingests one frame and runs the analysis when one is due.
func (d *Driver) Push(f harmonic.Frame) (Result, bool) {
	d.Processor.WriteFrame(f, d.Options.Mode)
	d.frames++

	if d.frames < d.Warmup() || d.frames%d.Options.Every != 0 {
		return Result{}, false
	}

	result := Result{
		Frame:    d.frames,
		Spectral: d.Processor.ComputeFrequency(),
	}

	if d.Options.CountCrossings {
		result.Counted = d.Processor.CountFrequency()
	}

	d.Results = append(d.Results, result)
	return result, true
}

// Run pushes every frame from source. Progress is reported as 0-100 when the
// source is Sized, the first error ends the run, and done is signalled once
// the source is exhausted.
func (d *Driver) Run(
	source Source,
	progress chan<- int,
	errors chan<- error,
	done chan<- bool,
) {
	total := 0
	if sized, ok := source.(Sized); ok {
		total = sized.Len()
	}

	lastProgress := 0
	progress <- 0
	for {
		f, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			errors <- err
			return
		}

		d.Push(f)

		if total > 0 {
			if current := d.frames * 100 / total; current != lastProgress {
				lastProgress = current
				progress <- current
			}
		}
	}
	done <- true
}

// Summary condenses the results of a run.
type Summary struct {
	Analyses int
	Accepted int // analyses that were not too noisy
	InRange  int
	MeanBPM  float64 // over accepted analyses
	MeanSNR  float64 // over accepted analyses
	LastBPM  float64
}

func Summarize(results []Result) Summary {
	accepted := lo.Filter(results, func(r Result, _ int) bool {
		return !r.Spectral.TooNoisy
	})

	summary := Summary{
		Analyses: len(results),
		Accepted: len(accepted),
		InRange: len(lo.Filter(accepted, func(r Result, _ int) bool {
			return r.Spectral.InRange
		})),
	}

	if len(accepted) == 0 {
		return summary
	}

	summary.MeanBPM = lo.Sum(lo.Map(accepted, func(r Result, _ int) float64 {
		return r.Spectral.BPM
	})) / float64(len(accepted))
	summary.MeanSNR = lo.Sum(lo.Map(accepted, func(r Result, _ int) float64 {
		return r.Spectral.SNR
	})) / float64(len(accepted))
	summary.LastBPM = accepted[len(accepted)-1].Spectral.BPM

	return summary
}
