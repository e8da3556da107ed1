package audioio

import (
	"errors"
	"io"
	"math"

	"github.com/samber/lo"
)

const traceBitDepth = 16

// WriteTraces writes each trace as its own channel. Traces are scaled so
// their largest magnitude hits full scale; shorter traces are zero padded.
func WriteTraces(path string, sampleRate int, traces ...[]float64) error {
	if len(traces) == 0 {
		return errors.New("no traces to write")
	}

	length := lo.Max(lo.Map(traces, func(trace []float64, _ int) int {
		return len(trace)
	}))
	if length == 0 {
		return errors.New("traces are empty")
	}

	writer, err := NewAudioWriter(AudioFile{
		Filepath:   path,
		NumChans:   len(traces),
		BitDepth:   traceBitDepth,
		SampleRate: sampleRate,
	})
	if err != nil {
		return err
	}

	if err := writer.Create(length); err != nil {
		return err
	}

	for c, trace := range traces {
		if err := writer.InterleaveChannel(c, scale(trace, length)); err != nil {
			writer.Close()
			return err
		}
	}

	if err := writer.WriteNext(); err != nil {
		writer.Close()
		return err
	}

	return writer.Close()
}

// ReadTraces reads every channel back as samples in [-1, 1].
func ReadTraces(path string) (traces [][]float64, sampleRate int, err error) {
	reader, err := NewAudioReader(path)
	if err != nil {
		return nil, 0, err
	}

	if err := reader.Open(1024); err != nil {
		return nil, 0, err
	}
	defer reader.Close()

	full := float64(IntMaxSignedValue[reader.GetBitDepth()])
	traces = make([][]float64, reader.GetNumChans())

	for {
		_, numFrames, err := reader.ReadNext()
		if err != nil && err != io.EOF {
			return nil, 0, err
		}
		if numFrames == 0 {
			break
		}

		for c := range traces {
			data, err := reader.ExtractChannel(c, numFrames)
			if err != nil {
				return nil, 0, err
			}
			for _, v := range data {
				traces[c] = append(traces[c], float64(v)/full)
			}
		}
	}

	return traces, reader.GetSampleRate(), nil
}

func scale(trace []float64, length int) []int {
	out := make([]int, length)

	peak := 0.0
	for _, v := range trace {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 {
		return out
	}

	full := float64(IntMaxSignedValue[traceBitDepth])
	for i, v := range trace {
		out[i] = int(math.Round(v / peak * full))
	}

	return out
}
