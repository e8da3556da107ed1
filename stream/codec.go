package stream

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"gopulse/harmonic"
	"gopulse/pipeline"
)

// FrameSize is the wire size of one frame: red, green, blue and area as
// little endian uint64 followed by the interval in ms as a float64.
const FrameSize = 40

var ErrShortFrame = errors.New("frame message is not a multiple of 40 bytes")

// EncodeFrames packs frames back to back into one message.
func EncodeFrames(frames ...harmonic.Frame) []byte {
	out := make([]byte, FrameSize*len(frames))

	for i, f := range frames {
		b := out[i*FrameSize:]
		binary.LittleEndian.PutUint64(b[0:], f.Red)
		binary.LittleEndian.PutUint64(b[8:], f.Green)
		binary.LittleEndian.PutUint64(b[16:], f.Blue)
		binary.LittleEndian.PutUint64(b[24:], f.Area)
		binary.LittleEndian.PutUint64(b[32:], math.Float64bits(f.Interval))
	}

	return out
}

func DecodeFrames(data []byte) ([]harmonic.Frame, error) {
	if len(data)%FrameSize != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrShortFrame, len(data))
	}

	frames := make([]harmonic.Frame, len(data)/FrameSize)
	for i := range frames {
		b := data[i*FrameSize:]
		frames[i] = harmonic.Frame{
			Red:      binary.LittleEndian.Uint64(b[0:]),
			Green:    binary.LittleEndian.Uint64(b[8:]),
			Blue:     binary.LittleEndian.Uint64(b[16:]),
			Area:     binary.LittleEndian.Uint64(b[24:]),
			Interval: math.Float64frombits(binary.LittleEndian.Uint64(b[32:])),
		}
	}

	return frames, nil
}

const (
	MethodSpectral  = "spectral"
	MethodCrossings = "crossings"
)

// EstimateMsg is the JSON document published for every analysis.
type EstimateMsg struct {
	Ts       int64   `json:"ts"`
	BPM      float64 `json:"bpm"`
	SNR      float64 `json:"snr"`
	InRange  bool    `json:"inRange"`
	TooNoisy bool    `json:"tooNoisy"`
	Method   string  `json:"method"`
}

// EstimateMessages turns one analysis into its wire messages: always the
// spectral estimate and, when it was computed, the zero-crossing count.
func EstimateMessages(result pipeline.Result, counted bool, ts time.Time) ([][]byte, error) {
	msgs := []EstimateMsg{{
		Ts:       ts.UnixMilli(),
		BPM:      result.Spectral.BPM,
		SNR:      result.Spectral.SNR,
		InRange:  result.Spectral.InRange,
		TooNoisy: result.Spectral.TooNoisy,
		Method:   MethodSpectral,
	}}

	if counted {
		msgs = append(msgs, EstimateMsg{
			Ts:     ts.UnixMilli(),
			BPM:    result.Counted,
			Method: MethodCrossings,
		})
	}

	out := make([][]byte, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encoding %s estimate: %w", m.Method, err)
		}
		out = append(out, b)
	}
	return out, nil
}
