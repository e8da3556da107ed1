package audioio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnFileTypeFromExtension(t *testing.T) {
	tests := map[string]struct {
		path     string
		expected FileType
		hasError bool
	}{
		"aif":       {path: "trace.aif", expected: TypeAIFF},
		"mixed aif": {path: "trace.aiFf", expected: TypeAIFF},
		"wav":       {path: "/tmp/trace.wav", expected: TypeWAVE},
		"mixed wav": {path: "trace.Wave", expected: TypeWAVE},
		"text":      {path: "trace.txt", expected: TypeInvalid, hasError: true},
		"none":      {path: "trace", expected: TypeInvalid, hasError: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := returnFileTypeFromExtension(tc.path)
			assert.Equal(t, tc.expected, result)
			if tc.hasError {
				assert.EqualError(t, err, "invalid file type")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTraceRoundTrip(t *testing.T) {
	tests := map[string]struct {
		name     string
		expected FileType
	}{
		"wave": {name: "trace.wav", expected: TypeWAVE},
		"aiff": {name: "trace.aif", expected: TypeAIFF},
	}

	signal := []float64{0, 0.5, -1, 1, 0.25}
	polarity := []float64{1, 1, -1, -1}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.name)
			require.NoError(t, WriteTraces(path, 25, signal, polarity))

			fileType, err := returnFileType(path)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, fileType)

			traces, sampleRate, err := ReadTraces(path)
			require.NoError(t, err)
			assert.Equal(t, 25, sampleRate)
			require.Len(t, traces, 2)
			require.Len(t, traces[0], len(signal))
			require.Len(t, traces[1], len(signal))

			for i, v := range signal {
				assert.InDelta(t, v, traces[0][i], 1.0/32767)
			}
			assert.Equal(t, []float64{1, 1, -1, -1, 0}, traces[1])
		})
	}
}

func TestWriteTracesScalesToFullScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiet.wav")
	require.NoError(t, WriteTraces(path, 30, []float64{0.001, -0.002}, []float64{0, 0}))

	traces, _, err := ReadTraces(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, traces[0][0], 1.0/32767)
	assert.InDelta(t, -1, traces[0][1], 1.0/32767)
	assert.Equal(t, []float64{0, 0}, traces[1])
}

func TestWriteTracesErrors(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, WriteTraces(filepath.Join(dir, "none.wav"), 25))
	assert.Error(t, WriteTraces(filepath.Join(dir, "empty.wav"), 25, []float64{}))
	assert.Error(t, WriteTraces(filepath.Join(dir, "trace.mp3"), 25, []float64{1}))
}

func TestReturnFileTypeInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some text here"), 0o644))

	result, err := returnFileType(path)
	assert.Equal(t, TypeInvalid, result)
	assert.EqualError(t, err, "invalid file type")

	_, err = NewAudioReader(path)
	assert.Error(t, err)
}
