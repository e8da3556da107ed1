package framesource

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopulse/harmonic"
)

func TestRead(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected []harmonic.Frame
		hasError bool
	}{
		"with header": {
			input:    "red,green,blue,area,interval_ms\n1200,1000,800,10,40\n",
			expected: []harmonic.Frame{{Red: 1200, Green: 1000, Blue: 800, Area: 10, Interval: 40}},
		},
		"without header": {
			input: "1,2,3,4,33.3\n5,6,7,8,0\n",
			expected: []harmonic.Frame{
				{Red: 1, Green: 2, Blue: 3, Area: 4, Interval: 33.3},
				{Red: 5, Green: 6, Blue: 7, Area: 8, Interval: 0},
			},
		},
		"spaces after commas": {
			input:    "1, 2, 3, 4, 40\n",
			expected: []harmonic.Frame{{Red: 1, Green: 2, Blue: 3, Area: 4, Interval: 40}},
		},
		"empty": {
			input: "",
		},
		"negative sum": {
			input:    "-1,2,3,4,40\n",
			hasError: true,
		},
		"negative interval": {
			input:    "1,2,3,4,-40\n",
			hasError: true,
		},
		"missing column": {
			input:    "1,2,3,4\n",
			hasError: true,
		},
		"header in the middle": {
			input:    "1,2,3,4,40\nred,green,blue,area,interval_ms\n",
			hasError: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			frames, err := Read(strings.NewReader(tc.input))
			if tc.hasError {
				assert.ErrorIs(t, err, ErrMalformedRecord)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, frames)
		})
	}
}

func TestWriteEmitsHeader(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []harmonic.Frame{{Red: 3, Green: 2, Blue: 1, Area: 7, Interval: 33.5}})
	require.NoError(t, err)

	assert.Equal(t, "red,green,blue,area,interval_ms\n3,2,1,7,33.5\n", buf.String())
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recording.csv")
	frames := []harmonic.Frame{
		{Red: 1200000, Green: 1000000, Blue: 800000, Area: 10000, Interval: 40},
		{Red: 1200100, Green: 1000200, Blue: 799900, Area: 10000, Interval: 41.25},
	}

	require.NoError(t, WriteFile(path, frames))

	read, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, frames, read)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nothing.csv"))
	assert.Error(t, err)
}
