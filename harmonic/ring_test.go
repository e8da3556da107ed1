package harmonic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoop(t *testing.T) {
	tests := map[string]struct {
		k, n     int
		expected int
	}{
		"zero":                 {k: 0, n: 5, expected: 0},
		"inside":               {k: 3, n: 5, expected: 3},
		"wraps forward":        {k: 7, n: 5, expected: 2},
		"minus one":            {k: -1, n: 5, expected: 4},
		"exact negative cycle": {k: -10, n: 5, expected: 0},
		"large negative":       {k: -256 - 3, n: 256, expected: 253},
		"modulus two":          {k: -3, n: 2, expected: 1},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, Loop(test.k, test.n))
		})
	}
}

func TestRingBufferSignedAccess(t *testing.T) {
	rb := NewRingBuffer(4)

	rb.Set(-1, 3.0)
	rb.Set(5, 7.0)

	assert.Equal(t, []float64{0, 7, 0, 3}, rb.Data)
	assert.Equal(t, 3.0, rb.At(3))
	assert.Equal(t, 7.0, rb.At(-3))
	assert.Equal(t, 10.0, rb.Sum())

	snap := rb.Snapshot()
	snap[1] = 100
	assert.Equal(t, 7.0, rb.Data[1], "snapshot must not alias the buffer")

	filled := NewRingBufferFilled(3, 35)
	assert.Equal(t, []float64{35, 35, 35}, filled.Data)
}
