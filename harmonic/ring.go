package harmonic

// Loop maps a signed offset k onto [0, n) using floor semantics, so that
// Loop(-1, n) == n-1 rather than -1.
func Loop(k, n int) int {
	r := k % n
	if r < 0 {
		r += n
	}
	return r
}

// RingBuffer is a fixed capacity window addressed by signed offsets.
// Capacity never changes after NewRingBuffer.
type RingBuffer struct {
	Data []float64
}

func NewRingBuffer(length int) *RingBuffer {
	return &RingBuffer{
		Data: make([]float64, length),
	}
}

// NewRingBufferFilled returns a buffer with every slot set to value.
func NewRingBufferFilled(length int, value float64) *RingBuffer {
	rb := NewRingBuffer(length)
	rb.Fill(value)
	return rb
}

func (rb *RingBuffer) Len() int {
	return len(rb.Data)
}

func (rb *RingBuffer) At(k int) float64 {
	return rb.Data[Loop(k, len(rb.Data))]
}

func (rb *RingBuffer) Set(k int, value float64) {
	rb.Data[Loop(k, len(rb.Data))] = value
}

func (rb *RingBuffer) Fill(value float64) {
	for i := range rb.Data {
		rb.Data[i] = value
	}
}

// Sum adds up every slot in the buffer.
func (rb *RingBuffer) Sum() (sum float64) {
	for _, v := range rb.Data {
		sum += v
	}
	return sum
}

// Snapshot returns a copy of the buffer in storage order.
func (rb *RingBuffer) Snapshot() []float64 {
	return snapshot(rb.Data)
}

func snapshot(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	return out
}
