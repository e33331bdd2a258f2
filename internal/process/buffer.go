package process

import "sync"

// DefaultOutputLimit bounds how much output is retained per process.
const DefaultOutputLimit = 64 * 1024

// RingBuffer keeps the last Limit bytes written to it.
type RingBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

// NewRingBuffer returns a buffer retaining at most limit bytes.
func NewRingBuffer(limit int) *RingBuffer {
	if limit <= 0 {
		limit = DefaultOutputLimit
	}
	return &RingBuffer{limit: limit}
}

// Write implements io.Writer.
func (r *RingBuffer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(p)
	if n >= r.limit {
		r.buf = append(r.buf[:0], p[n-r.limit:]...)
		return n, nil
	}
	if overflow := len(r.buf) + n - r.limit; overflow > 0 {
		r.buf = append(r.buf[:0], r.buf[overflow:]...)
	}
	r.buf = append(r.buf, p...)
	return n, nil
}

func (r *RingBuffer) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.buf)
}
