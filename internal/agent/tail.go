package agent

import "sync"

// stderrTailSize bounds how much agent stderr is kept for error reports.
const stderrTailSize = 16 * 1024

// tailBuffer is an io.Writer that keeps only the last size bytes written.
// A verbose agent cannot grow it past size.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	start int // index of the oldest byte once the buffer has wrapped
	full  bool
}

func newTailBuffer(size int) *tailBuffer {
	if size <= 0 {
		size = stderrTailSize
	}
	return &tailBuffer{buf: make([]byte, 0, size)}
}

// Write appends p, dropping the oldest bytes when over capacity.
func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	size := cap(t.buf)
	if n >= size {
		t.buf = append(t.buf[:0], p[n-size:]...)
		t.start, t.full = 0, true
		return n, nil
	}
	for _, b := range p {
		if !t.full {
			t.buf = append(t.buf, b)
			t.full = len(t.buf) == size
			continue
		}
		t.buf[t.start] = b
		t.start = (t.start + 1) % size
	}
	return n, nil
}

// String returns the retained bytes, oldest first.
func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.full || t.start == 0 {
		return string(t.buf)
	}
	return string(t.buf[t.start:]) + string(t.buf[:t.start])
}
