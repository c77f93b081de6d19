package control

// Window is a fixed-capacity ring buffer of recent samples. When full, a
// push overwrites the oldest sample.
type Window struct {
	data []float64
	pos  int
	full bool
}

// NewWindow creates a Window holding up to size samples (at least one).
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{data: make([]float64, size)}
}

// Push adds a sample.
func (w *Window) Push(v float64) {
	w.data[w.pos] = v
	w.pos++
	if w.pos >= len(w.data) {
		w.pos = 0
		w.full = true
	}
}

func (w *Window) Len() int {
	if w.full {
		return len(w.data)
	}
	return w.pos
}

func (w *Window) Cap() int { return len(w.data) }

// Last returns the most recent sample.
func (w *Window) Last() (float64, bool) {
	if w.Len() == 0 {
		return 0, false
	}
	i := w.pos - 1
	if i < 0 {
		i = len(w.data) - 1
	}
	return w.data[i], true
}

// Slice returns the samples in insertion order.
func (w *Window) Slice() []float64 {
	n := w.Len()
	out := make([]float64, n)
	if w.full {
		copy(out, w.data[w.pos:])
		copy(out[len(w.data)-w.pos:], w.data[:w.pos])
	} else {
		copy(out, w.data[:w.pos])
	}
	return out
}

// Reset empties the window.
func (w *Window) Reset() {
	w.pos = 0
	w.full = false
}
