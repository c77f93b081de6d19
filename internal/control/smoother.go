package control

import (
	"math"
	"sort"
)

const (
	DefaultEMAAlpha = 0.15
	DefaultEMASnap  = 0.001
)

// Smoother reduces the window to one output value. It is called once per
// accepted sample, after the sample was pushed.
type Smoother interface {
	Name() string
	Smooth(w *Window) float64
}

// Mean averages the window.
type Mean struct{}

func (Mean) Name() string { return "mean" }

func (Mean) Smooth(w *Window) float64 {
	s := w.Slice()
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Median returns the middle of the window, averaging the two middle samples
// for an even count. It rejects single-sample spikes.
type Median struct{}

func (Median) Name() string { return "median" }

func (Median) Smooth(w *Window) float64 {
	s := w.Slice()
	n := len(s)
	if n == 0 {
		return 0
	}
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// EMA moves its output a fraction Alpha of the way towards the newest
// sample on every call and snaps onto it once closer than Snap.
type EMA struct {
	Alpha float64
	Snap  float64

	value  float64
	primed bool
}

func NewEMA(alpha, snap float64) *EMA {
	if !(alpha > 0 && alpha <= 1) {
		alpha = DefaultEMAAlpha
	}
	if snap < 0 {
		snap = 0
	}
	return &EMA{Alpha: alpha, Snap: snap}
}

func (e *EMA) Name() string { return "ema" }

func (e *EMA) Smooth(w *Window) float64 {
	target, ok := w.Last()
	if !ok {
		return e.value
	}
	if !e.primed {
		e.value = target
		e.primed = true
		return e.value
	}
	diff := target - e.value
	if math.Abs(diff) < e.Snap {
		e.value = target
	} else {
		e.value += diff * e.Alpha
	}
	return e.value
}

// Reset forgets the current output.
func (e *EMA) Reset() {
	e.value = 0
	e.primed = false
}
