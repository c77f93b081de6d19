package control

import (
	"math"
	"sync/atomic"
)

// ManualSource passes a value set by the user interface to the sampler.
// Set and Nudge may be called from any goroutine.
type ManualSource struct {
	bits atomic.Uint64
}

func NewManual(initial float64) *ManualSource {
	m := &ManualSource{}
	m.Set(initial)
	return m
}

func (m *ManualSource) Name() string { return "manual" }

// Set stores v clamped to [0, 1].
func (m *ManualSource) Set(v float64) {
	if math.IsNaN(v) {
		return
	}
	m.bits.Store(math.Float64bits(clamp01(v)))
}

// Nudge moves the value by delta, clamped to [0, 1].
func (m *ManualSource) Nudge(delta float64) {
	for {
		old := m.bits.Load()
		next := math.Float64bits(clamp01(math.Float64frombits(old) + delta))
		if m.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Value returns the current value without going through Poll.
func (m *ManualSource) Value() float64 {
	return math.Float64frombits(m.bits.Load())
}

// Poll never fails.
func (m *ManualSource) Poll() (float64, error) {
	return m.Value(), nil
}
