// Package metrics aggregates statistics over many traced paths, for example
// across an input sweep.
package metrics

import "github.com/san-kum/fiberlight/internal/optics"

// Metric folds path statistics into a single number. Implementations are
// not safe for concurrent use.
type Metric interface {
	Name() string
	Observe(st optics.Stats)
	Value() float64
	Reset()
}

// Default returns a fresh set of the standard sweep metrics.
func Default() []Metric {
	return []Metric{
		NewTransmission(),
		NewMeanBounces(),
		NewMeanPathLength(),
		NewMeanEfficiency(),
		NewMeanIntensity(),
		NewGuided(),
	}
}
