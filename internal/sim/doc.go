// Package sim ties the pieces together once per frame.
//
// A [Context] holds the immutable fiber geometry, the tracer, the input
// reader and the [Mapping] from input to ray. [Context.Tick] reads the
// latest smoothed input without blocking, traces the resulting ray and
// returns a [Frame] for the renderer. [Sweep] traces a range of input
// values in parallel for offline analysis.
package sim
