// Package fiber models an optical fiber as an ordered chain of straight
// segments.
//
// Each [Segment] is an axis from Start to End with a core half-width
// (Radius), a core refractive index and a cladding refractive index. A
// [Geometry] is built with [Load], which validates the chain and returns a
// [ValidationError] for the first offending segment:
//
//   - the core index must exceed the cladding index (otherwise no total
//     internal reflection is possible); a cladding of 1.0 is bare glass in
//     air
//   - segments must be contiguous: each End matches the next Start and the
//     radius is continuous across the joint
//   - segments must have non-zero length and joints must turn by less
//     than 90 degrees
//
// Joints between segments are mitred, so every segment is a convex region
// bounded by two walls and two joint lines (or end faces at either end of
// the fiber). [Geometry.Boundaries] exposes those lines with outward
// normals for the tracer.
//
// # Thread Safety
//
// A Geometry is immutable once loaded and may be shared by any number of
// concurrent traces without synchronization.
package fiber
