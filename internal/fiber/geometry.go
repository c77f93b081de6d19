package fiber

import (
	"math"

	"github.com/san-kum/fiberlight/internal/geom"
)

// Epsilon is the absolute tolerance used for contiguity and length checks.
const Epsilon = 1e-6

// DefaultAmbientIndex is the index of the medium beyond the end faces.
const DefaultAmbientIndex = 1.0

// maxTurn is the largest joint turn accepted by Load (exclusive).
const maxTurn = math.Pi / 2

// BoundaryKind classifies the line a ray can cross when leaving a segment.
type BoundaryKind int

const (
	BoundaryNone BoundaryKind = iota
	BoundaryWall
	BoundaryJoint
	BoundaryFace
)

func (k BoundaryKind) String() string {
	switch k {
	case BoundaryWall:
		return "wall"
	case BoundaryJoint:
		return "joint"
	case BoundaryFace:
		return "face"
	default:
		return "none"
	}
}

// Boundary is one of the four lines enclosing a segment.
type Boundary struct {
	Kind       BoundaryKind
	Point      geom.Vec2 // any point on the line
	Normal     geom.Vec2 // unit normal pointing out of the segment
	Neighbor   int       // segment beyond the line, -1 outside the fiber
	OuterIndex float64   // refractive index beyond the line
}

// Side indexes into the array returned by Geometry.Boundaries.
const (
	SideLeft = iota
	SideRight
	SideEntry
	SideExit
)

// Geometry is a validated, immutable chain of segments.
type Geometry struct {
	segments   []Segment
	ambient    float64
	boundaries [][4]Boundary
	corners    [][4]geom.Vec2
	axial      float64
}

// Option customizes Load.
type Option func(*Geometry)

// WithAmbientIndex sets the refractive index beyond the two end faces.
func WithAmbientIndex(n float64) Option {
	return func(g *Geometry) { g.ambient = n }
}

// Load validates segments and builds a Geometry. The first violation is
// returned as a *ValidationError and no geometry is produced.
func Load(segments []Segment, opts ...Option) (*Geometry, error) {
	g := &Geometry{ambient: DefaultAmbientIndex}
	for _, opt := range opts {
		opt(g)
	}

	if len(segments) == 0 {
		return nil, invalid(0, "no segments")
	}
	if math.IsNaN(g.ambient) || g.ambient < 1.0 {
		return nil, invalid(-1, "ambient index %.4f must be >= 1.0", g.ambient)
	}

	for i, s := range segments {
		if err := validateSegment(i, s); err != nil {
			return nil, err
		}
		if i == 0 {
			continue
		}
		prev := segments[i-1]
		if !prev.End.ApproxEqual(s.Start, Epsilon) {
			return nil, invalid(i, "gap of %.6f between previous end %v and start %v",
				prev.End.Distance(s.Start), prev.End, s.Start)
		}
		if math.Abs(prev.Radius-s.Radius) > Epsilon {
			return nil, invalid(i, "radius %.4f does not match previous %.4f", s.Radius, prev.Radius)
		}
		if turn := turnAngle(prev, s); turn >= maxTurn {
			return nil, invalid(i, "joint turns by %.1f degrees (limit 90)", turn*180/math.Pi)
		}
	}

	for i, s := range segments {
		in, out := 0.0, 0.0
		if i > 0 {
			in = s.Radius * math.Tan(turnAngle(segments[i-1], s)/2)
		}
		if i < len(segments)-1 {
			out = s.Radius * math.Tan(turnAngle(s, segments[i+1])/2)
		}
		if s.Length() <= in+out+Epsilon {
			return nil, invalid(i, "length %.4f too short for mitred joints (needs > %.4f)", s.Length(), in+out)
		}
	}

	g.segments = make([]Segment, len(segments))
	copy(g.segments, segments)
	g.build()
	return g, nil
}

func validateSegment(i int, s Segment) error {
	if !s.Start.IsFinite() || !s.End.IsFinite() {
		return invalid(i, "non-finite coordinates")
	}
	if s.Length() <= Epsilon {
		return invalid(i, "zero length")
	}
	if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
		return invalid(i, "radius %.4f must be positive", s.Radius)
	}
	if !(s.CoreIndex > 1.0) || math.IsInf(s.CoreIndex, 0) {
		return invalid(i, "core index %.4f must be > 1.0", s.CoreIndex)
	}
	if !(s.CladdingIndex >= 1.0) || math.IsInf(s.CladdingIndex, 0) {
		return invalid(i, "cladding index %.4f must be >= 1.0", s.CladdingIndex)
	}
	if s.CoreIndex <= s.CladdingIndex {
		return invalid(i, "core index %.4f must exceed cladding index %.4f", s.CoreIndex, s.CladdingIndex)
	}
	return nil
}

func turnAngle(a, b Segment) float64 {
	c := a.Axis().Dot(b.Axis())
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

func (g *Geometry) build() {
	n := len(g.segments)
	g.boundaries = make([][4]Boundary, n)
	g.corners = make([][4]geom.Vec2, n)

	for i, s := range g.segments {
		u := s.Axis()
		left := u.Perp()
		g.axial += s.Length()

		b := &g.boundaries[i]
		b[SideLeft] = Boundary{
			Kind:       BoundaryWall,
			Point:      s.Start.Add(left.Scale(s.Radius)),
			Normal:     left,
			Neighbor:   -1,
			OuterIndex: s.CladdingIndex,
		}
		b[SideRight] = Boundary{
			Kind:       BoundaryWall,
			Point:      s.Start.Sub(left.Scale(s.Radius)),
			Normal:     left.Scale(-1),
			Neighbor:   -1,
			OuterIndex: s.CladdingIndex,
		}

		if i == 0 {
			b[SideEntry] = Boundary{Kind: BoundaryFace, Point: s.Start, Normal: u.Scale(-1), Neighbor: -1, OuterIndex: g.ambient}
		} else {
			prev := g.segments[i-1]
			m := prev.Axis().Add(u).Normalize()
			b[SideEntry] = Boundary{Kind: BoundaryJoint, Point: s.Start, Normal: m.Scale(-1), Neighbor: i - 1, OuterIndex: prev.CoreIndex}
		}

		if i == n-1 {
			b[SideExit] = Boundary{Kind: BoundaryFace, Point: s.End, Normal: u, Neighbor: -1, OuterIndex: g.ambient}
		} else {
			next := g.segments[i+1]
			m := u.Add(next.Axis()).Normalize()
			b[SideExit] = Boundary{Kind: BoundaryJoint, Point: s.End, Normal: m, Neighbor: i + 1, OuterIndex: next.CoreIndex}
		}

		g.corners[i] = [4]geom.Vec2{
			intersect(b[SideLeft].Point, u, b[SideEntry]),
			intersect(b[SideLeft].Point, u, b[SideExit]),
			intersect(b[SideRight].Point, u, b[SideExit]),
			intersect(b[SideRight].Point, u, b[SideEntry]),
		}
	}
}

// intersect returns where the line p + t·dir meets the boundary line.
func intersect(p, dir geom.Vec2, b Boundary) geom.Vec2 {
	den := dir.Dot(b.Normal)
	if den == 0 {
		return p
	}
	t := b.Point.Sub(p).Dot(b.Normal) / den
	return p.Add(dir.Scale(t))
}

// Len returns the number of segments.
func (g *Geometry) Len() int { return len(g.segments) }

// Segment returns segment i.
func (g *Geometry) Segment(i int) Segment { return g.segments[i] }

// Segments returns a copy of the segment chain.
func (g *Geometry) Segments() []Segment {
	out := make([]Segment, len(g.segments))
	copy(out, g.segments)
	return out
}

// AmbientIndex returns the index of the medium beyond the end faces.
func (g *Geometry) AmbientIndex() float64 { return g.ambient }

// Boundaries returns the four lines enclosing segment i, indexed by
// SideLeft, SideRight, SideEntry and SideExit.
func (g *Geometry) Boundaries(i int) [4]Boundary { return g.boundaries[i] }

// Corners returns the corners of segment i in the order left-entry,
// left-exit, right-exit, right-entry.
func (g *Geometry) Corners(i int) [4]geom.Vec2 { return g.corners[i] }

// AxialLength returns the summed length of all segment axes, which is the
// shortest path a ray can take through the fiber.
func (g *Geometry) AxialLength() float64 { return g.axial }

// Bounds returns the axis-aligned box enclosing every segment corner.
func (g *Geometry) Bounds() (min, max geom.Vec2) {
	min = geom.V(math.Inf(1), math.Inf(1))
	max = geom.V(math.Inf(-1), math.Inf(-1))
	for _, cs := range g.corners {
		for _, c := range cs {
			min.X = math.Min(min.X, c.X)
			min.Y = math.Min(min.Y, c.Y)
			max.X = math.Max(max.X, c.X)
			max.Y = math.Max(max.Y, c.Y)
		}
	}
	return min, max
}
