package sim

import (
	"math"

	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/optics"
)

const DefaultMaxTiltDeg = 87.0

// Mapping turns the smoothed input scalar into the ray that enters the
// fiber. Values outside [0, 1] are clamped.
type Mapping interface {
	Name() string
	// AngleDeg is the launch angle shown to the user.
	AngleDeg(v float64) float64
	Ray(g *fiber.Geometry, v float64) optics.Ray
}

// TiltMapping tilts the ray away from the fiber axis, like a slider: 0.5
// launches along the axis, 0 and 1 tilt by MaxTiltDeg to either side.
type TiltMapping struct {
	MaxTiltDeg float64
}

func (TiltMapping) Name() string { return "tilt" }

func (m TiltMapping) AngleDeg(v float64) float64 {
	maxTilt := m.MaxTiltDeg
	if maxTilt <= 0 {
		maxTilt = DefaultMaxTiltDeg
	}
	return (clamp01(v) - 0.5) * 2 * maxTilt
}

func (m TiltMapping) Ray(g *fiber.Geometry, v float64) optics.Ray {
	phi := m.AngleDeg(v) * math.Pi / 180
	s := g.Segment(0)
	u := s.Axis()
	d := u.Scale(math.Cos(phi)).Add(u.Perp().Scale(math.Sin(phi)))
	return optics.NewRay(s.Start, d, 1.0)
}

// IncidenceMapping maps the input linearly onto the incidence angle at the
// left wall of the first segment.
type IncidenceMapping struct {
	MinDeg float64
	MaxDeg float64
}

func (IncidenceMapping) Name() string { return "incidence" }

func (m IncidenceMapping) AngleDeg(v float64) float64 {
	return m.MinDeg + clamp01(v)*(m.MaxDeg-m.MinDeg)
}

func (m IncidenceMapping) Ray(g *fiber.Geometry, v float64) optics.Ray {
	return EntryRay(g, m.AngleDeg(v))
}

// EntryRay launches a full-intensity ray from the start of segment 0's axis
// so that it meets the left wall at incidenceDeg from the wall normal.
// Incidences of 90 degrees or more travel along the axis.
func EntryRay(g *fiber.Geometry, incidenceDeg float64) optics.Ray {
	s := g.Segment(0)
	u := s.Axis()
	th := math.Max(0, math.Min(90, incidenceDeg)) * math.Pi / 180
	d := u.Perp().Scale(math.Cos(th)).Add(u.Scale(math.Sin(th)))
	if incidenceDeg >= 90 {
		d = u
	}
	return optics.NewRay(s.Start, d, 1.0)
}

// WallIncidenceDeg returns the incidence on the first wall a tilted ray
// meets, 90 for an axial ray.
func WallIncidenceDeg(tiltDeg float64) float64 {
	return 90 - math.Abs(tiltDeg)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, v))
}
