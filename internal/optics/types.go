package optics

import (
	"math"

	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/geom"
)

// Event is what happened to the ray at a path vertex.
type Event int

const (
	Refract Event = iota
	Reflect
	Exit
	Absorbed
)

func (e Event) String() string {
	switch e {
	case Refract:
		return "refract"
	case Reflect:
		return "reflect"
	case Exit:
		return "exit"
	case Absorbed:
		return "absorbed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the event ends a trace.
func (e Event) Terminal() bool {
	return e == Exit || e == Absorbed
}

// MarshalText encodes the event by name for JSON and YAML output.
func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Ray is a light ray entering the fiber.
type Ray struct {
	Origin    geom.Vec2
	Direction geom.Vec2 // unit length
	Intensity float64   // 0.0 - 1.0
}

// NewRay normalizes direction and clamps intensity to [0, 1].
func NewRay(origin, direction geom.Vec2, intensity float64) Ray {
	return Ray{
		Origin:    origin,
		Direction: direction.Normalize(),
		Intensity: math.Max(0, math.Min(1, intensity)),
	}
}

// PathVertex is a single interaction of the ray with a boundary.
type PathVertex struct {
	Position     geom.Vec2          `json:"position"`
	Segment      int                `json:"segment"`
	Event        Event              `json:"event"`
	Intensity    float64            `json:"intensity"` // after the event
	Boundary     fiber.BoundaryKind `json:"-"`
	IncidenceDeg float64            `json:"incidence_deg"`
	Direction    geom.Vec2          `json:"direction"` // outgoing
}

// Path is the traced route: the ray origin followed by the vertices in
// order. The final vertex is always Exit or Absorbed. Consumers must treat
// a Path as read-only; cached paths are shared between frames.
type Path struct {
	Origin   geom.Vec2    `json:"origin"`
	Vertices []PathVertex `json:"vertices"`
}

// Points returns the origin followed by every vertex position.
func (p Path) Points() []geom.Vec2 {
	pts := make([]geom.Vec2, 0, len(p.Vertices)+1)
	pts = append(pts, p.Origin)
	for _, v := range p.Vertices {
		pts = append(pts, v.Position)
	}
	return pts
}

// Last returns the terminal vertex, or false for an empty path.
func (p Path) Last() (PathVertex, bool) {
	if len(p.Vertices) == 0 {
		return PathVertex{}, false
	}
	return p.Vertices[len(p.Vertices)-1], true
}
