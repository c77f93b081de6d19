package fiber

import (
	"math"

	"github.com/san-kum/fiberlight/internal/geom"
)

// Segment is one straight piece of fiber.
type Segment struct {
	Start         geom.Vec2
	End           geom.Vec2
	Radius        float64 // core half-width
	CoreIndex     float64
	CladdingIndex float64
}

// Length returns the axial length of the segment.
func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

// Axis returns the unit direction from Start to End.
func (s Segment) Axis() geom.Vec2 {
	return s.End.Sub(s.Start).Normalize()
}

// CriticalAngle returns the core/cladding critical angle in radians.
func (s Segment) CriticalAngle() float64 {
	return CriticalAngle(s.CoreIndex, s.CladdingIndex)
}

// CriticalAngle returns asin(n2/n1) for light travelling from n1 into n2.
// When n2 >= n1 total internal reflection cannot occur and +Inf is returned.
func CriticalAngle(n1, n2 float64) float64 {
	if n2 >= n1 {
		return math.Inf(1)
	}
	return math.Asin(n2 / n1)
}
