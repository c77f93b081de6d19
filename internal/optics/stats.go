package optics

import (
	"math"

	"github.com/san-kum/fiberlight/internal/fiber"
)

// ExcellentMargin is the smallest TIR margin (degrees above the critical
// angle) for which a path is rated QualityExcellent.
const ExcellentMargin = 10.0

// Quality rates how comfortably a path stays guided by the fiber.
type Quality int

const (
	QualityExcellent Quality = iota
	QualityMarginal
	QualityPoor
)

func (q Quality) String() string {
	switch q {
	case QualityExcellent:
		return "EXCELLENT"
	case QualityMarginal:
		return "MARGINAL"
	default:
		return "POOR"
	}
}

func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// Stats summarizes a traced path for display.
type Stats struct {
	Length         float64   `json:"length"`       // summed length of the drawn path
	AxialLength    float64   `json:"axial_length"` // shortest possible route through the fiber
	Efficiency     float64   `json:"efficiency"`   // AxialLength/Length in percent, 0 unless transmitted
	WallBounces    int       `json:"wall_bounces"`
	Refractions    int       `json:"refractions"` // joint crossings
	Incidences     []float64 `json:"incidences"`  // incidence of every wall event, degrees
	MeanIncidence  float64   `json:"mean_incidence"`
	MinMargin      float64   `json:"min_margin"` // smallest wall incidence minus critical angle, degrees; 0 without wall events
	Quality        Quality   `json:"quality"`
	Terminal       Event     `json:"terminal"`
	FinalIntensity float64   `json:"final_intensity"`
	Transmitted    bool      `json:"transmitted"` // left through the far end face
}

// Analyze computes display statistics for a path traced through g.
func Analyze(g *fiber.Geometry, p Path) Stats {
	st := Stats{
		AxialLength: g.AxialLength(),
		MinMargin:   math.Inf(1),
		Quality:     QualityExcellent,
	}

	prev := p.Origin
	leaked := false
	sum := 0.0
	for _, v := range p.Vertices {
		st.Length += prev.Distance(v.Position)
		prev = v.Position

		if v.Event == Refract {
			st.Refractions++
		}
		if v.Boundary != fiber.BoundaryWall {
			continue
		}

		st.Incidences = append(st.Incidences, v.IncidenceDeg)
		sum += v.IncidenceDeg
		margin := v.IncidenceDeg - g.Segment(v.Segment).CriticalAngle()*180/math.Pi
		st.MinMargin = math.Min(st.MinMargin, margin)

		switch v.Event {
		case Reflect:
			st.WallBounces++
		case Exit:
			leaked = true
		}
	}

	if n := len(st.Incidences); n > 0 {
		st.MeanIncidence = sum / float64(n)
	}

	if last, ok := p.Last(); ok {
		st.Terminal = last.Event
		st.FinalIntensity = last.Intensity
		lastSeg := g.Len() - 1
		st.Transmitted = last.Event == Exit &&
			last.Boundary == fiber.BoundaryFace &&
			last.Segment == lastSeg &&
			last.Direction.Dot(g.Segment(lastSeg).Axis()) > 0
	}

	if st.Transmitted && st.Length > 0 {
		st.Efficiency = st.AxialLength / st.Length * 100
	}

	switch {
	case leaked:
		st.Quality = QualityPoor
	case st.MinMargin < ExcellentMargin:
		st.Quality = QualityMarginal
	}
	if len(st.Incidences) == 0 {
		st.MinMargin = 0
	}
	return st
}
