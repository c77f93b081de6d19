package export

import (
	"encoding/json"
	"io"
	"math"

	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/geom"
	"github.com/san-kum/fiberlight/internal/optics"
	"github.com/san-kum/fiberlight/internal/sim"
)

// SegmentData is the JSON form of a fiber segment.
type SegmentData struct {
	Start         geom.Vec2 `json:"start"`
	End           geom.Vec2 `json:"end"`
	Radius        float64   `json:"radius"`
	CoreIndex     float64   `json:"core_index"`
	CladdingIndex float64   `json:"cladding_index"`
	CriticalDeg   *float64  `json:"critical_deg,omitempty"` // absent when the cladding cannot reflect
}

// RayData is the JSON form of the launched ray.
type RayData struct {
	Origin    geom.Vec2 `json:"origin"`
	Direction geom.Vec2 `json:"direction"`
	Intensity float64   `json:"intensity"`
}

// TraceData is a self-contained record of one traced frame.
type TraceData struct {
	Fiber        string        `json:"fiber"`
	Mapping      string        `json:"mapping"`
	Input        float64       `json:"input"`
	AngleDeg     float64       `json:"angle_deg"`
	AmbientIndex float64       `json:"ambient_index"`
	Segments     []SegmentData `json:"segments"`
	Ray          RayData       `json:"ray"`
	Path         optics.Path   `json:"path"`
	Stats        optics.Stats  `json:"stats"`
}

// NewTraceData collects the geometry and a frame into one record.
func NewTraceData(fiberName, mapping string, g *fiber.Geometry, f sim.Frame) TraceData {
	segs := g.Segments()
	data := TraceData{
		Fiber:        fiberName,
		Mapping:      mapping,
		Input:        f.Input.Value,
		AngleDeg:     f.AngleDeg,
		AmbientIndex: g.AmbientIndex(),
		Segments:     make([]SegmentData, len(segs)),
		Ray:          RayData{Origin: f.Ray.Origin, Direction: f.Ray.Direction, Intensity: f.Ray.Intensity},
		Path:         f.Path,
		Stats:        f.Stats,
	}
	for i, s := range segs {
		data.Segments[i] = SegmentData{
			Start:         s.Start,
			End:           s.End,
			Radius:        s.Radius,
			CoreIndex:     s.CoreIndex,
			CladdingIndex: s.CladdingIndex,
		}
		if c := s.CriticalAngle(); !math.IsInf(c, 0) {
			deg := c * 180 / math.Pi
			data.Segments[i].CriticalDeg = &deg
		}
	}
	return data
}

// WriteTraceJSON writes data as indented JSON.
func WriteTraceJSON(w io.Writer, data TraceData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
