package config

import (
	"errors"
	"sort"

	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/geom"
)

var ErrUnknownPreset = errors.New("config: unknown fiber preset")

// Preset is a named fiber geometry.
type Preset struct {
	Description string
	Segments    func() []fiber.Segment
}

var Presets = map[string]Preset{
	"straight": {
		Description: "glass core in air, critical angle 41.8 deg",
		Segments: func() []fiber.Segment {
			return fiber.Straight(200, 20, 1.5, 1.0)
		},
	},
	"telecom": {
		Description: "silica step-index fiber, critical angle 86.0 deg",
		Segments: func() []fiber.Segment {
			return fiber.Straight(200, 10, 1.4475, 1.4440)
		},
	},
	"bend": {
		Description: "S-bend of four segments in air",
		Segments: func() []fiber.Segment {
			return fiber.Polyline([]geom.Vec2{
				geom.V(0, 0), geom.V(60, 0), geom.V(110, 20), geom.V(160, 20), geom.V(220, 0),
			}, 12, 1.5, 1.0)
		},
	},
	"graded": {
		Description: "stepped core index falling along the fiber",
		Segments: func() []fiber.Segment {
			return fiber.Graded(240, 15, []float64{1.52, 1.50, 1.48, 1.46}, 1.40)
		},
	},
	"lossy": {
		Description: "alternating core indices, many refracting joints",
		Segments: func() []fiber.Segment {
			return fiber.Graded(240, 15, []float64{1.50, 1.56, 1.50, 1.56, 1.50, 1.56, 1.50, 1.56}, 1.45)
		},
	},
}

func GetPreset(name string) (Preset, bool) {
	p, ok := Presets[name]
	return p, ok
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
