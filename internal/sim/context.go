package sim

import (
	"github.com/san-kum/fiberlight/internal/control"
	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/optics"
)

// InputReader provides the latest smoothed input. Latest must not block.
type InputReader interface {
	Latest() control.SmoothedInput
}

// Frame is everything the renderer needs to draw one frame.
type Frame struct {
	Input    control.SmoothedInput
	AngleDeg float64
	Ray      optics.Ray
	Path     optics.Path
	Stats    optics.Stats
}

// Context is the application context passed to the main loop. Geometry,
// Tracer and Mapping are required; Input is required for Tick; Cache is
// optional.
type Context struct {
	Geometry *fiber.Geometry
	Tracer   *optics.Tracer
	Input    InputReader
	Mapping  Mapping
	Cache    *optics.PathCache
}

// Tick computes the frame for the current input. It performs no I/O.
func (c *Context) Tick() Frame {
	in := c.Input.Latest()
	f := c.Trace(in.Value)
	f.Input = in
	return f
}

// Trace computes the frame for input value v, going through the cache when
// one is configured. With a cache, v is snapped to its bucket first so the
// ray and the cached path describe the same launch.
func (c *Context) Trace(v float64) Frame {
	launch := v
	if c.Cache != nil {
		launch = c.Cache.Round(v)
	}
	ray := c.Mapping.Ray(c.Geometry, launch)

	var path optics.Path
	if c.Cache != nil {
		path = c.Cache.GetOrTrace(launch, func() optics.Path {
			return c.Tracer.Trace(c.Geometry, ray)
		})
	} else {
		path = c.Tracer.Trace(c.Geometry, ray)
	}

	return Frame{
		Input:    control.SmoothedInput{Value: v},
		AngleDeg: c.Mapping.AngleDeg(launch),
		Ray:      ray,
		Path:     path,
		Stats:    optics.Analyze(c.Geometry, path),
	}
}
