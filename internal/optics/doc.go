// Package optics traces a light ray through a [fiber.Geometry] using
// geometric optics.
//
// The tracer walks the ray from boundary to boundary inside the fiber:
//
//   - [Reflect]: incidence at or above the interface's critical angle
//     (total internal reflection, inclusive boundary)
//   - [Refract]: Snell's law into the neighbouring segment; intensity is
//     multiplied by the configured transmission factor
//   - [Exit]: refraction out of the fiber, through a wall or an end face
//   - [Absorbed]: intensity fell below the threshold, the bounce cap was
//     reached, or no boundary could be found
//
// # Example
//
//	g, _ := fiber.Load(fiber.Straight(200, 8, 1.5, 1.0))
//	tr, _ := optics.New(optics.DefaultConfig())
//	path := tr.Trace(g, optics.NewRay(origin, dir, 1.0))
//	stats := optics.Analyze(g, path)
//
// Trace is total and side-effect free: it always terminates with an Exit or
// Absorbed vertex, and a Tracer may be shared between goroutines.
package optics
