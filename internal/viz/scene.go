package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/optics"
)

// SceneMargin is the sub-pixel border left around the fiber.
const SceneMargin = 2

// FitProjection fits the fiber's bounding box onto the canvas.
func FitProjection(c *Canvas, g *fiber.Geometry) Projection {
	lo, hi := g.Bounds()
	w, h := c.PixelSize()
	return NewProjection(lo, hi, w, h, SceneMargin)
}

// DrawFiber draws the cladding walls, end faces and joints of g.
func DrawFiber(c *Canvas, p Projection, g *fiber.Geometry, t Theme) {
	for i := 0; i < g.Len(); i++ {
		cs := g.Corners(i)
		c.Stroke(p, cs[0], cs[1], t.Wall)
		c.Stroke(p, cs[3], cs[2], t.Wall)
		if i == 0 {
			c.Stroke(p, cs[0], cs[3], t.Wall)
		}
		if i == g.Len()-1 {
			c.Stroke(p, cs[1], cs[2], t.Wall)
		} else {
			c.Stroke(p, cs[1], cs[2], t.Muted)
		}
	}
}

// DrawPath draws the ray path with each leg coloured by the intensity it
// carries, then marks the vertices by event.
func DrawPath(c *Canvas, p Projection, path optics.Path, entryIntensity float64, t Theme) {
	from, intensity := path.Origin, entryIntensity
	for _, v := range path.Vertices {
		c.Stroke(p, from, v.Position, t.RayColor(intensity))
		from, intensity = v.Position, v.Intensity
	}
	for _, v := range path.Vertices {
		if col := EventColor(v.Event, t); col != "" {
			c.Mark(p, v.Position, col)
		}
	}
}

// EventColor returns the marker colour for an event, or "" for events that
// are not marked.
func EventColor(e optics.Event, t Theme) lipgloss.Color {
	switch e {
	case optics.Exit:
		return t.Exit
	case optics.Absorbed:
		return t.Absorbed
	default:
		return ""
	}
}

// DrawScene clears c and draws the fiber and the ray path.
func DrawScene(c *Canvas, g *fiber.Geometry, ray optics.Ray, path optics.Path, t Theme) {
	c.Clear()
	p := FitProjection(c, g)
	DrawFiber(c, p, g, t)
	DrawPath(c, p, path, ray.Intensity, t)
}
