package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/geom"
	"github.com/san-kum/fiberlight/internal/optics"
	"github.com/san-kum/fiberlight/internal/viz"
)

const svgMargin = 0.05

// viewport maps world coordinates into an SVG box with uniform scale and
// y pointing up.
type viewport struct {
	min    geom.Vec2
	scale  float64
	offX   float64
	offY   float64
	width  float64
	height float64
}

func newViewport(lo, hi geom.Vec2, width, height int) viewport {
	w, h := float64(width), float64(height)
	availW, availH := w*(1-2*svgMargin), h*(1-2*svgMargin)
	spanX := math.Max(hi.X-lo.X, 1e-9)
	spanY := math.Max(hi.Y-lo.Y, 1e-9)
	scale := math.Min(availW/spanX, availH/spanY)
	return viewport{
		min:    lo,
		scale:  scale,
		offX:   (w - spanX*scale) / 2,
		offY:   (h - spanY*scale) / 2,
		width:  w,
		height: h,
	}
}

func (v viewport) apply(p geom.Vec2) (x, y float64) {
	x = v.offX + (p.X-v.min.X)*v.scale
	y = v.height - (v.offY + (p.Y-v.min.Y)*v.scale)
	return x, y
}

func svgHeader(sb *strings.Builder, width, height int, bg string) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, bg)
}

// FiberToSVG draws the fiber outline and the ray path. Each leg of the path
// is drawn with an opacity equal to the intensity it carries; exit and
// absorption vertices get a marker.
func FiberToSVG(g *fiber.Geometry, ray optics.Ray, path optics.Path, width, height int, theme viz.Theme) string {
	if g == nil || width <= 0 || height <= 0 {
		return ""
	}
	lo, hi := g.Bounds()
	vp := newViewport(lo, hi, width, height)

	var sb strings.Builder
	svgHeader(&sb, width, height, string(theme.Background))

	fmt.Fprintf(&sb, `<g fill="none" stroke="%s" stroke-width="1">
`, theme.Wall)
	for i := 0; i < g.Len(); i++ {
		cs := g.Corners(i)
		sb.WriteString(`<polygon points="`)
		for j, c := range cs {
			x, y := vp.apply(c)
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.2f,%.2f", x, y)
		}
		fmt.Fprintf(&sb, `" data-segment="%d" data-core="%g" data-cladding="%g"/>
`, i, g.Segment(i).CoreIndex, g.Segment(i).CladdingIndex)
	}
	sb.WriteString("</g>\n")

	fmt.Fprintf(&sb, `<g stroke="%s" stroke-width="1.5" stroke-linecap="round">
`, theme.Ray)
	from, intensity := path.Origin, ray.Intensity
	for _, v := range path.Vertices {
		x0, y0 := vp.apply(from)
		x1, y1 := vp.apply(v.Position)
		fmt.Fprintf(&sb, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-opacity="%.3f"/>
`, x0, y0, x1, y1, intensity)
		from, intensity = v.Position, v.Intensity
	}
	sb.WriteString("</g>\n")

	for _, v := range path.Vertices {
		col := viz.EventColor(v.Event, theme)
		if col == "" {
			continue
		}
		x, y := vp.apply(v.Position)
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s" data-event="%s"/>
`, x, y, col, v.Event)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// Point is one sample of a curve.
type Point struct{ X, Y float64 }

// CurveToSVG plots a polyline of points, such as efficiency against launch
// angle over a sweep, scaled to fill the box with 10% padding.
func CurveToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	svgHeader(&sb, width, height, "#0a0a0a")
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}

	sb.WriteString(`"/>
</svg>
`)
	return sb.String()
}
