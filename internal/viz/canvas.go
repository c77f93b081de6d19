package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fiberlight/internal/geom"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a braille canvas with one colour per character cell. The last
// coloured write to a cell wins.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	colors        [][]lipgloss.Color
}

func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		colors: make([][]lipgloss.Color, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.colors[i] = make([]lipgloss.Color, w)
	}
	c.Clear()
	return c
}

// PixelSize returns the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (w, h int) { return c.Width * 2, c.Height * 4 }

// Set sets a sub-pixel at (x, y) without changing the cell colour.
func (c *Canvas) Set(x, y int) { c.SetColor(x, y, "") }

// SetColor sets a sub-pixel and, when col is non-empty, colours its cell.
func (c *Canvas) SetColor(x, y int, col lipgloss.Color) {
	if x < 0 || y < 0 {
		return
	}
	cx, cy := x/2, y/4
	if cx >= c.Width || cy >= c.Height {
		return
	}
	c.Grid[cy][cx] |= rune(pixelMap[y%4][x%2])
	if col != "" {
		c.colors[cy][cx] = col
	}
}

// IsSet reports whether the sub-pixel at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
			c.colors[i][j] = ""
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, col lipgloss.Color) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.SetColor(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Stroke draws the world-space segment a→b through the projection.
func (c *Canvas) Stroke(p Projection, a, b geom.Vec2, col lipgloss.Color) {
	x0, y0 := p.Apply(a)
	x1, y1 := p.Apply(b)
	c.DrawLine(x0, y0, x1, y1, col)
}

// Mark draws a small plus centred on a world-space point.
func (c *Canvas) Mark(p Projection, v geom.Vec2, col lipgloss.Color) {
	x, y := p.Apply(v)
	c.SetColor(x, y, col)
	c.SetColor(x-1, y, col)
	c.SetColor(x+1, y, col)
	c.SetColor(x, y-1, col)
	c.SetColor(x, y+1, col)
}

// String renders the canvas without colour.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render renders the canvas with cell colours, batching runs of equal
// colour into one lipgloss style call.
func (c *Canvas) Render() string {
	var b strings.Builder
	for y, row := range c.Grid {
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && c.colors[y][x] == c.colors[y][start] {
				continue
			}
			run := string(row[start:x])
			if col := c.colors[y][start]; col != "" {
				run = lipgloss.NewStyle().Foreground(col).Render(run)
			}
			b.WriteString(run)
			start = x
		}
		if y < len(c.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Projection maps world coordinates onto canvas sub-pixels with a uniform
// scale, so the fiber keeps its aspect ratio. World y grows upwards.
type Projection struct {
	min    geom.Vec2
	scale  float64
	offX   float64
	offY   float64
	height int
}

// NewProjection fits the world box [min, max] into a w×h sub-pixel area,
// leaving margin sub-pixels on every side.
func NewProjection(min, max geom.Vec2, w, h, margin int) Projection {
	spanX := math.Max(max.X-min.X, 1e-9)
	spanY := math.Max(max.Y-min.Y, 1e-9)
	availX := math.Max(float64(w-1-2*margin), 1)
	availY := math.Max(float64(h-1-2*margin), 1)
	scale := math.Min(availX/spanX, availY/spanY)

	return Projection{
		min:    min,
		scale:  scale,
		offX:   float64(margin) + (availX-spanX*scale)/2,
		offY:   float64(margin) + (availY-spanY*scale)/2,
		height: h,
	}
}

// Apply returns the sub-pixel for a world point.
func (p Projection) Apply(v geom.Vec2) (x, y int) {
	fx := p.offX + (v.X-p.min.X)*p.scale
	fy := p.offY + (v.Y-p.min.Y)*p.scale
	return int(math.Round(fx)), p.height - 1 - int(math.Round(fy))
}

// Scale returns sub-pixels per world unit.
func (p Projection) Scale() float64 { return p.scale }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
