package viz

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Title   lipgloss.Style
	Panel   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	KeyHint lipgloss.Style
	Good    lipgloss.Style
	Warn    lipgloss.Style
	Bad     lipgloss.Style
	Paused  lipgloss.Style
}

// NewStyles builds the styles for t.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Label:   lipgloss.NewStyle().Foreground(t.Muted),
		Value:   lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		Muted:   lipgloss.NewStyle().Foreground(t.Muted),
		KeyHint: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Good:    lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		Warn:    lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Bad:     lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
		Paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
	}
}

// GradientText creates a gradient effect on text using color interpolation
func GradientText(text string, startColor, endColor lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	var result strings.Builder
	for i, c := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		color := lipgloss.Color(blendHex(string(startColor), string(endColor), t))
		result.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(c)))
	}
	return result.String()
}

// ProgressBar renders fraction in [0, 1] as a bar coloured by level.
func (s Styles) ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(width, filled))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return s.Good.Render(bar)
	case fraction > 0.4:
		return s.Warn.Render(bar)
	default:
		return s.Bad.Render(bar)
	}
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values between lo and hi.
func Sparkline(values []float64, lo, hi float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	rng := hi - lo
	if rng <= 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(sparkChars)-1))
		idx = max(0, min(len(sparkChars)-1, idx))
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// Separator is a decorative horizontal rule.
func (s Styles) Separator(width int) string {
	if width < 8 {
		return s.Muted.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return s.Muted.Render(left + " ◆ " + right)
}

// blendHex interpolates two #rrggbb colours. Non-hex inputs are treated as
// white.
func blendHex(from, to string, t float64) string {
	t = max(0, min(1, t))
	fr, fg, fb := parseHex(from)
	tr, tg, tb := parseHex(to)
	lerp := func(a, b int) int { return int(float64(a) + t*float64(b-a) + 0.5) }
	return hexColor(lerp(fr, tr), lerp(fg, tg), lerp(fb, tb))
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 255, 255, 255
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func hexColor(r, g, b int) string {
	clamp := func(v int) int { return max(0, min(255, v)) }
	const digits = "0123456789abcdef"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []int{clamp(r), clamp(g), clamp(b)} {
		out[1+2*i] = digits[v/16]
		out[2+2*i] = digits[v%16]
	}
	return string(out)
}
