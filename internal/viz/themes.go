package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme for the live view and SVG export.
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Wall       lipgloss.Color // fiber outline
	Ray        lipgloss.Color // full-intensity beam
	RayDim     lipgloss.Color // beam near the absorption threshold
	Reflect    lipgloss.Color
	Exit       lipgloss.Color
	Absorbed   lipgloss.Color
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Good       lipgloss.Color
	Warn       lipgloss.Color
	Bad        lipgloss.Color
}

var (
	ThemeDefault = Theme{
		Name:       "default",
		Primary:    lipgloss.Color("#00ffff"),
		Wall:       lipgloss.Color("#5f87af"),
		Ray:        lipgloss.Color("#ffff5f"),
		RayDim:     lipgloss.Color("#875f00"),
		Reflect:    lipgloss.Color("#00ff87"),
		Exit:       lipgloss.Color("#ff5f5f"),
		Absorbed:   lipgloss.Color("#8a8a8a"),
		Background: lipgloss.Color("#0a0a0a"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666688"),
		Good:       lipgloss.Color("#00ff88"),
		Warn:       lipgloss.Color("#ffcc00"),
		Bad:        lipgloss.Color("#ff4444"),
	}

	ThemeLaser = Theme{
		Name:       "laser",
		Primary:    lipgloss.Color("#00ff00"),
		Wall:       lipgloss.Color("#005500"),
		Ray:        lipgloss.Color("#ff0000"),
		RayDim:     lipgloss.Color("#550000"),
		Reflect:    lipgloss.Color("#88ff88"),
		Exit:       lipgloss.Color("#ffff00"),
		Absorbed:   lipgloss.Color("#444444"),
		Background: lipgloss.Color("#001100"),
		Text:       lipgloss.Color("#00ff00"),
		Muted:      lipgloss.Color("#005500"),
		Good:       lipgloss.Color("#88ff88"),
		Warn:       lipgloss.Color("#ffff00"),
		Bad:        lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:       "minimal",
		Primary:    lipgloss.Color("#ffffff"),
		Wall:       lipgloss.Color("#888888"),
		Ray:        lipgloss.Color("#0088ff"),
		RayDim:     lipgloss.Color("#003366"),
		Reflect:    lipgloss.Color("#cccccc"),
		Exit:       lipgloss.Color("#ffaa00"),
		Absorbed:   lipgloss.Color("#555555"),
		Background: lipgloss.Color("#000000"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#888888"),
		Good:       lipgloss.Color("#00ff00"),
		Warn:       lipgloss.Color("#ffaa00"),
		Bad:        lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:       "ocean",
		Primary:    lipgloss.Color("#00a8cc"),
		Wall:       lipgloss.Color("#0077be"),
		Ray:        lipgloss.Color("#ffd700"),
		RayDim:     lipgloss.Color("#665500"),
		Reflect:    lipgloss.Color("#00ff88"),
		Exit:       lipgloss.Color("#ff4444"),
		Absorbed:   lipgloss.Color("#4488aa"),
		Background: lipgloss.Color("#001a33"),
		Text:       lipgloss.Color("#e0f0ff"),
		Muted:      lipgloss.Color("#4488aa"),
		Good:       lipgloss.Color("#00ff88"),
		Warn:       lipgloss.Color("#ffcc00"),
		Bad:        lipgloss.Color("#ff4444"),
	}

	ThemeSunset = Theme{
		Name:       "sunset",
		Primary:    lipgloss.Color("#ff6b6b"),
		Wall:       lipgloss.Color("#8b6b8c"),
		Ray:        lipgloss.Color("#feca57"),
		RayDim:     lipgloss.Color("#6b5020"),
		Reflect:    lipgloss.Color("#ff9ff3"),
		Exit:       lipgloss.Color("#ff4757"),
		Absorbed:   lipgloss.Color("#5a4a5b"),
		Background: lipgloss.Color("#2d1b2e"),
		Text:       lipgloss.Color("#fff5f5"),
		Muted:      lipgloss.Color("#8b6b8c"),
		Good:       lipgloss.Color("#5fd068"),
		Warn:       lipgloss.Color("#ffc048"),
		Bad:        lipgloss.Color("#ff4757"),
	}

	Themes = []Theme{
		ThemeDefault,
		ThemeLaser,
		ThemeMinimal,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to the default theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeDefault
}

// NextTheme returns the theme after the named one, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// RayColor blends between RayDim and Ray by intensity in [0, 1].
func (t Theme) RayColor(intensity float64) lipgloss.Color {
	return lipgloss.Color(blendHex(string(t.RayDim), string(t.Ray), intensity))
}
