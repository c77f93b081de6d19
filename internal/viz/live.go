package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fiberlight/internal/control"
	"github.com/san-kum/fiberlight/internal/logger"
	"github.com/san-kum/fiberlight/internal/optics"
	"github.com/san-kum/fiberlight/internal/sim"
	"go.uber.org/zap"
)

const (
	defaultWidth    = 120
	defaultHeight   = 32
	panelWidth      = 42
	canvasPadX      = 2
	canvasPadY      = 1
	historyCapacity = 240

	fineStep   = 0.001
	normalStep = 0.01
	coarseStep = 0.05
)

// TickMsg drives the frame loop.
type TickMsg time.Time

type snapshotMsg struct {
	path string
	err  error
}

// SnapshotFunc persists a frame and returns where it went.
type SnapshotFunc func(f sim.Frame, t Theme) (string, error)

// Options configure the live view.
type Options struct {
	Title      string
	FPS        int
	Theme      string
	OnSnapshot SnapshotFunc
	Logger     *zap.Logger
}

// Model is the Bubble Tea model for the live fiber view. It owns no
// simulation state: every tick asks the sim.Context for a fresh frame.
type Model struct {
	ctx    *sim.Context
	manual *control.ManualSource
	opts   Options
	log    *zap.Logger

	theme  Theme
	styles Styles
	canvas *Canvas

	width, height int
	frame         sim.Frame
	intensity     []float64
	angles        []float64
	quality       optics.Quality
	paused        bool
	showHelp      bool
	status        string
}

// NewModel builds the live view. manual may be nil, in which case keyboard
// and mouse input are ignored.
func NewModel(ctx *sim.Context, manual *control.ManualSource, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	theme := GetTheme(opts.Theme)
	m := Model{
		ctx:       ctx,
		manual:    manual,
		opts:      opts,
		log:       logger.OrNop(opts.Logger).Named("live"),
		theme:     theme,
		styles:    NewStyles(theme),
		width:     defaultWidth,
		height:    defaultHeight,
		intensity: make([]float64, 0, historyCapacity),
		angles:    make([]float64, 0, historyCapacity),
		quality:   -1,
	}
	m.resize()
	m.step()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and advances the frame.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.draw()
	case TickMsg:
		if !m.paused {
			m.step()
		}
		return m, m.tick()
	case snapshotMsg:
		if msg.err != nil {
			m.status = "snapshot failed: " + msg.err.Error()
			m.log.Warn("snapshot failed", zap.Error(msg.err))
		} else {
			m.status = "saved " + msg.path
			m.log.Info("snapshot saved", zap.String("path", msg.path))
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
	case "?":
		m.showHelp = !m.showHelp
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.styles = NewStyles(m.theme)
		m.draw()
	case "s":
		return m, m.snapshot()
	case "left", "h":
		m.nudge(-normalStep)
	case "right", "l":
		m.nudge(normalStep)
	case "shift+left", "H":
		m.nudge(-coarseStep)
	case "shift+right", "L":
		m.nudge(coarseStep)
	case "down", "j":
		m.nudge(-fineStep)
	case "up", "k":
		m.nudge(fineStep)
	case "home", "0":
		m.set(0)
	case "end", "$":
		m.set(1)
	case "c":
		m.set(0.5)
	}
	return m, nil
}

// handleMouse maps a click or drag across the canvas to the full input
// range and the wheel to small nudges.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.nudge(normalStep)
		return
	case tea.MouseButtonWheelDown:
		m.nudge(-normalStep)
		return
	case tea.MouseButtonLeft:
	default:
		return
	}
	if msg.Action == tea.MouseActionRelease {
		return
	}
	col := msg.X - canvasPadX
	if col < 0 || col >= m.canvas.Width || m.canvas.Width < 2 {
		return
	}
	m.set(float64(col) / float64(m.canvas.Width-1))
}

func (m *Model) nudge(d float64) {
	if m.manual != nil {
		m.manual.Nudge(d)
	}
}

func (m *Model) set(v float64) {
	if m.manual != nil {
		m.manual.Set(v)
	}
}

func (m Model) snapshot() tea.Cmd {
	if m.opts.OnSnapshot == nil {
		return nil
	}
	f, t := m.frame, m.theme
	save := m.opts.OnSnapshot
	return func() tea.Msg {
		path, err := save(f, t)
		return snapshotMsg{path: path, err: err}
	}
}

func (m *Model) resize() {
	cw := max(m.width-panelWidth-2*canvasPadX-2, 20)
	ch := max(m.height-2*canvasPadY-2, 8)
	m.canvas = NewCanvas(cw, ch)
}

// step pulls a frame from the context and records its history.
func (m *Model) step() {
	m.frame = m.ctx.Tick()
	m.intensity = pushHistory(m.intensity, m.frame.Stats.FinalIntensity)
	m.angles = pushHistory(m.angles, m.frame.AngleDeg)

	if q := m.frame.Stats.Quality; q != m.quality {
		m.log.Debug("quality changed",
			zap.Stringer("quality", q),
			zap.Float64("angle_deg", m.frame.AngleDeg),
			zap.Float64("min_margin", m.frame.Stats.MinMargin))
		m.quality = q
	}
	m.draw()
}

func pushHistory(h []float64, v float64) []float64 {
	if len(h) == historyCapacity {
		copy(h, h[1:])
		h = h[:len(h)-1]
	}
	return append(h, v)
}

func (m *Model) draw() {
	DrawScene(m.canvas, m.ctx.Geometry, m.frame.Ray, m.frame.Path, m.theme)
}

// Frame returns the frame currently on screen.
func (m Model) Frame() sim.Frame { return m.frame }

// Paused reports whether the frame loop is frozen.
func (m Model) Paused() bool { return m.paused }

// Theme returns the active theme.
func (m Model) Theme() Theme { return m.theme }

func (m Model) View() string {
	canvasView := lipgloss.NewStyle().Padding(canvasPadY, canvasPadX).Render(m.canvas.Render())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.panel())
	if m.showHelp {
		return m.help() + "\n" + mainView
	}
	return mainView
}

func (m Model) panel() string {
	st, s := m.frame.Stats, m.styles
	row := func(label, value string) string {
		return s.Label.Width(14).Render(label) + value + "\n"
	}

	var b strings.Builder
	title := strings.ToUpper("fiberlight")
	if m.opts.Title != "" {
		title += " · " + m.opts.Title
	}
	b.WriteString(GradientText(title, m.theme.Primary, m.theme.Ray) + "\n")
	if m.paused {
		b.WriteString(s.Paused.Render("PAUSED") + "\n")
	} else {
		b.WriteString(s.Good.Render("LIVE") + "\n")
	}
	b.WriteString(s.Separator(panelWidth-4) + "\n")

	b.WriteString(row("input", s.Value.Render(fmt.Sprintf("%.3f", m.frame.Input.Value))))
	b.WriteString(row("source", s.Value.Render(m.frame.Input.Source)))
	b.WriteString(row("angle", s.Value.Render(fmt.Sprintf("%+.2f°", m.frame.AngleDeg))))
	b.WriteString(row("quality", m.qualityStyle(st.Quality).Render(st.Quality.String())))
	b.WriteString(row("margin", s.Value.Render(fmt.Sprintf("%.2f°", st.MinMargin))))
	b.WriteString(row("bounces", s.Value.Render(fmt.Sprintf("%d", st.WallBounces))))
	b.WriteString(row("joints", s.Value.Render(fmt.Sprintf("%d", st.Refractions))))
	b.WriteString(row("path", s.Value.Render(fmt.Sprintf("%.1f / %.1f", st.Length, st.AxialLength))))
	b.WriteString(row("efficiency", s.ProgressBar(st.Efficiency/100, 16)+" "+s.Value.Render(fmt.Sprintf("%.1f%%", st.Efficiency))))
	b.WriteString(row("intensity", s.ProgressBar(st.FinalIntensity, 16)+" "+s.Value.Render(fmt.Sprintf("%.3f", st.FinalIntensity))))
	b.WriteString(row("end", s.Value.Render(st.Terminal.String())))
	if c := m.ctx.Cache; c != nil {
		b.WriteString(row("cache", s.Muted.Render(fmt.Sprintf("%d paths, %.0f%% hits", c.Len(), c.HitRate()*100))))
	}

	if len(m.intensity) > 1 {
		chart := asciigraph.Plot(m.intensity,
			asciigraph.Height(5),
			asciigraph.Width(panelWidth-12),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.Precision(2),
			asciigraph.Caption("exit intensity"))
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(m.theme.Ray).Render(chart) + "\n")
	}
	b.WriteString(s.Label.Render("angle ") + s.Muted.Render(Sparkline(m.angles, -90, 90, panelWidth-12)) + "\n")

	if m.status != "" {
		b.WriteString("\n" + s.Muted.Render(m.status) + "\n")
	}
	b.WriteString("\n" + s.KeyHint.Render("←→ steer  ↑↓ fine  SP pause\nT theme  S snapshot  ? help  Q quit"))

	return s.Panel.Width(panelWidth).Render(b.String())
}

func (m Model) qualityStyle(q optics.Quality) lipgloss.Style {
	switch q {
	case optics.QualityExcellent:
		return m.styles.Good
	case optics.QualityMarginal:
		return m.styles.Warn
	default:
		return m.styles.Bad
	}
}

func (m Model) help() string {
	return m.styles.Panel.Render(strings.Join([]string{
		m.styles.Title.Render("KEYBOARD AND MOUSE"),
		"←/→ h/l      steer by 0.01",
		"⇧←/⇧→ H/L    steer by 0.05",
		"↑/↓ k/j      steer by 0.001",
		"0 / $ / c    full left, full right, centre",
		"click, drag  set input from canvas column",
		"wheel        steer by 0.01",
		"space        pause or resume",
		"t            cycle themes",
		"s            save snapshot",
		"?            toggle this help",
		"q            quit",
	}, "\n"))
}

// Run starts the live view on the terminal and blocks until it exits.
func Run(ctx *sim.Context, manual *control.ManualSource, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, manual, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
