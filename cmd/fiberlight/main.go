package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fiberlight/internal/automation"
	"github.com/san-kum/fiberlight/internal/config"
	"github.com/san-kum/fiberlight/internal/experiment"
	"github.com/san-kum/fiberlight/internal/export"
	"github.com/san-kum/fiberlight/internal/logger"
	"github.com/san-kum/fiberlight/internal/sim"
	"github.com/san-kum/fiberlight/internal/storage"
	"github.com/san-kum/fiberlight/internal/viz"
)

var (
	configFile  string
	dataDir     string
	fiberPreset string
	mappingKind string
	smoothing   string
	device      string
	theme       string
	frameRate   int
	logLevel    string
	logFile     string

	inputValue float64
	incidence  float64
	svgOut     string
	jsonOut    string

	sweepFrom    float64
	sweepTo      float64
	sweepSteps   int
	sweepWorkers int
	saveRun      bool

	forceInit bool
)

// main registers the commands and runs the live view when no subcommand is
// given. It exits with status 1 when the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "fiberlight",
		Short:        "light propagation through segmented optical fibers",
		SilenceUsage: true,
		RunE:         runLive,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", ".fiberlight", "data directory")
	pf.StringVar(&fiberPreset, "preset", "", "fiber preset (see `fiberlight presets`)")
	pf.StringVar(&mappingKind, "mapping", "", "input mapping: tilt or incidence")
	pf.StringVar(&smoothing, "smoothing", "", "input smoothing: mean, median or ema")
	pf.StringVar(&device, "device", "", "encoder device path (empty for keyboard and mouse)")
	pf.StringVar(&theme, "theme", "", "colour theme")
	pf.IntVar(&frameRate, "fps", 0, "frame rate of the live view")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFile, "log-file", "", "log file path")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "steer a ray through the fiber in real time",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}

	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "trace a single ray and print its path",
		Args:  cobra.NoArgs,
		RunE:  runTrace,
	}
	traceCmd.Flags().Float64Var(&inputValue, "input", 0.5, "input value in [0, 1]")
	traceCmd.Flags().Float64Var(&incidence, "angle", 0, "launch at this wall incidence in degrees instead of --input")
	traceCmd.Flags().StringVar(&svgOut, "svg", "", "write an SVG drawing to this file")
	traceCmd.Flags().StringVar(&jsonOut, "json", "", "write the trace as JSON to this file (- for stdout)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "trace a range of inputs and report aggregate metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first input value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1, "last input value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 181, "number of samples")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "tracing goroutines (0 for one per CPU)")
	sweepCmd.Flags().BoolVar(&saveRun, "save", false, "store the result in the data directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored sweeps",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write efficiency against angle as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored sweep as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list fiber presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of sweeps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "inspect or create the configuration file",
	}
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  showConfig,
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configInitCmd)

	rootCmd.AddCommand(liveCmd, traceCmd, sweepCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd, scenarioCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent flags that
// were set explicitly: defaults < file < flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("preset") {
		cfg.Fiber.Preset = fiberPreset
		cfg.Fiber.Segments = nil
	}
	if changed("mapping") {
		cfg.Mapping.Kind = mappingKind
	}
	if changed("smoothing") {
		cfg.Sampler.Smoothing = smoothing
	}
	if changed("device") {
		cfg.Input.Device = device
	}
	if changed("theme") {
		cfg.Render.Theme = theme
	}
	if changed("fps") {
		cfg.Render.FPS = frameRate
	}
	if changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if changed("log-file") {
		cfg.Logging.File = logFile
	}
}

// setupLogging routes logs to stderr and the optional log file. The live
// view owns the terminal, so it logs to a file only.
func setupLogging(cfg *config.Config, live bool) error {
	path := cfg.Logging.File
	if live && path == "" {
		path = filepath.Join(dataDir, "fiberlight.log")
	}
	var fileCfg logger.FileConfig
	if path != "" {
		fileCfg = logger.DefaultFileConfig(path)
	}
	return logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, !live)
}

// setup loads the configuration and builds the experiment.
func setup(cmd *cobra.Command, live bool) (*config.Config, *experiment.Experiment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := setupLogging(cfg, live); err != nil {
		return nil, nil, err
	}

	exp := experiment.New(cfg, experiment.NewRegistry(), logger.Log)
	if err := exp.Setup(); err != nil {
		logger.Log.Error("setup failed", zap.Error(err))
		return nil, nil, err
	}
	return cfg, exp, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, exp, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := exp.Start(ctx); err != nil {
		return err
	}
	defer exp.Stop()

	logger.Log.Info("live view starting",
		zap.String("fiber", cfg.FiberName()),
		zap.String("source", exp.Sampler().Source()))

	return viz.Run(exp.Context(), exp.Manual(), viz.Options{
		Title:      cfg.FiberName(),
		FPS:        cfg.Render.FPS,
		Theme:      cfg.Render.Theme,
		Logger:     logger.Log,
		OnSnapshot: snapshotter(cfg, exp),
	})
}

// snapshotter writes the frame on screen as an SVG drawing plus a JSON
// trace next to it.
func snapshotter(cfg *config.Config, exp *experiment.Experiment) viz.SnapshotFunc {
	return func(f sim.Frame, t viz.Theme) (string, error) {
		dir := filepath.Join(dataDir, "snapshots")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
		base := filepath.Join(dir, fmt.Sprintf("%s_%d", cfg.FiberName(), time.Now().UnixNano()))

		svg := export.FiberToSVG(exp.Geometry(), f.Ray, f.Path, 1200, 400, t)
		if err := os.WriteFile(base+".svg", []byte(svg), 0644); err != nil {
			return "", err
		}
		if err := writeFile(base+".json", func(w io.Writer) error {
			return export.WriteTraceJSON(w, export.NewTraceData(cfg.FiberName(), cfg.Mapping.Kind, exp.Geometry(), f))
		}); err != nil {
			return "", err
		}
		return base + ".svg", nil
	}
}

// writeFile creates path, or uses stdout for "-", and hands it to write.
func writeFile(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runTrace(cmd *cobra.Command, args []string) error {
	cfg, exp, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	c := exp.Context()
	c.Cache = nil
	if cmd.Flags().Changed("angle") {
		c.Mapping = sim.IncidenceMapping{MinDeg: incidence, MaxDeg: incidence}
	}
	f := c.Trace(inputValue)
	st := f.Stats

	fmt.Printf("fiber:      %s (%d segments, axial length %.2f)\n", cfg.FiberName(), exp.Geometry().Len(), st.AxialLength)
	fmt.Printf("mapping:    %s, angle %.2f°\n", c.Mapping.Name(), f.AngleDeg)
	fmt.Printf("result:     %s, %s\n", st.Terminal, st.Quality)
	fmt.Printf("bounces:    %d walls, %d joints\n", st.WallBounces, st.Refractions)
	fmt.Printf("path:       %.2f (efficiency %.1f%%)\n", st.Length, st.Efficiency)
	fmt.Printf("intensity:  %.4f\n", st.FinalIntensity)
	fmt.Printf("min margin: %.2f°\n\n", st.MinMargin)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tEVENT\tSEG\tX\tY\tINCIDENCE\tINTENSITY")
	for i, v := range f.Path.Vertices {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.3f\t%.3f\t%.2f°\t%.4f\n",
			i+1, v.Event, v.Segment, v.Position.X, v.Position.Y, v.IncidenceDeg, v.Intensity)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	intensities := []float64{f.Ray.Intensity}
	for _, v := range f.Path.Vertices {
		intensities = append(intensities, v.Intensity)
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(intensities,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.LowerBound(0),
		asciigraph.Caption("intensity by vertex")))

	if svgOut != "" {
		svg := export.FiberToSVG(exp.Geometry(), f.Ray, f.Path, 1200, 400, viz.GetTheme(cfg.Render.Theme))
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		logger.Log.Info("svg written", zap.String("path", svgOut))
	}
	if jsonOut != "" {
		data := export.NewTraceData(cfg.FiberName(), c.Mapping.Name(), exp.Geometry(), f)
		if err := writeFile(jsonOut, func(w io.Writer) error { return export.WriteTraceJSON(w, data) }); err != nil {
			return err
		}
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, exp, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	start := time.Now()
	res, err := exp.Sweep(cmd.Context(), sim.SweepConfig{From: sweepFrom, To: sweepTo, Steps: sweepSteps, Workers: sweepWorkers})
	if err != nil {
		return err
	}
	logger.Log.Info("sweep complete",
		zap.Int("samples", len(res.Samples)),
		zap.Duration("elapsed", time.Since(start)))

	printSweep(res)

	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(storage.RunMetadata{
			Fiber:   cfg.FiberName(),
			Mapping: cfg.Mapping.Kind,
			Tracer:  cfg.TracerConfig(),
		}, res)
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved run: %s\n", id)
	}
	return nil
}

func printSweep(res *sim.SweepResult) {
	printMetrics(res.Metrics)
	if len(res.Samples) < 2 {
		return
	}

	eff := make([]float64, len(res.Samples))
	for i, s := range res.Samples {
		eff[i] = s.Stats.Efficiency
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(eff,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.LowerBound(0),
		asciigraph.Caption(fmt.Sprintf("efficiency %% over inputs %.3f..%.3f", res.Config.From, res.Config.To))))
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.4f\n", name, m[name])
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFIBER\tMAPPING\tTIME\tSTEPS\tRANGE\tTRANSMISSION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.3f..%.3f\t%.1f%%\n",
			run.ID,
			run.Fiber,
			run.Mapping,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.From, run.To,
			run.Metrics["transmission"]*100,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("fiber: %s, mapping: %s\n", meta.Fiber, meta.Mapping)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		pick    func(sim.Sample) float64
	}{
		{"launch angle (deg)", func(s sim.Sample) float64 { return s.AngleDeg }},
		{"efficiency (%)", func(s sim.Sample) float64 { return s.Stats.Efficiency }},
		{"exit intensity", func(s sim.Sample) float64 { return s.Stats.FinalIntensity }},
		{"wall bounces", func(s sim.Sample) float64 { return float64(s.Stats.WallBounces) }},
	}
	for _, sr := range series {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = sr.pick(s)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption)))
		fmt.Println()
	}

	if svgOut != "" {
		pts := make([]export.Point, len(samples))
		for i, s := range samples {
			pts[i] = export.Point{X: s.AngleDeg, Y: s.Stats.Efficiency}
		}
		if err := os.WriteFile(svgOut, []byte(export.CurveToSVG(pts, 800, 400, "#00ff88")), 0644); err != nil {
			return err
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	res := &sim.SweepResult{
		Config:  sim.SweepConfig{From: meta.From, To: meta.To, Steps: meta.Steps},
		Samples: samples,
		Metrics: meta.Metrics,
	}
	return storage.ExportJSON(os.Stdout, meta.Fiber, meta.Mapping, res)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSEGMENTS\tCRITICAL\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p, _ := config.GetPreset(name)
		segs := p.Segments()
		crit := "-"
		if len(segs) > 0 {
			crit = fmt.Sprintf("%.2f°", segs[0].CriticalAngle()*180/math.Pi)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", name, len(segs), crit, p.Description)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg, false); err != nil {
		return err
	}
	defer logger.Sync()

	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := automation.RunScenario(ctx, sc, cfg, experiment.NewRegistry(), st, logger.Log)
	for _, r := range results {
		fmt.Printf("\n== %s (%s)\n", r.Name, r.Fiber)
		printMetrics(r.Sweep.Metrics)
		if r.RunID != "" {
			fmt.Printf("saved run: %s\n", r.RunID)
		}
		if t := r.Tolerance; t != nil {
			fmt.Printf("tolerance: %d/%d transmitted (%.1f%%) over %.2f°..%.2f°, mean efficiency %.1f%%\n",
				t.Transmitted, t.Trials, t.Fraction*100, t.MinAngleDeg, t.MaxAngleDeg, t.MeanEfficiency)
		}
	}
	return err
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
