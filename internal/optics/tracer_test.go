package optics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/geom"
)

func mustLoad(t *testing.T, segs []fiber.Segment) *fiber.Geometry {
	t.Helper()
	g, err := fiber.Load(segs)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return g
}

func mustTracer(t *testing.T, cfg Config) *Tracer {
	t.Helper()
	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("tracer: %v", err)
	}
	return tr
}

// entryRay launches from the start of segment 0 so that it meets the left
// wall at the given incidence (degrees from the wall normal).
func entryRay(g *fiber.Geometry, incidenceDeg float64) Ray {
	s := g.Segment(0)
	u := s.Axis()
	n := u.Perp()
	th := incidenceDeg * math.Pi / 180
	return NewRay(s.Start, n.Scale(math.Cos(th)).Add(u.Scale(math.Sin(th))), 1.0)
}

func TestTrace_BelowCriticalExits(t *testing.T) {
	g := mustLoad(t, fiber.Straight(100, 5, 1.5, 1.0))
	tr := mustTracer(t, DefaultConfig())

	path := tr.Trace(g, entryRay(g, 30))

	if len(path.Vertices) != 1 {
		t.Fatalf("expected exactly one vertex, got %d: %+v", len(path.Vertices), path.Vertices)
	}
	v := path.Vertices[0]
	if v.Event != Exit {
		t.Errorf("expected exit, got %s", v.Event)
	}
	if v.Boundary != fiber.BoundaryWall {
		t.Errorf("expected exit through the wall, got %s", v.Boundary)
	}
	if math.Abs(v.IncidenceDeg-30) > 1e-9 {
		t.Errorf("expected incidence 30, got %f", v.IncidenceDeg)
	}
	if math.Abs(v.Intensity-DefaultTransmissionFactor) > 1e-12 {
		t.Errorf("expected intensity %f, got %f", DefaultTransmissionFactor, v.Intensity)
	}
	// sin(30) * 1.5 = 0.75 -> refracted angle asin(0.75) from the normal.
	wantDir := math.Asin(0.75)
	gotDir := math.Acos(v.Direction.Dot(geom.V(0, 1)))
	if math.Abs(gotDir-wantDir) > 1e-9 {
		t.Errorf("expected refracted angle %f, got %f", wantDir, gotDir)
	}
}

func TestTrace_AboveCriticalReflects(t *testing.T) {
	g := mustLoad(t, fiber.Straight(100, 5, 1.5, 1.0))
	tr := mustTracer(t, DefaultConfig())

	path := tr.Trace(g, entryRay(g, 60))

	if len(path.Vertices) < 2 {
		t.Fatalf("expected several vertices, got %d", len(path.Vertices))
	}
	first := path.Vertices[0]
	if first.Event != Reflect {
		t.Fatalf("expected first vertex to reflect, got %s", first.Event)
	}
	if math.Abs(first.Position.Y-5) > 1e-9 {
		t.Errorf("expected reflection on the left wall, got %v", first.Position)
	}
	if first.Intensity != 1.0 {
		t.Errorf("reflection should keep intensity, got %f", first.Intensity)
	}
	if second := path.Vertices[1]; second.Event == Reflect && math.Abs(second.Position.Y+5) > 1e-9 {
		t.Errorf("expected second bounce on the right wall, got %v", second.Position)
	}

	last, _ := path.Last()
	if last.Event != Exit || last.Boundary != fiber.BoundaryFace {
		t.Errorf("expected exit through the end face, got %s via %s", last.Event, last.Boundary)
	}
}

func TestTrace_CriticalBoundaryPerSegment(t *testing.T) {
	pairs := []struct {
		core, cladding float64
	}{
		{1.5, 1.0},
		{1.5, 1.4},
		{1.62, 1.52},
		{1.4475, 1.4440},
		{2.4, 1.33},
	}

	tr := mustTracer(t, DefaultConfig())

	for _, pr := range pairs {
		g := mustLoad(t, fiber.Straight(10000, 1, pr.core, pr.cladding))
		critDeg := g.Segment(0).CriticalAngle() * 180 / math.Pi

		tests := []struct {
			name      string
			incidence float64
			want      Event
		}{
			{"above", math.Min(critDeg+0.5, 89), Reflect},
			{"equal", critDeg, Reflect},
			{"below", critDeg - 0.5, Exit},
		}

		for _, tt := range tests {
			path := tr.Trace(g, entryRay(g, tt.incidence))
			got := path.Vertices[0].Event
			if got != tt.want {
				t.Errorf("core=%.4f cladding=%.4f %s (%.6f deg, critical %.6f): got %s, want %s",
					pr.core, pr.cladding, tt.name, tt.incidence, critDeg, got, tt.want)
			}
		}
	}
}

func TestClassify(t *testing.T) {
	crit := math.Asin(1.0 / 1.5)

	tests := []struct {
		name      string
		incidence float64
		critical  float64
		want      Event
	}{
		{"greater", crit + 0.01, crit, Reflect},
		{"equal", crit, crit, Reflect},
		{"less", crit - 0.01, crit, Refract},
		{"no tir possible", 1.5, math.Inf(1), Refract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.incidence, tt.critical); got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTrace_IntensityMonotonic(t *testing.T) {
	g := mustLoad(t, fiber.Graded(300, 6, []float64{1.50, 1.49, 1.48, 1.47}, 1.40))
	cfg := DefaultConfig()
	cfg.ReflectionLoss = 0.01
	tr := mustTracer(t, cfg)

	for _, inc := range []float64{75, 80, 85, 89} {
		path := tr.Trace(g, entryRay(g, inc))
		prev := 1.0
		refracts := 0
		for i, v := range path.Vertices {
			if v.Intensity > prev {
				t.Fatalf("incidence %.0f: intensity rose at vertex %d: %f > %f", inc, i, v.Intensity, prev)
			}
			if v.Event == Refract {
				refracts++
				if math.Abs(v.Intensity-prev*cfg.TransmissionFactor) > 1e-12 {
					t.Errorf("incidence %.0f: refract at %d should scale by %f: %f -> %f",
						inc, i, cfg.TransmissionFactor, prev, v.Intensity)
				}
				if !(v.Intensity < prev) {
					t.Errorf("refraction must strictly decrease intensity")
				}
			}
			prev = v.Intensity
		}
		if refracts == 0 {
			t.Errorf("incidence %.0f: expected joint refractions in a graded fiber", inc)
		}
	}
}

func TestTrace_MaxBounces(t *testing.T) {
	g := mustLoad(t, fiber.Straight(10000, 1, 1.5, 1.0))
	cfg := DefaultConfig()
	cfg.MaxBounces = 10
	tr := mustTracer(t, cfg)

	path := tr.Trace(g, entryRay(g, 80))

	if len(path.Vertices) != cfg.MaxBounces+1 {
		t.Fatalf("expected %d vertices, got %d", cfg.MaxBounces+1, len(path.Vertices))
	}
	nonTerminal := 0
	for _, v := range path.Vertices[:len(path.Vertices)-1] {
		if v.Event.Terminal() {
			t.Fatal("terminal event before the end of the path")
		}
		nonTerminal++
	}
	if nonTerminal > cfg.MaxBounces {
		t.Errorf("exceeded max bounces: %d", nonTerminal)
	}
	if last, _ := path.Last(); last.Event != Absorbed {
		t.Errorf("expected bounce cap to absorb, got %s", last.Event)
	}
}

func TestTrace_AlwaysTerminates(t *testing.T) {
	geoms := [][]fiber.Segment{
		fiber.Straight(20, 5, 1.5, 1.0),
		fiber.Polyline([]geom.Vec2{geom.V(0, 0), geom.V(100, 0), geom.V(200, 30), geom.V(300, 0)}, 6, 1.5, 1.0),
		fiber.Graded(200, 4, []float64{1.5, 1.6, 1.45}, 1.3),
	}
	tr := mustTracer(t, DefaultConfig())

	for gi, segs := range geoms {
		g := mustLoad(t, segs)
		for inc := 1.0; inc < 90; inc += 3.7 {
			path := tr.Trace(g, entryRay(g, inc))
			last, ok := path.Last()
			if !ok || !last.Event.Terminal() {
				t.Fatalf("geometry %d incidence %.1f: path did not terminate", gi, inc)
			}
			if len(path.Vertices) > DefaultMaxBounces+1 {
				t.Fatalf("geometry %d incidence %.1f: %d vertices", gi, inc, len(path.Vertices))
			}
		}
	}
}

func TestTrace_Absorption(t *testing.T) {
	g := mustLoad(t, fiber.Graded(300, 5, []float64{1.5, 1.5, 1.5}, 1.0))
	cfg := Config{MaxBounces: 10, TransmissionFactor: 0.5, MinIntensity: 0.3}
	tr := mustTracer(t, cfg)

	path := tr.Trace(g, NewRay(geom.V(0, 0), geom.V(1, 0), 1.0))

	if len(path.Vertices) != 2 {
		t.Fatalf("expected refract then absorbed, got %+v", path.Vertices)
	}
	if path.Vertices[0].Event != Refract || path.Vertices[0].Intensity != 0.5 {
		t.Errorf("unexpected first vertex %+v", path.Vertices[0])
	}
	if path.Vertices[1].Event != Absorbed || path.Vertices[1].Intensity != 0.25 {
		t.Errorf("unexpected second vertex %+v", path.Vertices[1])
	}
}

func TestTrace_Degenerate(t *testing.T) {
	g := mustLoad(t, fiber.Straight(100, 5, 1.5, 1.0))
	tr := mustTracer(t, DefaultConfig())

	path := tr.Trace(g, NewRay(geom.V(0, 0), geom.V(0, 0), 1.0))
	if last, _ := path.Last(); len(path.Vertices) != 1 || last.Event != Absorbed {
		t.Errorf("zero direction should be absorbed, got %+v", path.Vertices)
	}

	path = tr.Trace(g, NewRay(geom.V(0, 0), geom.V(1, 0), 0.001))
	if last, _ := path.Last(); len(path.Vertices) != 1 || last.Event != Absorbed {
		t.Errorf("dim ray should be absorbed at origin, got %+v", path.Vertices)
	}
}

func TestTrace_EndFaceReflection(t *testing.T) {
	g := mustLoad(t, fiber.Straight(20, 5, 1.5, 1.0))
	tr := mustTracer(t, DefaultConfig())

	// 45 degrees on the walls is also 45 degrees on the end face, above the
	// 41.8 degree glass/air critical angle.
	path := tr.Trace(g, entryRay(g, 45))

	faceReflect := false
	for _, v := range path.Vertices {
		if v.Boundary == fiber.BoundaryFace && v.Event == Reflect {
			faceReflect = true
		}
	}
	if !faceReflect {
		t.Error("expected total internal reflection at the end face")
	}
}

func TestTrace_BendCrossesJoint(t *testing.T) {
	pts := []geom.Vec2{geom.V(0, 0), geom.V(100, 0), geom.V(200, 30)}
	g := mustLoad(t, fiber.Polyline(pts, 6, 1.5, 1.0))
	tr := mustTracer(t, DefaultConfig())

	path := tr.Trace(g, NewRay(geom.V(0, 0), geom.V(1, 0), 1.0))

	if path.Vertices[0].Event != Refract || path.Vertices[0].Boundary != fiber.BoundaryJoint {
		t.Fatalf("expected joint refraction first, got %+v", path.Vertices[0])
	}
	if !path.Vertices[0].Position.ApproxEqual(geom.V(100, 0), 1e-9) {
		t.Errorf("expected joint crossing at (100,0), got %v", path.Vertices[0].Position)
	}

	min, max := g.Bounds()
	for i, v := range path.Vertices {
		if i > 0 && v.Segment != 1 {
			t.Errorf("vertex %d should lie in segment 1, got %d", i, v.Segment)
		}
		p := v.Position
		if p.X < min.X-1e-6 || p.X > max.X+1e-6 || p.Y < min.Y-1e-6 || p.Y > max.Y+1e-6 {
			t.Errorf("vertex %d outside fiber bounds: %v", i, p)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero bounces", func(c *Config) { c.MaxBounces = 0 }},
		{"factor one", func(c *Config) { c.TransmissionFactor = 1 }},
		{"factor zero", func(c *Config) { c.TransmissionFactor = 0 }},
		{"negative threshold", func(c *Config) { c.MinIntensity = -0.1 }},
		{"reflection loss one", func(c *Config) { c.ReflectionLoss = 1 }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			_, err := New(cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
