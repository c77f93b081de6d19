package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/optics"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Fiber.Preset != "straight" {
		t.Errorf("expected preset straight, got %s", cfg.Fiber.Preset)
	}
	if cfg.Sampler.PollInterval != 4*time.Millisecond {
		t.Errorf("expected poll interval 4ms, got %v", cfg.Sampler.PollInterval)
	}
	if cfg.Sampler.Smoothing != "ema" || cfg.Sampler.EMAAlpha != 0.15 {
		t.Errorf("unexpected smoothing %s/%f", cfg.Sampler.Smoothing, cfg.Sampler.EMAAlpha)
	}
	if cfg.Mapping.MaxTiltDeg != 87 {
		t.Errorf("expected max tilt 87, got %f", cfg.Mapping.MaxTiltDeg)
	}
	if cfg.Render.FPS != 60 {
		t.Errorf("expected 60 fps, got %d", cfg.Render.FPS)
	}
	if cfg.Input.Device != "" {
		t.Errorf("expected no device by default, got %s", cfg.Input.Device)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fiberlight.yaml")
	content := `
fiber:
  preset: telecom
tracer:
  max_bounces: 12
sampler:
  poll_interval: 10ms
  smoothing: median
input:
  device: /dev/ttyACM0
  open_timeout: 2s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Fiber.Preset != "telecom" {
		t.Errorf("expected telecom, got %s", cfg.Fiber.Preset)
	}
	if cfg.Tracer.MaxBounces != 12 {
		t.Errorf("expected 12 bounces, got %d", cfg.Tracer.MaxBounces)
	}
	if cfg.Tracer.TransmissionFactor != optics.DefaultTransmissionFactor {
		t.Error("unset fields should keep their defaults")
	}
	if cfg.Sampler.PollInterval != 10*time.Millisecond || cfg.Input.OpenTimeout != 2*time.Second {
		t.Errorf("durations not parsed: %v %v", cfg.Sampler.PollInterval, cfg.Input.OpenTimeout)
	}
	if cfg.Sampler.Window != 5 {
		t.Errorf("expected default window, got %d", cfg.Sampler.Window)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Logging.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := Load(missing)
	if err == nil || !strings.Contains(err.Error(), missing) {
		t.Errorf("expected error naming the path, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("tracer: [1, 2"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := Default()
	cfg.Fiber.Segments = SegmentConfigs(fiber.Straight(50, 2, 1.6, 1.3))
	cfg.Sampler.PollInterval = 8 * time.Millisecond

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("round trip mismatch:\n%+v\n%+v", cfg, loaded)
	}
}

func TestPresetsLoad(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d names, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("preset names not sorted: %v", names)
		}
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Fiber.Preset = name
			if _, err := cfg.Geometry(); err != nil {
				t.Errorf("preset %s does not load: %v", name, err)
			}
		})
	}
}

func TestGeometry(t *testing.T) {
	cfg := Default()
	cfg.Fiber.Preset = "missing"
	if _, err := cfg.Geometry(); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}

	cfg.Fiber.Segments = []SegmentConfig{
		{Start: [2]float64{0, 0}, End: [2]float64{10, 0}, Radius: 1, CoreIndex: 1.5, CladdingIndex: 1.2},
		{Start: [2]float64{10, 0}, End: [2]float64{20, 0}, Radius: 1, CoreIndex: 1.2, CladdingIndex: 1.5},
	}
	_, err := cfg.Geometry()
	var verr *fiber.ValidationError
	if !errors.As(err, &verr) || verr.SegmentIndex != 1 {
		t.Errorf("expected validation error at segment 1, got %v", err)
	}

	cfg.Fiber.Segments[1].CoreIndex = 1.6
	cfg.Fiber.Segments[1].CladdingIndex = 1.2
	g, err := cfg.Geometry()
	if err != nil {
		t.Fatalf("geometry: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("explicit segments should override the preset, got %d segments", g.Len())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		want error
	}{
		{"window", func(c *Config) { c.Sampler.Window = 0 }, ErrInvalid},
		{"poll interval", func(c *Config) { c.Sampler.PollInterval = 0 }, ErrInvalid},
		{"initial", func(c *Config) { c.Sampler.Initial = 1.5 }, ErrInvalid},
		{"fps", func(c *Config) { c.Render.FPS = 0 }, ErrInvalid},
		{"incidence range", func(c *Config) {
			c.Mapping.Kind = "incidence"
			c.Mapping.MinIncidenceDeg = 80
			c.Mapping.MaxIncidenceDeg = 40
		}, ErrInvalid},
		{"tracer", func(c *Config) { c.Tracer.TransmissionFactor = 2 }, optics.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	if cfg.TracerConfig() != optics.DefaultConfig() {
		t.Errorf("tracer defaults differ: %+v", cfg.TracerConfig())
	}
	sc := cfg.SamplerConfig()
	if sc.PollInterval != cfg.Sampler.PollInterval || sc.WindowSize != cfg.Sampler.Window || sc.OpenTimeout != cfg.Input.OpenTimeout {
		t.Errorf("unexpected sampler config %+v", sc)
	}
}

func TestFiberName(t *testing.T) {
	cfg := Default()
	if got := cfg.FiberName(); got != DefaultPreset {
		t.Errorf("FiberName = %q, want %q", got, DefaultPreset)
	}
	cfg.Fiber.Segments = []SegmentConfig{{End: [2]float64{10, 0}, Radius: 1, CoreIndex: 1.5, CladdingIndex: 1.0}}
	if got := cfg.FiberName(); got != "custom" {
		t.Errorf("FiberName with segments = %q, want custom", got)
	}
}
