package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/fiberlight/internal/optics"
	"github.com/san-kum/fiberlight/internal/sim"
)

func testResult() *sim.SweepResult {
	return &sim.SweepResult{
		Config: sim.SweepConfig{From: 0, To: 1, Steps: 2},
		Samples: []sim.Sample{
			{Value: 0, AngleDeg: -87, Vertices: 1, Stats: optics.Stats{
				Terminal: optics.Exit, Quality: optics.QualityPoor, Length: 20.5, FinalIntensity: 0.96,
			}},
			{Value: 1, AngleDeg: 10, Vertices: 4, Stats: optics.Stats{
				Terminal: optics.Exit, Quality: optics.QualityExcellent, Transmitted: true,
				WallBounces: 3, Length: 203.1, Efficiency: 98.47, FinalIntensity: 0.96, MinMargin: 38.2,
			}},
		},
		Metrics: map[string]float64{"transmission": 0.5},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Fiber: "straight", Mapping: "tilt", Tracer: optics.DefaultConfig()}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Fiber != "straight" || meta.Steps != 2 || meta.To != 1 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["transmission"] != 0.5 {
		t.Errorf("expected transmission 0.5, got %f", meta.Metrics["transmission"])
	}
	if meta.Tracer != optics.DefaultConfig() {
		t.Errorf("tracer config not stored: %+v", meta.Tracer)
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	got := samples[1]
	if !got.Stats.Transmitted || got.Stats.WallBounces != 3 || got.Vertices != 4 {
		t.Errorf("unexpected sample %+v", got)
	}
	if got.Stats.Quality != optics.QualityExcellent || got.Stats.Terminal != optics.Exit {
		t.Errorf("enum columns not restored: %s %s", got.Stats.Quality, got.Stats.Terminal)
	}
	if samples[0].Stats.Quality != optics.QualityPoor {
		t.Errorf("expected POOR, got %s", samples[0].Stats.Quality)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	first, _ := st.Save(RunMetadata{Fiber: "straight"}, testResult())
	second, _ := st.Save(RunMetadata{Fiber: "bend"}, testResult())

	// stray entries are ignored
	os.WriteFile(filepath.Join(st.baseDir, "notes.txt"), []byte("x"), 0644)
	os.MkdirAll(filepath.Join(st.baseDir, "empty"), 0755)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("expected oldest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreList_Missing(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v %v", runs, err)
	}
}

func TestStoreLoad_NotFound(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.LoadSamples("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, "straight", "tilt", testResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var out struct {
		Fiber   string `json:"fiber"`
		Samples []struct {
			Stats struct {
				Quality  string `json:"quality"`
				Terminal string `json:"terminal"`
			} `json:"stats"`
		} `json:"samples"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Fiber != "straight" || len(out.Samples) != 2 {
		t.Errorf("unexpected export %+v", out)
	}
	if out.Samples[1].Stats.Quality != "EXCELLENT" || out.Samples[1].Stats.Terminal != "exit" {
		t.Errorf("enums should be exported by name, got %+v", out.Samples[1].Stats)
	}
}
