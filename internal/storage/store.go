// Package storage keeps sweep results on disk, one directory per run with
// a metadata.json and a samples.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fiberlight/internal/optics"
	"github.com/san-kum/fiberlight/internal/sim"
)

var ErrNotFound = errors.New("storage: run not found")

var csvHeader = []string{
	"value", "angle_deg", "transmitted", "wall_bounces", "refractions",
	"length", "efficiency", "final_intensity", "min_margin", "quality", "terminal", "vertices",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes a stored sweep.
type RunMetadata struct {
	ID        string             `json:"id"`
	Fiber     string             `json:"fiber"`
	Mapping   string             `json:"mapping"`
	Timestamp time.Time          `json:"timestamp"`
	From      float64            `json:"from"`
	To        float64            `json:"to"`
	Steps     int                `json:"steps"`
	Tracer    optics.Config      `json:"tracer"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes res under a new run ID and returns it. Fiber and Mapping on
// meta are copied; the rest is filled from res.
func (s *Store) Save(meta RunMetadata, res *sim.SweepResult) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Fiber, now.UnixNano())
	meta.Timestamp = now
	meta.From = res.Config.From
	meta.To = res.Config.To
	meta.Steps = res.Config.Steps
	meta.Metrics = res.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, "samples.csv"), res.Samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSamples(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range samples {
		st := s.Stats
		row := []string{
			formatFloat(s.Value),
			formatFloat(s.AngleDeg),
			strconv.FormatBool(st.Transmitted),
			strconv.Itoa(st.WallBounces),
			strconv.Itoa(st.Refractions),
			formatFloat(st.Length),
			formatFloat(st.Efficiency),
			formatFloat(st.FinalIntensity),
			formatFloat(st.MinMargin),
			st.Quality.String(),
			st.Terminal.String(),
			strconv.Itoa(s.Vertices),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decoding %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSamples reads back the per-value rows of a run. Incidence lists are
// not stored and come back empty. Malformed rows are skipped.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		smp, ok := parseSample(rec)
		if ok {
			samples = append(samples, smp)
		}
	}
	return samples, nil
}

func parseSample(rec []string) (sim.Sample, bool) {
	if len(rec) != len(csvHeader) {
		return sim.Sample{}, false
	}

	var (
		smp  sim.Sample
		errs []error
	)
	pf := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		errs = append(errs, err)
		return v
	}
	pi := func(s string) int {
		v, err := strconv.Atoi(s)
		errs = append(errs, err)
		return v
	}

	smp.Value = pf(rec[0])
	smp.AngleDeg = pf(rec[1])
	tx, err := strconv.ParseBool(rec[2])
	errs = append(errs, err)
	smp.Stats.Transmitted = tx
	smp.Stats.WallBounces = pi(rec[3])
	smp.Stats.Refractions = pi(rec[4])
	smp.Stats.Length = pf(rec[5])
	smp.Stats.Efficiency = pf(rec[6])
	smp.Stats.FinalIntensity = pf(rec[7])
	smp.Stats.MinMargin = pf(rec[8])
	smp.Stats.Quality = parseQuality(rec[9])
	smp.Stats.Terminal = parseEvent(rec[10])
	smp.Vertices = pi(rec[11])

	if errors.Join(errs...) != nil {
		return sim.Sample{}, false
	}
	return smp, true
}

func parseQuality(s string) optics.Quality {
	for _, q := range []optics.Quality{optics.QualityExcellent, optics.QualityMarginal, optics.QualityPoor} {
		if q.String() == s {
			return q
		}
	}
	return optics.QualityPoor
}

func parseEvent(s string) optics.Event {
	for _, e := range []optics.Event{optics.Refract, optics.Reflect, optics.Exit, optics.Absorbed} {
		if e.String() == s {
			return e
		}
	}
	return optics.Absorbed
}
