package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/fiberlight/internal/sim"
)

// ExportData is the JSON form of a sweep.
type ExportData struct {
	Fiber   string             `json:"fiber"`
	Mapping string             `json:"mapping"`
	From    float64            `json:"from"`
	To      float64            `json:"to"`
	Steps   int                `json:"steps"`
	Samples []sim.Sample       `json:"samples"`
	Metrics map[string]float64 `json:"metrics"`
}

// ExportJSON writes res as indented JSON.
func ExportJSON(w io.Writer, fiberName, mapping string, res *sim.SweepResult) error {
	data := ExportData{
		Fiber:   fiberName,
		Mapping: mapping,
		From:    res.Config.From,
		To:      res.Config.To,
		Steps:   res.Config.Steps,
		Samples: res.Samples,
		Metrics: res.Metrics,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
