package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/fluidlab/internal/config"
	"github.com/san-kum/fluidlab/internal/fluid"
	"github.com/san-kum/fluidlab/internal/runner"
)

type ExportData struct {
	Config     *config.Config     `json:"config"`
	StepsTaken int                `json:"steps_taken"`
	Stats      []fluid.Stats      `json:"stats"`
	Metrics    map[string]float64 `json:"metrics"`
	Divergence []float64          `json:"divergence_history,omitempty"`
}

func NewExportData(cfg *config.Config, result *runner.Result, history []float64) ExportData {
	return ExportData{
		Config:     cfg,
		StepsTaken: result.StepsTaken,
		Stats:      result.Stats,
		Metrics:    result.Metrics,
		Divergence: history,
	}
}

func WriteJSON(out io.Writer, data ExportData) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSON writes data to path, or to stdout when path is "-" or empty.
func ExportJSON(path string, data ExportData) error {
	if path == "" || path == "-" {
		return WriteJSON(os.Stdout, data)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

// ExportCSV writes the per-step stats to path, or to stdout when path is
// "-" or empty.
func ExportCSV(path string, stats []fluid.Stats) error {
	if path == "" || path == "-" {
		return WriteStatsCSV(os.Stdout, stats)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteStatsCSV(file, stats)
}
