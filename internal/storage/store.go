package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fluidlab/internal/config"
	"github.com/san-kum/fluidlab/internal/fluid"
	"github.com/san-kum/fluidlab/internal/runner"
)

const (
	metadataFile = "metadata.json"
	statsFile    = "stats.csv"
)

var statsHeader = []string{"step", "divergence_l2", "max_velocity", "cfl_estimate", "max_dye"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Config     *config.Config     `json:"config"`
	Metrics    map[string]float64 `json:"metrics"`
	StepsTaken int                `json:"steps_taken"`
	ElapsedMs  int64              `json:"elapsed_ms"`
	Error      string             `json:"error,omitempty"`
}

// Save writes a run directory holding the metadata and the per-step stats.
// runErr is recorded when the run stopped early.
func (s *Store) Save(cfg *config.Config, result *runner.Result, runErr error) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       name,
		Timestamp:  now,
		Config:     cfg,
		Metrics:    result.Metrics,
		StepsTaken: result.StepsTaken,
		ElapsedMs:  result.Elapsed.Milliseconds(),
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteStatsCSV(csvFile, result.Stats); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteStatsCSV writes one header row and one row per step.
func WriteStatsCSV(out io.Writer, stats []fluid.Stats) error {
	w := csv.NewWriter(out)
	if err := w.Write(statsHeader); err != nil {
		return err
	}
	for _, st := range stats {
		row := []string{
			strconv.Itoa(st.Step),
			formatFloat(st.DivergenceL2),
			formatFloat(st.MaxVelocity),
			formatFloat(st.CFLEstimate),
			formatFloat(st.MaxDye),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadStats(runID string) ([]fluid.Stats, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(statsHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	if len(records) < 2 {
		return []fluid.Stats{}, nil
	}

	stats := make([]fluid.Stats, 0, len(records)-1)
	for i, record := range records[1:] {
		st, err := parseStats(record)
		if err != nil {
			return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
		}
		stats = append(stats, st)
	}

	return stats, nil
}

func parseStats(record []string) (fluid.Stats, error) {
	var st fluid.Stats
	step, err := strconv.Atoi(record[0])
	if err != nil {
		return st, err
	}
	st.Step = step

	vals := make([]float64, 4)
	for j := range vals {
		v, err := strconv.ParseFloat(record[j+1], 64)
		if err != nil {
			return st, err
		}
		vals[j] = v
	}
	st.DivergenceL2, st.MaxVelocity, st.CFLEstimate, st.MaxDye = vals[0], vals[1], vals[2], vals[3]
	return st, nil
}
