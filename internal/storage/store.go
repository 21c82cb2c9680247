package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/experiment"
	"github.com/san-kum/orbsim/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	energyFile   = "energy.csv"
)

// Store keeps one directory per run holding its metadata and the total
// kinetic energy series. Trajectories are not stored.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type BodyState struct {
	ID       string     `json:"id"`
	Mass     float64    `json:"mass"`
	Position [2]float64 `json:"position"`
	Velocity [2]float64 `json:"velocity"`
}

type RunMetadata struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Timestamp        time.Time             `json:"timestamp"`
	G                float64               `json:"gravitational_constant"`
	Dt               float64               `json:"time_step"`
	Iterations       int                   `json:"iterations"`
	Steps            int                   `json:"steps"`
	Workers          int                   `json:"workers"`
	Integrator       string                `json:"integrator"`
	Bootstrap        string                `json:"bootstrap"`
	Error            string                `json:"error,omitempty"`
	MinKineticEnergy float64               `json:"min_kinetic_energy"`
	Energy           metrics.EnergySummary `json:"energy"`
	Metrics          map[string]float64    `json:"metrics"`
	Final            []BodyState           `json:"final"`
}

// NewMetadata describes a finished or aborted run.
func NewMetadata(cfg *config.Config, res *experiment.Result, runErr error) RunMetadata {
	meta := RunMetadata{
		Name:       cfg.Name,
		G:          cfg.GravitationalConstant,
		Dt:         cfg.TimeStep,
		Iterations: cfg.Iterations,
		Workers:    cfg.Workers,
		Integrator: cfg.Integrator,
		Bootstrap:  cfg.Bootstrap,
		Metrics:    make(map[string]float64),
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	if res == nil {
		return meta
	}

	meta.Steps = res.Steps
	meta.Energy = res.Energy
	if !math.IsInf(res.MinKineticEnergy, 0) {
		meta.MinKineticEnergy = res.MinKineticEnergy
	}
	for name, v := range res.Metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[name] = v
		}
	}
	for _, b := range res.Final {
		meta.Final = append(meta.Final, BodyState{
			ID:       b.ID,
			Mass:     b.Mass,
			Position: [2]float64{b.Position.X, b.Position.Y},
			Velocity: [2]float64{b.Velocity.X, b.Velocity.Y},
		})
	}
	return meta
}

func (s *Store) Save(meta RunMetadata, trace *metrics.EnergyTrace) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now

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

	csvFile, err := os.Create(filepath.Join(runDir, energyFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"step", "time", "kinetic_energy"}); err != nil {
		return "", err
	}

	if trace != nil {
		for i := range trace.Values {
			row := []string{
				strconv.Itoa(trace.Steps[i]),
				strconv.FormatFloat(trace.Times[i], 'g', -1, 64),
				strconv.FormatFloat(trace.Values[i], 'g', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns all readable runs, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadEnergy reads the kinetic energy series of a run.
func (s *Store) LoadEnergy(runID string) ([]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, energyFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	values := make([]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		t, err := strconv.ParseFloat(records[i][1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", energyFile, i+1, err)
		}
		v, err := strconv.ParseFloat(records[i][2], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", energyFile, i+1, err)
		}
		times = append(times, t)
		values = append(values, v)
	}

	return times, values, nil
}

type ExportData struct {
	RunMetadata
	Times         []float64 `json:"times"`
	KineticEnergy []float64 `json:"kinetic_energy"`
}

// ExportJSON writes a run's metadata and energy series as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	times, values, err := s.LoadEnergy(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{
		RunMetadata:   *meta,
		Times:         times,
		KineticEnergy: values,
	})
}
