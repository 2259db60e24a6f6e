// Package storage persists simulation runs: one directory per run holding
// metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/robot"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

type Store struct {
	baseDir string
	clock   clock.Clock
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, clock: clock.New()}
}

// WithClock replaces the clock used for run IDs and timestamps.
func (s *Store) WithClock(c clock.Clock) *Store {
	s.clock = c
	return s
}

func (s *Store) Init() error {
	return errors.Wrap(os.MkdirAll(s.baseDir, 0755), "create data directory")
}

// RunMetadata describes a stored run. Callers fill everything except ID
// and Timestamp, which Save assigns.
type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Robot      string             `json:"robot,omitempty"`
	DoF        int                `json:"dof,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Targets    map[string]float64 `json:"targets,omitempty"`
	Notes      []string           `json:"notes,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Header returns the states.csv column names: time, every joint angle,
// every joint velocity, then every joint torque.
func Header() []string {
	header := []string{"time"}
	for _, suffix := range []string{"q", "dq", "tau"} {
		for _, id := range robot.AllJoints() {
			header = append(header, id.Short()+"_"+suffix)
		}
	}
	return header
}

// Save writes a run and returns its ID.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := s.clock.Now()
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%s", name, now.UTC().Format("20060102T150405.000"))
	meta.Timestamp = now
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "create run directory")
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrapf(enc.Encode(v), "encode %s", path)
}

func writeStates(path string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header()); err != nil {
		return errors.Wrap(err, "write header")
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }
	for i, x := range result.States {
		row := make([]string, 0, 1+robot.StateDim+robot.NumJoints)
		row = append(row, format(result.Times[i]))
		for j := 0; j < robot.StateDim; j++ {
			row = append(row, format(valueAt(x, j)))
		}
		var u dynamo.Control
		if i < len(result.Controls) {
			u = result.Controls[i]
		}
		for j := 0; j < robot.NumJoints; j++ {
			row = append(row, format(valueAt(u, j)))
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "write row")
		}
	}

	w.Flush()
	return errors.Wrap(w.Error(), "flush states")
}

func valueAt(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

// List returns every stored run, oldest first. Directories without
// readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrap(err, "read data directory")
	}

	runs := make([]RunMetadata, 0, len(entries))
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
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrRunNotFound, "%q", runID)
		}
		return nil, errors.Wrap(err, "read metadata")
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "parse metadata of %s", runID)
	}
	return &meta, nil
}

// LoadStates reads a run's recorded host states and torques.
func (s *Store) LoadStates(runID string) (*dynamo.Result, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrRunNotFound, "%q", runID)
		}
		return nil, errors.Wrap(err, "open states")
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse states of %s", runID)
	}

	result := &dynamo.Result{}
	if len(records) < 2 {
		return result, nil
	}

	for line, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "states of %s, line %d", runID, line+2)
			}
			values[j] = v
		}
		if len(values) < 1+robot.StateDim+robot.NumJoints {
			return nil, errors.Errorf("states of %s, line %d: expected %d columns, got %d",
				runID, line+2, 1+robot.StateDim+robot.NumJoints, len(values))
		}
		result.Times = append(result.Times, values[0])
		result.States = append(result.States, dynamo.State(values[1:1+robot.StateDim]))
		result.Controls = append(result.Controls, dynamo.Control(values[1+robot.StateDim:]))
	}
	result.StepsTaken = len(result.States) - 1
	return result, nil
}

// Column extracts one state component over time.
func Column(states []dynamo.State, index int) []float64 {
	col := make([]float64, len(states))
	for i, x := range states {
		col[i] = valueAt(x, index)
	}
	return col
}
