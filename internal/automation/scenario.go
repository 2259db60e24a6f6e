// Package automation runs batches of experiments: scripted scenarios read
// from YAML and Monte Carlo trials over perturbed starting stances.
package automation

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/experiment"
	"github.com/san-kum/legkin/internal/logging"
	"github.com/san-kum/legkin/internal/storage"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a named sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`

	dir string
}

// Step selects a base configuration and overrides parts of it. Config paths
// are relative to the scenario file.
type Step struct {
	Name       string  `yaml:"name"`
	Preset     string  `yaml:"preset"`
	Config     string  `yaml:"config"`
	Integrator string  `yaml:"integrator"`
	Controller string  `yaml:"controller"`
	Duration   float64 `yaml:"duration"`
	Dt         float64 `yaml:"dt"`
	GainScale  float64 `yaml:"gain_scale"`
	Save       bool    `yaml:"save"`
}

// StepResult is the outcome of one scenario step. RunID is empty for steps
// that were not saved.
type StepResult struct {
	Step   string
	RunID  string
	Result *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if len(sc.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	for i := range sc.Steps {
		if sc.Steps[i].Name == "" {
			sc.Steps[i].Name = sc.Steps[i].Preset
		}
	}
	return &sc, nil
}

// Resolve builds the step's configuration: the preset or config file (or
// the defaults), then the step's overrides.
func (s Step) Resolve(dir string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Preset != "" && s.Config != "":
		return nil, errors.Wrap(config.ErrInvalid, "step sets both preset and config")
	case s.Preset != "":
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, errors.Wrapf(config.ErrInvalid, "unknown preset %q", s.Preset)
		}
	case s.Config != "":
		path := s.Config
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	default:
		cfg = config.DefaultConfig()
	}

	if s.Integrator != "" {
		cfg.Sim.Integrator = s.Integrator
	}
	if s.Controller != "" {
		cfg.Sim.Controller = s.Controller
	}
	if s.Duration > 0 {
		cfg.Sim.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Sim.Dt = s.Dt
	}
	if s.GainScale > 0 {
		cfg.Gains = cfg.Gains.Scaled(s.GainScale, s.GainScale)
	}
	return cfg, cfg.Validate()
}

// RunScenario runs every step in order and stops at the first failure. With
// a non-nil store, steps marked save are persisted.
func RunScenario(ctx context.Context, sc *Scenario, reg *experiment.Registry, store *storage.Store, logger logging.Logger) ([]StepResult, error) {
	logger = logging.OrNop(logger)
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		logger.Infow("scenario step", "scenario", sc.Name, "step", i+1, "of", len(sc.Steps), "name", step.Name)

		cfg, err := step.Resolve(sc.dir)
		if err != nil {
			return results, errors.Wrapf(err, "step %d (%s)", i+1, step.Name)
		}
		exp, err := experiment.New(cfg, reg, logger)
		if err != nil {
			return results, errors.Wrapf(err, "step %d (%s)", i+1, step.Name)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, errors.Wrapf(err, "step %d (%s)", i+1, step.Name)
		}

		out := StepResult{Step: step.Name, Result: result}
		if step.Save && store != nil {
			preset := step.Preset
			if preset == "" {
				preset = step.Name
			}
			if out.RunID, err = store.Save(exp.Metadata(preset), result); err != nil {
				return results, errors.Wrapf(err, "step %d (%s)", i+1, step.Name)
			}
		}
		results = append(results, out)
	}
	return results, nil
}
