package experiment

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/control"
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/logging"
	"github.com/san-kum/legkin/internal/physics"
	"github.com/san-kum/legkin/internal/robot"
	"github.com/san-kum/legkin/internal/storage"
)

// Experiment is one configured simulation of the biped tracking a plan.
type Experiment struct {
	cfg         *config.Config
	description *robot.Description
	plan        *Plan

	plant       *physics.Biped
	integrator  dynamo.Integrator
	pd          *control.JointController
	controller  dynamo.Controller
	disturbance *control.Disturbance
	simulator   *dynamo.Simulator
	logger      logging.Logger

	reg  *Registry
	opts []dynamo.Option
}

// New validates cfg and assembles the plant, controller, simulator and
// metrics. opts are passed through to the simulator.
func New(cfg *config.Config, reg *Registry, logger logging.Logger, opts ...dynamo.Option) (*Experiment, error) {
	logger = logging.OrNop(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	desc := robot.DefaultDescription()
	if path := cfg.Robot.Description; path != "" {
		var err error
		if desc, err = robot.LoadDescription(path); err != nil {
			return nil, err
		}
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	plan, err := BuildPlan(cfg, logger)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:         cfg,
		description: desc,
		plan:        plan,
		plant:       physics.NewBiped(cfg.PlantParams()),
		pd:          control.NewJointController(cfg.GainTable()),
		logger:      logger,
		reg:         reg,
		opts:        opts,
	}
	plan.Apply(e.pd)

	integ, err := reg.GetIntegrator(cfg.Sim.Integrator)
	if err != nil {
		return nil, err
	}
	e.integrator = integ
	ctrl, err := reg.GetController(cfg.Sim.Controller, e.pd, cfg.Gains.Integral)
	if err != nil {
		return nil, err
	}
	e.controller = ctrl
	e.disturbance = control.NewDisturbance(ctrl)

	opts = append([]dynamo.Option{dynamo.WithLogger(logger)}, opts...)
	e.simulator = dynamo.New(e.plant, integ, e.disturbance, opts...)

	deps := MetricDeps{Plant: e.plant, Targets: e.pd}
	for _, name := range cfg.Metrics {
		m, err := reg.GetMetric(name, deps)
		if err != nil {
			return nil, err
		}
		e.simulator.AddMetric(m)
	}
	return e, nil
}

// Run simulates from the plan's initial angles at rest.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	e.ResetController()

	e.logger.Infow("run started", "robot", e.description.Name, "dof", e.description.DoFCount(),
		"integrator", e.cfg.Sim.Integrator, "controller", e.cfg.Sim.Controller,
		"dt", e.cfg.Sim.Dt, "duration", e.cfg.Sim.Duration)

	result, err := e.simulator.Run(ctx, e.InitialState(), e.cfg.SimConfig())
	if err != nil {
		return result, errors.Wrap(err, "simulate")
	}
	for _, serr := range result.Errors {
		e.logger.Warnw("run stopped early", "error", serr)
	}
	e.logger.Infow("run finished", "steps", result.StepsTaken, "metrics", result.Metrics)
	return result, nil
}

// ResetController clears controller state and every push, keeping gains
// and targets.
func (e *Experiment) ResetController() {
	e.pd.Reset()
	if r, ok := e.controller.(interface{ Reset() }); ok {
		r.Reset()
	}
	e.disturbance.Clear()
}

// WithGains builds a new experiment from a copy of the configuration with
// gains replaced. The receiver keeps its controller and gains.
func (e *Experiment) WithGains(gains config.GainsConfig) (*Experiment, error) {
	cfg := e.cfg.Clone()
	cfg.Gains = gains
	return New(cfg, e.reg, e.logger, e.opts...)
}

// InitialState is the plant state at the plan's initial angles.
func (e *Experiment) InitialState() dynamo.State {
	return e.plant.InitialState(e.plan.Initial)
}

func (e *Experiment) Config() *config.Config               { return e.cfg }
func (e *Experiment) Description() *robot.Description      { return e.description }
func (e *Experiment) Plan() *Plan                          { return e.plan }
func (e *Experiment) Plant() *physics.Biped                { return e.plant }
func (e *Experiment) Integrator() dynamo.Integrator        { return e.integrator }
func (e *Experiment) Controller() *control.JointController { return e.pd }
func (e *Experiment) Disturbance() *control.Disturbance    { return e.disturbance }
func (e *Experiment) Simulator() *dynamo.Simulator         { return e.simulator }

// Metadata describes the run for storage under preset.
func (e *Experiment) Metadata(preset string) storage.RunMetadata {
	return storage.RunMetadata{
		Preset:     preset,
		Robot:      e.description.Name,
		DoF:        e.description.DoFCount(),
		Dt:         e.cfg.Sim.Dt,
		Duration:   e.cfg.Sim.Duration,
		Integrator: e.cfg.Sim.Integrator,
		Controller: e.cfg.Sim.Controller,
		Targets:    e.plan.TargetDegrees(),
		Notes:      append([]string(nil), e.plan.Notes...),
	}
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }
