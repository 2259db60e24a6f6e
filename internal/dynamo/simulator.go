package dynamo

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Simulator struct {
	sys        System
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer

	clock  clock.Clock
	logger *zap.SugaredLogger
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithClock sets the clock used for real-time pacing.
func WithClock(c clock.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// WithLogger sets the simulator's logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Simulator) { s.logger = l }
}

func New(sys System, integrator Integrator, controller Controller, opts ...Option) *Simulator {
	s := &Simulator{
		sys:        sys,
		integrator: integrator,
		controller: controller,
		clock:      clock.New(),
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	result := &Result{
		States:   make([]State, 0, steps+1),
		Controls: make([]Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	initialEnergy := s.energy(x)
	pacer := s.newPacer(cfg.RealTimeFactor)

	s.logger.Debugw("run started", "steps", steps, "dt", cfg.Dt, "realtime", cfg.RealTimeFactor)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)
		if len(u) != s.sys.ControlDim() {
			return result, &SimulationError{Step: i, Time: t, State: x.Clone(),
				Wrapped: errors.Wrapf(ErrDimensionMismatch, "controller returned %d controls, system takes %d", len(u), s.sys.ControlDim())}
		}

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		next := s.integrator.Step(s.sys, x, u, t, cfg.Dt)
		if cfg.ValidateState && !next.IsValid() {
			err := &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
			result.Errors = append(result.Errors, err)
			s.logger.Warnw("state diverged, stopping run", "step", i, "t", t)
			break
		}

		x = next
		t = float64(i+1) * cfg.Dt
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)

		if err := pacer.wait(ctx, t); err != nil {
			return result, err
		}
	}

	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(s.energy(x)-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debugw("run finished", "steps", result.StepsTaken, "errors", len(result.Errors))
	return result, nil
}

// RunWithCallback steps the simulation, handing each state to callback until
// it returns false or the duration elapses. Nothing is recorded.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(State, Control, float64) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	pacer := s.newPacer(cfg.RealTimeFactor)

	for i := 0; i < cfg.Steps(); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		u := s.controller.Compute(x, t)
		if !callback(x, u, t) {
			return nil
		}

		x = s.integrator.Step(s.sys, x, u, t, cfg.Dt)
		if cfg.ValidateState && !x.IsValid() {
			return &SimulationError{Step: i, Time: t + cfg.Dt, State: x, Wrapped: ErrInvalidState}
		}

		if err := pacer.wait(ctx, t+cfg.Dt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return errors.Wrapf(ErrParameterBounds, "dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return errors.Wrapf(ErrParameterBounds, "duration must be positive, got %g", cfg.Duration)
	}
	if cfg.RealTimeFactor < 0 {
		return errors.Wrapf(ErrParameterBounds, "real-time factor must be non-negative, got %g", cfg.RealTimeFactor)
	}
	if len(x0) != s.sys.StateDim() {
		return errors.Wrapf(ErrDimensionMismatch, "initial state has %d entries, system has %d", len(x0), s.sys.StateDim())
	}
	return nil
}

func (s *Simulator) energy(x State) float64 {
	if h, ok := s.sys.(Hamiltonian); ok {
		return h.Energy(x)
	}
	return 0
}

// pacer sleeps so that simulated time t is reached no earlier than
// t/factor of wall time after the run started.
type pacer struct {
	clock  clock.Clock
	start  time.Time
	factor float64
}

func (s *Simulator) newPacer(factor float64) *pacer {
	return &pacer{clock: s.clock, start: s.clock.Now(), factor: factor}
}

func (p *pacer) wait(ctx context.Context, t float64) error {
	if p.factor <= 0 {
		return nil
	}
	due := p.start.Add(time.Duration(t / p.factor * float64(time.Second)))
	ahead := due.Sub(p.clock.Now())
	if ahead <= 0 {
		return nil
	}
	timer := p.clock.Timer(ahead)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
