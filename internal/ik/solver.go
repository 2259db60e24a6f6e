package ik

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/linalg"
	"github.com/san-kum/legkin/internal/logging"
)

const (
	DefaultMaxIterations = 200
	DefaultDamping       = 0.001
	DefaultStepScale     = 0.5
	DefaultTolerance     = 0.001
)

// Options tune the Newton-Raphson loop.
type Options struct {
	MaxIterations int
	Damping       float64
	// StepScale under-relaxes each Newton step.
	StepScale float64
	// Trace records the residual norm after every iteration in Result.History.
	Trace bool
}

// DefaultOptions returns 200 iterations, λ=0.001 and half steps.
func DefaultOptions() Options {
	return Options{
		MaxIterations: DefaultMaxIterations,
		Damping:       DefaultDamping,
		StepScale:     DefaultStepScale,
	}
}

// Validate reports every problem with o.
func (o Options) Validate() error {
	var err error
	if o.MaxIterations < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrOptions, "max iterations %d < 0", o.MaxIterations))
	}
	if o.Damping < 0 || math.IsNaN(o.Damping) {
		err = multierr.Append(err, errors.Wrapf(ErrOptions, "damping %g < 0", o.Damping))
	}
	if !(o.StepScale > 0) {
		err = multierr.Append(err, errors.Wrapf(ErrOptions, "step scale %g must be > 0", o.StepScale))
	}
	return err
}

// Result is the outcome of a solve. When Converged is false, Joints is the
// last iterate and must be treated as a best effort.
type Result struct {
	Joints     kinematics.JointVector
	Converged  bool
	Iterations int
	Residual   float64
	History    []float64
}

// Solver runs IK against one chain.
type Solver struct {
	chain  kinematics.Chain
	opts   Options
	logger logging.Logger
}

// NewSolver validates opts and returns a solver. A nil logger discards output.
func NewSolver(chain kinematics.Chain, opts Options, logger logging.Logger) (*Solver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Solver{chain: chain, opts: opts, logger: logging.OrNop(logger)}, nil
}

// Options returns the solver's options.
func (s *Solver) Options() Options {
	return s.opts
}

// Solve searches for joint angles placing the foot at target, starting from guess.
// It only returns an error for malformed input or a singular regularized matrix.
func (s *Solver) Solve(target kinematics.Pose, guess kinematics.JointVector, tol float64) (*Result, error) {
	if tol < 0 || math.IsNaN(tol) {
		return nil, errors.Wrapf(ErrTolerance, "tol=%g", tol)
	}
	if err := kinematics.CheckRotation(target.Rotation); err != nil {
		return nil, errors.Wrap(err, "target orientation")
	}

	q := guess
	e := target.Error(s.chain.Pose(q))
	res := &Result{}
	if s.opts.Trace {
		res.History = make([]float64, 0, s.opts.MaxIterations+1)
		res.History = append(res.History, mat.Norm(e, 2))
	}

	it := 0
	for it < s.opts.MaxIterations && mat.Norm(e, 2) > tol {
		dq, err := linalg.Solve(s.chain.Jacobian(q), e, s.opts.Damping)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d", it)
		}
		q = q.AddScaledVec(s.opts.StepScale, dq)
		e = target.Error(s.chain.Pose(q))
		it++

		if s.opts.Trace {
			res.History = append(res.History, mat.Norm(e, 2))
		}
		s.logger.Debugw("ik step", "iteration", it, "residual", mat.Norm(e, 2))
	}

	res.Joints = q
	res.Iterations = it
	res.Residual = mat.Norm(e, 2)
	res.Converged = res.Residual <= tol
	if !res.Converged {
		s.logger.Warnw("ik did not converge", "iterations", it, "residual", res.Residual, "tolerance", tol)
	}
	return res, nil
}

// Residual returns the pose-error norm of q against target.
func (s *Solver) Residual(target kinematics.Pose, q kinematics.JointVector) float64 {
	return mat.Norm(target.Error(s.chain.Pose(q)), 2)
}
