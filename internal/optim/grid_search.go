package optim

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/experiment"
)

var (
	ErrGrid     = errors.New("optim: invalid grid")
	ErrNoResult = errors.New("optim: no grid point produced a result")
)

// Objective scores one grid point; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type Evaluation struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type Outcome struct {
	Best        map[string]float64
	Value       float64
	Evaluations []Evaluation
}

// GridSearch evaluates every combination of parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, errors.Wrapf(ErrGrid, "%d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, errors.Wrapf(ErrGrid, "parameter %q has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points returns the grid in row-major order, last parameter fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.collect(0, make(map[string]float64), &points)
	return points
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	for _, val := range g.ranges[depth] {
		current[g.paramNames[depth]] = val
		g.collect(depth+1, current, out)
	}
}

// Search runs obj on every grid point in parallel and returns the minimum.
// Points whose objective fails or is NaN are skipped.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (*Outcome, error) {
	points := g.Points()
	evals := make([]Evaluation, len(points))

	dynamo.ParallelFor(len(points), 1, func(start, end int) {
		for i := start; i < end; i++ {
			evals[i].Params = points[i]
			if err := ctx.Err(); err != nil {
				evals[i].Err = err
				continue
			}
			evals[i].Value, evals[i].Err = obj(ctx, points[i])
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{Value: math.Inf(1), Evaluations: evals}
	var failures error
	for _, e := range evals {
		if e.Err != nil {
			failures = multierr.Append(failures, e.Err)
			continue
		}
		if !math.IsNaN(e.Value) && e.Value < out.Value {
			out.Best, out.Value = e.Params, e.Value
		}
	}
	if out.Best == nil {
		return nil, multierr.Append(ErrNoResult, failures)
	}
	return out, nil
}

// ExperimentObjective runs the experiment built for each point and scores
// it by the named metric. A run that diverges counts as a failure.
func ExperimentObjective(build func(params map[string]float64) (*experiment.Experiment, error), metric string) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		exp, err := build(params)
		if err != nil {
			return 0, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return 0, err
		}
		if len(result.Errors) > 0 {
			return 0, errors.Wrapf(result.Errors[0], "params %v", params)
		}
		v, ok := result.Metrics[metric]
		if !ok {
			return 0, errors.Errorf("metric %q not recorded", metric)
		}
		return v, nil
	}
}

// GainScaleConfig returns a copy of base with its gains scaled by the
// "kp" and "kd" entries of params. A missing entry leaves that gain as is.
func GainScaleConfig(base *config.Config, params map[string]float64) *config.Config {
	kp, kd := 1.0, 1.0
	if v, ok := params["kp"]; ok {
		kp = v
	}
	if v, ok := params["kd"]; ok {
		kd = v
	}
	cfg := base.Clone()
	cfg.Gains = cfg.Gains.Scaled(kp, kd)
	return cfg
}
