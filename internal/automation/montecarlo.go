package automation

import (
	"context"
	"math/rand/v2"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/experiment"
	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/logging"
)

// DefaultSettleTolerance is the largest final joint error, in radians, a
// trial may end with and still count as stable.
const DefaultSettleTolerance = 0.01

// MonteCarloConfig perturbs every initial joint angle of Base by a uniform
// offset in [-PerturbDeg, PerturbDeg] degrees.
type MonteCarloConfig struct {
	Base       *config.Config
	Trials     int
	PerturbDeg float64
	Seed       uint64
	Tolerance  float64
}

// Trial is one perturbed run. Stable means the run finished without
// diverging and ended within tolerance of its targets.
type Trial struct {
	ID         int
	Initial    config.StanceConfig
	FinalError float64
	Stable     bool
	Err        error
}

// Summary aggregates a batch of trials.
type Summary struct {
	Stable, Unstable, Failed int
	MeanFinalError           float64
	WorstFinalError          float64
}

// RunMonteCarlo runs the trials in parallel. Each trial draws from its own
// seeded source, so results do not depend on scheduling.
func RunMonteCarlo(ctx context.Context, mc MonteCarloConfig, reg *experiment.Registry, logger logging.Logger) ([]Trial, error) {
	if mc.Base == nil || mc.Trials <= 0 || mc.PerturbDeg < 0 {
		return nil, errors.Wrapf(config.ErrInvalid, "monte carlo needs a base config and trials > 0, got %d trials, ±%g deg", mc.Trials, mc.PerturbDeg)
	}
	tol := mc.Tolerance
	if tol <= 0 {
		tol = DefaultSettleTolerance
	}
	base := mc.Base.Clone()
	if !containsMetric(base.Metrics, "final_error") {
		base.Metrics = append(base.Metrics, "final_error")
	}
	logger = logging.OrNop(logger)
	logger.Infow("monte carlo", "trials", mc.Trials, "perturb_deg", mc.PerturbDeg, "seed", mc.Seed)

	trials := make([]Trial, mc.Trials)
	dynamo.ParallelFor(mc.Trials, 1, func(start, end int) {
		for i := start; i < end; i++ {
			trials[i] = runTrial(ctx, base, mc, i, tol, reg)
		}
	})
	if err := ctx.Err(); err != nil {
		return trials, err
	}

	var failures error
	for _, t := range trials {
		failures = multierr.Append(failures, t.Err)
	}
	if s := Summarize(trials); s.Failed == len(trials) {
		return trials, errors.Wrap(failures, "every trial failed")
	}
	return trials, nil
}

func runTrial(ctx context.Context, base *config.Config, mc MonteCarloConfig, id int, tol float64, reg *experiment.Registry) Trial {
	noise := distuv.Uniform{Min: -mc.PerturbDeg, Max: mc.PerturbDeg, Src: rand.NewPCG(mc.Seed, uint64(id))}
	perturb := func(d []float64) []float64 {
		out := make([]float64, kinematics.NumJoints)
		copy(out, d)
		for i := range out {
			out[i] += noise.Rand()
		}
		return out
	}

	cfg := base.Clone()
	cfg.Initial = config.StanceConfig{
		Waist: base.Initial.Waist + noise.Rand(),
		Left:  perturb(base.Initial.Left),
		Right: perturb(base.Initial.Right),
	}
	trial := Trial{ID: id, Initial: cfg.Initial}

	if err := ctx.Err(); err != nil {
		trial.Err = err
		return trial
	}
	exp, err := experiment.New(cfg, reg, nil)
	if err != nil {
		trial.Err = errors.Wrapf(err, "trial %d", id)
		return trial
	}
	result, err := exp.Run(ctx)
	if err != nil {
		trial.Err = errors.Wrapf(err, "trial %d", id)
		return trial
	}
	trial.FinalError = result.Metrics["final_error"]
	trial.Stable = len(result.Errors) == 0 && trial.FinalError <= tol
	return trial
}

func Summarize(trials []Trial) Summary {
	var s Summary
	var finals []float64
	for _, t := range trials {
		switch {
		case t.Err != nil:
			s.Failed++
			continue
		case t.Stable:
			s.Stable++
		default:
			s.Unstable++
		}
		finals = append(finals, t.FinalError)
		s.WorstFinalError = max(s.WorstFinalError, t.FinalError)
	}
	if len(finals) > 0 {
		s.MeanFinalError = stat.Mean(finals, nil)
	}
	return s
}

func containsMetric(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
