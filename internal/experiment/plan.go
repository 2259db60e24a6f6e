package experiment

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/control"
	"github.com/san-kum/legkin/internal/ik"
	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/logging"
	"github.com/san-kum/legkin/internal/robot"
)

// LegPlan is one leg's resolved target.
type LegPlan struct {
	Leg    robot.Leg
	Target kinematics.JointVector
	// Pose is set when the target came from a foot pose; IK holds the solve.
	Pose *kinematics.Pose
	IK   *ik.Result
}

// Plan is the set of joint targets a run tracks, plus its starting angles.
type Plan struct {
	Waist   float64
	Legs    [2]LegPlan
	Initial [robot.NumJoints]float64
	Notes   []string
}

// BuildPlan resolves the configured targets. Pose targets are solved on the
// leg's own chain; a solve that does not converge still yields its last
// iterate and adds a note.
func BuildPlan(cfg *config.Config, logger logging.Logger) (*Plan, error) {
	logger = logging.OrNop(logger)
	p := &Plan{
		Waist:   degToRad(cfg.Targets.Waist),
		Initial: cfg.InitialAngles(),
	}

	for _, leg := range []robot.Leg{robot.Left, robot.Right} {
		t := cfg.Targets.Left
		if leg == robot.Right {
			t = cfg.Targets.Right
		}
		lp, err := resolveLeg(cfg, leg, t, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "%s leg target", leg)
		}
		if lp.IK != nil && !lp.IK.Converged {
			p.Notes = append(p.Notes, fmt.Sprintf("%s leg IK did not converge: residual %.3g after %d iterations",
				leg, lp.IK.Residual, lp.IK.Iterations))
		}
		p.Legs[leg] = lp
	}
	return p, nil
}

func resolveLeg(cfg *config.Config, leg robot.Leg, t *config.LegTarget, logger logging.Logger) (LegPlan, error) {
	lp := LegPlan{Leg: leg}
	if t == nil {
		return lp, nil
	}
	if t.Pose == nil {
		q, err := config.DegreesVector(t.Degrees)
		if err != nil {
			return lp, err
		}
		lp.Target = q
		return lp, nil
	}

	guess, err := config.DegreesVector(t.Pose.Guess)
	if err != nil {
		return lp, errors.Wrap(err, "guess")
	}
	solver, err := ik.NewSolver(leg.Chain(), cfg.SolverOptions(), logger.With("leg", leg.String()))
	if err != nil {
		return lp, err
	}
	pose := t.Pose.FootPose()
	res, err := solver.Solve(pose, guess, cfg.IK.Tolerance)
	if err != nil {
		return lp, err
	}
	logger.Infow("solved foot pose", "leg", leg.String(), "converged", res.Converged,
		"iterations", res.Iterations, "residual", res.Residual)

	lp.Target = res.Joints
	lp.Pose = &pose
	lp.IK = res
	return lp, nil
}

// Apply loads the plan's targets into c.
func (p *Plan) Apply(c *control.JointController) {
	c.SetTarget(robot.Waist, p.Waist, 0)
	for _, lp := range p.Legs {
		c.SetLegTargets(lp.Leg, lp.Target)
	}
}

// TargetDegrees maps each joint's short tag to its target in degrees.
func (p *Plan) TargetDegrees() map[string]float64 {
	out := make(map[string]float64, robot.NumJoints)
	out[robot.Waist.Short()] = radToDeg(p.Waist)
	for _, lp := range p.Legs {
		for i, id := range lp.Leg.Joints() {
			out[id.Short()] = radToDeg(lp.Target[i])
		}
	}
	return out
}
