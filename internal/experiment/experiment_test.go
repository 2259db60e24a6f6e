package experiment

import (
	"context"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/control"
	"github.com/san-kum/legkin/internal/logging"
	"github.com/san-kum/legkin/internal/robot"
)

func TestRegistry(t *testing.T) {
	g := NewWithT(t)
	reg := NewRegistry()

	g.Expect(reg.ListIntegrators()).To(Equal([]string{"euler", "rk4", "rk45", "verlet"}))
	g.Expect(reg.ListControllers()).To(Equal([]string{"none", "pd", "pid"}))
	g.Expect(reg.ListMetrics()).To(ContainElements("tracking_error", "final_error", "energy", "within_limits"))

	_, err := reg.GetIntegrator("leapfrog")
	g.Expect(errors.Is(err, ErrUnknown)).To(BeTrue())
	_, err = reg.GetMetric("stability", MetricDeps{})
	g.Expect(errors.Is(err, ErrUnknown)).To(BeTrue())

	pd := control.NewJointController(control.DefaultGains())
	ctrl, err := reg.GetController("pd", pd, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ctrl).To(BeIdenticalTo(pd))

	ctrl, err = reg.GetController("pid", pd, 1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ctrl).To(BeAssignableToTypeOf(&control.PID{}))

	ctrl, err = reg.GetController("none", pd, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ctrl).To(Equal(control.Passive{}))

	_, err = reg.GetController("lqr", pd, 0)
	g.Expect(errors.Is(err, ErrUnknown)).To(BeTrue())
}

func TestBuildPlanDegrees(t *testing.T) {
	g := NewWithT(t)

	plan, err := BuildPlan(config.GetPreset("practice"), logging.NewTestLogger(t))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(plan.Notes).To(BeEmpty())
	g.Expect(plan.Legs[robot.Left].IK).To(BeNil())

	deg := plan.TargetDegrees()
	g.Expect(deg).To(HaveLen(robot.NumJoints))
	g.Expect(deg["LHY"]).To(BeNumerically("~", 10, 1e-9))
	g.Expect(deg["LAR"]).To(BeNumerically("~", 60, 1e-9))
	g.Expect(deg["RKN"]).To(BeZero())
}

func TestBuildPlanPoseTargets(t *testing.T) {
	g := NewWithT(t)

	plan, err := BuildPlan(config.GetPreset("crouch"), logging.NewTestLogger(t))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(plan.Notes).To(BeEmpty())

	for _, leg := range []robot.Leg{robot.Left, robot.Right} {
		lp := plan.Legs[leg]
		g.Expect(lp.IK).NotTo(BeNil())
		g.Expect(lp.IK.Converged).To(BeTrue(), "%s leg", leg)

		foot := leg.Chain().Position(lp.Target)
		g.Expect(foot.Z).To(BeNumerically("~", -0.80, 1e-3))
		g.Expect(math.Abs(foot.Y)).To(BeNumerically("~", 0.105, 1e-3))
	}

	left, right := plan.Legs[robot.Left].Target, plan.Legs[robot.Right].Target
	mirrored := robot.Left.Chain().MirrorJoints(left)
	for i := range right {
		g.Expect(right[i]).To(BeNumerically("~", mirrored[i], 1e-3))
	}
}

func TestBuildPlanNonConvergence(t *testing.T) {
	g := NewWithT(t)

	cfg := config.GetPreset("crouch")
	cfg.IK.MaxIterations = 1
	plan, err := BuildPlan(cfg, logging.NewTestLogger(t))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(plan.Notes).To(HaveLen(2))
	g.Expect(plan.Legs[robot.Left].IK.Converged).To(BeFalse())
}

func TestExperimentRun(t *testing.T) {
	g := NewWithT(t)

	cfg := config.GetPreset("stand")
	cfg.Sim.Duration = 1
	exp, err := New(cfg, NewRegistry(), logging.NewTestLogger(t))
	g.Expect(err).NotTo(HaveOccurred())

	x0 := exp.InitialState()
	g.Expect(x0[robot.AngleIndex(robot.LKnee)]).To(BeNumerically("~", 40*math.Pi/180, 1e-12))

	result, err := exp.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Errors).To(BeEmpty())
	g.Expect(result.StepsTaken).To(Equal(1000))
	g.Expect(result.Metrics).To(HaveKey("tracking_error"))
	g.Expect(result.Metrics["final_error"]).To(BeNumerically("<", 0.01))

	final := result.Final()
	for _, leg := range []robot.Leg{robot.Left, robot.Right} {
		for _, id := range leg.Joints() {
			g.Expect(final[robot.AngleIndex(id)]).To(BeNumerically("~", 0, 0.01), id.String())
		}
	}

	meta := exp.Metadata("stand")
	g.Expect(meta.Integrator).To(Equal("rk4"))
	g.Expect(meta.Robot).To(Equal("rok3"))
	g.Expect(meta.DoF).To(Equal(19))
	g.Expect(meta.Targets).To(HaveKeyWithValue("LKN", 0.0))
}

func TestExperimentWithGains(t *testing.T) {
	g := NewWithT(t)

	cfg := config.GetPreset("stand")
	exp, err := New(cfg, NewRegistry(), logging.NewTestLogger(t))
	g.Expect(err).NotTo(HaveOccurred())

	soft := cfg.Gains.WithJoint(robot.LKnee, control.Gains{Kp: 50, Kd: 4})
	next, err := exp.WithGains(soft)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(next.Controller()).NotTo(BeIdenticalTo(exp.Controller()))
	g.Expect(next.Controller().Gains()[robot.RKnee].Kp).To(Equal(50.0))
	g.Expect(next.Controller().TargetAngles()).To(Equal(exp.Controller().TargetAngles()))

	g.Expect(exp.Controller().Gains()[robot.LKnee].Kp).To(Equal(5000.0))
	g.Expect(exp.Config().Gains.Knee.Kp).To(Equal(5000.0))

	soft.Knee.Kp = -1
	_, err = exp.WithGains(soft)
	g.Expect(errors.Is(err, config.ErrInvalid)).To(BeTrue())
}

func TestExperimentPID(t *testing.T) {
	g := NewWithT(t)

	cfg := config.GetPreset("stand")
	cfg.Sim.Controller = "pid"
	cfg.Sim.Duration = 4
	exp, err := New(cfg, NewRegistry(), nil)
	g.Expect(err).NotTo(HaveOccurred())

	first, err := exp.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(first.Errors).To(BeEmpty())
	g.Expect(first.Metrics["final_error"]).To(BeNumerically("<", 0.01))

	// a second run starts from cleared integrators
	second, err := exp.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(second.Metrics).To(Equal(first.Metrics))
}

func TestExperimentPassiveHoldsStill(t *testing.T) {
	g := NewWithT(t)

	cfg := config.GetPreset("practice")
	cfg.Sim.Controller = "none"
	cfg.Sim.Duration = 0.1
	exp, err := New(cfg, NewRegistry(), nil)
	g.Expect(err).NotTo(HaveOccurred())

	result, err := exp.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Final().Norm()).To(BeZero())
	g.Expect(result.Metrics["control_effort"]).To(BeZero())
}

func TestExperimentRejectsBadConfig(t *testing.T) {
	g := NewWithT(t)

	cfg := config.DefaultConfig()
	cfg.Sim.Integrator = "leapfrog"
	_, err := New(cfg, NewRegistry(), nil)
	g.Expect(errors.Is(err, ErrUnknown)).To(BeTrue())

	cfg = config.DefaultConfig()
	cfg.Sim.Dt = 0
	_, err = New(cfg, NewRegistry(), nil)
	g.Expect(errors.Is(err, config.ErrInvalid)).To(BeTrue())
}
