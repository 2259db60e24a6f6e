package config

import (
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/legkin/internal/control"
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/ik"
	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/physics"
	"github.com/san-kum/legkin/internal/robot"
)

var ErrInvalid = errors.New("config: invalid configuration")

const (
	DefaultDt         = 0.001
	DefaultDuration   = 2.0
	DefaultIntegrator = "rk4"
	DefaultController = "pd"
	DefaultIntegral   = 1.0
)

type Config struct {
	Sim     SimConfig     `yaml:"sim"`
	Gains   GainsConfig   `yaml:"gains"`
	IK      IKConfig      `yaml:"ik"`
	Plant   PlantConfig   `yaml:"plant"`
	Initial StanceConfig  `yaml:"initial"`
	Targets TargetsConfig `yaml:"targets"`
	Robot   RobotConfig   `yaml:"robot"`
	Metrics []string      `yaml:"metrics"`
}

type SimConfig struct {
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Integrator string  `yaml:"integrator"`
	Controller string  `yaml:"controller"`
	// RealTime paces the run against the wall clock; 0 runs unpaced.
	RealTime float64 `yaml:"realtime"`
}

// GainsConfig lists one leg's gains by role; both legs share them.
type GainsConfig struct {
	Waist      control.Gains `yaml:"waist"`
	HipYaw     control.Gains `yaml:"hip_yaw"`
	HipRoll    control.Gains `yaml:"hip_roll"`
	HipPitch   control.Gains `yaml:"hip_pitch"`
	Knee       control.Gains `yaml:"knee"`
	AnklePitch control.Gains `yaml:"ankle_pitch"`
	AnkleRoll  control.Gains `yaml:"ankle_roll"`
	// Scale multiplies every gain; 0 is treated as 1.
	Scale float64 `yaml:"scale,omitempty"`
	// Integral is the pid controller's Ki as a multiple of each joint's Kp, in 1/s.
	Integral float64 `yaml:"integral,omitempty"`
}

type IKConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Damping       float64 `yaml:"damping"`
	StepScale     float64 `yaml:"step_scale"`
}

type PlantConfig struct {
	LegInertia   float64 `yaml:"leg_inertia"`
	LegDamping   float64 `yaml:"leg_damping"`
	WaistInertia float64 `yaml:"waist_inertia"`
	WaistDamping float64 `yaml:"waist_damping"`
	TorqueLimit  float64 `yaml:"torque_limit"`
}

// StanceConfig gives joint angles in degrees; missing legs are zero.
type StanceConfig struct {
	Waist float64   `yaml:"waist"`
	Left  []float64 `yaml:"left,omitempty"`
	Right []float64 `yaml:"right,omitempty"`
}

type TargetsConfig struct {
	Waist float64    `yaml:"waist"`
	Left  *LegTarget `yaml:"left,omitempty"`
	Right *LegTarget `yaml:"right,omitempty"`
}

// LegTarget is either six joint angles in degrees or a foot pose reached
// through IK.
type LegTarget struct {
	Degrees []float64   `yaml:"degrees,omitempty"`
	Pose    *PoseTarget `yaml:"pose,omitempty"`
}

// PoseTarget is a foot pose in the base frame: meters and ZYX Euler degrees.
type PoseTarget struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
	Yaw   float64 `yaml:"yaw"`
	Pitch float64 `yaml:"pitch"`
	Roll  float64 `yaml:"roll"`
	// Guess is the IK initial guess in degrees; empty means all zero.
	Guess []float64 `yaml:"guess,omitempty"`
}

type RobotConfig struct {
	// Description is a model description file; empty uses the built-in RoK-3.
	Description string `yaml:"description,omitempty"`
}

func DefaultConfig() *Config {
	leg := control.DefaultLegGains()
	return &Config{
		Sim: SimConfig{
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			Integrator: DefaultIntegrator,
			Controller: DefaultController,
		},
		Gains: GainsConfig{
			Waist:      control.Gains{Kp: 2, Kd: 2},
			HipYaw:     leg[0],
			HipRoll:    leg[1],
			HipPitch:   leg[2],
			Knee:       leg[3],
			AnklePitch: leg[4],
			AnkleRoll:  leg[5],
			Integral:   DefaultIntegral,
		},
		IK: IKConfig{
			Tolerance:     ik.DefaultTolerance,
			MaxIterations: ik.DefaultMaxIterations,
			Damping:       ik.DefaultDamping,
			StepScale:     ik.DefaultStepScale,
		},
		Plant: PlantConfig{
			LegInertia:   0.5,
			LegDamping:   10,
			WaistInertia: 1,
			WaistDamping: 1,
		},
		Metrics: []string{"tracking_error", "final_error", "control_effort", "peak_torque", "energy"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Metrics = append([]string(nil), c.Metrics...)
	out.Initial.Left = append([]float64(nil), c.Initial.Left...)
	out.Initial.Right = append([]float64(nil), c.Initial.Right...)
	out.Targets.Left = c.Targets.Left.clone()
	out.Targets.Right = c.Targets.Right.clone()
	return &out
}

func (t *LegTarget) clone() *LegTarget {
	if t == nil {
		return nil
	}
	out := &LegTarget{Degrees: append([]float64(nil), t.Degrees...)}
	if t.Pose != nil {
		p := *t.Pose
		p.Guess = append([]float64(nil), t.Pose.Guess...)
		out.Pose = &p
	}
	return out
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var err error
	bad := func(format string, args ...any) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalid, format, args...))
	}

	if !(c.Sim.Dt > 0) {
		bad("sim.dt must be positive, got %g", c.Sim.Dt)
	}
	if !(c.Sim.Duration > 0) {
		bad("sim.duration must be positive, got %g", c.Sim.Duration)
	}
	if c.Sim.RealTime < 0 {
		bad("sim.realtime must be non-negative, got %g", c.Sim.RealTime)
	}
	if c.Gains.Scale < 0 {
		bad("gains.scale must be non-negative, got %g", c.Gains.Scale)
	}
	if c.Gains.Integral < 0 {
		bad("gains.integral must be non-negative, got %g", c.Gains.Integral)
	}
	for _, g := range c.GainTable() {
		if g.Kp < 0 || g.Kd < 0 {
			bad("gains must be non-negative, got kp=%g kd=%g", g.Kp, g.Kd)
			break
		}
	}

	if c.IK.Tolerance < 0 {
		bad("ik.tolerance must be non-negative, got %g", c.IK.Tolerance)
	}
	if verr := c.SolverOptions().Validate(); verr != nil {
		err = multierr.Append(err, verr)
	}
	if perr := c.PlantParams().Validate(); perr != nil {
		err = multierr.Append(err, perr)
	}

	checkDegrees := func(field string, d []float64) {
		if len(d) != 0 && len(d) != kinematics.NumJoints {
			bad("%s needs %d joint angles, got %d", field, kinematics.NumJoints, len(d))
		}
	}
	checkDegrees("initial.left", c.Initial.Left)
	checkDegrees("initial.right", c.Initial.Right)
	for _, side := range []struct {
		name string
		t    *LegTarget
	}{{"left", c.Targets.Left}, {"right", c.Targets.Right}} {
		if side.t == nil {
			continue
		}
		field := "targets." + side.name
		switch {
		case len(side.t.Degrees) > 0 && side.t.Pose != nil:
			bad("%s sets both degrees and pose", field)
		case side.t.Pose != nil:
			checkDegrees(field+".pose.guess", side.t.Pose.Guess)
		default:
			checkDegrees(field+".degrees", side.t.Degrees)
		}
	}
	return err
}

// SimConfig converts to the simulator configuration.
func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:             c.Sim.Dt,
		Duration:       c.Sim.Duration,
		ValidateState:  true,
		RealTimeFactor: c.Sim.RealTime,
	}
}

// GainTable expands the per-role gains into a mirrored table.
func (c *Config) GainTable() control.GainTable {
	g := c.Gains
	t := control.MirroredGains(g.Waist, control.LegGains{
		g.HipYaw, g.HipRoll, g.HipPitch, g.Knee, g.AnklePitch, g.AnkleRoll,
	})
	if g.Scale > 0 {
		t = t.Scale(g.Scale)
	}
	return t
}

// Scaled multiplies every role's Kp by kp and Kd by kd.
func (g GainsConfig) Scaled(kp, kd float64) GainsConfig {
	for _, r := range []*control.Gains{&g.Waist, &g.HipYaw, &g.HipRoll, &g.HipPitch, &g.Knee, &g.AnklePitch, &g.AnkleRoll} {
		r.Kp *= kp
		r.Kd *= kd
	}
	return g
}

// Joint returns the role gains that drive id, before Scale.
func (g GainsConfig) Joint(id robot.JointID) control.Gains {
	return *g.role(id)
}

// WithJoint returns g with the role that drives id set to v. Legs share
// roles, so the mirrored joint changes too.
func (g GainsConfig) WithJoint(id robot.JointID, v control.Gains) GainsConfig {
	*g.role(id) = v
	return g
}

func (g *GainsConfig) role(id robot.JointID) *control.Gains {
	roles := [...]*control.Gains{&g.HipYaw, &g.HipRoll, &g.HipPitch, &g.Knee, &g.AnklePitch, &g.AnkleRoll}
	for _, leg := range []robot.Leg{robot.Left, robot.Right} {
		for i, j := range leg.Joints() {
			if j == id {
				return roles[i]
			}
		}
	}
	return &g.Waist
}

func (c *Config) SolverOptions() ik.Options {
	return ik.Options{
		MaxIterations: c.IK.MaxIterations,
		Damping:       c.IK.Damping,
		StepScale:     c.IK.StepScale,
	}
}

func (c *Config) PlantParams() physics.BipedParams {
	p := physics.UniformParams(c.Plant.LegInertia, c.Plant.LegDamping, c.Plant.WaistInertia, c.Plant.WaistDamping)
	p.TorqueLimit = c.Plant.TorqueLimit
	return p
}

// InitialAngles returns the starting joint angles in radians.
func (c *Config) InitialAngles() [robot.NumJoints]float64 {
	var q [robot.NumJoints]float64
	q[robot.Waist] = c.Initial.Waist * math.Pi / 180
	for _, leg := range []robot.Leg{robot.Left, robot.Right} {
		d := c.Initial.Left
		if leg == robot.Right {
			d = c.Initial.Right
		}
		v, err := DegreesVector(d)
		if err != nil {
			continue
		}
		for i, id := range leg.Joints() {
			q[id] = v[i]
		}
	}
	return q
}

// DegreesVector converts six angles in degrees to a joint vector. An empty
// slice is the zero vector.
func DegreesVector(d []float64) (kinematics.JointVector, error) {
	if len(d) == 0 {
		return kinematics.JointVector{}, nil
	}
	if len(d) != kinematics.NumJoints {
		return kinematics.JointVector{}, errors.Wrapf(kinematics.ErrJointCount, "got %d angles", len(d))
	}
	return kinematics.FromDegrees(d[0], d[1], d[2], d[3], d[4], d[5]), nil
}

// FootPose converts the target to a kinematics pose.
func (p *PoseTarget) FootPose() kinematics.Pose {
	const d2r = math.Pi / 180
	return kinematics.PoseFromEuler(r3.Vector{X: p.X, Y: p.Y, Z: p.Z}, p.Yaw*d2r, p.Pitch*d2r, p.Roll*d2r)
}
