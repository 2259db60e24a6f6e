package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/physics"
	"github.com/san-kum/legkin/internal/robot"
)

type fixedTargets [robot.NumJoints]float64

func (f fixedTargets) TargetAngles() [robot.NumJoints]float64 { return f }

func state(angles map[robot.JointID]float64) dynamo.State {
	x := make(dynamo.State, robot.StateDim)
	for id, a := range angles {
		x[robot.AngleIndex(id)] = a
	}
	return x
}

func TestControlEffortAndPeak(t *testing.T) {
	effort := NewControlEffort()
	peak := NewPeakTorque()

	for _, u := range []dynamo.Control{{1, -2}, {-3, 0}} {
		effort.Observe(nil, u, 0)
		peak.Observe(nil, u, 0)
	}

	if got := effort.Value(); got != 3 {
		t.Errorf("control effort = %v, want 3", got)
	}
	if got := peak.Value(); got != 3 {
		t.Errorf("peak torque = %v, want 3", got)
	}

	effort.Reset()
	peak.Reset()
	if effort.Value() != 0 || peak.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestEnergy(t *testing.T) {
	plant := physics.NewBiped(physics.DefaultBipedParams())
	m := NewEnergy(plant)
	p := NewPeakEnergy(plant)

	x := make(dynamo.State, robot.StateDim)
	m.Observe(x, nil, 0)
	x[robot.VelocityIndex(robot.LKnee)] = 2
	m.Observe(x, nil, 0)
	p.Observe(x, nil, 0)

	want := 0.5 * 0.5 * 4
	if got := m.Value(); math.Abs(got-want/2) > 1e-12 {
		t.Errorf("mean energy = %v, want %v", got, want/2)
	}
	if got := p.Value(); math.Abs(got-want) > 1e-12 {
		t.Errorf("peak energy = %v, want %v", got, want)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestTrackingError(t *testing.T) {
	var targets fixedTargets
	targets[robot.LKnee] = 0.5

	rms := NewTrackingError(targets)
	final := NewFinalError(targets)

	rms.Observe(state(nil), nil, 0)
	final.Observe(state(nil), nil, 0)
	want := math.Sqrt(0.25 / float64(robot.NumJoints))
	if got := rms.Value(); math.Abs(got-want) > 1e-12 {
		t.Errorf("tracking error = %v, want %v", got, want)
	}
	if got := final.Value(); got != 0.5 {
		t.Errorf("final error = %v, want 0.5", got)
	}

	on := state(map[robot.JointID]float64{robot.LKnee: 0.5})
	final.Observe(on, nil, 0)
	if got := final.Value(); got != 0 {
		t.Errorf("final error at target = %v, want 0", got)
	}

	rms.Reset()
	rms.Observe(on, nil, 0)
	if got := rms.Value(); got != 0 {
		t.Errorf("tracking error at target = %v, want 0", got)
	}
}

func TestWithinLimits(t *testing.T) {
	m := NewWithinLimits(1.0)
	if m.Value() != 1 {
		t.Error("expected 1 with no samples")
	}

	m.Observe(state(nil), nil, 0)
	m.Observe(state(map[robot.JointID]float64{robot.RHipRoll: -1.5}), nil, 0)
	if got := m.Value(); got != 0.5 {
		t.Errorf("within limits = %v, want 0.5", got)
	}
}
