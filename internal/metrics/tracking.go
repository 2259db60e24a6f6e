package metrics

import (
	"math"

	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/robot"
)

// Targets supplies the joint angles the controller is tracking.
type Targets interface {
	TargetAngles() [robot.NumJoints]float64
}

// TrackingError is the RMS joint angle error, in radians, over all joints
// and steps.
type TrackingError struct {
	targets Targets
	sumSq   float64
	samples int
}

func NewTrackingError(targets Targets) *TrackingError {
	return &TrackingError{targets: targets}
}

func (m *TrackingError) Name() string { return "tracking_error" }

func (m *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	want := m.targets.TargetAngles()
	for _, id := range robot.AllJoints() {
		e := want[id] - x[robot.AngleIndex(id)]
		m.sumSq += e * e
	}
	m.samples += robot.NumJoints
}

func (m *TrackingError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *TrackingError) Reset() {
	m.sumSq = 0
	m.samples = 0
}

// FinalError is the largest absolute joint angle error at the last
// observed step.
type FinalError struct {
	targets Targets
	last    float64
}

func NewFinalError(targets Targets) *FinalError {
	return &FinalError{targets: targets}
}

func (m *FinalError) Name() string { return "final_error" }

func (m *FinalError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	want := m.targets.TargetAngles()
	m.last = 0
	for _, id := range robot.AllJoints() {
		m.last = math.Max(m.last, math.Abs(want[id]-x[robot.AngleIndex(id)]))
	}
}

func (m *FinalError) Value() float64 { return m.last }

func (m *FinalError) Reset() { m.last = 0 }

// WithinLimits is the fraction of steps in which every joint angle stays
// inside ±limit radians.
type WithinLimits struct {
	limit      float64
	violations int
	samples    int
}

func NewWithinLimits(limit float64) *WithinLimits {
	return &WithinLimits{limit: limit}
}

func (m *WithinLimits) Name() string { return "within_limits" }

func (m *WithinLimits) Observe(x dynamo.State, u dynamo.Control, t float64) {
	m.samples++
	for _, id := range robot.AllJoints() {
		if math.Abs(x[robot.AngleIndex(id)]) > m.limit {
			m.violations++
			return
		}
	}
}

func (m *WithinLimits) Value() float64 {
	if m.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(m.violations)/float64(m.samples)
}

func (m *WithinLimits) Reset() {
	m.violations = 0
	m.samples = 0
}
