package metrics

import (
	"math"

	"github.com/san-kum/legkin/internal/dynamo"
)

// ControlEffort is the mean over steps of the summed absolute joint torques.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for _, val := range u {
		c.sum += math.Abs(val)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// PeakTorque is the largest absolute torque commanded to any joint.
type PeakTorque struct {
	peak float64
}

func NewPeakTorque() *PeakTorque {
	return &PeakTorque{}
}

func (p *PeakTorque) Name() string { return "peak_torque" }

func (p *PeakTorque) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for _, val := range u {
		p.peak = math.Max(p.peak, math.Abs(val))
	}
}

func (p *PeakTorque) Value() float64 { return p.peak }

func (p *PeakTorque) Reset() { p.peak = 0 }
