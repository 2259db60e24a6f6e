package metrics

import (
	"math"

	"github.com/san-kum/legkin/internal/dynamo"
)

// Energy is the plant's mean mechanical energy over the run. It reads zero
// for plants that do not implement dynamo.Hamiltonian.
type Energy struct {
	sys     dynamo.System
	total   float64
	samples int
}

func NewEnergy(sys dynamo.System) *Energy {
	return &Energy{sys: sys}
}

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	h, ok := e.sys.(dynamo.Hamiltonian)
	if !ok {
		return
	}
	e.total += h.Energy(x)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// PeakEnergy is the largest mechanical energy seen during the run.
type PeakEnergy struct {
	sys  dynamo.System
	peak float64
}

func NewPeakEnergy(sys dynamo.System) *PeakEnergy {
	return &PeakEnergy{sys: sys}
}

func (e *PeakEnergy) Name() string { return "peak_energy" }

func (e *PeakEnergy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if h, ok := e.sys.(dynamo.Hamiltonian); ok {
		e.peak = math.Max(e.peak, h.Energy(x))
	}
}

func (e *PeakEnergy) Value() float64 { return e.peak }

func (e *PeakEnergy) Reset() { e.peak = 0 }
