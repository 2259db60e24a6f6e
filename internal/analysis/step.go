package analysis

import "math"

// StepMetrics summarizes a response moving from an initial value to a target.
type StepMetrics struct {
	// RiseTime is the time from 10% to 90% of the step, in seconds.
	RiseTime float64
	// Overshoot is the peak excursion past the target as a fraction of the step.
	Overshoot float64
	// SettlingTime is the last time the response was outside the band, in seconds.
	SettlingTime float64
	// SteadyStateError is target minus the final value.
	SteadyStateError float64
	// Settled reports whether the response ended inside the band.
	Settled bool
}

// DefaultSettlingBand is the ±2% settling band.
const DefaultSettlingBand = 0.02

// AnalyzeStep measures a step response. band is the settling band as a
// fraction of the step size. Rise and settling times are NaN when the
// response never reaches the corresponding level.
func AnalyzeStep(times, values []float64, initial, target, band float64) StepMetrics {
	step := target - initial
	n := min(len(times), len(values))
	if n == 0 || step == 0 {
		return StepMetrics{Settled: true}
	}

	// progress maps a value onto [0, 1] from initial to target.
	progress := func(v float64) float64 { return (v - initial) / step }

	m := StepMetrics{RiseTime: math.NaN(), SettlingTime: math.NaN()}
	t10, t90 := math.NaN(), math.NaN()
	peak := 0.0
	lastOutside := -1
	for i := 0; i < n; i++ {
		p := progress(values[i])
		if math.IsNaN(t10) && p >= 0.1 {
			t10 = times[i]
		}
		if math.IsNaN(t90) && p >= 0.9 {
			t90 = times[i]
		}
		peak = math.Max(peak, p)
		if math.Abs(1-p) > band {
			lastOutside = i
		}
	}

	if !math.IsNaN(t10) && !math.IsNaN(t90) {
		m.RiseTime = t90 - t10
	}
	m.Overshoot = math.Max(0, peak-1)
	m.SteadyStateError = target - values[n-1]
	m.Settled = lastOutside < n-1
	switch {
	case lastOutside < 0:
		m.SettlingTime = times[0]
	case m.Settled:
		m.SettlingTime = times[lastOutside+1]
	}
	return m
}
