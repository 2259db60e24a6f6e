package experiment

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/san-kum/legkin/internal/control"
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/integrators"
	"github.com/san-kum/legkin/internal/metrics"
	"github.com/san-kum/legkin/internal/physics"
)

var ErrUnknown = errors.New("experiment: unknown component")

// JointLimit is the angle bound, in radians, checked by within_limits.
const JointLimit = math.Pi / 2

// MetricDeps are the run objects a metric may observe.
type MetricDeps struct {
	Plant   *physics.Biped
	Targets metrics.Targets
}

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	controllers map[string]func(pd *control.JointController, integral float64) dynamo.Controller
	metrics     map[string]func(MetricDeps) dynamo.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]func(*control.JointController, float64) dynamo.Controller),
		metrics:     make(map[string]func(MetricDeps) dynamo.Metric),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }
	r.integrators["verlet"] = func() dynamo.Integrator { return integrators.NewVerlet() }

	r.controllers["pd"] = func(pd *control.JointController, _ float64) dynamo.Controller { return pd }
	r.controllers["pid"] = func(pd *control.JointController, rate float64) dynamo.Controller { return control.NewPID(pd, rate) }
	r.controllers["none"] = func(*control.JointController, float64) dynamo.Controller { return control.Passive{} }

	r.metrics["tracking_error"] = func(d MetricDeps) dynamo.Metric { return metrics.NewTrackingError(d.Targets) }
	r.metrics["final_error"] = func(d MetricDeps) dynamo.Metric { return metrics.NewFinalError(d.Targets) }
	r.metrics["control_effort"] = func(MetricDeps) dynamo.Metric { return metrics.NewControlEffort() }
	r.metrics["peak_torque"] = func(MetricDeps) dynamo.Metric { return metrics.NewPeakTorque() }
	r.metrics["energy"] = func(d MetricDeps) dynamo.Metric { return metrics.NewEnergy(d.Plant) }
	r.metrics["peak_energy"] = func(d MetricDeps) dynamo.Metric { return metrics.NewPeakEnergy(d.Plant) }
	r.metrics["within_limits"] = func(MetricDeps) dynamo.Metric { return metrics.NewWithinLimits(JointLimit) }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "integrator %q", name)
	}
	return fn(), nil
}

// GetController returns the named controller. The joint controller is
// always built so that targets exist even when it does not drive the plant.
// integral is the pid controller's Ki/Kp ratio in 1/s.
func (r *Registry) GetController(name string, pd *control.JointController, integral float64) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "controller %q", name)
	}
	return fn(pd, integral), nil
}

func (r *Registry) GetMetric(name string, deps MetricDeps) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "metric %q", name)
	}
	return fn(deps), nil
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }
func (r *Registry) ListMetrics() []string     { return sortedKeys(r.metrics) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
