// Package dynamo provides the fixed-step simulation host the controllers run
// against.
//
//   - [State]: plant state vector
//   - [System]: plant dynamics (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator
//   - [Controller]: feedback controller, called once per step
//   - [Simulator]: orchestrates a run, optionally paced to wall-clock time
//
// # Example
//
//	plant := physics.NewBiped(physics.DefaultBipedParams())
//	sim := dynamo.New(plant, integrators.NewRK4(), pd)
//	result, err := sim.Run(ctx, x0, cfg)
//
// # Thread Safety
//
// A Simulator is NOT thread-safe: its controller and metrics carry state
// between steps. Build one simulator per goroutine.
package dynamo
