// Package physics provides the plant the joint controllers are simulated
// against.
//
// [Biped] models each of the 13 joints as an independent rotor with inertia
// and viscous damping, driven by its commanded torque. It implements
// [dynamo.System] and [dynamo.Hamiltonian]:
//
//	plant := physics.NewBiped(physics.DefaultBipedParams())
//	x0 := plant.InitialState(q0)
//	ke := plant.Energy(x0)
package physics
