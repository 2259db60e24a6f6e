package integrators

import (
	"testing"

	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/physics"
	"github.com/san-kum/legkin/internal/robot"
)

func benchmarkBiped(b *testing.B, integ dynamo.Integrator) {
	plant := physics.NewBiped(physics.DefaultBipedParams())
	x := make(dynamo.State, robot.StateDim)
	u := make(dynamo.Control, robot.NumJoints)
	for i := range u {
		u[i] = 1
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(plant, x, u, 0, 0.001)
	}
}

func BenchmarkEuler(b *testing.B)  { benchmarkBiped(b, NewEuler()) }
func BenchmarkRK4(b *testing.B)    { benchmarkBiped(b, NewRK4()) }
func BenchmarkVerlet(b *testing.B) { benchmarkBiped(b, NewVerlet()) }
