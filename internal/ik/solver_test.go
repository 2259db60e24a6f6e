package ik_test

import (
	"github.com/golang/geo/r3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/legkin/internal/ik"
	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/logging"
)

var _ = Describe("Solver", func() {
	var (
		chain  kinematics.Chain
		solver *ik.Solver
		q      kinematics.JointVector
		target kinematics.Pose
	)

	BeforeEach(func() {
		chain = kinematics.DefaultChain()
		var err error
		solver, err = ik.NewSolver(chain, ik.DefaultOptions(), logging.NewTestLogger(GinkgoT()))
		Expect(err).NotTo(HaveOccurred())

		q = kinematics.FromDegrees(10, 20, 30, 40, 50, 60)
		target = chain.Pose(q)
	})

	Describe("the practice scenario", func() {
		It("converges from half the joint angles", func() {
			res, err := solver.Solve(target, q.Scale(0.5), ik.DefaultTolerance)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Converged).To(BeTrue())
			Expect(res.Iterations).To(BeNumerically("<=", ik.DefaultMaxIterations))
			Expect(res.Iterations).To(BeNumerically(">", 0))
			Expect(res.Residual).To(BeNumerically("<=", ik.DefaultTolerance))
			Expect(solver.Residual(target, res.Joints)).To(BeNumerically("~", res.Residual, 1e-15))
		})

		It("reaches the target position with the solution", func() {
			res, err := solver.Solve(target, q.Scale(0.5), ik.DefaultTolerance)
			Expect(err).NotTo(HaveOccurred())

			got := chain.Position(res.Joints)
			Expect(got.Sub(target.Position).Norm()).To(BeNumerically("<=", ik.DefaultTolerance))
		})
	})

	It("returns the guess untouched when it already solves the target", func() {
		res, err := solver.Solve(target, q, ik.DefaultTolerance)
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Iterations).To(Equal(0))
		Expect(res.Converged).To(BeTrue())
		Expect(res.Joints).To(Equal(q))
	})

	DescribeTable("round trips reachable configurations",
		func(guess, want kinematics.JointVector) {
			res, err := solver.Solve(chain.Pose(want), guess, 1e-4)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(chain.Position(res.Joints).Sub(chain.Position(want)).Norm()).To(BeNumerically("<=", 1e-4))
		},
		Entry("crouch from zero", kinematics.JointVector{}, kinematics.FromDegrees(0, 0, -30, 60, -30, 0)),
		Entry("side step", kinematics.FromDegrees(0, 0, -10, 20, -10, 0), kinematics.FromDegrees(3, 6, -20, 35, -15, -6)),
		Entry("twist", kinematics.FromDegrees(0, 0, -10, 20, -10, 0), kinematics.FromDegrees(-20, 5, -25, 45, -20, -5)),
	)

	Describe("non-convergence", func() {
		It("stops at the iteration cap without an error", func() {
			far := kinematics.PoseFromEuler(r3.Vector{X: 3, Y: 3, Z: -3}, 0, 0, 0)

			res, err := solver.Solve(far, kinematics.JointVector{}, ik.DefaultTolerance)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeFalse())
			Expect(res.Iterations).To(Equal(ik.DefaultMaxIterations))
			Expect(res.Residual).To(BeNumerically(">", ik.DefaultTolerance))
		})

		It("honours a lower iteration cap", func() {
			opts := ik.DefaultOptions()
			opts.MaxIterations = 2
			short, err := ik.NewSolver(chain, opts, nil)
			Expect(err).NotTo(HaveOccurred())

			res, err := short.Solve(target, q.Scale(0.5), ik.DefaultTolerance)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Iterations).To(Equal(2))
			Expect(res.Converged).To(BeFalse())
		})
	})

	It("traces the residual of every iteration", func() {
		opts := ik.DefaultOptions()
		opts.Trace = true
		tracing, err := ik.NewSolver(chain, opts, nil)
		Expect(err).NotTo(HaveOccurred())

		res, err := tracing.Solve(target, q.Scale(0.5), ik.DefaultTolerance)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.History).To(HaveLen(res.Iterations + 1))
		Expect(res.History[len(res.History)-1]).To(Equal(res.Residual))
		Expect(res.History[0]).To(BeNumerically(">", res.Residual))
	})

	Describe("malformed input", func() {
		It("rejects a negative tolerance", func() {
			_, err := solver.Solve(target, q, -1)
			Expect(errors.Is(err, ik.ErrTolerance)).To(BeTrue())
		})

		It("rejects a target orientation that is not a rotation", func() {
			bad := kinematics.Pose{Position: target.Position, Rotation: mat.NewDense(3, 3, []float64{2, 0, 0, 0, 2, 0, 0, 0, 2})}
			_, err := solver.Solve(bad, q, ik.DefaultTolerance)
			Expect(errors.Is(err, kinematics.ErrNotRotation)).To(BeTrue())
		})

		It("rejects a zero pose without a rotation", func() {
			_, err := solver.Solve(kinematics.Pose{}, kinematics.JointVector{}, ik.DefaultTolerance)
			Expect(errors.Is(err, kinematics.ErrNotRotation)).To(BeTrue())
		})

		It("reports every invalid option", func() {
			_, err := ik.NewSolver(chain, ik.Options{MaxIterations: -1, Damping: -1, StepScale: 0}, nil)
			Expect(err).To(HaveOccurred())
			Expect(multierr.Errors(err)).To(HaveLen(3))
		})
	})
})
