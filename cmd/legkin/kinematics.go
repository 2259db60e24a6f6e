package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/legkin/internal/ik"
	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/linalg"
	"github.com/san-kum/legkin/internal/robot"
	"github.com/san-kum/legkin/internal/viz"
)

var legName string

func addLegFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&legName, "leg", "left", "leg chain (left, right)")
}

func legChain() (kinematics.Chain, error) {
	leg, err := robot.ParseLeg(legName)
	if err != nil {
		return kinematics.Chain{}, err
	}
	return leg.Chain(), nil
}

// parseFloats reads comma or space separated numbers.
func parseFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseDegrees reads six joint angles in degrees from args, given either as
// six arguments or one comma separated list.
func parseDegrees(args []string) (kinematics.JointVector, error) {
	d, err := parseFloats(strings.Join(args, ","))
	if err != nil {
		return kinematics.JointVector{}, err
	}
	if len(d) != kinematics.NumJoints {
		return kinematics.JointVector{}, errors.Wrapf(kinematics.ErrJointCount, "got %d angles", len(d))
	}
	return kinematics.FromDegrees(d[0], d[1], d[2], d[3], d[4], d[5]), nil
}

func printMatrix(w io.Writer, name string, m mat.Matrix) {
	fmt.Fprintf(w, "%s =\n%.4f\n\n", name, mat.Formatted(m, mat.Prefix(""), mat.Squeeze()))
}

func printPose(w io.Writer, p kinematics.Pose) {
	yaw, pitch, roll := kinematics.EulerZYX(p.Rotation)
	fmt.Fprintf(w, "position (m):      x=% .4f  y=% .4f  z=% .4f\n", p.Position.X, p.Position.Y, p.Position.Z)
	fmt.Fprintf(w, "euler zyx (deg):   yaw=% .2f  pitch=% .2f  roll=% .2f\n",
		yaw*180/math.Pi, pitch*180/math.Pi, roll*180/math.Pi)
}

func newFKCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fk <q1..q6 deg>",
		Short: "forward kinematics of one leg",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseDegrees(args)
			if err != nil {
				return err
			}
			chain, err := legChain()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printMatrix(w, "T (base to foot)", chain.Forward(q).Matrix())
			printPose(w, chain.Pose(q))
			return nil
		},
	}
	addLegFlag(cmd)
	return cmd
}

func newJacobianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jacobian <q1..q6 deg>",
		Short: "geometric jacobian of one leg",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseDegrees(args)
			if err != nil {
				return err
			}
			chain, err := legChain()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			j := chain.Jacobian(q)
			printMatrix(w, "J_P", chain.PositionJacobian(q))
			printMatrix(w, "J_R", chain.RotationJacobian(q))
			fmt.Fprintf(w, "condition number: %.4g\n", mat.Cond(j, 2))
			return nil
		},
	}
	addLegFlag(cmd)
	return cmd
}

var ikFlags struct {
	x, y, z          float64
	yaw, pitch, roll float64
	guess            string
	tol              float64
	maxIter          int
	damping          float64
	step             float64
	plot             bool
}

func newIKCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ik",
		Short: "solve joint angles for a foot pose",
		RunE:  runIK,
	}
	f := cmd.Flags()
	f.Float64Var(&ikFlags.x, "x", 0, "foot x (m)")
	f.Float64Var(&ikFlags.y, "y", 0.105, "foot y (m)")
	f.Float64Var(&ikFlags.z, "z", -0.80, "foot z (m)")
	f.Float64Var(&ikFlags.yaw, "yaw", 0, "foot yaw (deg)")
	f.Float64Var(&ikFlags.pitch, "pitch", 0, "foot pitch (deg)")
	f.Float64Var(&ikFlags.roll, "roll", 0, "foot roll (deg)")
	f.StringVar(&ikFlags.guess, "guess", "0,0,-20,40,-20,0", "initial guess (deg, comma separated)")
	f.Float64Var(&ikFlags.tol, "tol", ik.DefaultTolerance, "residual tolerance")
	f.IntVar(&ikFlags.maxIter, "max-iter", ik.DefaultMaxIterations, "iteration cap")
	f.Float64Var(&ikFlags.damping, "damping", ik.DefaultDamping, "pseudo-inverse damping")
	f.Float64Var(&ikFlags.step, "step", ik.DefaultStepScale, "newton step scale")
	f.BoolVar(&ikFlags.plot, "plot", false, "plot the residual per iteration")
	addLegFlag(cmd)
	return cmd
}

func runIK(cmd *cobra.Command, args []string) error {
	chain, err := legChain()
	if err != nil {
		return err
	}
	guess, err := parseDegrees([]string{ikFlags.guess})
	if err != nil {
		return errors.Wrap(err, "guess")
	}

	opts := ik.Options{
		MaxIterations: ikFlags.maxIter,
		Damping:       ikFlags.damping,
		StepScale:     ikFlags.step,
		Trace:         ikFlags.plot,
	}
	solver, err := ik.NewSolver(chain, opts, logger)
	if err != nil {
		return err
	}

	const d2r = math.Pi / 180
	target := kinematics.PoseFromEuler(r3.Vector{X: ikFlags.x, Y: ikFlags.y, Z: ikFlags.z},
		ikFlags.yaw*d2r, ikFlags.pitch*d2r, ikFlags.roll*d2r)
	res, err := solver.Solve(target, guess, ikFlags.tol)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printIKResult(w, chain, res)
	if ikFlags.plot && len(res.History) > 1 {
		logRes := make([]float64, len(res.History))
		for i, r := range res.History {
			logRes[i] = math.Log10(math.Max(r, 1e-16))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, viz.Plot(logRes, viz.PlotOptions{Height: 10, Width: 60, Caption: "log10 residual per iteration"}))
	}
	return nil
}

func printIKResult(w io.Writer, chain kinematics.Chain, res *ik.Result) {
	status := "converged"
	if !res.Converged {
		status = "NOT converged"
	}
	fmt.Fprintf(w, "%s after %d iterations, residual %.3g\n", status, res.Iterations, res.Residual)
	deg := res.Joints.Degrees()
	fmt.Fprintf(w, "q (deg): ")
	for i, l := range chain.Links {
		fmt.Fprintf(w, "%s=%.3f ", l.Name, deg[i])
	}
	fmt.Fprintln(w)
	printPose(w, chain.Pose(res.Joints))
}

func newPracticeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "practice",
		Short: "walk through fk, jacobians, inverses and ik at q = 10..60 deg",
		RunE: func(cmd *cobra.Command, args []string) error {
			return practice(cmd.OutOrStdout())
		},
	}
}

func practice(w io.Writer) error {
	chain := kinematics.DefaultChain()
	q := kinematics.FromDegrees(10, 20, 30, 40, 50, 60)

	fmt.Fprintln(w, "q = (10, 20, 30, 40, 50, 60) deg")
	fmt.Fprintln(w)
	printMatrix(w, "T (base to foot)", chain.Forward(q).Matrix())
	printPose(w, chain.Pose(q))
	fmt.Fprintln(w)

	printMatrix(w, "J_P", chain.PositionJacobian(q))
	printMatrix(w, "J_R", chain.RotationJacobian(q))

	j := chain.Jacobian(q)
	var inv mat.Dense
	if err := inv.Inverse(j); err != nil {
		fmt.Fprintf(w, "J is not invertible: %v\n\n", err)
	} else {
		printMatrix(w, "J^-1", &inv)
	}
	pinv, err := linalg.DampedPseudoInverse(j, 0)
	if err != nil {
		return err
	}
	printMatrix(w, "J^+ (lambda = 0)", pinv)

	half := q.Scale(0.5)
	var cerr mat.Dense
	cerr.Mul(chain.Rotation(q), chain.Rotation(half).T())
	dph, err := kinematics.RotationVector(&cerr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "rotation vector from q/2 to q: (% .4f, % .4f, % .4f)\n\n", dph.X, dph.Y, dph.Z)

	solver, err := ik.NewSolver(chain, ik.DefaultOptions(), logger)
	if err != nil {
		return err
	}
	res, err := solver.Solve(chain.Pose(q), half, ik.DefaultTolerance)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "ik from q/2 back to the pose at q:")
	printIKResult(w, chain, res)
	return nil
}
