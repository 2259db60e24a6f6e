// Package ik solves the leg's inverse kinematics with damped Newton-Raphson.
//
// Each iteration rebuilds the geometric Jacobian at the current joint vector,
// takes its damped least-squares pseudo-inverse and applies half of the
// resulting step:
//
//	q += 0.5 * pinv(J(q), 0.001) * e(q)
//
// where e(q) stacks the position error and the rotation-vector error of the
// foot. The loop stops when |e| <= tol or after 200 iterations. Running out of
// iterations is not an error: [Result.Converged] reports it.
package ik
