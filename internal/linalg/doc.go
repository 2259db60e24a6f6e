// Package linalg holds the regularized matrix inverses used by the IK solver.
package linalg
