package kinematics

import (
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Axis is the body axis a revolute joint rotates about.
type Axis int

const (
	AxisX Axis = iota // roll
	AxisY             // pitch
	AxisZ             // yaw
)

// Unit returns the axis as a unit vector in the joint's local frame.
func (a Axis) Unit() r3.Vector {
	switch a {
	case AxisX:
		return r3.Vector{X: 1}
	case AxisY:
		return r3.Vector{Y: 1}
	default:
		return r3.Vector{Z: 1}
	}
}

// Rotation returns the elementary rotation matrix of angle theta about a.
func (a Axis) Rotation(theta float64) *mat.Dense {
	c, s := math.Cos(theta), math.Sin(theta)
	switch a {
	case AxisX:
		return mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, c, -s,
			0, s, c,
		})
	case AxisY:
		return mat.NewDense(3, 3, []float64{
			c, 0, s,
			0, 1, 0,
			-s, 0, c,
		})
	default:
		return mat.NewDense(3, 3, []float64{
			c, -s, 0,
			s, c, 0,
			0, 0, 1,
		})
	}
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "unknown"
}

// ParseAxis accepts x/y/z or roll/pitch/yaw.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "roll":
		return AxisX, nil
	case "y", "pitch":
		return AxisY, nil
	case "z", "yaw":
		return AxisZ, nil
	}
	return 0, errors.Wrapf(ErrUnknownAxis, "%q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Axis) UnmarshalText(text []byte) error {
	parsed, err := ParseAxis(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Link is one row of the chain table: the joint's rotation axis and the
// translation to the next frame, expressed in the parent frame.
type Link struct {
	Name   string
	Axis   Axis
	Offset r3.Vector
}

// Chain is the complete kinematic description of one leg: a fixed base offset,
// one Link per joint, and a fixed tool (foot) offset. Neither fixed offset rotates.
type Chain struct {
	Base  r3.Vector
	Links [NumJoints]Link
	Tool  r3.Vector
}

// legChain is the RoK-3 leg geometry in meters.
var legChain = Chain{
	Base: r3.Vector{},
	Links: [NumJoints]Link{
		{Name: "hip_yaw", Axis: AxisZ, Offset: r3.Vector{X: 0, Y: 0.105, Z: -0.1512}},
		{Name: "hip_roll", Axis: AxisX},
		{Name: "hip_pitch", Axis: AxisY},
		{Name: "knee_pitch", Axis: AxisY, Offset: r3.Vector{Z: -0.35}},
		{Name: "ankle_pitch", Axis: AxisY, Offset: r3.Vector{Z: -0.35}},
		{Name: "ankle_roll", Axis: AxisX},
	},
	Tool: r3.Vector{Z: -0.09},
}

// DefaultChain returns the leg chain table.
func DefaultChain() Chain {
	return legChain
}

// Mirrored reflects the chain through the sagittal (XZ) plane, turning the
// left-leg table into the right leg's. Joint axes are unchanged, so a mirrored
// pose is reached with the roll and yaw angles negated.
func (c Chain) Mirrored() Chain {
	flip := func(v r3.Vector) r3.Vector { return r3.Vector{X: v.X, Y: -v.Y, Z: v.Z} }
	m := c
	m.Base = flip(c.Base)
	for i := range m.Links {
		m.Links[i].Offset = flip(c.Links[i].Offset)
	}
	m.Tool = flip(c.Tool)
	return m
}

// MirrorJoints maps joint angles of one leg to the angles that mirror its
// pose on a mirrored chain.
func (c Chain) MirrorJoints(q JointVector) JointVector {
	for i, l := range c.Links {
		if l.Axis != AxisY {
			q[i] = -q[i]
		}
	}
	return q
}

// BaseTransform returns the fixed base-to-link-0 transform.
func (c Chain) BaseTransform() Transform {
	return NewTranslation(c.Base)
}

// ToolTransform returns the fixed link-6-to-end-effector transform.
func (c Chain) ToolTransform() Transform {
	return NewTranslation(c.Tool)
}

// JointTransform returns the transform of joint i: its rotation by q[i] about
// the joint axis, followed by the link offset to the next frame.
func (c Chain) JointTransform(q JointVector, i int) (Transform, error) {
	if i < 0 || i >= NumJoints {
		return Transform{}, errors.Wrapf(ErrJointIndex, "index %d", i)
	}
	return c.jointTransform(q, i), nil
}

func (c Chain) jointTransform(q JointVector, i int) Transform {
	l := c.Links[i]
	return NewTransform(l.Axis.Rotation(q[i]), l.Offset)
}
