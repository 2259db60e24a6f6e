// Package robot describes the biped's joints and the contract with the
// simulation host: sensors, actuators and the model description.
package robot

import (
	"github.com/pkg/errors"

	"github.com/san-kum/legkin/internal/kinematics"
)

// JointID indexes the biped's actuated joints.
type JointID int

const (
	Waist JointID = iota
	LHipYaw
	LHipRoll
	LHipPitch
	LKnee
	LAnklePitch
	LAnkleRoll
	RHipYaw
	RHipRoll
	RHipPitch
	RKnee
	RAnklePitch
	RAnkleRoll

	// NumJoints is the biped's degree-of-freedom count, excluding the floating base.
	NumJoints = int(RAnkleRoll) + 1
)

var jointNames = [NumJoints]string{
	"torso_joint",
	"L_Hip_yaw_joint",
	"L_Hip_roll_joint",
	"L_Hip_pitch_joint",
	"L_Knee_joint",
	"L_Ankle_pitch_joint",
	"L_Ankle_roll_joint",
	"R_Hip_yaw_joint",
	"R_Hip_roll_joint",
	"R_Hip_pitch_joint",
	"R_Knee_joint",
	"R_Ankle_pitch_joint",
	"R_Ankle_roll_joint",
}

var shortNames = [NumJoints]string{
	"WST", "LHY", "LHR", "LHP", "LKN", "LAP", "LAR", "RHY", "RHR", "RHP", "RKN", "RAP", "RAR",
}

// String returns the joint's model name, e.g. "L_Knee_joint".
func (j JointID) String() string {
	if !j.Valid() {
		return "unknown_joint"
	}
	return jointNames[j]
}

// Short returns the three-letter joint tag, e.g. "LKN".
func (j JointID) Short() string {
	if !j.Valid() {
		return "???"
	}
	return shortNames[j]
}

// Valid reports whether j names one of the biped's joints.
func (j JointID) Valid() bool {
	return j >= 0 && int(j) < NumJoints
}

// ParseJointID accepts either the model name or the short tag.
func ParseJointID(s string) (JointID, error) {
	for i := 0; i < NumJoints; i++ {
		if s == jointNames[i] || s == shortNames[i] {
			return JointID(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownJoint, "%q", s)
}

// AllJoints returns every joint in index order.
func AllJoints() []JointID {
	ids := make([]JointID, NumJoints)
	for i := range ids {
		ids[i] = JointID(i)
	}
	return ids
}

// Leg selects one of the two six-joint chains.
type Leg int

const (
	Left Leg = iota
	Right
)

func (l Leg) String() string {
	if l == Right {
		return "right"
	}
	return "left"
}

// ParseLeg accepts "left"/"l" or "right"/"r".
func ParseLeg(s string) (Leg, error) {
	switch s {
	case "left", "l", "L":
		return Left, nil
	case "right", "r", "R":
		return Right, nil
	}
	return 0, errors.Wrapf(ErrUnknownLeg, "%q", s)
}

// Joints returns the leg's joints in kinematic chain order (hip yaw first).
func (l Leg) Joints() [kinematics.NumJoints]JointID {
	first := LHipYaw
	if l == Right {
		first = RHipYaw
	}
	var ids [kinematics.NumJoints]JointID
	for i := range ids {
		ids[i] = first + JointID(i)
	}
	return ids
}

// Chain returns the leg's kinematic chain. The right leg mirrors the left.
func (l Leg) Chain() kinematics.Chain {
	if l == Right {
		return kinematics.DefaultChain().Mirrored()
	}
	return kinematics.DefaultChain()
}

// Mirror maps a left-leg joint to its right-leg twin and vice versa.
// The waist maps to itself.
func (j JointID) Mirror() JointID {
	switch {
	case j >= LHipYaw && j <= LAnkleRoll:
		return j + 6
	case j >= RHipYaw && j <= RAnkleRoll:
		return j - 6
	}
	return j
}
