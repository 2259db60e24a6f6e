package viz

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/robot"
)

const (
	torsoHeight   = 0.35
	shoulderWidth = 0.2
	toeLength     = 0.12
	heelLength    = 0.06
)

// Skeleton is a stick figure of the biped in the base frame.
type Skeleton struct {
	// Torso runs from the pelvis to the neck; Shoulders is turned by the waist.
	Torso     Segment
	Shoulders Segment
	// Legs lists each leg's pelvis, joint origins and foot, in chain order.
	Legs [2][]r3.Vector
	// Feet holds each foot's heel and toe.
	Feet [2]Segment
}

// NewSkeleton poses the figure at joint angles q.
func NewSkeleton(q [robot.NumJoints]float64) Skeleton {
	var s Skeleton
	neck := r3.Vector{Z: torsoHeight}
	s.Torso = Segment{From: r3.Vector{}, To: neck}

	c, sn := math.Cos(q[robot.Waist]), math.Sin(q[robot.Waist])
	half := shoulderWidth / 2
	s.Shoulders = Segment{
		From: neck.Add(r3.Vector{X: -sn * half, Y: c * half}),
		To:   neck.Add(r3.Vector{X: sn * half, Y: -c * half}),
	}

	for _, leg := range []robot.Leg{robot.Left, robot.Right} {
		var jv kinematics.JointVector
		for i, id := range leg.Joints() {
			jv[i] = q[id]
		}
		chain := leg.Chain()
		frames, foot := chain.Frames(jv)

		pts := make([]r3.Vector, 0, kinematics.NumJoints+2)
		pts = append(pts, chain.BaseTransform().Translation())
		for _, f := range frames {
			pts = append(pts, f.Translation())
		}
		pts = append(pts, foot.Translation())
		s.Legs[leg] = pts
		s.Feet[leg] = Segment{
			From: foot.Apply(r3.Vector{X: -heelLength}),
			To:   foot.Apply(r3.Vector{X: toeLength}),
		}
	}
	return s
}

// Segments flattens the figure for Render.
func (s Skeleton) Segments() []Segment {
	segs := []Segment{s.Torso, s.Shoulders}
	for leg, pts := range s.Legs {
		if len(pts) > 0 {
			segs = append(segs, Segment{From: r3.Vector{}, To: pts[0]})
		}
		for i := 1; i < len(pts); i++ {
			if pts[i] != pts[i-1] {
				segs = append(segs, Segment{From: pts[i-1], To: pts[i]})
			}
		}
		segs = append(segs, s.Feet[leg])
	}
	return segs
}

// FootMarkers returns a marker at each foot, for drawing targets.
func (s Skeleton) FootMarkers() []Segment {
	var segs []Segment
	for _, pts := range s.Legs {
		if n := len(pts); n > 0 {
			segs = append(segs, Segment{From: pts[n-1], To: pts[n-1]})
		}
	}
	return segs
}
