package viz

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// Camera projects base-frame points (x forward, y left, z up) onto a canvas.
// At zero yaw it looks at the robot's front.
type Camera struct {
	Yaw, Pitch float64
	Zoom       float64
	// Distance from the origin along the view axis, in meters.
	Distance float64
	// Center is the base-frame point drawn at the middle of the canvas.
	Center r3.Vector
	// Span is the height in meters that fills the canvas at zoom 1.
	Span float64
}

// NewCamera returns an oblique view of a standing leg pair.
func NewCamera() *Camera {
	return &Camera{
		Yaw:      0.6,
		Pitch:    0.15,
		Zoom:     1,
		Distance: 4,
		Center:   r3.Vector{Z: -0.35},
		Span:     1.4,
	}
}

func (c *Camera) RotateYaw(a float64) { c.Yaw += a }

// RotatePitch tilts the camera, clamped to straight up or down.
func (c *Camera) RotatePitch(a float64) {
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+a))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// view rotates p into camera axes: x toward the viewer, y to the viewer's
// right, z up.
func (c *Camera) view(p r3.Vector) r3.Vector {
	p = p.Sub(c.Center)
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	p.X, p.Y = cy*p.X-sy*p.Y, sy*p.X+cy*p.Y
	cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
	p.X, p.Z = cp*p.X-sp*p.Z, sp*p.X+cp*p.Z
	return p
}

// Project maps p to dot coordinates on a w×h dot canvas. depth grows toward
// the viewer; ok is false for points behind the camera or off the canvas.
func (c *Camera) Project(p r3.Vector, w, h int) (x, y int, depth float64, ok bool) {
	v := c.view(p)
	if v.X >= c.Distance {
		return 0, 0, 0, false
	}
	persp := c.Distance / (c.Distance - v.X)
	scale := c.Zoom * persp * float64(h) / c.Span
	x = w/2 + int(math.Round(v.Y*scale))
	y = h/2 - int(math.Round(v.Z*scale))
	return x, y, v.X, x >= 0 && x < w && y >= 0 && y < h
}

// Segment is a line between two base-frame points; equal ends draw a marker.
type Segment struct {
	From, To r3.Vector
}

// Render draws segments back to front. A segment is drawn if either end is
// on the canvas; the canvas clips the rest.
func Render(c *Canvas, cam *Camera, segs []Segment) {
	type projected struct {
		x0, y0, x1, y1 int
		depth          float64
		marker         bool
	}
	w, h := c.Dots()
	out := make([]projected, 0, len(segs))
	for _, s := range segs {
		x0, y0, d0, ok0 := cam.Project(s.From, w, h)
		x1, y1, d1, ok1 := cam.Project(s.To, w, h)
		if !ok0 && !ok1 {
			continue
		}
		out = append(out, projected{x0, y0, x1, y1, (d0 + d1) / 2, s.From == s.To})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].depth < out[j].depth })
	for _, p := range out {
		if p.marker {
			c.DrawMarker(p.x0, p.y0)
			continue
		}
		c.DrawLine(p.x0, p.y0, p.x1, p.y1)
	}
}
