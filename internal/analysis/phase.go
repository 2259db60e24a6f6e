package analysis

import (
	"strings"

	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/robot"
)

// PhasePoint is one sample of a phase portrait.
type PhasePoint struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot.
type PhasePortrait2D struct {
	XLabel, YLabel string
	Points         []PhasePoint
}

// JointPortrait extracts the angle/velocity trajectory of one joint from
// recorded host states.
func JointPortrait(states []dynamo.State, id robot.JointID) *PhasePortrait2D {
	portrait := &PhasePortrait2D{
		XLabel: id.Short() + " angle (rad)",
		YLabel: id.Short() + " velocity (rad/s)",
		Points: make([]PhasePoint, 0, len(states)),
	}
	ai, vi := robot.AngleIndex(id), robot.VelocityIndex(id)
	for _, x := range states {
		if len(x) <= vi {
			continue
		}
		portrait.Points = append(portrait.Points, PhasePoint{X: x[ai], Y: x[vi]})
	}
	return portrait
}

// PhasePortraitToASCII converts a phase portrait to ASCII art.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// 10% padding on each side
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portrait.Points {
		r, c := row(p.Y), col(p.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	// axes, where they cross the visible area
	if c := col(0); c >= 0 && c < width {
		for r := 0; r < height; r++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '│'
			}
		}
	}
	if r := row(0); r >= 0 && r < height {
		for c := 0; c < width; c++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}
