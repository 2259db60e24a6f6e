// Package export renders poses, canvases and phase portraits as SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/legkin/internal/analysis"
	"github.com/san-kum/legkin/internal/robot"
	"github.com/san-kum/legkin/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG draws every set dot of a braille canvas as a circle, scale
// pixels apart.
func CanvasToSVG(c *viz.Canvas, scale float64, color string) string {
	if c == nil {
		return ""
	}
	w, h := c.Dots()

	var sb strings.Builder
	header(&sb, int(float64(w)*scale), int(float64(h)*scale))
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", color)
	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// PoseToSVG draws the biped at joint angles q as seen from cam. Foot
// markers are drawn in the theme's accent color.
func PoseToSVG(q [robot.NumJoints]float64, cam *viz.Camera, width, height int, theme viz.Theme) string {
	sk := viz.NewSkeleton(q)

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g stroke=\"%s\" stroke-width=\"2\" stroke-linecap=\"round\">\n", theme.Primary)
	for _, s := range sk.Segments() {
		x0, y0, _, ok0 := cam.Project(s.From, width, height)
		x1, y1, _, ok1 := cam.Project(s.To, width, height)
		if !ok0 && !ok1 {
			continue
		}
		fmt.Fprintf(&sb, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", x0, y0, x1, y1)
	}
	sb.WriteString("</g>\n")
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", theme.Accent)
	for _, m := range sk.FootMarkers() {
		if x, y, _, ok := cam.Project(m.From, width, height); ok {
			fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"4\"/>\n", x, y)
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// PhaseToSVG draws a phase portrait as one polyline, scaled to fill the
// image with 10% padding.
func PhaseToSVG(p *analysis.PhasePortrait2D, width, height int, stroke string) string {
	if p == nil || len(p.Points) < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
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

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<title>%s vs %s</title>\n", p.YLabel, p.XLabel)
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"", stroke)
	for i, pt := range p.Points {
		x := (pt.X - minX) / rangeX * float64(width)
		y := float64(height) - (pt.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}
