package viz

import (
	"math"
	"strings"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values scaled between their min and max.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkChars)-1))
		b.WriteRune(sparkChars[max(0, min(idx, len(sparkChars)-1))])
	}
	return b.String()
}

// SignedBar draws v against ±limit as a bar growing left or right of a
// center tick, e.g. "····|███··" for a positive value.
func SignedBar(v, limit float64, width int) string {
	half := width / 2
	if half == 0 || limit <= 0 {
		return "|"
	}
	n := int(math.Round(math.Min(math.Abs(v)/limit, 1) * float64(half)))
	left := strings.Repeat("·", half)
	right := strings.Repeat("·", half)
	if v < 0 {
		left = strings.Repeat("·", half-n) + strings.Repeat("█", n)
	} else {
		right = strings.Repeat("█", n) + strings.Repeat("·", half-n)
	}
	return left + "|" + right
}

// ProgressBar renders fraction in [0, 1] as a filled bar.
func ProgressBar(fraction float64, width int) string {
	filled := int(math.Round(math.Max(0, math.Min(fraction, 1)) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// AnimatedSpinner returns the spinner glyph for frame.
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}
