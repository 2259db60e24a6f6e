package viz

import (
	"github.com/guptarohit/asciigraph"
)

// PlotOptions size an ASCII plot. Zero values pick asciigraph's defaults.
type PlotOptions struct {
	Width, Height int
	Caption       string
	Precision     uint
}

func (o PlotOptions) asciigraph() []asciigraph.Option {
	opts := []asciigraph.Option{asciigraph.Caption(o.Caption)}
	if o.Width > 0 {
		opts = append(opts, asciigraph.Width(o.Width))
	}
	if o.Height > 0 {
		opts = append(opts, asciigraph.Height(o.Height))
	}
	if o.Precision > 0 {
		opts = append(opts, asciigraph.Precision(o.Precision))
	}
	return opts
}

// Plot renders one series; an empty series renders as an empty string.
func Plot(data []float64, o PlotOptions) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data, o.asciigraph()...)
}

// PlotMany overlays several series of possibly different lengths, one color
// per series.
func PlotMany(series [][]float64, o PlotOptions) string {
	var nonEmpty [][]float64
	for _, s := range series {
		if len(s) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}
	colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Magenta, asciigraph.Yellow, asciigraph.Green}
	opts := append(o.asciigraph(), asciigraph.SeriesColors(colors[:min(len(nonEmpty), len(colors))]...))
	return asciigraph.PlotMany(nonEmpty, opts...)
}

// Downsample keeps at most n evenly spaced samples of data, always
// including the last one.
func Downsample(data []float64, n int) []float64 {
	if n <= 0 || len(data) <= n {
		return data
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = data[i*(len(data)-1)/(n-1)]
	}
	return out
}
