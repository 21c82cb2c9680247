package report

import (
	"github.com/guptarohit/asciigraph"
)

const maxPlotPoints = 400

// PlotEnergy renders a series as an ASCII line chart. Long series are
// decimated to keep the chart readable.
func PlotEnergy(values []float64, caption string) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(decimate(values, maxPlotPoints),
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

// decimate keeps at most n evenly spaced samples, always including the last.
func decimate(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	out := make([]float64, 0, n)
	stride := float64(len(values)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		out = append(out, values[int(float64(i)*stride+0.5)])
	}
	return out
}
