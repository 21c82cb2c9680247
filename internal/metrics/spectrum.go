package metrics

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the one-sided amplitude spectrum of a series sampled
// every dt, with its mean removed, and the frequency of each bin.
func PowerSpectrum(values []float64, dt float64) (freqs, power []float64) {
	n := len(values)
	if n < 2 || !(dt > 0) {
		return nil, nil
	}

	mean := stat.Mean(values, nil)
	centered := make([]float64, n)
	for i, v := range values {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	half := n / 2
	freqs = make([]float64, half)
	power = make([]float64, half)
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) / (float64(n) * dt)
		power[k] = cmplx.Abs(coeffs[k])
	}
	return freqs, power
}

// DominantPeriod is the period of the strongest non-zero frequency of the
// series, or 0 when it does not oscillate.
func DominantPeriod(values []float64, dt float64) float64 {
	freqs, power := PowerSpectrum(values, dt)
	if len(power) < 2 {
		return 0
	}

	best := 1
	for k := 2; k < len(power); k++ {
		if power[k] > power[best] {
			best = k
		}
	}
	if power[best] < 1e-9*stat.Mean(abs(values), nil) {
		return 0
	}
	return 1 / freqs[best]
}

func abs(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v < 0 {
			v = -v
		}
		out[i] = v
	}
	return out
}
