package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Spectrum returns the one-sided amplitude spectrum of samples taken every
// dt seconds, with the mean removed. freqs[i] is the frequency in Hz of
// amplitude[i]; bin 0 is DC.
func Spectrum(samples []float64, dt float64) (freqs, amplitude []float64) {
	n := len(samples)
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	centered := make([]float64, n)
	copy(centered, samples)
	floats.AddConst(-stat.Mean(samples, nil), centered)

	coeffs := fft.FFTReal(centered)
	bins := n/2 + 1
	freqs = make([]float64, bins)
	amplitude = make([]float64, bins)
	for k := 0; k < bins; k++ {
		freqs[k] = float64(k) / (float64(n) * dt)
		amplitude[k] = 2 * cmplx.Abs(coeffs[k]) / float64(n)
	}
	amplitude[0] /= 2
	return freqs, amplitude
}

// DominantFrequency is the frequency in Hz of the largest non-DC spectral
// peak, or zero if the signal is constant.
func DominantFrequency(samples []float64, dt float64) float64 {
	freqs, amp := Spectrum(samples, dt)
	if len(amp) < 2 {
		return 0
	}
	best := floats.MaxIdx(amp[1:]) + 1
	if amp[best] == 0 {
		return 0
	}
	return freqs[best]
}
