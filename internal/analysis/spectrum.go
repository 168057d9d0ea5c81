package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("analysis: series too short")

// PowerSpectrum returns |X_k| for k in [0, len/2] of the mean-removed
// series. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-mean, centered)

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, len(coeffs)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// DominantPeriod returns the period in samples of the strongest non-zero
// frequency, and that frequency's bin.
func DominantPeriod(data []float64) (period float64, bin int, err error) {
	if len(data) < 4 {
		return 0, 0, ErrShortSeries
	}
	ps := PowerSpectrum(data)
	bin = floats.MaxIdx(ps[1:]) + 1
	if ps[bin] == 0 {
		return math.Inf(1), 0, nil
	}
	return float64(len(data)) / float64(bin), bin, nil
}

// DecayRate fits log(data) = a - rate·i by least squares over the strictly
// positive samples.
func DecayRate(data []float64) (float64, error) {
	xs := make([]float64, 0, len(data))
	ys := make([]float64, 0, len(data))
	for i, v := range data {
		if v > 0 {
			xs = append(xs, float64(i))
			ys = append(ys, math.Log(v))
		}
	}
	if len(xs) < 2 {
		return 0, ErrShortSeries
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return -beta, nil
}
