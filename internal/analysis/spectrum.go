package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Last   float64
}

func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(data, nil)
	if len(data) == 1 {
		std = 0
	}
	return Summary{
		N:      len(data),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Last:   data[len(data)-1],
	}
}

// PowerSpectrum returns frequencies in Hz and the power at each, for data
// sampled every dt seconds. The mean is removed first so the zero bin only
// carries residual drift.
func PowerSpectrum(data []float64, dt float64) (freqs, power []float64) {
	n := len(data)
	if n < 2 || dt <= 0 {
		return nil, nil
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)
	freqs = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = fft.Freq(i) / dt
		a := cmplx.Abs(c)
		power[i] = a * a / float64(n)
	}
	return freqs, power
}

// Dominant is the frequency with the most power, skipping the zero bin.
// It returns zeros when the spectrum is flat.
func Dominant(freqs, power []float64) (float64, float64) {
	best, at := 0.0, -1
	for i := 1; i < len(power) && i < len(freqs); i++ {
		if power[i] > best {
			best, at = power[i], i
		}
	}
	if at < 0 {
		return 0, 0
	}
	return freqs[at], best
}
