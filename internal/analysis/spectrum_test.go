package analysis

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	if s.N != 4 || s.Mean != 2.5 || s.Min != 1 || s.Max != 4 || s.Last != 4 {
		t.Errorf("unexpected summary %+v", s)
	}
	if math.Abs(s.StdDev-math.Sqrt(5.0/3.0)) > 1e-12 {
		t.Errorf("stddev = %v", s.StdDev)
	}
	if got := Summarize(nil); got.N != 0 {
		t.Errorf("empty summary = %+v", got)
	}
	if got := Summarize([]float64{7}); got.StdDev != 0 || got.Mean != 7 {
		t.Errorf("single sample summary = %+v", got)
	}
}

func TestDominantFrequency(t *testing.T) {
	const (
		dt = 1.0 / 12
		n  = 240
		hz = 1.5
	)
	data := make([]float64, n)
	for i := range data {
		data[i] = 10 + math.Sin(2*math.Pi*hz*float64(i)*dt)
	}

	freqs, power := PowerSpectrum(data, dt)
	if len(freqs) != n/2+1 {
		t.Fatalf("expected %d bins, got %d", n/2+1, len(freqs))
	}
	if power[0] > 1e-9 {
		t.Errorf("mean should be removed, zero bin power = %v", power[0])
	}
	f, p := Dominant(freqs, power)
	if math.Abs(f-hz) > 1e-9 || p <= 0 {
		t.Errorf("dominant = %v Hz (power %v), want %v Hz", f, p, hz)
	}
}

func TestSpectrumEdgeCases(t *testing.T) {
	if f, p := PowerSpectrum([]float64{1}, 0.1); f != nil || p != nil {
		t.Error("one sample has no spectrum")
	}
	if f, p := PowerSpectrum([]float64{1, 2}, 0); f != nil || p != nil {
		t.Error("non-positive dt has no spectrum")
	}
	if f, p := Dominant([]float64{0, 1}, []float64{0, 0}); f != 0 || p != 0 {
		t.Error("flat spectrum has no dominant frequency")
	}
}
