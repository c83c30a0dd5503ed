// Package analysis characterizes recorded metric series.
//
//   - [Summarize]: mean, spread and range of a series
//   - [PowerSpectrum]: one-sided power spectrum of a uniformly sampled series
//   - [Dominant]: strongest non-zero frequency of a spectrum
//
// # Oscillation
//
// A bonded pair rings at a frequency set by the bond stiffness. The
// kinetic-energy series of a run shows it as a spectral peak:
//
//	freqs, power := analysis.PowerSpectrum(ke, sampleDt)
//	f, _ := analysis.Dominant(freqs, power)
//	period := 1 / f
package analysis
