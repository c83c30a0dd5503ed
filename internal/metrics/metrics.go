// Package metrics reduces the atom population to scalar time series.
package metrics

import (
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

type Metric interface {
	Name() string
	Observe(atoms []*entity.Atom, t float64)
	Value() float64
	Reset()
}

// Sample is one row of recorded metric values.
type Sample struct {
	Frame  int
	Time   float64
	Values []float64
}

// Recorder samples every metric after each frame. It satisfies
// sim.Observer.
type Recorder struct {
	source  func() []*entity.Atom
	metrics []Metric
	every   int
	samples []Sample
}

// NewRecorder observes the atoms returned by source every n frames.
func NewRecorder(source func() []*entity.Atom, every int, ms ...Metric) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{source: source, metrics: ms, every: every}
}

func (r *Recorder) OnFrame(rep sim.Report) {
	if rep.Frame%r.every != 0 {
		return
	}
	atoms := r.source()
	row := Sample{Frame: rep.Frame, Time: rep.Time, Values: make([]float64, len(r.metrics))}
	for i, m := range r.metrics {
		m.Observe(atoms, rep.Time)
		row.Values[i] = m.Value()
	}
	r.samples = append(r.samples, row)
}

func (r *Recorder) Names() []string {
	out := make([]string, len(r.metrics))
	for i, m := range r.metrics {
		out[i] = m.Name()
	}
	return out
}

func (r *Recorder) Samples() []Sample { return r.samples }

// Final maps each metric to its last value.
func (r *Recorder) Final() map[string]float64 {
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Series returns the recorded values of one metric.
func (r *Recorder) Series(name string) []float64 {
	idx := -1
	for i, m := range r.metrics {
		if m.Name() == name {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(r.samples))
	for i, s := range r.samples {
		out[i] = s.Values[idx]
	}
	return out
}

func (r *Recorder) Reset() {
	r.samples = nil
	for _, m := range r.metrics {
		m.Reset()
	}
}

// Standard is the set recorded by experiments.
func Standard() []Metric {
	return []Metric{NewEnergy(), NewChargeDrift(), NewPopulation(), NewBonds()}
}
