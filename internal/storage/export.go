package storage

import (
	"encoding/json"
	"io"

	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

type ExportData struct {
	Meta    *RunMetadata         `json:"meta"`
	Frames  []int                `json:"frames"`
	Times   []float64            `json:"times"`
	Series  map[string][]float64 `json:"series"`
	Events  []entity.Event       `json:"events"`
	Metrics map[string]float64   `json:"metrics"`
}

// ExportJSON writes everything stored for a run as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	events, err := s.LoadEvents(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Meta:    meta,
		Frames:  series.Frames,
		Times:   series.Times,
		Series:  make(map[string][]float64, len(series.Names)),
		Events:  events,
		Metrics: meta.Metrics,
	}
	for _, name := range series.Names {
		data.Series[name] = series.Column(name)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
