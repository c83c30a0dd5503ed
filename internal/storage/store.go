package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/experiment"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Frames    int                `json:"frames"`
	SimTime   float64            `json:"sim_time"`
	FrameDt   float64            `json:"frame_dt"`
	Substeps  int                `json:"substeps"`
	TimeScale float64            `json:"time_scale"`
	Metrics   map[string]float64 `json:"metrics"`
	Counts    sim.Counts         `json:"counts"`
	Elements  []int              `json:"elements,omitempty"`
	Particles []string           `json:"particles,omitempty"`
	Molecules []string           `json:"molecules,omitempty"`
	Assembled []string           `json:"assembled,omitempty"`
}

// Series is the metric table of one run.
type Series struct {
	Names  []string
	Frames []int
	Times  []float64
	Values [][]float64 // one row per sample
}

// Column returns one metric's values, or nil when it was not recorded.
func (s *Series) Column(name string) []float64 {
	for i, n := range s.Names {
		if n != name {
			continue
		}
		out := make([]float64, len(s.Values))
		for r, row := range s.Values {
			if i < len(row) {
				out[r] = row[i]
			}
		}
		return out
	}
	return nil
}

func (s *Store) Save(res *experiment.Result, cfg *config.Config) (string, error) {
	runID := fmt.Sprintf("%s_%d", res.Scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	for i := 1; ; i++ {
		if _, err := os.Stat(runDir); os.IsNotExist(err) {
			break
		}
		runID = fmt.Sprintf("%s_%d_%d", res.Scenario, time.Now().Unix(), i)
		runDir = filepath.Join(s.baseDir, runID)
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  res.Scenario,
		Timestamp: time.Now(),
		Seed:      res.Seed,
		Frames:    res.Frames,
		SimTime:   res.Time,
		FrameDt:   cfg.Physics.FrameDt,
		Substeps:  cfg.Physics.Substeps,
		TimeScale: cfg.Physics.TimeScale,
		Metrics:   res.Final,
		Counts:    res.Counts,
		Assembled: res.Assembled,
	}
	for _, d := range res.Discoveries {
		meta.Elements = append(meta.Elements, d.Elements...)
		meta.Particles = append(meta.Particles, d.Particles...)
		meta.Molecules = append(meta.Molecules, d.Molecules...)
	}
	sort.Ints(meta.Elements)
	sort.Strings(meta.Particles)
	sort.Strings(meta.Molecules)

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, "series.csv"), res); err != nil {
		return "", err
	}
	if err := writeEvents(filepath.Join(runDir, "events.csv"), res.Events); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, res *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"frame", "time"}, res.Names...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, smp := range res.Samples {
		row := []string{strconv.Itoa(smp.Frame), strconv.FormatFloat(smp.Time, 'f', 6, 64)}
		for _, v := range smp.Values {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeEvents(path string, events []entity.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"frame", "time", "kind", "id", "symbol", "reason"}); err != nil {
		return err
	}
	for _, ev := range events {
		row := []string{
			strconv.Itoa(ev.Frame),
			strconv.FormatFloat(ev.Time, 'f', 6, 64),
			string(ev.Kind),
			strconv.FormatUint(uint64(ev.ID), 10),
			ev.Symbol,
			ev.Reason,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, err
	}
	out := &Series{}
	if len(records) == 0 {
		return out, nil
	}
	if len(records[0]) > 2 {
		out.Names = records[0][2:]
	}

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		frame, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		row := make([]float64, 0, len(record)-2)
		for _, field := range record[2:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				v = 0
			}
			row = append(row, v)
		}
		out.Frames = append(out.Frames, frame)
		out.Times = append(out.Times, t)
		out.Values = append(out.Values, row)
	}
	return out, nil
}

func (s *Store) LoadEvents(runID string) ([]entity.Event, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "events.csv"))
	if err != nil {
		return nil, err
	}
	var out []entity.Event
	for i, record := range records {
		if i == 0 || len(record) < 6 {
			continue
		}
		frame, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("events.csv line %d: %w", i+1, err)
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("events.csv line %d: %w", i+1, err)
		}
		id, err := strconv.ParseUint(record[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("events.csv line %d: %w", i+1, err)
		}
		out = append(out, entity.Event{
			Frame:  frame,
			Time:   t,
			Kind:   entity.EventKind(record[2]),
			ID:     entity.ID(id),
			Symbol: record[4],
			Reason: record[5],
		})
	}
	return out, nil
}
