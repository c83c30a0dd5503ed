package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/mistergarrison/simchem3d-sub001/internal/analysis"
	"github.com/mistergarrison/simchem3d-sub001/internal/automation"
	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/experiment"
	"github.com/mistergarrison/simchem3d-sub001/internal/export"
	"github.com/mistergarrison/simchem3d-sub001/internal/metrics"
	"github.com/mistergarrison/simchem3d-sub001/internal/notify"
	"github.com/mistergarrison/simchem3d-sub001/internal/optim"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
	"github.com/mistergarrison/simchem3d-sub001/internal/storage"
	"github.com/mistergarrison/simchem3d-sub001/internal/tui"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	tablesFile string
	preset     string
	frames     int
	seed       int64
	noSave     bool
	// live view and server
	liveFPS  int
	serveFPS int
	addr     string
	// ensemble
	numRuns int
	// sweeps
	sweepParams []string
	sweepMetric string
	maximize    bool
	// plots and exports
	metric string
	out    string
	width  int
	height int
)

// main registers every command and runs the interactive viewer when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "simchem",
		Short: "particle and molecule sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, cfg, err := loadInputs(cmd)
			if err != nil {
				return err
			}
			return tui.RunInteractive(tables, cfg)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".simchem", "data directory")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&tablesFile, "tables", "", "element/particle/molecule tables (yaml)")
	pf.StringVar(&preset, "preset", "", "physics preset")
	pf.Int64Var(&seed, "seed", 0, "random seed")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store the results",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().IntVar(&frames, "frames", 0, "frames to run (0 uses the scenario default)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the metric series of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metric, "metric", "", "plot only this metric")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the metric series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export everything stored for a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	eventsCmd := &cobra.Command{
		Use:   "events [run_id]",
		Short: "print the creation/removal log of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  listEvents,
	}

	chartCmd := &cobra.Command{
		Use:   "chart [run_id] [metric]",
		Short: "render one metric of a run as SVG",
		Args:  cobra.ExactArgs(2),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	chartCmd.Flags().IntVar(&width, "width", 800, "picture width")
	chartCmd.Flags().IntVar(&height, "height", 300, "picture height")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scenario]",
		Short: "run a scenario and render the final state as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotScenario,
	}
	snapshotCmd.Flags().IntVar(&frames, "frames", 0, "frames to run (0 uses the scenario default)")
	snapshotCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	snapshotCmd.Flags().IntVar(&width, "width", 800, "picture width")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [scenario]",
		Short: "run a scenario over consecutive seeds in parallel",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 4, "number of runs")
	ensembleCmd.Flags().IntVar(&frames, "frames", 0, "frames per run (0 uses the scenario default)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summary statistics and frequency analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&metric, "metric", "", "also plot the power spectrum of this metric")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "grid search physics parameters against a metric",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepScenario,
	}
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter range, name=v1,v2 or name=lo:hi:step (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "kinetic_energy", "metric to optimize")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "prefer larger metric values")
	sweepCmd.Flags().IntVar(&frames, "frames", 0, "frames per run (0 uses the scenario default)")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&frames, "frames", 0, "frames to run (0 uses the scenario default)")
	liveCmd.Flags().IntVar(&liveFPS, "fps", 30, "frame rate")

	serveCmd := &cobra.Command{
		Use:   "serve [scenario]",
		Short: "run a scenario and stream frames over websocket",
		Args:  cobra.ExactArgs(1),
		RunE:  serveScenario,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&serveFPS, "fps", 60, "frame rate")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFRAMES\tDESCRIPTION")
			for _, name := range reg.List() {
				sc, _ := reg.Get(name)
				fmt.Fprintf(w, "%s\t%d\t%s\n", sc.Name, sc.Frames, sc.Description)
			}
			return w.Flush()
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list physics presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	moleculesCmd := &cobra.Command{
		Use:   "molecules",
		Short: "list the molecule table",
		RunE:  listMolecules,
	}

	validateCmd := &cobra.Command{
		Use:   "validate [tables.yaml]",
		Short: "check a tables file and the active config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateInputs,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, eventsCmd,
		chartCmd, snapshotCmd, ensembleCmd, analyzeCmd, sweepCmd, liveCmd, serveCmd, scenariosCmd, presetsCmd, moleculesCmd, validateCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// loadInputs resolves tables and config. A config file replaces the
// defaults, a preset replaces its physics, and flags win over both.
func loadInputs(cmd *cobra.Command) (*content.Tables, *config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	if preset != "" {
		p, ok := config.GetPreset(preset)
		if !ok {
			return nil, nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Physics = p
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	path := tablesFile
	if path == "" {
		path = cfg.Tables
	}
	if path == "" {
		tables, err := content.Default()
		return tables, cfg, err
	}
	tables, err := content.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load tables: %w", err)
	}
	return tables, cfg, nil
}

func newExperiment(cmd *cobra.Command, name string, opts ...sim.Option) (*experiment.Experiment, *config.Config, error) {
	tables, cfg, err := loadInputs(cmd)
	if err != nil {
		return nil, nil, err
	}
	sc, err := resolveScenario(name, tables, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]sim.Option{sim.WithLogger(newLogger())}, opts...)
	x, err := experiment.New(tables, cfg, sc, opts...)
	if err != nil {
		return nil, nil, err
	}
	return x, cfg, nil
}

// resolveScenario looks name up in the registry, or loads it as a script
// when it names a YAML file. A script's physics is applied to cfg.
func resolveScenario(name string, tables *content.Tables, cfg *config.Config) (experiment.Scenario, error) {
	ext := filepath.Ext(name)
	if ext != ".yaml" && ext != ".yml" {
		return experiment.NewRegistry().Get(name)
	}
	script, err := automation.LoadScript(name)
	if err != nil {
		return experiment.Scenario{}, err
	}
	if err := script.Validate(tables); err != nil {
		return experiment.Scenario{}, err
	}
	if err := script.Apply(cfg); err != nil {
		return experiment.Scenario{}, err
	}
	if err := cfg.Validate(); err != nil {
		return experiment.Scenario{}, err
	}
	return script.Scenario(), nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	x, cfg, err := newExperiment(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("running %s (seed %d)...\n", args[0], cfg.Seed)
	start := time.Now()

	result, err := x.Run(cmd.Context(), frames)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(result, cfg)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("frames: %d  t=%.2fs\n", result.Frames, result.Time)
	fmt.Printf("atoms: %d  particles: %d  molecules: %d\n",
		result.Counts.Atoms, result.Counts.Particles, result.Counts.Molecules)

	fmt.Println("\nmetrics:")
	for _, name := range result.Names {
		fmt.Printf("  %s: %.6f\n", name, result.Final[name])
	}
	if len(result.Discoveries) > 0 {
		fmt.Println("\ndiscoveries:")
		for _, d := range result.Discoveries {
			fmt.Printf("  frame %d: elements %v particles %v molecules %v\n", d.Frame, d.Elements, d.Particles, d.Molecules)
		}
	}
	if len(result.Assembled) > 0 {
		fmt.Printf("\nassembled: %s\n", strings.Join(result.Assembled, ", "))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tFRAMES\tSIM TIME\tSEED\tMOLECULES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2fs\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.SimTime,
			run.Seed,
			strings.Join(run.Molecules, ","),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	if len(series.Values) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(series.Values))

	names := series.Names
	if metric != "" {
		names = []string{metric}
	}
	for _, name := range names {
		data := series.Column(name)
		if data == nil {
			return fmt.Errorf("metric %q not recorded (have %v)", name, series.Names)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	series, err := storage.New(dataDir).LoadSeries(args[0])
	if err != nil {
		return err
	}

	if len(series.Values) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write(append([]string{"frame", "time"}, series.Names...)); err != nil {
		return err
	}
	for i, row := range series.Values {
		rec := []string{strconv.Itoa(series.Frames[i]), strconv.FormatFloat(series.Times[i], 'f', 6, 64)}
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	return nil
}

func listEvents(cmd *cobra.Command, args []string) error {
	events, err := storage.New(dataDir).LoadEvents(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tTIME\tKIND\tID\tSPECIES\tREASON")
	for _, ev := range events {
		fmt.Fprintf(w, "%d\t%.3f\t%s\t%d\t%s\t%s\n", ev.Frame, ev.Time, ev.Kind, ev.ID, ev.Symbol, ev.Reason)
	}
	return w.Flush()
}

func writeOutput(doc string) error {
	if out == "" {
		_, err := fmt.Println(doc)
		return err
	}
	return os.WriteFile(out, []byte(doc), 0644)
}

func chartRun(cmd *cobra.Command, args []string) error {
	series, err := storage.New(dataDir).LoadSeries(args[0])
	if err != nil {
		return err
	}
	values := series.Column(args[1])
	if values == nil {
		return fmt.Errorf("metric %q not recorded (have %v)", args[1], series.Names)
	}
	svg := export.SeriesToSVG(series.Times, values, width, height, "#00d7af")
	if svg == "" {
		return fmt.Errorf("not enough samples to chart")
	}
	return writeOutput(svg)
}

func snapshotScenario(cmd *cobra.Command, args []string) error {
	x, _, err := newExperiment(cmd, args[0])
	if err != nil {
		return err
	}
	if _, err := x.Run(cmd.Context(), frames); err != nil {
		return err
	}

	e := x.Engine()
	b := e.Bounds()
	ww, wh := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	h := int(float64(width) * wh / ww)
	vp := sim.Grid{Cols: width, Rows: h, Width: ww, Height: wh}
	return writeOutput(export.SceneToSVG(e.Store().Atoms(), vp, width, h))
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	tables, cfg, err := loadInputs(cmd)
	if err != nil {
		return err
	}
	sc, err := resolveScenario(args[0], tables, cfg)
	if err != nil {
		return err
	}
	n := frames
	if n <= 0 {
		n = sc.Frames
	}

	trial := func(ctx context.Context, e *sim.Engine) error {
		if sc.Setup != nil {
			if err := sc.Setup(e); err != nil {
				return err
			}
		}
		return e.Run(ctx, n, sc.Intent)
	}

	fmt.Printf("running %d × %s from seed %d...\n\n", numRuns, sc.Name, cfg.Seed)
	start := time.Now()
	engines, err := sim.NewEnsemble(tables, cfg, numRuns, cfg.Seed, sim.WithLogger(newLogger())).Run(cmd.Context(), trial)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	ms := metrics.Standard()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := []string{"SEED"}
	for _, m := range ms {
		header = append(header, strings.ToUpper(m.Name()))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, e := range engines {
		row := []string{strconv.FormatInt(e.Seed(), 10)}
		for _, m := range ms {
			m.Reset()
			m.Observe(e.Store().Live(), e.Time())
			row = append(row, strconv.FormatFloat(m.Value(), 'f', 3, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ncompleted in %v\n", elapsed)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Values) < 2 {
		return fmt.Errorf("no data")
	}
	sampleDt := series.Times[1] - series.Times[0]

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s  samples: %d  every %.4fs\n\n", meta.Scenario, len(series.Values), sampleDt)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX\tFINAL\tPERIOD")
	for _, name := range series.Names {
		data := series.Column(name)
		s := analysis.Summarize(data)
		period := "-"
		if f, _ := analysis.Dominant(analysis.PowerSpectrum(data, sampleDt)); f > 0 {
			period = fmt.Sprintf("%.3fs", 1/f)
		}
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n", name, s.Mean, s.StdDev, s.Min, s.Max, s.Last, period)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if metric == "" {
		return nil
	}
	data := series.Column(metric)
	if data == nil {
		return fmt.Errorf("metric %q not recorded (have %v)", metric, series.Names)
	}
	freqs, power := analysis.PowerSpectrum(data, sampleDt)
	if len(power) < 2 {
		return nil
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(power[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s), %.3f-%.3f hz", metric, freqs[1], freqs[len(freqs)-1])),
	))
	f, _ := analysis.Dominant(freqs, power)
	fmt.Printf("\ndominant frequency: %.3f hz\n", f)
	if f > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/f)
	}
	return nil
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	tables, cfg, err := loadInputs(cmd)
	if err != nil {
		return err
	}
	sc, err := resolveScenario(args[0], tables, cfg)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	var names []string
	var ranges [][]float64
	for _, p := range sweepParams {
		name, vals, err := optim.ParseRange(p)
		if err != nil {
			return err
		}
		if _, err := cfg.Physics.With(map[string]float64{name: vals[0]}); err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	g := optim.NewGridSearch(names, ranges)
	if maximize {
		g.Maximize()
	}
	log := newLogger()
	eval := func(ctx context.Context, params map[string]float64) (float64, error) {
		c := *cfg
		phys, err := cfg.Physics.With(params)
		if err != nil {
			return 0, err
		}
		c.Physics = phys
		x, err := experiment.New(tables, &c, sc, sim.WithLogger(log))
		if err != nil {
			return 0, err
		}
		res, err := x.Run(ctx, frames)
		if err != nil {
			return 0, err
		}
		v, ok := res.Final[sweepMetric]
		if !ok {
			return 0, fmt.Errorf("metric %q not recorded", sweepMetric)
		}
		return v, nil
	}

	fmt.Printf("sweeping %s over %d combinations...\n\n", sc.Name, g.Size())
	best, trials, err := g.Search(cmd.Context(), eval)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(append(append([]string{}, names...), sweepMetric), "\t")))
	for _, tr := range trials {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(tr.Params[n], 'g', -1, 64))
		}
		if tr.Err != nil {
			row = append(row, "error: "+tr.Err.Error())
		} else {
			row = append(row, strconv.FormatFloat(tr.Value, 'f', 4, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.4f at", sweepMetric, best.Value)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best.Params[n])
	}
	fmt.Println()
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	x, _, err := newExperiment(cmd, args[0])
	if err != nil {
		return err
	}
	if liveFPS <= 0 {
		liveFPS = 30
	}
	r := tui.NewLiveRenderer(os.Stdout, args[0], x.Engine(), liveFPS)
	x.Engine().AddObserver(r)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.Start()
	defer r.Stop()

	ticker := time.NewTicker(time.Second / time.Duration(liveFPS))
	defer ticker.Stop()
	for i := 0; i < x.Frames(frames); i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if _, err := x.Step(sim.Intent{}); err != nil {
			return err
		}
	}
	return nil
}

func serveScenario(cmd *cobra.Command, args []string) error {
	log := newLogger()
	x, _, err := newExperiment(cmd, args[0])
	if err != nil {
		return err
	}
	if serveFPS <= 0 {
		serveFPS = 60
	}

	hub := notify.NewHub(func() []*entity.Atom { return x.Engine().Store().Atoms() }, log)
	defer hub.Close()
	x.Engine().AddObserver(hub)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "addr", addr, "err", err)
			stop()
		}
	}()
	fmt.Printf("streaming %s on ws://%s/ws\n", args[0], addr)

	ticker := time.NewTicker(time.Second / time.Duration(serveFPS))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case <-ticker.C:
			if _, err := x.Step(sim.Intent{}); err != nil {
				log.Warn("step", "err", err)
			}
		}
	}
}

func listMolecules(cmd *cobra.Command, args []string) error {
	tables, _, err := loadInputs(cmd)
	if err != nil {
		return err
	}
	mols := append([]*content.MoleculeDef(nil), tables.Molecules...)
	sort.Slice(mols, func(i, j int) bool { return mols[i].ID < mols[j].ID })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFORMULA\tATOMS\tASSEMBLABLE")
	for _, m := range mols {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\n", m.ID, m.Name, m.Formula, m.AtomCount(), m.Structure != nil)
	}
	return w.Flush()
}

func validateInputs(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		tablesFile = args[0]
	}
	tables, cfg, err := loadInputs(cmd)
	if err != nil {
		return err
	}
	fmt.Printf("tables ok: %d elements, %d particles, %d molecules\n",
		len(tables.Elements), len(tables.Particles), len(tables.Molecules))
	fmt.Printf("config ok: %d substeps at %.4fs, time scale %.2f\n",
		cfg.Physics.Substeps, cfg.Physics.FrameDt, cfg.Physics.TimeScale)
	return nil
}
