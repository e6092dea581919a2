package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/physbox/internal/config"
	"github.com/san-kum/physbox/internal/export"
	"github.com/san-kum/physbox/internal/gui"
	"github.com/san-kum/physbox/internal/metrics"
	"github.com/san-kum/physbox/internal/sim"
	"github.com/san-kum/physbox/internal/storage"
	"github.com/san-kum/physbox/internal/stream"
	"github.com/san-kum/physbox/internal/viz"
)

var (
	configFile string
	preset     string
	seed       int64
	dataDir    string
	logLevel   string

	frames  int
	dt      float64
	extra   int
	runs    int
	record  bool
	stride  int
	svgPath string

	fps  int
	addr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "physbox",
		Short:        "drop spheres and boxes onto a floor",
		SilenceUsage: true,
		RunE:         runGUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "default", "preset applied when no config file is given")
	pf.Int64Var(&seed, "seed", 0, "random seed (default: config seed)")
	pf.StringVar(&dataDir, "data", ".physbox", "data directory")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "open the 3D window",
		RunE:  runGUI,
	}

	headlessCmd := &cobra.Command{
		Use:   "headless",
		Short: "run without a window or audio",
		RunE:  runHeadless,
	}
	headlessCmd.Flags().IntVar(&frames, "frames", 600, "number of frames")
	headlessCmd.Flags().Float64Var(&dt, "dt", 1.0/60, "seconds per frame")
	headlessCmd.Flags().IntVar(&extra, "extra", 0, "random objects spawned after the startup objects")
	headlessCmd.Flags().IntVar(&runs, "runs", 1, "parallel runs with consecutive seeds")
	headlessCmd.Flags().BoolVar(&record, "record", false, "save the run to the data directory")
	headlessCmd.Flags().IntVar(&stride, "stride", 1, "record every n-th frame")
	headlessCmd.Flags().StringVar(&svgPath, "svg", "", "write the final frame as svg")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run in the terminal",
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&fps, "fps", 30, "frame rate")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream frames to websocket viewers",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&fps, "fps", 60, "frame rate")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&svgPath, "svg", "", "also write the plot as svg")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective config as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}

	rootCmd.AddCommand(guiCmd, headlessCmd, liveCmd, serveCmd, runsCmd, showCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "physbox",
	})
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", logLevel)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	return cfg, nil
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return gui.Run(cfg, newLogger())
}

var errEnsembleOutput = errors.New("--record and --svg need a single run")

// checkHeadlessFlags rejects outputs that only exist for a single run.
func checkHeadlessFlags(runs int, record bool, svgPath string) error {
	if runs < 1 {
		return fmt.Errorf("--runs must be at least 1, got %d", runs)
	}
	if runs > 1 && (record || svgPath != "") {
		return fmt.Errorf("%w (got --runs %d)", errEnsembleOutput, runs)
	}
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	if err := checkHeadlessFlags(runs, record, svgPath); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Audio.Enabled = false
	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runs > 1 {
		results, err := sim.NewEnsemble(cfg, runs, cfg.Seed, metrics.Default).Run(ctx, frames, dt, extra)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SEED\tOBJECTS\tSLEEPING\tREST\tMEAN_Y")
		for _, r := range results {
			fmt.Fprintf(w, "%d\t%d\t%d\t%.2fs\t%.3f\n",
				r.Seed, r.Objects, r.Sleeping, r.Metrics["rest_time"], r.Metrics["mean_height"])
		}
		return w.Flush()
	}

	s, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	metrics.Attach(s)
	var heights []float64
	s.AddObserver(heightObserver{&heights})
	rec := storage.NewRecorder(stride)
	if record {
		s.AddObserver(rec)
	}
	var canvas *viz.CanvasRenderer
	if svgPath != "" {
		canvas = viz.NewCanvasRenderer(60, 24)
		s.SetRenderer(canvas)
		s.Viewport().Resize(120, 96, 1)
	}

	start := time.Now()
	sum, err := sim.RunHeadless(ctx, s, frames, dt, extra)
	if err != nil {
		return err
	}
	logger.Info("run complete", "frames", frames, "elapsed", time.Since(start).Round(time.Millisecond))

	fmt.Printf("seed: %d\n", sum.Seed)
	fmt.Printf("simulated: %.2fs\n", sum.Time)
	fmt.Printf("objects: %d (%d sleeping)\n\n", sum.Objects, sum.Sleeping)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSHAPE\tX\tY\tZ\tSLEEPING")
	s.Registry().Each(func(o *sim.TrackedObject) {
		p := o.Body.Position
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%.3f\t%v\n", o.ID.String()[:8], o.Shape, p[0], p[1], p[2], o.Body.IsSleeping())
	})
	w.Flush()

	if len(heights) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(heights, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("mean height")))
	}
	fmt.Println()
	for name, v := range sum.Metrics {
		fmt.Printf("%-16s %.4f\n", name, v)
	}

	if canvas != nil {
		if err := os.WriteFile(svgPath, []byte(export.CanvasToSVG(canvas.Canvas, 4, "#e0e0ff")), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgPath)
	}

	if record {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		name := preset
		if configFile != "" {
			name = "custom"
		}
		runID, err := st.Save(storage.NewRunMetadata(name, cfg.World.Broadphase, dt, sum), rec.Rows())
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved: %s\n", runID)
	}
	return nil
}

type heightObserver struct{ heights *[]float64 }

func (h heightObserver) OnFrame(f sim.Frame) {
	*h.heights = append(*h.heights, metrics.Height(f))
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Audio.Enabled = false
	logger := log.New(os.Stderr)
	logger.SetLevel(log.ErrorLevel)

	s, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := s.SpawnStartup(); err != nil {
		return err
	}
	return viz.Run(sim.NewLoop(s, sim.NewWallClock()), fps)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Audio.Enabled = false
	logger := newLogger()

	s, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := s.SpawnStartup(); err != nil {
		return err
	}

	loop := sim.NewLoop(s, sim.NewWallClock())
	if fps > 0 {
		loop.Interval = time.Second / time.Duration(fps)
	}
	hub := stream.NewHub(loop, logger)
	loop.OnFrame(hub.OnFrame)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return stream.Serve(ctx, addr, hub) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	list, err := st.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tFRAMES\tDURATION\tOBJECTS\tBROADPHASE")
	for _, run := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2fs\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Duration,
			run.Objects,
			run.Broadphase,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	var heights []float64
	var sum float64
	n := 0
	frame := rows[0].Frame
	for _, r := range rows {
		if r.Frame != frame {
			heights = append(heights, sum/float64(n))
			sum, n, frame = 0, 0, r.Frame
		}
		sum += r.State.Position.Y()
		n++
	}
	heights = append(heights, sum/float64(n))

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s  seed: %d  objects: %d\n", meta.Preset, meta.Seed, meta.Objects)
	fmt.Printf("samples: %d\n\n", len(heights))
	if len(heights) > 1 {
		fmt.Println(asciigraph.Plot(heights, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("mean height")))
	}
	fmt.Println()
	for name, v := range meta.Metrics {
		fmt.Printf("%-16s %.4f\n", name, v)
	}

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.SeriesToSVG(heights, 640, 240, "#00ccff")), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgPath)
	}
	return nil
}
