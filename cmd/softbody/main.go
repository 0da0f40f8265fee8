package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/experiment"
	"github.com/san-kum/softbody/internal/export"
	"github.com/san-kum/softbody/internal/logging"
	"github.com/san-kum/softbody/internal/sim"
	"github.com/san-kum/softbody/internal/storage"
	"github.com/san-kum/softbody/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool
	debug   bool
	log     logr.Logger

	configFile  string
	preset      string
	dt          float64
	duration    float64
	substeps    int
	seed        int64
	shape       string
	count       int
	height      float64
	stiffness   float64
	deformation float64
	flappyness  float64

	metricNames []string
	recordEvery int
	noSave      bool

	frame    int
	outFile  string
	svgTrace bool
	svgWidth int

	sweepParam  string
	sweepValues []float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "softbody",
		Short: "meshless shape matching soft body simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logging.New(os.Stderr, logging.Verbosity(verbose, debug)).WithName("softbody")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := tea.NewProgram(viz.NewLauncher(buildFunc()), tea.WithAltScreen()).Run()
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".softbody", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-frame progress")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log everything")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scene and store the result",
		Args:  cobra.NoArgs,
		RunE:  runScene,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "metrics to report (default all)")
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "store positions every n frames (0 disables)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scene in the terminal viewer",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one scene under several values of a parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "stiffness", "parameter to vary (stiffness, deformation, flappyness, elasticity, friction)")
	sweepCmd.Flags().Float64SliceVar(&sweepValues, "values", []float64{0.1, 0.3, 0.5, 0.7, 1.0}, "values to try")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the centroid height of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored frame or the centroid trace as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().IntVar(&frame, "frame", -1, "frame to draw (default last recorded)")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	exportCmd.Flags().BoolVar(&svgTrace, "trace", false, "plot centroid height over time instead of a frame")
	exportCmd.Flags().IntVar(&svgWidth, "width", 640, "image width in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scene presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSHAPE\tSTIFF\tDEFORM\tFLAP\tDURATION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.1fs\n",
					name, p.Shape, p.Physics.Stiffness, p.Physics.Deformation, p.Physics.Flappyness, p.Duration)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a scene config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	addSceneFlags(initCmd)

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, listCmd, plotCmd, exportCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file (.yaml, .yml, .gcfg, .ini)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset scene")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "frame timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().IntVar(&substeps, "substeps", config.DefaultSubsteps, "integration substeps per frame")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed for jitter and clouds")
	cmd.Flags().StringVar(&shape, "shape", config.ShapeBox, "body shape ("+strings.Join(config.Shapes, ", ")+")")
	cmd.Flags().IntVar(&count, "count", config.DefaultCount, "particles per edge (box) or in total")
	cmd.Flags().Float64Var(&height, "height", config.DefaultHeight, "height of the lowest particle")
	cmd.Flags().Float64Var(&stiffness, "stiffness", 0.5, "shape matching stiffness in [0,1]")
	cmd.Flags().Float64Var(&deformation, "deformation", 0.3, "linear/quadratic blend in [0,1]")
	cmd.Flags().Float64Var(&flappyness, "flappyness", 0.5, "velocity gain of the correction")
}

// resolveConfig layers defaults, then a preset, then a config file, then
// explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("shape") {
		cfg.Shape = shape
	}
	if flags.Changed("count") {
		cfg.Body.Count = count
	}
	if flags.Changed("height") {
		cfg.Body.Height = height
	}
	if flags.Changed("stiffness") {
		cfg.Physics.Stiffness = stiffness
	}
	if flags.Changed("deformation") {
		cfg.Physics.Deformation = deformation
	}
	if flags.Changed("flappyness") {
		cfg.Physics.Flappyness = flappyness
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildFunc() viz.Builder {
	return func(cfg *config.Config) (*sim.Simulator, error) {
		return experiment.Build(cfg, log)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ms, err := experiment.NewRegistry().Metrics(metricNames...)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg).WithLogger(log)
	if err := exp.Setup(ms); err != nil {
		return err
	}

	simCfg := cfg.SimConfig()
	simCfg.RecordEvery = recordEvery

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s: %s, %d particles, %.2fs at dt=%.4f\n",
		cfg.Scene, cfg.Shape, exp.Simulator().Store().Len(), cfg.Duration, cfg.Dt)

	start := time.Now()
	result, runErr := exp.Simulator().Run(ctx, cfg.Params(), simCfg)
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}

	fmt.Printf("frames: %d (%v, %.0f frames/s)\n", result.Frames, elapsed.Round(time.Millisecond), float64(result.Frames)/elapsed.Seconds())
	if n := len(result.Centers); n > 0 {
		c := result.Centers[n-1]
		fmt.Printf("final center: (%.3f, %.3f, %.3f)\n", c[0], c[1], c[2])
	}
	printMetrics(result.Metrics)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("saved: %s\n", runID)
	}
	return runErr
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	if len(names) == 0 {
		return
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nMETRIC\tVALUE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.4f\n", name, m[name])
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := experiment.Build(cfg, logr.Discard())
	if err != nil {
		return err
	}

	m := viz.NewModel(s, cfg.Scene, cfg.Params(), float32(cfg.Dt), cfg.Substeps)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	variants := make([]sim.Variant, 0, len(sweepValues))
	for _, v := range sweepValues {
		p := cfg.Params()
		switch sweepParam {
		case "stiffness":
			p.Stiffness = float32(v)
		case "deformation":
			p.Deformation = float32(v)
		case "flappyness":
			p.Flappyness = float32(v)
		case "elasticity":
			p.Elasticity = float32(v)
		case "friction":
			p.DynamicFriction = float32(v)
		default:
			return fmt.Errorf("unknown sweep parameter: %s", sweepParam)
		}
		variants = append(variants, sim.Variant{Name: strconv.FormatFloat(v, 'g', -1, 64), Params: p})
	}

	registry := experiment.NewRegistry()
	factory := func() (*sim.Simulator, error) {
		s, err := experiment.Build(cfg, log)
		if err != nil {
			return nil, err
		}
		ms, err := registry.Metrics()
		if err != nil {
			return nil, err
		}
		for _, m := range ms {
			s.AddMetric(m)
		}
		return s, nil
	}

	simCfg := cfg.SimConfig()
	simCfg.RecordEvery = 0

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping %s over %d values for %s (%.2fs)\n\n", sweepParam, len(variants), cfg.Scene, cfg.Duration)
	results, err := sim.NewEnsemble(factory).Run(ctx, variants, simCfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL_Y\tGOAL_DEV\tCONTACT\tENERGY_LOSS\n", strings.ToUpper(sweepParam))
	for i, res := range results {
		final := res.Centers[len(res.Centers)-1]
		fmt.Fprintf(w, "%s\t%.3f\t%.4f\t%.2f\t%.3f\n",
			variants[i].Name, final[1],
			res.Metrics["goal_deviation"], res.Metrics["floor_contact"], res.Metrics["energy_loss"])
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tPARTICLES\tFRAMES\tDT")
	for _, run := range runs {
		dt := 0.0
		if run.Config != nil {
			dt = run.Config.Dt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4fs\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Frames,
			dt,
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
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(tr.Centers) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(tr.Centers))

	for axis, caption := range []string{"centroid x", "centroid height", "centroid z"} {
		data := make([]float64, len(tr.Centers))
		for i, c := range tr.Centers {
			data[i] = float64(c[axis])
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	out := outFile
	if out == "" {
		out = runID + ".svg"
	}
	h := svgWidth * 3 / 4

	var svg string
	if svgTrace {
		tr, err := st.LoadTrace(runID)
		if err != nil {
			return err
		}
		svg = export.TrajectoryToSVG(export.TraceToPoints(tr.Times, tr.Centers), svgWidth, h, "#5fffd7")
		if svg == "" {
			return fmt.Errorf("run %s has too few samples", runID)
		}
	} else {
		f := frame
		if f < 0 {
			frames, err := st.RecordedFrames(runID)
			if err != nil {
				return err
			}
			if len(frames) == 0 {
				return fmt.Errorf("run %s has no recorded frames", runID)
			}
			f = frames[len(frames)-1]
		}
		positions, t, err := st.LoadFrame(runID, f)
		if err != nil {
			return err
		}
		cam := viz.NewCamera()
		cam.Fit(positions)
		svg = export.FrameToSVG(positions, cam, svgWidth, h, "#ff5fd7")
		fmt.Printf("frame %d (t=%.3fs), %d particles\n", f, t, len(positions))
	}

	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}
