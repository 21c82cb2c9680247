package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/experiment"
	"github.com/san-kum/orbsim/internal/metrics"
	"github.com/san-kum/orbsim/internal/report"
	"github.com/san-kum/orbsim/internal/storage"
)

var (
	dataDir    string
	logFormat  string
	logLevel   string
	configFile string
	dt         float64
	iterations int
	workers    int
	gConst     float64
	pinCenter  bool
	logEvery   int
	plotAfter  bool
	noSave     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "orbsim",
		Short:         "gravitational n-body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation from a preset or config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultTimeStep, "time step")
	runCmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "number of steps")
	runCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "goroutines for the compute phase")
	runCmd.Flags().Float64Var(&gConst, "g", config.DefaultG, "gravitational constant")
	runCmd.Flags().BoolVar(&pinCenter, "pin-center", false, "keep the center body fixed")
	runCmd.Flags().IntVar(&logEvery, "log-every", 100, "log every n-th step")
	runCmd.Flags().BoolVar(&plotAfter, "plot", false, "plot kinetic energy after the run")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the kinetic energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "frequency analysis of a run's kinetic energy",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "measure step throughput for several worker counts",
		Args:  cobra.ExactArgs(1),
		RunE:  benchPreset,
	}
	benchCmd.Flags().IntVar(&iterations, "iterations", 0, "override the preset step count")

	initCmd := &cobra.Command{
		Use:   "init [preset] [path]",
		Short: "write a preset as an editable config file",
		Args:  cobra.ExactArgs(2),
		RunE:  initConfig,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, spectrumCmd, exportCmd, presetsCmd, benchCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", logFormat)
	}
}

// loadConfig resolves the run configuration: a config file wins over a
// preset, and flags set on the command line win over both.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case len(args) == 1:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		return nil, fmt.Errorf("need a preset or --config (presets: %v)", config.ListPresets())
	}

	if cmd.Flags().Changed("dt") {
		cfg.TimeStep = dt
	}
	if cmd.Flags().Changed("iterations") {
		cfg.Iterations = iterations
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("g") {
		cfg.GravitationalConstant = gConst
	}
	if cmd.Flags().Changed("pin-center") {
		cfg.PinCenter = pinCenter
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg, nil)
	if err := exp.Setup(report.NewStepLogger(logger, logEvery)); err != nil {
		return err
	}

	logger.Info("running simulation",
		"name", cfg.Name,
		"bodies", len(cfg.Bodies),
		"iterations", cfg.Iterations,
		"dt", cfg.TimeStep,
		"workers", cfg.Workers,
	)

	result, runErr := exp.Run(ctx)
	if runErr != nil {
		logger.Error("simulation stopped", "step", result.Steps, "err", runErr)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.NewMetadata(cfg, result, runErr), result.Trace)
		if err != nil {
			return errors.Join(runErr, err)
		}
		logger.Info("run recorded", "run_id", runID, "dir", dataDir)
	}

	fmt.Println(report.Summary(cfg.Name, result))
	if plotAfter {
		fmt.Println()
		fmt.Println(report.PlotEnergy(result.Trace.Values, "total kinetic energy"))
	}

	return runErr
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSTEPS\tDT\tINTEG\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%g\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Iterations,
			run.Dt,
			run.Integrator,
			status,
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

	_, values, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(values))
	fmt.Println(report.PlotEnergy(values, "total kinetic energy vs step"))
	return nil
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	_, values, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}

	_, power := metrics.PowerSpectrum(values, meta.Dt)
	if len(power) < 2 {
		return fmt.Errorf("not enough samples for a spectrum")
	}

	fmt.Printf("frequency analysis: %s\n\n", meta.ID)
	fmt.Println(report.PlotEnergy(power[1:], "kinetic energy amplitude spectrum"))
	fmt.Println()

	if period := metrics.DominantPeriod(values, meta.Dt); period > 0 {
		fmt.Printf("dominant period: %.6g s\n", period)
	} else {
		fmt.Println("no dominant period")
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBODIES\tG\tDT\tITERATIONS\tBOOTSTRAP")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		ids := make([]string, len(p.Bodies))
		for i, b := range p.Bodies {
			ids[i] = b.ID
		}
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%d\t%s\n",
			name, strings.Join(ids, ","), p.GravitationalConstant, p.TimeStep, p.Iterations, p.Bootstrap)
	}
	return w.Flush()
}

func benchPreset(cmd *cobra.Command, args []string) error {
	base := config.GetPreset(args[0])
	if base == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if iterations > 0 {
		base.Iterations = iterations
	}

	fmt.Printf("benchmarking %s (%d bodies, %d steps)\n\n", args[0], len(base.Bodies), base.Iterations)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tSTEPS\tTIME\tSTEPS/SEC")

	registry := experiment.NewRegistry()
	for _, n := range []int{1, 2, 4} {
		cfg := base.Clone()
		cfg.Workers = n

		s, err := experiment.Build(cfg, registry)
		if err != nil {
			return err
		}

		start := time.Now()
		if err := s.RunAll(context.Background()); err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\n", n, s.Steps(), elapsed, float64(s.Steps())/elapsed.Seconds())
	}

	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if _, err := os.Stat(args[1]); err == nil {
		return fmt.Errorf("%s already exists", args[1])
	}
	if err := config.Save(args[1], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s preset to %s\n", args[0], args[1])
	return nil
}
