package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"skyline-detector/internal/config"
	"skyline-detector/internal/debug/timing"
	"skyline-detector/internal/detect"
	"skyline-detector/internal/gui"
	"skyline-detector/internal/logger"
	"skyline-detector/internal/pipeline"
	"skyline-detector/internal/repository/sqlite"
	"skyline-detector/internal/shutdown"
	"skyline-detector/internal/skyline"

	"github.com/spf13/cobra"
)

const (
	AppName    = "skyline-detector"
	AppVersion = "1.0.0"

	previewFrameLimit = 500
)

type options struct {
	configPath string
	envFile    string
	cfg        config.Config
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return bindCommand(&options{cfg: config.Default()})
}

func bindCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Detect skylines in a labelled image dataset and score them against ground truth",
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			if err := run(cmd.Context(), cfg); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			return nil
		},
	}

	persistent := cmd.PersistentFlags()
	persistent.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	persistent.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with environment overrides")

	flags := cmd.Flags()
	flags.StringVar(&opts.cfg.DataDir, "data", opts.cfg.DataDir, "directory with one sub-directory of images per scene")
	flags.StringVar(&opts.cfg.GroundTruthDir, "ground-truth", opts.cfg.GroundTruthDir, "directory holding <scene>_GT.png masks")
	flags.StringVar(&opts.cfg.OutputDir, "output", opts.cfg.OutputDir, "directory receiving the skyline images")
	flags.StringVar(&opts.cfg.ReportPath, "report", "", "write a YAML report to this path")
	flags.StringVar(&opts.cfg.ResultsDB, "results-db", "", "record the run in this SQLite database")
	flags.Float64Var(&opts.cfg.SuccessThreshold, "success-threshold", opts.cfg.SuccessThreshold, "accuracy (percent) above which an image counts as a success")
	flags.StringVar(&opts.cfg.Night.GapPolicy, "gap-policy", opts.cfg.Night.GapPolicy, "night boundary gaps: interpolate, sky or strict")
	flags.StringVar(&opts.cfg.Night.PaletteMethod, "palette", opts.cfg.Night.PaletteMethod, "night classifier palette: dominantcolor or kmeans")
	flags.BoolVar(&opts.cfg.Preview, "preview", false, "open a preview window after the batch")
	flags.StringVar(&opts.cfg.Log.Level, "log-level", opts.cfg.Log.Level, "debug, info, warn or error")
	flags.BoolVar(&opts.cfg.Log.JSON, "log-json", false, "log JSON lines instead of console output")

	cmd.AddCommand(newHistoryCommand(opts))
	return cmd
}

// resolveConfig applies file and environment settings, then flags the user set explicitly.
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	override := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	override("data", func() { cfg.DataDir = opts.cfg.DataDir })
	override("ground-truth", func() { cfg.GroundTruthDir = opts.cfg.GroundTruthDir })
	override("output", func() { cfg.OutputDir = opts.cfg.OutputDir })
	override("report", func() { cfg.ReportPath = opts.cfg.ReportPath })
	override("results-db", func() { cfg.ResultsDB = opts.cfg.ResultsDB })
	override("success-threshold", func() { cfg.SuccessThreshold = opts.cfg.SuccessThreshold })
	override("gap-policy", func() { cfg.Night.GapPolicy = opts.cfg.Night.GapPolicy })
	override("palette", func() { cfg.Night.PaletteMethod = opts.cfg.Night.PaletteMethod })
	override("preview", func() { cfg.Preview = opts.cfg.Preview })
	override("log-level", func() { cfg.Log.Level = opts.cfg.Log.Level })
	override("log-json", func() { cfg.Log.JSON = opts.cfg.Log.JSON })

	return cfg, cfg.Validate()
}

func run(parent context.Context, cfg config.Config) error {
	appLogger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	appLogger.Info("Main", "skyline detection starting", map[string]interface{}{
		"version":      AppVersion,
		"go_version":   runtime.Version(),
		"data_dir":     cfg.DataDir,
		"ground_truth": cfg.GroundTruthDir,
		"output_dir":   cfg.OutputDir,
		"gap_policy":   cfg.Night.GapPolicy,
		"palette":      cfg.Night.PaletteMethod,
	})

	shutdownMgr := shutdown.NewManager(parent, appLogger)
	shutdownMgr.Listen()
	defer shutdownMgr.Shutdown()

	var runs *sqlite.RunRepository
	if cfg.ResultsDB != "" {
		db, err := sqlite.New(cfg.ResultsDB)
		if err != nil {
			return err
		}
		shutdownMgr.Register("results-db", db)
		runs = sqlite.NewRunRepository(db)
	}

	coordinator, tracker, collector, err := buildCoordinator(cfg, appLogger)
	if err != nil {
		return err
	}

	report, runErr := coordinator.Run(shutdownMgr.Context())
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	logSummary(appLogger, report, tracker)

	if cfg.ReportPath != "" {
		if err := writeReport(cfg.ReportPath, report); err != nil {
			return err
		}
		appLogger.Info("Main", "report written", map[string]interface{}{"path": cfg.ReportPath})
	}

	if runs != nil {
		id, err := runs.SaveRun(report)
		if err != nil {
			return err
		}
		appLogger.Info("Main", "run recorded", map[string]interface{}{"run_id": id, "db": cfg.ResultsDB})
	}

	if collector != nil && runErr == nil {
		if dropped := collector.Dropped(); dropped > 0 {
			appLogger.Warning("Main", "preview truncated", map[string]interface{}{"dropped": dropped})
		}
		gui.NewViewer(collector.Frames(), appLogger).Run()
	}

	return runErr
}

func buildCoordinator(cfg config.Config, log logger.Logger) (*pipeline.Coordinator, *timing.Tracker, *gui.FrameCollector, error) {
	gapPolicy, err := skyline.ParseGapPolicy(cfg.Night.GapPolicy)
	if err != nil {
		return nil, nil, nil, err
	}
	params := skyline.DefaultNightParams()
	params.GapPolicy = gapPolicy

	night, err := skyline.NewNightReconstructor(params)
	if err != nil {
		return nil, nil, nil, err
	}

	method, err := detect.ParsePaletteMethod(cfg.Night.PaletteMethod)
	if err != nil {
		return nil, nil, nil, err
	}
	classifier := detect.NewPaletteNightClassifier(method)
	classifier.PaletteSize = cfg.Night.PaletteSize
	classifier.MaxLightness = cfg.Night.MaxLightness
	classifier.MaxMeanIntensity = cfg.Night.MaxMeanIntensity

	tracker := timing.NewTracker()

	var collector *gui.FrameCollector
	var observer pipeline.Observer
	if cfg.Preview {
		collector = gui.NewFrameCollector(previewFrameLimit)
		observer = collector
	}

	coordinator, err := pipeline.NewCoordinator(
		pipeline.Options{
			DataDir:          cfg.DataDir,
			SuccessThreshold: cfg.SuccessThreshold,
		},
		pipeline.Dependencies{
			Classifier:  classifier,
			Night:       night,
			Day:         detect.NewGradientSkyDetector(),
			DayPost:     skyline.NewDayPostProcessor(),
			Loader:      pipeline.FileLoader{},
			GroundTruth: pipeline.DirGroundTruth{Dir: cfg.GroundTruthDir, Threshold: uint8(cfg.GroundTruthThreshold)},
			Saver:       pipeline.DirSaver{Root: cfg.OutputDir},
			Logger:      log,
			Timing:      tracker,
			Observer:    observer,
		},
	)
	if err != nil {
		return nil, nil, nil, err
	}
	return coordinator, tracker, collector, nil
}

func newLogger(cfg config.LogConfig) (logger.Logger, func(), error) {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var file io.Writer
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		closeFn = func() { f.Close() }
	}

	return logger.NewMultiLogger(level, cfg.JSON, file), closeFn, nil
}

func logSummary(log logger.Logger, report pipeline.Report, tracker *timing.Tracker) {
	for _, stats := range tracker.Summary() {
		log.Debug("Main", "timing", map[string]interface{}{
			"operation": stats.Operation,
			"count":     stats.Count,
			"mean_ms":   float64(stats.Mean) / float64(time.Millisecond),
			"max_ms":    float64(stats.Max) / float64(time.Millisecond),
		})
	}

	log.Info("Main", "batch finished", map[string]interface{}{
		"success_rates": report.SuccessRates(),
		"images":        report.TotalImages(),
		"successes":     report.TotalSuccesses(),
		"cancelled":     report.Cancelled,
		"elapsed":       report.FinishedAt.Sub(report.StartedAt).String(),
	})
}

func writeReport(path string, report pipeline.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
