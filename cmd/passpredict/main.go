// Command passpredict predicts satellite passes and ground tracks from a
// two-line element catalog.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/star/passpredict/internal/metrics"
	"github.com/star/passpredict/internal/predictor"
	"github.com/star/passpredict/internal/tracing"
)

// app carries the state shared by the subcommands once the configuration
// is resolved.
type app struct {
	settings  settings
	logger    *slog.Logger
	metrics   *metrics.Metrics
	predictor *predictor.Predictor
	shutdown  func(context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		configPath string
		f          flagValues
	)

	root := &cobra.Command{
		Use:           "passpredict",
		Short:         "Predict satellite passes and positions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, configPath, f)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "TOML configuration file")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&f.catalog, "catalog", "", "TLE catalog file, - for stdin")
	pf.StringVar(&f.format, "format", "", "output format (table, json)")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.BoolVar(&f.trace, "trace", false, "print OpenTelemetry spans to stderr")
	pf.IntVar(&f.workers, "workers", 0, "propagation worker pool size")

	root.AddCommand(newPassesCmd(a), newPositionsCmd(a))
	return root
}

// flagValues holds raw flag values; only flags set on the command line
// override the lower configuration layers.
type flagValues struct {
	logLevel    string
	catalog     string
	format      string
	metricsFile string
	trace       bool
	workers     int
}

func (f flagValues) apply(cmd *cobra.Command, s *settings) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		s.LogLevel = f.logLevel
	}
	if flags.Changed("catalog") {
		s.Catalog = f.catalog
	}
	if flags.Changed("format") {
		s.Format = f.format
	}
	if flags.Changed("metrics-file") {
		s.MetricsFile = f.metricsFile
	}
	if flags.Changed("trace") {
		s.Trace = f.trace
	}
	if flags.Changed("workers") {
		s.Workers = f.workers
	}
}

func (a *app) setup(cmd *cobra.Command, configPath string, f flagValues) error {
	// Configuration problems before the level is known are reported at info.
	boot := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	s := defaultSettings()
	if configPath != "" {
		if err := loadFile(configPath, &s); err != nil {
			return err
		}
	}
	applyEnv(boot, &s, os.Getenv)
	f.apply(cmd, &s)

	level, err := s.logLevel()
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	a.settings = s

	cfg, err := s.predictorConfig()
	if err != nil {
		return err
	}

	if s.MetricsFile != "" {
		if a.metrics, err = metrics.New(prometheus.NewRegistry()); err != nil {
			return err
		}
	}

	tcfg := tracing.DefaultConfig()
	tcfg.Enabled = s.Trace
	tcfg.SampleRatio = s.TraceRatio
	if a.shutdown, err = tracing.Init(cmd.Context(), tcfg, a.logger); err != nil {
		return err
	}

	a.predictor = predictor.New(cfg, a.logger, a.metrics)
	a.logger.Debug("configuration resolved",
		"config_file", configPath,
		"catalog", s.Catalog,
		"workers", s.Workers,
		"timespan_days", cfg.TimespanDays,
		"visible_only", cfg.VisibleOnly,
	)
	return nil
}

func (a *app) finish(ctx context.Context) error {
	tracing.ShutdownWithTimeout(context.WithoutCancel(ctx), a.shutdown, a.logger)
	if a.metrics == nil {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.settings.MetricsFile); err != nil {
		return err
	}
	a.logger.Info("metrics written", "path", a.settings.MetricsFile)
	return nil
}
