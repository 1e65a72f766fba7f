package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/naoina/toml"

	"github.com/star/passpredict/internal/magnitude"
	"github.com/star/passpredict/internal/predictor"
)

// settings is the layered CLI configuration: defaults, then the TOML file,
// then PASSPREDICT_* variables, then flags.
type settings struct {
	LogLevel    string
	Catalog     string
	Format      string
	MetricsFile string
	Trace       bool
	TraceRatio  float64
	Workers     int
	Concurrency int

	Observer   predictor.Location
	Passes     passSettings
	Positions  positionSettings
	Magnitudes map[string]float64
}

type passSettings struct {
	TimespanDays      float64
	MaxTimespanDays   float64
	VisibleOnly       bool
	ExtendedDetails   bool
	MinElevation      float64
	MinPeakElevation  float64
	SunElevationMax   float64
	CoarseStepSeconds int
	MaxScanSteps      int
	DefaultMagnitude  float64
}

type positionSettings struct {
	Minutes           int
	MaxMinutes        int
	ResolutionSeconds int
}

func defaultSettings() settings {
	d := predictor.DefaultConfig()
	return settings{
		LogLevel:    "info",
		Catalog:     "-",
		Format:      "table",
		TraceRatio:  1,
		Workers:     d.Propagation.Workers,
		Concurrency: d.Propagation.Workers,
		Passes: passSettings{
			TimespanDays:      d.TimespanDays,
			MaxTimespanDays:   d.MaxTimespanDays,
			VisibleOnly:       d.VisibleOnly,
			ExtendedDetails:   d.ExtendedDetails,
			MinElevation:      d.Passes.MinElevationDeg,
			MinPeakElevation:  d.Passes.MinPeakElevationDeg,
			SunElevationMax:   d.Passes.SunElevationMaxDeg,
			CoarseStepSeconds: int(d.Passes.CoarseStep / time.Second),
			MaxScanSteps:      d.Passes.MaxScanSteps,
			DefaultMagnitude:  magnitude.DefaultStandard,
		},
		Positions: positionSettings{
			Minutes:           d.PositionMinutes,
			MaxMinutes:        d.MaxPositionMinutes,
			ResolutionSeconds: int(d.Resolution / time.Second),
		},
	}
}

// loadFile overlays the TOML file at path onto s.
func loadFile(path string, s *settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays PASSPREDICT_* variables onto s. Malformed values are
// logged and ignored.
func applyEnv(logger *slog.Logger, s *settings, getenv func(string) string) {
	if v := getenv("PASSPREDICT_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := getenv("PASSPREDICT_CATALOG"); v != "" {
		s.Catalog = v
	}
	if v := getenv("PASSPREDICT_FORMAT"); v != "" {
		s.Format = v
	}
	if v := getenv("PASSPREDICT_METRICS_FILE"); v != "" {
		s.MetricsFile = v
	}

	if v := getenv("PASSPREDICT_TRACE"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid PASSPREDICT_TRACE value, using default", "value", v, "default", s.Trace)
		} else {
			s.Trace = enabled
		}
	}

	if v := getenv("PASSPREDICT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid PASSPREDICT_WORKERS value, using default", "value", v, "default", s.Workers)
		} else {
			s.Workers = n
		}
	}

	if v := getenv("PASSPREDICT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid PASSPREDICT_CONCURRENCY value, using default", "value", v, "default", s.Concurrency)
		} else {
			s.Concurrency = n
		}
	}

	envFloat(logger, getenv, "PASSPREDICT_LAT", &s.Observer.Lat)
	envFloat(logger, getenv, "PASSPREDICT_LNG", &s.Observer.Lng)
	envFloat(logger, getenv, "PASSPREDICT_ALT", &s.Observer.Alt)
	envFloat(logger, getenv, "PASSPREDICT_TIMESPAN_DAYS", &s.Passes.TimespanDays)
	envFloat(logger, getenv, "PASSPREDICT_MIN_ELEVATION", &s.Passes.MinElevation)

	if v := getenv("PASSPREDICT_VISIBLE_ONLY"); v != "" {
		visible, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid PASSPREDICT_VISIBLE_ONLY value, using default", "value", v, "default", s.Passes.VisibleOnly)
		} else {
			s.Passes.VisibleOnly = visible
		}
	}

	if v := getenv("PASSPREDICT_POSITION_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warn("invalid PASSPREDICT_POSITION_MINUTES value, using default", "value", v, "default", s.Positions.Minutes)
		} else {
			s.Positions.Minutes = n
		}
	}
}

func envFloat(logger *slog.Logger, getenv func(string) string, key string, dst *float64) {
	v := getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", *dst)
		return
	}
	*dst = f
}

// predictorConfig builds the facade configuration from s.
func (s settings) predictorConfig() (predictor.Config, error) {
	cfg := predictor.DefaultConfig()
	cfg.TimespanDays = s.Passes.TimespanDays
	cfg.MaxTimespanDays = s.Passes.MaxTimespanDays
	cfg.VisibleOnly = s.Passes.VisibleOnly
	cfg.ExtendedDetails = s.Passes.ExtendedDetails
	cfg.PositionMinutes = s.Positions.Minutes
	cfg.MaxPositionMinutes = s.Positions.MaxMinutes
	cfg.Resolution = time.Duration(s.Positions.ResolutionSeconds) * time.Second
	cfg.Propagation.Workers = s.Workers

	cfg.Passes.MinElevationDeg = s.Passes.MinElevation
	cfg.Passes.MinPeakElevationDeg = s.Passes.MinPeakElevation
	cfg.Passes.SunElevationMaxDeg = s.Passes.SunElevationMax
	cfg.Passes.CoarseStep = time.Duration(s.Passes.CoarseStepSeconds) * time.Second
	cfg.Passes.MaxScanSteps = s.Passes.MaxScanSteps

	entries := make(map[int]float64, len(s.Magnitudes))
	for key, m := range s.Magnitudes {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || id < 1 {
			return predictor.Config{}, fmt.Errorf("magnitudes: bad catalog number %q", key)
		}
		entries[id] = m
	}
	cfg.Passes.Magnitudes = magnitude.NewTable(s.Passes.DefaultMagnitude, entries)
	return cfg, nil
}

// logLevel parses s.LogLevel.
func (s settings) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s.LogLevel, err)
	}
	return level, nil
}
