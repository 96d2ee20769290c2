// Package env holds the state shared by imagecurator subcommands: loaded
// settings, the central logger and the metrics registry.
package env

import (
	"context"
	"fmt"

	"github.com/tphakala/imagecurator/internal/conf"
	"github.com/tphakala/imagecurator/internal/curator"
	"github.com/tphakala/imagecurator/internal/logger"
	"github.com/tphakala/imagecurator/internal/observability"
)

// Env is populated by the root command before any subcommand runs.
type Env struct {
	ConfigPath  string
	MetricsFile string
	Debug       bool

	Settings *conf.Settings
	Logger   *logger.CentralLogger
	Metrics  *observability.Metrics

	finished bool
}

// Initialize loads settings and sets up logging and metrics.
func (e *Env) Initialize() error {
	settings, err := conf.Load(e.ConfigPath)
	if err != nil {
		return err
	}
	if e.Debug {
		settings.Debug = true
	}
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		_ = central.Close()
		return err
	}

	e.Settings = settings
	e.Logger = central
	e.Metrics = metrics
	return nil
}

// Curator opens the catalog described by the loaded settings.
func (e *Env) Curator(ctx context.Context) (*curator.Curator, error) {
	if e.Settings == nil {
		return nil, fmt.Errorf("settings are not loaded")
	}
	return curator.Open(ctx, e.Settings,
		curator.WithLogger(e.Logger.Module("imagecurator")),
		curator.WithMetrics(e.Metrics.Datastore))
}

// Finish writes the metrics textfile when requested and flushes the logs.
// Calls after the first are no-ops.
func (e *Env) Finish() error {
	if e.finished {
		return nil
	}
	e.finished = true

	var err error
	if e.MetricsFile != "" && e.Metrics != nil {
		err = e.Metrics.WriteTextfile(e.MetricsFile)
	}
	if e.Logger != nil {
		if closeErr := e.Logger.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
