package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fieldbook/internal/config"
	"fieldbook/internal/core"
	"fieldbook/internal/kv"
	"fieldbook/internal/logging"
	"fieldbook/internal/remote"
	"fieldbook/pkg/domain"
)

// app carries state shared by every command after the persistent pre-run.
type app struct {
	configPath string
	verbose    bool

	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry

	// finishers run after a successful command: metric flushes, then closes.
	finishers []func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fieldbook",
		Short: "Field-service record keeping for customers, projects and onsite work",
		Long: `fieldbook keeps customers, their sites, contacts and projects, and the
work orders, tasks and onsite reports recorded against each project.

Records are stored locally through the configured key-value driver, or in a
remote table backend when remote.base_url is set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.finish()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: fieldbook.yaml in . or the user config dir)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newCustomersCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newMigrateCmd(a),
		newServeTablesCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logCfg := cfg.Logging()
	if a.verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return nil
}

func (a *app) finish() error {
	var errs []error
	for _, f := range a.finishers {
		errs = append(errs, f())
	}
	a.finishers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

// observability builds the metrics and tracing options named by the metrics
// config and queues their flushes.
func (a *app) observability() ([]core.ServiceOption, error) {
	var opts []core.ServiceOption
	m := a.cfg.Metrics
	switch m.Exporter {
	case config.ExporterPrometheus:
		rec, err := core.NewPrometheusMetricsRecorder(a.registry, m.Namespace)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithMetricsRecorder(rec))
		if m.Textfile != "" {
			a.finishers = append(a.finishers, func() error {
				if err := prometheus.WriteToTextfile(m.Textfile, a.registry); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
				return nil
			})
		}
	case config.ExporterExpvar:
		rec := core.NewExpvarMetricsRecorder("")
		opts = append(opts, core.WithMetricsRecorder(rec))
		a.finishers = append(a.finishers, func() error {
			snap := rec.Snapshot()
			a.logger.Debug("service metrics", zap.String("expvar", rec.Name()),
				zap.Any("results", snap.Results), zap.Any("durations_ms", snap.DurationsMS))
			if m.Textfile == "" {
				return nil
			}
			raw, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(m.Textfile, raw, 0o600); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		})
	}
	if m.TraceFile != "" {
		f, err := os.OpenFile(m.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		opts = append(opts, core.WithTracer(core.NewJSONTracer(f)))
		a.finishers = append(a.finishers, f.Close)
	}
	return opts, nil
}

// openService opens the local store named by the storage config.
func (a *app) openService(ctx context.Context) (*core.Service, error) {
	store, err := kv.Open(ctx, a.cfg.KV())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Storage.Driver, err)
	}
	obs, err := a.observability()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	logger := logging.FromZap(a.logger)
	opts := append([]core.ServiceOption{
		core.WithLogger(logger),
		core.WithAuditRecorder(core.LogAuditRecorder{Logger: logger}),
	}, obs...)
	svc, err := core.Open(ctx, store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if svc.Degraded() {
		a.logger.Warn("configured store is unavailable; changes will not outlive this command",
			zap.String("driver", a.cfg.Storage.Driver))
	}
	return svc, nil
}

// openRecords returns the remote client when a base URL is configured and the
// local service otherwise. The returned close func is never nil.
func (a *app) openRecords(ctx context.Context) (domain.Records, func() error, error) {
	if a.cfg.UsesRemote() {
		client, err := remote.New(remote.Config{
			BaseURL: a.cfg.Remote.BaseURL,
			APIKey:  a.cfg.Remote.APIKey,
			Timeout: a.cfg.Remote.Timeout,
		}, remote.WithLogger(logging.FromZap(a.logger)))
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	}
	svc, err := a.openService(ctx)
	if err != nil {
		return nil, nil, err
	}
	return svc, svc.Close, nil
}
