package serve

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/KRR-Oxford/docnav/internal/config"
	"github.com/KRR-Oxford/docnav/internal/eventstore"
	"github.com/KRR-Oxford/docnav/internal/metrics"
	"github.com/KRR-Oxford/docnav/internal/navcheck"
	"github.com/KRR-Oxford/docnav/internal/pipeline"
)

// Daemon wires the watcher, scheduler, event store, and HTTP server into a
// long-running preview service.
type Daemon struct {
	cfg        *config.Config
	runner     *pipeline.Runner
	store      *eventstore.SQLiteStore
	projection *eventstore.RunHistoryProjection
	registry   *prom.Registry
	verifier   *navcheck.Verifier
}

// NewDaemon assembles a daemon from configuration.
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.EventDB), 0o755); err != nil {
		return nil, err
	}
	store, err := eventstore.NewSQLiteStore(cfg.Storage.EventDB)
	if err != nil {
		return nil, err
	}
	projection := eventstore.NewRunHistoryProjection(store, 100)

	d := &Daemon{
		cfg:        cfg,
		store:      store,
		projection: projection,
	}

	opts := []pipeline.Option{
		pipeline.WithStore(store),
		pipeline.WithProjection(projection),
	}

	if cfg.Serve.Metrics {
		d.registry = prom.NewRegistry()
		opts = append(opts, pipeline.WithRecorder(metrics.NewPrometheusRecorder(d.registry)))
	}

	if cfg.Verification.Enabled {
		verifier, err := navcheck.NewVerifier(&cfg.Verification)
		if err != nil {
			store.Close()
			return nil, err
		}
		d.verifier = verifier
		opts = append(opts, pipeline.WithVerifier(verifier))
	}

	d.runner = pipeline.NewRunner(cfg, opts...)
	return d, nil
}

// Run starts the daemon and blocks until the context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.close()

	if err := d.projection.Rebuild(ctx); err != nil {
		slog.Warn("Failed to rebuild run history", "error", err)
	}

	// Initial build so the server has something to serve.
	if _, _, err := d.runner.Rebuild(ctx, "startup"); err != nil {
		return err
	}

	watcher, err := NewDocsWatcher(
		d.cfg.Docs.Dir,
		d.cfg.Docs.NavFile,
		config.Duration(d.cfg.Serve.Debounce, 500*time.Millisecond),
		func(ctx context.Context) {
			if _, _, err := d.runner.Rebuild(ctx, "watch"); err != nil {
				slog.Error("Rebuild failed", "trigger", "watch", "error", err)
			}
		},
	)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	scheduler, err := NewScheduler()
	if err != nil {
		return err
	}
	interval := config.Duration(d.cfg.Serve.ScheduleInterval, time.Hour)
	if interval > 0 {
		if _, err := scheduler.SchedulePeriodicCheck(interval, func() {
			if _, err := d.runner.Check(ctx, "schedule"); err != nil {
				slog.Error("Scheduled check failed", "error", err)
			}
		}); err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				slog.Error("Scheduler shutdown failed", "error", err)
			}
		}()
	}

	server := NewServer(d.cfg.Serve, d.cfg.Site.Output, d.projection, d.registry)
	return server.Start(ctx)
}

func (d *Daemon) close() {
	if d.verifier != nil {
		if err := d.verifier.Close(); err != nil {
			slog.Error("Verifier shutdown failed", "error", err)
		}
	}
	if err := d.store.Close(); err != nil {
		slog.Error("Event store shutdown failed", "error", err)
	}
}
