// Package daemon assembles the capture pipeline and serves its sockets.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/glance/internal/adapters/driven/config/file"
	"github.com/custodia-labs/glance/internal/adapters/driven/helper"
	"github.com/custodia-labs/glance/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/glance/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/glance/internal/adapters/driving/ipc"
	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/core/services"
	"github.com/custodia-labs/glance/internal/logger"
	"github.com/custodia-labs/glance/internal/normalisers"
	"github.com/custodia-labs/glance/internal/postprocessors"
)

// DrainTimeout bounds the final retry-queue flush on shutdown.
const DrainTimeout = 5 * time.Second

// Options tune how the daemon is assembled.
type Options struct {
	// Memory keeps content in memory instead of SQLite.
	Memory bool

	// Config enables hot reload of the configuration file when set.
	Config *file.ConfigStore
}

// Daemon owns every long-running component of a capture session.
type Daemon struct {
	store     driven.ContentStore
	engine    *services.IngestionEngine
	queue     *services.IngestQueue
	scheduler *services.Scheduler
	bulk      *ipc.BulkServer
	admin     *ipc.AdminServer
	watcher   *file.Watcher
}

// New builds the pipeline from cfg. Nothing runs until Run is called.
func New(cfg domain.Config, opts Options) (*Daemon, error) {
	logger.Section("Daemon")

	var store driven.ContentStore
	if opts.Memory {
		store = memory.NewContentStore()
	} else {
		s, err := sqlite.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		store = s
		logger.Info("store opened", "path", s.Path())
	}

	chunker, err := postprocessors.FromSettings(cfg.Ingest)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("building chunker: %w", err)
	}

	privacy := services.NewPrivacyFilter(cfg.Privacy)
	engine := services.NewIngestionEngine(store, normalisers.Default(), chunker, privacy)
	queue := services.NewIngestQueue(engine, cfg.Ingest.RetryMax())

	bindings := helper.New(cfg.Helpers)
	extractors := services.NewExtractorRegistry(cfg.Extractors, cfg.Capture.ExtractorAttempts)
	for _, ex := range bindings.Extractors() {
		extractors.Register(ex)
	}

	windows := services.NewWindowRegistry(extractors)
	var tracker *services.WindowTracker
	if src := bindings.WindowSource(); src != nil {
		tracker = services.NewWindowTracker(src, bindings.ActivationSource(), windows, cfg.Capture.PollInterval())
	} else {
		logger.Warn("no window helper configured, only pushed content will be ingested")
	}

	scheduler := services.NewScheduler(services.SchedulerDeps{
		Windows:    windows,
		Tracker:    tracker,
		Hashes:     services.NewHashTracker(cfg.Capture.Sensitivity),
		Extractors: extractors,
		Privacy:    privacy,
		Policy:     services.NewTimingPolicy(cfg.Capture),
		Sink:       queue,
		Capturer:   bindings.ScreenCapturer(),
		Device:     bindings.DeviceMonitor(),
	}, cfg.Capture.Workers)

	bulkPath, adminPath := ipc.SocketPaths(cfg.Transport)
	d := &Daemon{
		store:     store,
		engine:    engine,
		queue:     queue,
		scheduler: scheduler,
		bulk:      ipc.NewBulkServer(bulkPath, scheduler),
		admin:     ipc.NewAdminServer(adminPath, scheduler),
	}
	if opts.Config != nil {
		d.watcher = file.NewWatcher(opts.Config, file.DefaultSettle)
	}
	return d, nil
}

// Scheduler returns the capture scheduler.
func (d *Daemon) Scheduler() *services.Scheduler {
	return d.scheduler
}

// Store returns the content store.
func (d *Daemon) Store() driven.ContentStore {
	return d.store
}

// BulkPath returns the bulk socket path.
func (d *Daemon) BulkPath() string {
	return d.bulk.Path()
}

// AdminPath returns the admin socket path.
func (d *Daemon) AdminPath() string {
	return d.admin.Path()
}

// Run warms the dedup cache, then runs the scheduler, the retry queue and
// both sockets until ctx is cancelled or one of them fails. Queued
// payloads get one last delivery attempt and the store is closed before
// Run returns.
func (d *Daemon) Run(ctx context.Context) error {
	defer func() {
		if err := d.store.Close(); err != nil {
			logger.Error("closing store", "error", err)
		}
	}()

	if err := d.engine.Warm(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.queue.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return d.scheduler.Start(gctx)
	})
	g.Go(func() error {
		return d.bulk.Serve(gctx)
	})
	g.Go(func() error {
		return d.admin.Serve(gctx)
	})
	if d.watcher != nil {
		g.Go(func() error {
			return d.watcher.Watch(gctx, d.reload)
		})
	}
	logger.Info("daemon running", "bulk", d.bulk.Path(), "admin", d.admin.Path())

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if depth := d.queue.Depth(); depth > 0 {
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DrainTimeout)
		if derr := d.queue.Drain(drainCtx); derr != nil {
			logger.Warn("undelivered payloads dropped at shutdown", "queued", depth, "error", derr)
		}
		cancel()
	}
	logger.Info("daemon stopped")
	return err
}

// reload applies a changed configuration file. Helper commands, storage
// and socket paths are read once at startup.
func (d *Daemon) reload(cfg domain.Config) {
	d.scheduler.Reload(cfg)
}
