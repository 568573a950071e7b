package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"vellum/internal/config"
	"vellum/internal/jobs"
	"vellum/internal/logging"
	"vellum/internal/preflight"
	"vellum/internal/store"
)

// lockFileName is created under the log directory to enforce a single
// daemon instance per host.
const lockFileName = "vellumd.lock"

// Daemon owns the background job manager and the inbox watcher.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	manager *jobs.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a daemon instance. All dependencies are required.
func New(cfg *config.Config, st *store.Store, manager *jobs.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if manager == nil {
		return nil, errors.New("job manager is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, lockFileName)
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    st,
		manager:  manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, verifies the environment, and launches
// the job manager and inbox watcher. It returns immediately; use Stop to
// shut down.
func (d *Daemon) Start(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		d.running.Store(false)
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		d.running.Store(false)
		return fmt.Errorf("another vellum daemon instance is already running (lock: %s)", d.lockPath)
	}

	if err := d.runPreflight(ctx); err != nil {
		d.releaseLock()
		d.running.Store(false)
		return err
	}

	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.manager.Start()

	d.wg.Add(1)
	go d.inboxLoop()

	d.logger.Info("daemon started",
		logging.String("workspace", d.cfg.Paths.WorkspaceDir),
		logging.String("inbox", d.cfg.Paths.InboxDir),
		logging.Int("max_concurrent", d.cfg.Jobs.MaxConcurrent),
	)
	return nil
}

// Stop shuts down the inbox watcher and job manager and releases the
// instance lock. Safe to call more than once.
func (d *Daemon) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	d.cancel()
	d.wg.Wait()
	d.manager.Stop()
	d.releaseLock()
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the durable store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Running reports whether Start has succeeded and Stop has not yet run.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Manager exposes the job manager for API handlers.
func (d *Daemon) Manager() *jobs.Manager {
	return d.manager
}

func (d *Daemon) runPreflight(ctx context.Context) error {
	results := preflight.RunAll(ctx, d.cfg)
	var failures []string
	for _, result := range results {
		if result.Passed {
			continue
		}
		failures = append(failures, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		d.logger.Error("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}
	if len(failures) > 0 {
		return fmt.Errorf("preflight failed: %s", strings.Join(failures, "; "))
	}
	return nil
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release instance lock", logging.Error(err))
	}
}
