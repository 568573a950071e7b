package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vellum/internal/broadcast"
	"vellum/internal/config"
	"vellum/internal/logging"
	"vellum/internal/notifications"
	"vellum/internal/pipeline"
	"vellum/internal/store"
)

var (
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrJobActive rejects deleting a job that has not reached a terminal
	// state.
	ErrJobActive = errors.New("job still active")
	// ErrShuttingDown rejects submissions after Stop.
	ErrShuttingDown = errors.New("manager shutting down")
)

// Runner abstracts the conversion pipeline for testing.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request, cb pipeline.Callbacks) (pipeline.Result, error)
}

// Manager coordinates the lifecycle of all conversion jobs.
type Manager struct {
	cfg         *config.Config
	store       *store.Store
	broadcaster *broadcast.Broadcaster
	notifier    notifications.Service
	runner      Runner
	logger      *slog.Logger

	slots   chan struct{}
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.RWMutex
	jobs    map[uuid.UUID]*Job
	closing bool
}

// New constructs a job manager. Start must be called before the timeout and
// cleanup scans run; jobs submitted earlier still execute.
func New(
	cfg *config.Config,
	st *store.Store,
	broadcaster *broadcast.Broadcaster,
	notifier notifications.Service,
	runner Runner,
	logger *slog.Logger,
) *Manager {
	concurrency := cfg.Jobs.MaxConcurrent
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:         cfg,
		store:       st,
		broadcaster: broadcaster,
		notifier:    notifier,
		runner:      runner,
		logger:      logging.WithComponent(logger, "jobs"),
		slots:       make(chan struct{}, concurrency),
		baseCtx:     ctx,
		cancel:      cancel,
		jobs:        make(map[uuid.UUID]*Job),
	}
}

// Start launches the timeout and cleanup scan loops.
func (m *Manager) Start() {
	m.wg.Add(2)
	go m.timeoutLoop()
	go m.cleanupLoop()
}

// Stop requests cancellation of every active job and waits for all job
// goroutines and scan loops to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.closing = true
	active := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		active = append(active, job)
	}
	m.mu.Unlock()

	for _, job := range active {
		if !job.Status().Terminal() {
			job.requestCancel()
		}
	}
	m.cancel()
	m.wg.Wait()
}

// Create admits a new conversion job and schedules it. The call never blocks
// on a slot; the returned snapshot is in the queued state.
func (m *Manager) Create(ctx context.Context, inputPath string, jobCfg ConversionConfig) (Snapshot, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return Snapshot{}, fmt.Errorf("input document: %w", err)
	}
	m.applyDefaults(&jobCfg)

	id := uuid.New()
	workspace := filepath.Join(m.cfg.Paths.WorkspaceDir, id.String())
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("create workspace: %w", err)
	}
	outputPath := filepath.Join(m.cfg.Paths.OutputDir, outputName(inputPath))

	job := newJob(id, inputPath, outputPath, workspace, jobCfg)

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		_ = os.RemoveAll(workspace)
		return Snapshot{}, ErrShuttingDown
	}
	m.jobs[id] = job
	m.mu.Unlock()

	m.persistJob(job)
	m.broadcaster.Status(id.String(), string(StatusQueued))
	m.logger.Info("job admitted",
		logging.String(logging.FieldJobID, id.String()),
		logging.String("input", inputPath),
	)

	m.wg.Add(1)
	go m.run(job)

	return job.Snapshot(), nil
}

// Get returns a snapshot of one job.
func (m *Manager) Get(id string) (Snapshot, error) {
	job, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return job.Snapshot(), nil
}

// Cancel requests cooperative cancellation. Queued jobs settle as cancelled
// without ever running; processing jobs are interrupted at the next progress
// boundary. Cancelling a terminal job is a no-op.
func (m *Manager) Cancel(id string) error {
	job, err := m.lookup(id)
	if err != nil {
		return err
	}
	if job.Status().Terminal() {
		return nil
	}
	job.requestCancel()
	m.logger.Info("cancellation requested", logging.String(logging.FieldJobID, id))
	return nil
}

// Delete removes a terminal job: workspace, registry entry, observers, and
// the durable record.
func (m *Manager) Delete(ctx context.Context, id string) error {
	job, err := m.lookup(id)
	if err != nil {
		return err
	}
	if !job.Status().Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrJobActive, id, job.Status())
	}

	m.releaseWorkspace(job, "delete")
	if err := m.store.DeleteJob(ctx, id); err != nil {
		return fmt.Errorf("delete stored job: %w", err)
	}
	return nil
}

// RegisterObserver attaches a sink to a job's broadcast channel.
func (m *Manager) RegisterObserver(id string, sink broadcast.Sink) (int64, error) {
	if _, err := m.lookup(id); err != nil {
		return 0, err
	}
	return m.broadcaster.Register(id, sink), nil
}

// UnregisterObserver detaches a previously registered sink.
func (m *Manager) UnregisterObserver(id string, token int64) {
	m.broadcaster.Unregister(id, token)
}

// List returns snapshots of all registered jobs, newest first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	snapshots := make([]Snapshot, 0, len(m.jobs))
	for _, job := range m.jobs {
		snapshots = append(snapshots, job.Snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots
}

// Stats counts registered jobs per status.
func (m *Manager) Stats() map[Status]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[Status]int)
	for _, job := range m.jobs {
		stats[job.Status()]++
	}
	return stats
}

func (m *Manager) lookup(id string) (*Job, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[parsed]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return job, nil
}

func (m *Manager) applyDefaults(jobCfg *ConversionConfig) {
	if strings.TrimSpace(jobCfg.OCRLanguage) == "" {
		jobCfg.OCRLanguage = m.cfg.Conversion.DefaultOCRLanguage
	}
	if strings.TrimSpace(jobCfg.CompressionProfile) == "" {
		jobCfg.CompressionProfile = m.cfg.Conversion.DefaultCompression
	}
}

func outputName(inputPath string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "document"
	}
	return stem + ".pdf"
}

func (m *Manager) timeoutLimit() time.Duration {
	return time.Duration(m.cfg.Jobs.TimeoutSeconds) * time.Second
}

func (m *Manager) cleanupTTL() time.Duration {
	return time.Duration(m.cfg.Jobs.CleanupTTLSeconds) * time.Second
}
