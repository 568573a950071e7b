package jobs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"vellum/internal/logging"
	"vellum/internal/pipeline"
)

// timeoutLoop periodically fails processing jobs that exceeded the runtime
// limit. The scan emits job_timeout and requests cancellation; the job's own
// runner goroutine performs the failed transition so slot accounting stays in
// one place.
func (m *Manager) timeoutLoop() {
	defer m.wg.Done()
	interval := time.Duration(m.cfg.Jobs.TimeoutScanSeconds) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.baseCtx.Done():
			return
		case <-ticker.C:
			m.scanTimeouts()
		}
	}
}

func (m *Manager) scanTimeouts() {
	limit := m.timeoutLimit()
	if limit <= 0 {
		return
	}

	m.mu.RLock()
	candidates := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		candidates = append(candidates, job)
	}
	m.mu.RUnlock()

	now := time.Now().UTC()
	for _, job := range candidates {
		snap := job.Snapshot()
		if snap.Status != StatusProcessing || snap.StartedAt.IsZero() {
			continue
		}
		runtime := now.Sub(snap.StartedAt)
		if runtime <= limit || job.timedOut.Load() {
			continue
		}

		job.timedOut.Store(true)
		id := job.ID.String()
		event := pipeline.NewEvent(
			pipeline.EventJobTimeout,
			fmt.Sprintf("job exceeded %s runtime limit", limit),
			pipeline.JobTimeoutDetails{
				RuntimeSeconds: runtime.Seconds(),
				LimitSeconds:   limit.Seconds(),
			},
		)
		m.broadcaster.Event(id, event)
		m.appendEvent(id, event)
		m.logger.Warn("job timed out",
			logging.String(logging.FieldJobID, id),
			logging.Duration("runtime", runtime),
			logging.Duration("limit", limit),
		)
		job.requestCancel()
	}
}

// cleanupLoop reclaims workspaces of terminal jobs older than the TTL and
// deregisters them from the in-memory registry. Durable store rows survive;
// the CLI still reports history after cleanup.
func (m *Manager) cleanupLoop() {
	defer m.wg.Done()
	interval := time.Duration(m.cfg.Jobs.CleanupScanSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.baseCtx.Done():
			return
		case <-ticker.C:
			m.scanCleanup()
		}
	}
}

func (m *Manager) scanCleanup() {
	ttl := m.cleanupTTL()
	if ttl <= 0 {
		return
	}

	m.mu.RLock()
	candidates := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		candidates = append(candidates, job)
	}
	m.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-ttl)
	for _, job := range candidates {
		snap := job.Snapshot()
		if !snap.Status.Terminal() || snap.CompletedAt.IsZero() || snap.CompletedAt.After(cutoff) {
			continue
		}
		m.releaseWorkspace(job, "ttl")
	}
}

// releaseWorkspace removes a job's workspace directory, emits job_cleanup,
// closes the job's observers, and drops it from the registry.
func (m *Manager) releaseWorkspace(job *Job, trigger string) {
	id := job.ID.String()
	reclaimed := directorySize(job.WorkspaceDir)
	if err := os.RemoveAll(job.WorkspaceDir); err != nil {
		m.logger.Warn("workspace removal failed",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
		)
	}

	event := pipeline.NewEvent(
		pipeline.EventJobCleanup,
		fmt.Sprintf("workspace reclaimed (%d bytes)", reclaimed),
		pipeline.JobCleanupDetails{Trigger: trigger, ReclaimedBytes: reclaimed},
	)
	m.appendEvent(id, event)
	m.broadcaster.Event(id, event)
	m.broadcaster.CloseJob(id)

	m.mu.Lock()
	delete(m.jobs, job.ID)
	m.mu.Unlock()

	m.logger.Info("job cleaned up",
		logging.String(logging.FieldJobID, id),
		logging.String("trigger", trigger),
		logging.Int64("reclaimed_bytes", reclaimed),
	)
}

func directorySize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
