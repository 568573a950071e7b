package jobs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"vellum/internal/engine"
	"vellum/internal/logging"
	"vellum/internal/pipeline"
	"vellum/internal/store"
)

// run drives one job from queued to a terminal state. It owns the job's
// context and the slot it occupies while processing.
func (m *Manager) run(job *Job) {
	defer m.wg.Done()

	ctx, cancel := context.WithCancel(m.baseCtx)
	defer cancel()
	job.setCancelFunc(cancel)

	select {
	case m.slots <- struct{}{}:
		defer func() { <-m.slots }()
	case <-ctx.Done():
		m.finalize(job, StatusCancelled, "cancelled before processing started")
		return
	}

	if job.CancelRequested() {
		m.finalize(job, StatusCancelled, "cancelled before processing started")
		return
	}

	if err := job.transition(StatusProcessing); err != nil {
		m.logger.Warn("transition rejected",
			logging.String(logging.FieldJobID, job.ID.String()),
			logging.Error(err),
		)
		return
	}
	m.persistJob(job)
	m.broadcaster.Status(job.ID.String(), string(StatusProcessing))

	result, err := m.runner.Run(ctx, m.pipelineRequest(job), m.callbacks(job))
	switch {
	case err == nil:
		job.setResult(result)
		m.finalize(job, StatusCompleted, "")
	case job.timedOut.Load():
		m.finalize(job, StatusFailed, m.timeoutReason(job))
	case job.CancelRequested(), errors.Is(err, context.Canceled):
		m.finalize(job, StatusCancelled, "cancelled by request")
	default:
		m.finalize(job, StatusFailed, err.Error())
	}
}

func (m *Manager) pipelineRequest(job *Job) pipeline.Request {
	return pipeline.Request{
		JobID:              job.ID.String(),
		InputPath:          job.InputPath,
		OutputPath:         job.OutputPath,
		ComplianceLevel:    job.Config.ComplianceLevel,
		OCREnabled:         job.Config.OCREnabled,
		ForceOCR:           job.Config.ForceOCR,
		SkipOCROnTagged:    job.Config.SkipOCROnTagged,
		OCRLanguage:        job.Config.OCRLanguage,
		CompressionProfile: job.Config.CompressionProfile,
		Cancelled:          job.CancelRequested,
	}
}

// callbacks bridges pipeline telemetry into the broadcaster and the store.
// Store failures are logged, never surfaced; broadcast and persistence are
// independent of each other.
func (m *Manager) callbacks(job *Job) pipeline.Callbacks {
	id := job.ID.String()
	return pipeline.Callbacks{
		OnProgress: func(update engine.Progress) {
			update = clampPercent(update)
			if !job.setProgress(update) {
				return
			}
			m.broadcaster.Progress(id, update)
			m.persistJob(job)
		},
		OnEvent: func(event pipeline.Event) {
			m.broadcaster.Event(id, event)
			m.appendEvent(id, event)
		},
	}
}

// finalize applies the terminal transition and fans out persistence,
// broadcast, and notification. A rejected transition means another path
// (timeout scan, racing cancel) already settled the job.
func (m *Manager) finalize(job *Job, status Status, reason string) {
	if reason != "" {
		job.setError(reason)
	}
	if err := job.transition(status); err != nil {
		m.logger.Debug("terminal transition lost race",
			logging.String(logging.FieldJobID, job.ID.String()),
			logging.Error(err),
		)
		return
	}

	m.persistJob(job)
	m.broadcaster.Status(job.ID.String(), string(status))
	m.logger.Info("job finished",
		logging.String(logging.FieldJobID, job.ID.String()),
		logging.String("status", string(status)),
	)
	m.notify(job, status, reason)
}

func (m *Manager) notify(job *Job, status Status, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	id := job.ID.String()
	inputName := filepath.Base(job.InputPath)
	var err error
	switch {
	case status == StatusCompleted:
		err = m.notifier.NotifyJobCompleted(ctx, id, inputName, job.OutputPath)
	case status == StatusFailed && job.timedOut.Load():
		err = m.notifier.NotifyJobTimedOut(ctx, id, inputName)
	case status == StatusFailed:
		err = m.notifier.NotifyJobFailed(ctx, id, inputName, reason)
	}
	if err != nil {
		m.logger.Warn("notification failed",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
		)
	}
}

func (m *Manager) timeoutReason(job *Job) string {
	return fmt.Sprintf("conversion exceeded %s runtime limit", m.timeoutLimit())
}

// persistJob writes the job's current snapshot to the durable store.
// Best-effort: broadcast and lifecycle progress never wait on SQLite.
func (m *Manager) persistJob(job *Job) {
	snap := job.Snapshot()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := store.JobRecord{
		ID:              snap.ID,
		Status:          string(snap.Status),
		InputPath:       snap.InputPath,
		OutputPath:      snap.OutputPath,
		ComplianceLevel: snap.ComplianceLevel,
		AppliedTier:     snap.AppliedTier,
		ErrorMessage:    snap.Error,
		ProgressStage:   snap.Progress.Stage,
		ProgressPercent: snap.Progress.Percent,
		ProgressMessage: snap.Progress.Message,
		CreatedAt:       snap.CreatedAt,
	}
	if err := m.store.PersistJob(ctx, rec); err != nil {
		m.logger.Warn("persist job failed",
			logging.String(logging.FieldJobID, snap.ID),
			logging.Error(err),
		)
	}
}

func (m *Manager) appendEvent(id string, event pipeline.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.store.AppendEvent(ctx, id, string(event.Type), event.Message, event.Details); err != nil {
		m.logger.Warn("persist event failed",
			logging.String(logging.FieldJobID, id),
			logging.String(logging.FieldEventType, string(event.Type)),
			logging.Error(err),
		)
	}
}
