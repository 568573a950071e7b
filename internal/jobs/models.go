package jobs

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"vellum/internal/engine"
	"vellum/internal/pipeline"
)

// Status represents the lifecycle state of a conversion job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

var allowedTransitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing, StatusCancelled, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
}

func canTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ConversionConfig holds the per-job conversion options. Zero values are
// replaced with configured defaults at submission.
type ConversionConfig struct {
	ComplianceLevel    engine.ComplianceLevel
	OCREnabled         bool
	ForceOCR           bool
	SkipOCROnTagged    bool
	OCRLanguage        string
	CompressionProfile string
}

// Job is one tracked conversion. Mutable state is guarded by mu; the cancel
// and timeout flags are atomics because the pipeline polls them from its own
// goroutine.
type Job struct {
	ID           uuid.UUID
	InputPath    string
	OutputPath   string
	WorkspaceDir string
	Config       ConversionConfig

	cancelRequested atomic.Bool
	timedOut        atomic.Bool

	mu          sync.Mutex
	status      Status
	progress    engine.Progress
	errMessage  string
	result      *pipeline.Result
	cancel      func()
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
}

func newJob(id uuid.UUID, inputPath, outputPath, workspaceDir string, cfg ConversionConfig) *Job {
	return &Job{
		ID:           id,
		InputPath:    inputPath,
		OutputPath:   outputPath,
		WorkspaceDir: workspaceDir,
		Config:       cfg,
		status:       StatusQueued,
		createdAt:    time.Now().UTC(),
	}
}

// Status returns the current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// transition applies a state change, enforcing the state machine. StartedAt
// is stamped exactly once on entering processing; CompletedAt on any terminal
// state.
func (j *Job) transition(to Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status == to {
		return nil
	}
	if !canTransition(j.status, to) {
		return fmt.Errorf("invalid transition %s -> %s for job %s", j.status, to, j.ID)
	}
	j.status = to
	now := time.Now().UTC()
	if to == StatusProcessing && j.startedAt.IsZero() {
		j.startedAt = now
	}
	if to.Terminal() {
		j.completedAt = now
	}
	return nil
}

// clampPercent forces a progress percentage into [0, 100]. The engine
// subprocess is not trusted to stay in range.
func clampPercent(update engine.Progress) engine.Progress {
	switch {
	case update.Percent < 0:
		update.Percent = 0
	case update.Percent > 100:
		update.Percent = 100
	}
	return update
}

// setProgress applies a progress update under the monotonic clamp: within a
// stage, percent never moves backwards. Stage changes reset the clamp.
// Returns false when the update was discarded.
func (j *Job) setProgress(update engine.Progress) bool {
	update = clampPercent(update)

	j.mu.Lock()
	defer j.mu.Unlock()
	if update.Stage == j.progress.Stage && update.Percent < j.progress.Percent {
		return false
	}
	j.progress = update
	return true
}

func (j *Job) setError(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errMessage = message
}

func (j *Job) setResult(result pipeline.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &result
}

func (j *Job) setCancelFunc(cancel func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancel = cancel
	if j.cancelRequested.Load() && cancel != nil {
		cancel()
	}
}

// requestCancel flips the cooperative cancel flag and interrupts the job's
// context if the runner already started.
func (j *Job) requestCancel() {
	j.cancelRequested.Store(true)
	j.mu.Lock()
	cancel := j.cancel
	j.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// CancelRequested reports whether cancellation was requested. The pipeline
// polls this at progress boundaries.
func (j *Job) CancelRequested() bool {
	return j.cancelRequested.Load()
}

// Snapshot is a copy of a job's observable state.
type Snapshot struct {
	ID              string
	Status          Status
	InputPath       string
	OutputPath      string
	WorkspaceDir    string
	Progress        engine.Progress
	Error           string
	AppliedTier     int
	ComplianceLevel string
	PassedThrough   bool
	CreatedAt       time.Time
	StartedAt       time.Time
	CompletedAt     time.Time
}

// Snapshot returns a point-in-time copy of the job.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := Snapshot{
		ID:           j.ID.String(),
		Status:       j.status,
		InputPath:    j.InputPath,
		OutputPath:   j.OutputPath,
		WorkspaceDir: j.WorkspaceDir,
		Progress:     j.progress,
		Error:        j.errMessage,
		CreatedAt:    j.createdAt,
		StartedAt:    j.startedAt,
		CompletedAt:  j.completedAt,
	}
	if j.result != nil {
		snap.AppliedTier = j.result.AppliedTier
		snap.ComplianceLevel = j.result.ComplianceLevel.String()
		snap.PassedThrough = j.result.PassedThrough
	}
	return snap
}
