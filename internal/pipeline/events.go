package pipeline

import (
	"time"

	"vellum/internal/document"
)

// EventType enumerates the closed set of pipeline and lifecycle events.
type EventType string

const (
	EventFormatConversion    EventType = "format_conversion"
	EventOCRDecision         EventType = "ocr_decision"
	EventCompressionSelected EventType = "compression_selected"
	EventPassthroughMode     EventType = "passthrough_mode"
	EventFallbackApplied     EventType = "fallback_applied"
	EventJobTimeout          EventType = "job_timeout"
	EventJobCleanup          EventType = "job_cleanup"
)

// Event is one append-only, chronologically ordered pipeline occurrence.
// Details holds the per-type payload struct below.
type Event struct {
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType EventType, message string, details any) Event {
	return Event{
		Type:      eventType,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// FormatConversionDetails describes the conversion target at job start.
type FormatConversionDetails struct {
	InputPath   string `json:"input_path"`
	TargetLevel string `json:"target_level"`
}

// OCRDecisionDetails carries the inspector verdict.
type OCRDecisionDetails struct {
	NeedsOCR bool               `json:"needs_ocr"`
	Reason   string             `json:"reason"`
	Stats    document.TextStats `json:"stats"`
}

// CompressionSelectedDetails records a compression profile substitution.
type CompressionSelectedDetails struct {
	Original string `json:"original"`
	Selected string `json:"selected"`
	Reason   string `json:"reason"`
}

// PassthroughDetails records an engine-skipping shortcut.
type PassthroughDetails struct {
	Enabled       bool   `json:"enabled"`
	Reason        string `json:"reason"`
	TagsPreserved bool   `json:"tags_preserved"`
}

// SafeModeSettings summarizes the degraded settings a fallback tier applied.
type SafeModeSettings struct {
	ResolutionDPI int  `json:"resolution_dpi"`
	OptimizeLevel int  `json:"optimize_level"`
	RemoveVectors bool `json:"remove_vectors"`
}

// FallbackAppliedDetails records a successful degrade-and-retry escalation.
type FallbackAppliedDetails struct {
	Tier          int               `json:"tier"`
	Reason        string            `json:"reason"`
	OriginalError string            `json:"original_error"`
	SafeMode      *SafeModeSettings `json:"safe_mode,omitempty"`
	FromLevel     string            `json:"from_level,omitempty"`
	ToLevel       string            `json:"to_level,omitempty"`
	OCRDisabled   bool              `json:"ocr_disabled,omitempty"`
}

// JobTimeoutDetails records a runtime-limit enforcement.
type JobTimeoutDetails struct {
	RuntimeSeconds float64 `json:"runtime_seconds"`
	LimitSeconds   float64 `json:"limit_seconds"`
}

// JobCleanupDetails records a workspace reclamation.
type JobCleanupDetails struct {
	Trigger        string `json:"trigger"`
	ReclaimedBytes int64  `json:"reclaimed_bytes"`
}
