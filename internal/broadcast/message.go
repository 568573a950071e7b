package broadcast

import (
	"time"

	"vellum/internal/engine"
	"vellum/internal/pipeline"
)

// Kind discriminates the payload carried by a Message.
type Kind string

const (
	KindStatus   Kind = "status"
	KindProgress Kind = "progress"
	KindEvent    Kind = "event"
)

// Message is the single envelope delivered to sinks. Exactly one of Status,
// Progress, or Event is populated, matching Kind.
type Message struct {
	Kind      Kind             `json:"kind"`
	JobID     string           `json:"job_id"`
	Status    string           `json:"status,omitempty"`
	Progress  *engine.Progress `json:"progress,omitempty"`
	Event     *pipeline.Event  `json:"event,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func statusMessage(jobID, status string) Message {
	return Message{Kind: KindStatus, JobID: jobID, Status: status, Timestamp: time.Now().UTC()}
}

func progressMessage(jobID string, update engine.Progress) Message {
	return Message{Kind: KindProgress, JobID: jobID, Progress: &update, Timestamp: time.Now().UTC()}
}

func eventMessage(jobID string, event pipeline.Event) Message {
	return Message{Kind: KindEvent, JobID: jobID, Event: &event, Timestamp: time.Now().UTC()}
}
