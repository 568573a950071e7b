package broadcast

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"vellum/internal/engine"
	"vellum/internal/logging"
	"vellum/internal/pipeline"
)

// Broadcaster delivers job telemetry to per-job sink sets. All methods are
// safe for concurrent use; ordering is guaranteed per publishing goroutine,
// which matches the one-runner-per-job model upstream.
type Broadcaster struct {
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	channels  map[string]*channel
	nextToken int64
}

// channel tracks one job's sinks plus its progress throttle state.
type channel struct {
	sinks        map[int64]Sink
	sendMu       sync.Mutex
	lastProgress time.Time
	pending      *Message
	timer        *time.Timer
}

// New builds a broadcaster whose progress deliveries are spaced at least
// interval apart per job. A non-positive interval disables throttling.
func New(interval time.Duration, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		interval: interval,
		logger:   logging.WithComponent(logger, "broadcast"),
		channels: make(map[string]*channel),
	}
}

// Register subscribes sink to jobID and returns a token for Unregister.
func (b *Broadcaster) Register(jobID string, sink Sink) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextToken++
	token := b.nextToken
	ch := b.channelLocked(jobID)
	ch.sinks[token] = sink
	return token
}

// Unregister removes a previously registered sink. Unknown tokens are a
// no-op. The sink is not closed; callers own its lifecycle.
func (b *Broadcaster) Unregister(jobID string, token int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.channels[jobID]; ok {
		delete(ch.sinks, token)
	}
}

// Status publishes a job status change immediately. Any throttled progress
// update still pending for the job is delivered first.
func (b *Broadcaster) Status(jobID, status string) {
	b.mu.Lock()
	ch := b.channelLocked(jobID)
	pending := b.takePendingLocked(ch)
	sinks := snapshotSinks(ch)
	b.mu.Unlock()

	ch.sendMu.Lock()
	defer ch.sendMu.Unlock()
	if pending != nil {
		b.deliver(jobID, *pending, sinks)
	}
	b.deliver(jobID, statusMessage(jobID, status), sinks)
}

// Progress publishes a progress update, subject to the per-job throttle.
// Updates arriving inside the interval replace each other; only the newest
// is flushed when the interval elapses.
func (b *Broadcaster) Progress(jobID string, update engine.Progress) {
	msg := progressMessage(jobID, update)

	b.mu.Lock()
	ch := b.channelLocked(jobID)
	now := time.Now()
	elapsed := now.Sub(ch.lastProgress)
	if b.interval <= 0 || elapsed >= b.interval {
		ch.lastProgress = now
		sinks := snapshotSinks(ch)
		b.mu.Unlock()

		ch.sendMu.Lock()
		defer ch.sendMu.Unlock()
		b.deliver(jobID, msg, sinks)
		return
	}

	ch.pending = &msg
	if ch.timer == nil {
		ch.timer = time.AfterFunc(b.interval-elapsed, func() { b.flushPending(jobID) })
	}
	b.mu.Unlock()
}

// Event publishes a pipeline event immediately, in publish order.
func (b *Broadcaster) Event(jobID string, event pipeline.Event) {
	b.mu.Lock()
	ch := b.channelLocked(jobID)
	sinks := snapshotSinks(ch)
	b.mu.Unlock()

	ch.sendMu.Lock()
	defer ch.sendMu.Unlock()
	b.deliver(jobID, eventMessage(jobID, event), sinks)
}

// CloseJob flushes any pending progress, closes sinks that support closing,
// and forgets the job. Publishes after CloseJob reach no one until a sink
// registers again.
func (b *Broadcaster) CloseJob(jobID string) {
	b.mu.Lock()
	ch, ok := b.channels[jobID]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.channels, jobID)
	pending := b.takePendingLocked(ch)
	sinks := snapshotSinks(ch)
	b.mu.Unlock()

	ch.sendMu.Lock()
	defer ch.sendMu.Unlock()
	if pending != nil {
		b.deliver(jobID, *pending, sinks)
	}
	for _, entry := range sinks {
		if closer, ok := entry.sink.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				b.logger.Warn("sink close failed",
					logging.String(logging.FieldJobID, jobID),
					logging.Error(err),
				)
			}
		}
	}
}

func (b *Broadcaster) flushPending(jobID string) {
	b.mu.Lock()
	ch, ok := b.channels[jobID]
	if !ok {
		b.mu.Unlock()
		return
	}
	pending := b.takePendingLocked(ch)
	if pending == nil {
		b.mu.Unlock()
		return
	}
	ch.lastProgress = time.Now()
	sinks := snapshotSinks(ch)
	b.mu.Unlock()

	ch.sendMu.Lock()
	defer ch.sendMu.Unlock()
	b.deliver(jobID, *pending, sinks)
}

// takePendingLocked detaches the pending progress message and stops its
// flush timer. Caller holds b.mu.
func (b *Broadcaster) takePendingLocked(ch *channel) *Message {
	if ch.timer != nil {
		ch.timer.Stop()
		ch.timer = nil
	}
	pending := ch.pending
	ch.pending = nil
	return pending
}

func (b *Broadcaster) channelLocked(jobID string) *channel {
	ch, ok := b.channels[jobID]
	if !ok {
		ch = &channel{sinks: make(map[int64]Sink)}
		b.channels[jobID] = ch
	}
	return ch
}

type sinkEntry struct {
	token int64
	sink  Sink
}

func snapshotSinks(ch *channel) []sinkEntry {
	entries := make([]sinkEntry, 0, len(ch.sinks))
	for token, sink := range ch.sinks {
		entries = append(entries, sinkEntry{token: token, sink: sink})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].token < entries[j].token })
	return entries
}

// deliver sends msg to every sink, dropping sinks whose Send fails.
func (b *Broadcaster) deliver(jobID string, msg Message, sinks []sinkEntry) {
	for _, entry := range sinks {
		if err := entry.sink.Send(msg); err != nil {
			b.logger.Warn("sink delivery failed, pruning",
				logging.String(logging.FieldJobID, jobID),
				logging.String("kind", string(msg.Kind)),
				logging.Error(err),
			)
			b.Unregister(jobID, entry.token)
			if closer, ok := entry.sink.(io.Closer); ok {
				_ = closer.Close()
			}
		}
	}
}
