package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"vellum/internal/logging"
)

// Sink receives broadcast messages for the jobs it is registered with.
// Implementations returning an error from Send are pruned from the job.
type Sink interface {
	Send(msg Message) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(msg Message) error

func (f SinkFunc) Send(msg Message) error { return f(msg) }

// LogSink mirrors broadcast traffic into the structured log. It never fails,
// so it is never pruned.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logging.WithComponent(logger, "broadcast.log")}
}

func (s *LogSink) Send(msg Message) error {
	switch msg.Kind {
	case KindStatus:
		s.logger.Info("job status",
			logging.String(logging.FieldJobID, msg.JobID),
			logging.String("status", msg.Status),
		)
	case KindProgress:
		if msg.Progress != nil {
			s.logger.Info("job progress",
				logging.String(logging.FieldJobID, msg.JobID),
				logging.String(logging.FieldStage, msg.Progress.Stage),
				logging.Float64("percent", msg.Progress.Percent),
			)
		}
	case KindEvent:
		if msg.Event != nil {
			s.logger.Info("job event",
				logging.String(logging.FieldJobID, msg.JobID),
				logging.String(logging.FieldEventType, string(msg.Event.Type)),
				logging.String("message", msg.Event.Message),
			)
		}
	}
	return nil
}

// WebSocketSink writes each message as one JSON frame on a websocket
// connection. Concurrent sends are serialized; gorilla connections permit
// only one writer at a time.
type WebSocketSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebSocketSink(conn *websocket.Conn) *WebSocketSink {
	return &WebSocketSink{conn: conn}
}

// DialWebSocketSink connects to an external observer endpoint and wraps the
// connection as a sink. The caller owns the sink; it is closed when pruned or
// when its job's channel closes.
func DialWebSocketSink(ctx context.Context, url string) (*WebSocketSink, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial observer %s: %w", url, err)
	}
	return NewWebSocketSink(conn), nil
}

func (s *WebSocketSink) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
