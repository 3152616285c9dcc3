package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// EventSink receives completed security events. The sink is an external
// collaborator (console, file, monitoring pipe); this core only produces the
// record.
type EventSink interface {
	Write(event *securityDomain.SecurityEvent)
}

// EventLog builds severity-tagged security events and hands them to the sink.
type EventLog struct {
	sink EventSink
}

// NewEventLog creates an EventLog emitting into the given sink.
func NewEventLog(sink EventSink) *EventLog {
	return &EventLog{sink: sink}
}

// Emit stamps the event with an ID, a UTC timestamp, and the severity from
// the fixed eventType table, then writes it to the sink.
func (l *EventLog) Emit(eventType string, details map[string]any) {
	if l == nil || l.sink == nil {
		return
	}

	l.sink.Write(&securityDomain.SecurityEvent{
		ID:        uuid.Must(uuid.NewV7()),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Details:   details,
		Severity:  securityDomain.SeverityFor(eventType),
	})
}

// slogSink writes security events through a structured logger, mapping
// severity to log level.
type slogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates an EventSink backed by the given logger.
func NewSlogSink(logger *slog.Logger) EventSink {
	return &slogSink{logger: logger}
}

func (s *slogSink) Write(event *securityDomain.SecurityEvent) {
	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.String("severity", string(event.Severity)),
		slog.Time("timestamp", event.Timestamp),
		slog.Any("details", event.Details),
	}

	switch event.Severity {
	case securityDomain.SeverityCritical:
		s.logger.Error("security event", attrs...)
	case securityDomain.SeverityWarning:
		s.logger.Warn("security event", attrs...)
	default:
		s.logger.Info("security event", attrs...)
	}
}
