package writer

import (
	"time"

	"github.com/davidahmann/ctxf/core/detect"
)

// Event records one redaction: which file and field were touched, what the
// detector saw, and the masked preview that replaced it.
type Event struct {
	File      string             `json:"file"`
	Field     string             `json:"field"`
	Type      detect.FindingType `json:"type"`
	Masked    string             `json:"masked"`
	Timestamp time.Time          `json:"timestamp"`
}

// RedactionLog accumulates redaction events across writes. The log is owned
// by the caller: one log per writer instance, cleared explicitly, never
// shared or merged across instances.
type RedactionLog struct {
	events []Event
}

func NewRedactionLog() *RedactionLog {
	return &RedactionLog{}
}

// Entries returns a copy of the accumulated events.
func (l *RedactionLog) Entries() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *RedactionLog) Len() int {
	return len(l.events)
}

// Clear drops all accumulated events.
func (l *RedactionLog) Clear() {
	l.events = nil
}

func (l *RedactionLog) record(event Event) {
	l.events = append(l.events, event)
}
