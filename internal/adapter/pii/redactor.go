package pii

import (
	"log/slog"
	"maps"

	"github.com/V4T54L/logmon/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor hides sensitive metadata values in exported log events.
type Redactor struct {
	fieldsToRedact map[string]struct{} // Use a map for O(1) lookups
	logger         *slog.Logger
}

// NewRedactor creates a new Redactor instance with a given set of fields to redact.
// Empty field names are ignored.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if field == "" {
			continue
		}
		fieldSet[field] = struct{}{}
	}
	return &Redactor{
		fieldsToRedact: fieldSet,
		logger:         logger,
	}
}

// Enabled reports whether any field is configured for redaction.
func (r *Redactor) Enabled() bool {
	return r != nil && len(r.fieldsToRedact) > 0
}

// Redact returns event with the configured metadata keys replaced by the
// placeholder. Buffered events are shared and immutable, so a redacted event
// always gets its own metadata map; the input is never modified. The boolean
// reports whether anything was redacted.
func (r *Redactor) Redact(event domain.LogEvent) (domain.LogEvent, bool) {
	if !r.Enabled() || len(event.Metadata) == 0 {
		return event, false
	}

	var metadata map[string]any
	for field := range r.fieldsToRedact {
		if _, ok := event.Metadata[field]; !ok {
			continue
		}
		if metadata == nil {
			metadata = maps.Clone(event.Metadata)
		}
		metadata[field] = RedactedPlaceholder
	}
	if metadata == nil {
		return event, false
	}

	event.Metadata = metadata
	return event, true
}

// RedactAll applies Redact to every event and returns a new slice.
func (r *Redactor) RedactAll(events []domain.LogEvent) []domain.LogEvent {
	out := make([]domain.LogEvent, len(events))
	redacted := 0
	for i, e := range events {
		var ok bool
		out[i], ok = r.Redact(e)
		if ok {
			redacted++
		}
	}
	if redacted > 0 && r.logger != nil {
		r.logger.Debug("redacted metadata in exported events", "count", redacted)
	}
	return out
}
