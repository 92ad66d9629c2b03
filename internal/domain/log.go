package domain

import (
	"errors"
	"fmt"
	"time"
)

// Level is the severity/phase label attached to every log event.
type Level string

const (
	LevelInfo       Level = "INFO"
	LevelDebug      Level = "DEBUG"
	LevelProcessing Level = "PROCESSING"
	LevelSuccess    Level = "SUCCESS"
	LevelWarning    Level = "WARNING"
	LevelError      Level = "ERROR"
	LevelAnalysis   Level = "ANALYSIS"
)

// Levels lists every known level in display order.
var Levels = []Level{
	LevelInfo, LevelDebug, LevelProcessing, LevelSuccess, LevelWarning, LevelError, LevelAnalysis,
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	for _, known := range Levels {
		if l == known {
			return true
		}
	}
	return false
}

// Recognized metadata keys. Everything else in Metadata is opaque.
const (
	MetaSessionEnd = "sessionEnd"
	MetaQuestion   = "question"
	MetaQuestionID = "questionId"
)

// ErrInvalidEvent is returned by Validate for events missing required fields.
var ErrInvalidEvent = errors.New("invalid log event")

// LogEvent is one immutable record received from the feed. Once it has been
// buffered it must not be modified; copy it first.
type LogEvent struct {
	ID        string         `json:"id" yaml:"id"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Level     Level          `json:"level" yaml:"level"`
	Module    string         `json:"module" yaml:"module"`
	Message   string         `json:"message" yaml:"message"`
	Details   string         `json:"details,omitempty" yaml:"details,omitempty"`
	SessionID string         `json:"sessionId" yaml:"sessionId"`
	Metadata  map[string]any `json:"metadata" yaml:"metadata,omitempty"`
}

// Validate checks the fields the monitor relies on.
func (e LogEvent) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp (id=%s)", ErrInvalidEvent, e.ID)
	case !e.Level.Valid():
		return fmt.Errorf("%w: unknown level %q (id=%s)", ErrInvalidEvent, e.Level, e.ID)
	case e.SessionID == "":
		return fmt.Errorf("%w: missing sessionId (id=%s)", ErrInvalidEvent, e.ID)
	}
	return nil
}

// SessionEnd reports whether the event closes its session. Producers send
// either a JSON boolean or, occasionally, the string "true".
func (e LogEvent) SessionEnd() bool {
	switch v := e.Metadata[MetaSessionEnd].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case float64:
		return v != 0
	default:
		return false
	}
}

// MetaString returns the metadata value for key if it is a non-empty string.
func (e LogEvent) MetaString(key string) string {
	if s, ok := e.Metadata[key].(string); ok {
		return s
	}
	return ""
}
