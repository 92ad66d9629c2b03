package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Frame types carried in the SSE data field.
const (
	FrameConnected = "connected"
	FrameLog       = "log"
)

// ErrMalformedFrame wraps every decode failure for a single frame.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is one decoded message from the feed.
type Frame struct {
	Type    string    `json:"type"`
	Message string    `json:"message,omitempty"`
	Data    *LogEvent `json:"data,omitempty"`
}

// DecodeFrame parses the JSON payload of an SSE data field. Unknown frame
// types, invalid JSON and log frames without a valid event are all reported
// as ErrMalformedFrame.
func DecodeFrame(payload []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch f.Type {
	case FrameConnected:
		return f, nil
	case FrameLog:
		if f.Data == nil {
			return Frame{}, fmt.Errorf("%w: log frame without data", ErrMalformedFrame)
		}
		if err := f.Data.Validate(); err != nil {
			return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		return f, nil
	default:
		return Frame{}, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, f.Type)
	}
}

// Snapshot is a point-in-time view of the monitor state. Its slices are never
// written after the snapshot is taken and are safe to share between readers.
//
// Appended counts every event ever appended, including evicted and cleared
// ones. Comparing it between two snapshots tells how many of Logs are new.
type Snapshot struct {
	Logs      []LogEvent `json:"logs"`
	Appended  uint64     `json:"appended"`
	Sessions  []Session  `json:"sessions"`
	Connected bool       `json:"connected"`
	Dropped   int64      `json:"dropped"`
	TakenAt   time.Time  `json:"takenAt"`
}

// Since returns the events appended after the snapshot whose Appended value
// was seq. Events that were already evicted are not returned.
func (s Snapshot) Since(seq uint64) []LogEvent {
	if s.Appended <= seq {
		return nil
	}
	n := s.Appended - seq
	if n >= uint64(len(s.Logs)) {
		return s.Logs
	}
	return s.Logs[len(s.Logs)-int(n):]
}
