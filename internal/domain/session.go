package domain

import "time"

// SessionStatus is the derived lifecycle state of a session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// Session summarizes all events seen for one sessionId. It is derived purely
// from the event stream; there is no server-side session API.
type Session struct {
	SessionID  string        `json:"sessionId" yaml:"sessionId"`
	QuestionID string        `json:"questionId" yaml:"questionId"`
	Question   string        `json:"question" yaml:"question"`
	StartTime  time.Time     `json:"startTime" yaml:"startTime"`
	Status     SessionStatus `json:"status" yaml:"status"`
	LogCount   int           `json:"logCount" yaml:"logCount"`
}
