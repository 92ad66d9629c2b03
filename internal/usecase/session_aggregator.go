package usecase

import (
	"sync"
	"time"

	"github.com/V4T54L/logmon/internal/domain"
)

// SessionAggregator derives per-session summaries from the event stream.
//
// Sessions are never removed by eviction from the event buffer; their
// counters may outlive the events that produced them until Clear is called.
type SessionAggregator struct {
	mu       sync.RWMutex
	now      func() time.Time
	sessions map[string]*domain.Session
	order    []string
}

// NewSessionAggregator creates an empty aggregator. now stamps the start
// time of new sessions; nil means time.Now.
func NewSessionAggregator(now func() time.Time) *SessionAggregator {
	if now == nil {
		now = time.Now
	}
	return &SessionAggregator{
		now:      now,
		sessions: make(map[string]*domain.Session),
	}
}

// Apply folds event into the session map and returns the updated session.
func (a *SessionAggregator) Apply(event domain.LogEvent) domain.Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[event.SessionID]
	if !ok {
		question := event.MetaString(domain.MetaQuestion)
		if question == "" {
			question = event.Message
		}
		s = &domain.Session{
			SessionID:  event.SessionID,
			QuestionID: event.MetaString(domain.MetaQuestionID),
			Question:   question,
			StartTime:  a.now(),
			Status:     domain.SessionActive,
		}
		a.sessions[event.SessionID] = s
		a.order = append(a.order, event.SessionID)
	}
	s.LogCount++

	// Terminal exactly once: later sessionEnd markers only bump the count.
	if event.SessionEnd() && !s.Status.Terminal() {
		if event.Level == domain.LevelSuccess {
			s.Status = domain.SessionCompleted
		} else {
			s.Status = domain.SessionFailed
		}
	}
	return *s
}

// Get returns the session for id, if one has been seen.
func (a *SessionAggregator) Get(id string) (domain.Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return *s, true
}

// Sessions returns a copy of every session in first-seen order.
func (a *SessionAggregator) Sessions() []domain.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]domain.Session, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.sessions[id])
	}
	return out
}

// CountByStatus tallies sessions per status.
func (a *SessionAggregator) CountByStatus() map[domain.SessionStatus]int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	counts := map[domain.SessionStatus]int{
		domain.SessionActive:    0,
		domain.SessionCompleted: 0,
		domain.SessionFailed:    0,
	}
	for _, s := range a.sessions {
		counts[s.Status]++
	}
	return counts
}

// Len returns the number of known sessions.
func (a *SessionAggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.sessions)
}

// Clear forgets every session.
func (a *SessionAggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions = make(map[string]*domain.Session)
	a.order = nil
}
