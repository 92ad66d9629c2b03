package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/V4T54L/logmon/internal/adapter/metrics"
	"github.com/V4T54L/logmon/internal/domain"
)

const (
	defaultMirrorTimeout = 2 * time.Second
	defaultMirrorRetry   = 2 * time.Second
)

// SessionMirror copies changed sessions to an external SessionStore.
//
// OnSnapshot only records the newest session list; writes happen on the
// goroutine started by Run, so a slow store never stalls the frame pipeline.
// Intermediate snapshots may be skipped, the latest one always wins.
type SessionMirror struct {
	store      domain.SessionStore
	logger     *slog.Logger
	metrics    *metrics.MonitorMetrics
	timeout    time.Duration
	retryDelay time.Duration

	pending chan []domain.Session

	mu   sync.Mutex
	last map[string]domain.Session
}

// NewSessionMirror creates a mirror writing to store. m may be nil.
func NewSessionMirror(store domain.SessionStore, logger *slog.Logger, m *metrics.MonitorMetrics) *SessionMirror {
	return &SessionMirror{
		store:      store,
		logger:     logger.With("component", "session_mirror"),
		metrics:    m,
		timeout:    defaultMirrorTimeout,
		retryDelay: defaultMirrorRetry,
		pending:    make(chan []domain.Session, 1),
		last:       make(map[string]domain.Session),
	}
}

// OnSnapshot implements Subscriber.
func (s *SessionMirror) OnSnapshot(snapshot domain.Snapshot) {
	for {
		select {
		case s.pending <- snapshot.Sessions:
			return
		default:
		}
		// Replace the unconsumed list with the newer one.
		select {
		case <-s.pending:
		default:
		}
	}
}

// Run writes pending session lists until ctx is done. A failed write is
// retried after retryDelay unless a newer list arrives first.
func (s *SessionMirror) Run(ctx context.Context) {
	s.logger.Info("session mirror started")

	var (
		retry   []domain.Session
		retryC  <-chan time.Time
		retryer *time.Timer
	)
	defer func() {
		if retryer != nil {
			retryer.Stop()
		}
	}()

	for {
		var sessions []domain.Session
		select {
		case <-ctx.Done():
			s.logger.Info("session mirror stopped")
			return
		case sessions = <-s.pending:
		case <-retryC:
			sessions = retry
		}

		if retryer != nil {
			retryer.Stop()
			retryer, retryC, retry = nil, nil, nil
		}
		if err := s.Sync(ctx, sessions); err != nil {
			s.logger.Warn("failed to mirror sessions", "error", err, "retry_in", s.retryDelay)
			retry = sessions
			retryer = time.NewTimer(s.retryDelay)
			retryC = retryer.C
		}
	}
}

// Sync makes the store match sessions, writing only what changed since the
// last successful sync. Sessions no longer listed are deleted, and an empty
// list after a non-empty one clears the store.
func (s *SessionMirror) Sync(ctx context.Context, sessions []domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if len(sessions) == 0 {
		if len(s.last) == 0 {
			return nil
		}
		if err := s.store.ClearSessions(ctx); err != nil {
			s.countError()
			return err
		}
		s.last = make(map[string]domain.Session)
		return nil
	}

	listed := make(map[string]struct{}, len(sessions))
	var changed []domain.Session
	for _, sess := range sessions {
		listed[sess.SessionID] = struct{}{}
		if prev, ok := s.last[sess.SessionID]; !ok || prev != sess {
			changed = append(changed, sess)
		}
	}
	var gone []string
	for id := range s.last {
		if _, ok := listed[id]; !ok {
			gone = append(gone, id)
		}
	}

	if len(gone) > 0 {
		if err := s.store.DeleteSessions(ctx, gone); err != nil {
			s.countError()
			return err
		}
		for _, id := range gone {
			delete(s.last, id)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	if err := s.store.SaveSessions(ctx, changed); err != nil {
		s.countError()
		return err
	}
	for _, sess := range changed {
		s.last[sess.SessionID] = sess
	}
	s.logger.Debug("mirrored sessions", "count", len(changed), "deleted", len(gone))
	return nil
}

func (s *SessionMirror) countError() {
	if s.metrics != nil {
		s.metrics.MirrorErrors.Inc()
	}
}
