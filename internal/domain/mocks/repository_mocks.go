package mocks

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/V4T54L/logmon/internal/domain"
)

// TransportStep scripts the outcome of one Open call.
type TransportStep struct {
	Err  error  // returned from Open when set
	Body string // raw SSE text served on success
	Hold bool   // keep the stream open after Body until the context ends
}

// MockFeedTransport is a mock implementation of domain.FeedTransport for testing.
// Open calls consume Steps in order and fall back to Default once exhausted.
type MockFeedTransport struct {
	mu      sync.Mutex
	Steps   []TransportStep
	Default TransportStep
	Scopes  []string

	// Opened, when non-nil, receives the 1-based attempt number on every Open.
	Opened chan int
}

func (m *MockFeedTransport) Open(ctx context.Context, scope string) (io.ReadCloser, error) {
	m.mu.Lock()
	attempt := len(m.Scopes)
	m.Scopes = append(m.Scopes, scope)
	step := m.Default
	if attempt < len(m.Steps) {
		step = m.Steps[attempt]
	}
	m.mu.Unlock()

	if m.Opened != nil {
		select {
		case m.Opened <- attempt + 1:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if step.Err != nil {
		return nil, step.Err
	}
	if step.Hold {
		return newHoldReader(ctx, step.Body), nil
	}
	return io.NopCloser(strings.NewReader(step.Body)), nil
}

// Attempts returns the number of Open calls so far.
func (m *MockFeedTransport) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Scopes)
}

// ScopeHistory returns a copy of the scopes passed to Open.
func (m *MockFeedTransport) ScopeHistory() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Scopes...)
}

// holdReader serves a fixed prefix and then blocks like an idle SSE stream.
type holdReader struct {
	ctx    context.Context
	prefix *strings.Reader
	closed chan struct{}
	once   sync.Once
}

func newHoldReader(ctx context.Context, body string) *holdReader {
	return &holdReader{ctx: ctx, prefix: strings.NewReader(body), closed: make(chan struct{})}
}

func (h *holdReader) Read(p []byte) (int, error) {
	if h.prefix.Len() > 0 {
		return h.prefix.Read(p)
	}
	select {
	case <-h.ctx.Done():
		return 0, h.ctx.Err()
	case <-h.closed:
		return 0, io.ErrClosedPipe
	}
}

func (h *holdReader) Close() error {
	h.once.Do(func() { close(h.closed) })
	return nil
}

// MockSessionStore is a mock implementation of domain.SessionStore for testing.
type MockSessionStore struct {
	mu        sync.Mutex
	Saved     map[string]domain.Session
	Calls     int
	SaveErr   error
	LoadErr   error
	ClearErr  error
	DeleteErr error

	// FailSaves makes the next FailSaves calls to SaveSessions fail.
	FailSaves int
}

func (m *MockSessionStore) SaveSessions(ctx context.Context, sessions []domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.FailSaves > 0 {
		m.FailSaves--
		return errors.New("save failed")
	}
	if m.Saved == nil {
		m.Saved = make(map[string]domain.Session)
	}
	for _, s := range sessions {
		m.Saved[s.SessionID] = s
	}
	return nil
}

func (m *MockSessionStore) LoadSessions(ctx context.Context) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	out := make([]domain.Session, 0, len(m.Saved))
	for _, s := range m.Saved {
		out = append(out, s)
	}
	return out, nil
}

func (m *MockSessionStore) DeleteSessions(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for _, id := range ids {
		delete(m.Saved, id)
	}
	return nil
}

// SavedCount returns the number of stored sessions.
func (m *MockSessionStore) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Saved)
}

func (m *MockSessionStore) ClearSessions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Saved = nil
	return nil
}
