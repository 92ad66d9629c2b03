package domain

import (
	"context"
	"io"
)

// FeedTransport opens the server-push connection to the log feed.
// This abstracts away the specific implementation (e.g., HTTP Server-Sent Events).
type FeedTransport interface {
	// Open connects to the feed, optionally scoped to a single sessionId, and
	// returns the raw event stream. A non-nil error means the attempt failed
	// and should be retried by the caller.
	Open(ctx context.Context, scope string) (io.ReadCloser, error)
}

// SessionStore mirrors derived session state to an external store so that
// other processes can read it.
type SessionStore interface {
	// SaveSessions upserts the given sessions.
	SaveSessions(ctx context.Context, sessions []Session) error

	// LoadSessions returns every mirrored session.
	LoadSessions(ctx context.Context) ([]Session, error)

	// DeleteSessions removes the sessions with the given ids.
	DeleteSessions(ctx context.Context, ids []string) error

	// ClearSessions removes all mirrored sessions.
	ClearSessions(ctx context.Context) error
}
