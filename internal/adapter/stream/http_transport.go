package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ScopeParam is the query parameter that restricts the feed to one session.
const ScopeParam = "sessionId"

// ErrUnexpectedStatus is returned when the feed answers with a non-2xx code.
var ErrUnexpectedStatus = errors.New("unexpected feed response status")

// HTTPTransport implements domain.FeedTransport over an HTTP Server-Sent
// Events endpoint.
type HTTPTransport struct {
	client  *http.Client
	feedURL string
}

// NewHTTPTransport creates a transport for feedURL. The client must not set
// a Timeout, since that would cut off the long-lived response body; nil uses
// a default client.
func NewHTTPTransport(feedURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{client: client, feedURL: feedURL}
}

// Open issues the streaming GET request and returns the response body.
func (t *HTTPTransport) Open(ctx context.Context, scope string) (io.ReadCloser, error) {
	u, err := url.Parse(t.feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url %q: %w", t.feedURL, err)
	}
	if scope != "" {
		q := u.Query()
		q.Set(ScopeParam, scope)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to feed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp.Body, nil
}
