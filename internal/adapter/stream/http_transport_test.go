package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTransport_Open(t *testing.T) {
	type request struct{ scope, accept string }
	requests := make(chan request, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- request{scope: r.URL.Query().Get(ScopeParam), accept: r.Header.Get("Accept")}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"connected\",\"message\":\"hi\"}\n\n")
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.URL+"/api/logs/stream", nil)

	t.Run("Scoped request", func(t *testing.T) {
		body, err := transport.Open(context.Background(), "s-42")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer body.Close()

		data, err := io.ReadAll(body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		req := <-requests
		if req.scope != "s-42" {
			t.Errorf("scope param: got %q, want %q", req.scope, "s-42")
		}
		if req.accept != "text/event-stream" {
			t.Errorf("Accept header: got %q", req.accept)
		}
		if len(data) == 0 {
			t.Error("expected stream content")
		}
	})

	t.Run("Unscoped request", func(t *testing.T) {
		body, err := transport.Open(context.Background(), "")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		body.Close()
		if req := <-requests; req.scope != "" {
			t.Errorf("expected no scope param, got %q", req.scope)
		}
	})
}

func TestHTTPTransport_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(srv.URL, nil).Open(context.Background(), "")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestHTTPTransport_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := NewHTTPTransport(url, nil).Open(context.Background(), ""); err == nil {
		t.Fatal("expected an error for a closed server, got nil")
	}
}
