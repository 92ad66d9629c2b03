package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/V4T54L/logmon/internal/domain"
)

// readData returns the next data payload, skipping named events unless name
// matches.
func readData(t *testing.T, r *bufio.Reader, name string) string {
	t.Helper()
	current := ""
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if current == name {
				return strings.TrimPrefix(line, "data: ")
			}
		case line == "":
			current = ""
		}
	}
}

func TestSSEBroker_RelaysFramesAndStats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broker := newSSEBroker(ctx, testLogger(), 20*time.Millisecond)

	srv := httptest.NewServer(broker)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	reader := bufio.NewReader(resp.Body)

	hello, err := domain.DecodeFrame([]byte(readData(t, reader, "")))
	if err != nil || hello.Type != domain.FrameConnected {
		t.Fatalf("expected connected frame, got %+v (%v)", hello, err)
	}

	first := event("1", "s1", domain.LevelInfo, "planner", "start")
	second := event("2", "s1", domain.LevelSuccess, "planner", "done")
	resent := second
	resent.Message = "done again"
	broker.OnSnapshot(domain.Snapshot{Logs: []domain.LogEvent{first}, Appended: 1})
	broker.OnSnapshot(domain.Snapshot{Logs: []domain.LogEvent{first, second}, Appended: 2})
	// The feed may deliver an event twice under the same ID.
	broker.OnSnapshot(domain.Snapshot{
		Logs:      []domain.LogEvent{first, second, resent},
		Appended:  3,
		Sessions:  []domain.Session{{SessionID: "s1", Status: domain.SessionCompleted, LogCount: 2}},
		Connected: true,
	})

	for _, wantID := range []string{"1", "2", "2"} {
		frame, err := domain.DecodeFrame([]byte(readData(t, reader, "")))
		if err != nil {
			t.Fatalf("relayed frame is not decodable: %v", err)
		}
		if frame.Type != domain.FrameLog || frame.Data.ID != wantID {
			t.Errorf("got frame %+v, want log %s", frame, wantID)
		}
	}

	// Ticks that fired before the snapshots carry older totals.
	var stats StatsMessage
	for i := 0; i < 50 && stats.TotalLogs != 3; i++ {
		if err := json.Unmarshal([]byte(readData(t, reader, "stats")), &stats); err != nil {
			t.Fatalf("invalid stats payload: %v", err)
		}
	}
	if stats.TotalLogs != 3 || !stats.Connected || stats.Sessions[domain.SessionCompleted] != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestSSEBroker_ClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broker := newSSEBroker(ctx, testLogger(), time.Hour)

	reqCtx, reqCancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(reqCtx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		broker.ServeHTTP(rr, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for broker.Clients() != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if broker.Clients() != 1 {
		t.Fatal("client never registered")
	}

	reqCancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeHTTP did not return after the client went away")
	}
	if broker.Clients() != 0 {
		t.Errorf("expected client removed, got %d", broker.Clients())
	}
}
