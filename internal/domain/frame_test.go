package domain

import (
	"errors"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantType string
		wantErr  bool
	}{
		{
			name:     "Connected frame",
			payload:  `{"type":"connected","message":"stream ready"}`,
			wantType: FrameConnected,
		},
		{
			name:     "Log frame",
			payload:  `{"type":"log","data":{"id":"1","timestamp":"2024-05-01T10:00:00Z","level":"INFO","module":"engine","message":"hi","sessionId":"s1","metadata":{"sessionEnd":false}}}`,
			wantType: FrameLog,
		},
		{
			name:    "Invalid JSON",
			payload: `{"type":"log",`,
			wantErr: true,
		},
		{
			name:    "Unknown type",
			payload: `{"type":"heartbeat"}`,
			wantErr: true,
		},
		{
			name:    "Log frame without data",
			payload: `{"type":"log"}`,
			wantErr: true,
		},
		{
			name:    "Log frame missing sessionId",
			payload: `{"type":"log","data":{"id":"1","timestamp":"2024-05-01T10:00:00Z","level":"INFO","message":"hi"}}`,
			wantErr: true,
		},
		{
			name:    "Log frame with unknown level",
			payload: `{"type":"log","data":{"id":"1","timestamp":"2024-05-01T10:00:00Z","level":"TRACE","sessionId":"s1"}}`,
			wantErr: true,
		},
		{
			name:    "Log frame with bad timestamp",
			payload: `{"type":"log","data":{"id":"1","timestamp":"yesterday","level":"INFO","sessionId":"s1"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeFrame([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedFrame) {
					t.Fatalf("expected ErrMalformedFrame, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Type != tt.wantType {
				t.Errorf("frame type: got %q, want %q", f.Type, tt.wantType)
			}
		})
	}
}

func TestLogEvent_SessionEnd(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     bool
	}{
		{"nil metadata", nil, false},
		{"bool true", map[string]any{"sessionEnd": true}, true},
		{"bool false", map[string]any{"sessionEnd": false}, false},
		{"string true", map[string]any{"sessionEnd": "true"}, true},
		{"number one", map[string]any{"sessionEnd": float64(1)}, true},
		{"other keys only", map[string]any{"confidence": 0.9}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := LogEvent{Metadata: tt.metadata}
			if got := e.SessionEnd(); got != tt.want {
				t.Errorf("SessionEnd() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshot_Since(t *testing.T) {
	logs := []LogEvent{{ID: "a"}, {ID: "b"}, {ID: "a"}}
	snap := Snapshot{Logs: logs, Appended: 10}

	tests := []struct {
		name    string
		seq     uint64
		wantIDs []string
	}{
		{name: "Up to date", seq: 10, wantIDs: nil},
		{name: "One new event with a repeated ID", seq: 9, wantIDs: []string{"a"}},
		{name: "Two new", seq: 8, wantIDs: []string{"b", "a"}},
		{name: "More appended than buffered", seq: 2, wantIDs: []string{"a", "b", "a"}},
		{name: "Sequence ahead of snapshot", seq: 12, wantIDs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snap.Since(tt.seq)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Since(%d) returned %d events, want %d", tt.seq, len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("event %d = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}

	if got := (Snapshot{Appended: 4}).Since(3); len(got) != 0 {
		t.Errorf("cleared snapshot returned %d events", len(got))
	}
}
