package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/V4T54L/logmon/internal/domain"
	"gopkg.in/yaml.v3"
)

func testArtifact() domain.Artifact {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return domain.Artifact{
		ExportTime: ts.Add(time.Hour),
		TotalLogs:  2,
		Sessions: []domain.Session{
			{SessionID: "s1", Question: "What is | up?", StartTime: ts, Status: domain.SessionCompleted, LogCount: 2},
		},
		Logs: []domain.LogEvent{
			{ID: "1", Timestamp: ts, Level: domain.LevelInfo, Module: "engine", Message: "start", SessionID: "s1"},
			{ID: "2", Timestamp: ts.Add(time.Second), Level: domain.LevelSuccess, Module: "engine", Message: "done", Details: "ok", SessionID: "s1",
				Metadata: map[string]any{"sessionEnd": true}},
		},
	}
}

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"", "json", false},
		{"json", "json", false},
		{"jsonl", "jsonl", false},
		{"ndjson", "jsonl", false},
		{"yaml", "yaml", false},
		{"yml", "yaml", false},
		{"md", "md", false},
		{"markdown", "md", false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			enc, err := NewEncoder(tt.format)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if enc.Extension() != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", enc.Extension(), tt.wantExt)
			}
			if enc.ContentType() == "" {
				t.Error("ContentType() should not be empty")
			}
		})
	}
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONEncoder{}).Encode(testArtifact(), &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, key := range []string{"exportTime", "totalLogs", "sessions", "logs"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q in export", key)
		}
	}
	if doc["totalLogs"].(float64) != 2 {
		t.Errorf("totalLogs = %v, want 2", doc["totalLogs"])
	}
}

func TestJSONLEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLEncoder{}).Encode(testArtifact(), &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (header + 2 events), got %d", len(lines))
	}

	var event domain.LogEvent
	if err := json.Unmarshal([]byte(lines[2]), &event); err != nil {
		t.Fatalf("event line is not valid JSON: %v", err)
	}
	if event.ID != "2" || !event.SessionEnd() {
		t.Errorf("unexpected event decoded: %+v", event)
	}
}

func TestYAMLEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLEncoder{}).Encode(testArtifact(), &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var doc struct {
		TotalLogs int `yaml:"totalLogs"`
		Logs      []struct {
			ID        string `yaml:"id"`
			SessionID string `yaml:"sessionId"`
		} `yaml:"logs"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if doc.TotalLogs != 2 || len(doc.Logs) != 2 {
		t.Errorf("unexpected yaml doc: %+v", doc)
	}
	if doc.Logs[0].SessionID != "s1" {
		t.Errorf("sessionId = %q, want s1", doc.Logs[0].SessionID)
	}
}

func TestMarkdownEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownEncoder{}).Encode(testArtifact(), &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"# Log export", "**Total logs:** 2", "| s1 | completed | 2 |", `What is \| up?`, "**SUCCESS** [engine] done (ok)"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q\n%s", want, out)
		}
	}
}
