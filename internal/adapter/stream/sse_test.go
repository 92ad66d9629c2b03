package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func collect(t *testing.T, input string) ([]sseEvent, error) {
	t.Helper()
	s := newSSEScanner(strings.NewReader(input))
	var events []sseEvent
	for s.Next() {
		events = append(events, s.Event())
	}
	return events, s.Err()
}

func TestSSEScanner(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []sseEvent
	}{
		{
			name:  "Single data frame",
			input: "data: {\"type\":\"connected\"}\n\n",
			want:  []sseEvent{{Data: `{"type":"connected"}`}},
		},
		{
			name:  "Event name and id",
			input: "event: log\nid: 42\ndata: x\n\n",
			want:  []sseEvent{{Name: "log", ID: "42", Data: "x"}},
		},
		{
			name:  "Multiple data lines joined",
			input: "data: one\ndata: two\n\n",
			want:  []sseEvent{{Data: "one\ntwo"}},
		},
		{
			name:  "Comments and keep-alives skipped",
			input: ": ping\n\n: ping\ndata: a\n\n",
			want:  []sseEvent{{Data: "a"}},
		},
		{
			name:  "CRLF line endings",
			input: "data: a\r\n\r\ndata: b\r\n\r\n",
			want:  []sseEvent{{Data: "a"}, {Data: "b"}},
		},
		{
			name:  "No space after colon",
			input: "data:tight\n\n",
			want:  []sseEvent{{Data: "tight"}},
		},
		{
			name:  "Trailing event without blank line",
			input: "data: a\n\ndata: last",
			want:  []sseEvent{{Data: "a"}, {Data: "last"}},
		},
		{
			name:  "Event without data is not dispatched",
			input: "event: noop\n\ndata: a\n\n",
			want:  []sseEvent{{Data: "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collect(t, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("event %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

type failingReader struct{ data string }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.data == "" {
		return 0, io.ErrUnexpectedEOF
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestSSEScanner_ReadError(t *testing.T) {
	s := newSSEScanner(&failingReader{data: "data: a\n\n"})
	if !s.Next() {
		t.Fatal("expected first event")
	}
	if s.Next() {
		t.Fatal("expected scanner to stop on read error")
	}
	if !errors.Is(s.Err(), io.ErrUnexpectedEOF) {
		t.Errorf("Err() = %v, want io.ErrUnexpectedEOF", s.Err())
	}
}

func TestSSEScanner_LongLines(t *testing.T) {
	long := strings.Repeat("x", 100*1024)
	got, err := collect(t, "data: "+long+"\n\ndata: next\n\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Data != long || got[0].Oversize || got[1].Data != "next" {
		t.Fatalf("line past the read buffer not reassembled: %d events", len(got))
	}
}

func TestSSEScanner_Oversize(t *testing.T) {
	input := "data: short\n\n" +
		"data: " + strings.Repeat("x", 40) + "\n\n" +
		"data: aaaaaaaa\ndata: bbbbbbbb\n\n" +
		"id: 7\ndata: " + strings.Repeat("y", 40) + "\r\n\r\n" +
		": " + strings.Repeat("c", 40) + "\n" +
		"data: after\n\n"
	want := []sseEvent{
		{Data: "short"},
		{Oversize: true},
		{Oversize: true},
		{ID: "7", Oversize: true},
		{Data: "after"},
	}

	s := newSSEScannerSize(strings.NewReader(input), 16)
	var got []sseEvent
	for s.Next() {
		got = append(got, s.Event())
	}
	if s.Err() != nil {
		t.Fatalf("unexpected error: %v", s.Err())
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
