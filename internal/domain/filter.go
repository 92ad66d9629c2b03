package domain

import "strings"

// Filter narrows a list of events. Empty fields place no constraint on their
// dimension and all non-empty fields must match.
type Filter struct {
	Level      Level  `json:"level,omitempty"`
	Module     string `json:"module,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	SearchText string `json:"searchText,omitempty"`
}

// IsEmpty reports whether the filter matches every event.
func (f Filter) IsEmpty() bool {
	return f.Level == "" && f.Module == "" && f.SessionID == "" && strings.TrimSpace(f.SearchText) == ""
}

// Apply returns the events matching f in their original relative order. The
// returned slice is always freshly allocated.
func (f Filter) Apply(events []LogEvent) []LogEvent {
	needle := strings.ToLower(strings.TrimSpace(f.SearchText))

	out := make([]LogEvent, 0, len(events))
	for _, e := range events {
		if f.match(e, needle) {
			out = append(out, e)
		}
	}
	return out
}

func (f Filter) match(e LogEvent, needle string) bool {
	if f.Level != "" && e.Level != f.Level {
		return false
	}
	if f.Module != "" && e.Module != f.Module {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), needle) ||
		strings.Contains(strings.ToLower(e.Details), needle) ||
		strings.Contains(strings.ToLower(e.Module), needle)
}
