package usecase

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/V4T54L/logmon/internal/domain"
)

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() time.Time { return baseTime }

func newEvent(id, session string, level domain.Level) domain.LogEvent {
	return domain.LogEvent{
		ID:        id,
		Timestamp: baseTime,
		Level:     level,
		Module:    "engine",
		Message:   fmt.Sprintf("message %s", id),
		SessionID: session,
	}
}

func endEvent(id, session string, level domain.Level) domain.LogEvent {
	e := newEvent(id, session, level)
	e.Metadata = map[string]any{domain.MetaSessionEnd: true}
	return e
}

func eventIDs(events []domain.LogEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
