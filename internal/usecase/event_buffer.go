package usecase

import (
	"sync"

	"github.com/V4T54L/logmon/internal/domain"
)

// DefaultMaxLogs is the buffer capacity used when none is configured.
const DefaultMaxLogs = 1000

// EventBuffer keeps the most recent maxLogs events in arrival order.
//
// The backing slice is append-only: eviction advances head instead of moving
// elements, and snapshots are capacity-clipped sub-slices. Nothing below the
// current length is ever written again, so a snapshot stays valid after later
// appends. Once head reaches maxLogs the live window is copied into a fresh
// array, which keeps appends O(1) amortized and memory under 2*maxLogs.
type EventBuffer struct {
	mu      sync.RWMutex
	maxLogs int
	events  []domain.LogEvent
	head    int
	total   uint64
}

// NewEventBuffer creates a buffer holding at most maxLogs events.
// A non-positive maxLogs falls back to DefaultMaxLogs.
func NewEventBuffer(maxLogs int) *EventBuffer {
	if maxLogs <= 0 {
		maxLogs = DefaultMaxLogs
	}
	return &EventBuffer{maxLogs: maxLogs}
}

// Append adds event to the tail and returns how many events were evicted
// from the head to stay within capacity.
func (b *EventBuffer) Append(event domain.LogEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	b.total++

	evicted := 0
	for len(b.events)-b.head > b.maxLogs {
		b.head++
		evicted++
	}
	if b.head >= b.maxLogs {
		b.compact()
	}
	return evicted
}

func (b *EventBuffer) compact() {
	live := b.events[b.head:]
	fresh := make([]domain.LogEvent, len(live), 2*b.maxLogs)
	copy(fresh, live)
	b.events = fresh
	b.head = 0
}

// Snapshot returns the buffered events, oldest first. The result must be
// treated as read-only; it is shared with other readers.
func (b *EventBuffer) Snapshot() []domain.LogEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.events)
	return b.events[b.head:n:n]
}

// Clear drops every buffered event. Earlier snapshots are unaffected.
func (b *EventBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
	b.head = 0
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events) - b.head
}

// Appended returns the number of events appended since creation. Clear does
// not reset it.
func (b *EventBuffer) Appended() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// MaxLogs returns the configured capacity.
func (b *EventBuffer) MaxLogs() int {
	return b.maxLogs
}
