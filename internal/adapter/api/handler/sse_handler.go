package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/V4T54L/logmon/internal/domain"
)

// StatsMessage is broadcast once per second as a named "stats" event.
type StatsMessage struct {
	Rate      float64                      `json:"rate"`
	TotalLogs int                          `json:"totalLogs"`
	Connected bool                         `json:"connected"`
	Sessions  map[domain.SessionStatus]int `json:"sessions"`
}

type sseMessage struct {
	event string
	data  []byte
}

// SSEBroker relays buffered events to downstream SSE clients using the same
// frame format the monitor consumes, plus periodic stats.
type SSEBroker struct {
	logger   *slog.Logger
	clients  map[chan sseMessage]struct{}
	mu       sync.RWMutex
	frames   chan domain.LogEvent
	interval time.Duration

	// Touched only from OnSnapshot, which the monitor never runs concurrently.
	lastSeq uint64

	statsMu   sync.Mutex
	lastStats StatsMessage
}

// NewSSEBroker creates a new SSEBroker and starts its processing loop.
func NewSSEBroker(ctx context.Context, logger *slog.Logger) *SSEBroker {
	return newSSEBroker(ctx, logger, time.Second)
}

func newSSEBroker(ctx context.Context, logger *slog.Logger, interval time.Duration) *SSEBroker {
	broker := &SSEBroker{
		logger:   logger.With("component", "sse_broker"),
		clients:  make(map[chan sseMessage]struct{}),
		frames:   make(chan domain.LogEvent, 1000),
		interval: interval,
	}
	go broker.run(ctx)
	return broker
}

// ServeHTTP handles new client connections for the SSE stream.
func (b *SSEBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	messageChan := make(chan sseMessage, 64)
	b.addClient(messageChan)
	defer b.removeClient(messageChan)

	hello, _ := json.Marshal(domain.Frame{Type: domain.FrameConnected, Message: "logmon relay"})
	fmt.Fprintf(w, "data: %s\n\n", hello)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messageChan:
			if !ok {
				return // Channel was closed
			}
			if msg.event != "" {
				fmt.Fprintf(w, "event: %s\n", msg.event)
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.data)
			flusher.Flush()
		}
	}
}

// OnSnapshot queues the events appended since the previous snapshot. It never
// blocks the monitor; when the queue is full the events are skipped.
func (b *SSEBroker) OnSnapshot(snap domain.Snapshot) {
	fresh := snap.Since(b.lastSeq)
	b.lastSeq = snap.Appended

	for _, event := range fresh {
		select {
		case b.frames <- event:
		default:
			b.logger.Warn("SSE relay queue is full, dropping event", "event_id", event.ID)
		}
	}

	counts := make(map[domain.SessionStatus]int, 3)
	for _, s := range snap.Sessions {
		counts[s.Status]++
	}
	b.statsMu.Lock()
	b.lastStats.TotalLogs = len(snap.Logs)
	b.lastStats.Connected = snap.Connected
	b.lastStats.Sessions = counts
	b.statsMu.Unlock()
}

// Clients returns the number of connected SSE clients.
func (b *SSEBroker) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *SSEBroker) addClient(client chan sseMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
	b.logger.Info("SSE client connected")
}

func (b *SSEBroker) removeClient(client chan sseMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
		b.logger.Info("SSE client disconnected")
	}
}

func (b *SSEBroker) broadcast(msg sseMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- msg:
		default:
			// Slow client, skip it rather than stall everyone else.
		}
	}
}

// run is the main processing loop for the broker.
func (b *SSEBroker) run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	var currentCount int
	lastTimestamp := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.frames:
			currentCount++
			data, err := json.Marshal(domain.Frame{Type: domain.FrameLog, Data: &event})
			if err != nil {
				b.logger.Error("failed to marshal relay frame", "error", err, "event_id", event.ID)
				continue
			}
			b.broadcast(sseMessage{data: data})
		case <-ticker.C:
			now := time.Now()
			duration := now.Sub(lastTimestamp).Seconds()
			rate := 0.0
			if duration > 0 {
				rate = float64(currentCount) / duration
			}

			b.statsMu.Lock()
			b.lastStats.Rate = rate
			msg := b.lastStats
			b.statsMu.Unlock()

			jsonData, err := json.Marshal(msg)
			if err != nil {
				b.logger.Error("failed to marshal stats message", "error", err)
				continue
			}
			b.broadcast(sseMessage{event: "stats", data: jsonData})

			// Reset for the next interval
			lastTimestamp = now
			currentCount = 0
		}
	}
}
