package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type logEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Module    string         `json:"module"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	SessionID string         `json:"sessionId"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type frame struct {
	Type    string    `json:"type"`
	Message string    `json:"message,omitempty"`
	Data    *logEvent `json:"data,omitempty"`
}

var questions = []string{
	"How do I rotate the signing keys?",
	"Why did the nightly import fail?",
	"Summarize last week's incidents",
	"Which customers use the legacy API?",
}

var steps = []struct {
	level   string
	module  string
	message string
}{
	{"PROCESSING", "planner", "building query plan"},
	{"DEBUG", "retriever", "querying vector index"},
	{"INFO", "retriever", "retrieved candidate documents"},
	{"ANALYSIS", "scorer", "ranked candidates"},
	{"PROCESSING", "generator", "drafting answer"},
}

// hub fans generated events out to every connected client.
type hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]string
}

func (h *hub) add(scope string) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[ch] = scope
	h.mu.Unlock()
	return ch
}

func (h *hub) remove(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *hub) publish(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, scope := range h.clients {
		if scope != "" && scope != sessionID {
			continue
		}
		select {
		case ch <- payload:
		default:
		}
	}
}

// session walks a question through the pipeline steps and finishes with a
// terminal SUCCESS or ERROR event.
type session struct {
	id         string
	questionID string
	step       int
}

func main() {
	addr := flag.String("addr", ":3001", "Listen address")
	path := flag.String("path", "/api/logs/stream", "SSE endpoint path")
	rps := flag.Float64("rps", 5, "Events per second")
	concurrent := flag.Int("sessions", 3, "Number of concurrently running sessions")
	failRate := flag.Float64("fail-rate", 0.2, "Fraction of sessions ending in ERROR")
	malformedRate := flag.Float64("malformed-rate", 0, "Fraction of frames sent as invalid JSON")
	dropAfter := flag.Duration("drop-after", 0, "Close every client connection after this long (0 keeps it open)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := &hub{clients: make(map[chan []byte]string)}
	var sent atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+*path, func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
			return
		}
		scope := r.URL.Query().Get("sessionId")

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ch := h.add(scope)
		defer h.remove(ch)
		log.Printf("client connected (scope=%q)", scope)

		hello, _ := json.Marshal(frame{Type: "connected", Message: "feed-simulator"})
		fmt.Fprintf(w, "data: %s\n\n", hello)
		flusher.Flush()

		var drop <-chan time.Time
		if *dropAfter > 0 {
			timer := time.NewTimer(*dropAfter)
			defer timer.Stop()
			drop = timer.C
		}

		for {
			select {
			case <-r.Context().Done():
				log.Printf("client disconnected (scope=%q)", scope)
				return
			case <-drop:
				log.Printf("dropping client (scope=%q)", scope)
				return
			case payload := <-ch:
				fmt.Fprintf(w, "data: %s\n\n", payload)
				flusher.Flush()
			}
		}
	})

	server := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		log.Printf("Starting feed simulator on %s%s", *addr, *path)
		log.Printf("Rate: %.1f events/s, Sessions: %d, Fail rate: %.2f", *rps, *concurrent, *failRate)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(*rps), 1)
	active := make([]*session, *concurrent)
	for i := range active {
		active[i] = newSession()
	}

	for {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		slot := rand.Intn(len(active))
		s := active[slot]
		event, done := s.next(*failRate)
		if done {
			active[slot] = newSession()
		}

		var payload []byte
		if rand.Float64() < *malformedRate {
			payload = []byte(`{"type":"log","data":`)
		} else {
			var err error
			payload, err = json.Marshal(frame{Type: "log", Data: &event})
			if err != nil {
				log.Printf("failed to marshal event: %v", err)
				continue
			}
		}
		h.publish(event.SessionID, payload)
		sent.Add(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)

	log.Println("Feed simulator stopped.")
	log.Printf("Events generated: %d", sent.Load())
}

func newSession() *session {
	return &session{id: "session-" + uuid.NewString()[:8], questionID: uuid.NewString()}
}

// next returns the session's next event and whether it was the last one.
func (s *session) next(failRate float64) (logEvent, bool) {
	event := logEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		SessionID: s.id,
	}
	defer func() { s.step++ }()

	switch {
	case s.step == 0:
		event.Level = "INFO"
		event.Module = "gateway"
		event.Message = "received question"
		event.Metadata = map[string]any{
			"question":   questions[rand.Intn(len(questions))],
			"questionId": s.questionID,
		}
		return event, false
	case s.step <= len(steps):
		st := steps[s.step-1]
		event.Level = st.level
		event.Module = st.module
		event.Message = st.message
		event.Metadata = map[string]any{"processingTime": rand.Intn(900) + 50}
		if st.level == "ANALYSIS" {
			event.Metadata["confidence"] = rand.Float64()
		}
		return event, false
	default:
		event.Module = "generator"
		event.Metadata = map[string]any{"sessionEnd": true}
		if rand.Float64() < failRate {
			event.Level = "ERROR"
			event.Message = "generation failed"
			event.Details = "upstream model timed out"
		} else {
			event.Level = "SUCCESS"
			event.Message = "answer delivered"
		}
		return event, true
	}
}
