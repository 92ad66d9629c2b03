package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/V4T54L/logmon/internal/adapter/metrics"
	"github.com/V4T54L/logmon/internal/domain"
)

// DefaultReconnectDelay is the fixed wait between connection attempts.
const DefaultReconnectDelay = 3 * time.Second

// errStreamClosed reports that the feed ended the response without an error.
var errStreamClosed = errors.New("feed closed the stream")

// State is the lifecycle state of a Connection.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateBackoff
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// FrameHandler receives decoded log frames, one at a time, in arrival order.
type FrameHandler interface {
	HandleFrame(frame domain.Frame)
}

// FrameHandlerFunc adapts a plain function to FrameHandler.
type FrameHandlerFunc func(frame domain.Frame)

func (f FrameHandlerFunc) HandleFrame(frame domain.Frame) { f(frame) }

// Connection owns the single active subscription to the log feed and
// re-establishes it after every failure until Stop is called.
//
// Frames are delivered on the connection's own goroutine. Start and Stop wait
// for that goroutine to exit, so a handler must never call them directly.
type Connection struct {
	transport domain.FeedTransport
	handler   FrameHandler
	logger    *slog.Logger
	metrics   *metrics.MonitorMetrics
	delay     time.Duration

	mu     sync.Mutex // serializes Start/Stop
	cancel context.CancelFunc
	done   chan struct{}

	scope     atomic.Value // string
	state     atomic.Int32
	connected atomic.Bool
	attempts  atomic.Int64
	dropped   atomic.Int64
}

// NewConnection creates an idle connection. A non-positive delay uses
// DefaultReconnectDelay; m may be nil.
func NewConnection(transport domain.FeedTransport, handler FrameHandler, logger *slog.Logger, m *metrics.MonitorMetrics, delay time.Duration) *Connection {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &Connection{
		transport: transport,
		handler:   handler,
		logger:    logger.With("component", "stream_connection"),
		metrics:   m,
		delay:     delay,
	}
}

// Start tears down any existing subscription and opens a new one, scoped to
// a single session when scope is non-empty. It returns immediately; the
// connection runs until Stop is called or ctx is cancelled.
func (c *Connection) Start(ctx context.Context, scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.scope.Store(scope)
	c.setState(StateConnecting)

	go c.run(runCtx, scope, done)
}

// Stop closes the active transport, cancels any pending retry and waits for
// the connection goroutine to exit. No connection attempt is made after Stop
// returns. Stop is idempotent and safe in every state.
func (c *Connection) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Connection) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
		c.cancel = nil
		c.done = nil
		c.logger.Info("feed connection stopped", "scope", c.Scope())
	}
	c.setConnected(false)
	c.setState(StateStopped)
}

func (c *Connection) run(ctx context.Context, scope string, done chan struct{}) {
	defer close(done)
	defer c.setState(StateStopped)

	for first := true; ; first = false {
		c.setState(StateConnecting)
		c.attempts.Add(1)
		if c.metrics != nil {
			c.metrics.ConnectionAttempts.Inc()
			if !first {
				c.metrics.Reconnects.Inc()
			}
		}

		err := c.consume(ctx, scope)
		c.setConnected(false)
		if ctx.Err() != nil {
			return
		}

		c.setState(StateBackoff)
		c.logger.Warn("feed connection lost, retrying", "error", err, "scope", scope, "retry_in", c.delay)

		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// consume opens the feed and dispatches frames until the stream fails or ctx
// ends. It always returns a non-nil error.
func (c *Connection) consume(ctx context.Context, scope string) error {
	body, err := c.transport.Open(ctx, scope)
	if err != nil {
		return err
	}
	defer body.Close()

	// Unblock a pending Read as soon as the connection is stopped.
	stopClose := context.AfterFunc(ctx, func() { body.Close() })
	defer stopClose()

	scanner := newSSEScanner(body)
	for scanner.Next() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.dispatch(scanner.Event(), scope)
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to read feed: %w", err)
	}
	return errStreamClosed
}

func (c *Connection) dispatch(event sseEvent, scope string) {
	// Named events (such as relay stats) are not part of the frame protocol.
	if event.Name != "" && event.Name != "message" {
		c.countFrame("ignored")
		return
	}

	if event.Oversize {
		c.dropped.Add(1)
		c.countFrame("malformed")
		c.logger.Warn("dropping oversize frame", "limit_bytes", maxEventSize, "event_id", event.ID)
		return
	}

	frame, err := domain.DecodeFrame([]byte(event.Data))
	if err != nil {
		c.dropped.Add(1)
		c.countFrame("malformed")
		c.logger.Warn("dropping malformed frame", "error", err, "event_id", event.ID)
		return
	}
	c.countFrame(frame.Type)

	if c.State() != StateStreaming {
		c.setState(StateStreaming)
		c.setConnected(true)
		c.logger.Info("feed connected", "scope", scope)
	}

	switch frame.Type {
	case domain.FrameConnected:
		c.logger.Debug("feed acknowledged subscription", "message", frame.Message)
	case domain.FrameLog:
		c.handler.HandleFrame(frame)
	}
}

func (c *Connection) countFrame(kind string) {
	if c.metrics != nil {
		c.metrics.FramesTotal.WithLabelValues(kind).Inc()
	}
}

func (c *Connection) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Connection) setConnected(v bool) {
	c.connected.Store(v)
	if c.metrics != nil {
		if v {
			c.metrics.Connected.Set(1)
		} else {
			c.metrics.Connected.Set(0)
		}
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// Connected reports whether the feed is currently streaming. It is purely
// observational.
func (c *Connection) Connected() bool {
	return c.connected.Load()
}

// Scope returns the session scope of the most recent Start.
func (c *Connection) Scope() string {
	scope, _ := c.scope.Load().(string)
	return scope
}

// Attempts returns the total number of connection attempts made.
func (c *Connection) Attempts() int64 {
	return c.attempts.Load()
}

// Dropped returns the number of malformed frames discarded.
func (c *Connection) Dropped() int64 {
	return c.dropped.Load()
}
