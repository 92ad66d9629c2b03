package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/V4T54L/logmon/internal/adapter/metrics"
	"github.com/V4T54L/logmon/internal/adapter/stream"
	"github.com/V4T54L/logmon/internal/domain"
)

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	MaxLogs        int
	AutoStart      bool
	ReconnectDelay time.Duration
	Scope          string
	ExportDir      string
	ExportPrefix   string
}

// Status summarizes the monitor for status endpoints and the CLI.
type Status struct {
	State      string                       `json:"state"`
	Connected  bool                         `json:"connected"`
	Scope      string                       `json:"scope"`
	Attempts   int64                        `json:"attempts"`
	Dropped    int64                        `json:"dropped"`
	BufferSize int                          `json:"bufferSize"`
	MaxLogs    int                          `json:"maxLogs"`
	Sessions   map[domain.SessionStatus]int `json:"sessions"`
}

// Monitor bundles the feed connection, the event buffer, the session
// aggregator and the notifier behind one explicitly owned handle.
//
// Every incoming frame runs to completion (append, aggregate, publish) under
// pipeMu before the next one is handled. Readers use the last published
// snapshot and never wait on the pipeline.
type Monitor struct {
	cfg      MonitorConfig
	buffer   *EventBuffer
	sessions *SessionAggregator
	notifier *Notifier
	exporter *ExportService
	conn     *stream.Connection
	logger   *slog.Logger
	metrics  *metrics.MonitorMetrics

	pipeMu sync.Mutex
	latest atomic.Pointer[domain.Snapshot]

	ctxMu  sync.Mutex
	runCtx context.Context
}

// NewMonitor creates a stopped monitor reading from transport. exporter and m
// may be nil.
func NewMonitor(cfg MonitorConfig, transport domain.FeedTransport, exporter *ExportService, logger *slog.Logger, m *metrics.MonitorMetrics) *Monitor {
	if cfg.MaxLogs <= 0 {
		cfg.MaxLogs = DefaultMaxLogs
	}
	if cfg.ExportPrefix == "" {
		cfg.ExportPrefix = "ai-logs"
	}
	if exporter == nil {
		exporter = NewExportService(nil, logger, m)
	}

	mon := &Monitor{
		cfg:      cfg,
		buffer:   NewEventBuffer(cfg.MaxLogs),
		sessions: NewSessionAggregator(nil),
		notifier: NewNotifier(),
		exporter: exporter,
		logger:   logger.With("component", "monitor"),
		metrics:  m,
		runCtx:   context.Background(),
	}
	mon.conn = stream.NewConnection(transport, mon, logger, m, cfg.ReconnectDelay)
	mon.latest.Store(&domain.Snapshot{
		Logs:     []domain.LogEvent{},
		Sessions: []domain.Session{},
		TakenAt:  time.Now().UTC(),
	})
	return mon
}

// Run starts the connection when AutoStart is set and blocks until ctx is
// done, then stops it.
func (m *Monitor) Run(ctx context.Context) {
	if m.cfg.AutoStart {
		m.Start(ctx, m.cfg.Scope)
	}
	<-ctx.Done()
	m.Stop()
}

// Start (re)connects to the feed, scoped to one session when scope is set.
// ctx bounds the lifetime of this and later scope changes.
func (m *Monitor) Start(ctx context.Context, scope string) {
	m.ctxMu.Lock()
	m.runCtx = ctx
	m.ctxMu.Unlock()

	m.logger.Info("starting feed connection", "scope", scope)
	m.conn.Start(ctx, scope)
}

// Stop closes the feed connection and cancels any pending reconnect.
func (m *Monitor) Stop() {
	m.conn.Stop()
}

// SetScope switches the feed to a different session scope. The old
// connection is fully stopped before the new one starts, so no frame is
// attributed to the wrong scope.
func (m *Monitor) SetScope(scope string) {
	m.ctxMu.Lock()
	ctx := m.runCtx
	m.ctxMu.Unlock()

	m.conn.Stop()
	m.logger.Info("changing feed scope", "scope", scope)
	m.conn.Start(ctx, scope)
}

// Scope returns the current session scope; empty means the whole feed.
func (m *Monitor) Scope() string {
	return m.conn.Scope()
}

// Connected reports whether the feed is currently streaming.
func (m *Monitor) Connected() bool {
	return m.conn.Connected()
}

// HandleFrame runs one log frame through the pipeline. It is called by the
// connection goroutine and may also be called directly to inject events.
func (m *Monitor) HandleFrame(frame domain.Frame) {
	if frame.Type != domain.FrameLog || frame.Data == nil {
		return
	}
	event := *frame.Data

	m.pipeMu.Lock()
	defer m.pipeMu.Unlock()

	evicted := m.buffer.Append(event)
	m.sessions.Apply(event)

	if m.metrics != nil && evicted > 0 {
		m.metrics.EvictionsTotal.Add(float64(evicted))
	}
	m.publishLocked()
}

// Clear empties both the event buffer and the session map.
func (m *Monitor) Clear() {
	m.pipeMu.Lock()
	defer m.pipeMu.Unlock()

	m.buffer.Clear()
	m.sessions.Clear()
	m.logger.Info("cleared logs and sessions")
	m.publishLocked()
}

// ClearLogs empties the event buffer only. Sessions keep their counters.
func (m *Monitor) ClearLogs() {
	m.pipeMu.Lock()
	defer m.pipeMu.Unlock()

	m.buffer.Clear()
	m.logger.Info("cleared logs")
	m.publishLocked()
}

func (m *Monitor) publishLocked() {
	snap := &domain.Snapshot{
		Logs:      m.buffer.Snapshot(),
		Appended:  m.buffer.Appended(),
		Sessions:  m.sessions.Sessions(),
		Connected: m.conn.Connected(),
		Dropped:   m.conn.Dropped(),
		TakenAt:   time.Now().UTC(),
	}
	m.latest.Store(snap)

	if m.metrics != nil {
		m.metrics.BufferSize.Set(float64(len(snap.Logs)))
		for status, n := range m.sessions.CountByStatus() {
			m.metrics.Sessions.WithLabelValues(string(status)).Set(float64(n))
		}
	}

	m.notifier.Publish(*snap)
}

// Subscribe registers sub for every future snapshot. Callbacks run on the
// pipeline goroutine and must not call Start, Stop, SetScope or Clear.
func (m *Monitor) Subscribe(sub Subscriber) *Subscription {
	return m.notifier.Subscribe(sub)
}

// Snapshot returns the most recently published state with a live connection
// flag.
func (m *Monitor) Snapshot() domain.Snapshot {
	snap := *m.latest.Load()
	snap.Connected = m.conn.Connected()
	snap.Dropped = m.conn.Dropped()
	return snap
}

// Logs returns the buffered events matching filter.
func (m *Monitor) Logs(filter domain.Filter) []domain.LogEvent {
	return filter.Apply(m.Snapshot().Logs)
}

// Sessions returns every known session in first-seen order.
func (m *Monitor) Sessions() []domain.Session {
	return m.Snapshot().Sessions
}

// Status returns a summary of the connection and buffer state.
func (m *Monitor) Status() Status {
	snap := m.Snapshot()
	counts := map[domain.SessionStatus]int{
		domain.SessionActive:    0,
		domain.SessionCompleted: 0,
		domain.SessionFailed:    0,
	}
	for _, s := range snap.Sessions {
		counts[s.Status]++
	}
	return Status{
		State:      m.conn.State().String(),
		Connected:  snap.Connected,
		Scope:      m.conn.Scope(),
		Attempts:   m.conn.Attempts(),
		Dropped:    snap.Dropped,
		BufferSize: len(snap.Logs),
		MaxLogs:    m.buffer.MaxLogs(),
		Sessions:   counts,
	}
}

// Export writes the events matching filter, plus all sessions, to w.
func (m *Monitor) Export(w io.Writer, format string, filter domain.Filter) error {
	snap := m.Snapshot()
	return m.exporter.Export(w, format, filter.Apply(snap.Logs), snap.Sessions)
}

// ExportFile writes the export into the configured directory and returns the
// file path.
func (m *Monitor) ExportFile(format string, filter domain.Filter) (string, error) {
	snap := m.Snapshot()
	dir := m.cfg.ExportDir
	if dir == "" {
		dir = "."
	}
	return m.exporter.WriteFile(dir, m.cfg.ExportPrefix, format, filter.Apply(snap.Logs), snap.Sessions)
}

// ExportPrefix returns the file name prefix used for exports.
func (m *Monitor) ExportPrefix() string {
	return m.cfg.ExportPrefix
}
