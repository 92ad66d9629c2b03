package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/V4T54L/logmon/internal/adapter/export"
	"github.com/V4T54L/logmon/internal/domain"
	"github.com/V4T54L/logmon/internal/usecase"
)

// MonitorHandler exposes the monitor state over HTTP.
type MonitorHandler struct {
	monitor *usecase.Monitor
	logger  *slog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(monitor *usecase.Monitor, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{monitor: monitor, logger: logger.With("component", "monitor_handler")}
}

// HealthCheck is a simple health check endpoint.
func (h *MonitorHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetLogs returns the buffered events matching the query filter.
// GET /api/logs?level={level}&module={module}&sessionId={id}&q={text}
func (h *MonitorHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.respondWithJSON(w, http.StatusOK, h.monitor.Logs(filter))
}

// GetSessions returns every known session in first-seen order.
// GET /api/sessions
func (h *MonitorHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.monitor.Sessions())
}

// GetStatus returns the connection and buffer summary.
// GET /api/status
func (h *MonitorHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.monitor.Status())
}

// SetScope reconnects the feed for one session, or for the whole feed when
// sessionId is empty.
// POST /api/scope?sessionId={id}
func (h *MonitorHandler) SetScope(w http.ResponseWriter, r *http.Request) {
	scope := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	h.monitor.SetScope(scope)
	h.respondWithJSON(w, http.StatusOK, h.monitor.Status())
}

// Clear empties the buffer, and the sessions too unless logsOnly is set.
// POST /api/clear?logsOnly={bool}
func (h *MonitorHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("logsOnly") == "true" {
		h.monitor.ClearLogs()
	} else {
		h.monitor.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export streams the filtered events and all sessions as a downloadable file.
// GET /api/export?format={json|jsonl|yaml|md}&level=...
func (h *MonitorHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format := r.URL.Query().Get("format")
	enc, err := export.NewEncoder(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := h.monitor.Export(&buf, format, filter); err != nil {
		h.logger.Error("failed to export logs", "error", err, "format", format)
		if errors.Is(err, export.ErrUnsupportedFormat) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	name := usecase.FileName(h.monitor.ExportPrefix(), time.Now().UTC(), enc.Extension())
	w.Header().Set("Content-Type", enc.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func filterFromQuery(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()
	filter := domain.Filter{
		Module:     q.Get("module"),
		SessionID:  q.Get("sessionId"),
		SearchText: q.Get("q"),
	}
	if level := q.Get("level"); level != "" {
		filter.Level = domain.Level(strings.ToUpper(level))
		if !filter.Level.Valid() {
			return domain.Filter{}, fmt.Errorf("invalid level %q", level)
		}
	}
	return filter, nil
}

func (h *MonitorHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal JSON response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
