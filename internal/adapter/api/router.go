package api

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/logmon/internal/adapter/api/handler"
	"github.com/V4T54L/logmon/internal/usecase"
)

// NewRouter creates and configures the HTTP router for the monitor API.
func NewRouter(monitor *usecase.Monitor, broker *handler.SSEBroker, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	monitorHandler := handler.NewMonitorHandler(monitor, logger)

	mux.HandleFunc("GET /health", monitorHandler.HealthCheck)

	// State
	mux.HandleFunc("GET /api/logs", monitorHandler.GetLogs)
	mux.HandleFunc("GET /api/sessions", monitorHandler.GetSessions)
	mux.HandleFunc("GET /api/status", monitorHandler.GetStatus)
	mux.HandleFunc("GET /api/export", monitorHandler.Export)

	// Control
	mux.HandleFunc("POST /api/scope", monitorHandler.SetScope)
	mux.HandleFunc("POST /api/clear", monitorHandler.Clear)

	// Relay
	mux.Handle("GET /events", broker)

	return mux
}
