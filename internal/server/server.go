// Package server implements the ops HTTP API: health, latest snapshot,
// posted-ban ledger, watermark reset, service restart and live game query.
package server

import (
	"net/http"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/storage"
)

// New creates a Server instance with the provided storage, monitor handle, and configuration.
func New(store *storage.Repository, mon MonitorControl, cfg *config.Config) *Server {
	return &Server{
		storage:        store,
		monitor:        mon,
		authToken:      cfg.Server.AuthToken,
		serviceUnit:    cfg.Control.Unit,
		gameOptions:    cfg.Game,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.Server.HardLimitCount,
		hardLimitWin:   cfg.Server.HardLimitWin,
	}
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(s.handleHealthz))
	mux.Handle("GET /api/status", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleStatus)))
	mux.Handle("GET /api/bans", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleBans)))
	mux.Handle("DELETE /api/bans", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleClearBans)))
	mux.Handle("POST /api/restart", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleRestart)))
	mux.Handle("GET /api/a2s", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleServerQuery)))

	return s.LoggingMiddleware(s.RateLimitMiddleware(mux))
}
