package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/control"
	"github.com/wardenhq/warden/internal/game"
	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/vars"
)

// handleHealthz reports liveness and build info. Unauthenticated.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"version": vars.Info(),
	})
}

// handleStatus returns the most recently parsed metrics snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.monitor.Latest()
	if snap == nil {
		http.Error(w, "No snapshot captured yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

// handleBans returns the posted-ban ledger, most recent first.
func (s *Server) handleBans(w http.ResponseWriter, _ *http.Request) {
	bans, err := s.storage.ListPostedBans()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch posted bans")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if bans == nil {
		bans = []models.PostedBan{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(bans)
}

// handleClearBans wipes the watermark ledger and asks the monitor loop to
// reload its in-memory set. Every active feed ban gets re-published after.
func (s *Server) handleClearBans(w http.ResponseWriter, _ *http.Request) {
	count, err := s.storage.ClearPostedBans()
	if err != nil {
		log.Error().Err(err).Msg("Failed to clear posted bans")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	s.monitor.RequestWatermarkReset()

	log.Info().Int64("cleared", count).Msg("Posted bans ledger cleared")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "cleared": count})
}

// handleRestart restarts the monitored game server's systemd unit.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if err := control.RestartService(r.Context(), s.serviceUnit); err != nil {
		log.Error().Err(err).Str("unit", s.serviceUnit).Msg("Service restart failed")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
		return
	}

	log.Info().Str("unit", s.serviceUnit).Msg("Service restarted via ops API")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "unit": s.serviceUnit})
}

// handleServerQuery performs a live A2S query. Query params ?ip and ?port
// override the configured probe target.
func (s *Server) handleServerQuery(w http.ResponseWriter, r *http.Request) {
	options := s.gameOptions

	if ip := r.URL.Query().Get("ip"); ip != "" {
		options.Address = ip
	}
	if portStr := r.URL.Query().Get("port"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			http.Error(w, "Invalid port", http.StatusBadRequest)
			return
		}
		options.Port = port
	}

	if options.Address == "" {
		http.Error(w, "Missing ip (no probe target configured)", http.StatusBadRequest)
		return
	}

	info, err := probeServer(options)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGatewayTimeout)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

// probeServer is indirected for tests.
var probeServer = func(options config.Game) (*models.ServerInfo, error) {
	return game.Probe(options)
}
