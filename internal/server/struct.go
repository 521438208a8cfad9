package server

import (
	"time"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/storage"
)

// MonitorControl is the slice of the monitor loop the ops API talks to.
// Snapshots are read through a copy; watermark resets are requested, never
// applied directly, preserving the loop's single-writer discipline.
type MonitorControl interface {
	Latest() *models.Snapshot
	RequestWatermarkReset()
}

// Server holds the dependencies, configuration, and runtime state required
// to handle ops API requests.
type Server struct {
	// storage provides read access to the posted-ban ledger and state.
	storage *storage.Repository

	// monitor exposes the latest snapshot and the watermark reset hook.
	monitor MonitorControl

	// authToken is the secret token required to access the ops endpoints.
	authToken string

	// serviceUnit is the systemd unit restarted by POST /api/restart.
	serviceUnit string

	// gameOptions holds A2S settings for the live query endpoint.
	gameOptions config.Game

	// hardLimitCount is the maximum number of requests allowed per IP
	// address within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the rate limiter.
	hardLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like
	// X-Forwarded-For when determining the client's real IP address.
	trustProxy bool
}
