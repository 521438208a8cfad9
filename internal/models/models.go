// Package models defines the data structures shared between the parser,
// the monitor loop, the ban feed, and the persistence layer.
package models

import "time"

// Snapshot represents one parsed console capture at a point in time.
// All fields except FPS are optional in the source text and default to zero.
type Snapshot struct {
	// CapturedAt is the wall-clock time the console window was captured.
	CapturedAt time.Time `json:"captured_at"`

	// FPS is the simulation frame rate. It is the only mandatory field:
	// a capture without it does not produce a Snapshot at all.
	FPS float64 `json:"fps"`

	// Frame times in milliseconds, from the performance summary line.
	FrameTimeAvg float64 `json:"frame_time_avg"`
	FrameTimeMin float64 `json:"frame_time_min"`
	FrameTimeMax float64 `json:"frame_time_max"`

	// Memory is the process memory usage in KB.
	Memory int64 `json:"memory"`

	// Population counters.
	Players  int `json:"players"`
	AI       int `json:"ai"`
	Vehicles int `json:"vehicles"`

	// Derived network counters, counted over the whole capture window.
	TotalClients      int `json:"total_clients"`
	PacketLossClients int `json:"packet_loss_clients"`
}

// BanEvent is a single entry of the remote ban feed. ID is the stable
// identity used for dedup; everything else is presentation data.
type BanEvent struct {
	Expires *time.Time `json:"expires,omitempty"`
	ID      string     `json:"id"`
	Player  string     `json:"player"`
	Reason  string     `json:"reason"`
	IPs     []string   `json:"ips,omitempty"`
}

// PostedBan is a watermark ledger row: a ban that has already been
// published to the notification channel.
type PostedBan struct {
	PostedAt time.Time `json:"posted_at"`
	BanID    string    `json:"ban_id"`
	Player   string    `json:"player"`
	Reason   string    `json:"reason"`
}

// ServerInfo carries the optional live A2S probe result attached to a
// status message.
type ServerInfo struct {
	Name       string `json:"name"`
	Map        string `json:"map"`
	Players    byte   `json:"players"`
	MaxPlayers byte   `json:"max_players"`
}
