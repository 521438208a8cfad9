package monitor

import (
	"context"
	"time"

	"github.com/wardenhq/warden/internal/models"
)

// ConsoleSource captures the tail of the monitored server's console.
type ConsoleSource interface {
	Capture(ctx context.Context) (string, error)
}

// MessageSink sends and deletes channel messages. Send returns the id of
// the new message; Delete reports chat.ErrNotFound for an already-gone one.
type MessageSink interface {
	Send(ctx context.Context, channelID, content string) (string, error)
	Delete(ctx context.Context, channelID, messageID string) error
}

// BanFeed lists the remote ban page and validates credentials.
type BanFeed interface {
	ListBans(ctx context.Context) ([]models.BanEvent, error)
	Ping(ctx context.Context) error
}

// Store persists the publication state and the ban watermark. The monitor
// loop is its single writer; the ops API only reads and resets.
type Store interface {
	LastMessageID() (string, error)
	SetLastMessageID(id string) error
	PostedBanIDs() ([]string, error)
	AddPostedBan(ban models.PostedBan) error
}

// EventMirror forwards published telemetry to a secondary transport.
type EventMirror interface {
	PublishSnapshot(snap *models.Snapshot) error
	PublishBan(ban models.BanEvent) error
}

// GeoResolver maps IP addresses to country codes for ban enrichment.
type GeoResolver interface {
	Countries(ips []string) []string
}

// Prober returns live game server info for the status message footer.
type Prober func() (*models.ServerInfo, error)

// Clock abstracts time for the tick loop so tests can drive it.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker is the minimal ticker surface the loop needs.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}
