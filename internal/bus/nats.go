// Package bus mirrors snapshots and ban events onto a NATS subject tree as
// JSON envelopes, for machine consumers that do not read the chat channel.
package bus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/vars"
)

// Publisher publishes telemetry envelopes to NATS. A nil Publisher is valid
// and drops everything, so callers need no enabled-checks.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// envelope is the wire format of every published event.
type envelope struct {
	Time    time.Time   `json:"time"`
	Data    interface{} `json:"data"`
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Source  string      `json:"source"`
	Version string      `json:"version"`
}

// Connect dials the NATS server and returns a Publisher rooted at the given
// subject prefix.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(vars.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, subject: subject}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}

// PublishSnapshot mirrors a parsed metrics snapshot on <prefix>.metrics.
func (p *Publisher) PublishSnapshot(snap *models.Snapshot) error {
	if p == nil {
		return nil
	}

	return p.publish(p.subject+".metrics", "warden.snapshot", snap)
}

// PublishBan mirrors a newly published ban event on <prefix>.bans.
func (p *Publisher) PublishBan(ban models.BanEvent) error {
	if p == nil {
		return nil
	}

	return p.publish(p.subject+".bans", "warden.ban", ban)
}

func (p *Publisher) publish(subject, eventType string, data interface{}) error {
	env := envelope{
		ID:      uuid.New().String(),
		Type:    eventType,
		Source:  vars.Name,
		Version: vars.Version,
		Time:    time.Now().UTC(),
		Data:    data,
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return p.conn.Publish(subject, payload)
}
