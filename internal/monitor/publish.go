package monitor

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/wardenhq/warden/internal/chat"
	"github.com/wardenhq/warden/internal/models"
)

// publishStatus keeps exactly one status message live in steady state:
// best-effort delete of the previous message, then send the new one. A
// crash between the two can leave zero or two messages; that race is
// accepted and not corrected retroactively.
func (m *Monitor) publishStatus(ctx context.Context, snap *models.Snapshot, info *models.ServerInfo) error {
	if m.lastMessageID != "" {
		err := m.sink.Delete(ctx, m.statusChannel, m.lastMessageID)
		switch {
		case err == nil:
			log.Debug().Str("message_id", m.lastMessageID).Msg("Deleted previous status message")
		case errors.Is(err, chat.ErrNotFound):
			// already gone
			log.Warn().Str("message_id", m.lastMessageID).Msg("Previous status message not found")
		default:
			// deletion failures never block re-publication
			log.Error().Err(err).Str("message_id", m.lastMessageID).Msg("Failed to delete previous status message")
		}
	}

	id, err := m.sink.Send(ctx, m.statusChannel, chat.FormatStatus(snap, info))
	if err != nil {
		// the old message may already be gone at this point; the stale id
		// resolves as NotFound on the next tick's delete
		return err
	}

	m.lastMessageID = id

	if err := m.store.SetLastMessageID(id); err != nil {
		// in-memory state still advances; divergence on crash is accepted
		log.Error().Err(err).Msg("Failed to persist status message id")
	}

	return nil
}
