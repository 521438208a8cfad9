package monitor

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/wardenhq/warden/internal/chat"
	"github.com/wardenhq/warden/internal/models"
)

// reconcile publishes every feed event not yet in the watermark, in feed
// order, and returns how many went out. Each event is published first and
// recorded second, so a crash in between re-publishes at most that one
// event on the next pass and never drops one.
func (m *Monitor) reconcile(ctx context.Context, events []models.BanEvent) int {
	published := 0

	for _, event := range events {
		key := xxhash.Sum64String(event.ID)
		if _, ok := m.seen[key]; ok {
			continue
		}

		var countries []string
		if m.geo != nil && len(event.IPs) > 0 {
			countries = m.geo.Countries(event.IPs)
		}

		if _, err := m.sink.Send(ctx, m.bansChannel, chat.FormatBan(event, countries)); err != nil {
			// stop here: the unrecorded tail keeps feed order on retry
			log.Error().Err(err).Str("ban_id", event.ID).Msg("Failed to publish ban, will retry next tick")
			return published
		}

		m.seen[key] = struct{}{}
		if err := m.store.AddPostedBan(models.PostedBan{
			BanID:    event.ID,
			Player:   event.Player,
			Reason:   event.Reason,
			PostedAt: m.clock.Now(),
		}); err != nil {
			log.Error().Err(err).Str("ban_id", event.ID).Msg("Failed to persist posted ban")
		}

		if m.mirror != nil {
			if err := m.mirror.PublishBan(event); err != nil {
				log.Warn().Err(err).Str("ban_id", event.ID).Msg("Failed to mirror ban to event bus")
			}
		}

		log.Info().
			Str("ban_id", event.ID).
			Str("player", event.Player).
			Msg("Posted new ban")

		published++
	}

	return published
}
