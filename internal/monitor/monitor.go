// Package monitor drives the polling loop: capture the console, parse it,
// replace the live status message, and reconcile the remote ban feed
// against the persisted watermark. One goroutine owns the loop; a tick
// never overlaps the previous one, and no error escapes a tick.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/wardenhq/warden/internal/feed"
	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/snapshot"
)

// Options bundles the collaborators and settings of a Monitor. Feed, Geo,
// Mirror and Probe are optional; the matching tick portions are skipped
// when they are nil.
type Options struct {
	Console       ConsoleSource
	Sink          MessageSink
	Feed          BanFeed
	Store         Store
	Mirror        EventMirror
	Geo           GeoResolver
	Probe         Prober
	Clock         Clock
	StatusChannel string
	BansChannel   string
	Interval      time.Duration
}

// Monitor owns the publication state and the ban watermark. All four are
// mutated only from the tick loop; the ops API interacts through Latest
// and RequestWatermarkReset.
type Monitor struct {
	console ConsoleSource
	sink    MessageSink
	feed    BanFeed
	store   Store
	mirror  EventMirror
	geo     GeoResolver
	probe   Prober
	clock   Clock

	statusChannel string
	bansChannel   string
	interval      time.Duration

	// lastMessageID is the replacement-protocol state: the previously sent
	// status message, empty when none is live.
	lastMessageID string

	// seen is the in-memory ban watermark, hashed ids backed by the
	// posted_bans table.
	seen map[uint64]struct{}

	// reload asks the loop to rebuild seen from storage at the next tick
	// top. Set by the ops API after a watermark reset.
	reload atomic.Bool

	mu     sync.RWMutex
	latest *models.Snapshot
}

// New builds a Monitor and restores the publication state and watermark
// from storage.
func New(opts Options) (*Monitor, error) {
	m := &Monitor{
		console:       opts.Console,
		sink:          opts.Sink,
		feed:          opts.Feed,
		store:         opts.Store,
		mirror:        opts.Mirror,
		geo:           opts.Geo,
		probe:         opts.Probe,
		clock:         opts.Clock,
		statusChannel: opts.StatusChannel,
		bansChannel:   opts.BansChannel,
		interval:      opts.Interval,
	}

	if m.clock == nil {
		m.clock = realClock{}
	}

	lastID, err := m.store.LastMessageID()
	if err != nil {
		return nil, err
	}
	m.lastMessageID = lastID

	if err := m.loadWatermark(); err != nil {
		return nil, err
	}

	return m, nil
}

// Run executes the tick loop until the context is cancelled. The first tick
// fires immediately; cancellation is observed at the top of the next
// iteration, never mid-tick.
func (m *Monitor) Run(ctx context.Context) {
	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", m.interval).
		Bool("ban_feed", m.feed != nil).
		Msg("Monitor loop started")

	for {
		// cancellation takes effect at the top of the next iteration, not
		// mid-call; in-flight calls are bounded by transport timeouts only
		m.tick(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			log.Info().Msg("Monitor loop stopped")
			return
		case <-ticker.Chan():
		}
	}
}

// tick runs one iteration. The metrics and ban portions are independent:
// a console or parse failure does not prevent ban reconciliation.
func (m *Monitor) tick(ctx context.Context) {
	if m.reload.Swap(false) {
		if err := m.loadWatermark(); err != nil {
			log.Error().Err(err).Msg("Failed to reload ban watermark")
		} else {
			log.Info().Msg("Ban watermark reloaded from storage")
		}
	}

	m.tickStatus(ctx)

	if m.feed != nil {
		m.tickBans(ctx)
	}
}

// tickStatus captures, parses and republishes the status message.
func (m *Monitor) tickStatus(ctx context.Context) {
	raw, err := m.console.Capture(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Console capture failed")
		return
	}

	snap, err := snapshot.Parse(raw)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSummaryLine) {
			log.Warn().Msg("No performance summary in console window")
		} else {
			log.Error().Err(err).Msg("Failed to parse console capture")
		}
		return
	}

	m.setLatest(snap)

	if m.mirror != nil {
		if err := m.mirror.PublishSnapshot(snap); err != nil {
			log.Warn().Err(err).Msg("Failed to mirror snapshot to event bus")
		}
	}

	var info *models.ServerInfo
	if m.probe != nil {
		if info, err = m.probe(); err != nil {
			log.Debug().Err(err).Msg("A2S probe failed, status message sent without live info")
			info = nil
		}
	}

	if err := m.publishStatus(ctx, snap, info); err != nil {
		log.Error().Err(err).Msg("Failed to publish status message")
		return
	}

	log.Debug().
		Float64("fps", snap.FPS).
		Int("players", snap.Players).
		Msg("Status message published")
}

// tickBans fetches the remote ban page and publishes unseen entries.
func (m *Monitor) tickBans(ctx context.Context) {
	events, err := m.feed.ListBans(ctx)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrForbidden):
			log.Error().Err(err).Msg("Ban feed rejected credentials")
			m.validateFeed(ctx)
		case errors.Is(err, feed.ErrRateLimited):
			log.Warn().Err(err).Msg("Ban feed rate limited, skipping this tick")
		default:
			log.Error().Err(err).Msg("Failed to fetch ban feed")
		}
		return
	}

	if published := m.reconcile(ctx, events); published > 0 {
		log.Info().Int("count", published).Msg("New bans published")
	}
}

// validateFeed runs the diagnostic credentials check after a Forbidden
// response. Purely informational, scheduling is unaffected.
func (m *Monitor) validateFeed(ctx context.Context) {
	if err := m.feed.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Feed validation failed, check the API token")
		return
	}

	log.Info().Msg("Feed validation succeeded, token likely lacks ban list permission")
}

// Latest returns a copy of the most recently parsed snapshot, nil when no
// capture has parsed yet.
func (m *Monitor) Latest() *models.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latest == nil {
		return nil
	}

	snap := *m.latest
	return &snap
}

// RequestWatermarkReset schedules a watermark reload from storage at the
// next tick top. Called by the ops API after clearing the posted_bans
// table, keeping the loop the only writer of the in-memory set.
func (m *Monitor) RequestWatermarkReset() {
	m.reload.Store(true)
}

func (m *Monitor) setLatest(snap *models.Snapshot) {
	m.mu.Lock()
	m.latest = snap
	m.mu.Unlock()
}

// loadWatermark rebuilds the in-memory hashed id set from storage.
func (m *Monitor) loadWatermark() error {
	ids, err := m.store.PostedBanIDs()
	if err != nil {
		return err
	}

	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		seen[xxhash.Sum64String(id)] = struct{}{}
	}
	m.seen = seen

	return nil
}
