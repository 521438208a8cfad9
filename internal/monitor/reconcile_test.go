package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardenhq/warden/internal/models"
)

func banEvents(ids ...string) []models.BanEvent {
	events := make([]models.BanEvent, 0, len(ids))
	for _, id := range ids {
		events = append(events, models.BanEvent{ID: id, Player: "Player-" + id, Reason: "cheating"})
	}
	return events
}

func TestReconcileEmptyWatermarkPublishesAll(t *testing.T) {
	sink := &fakeSink{}
	store := &fakeStore{}
	m := newTestMonitor(t, Options{Sink: sink, Store: store})

	published := m.reconcile(context.Background(), banEvents("a", "b"))

	assert.Equal(t, 2, published)
	require.Len(t, sink.sent, 2)
	assert.Contains(t, sink.sent[0].content, "Player-a")
	assert.Contains(t, sink.sent[1].content, "Player-b")
	assert.Len(t, store.bans, 2)
}

func TestReconcileSameResponseTwiceIsIdempotent(t *testing.T) {
	sink := &fakeSink{}
	store := &fakeStore{}
	m := newTestMonitor(t, Options{Sink: sink, Store: store})

	events := banEvents("a", "b")
	assert.Equal(t, 2, m.reconcile(context.Background(), events))
	assert.Equal(t, 0, m.reconcile(context.Background(), events))

	assert.Len(t, sink.sent, 2)
	assert.Len(t, store.bans, 2)
}

func TestReconcileNeverRepublishesAcrossCalls(t *testing.T) {
	sink := &fakeSink{}
	m := newTestMonitor(t, Options{Sink: sink})

	m.reconcile(context.Background(), banEvents("a"))
	m.reconcile(context.Background(), banEvents("a", "b"))
	m.reconcile(context.Background(), banEvents("b", "c", "a"))

	// every id went out exactly once
	require.Len(t, sink.sent, 3)
	assert.Contains(t, sink.sent[0].content, "Player-a")
	assert.Contains(t, sink.sent[1].content, "Player-b")
	assert.Contains(t, sink.sent[2].content, "Player-c")
}

func TestReconcileWatermarkIsMonotonic(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(t, Options{Store: store})

	m.reconcile(context.Background(), banEvents("a"))
	after1 := len(store.bans)
	m.reconcile(context.Background(), banEvents("b"))
	after2 := len(store.bans)
	m.reconcile(context.Background(), banEvents("a", "b"))
	after3 := len(store.bans)

	assert.Equal(t, 1, after1)
	assert.Equal(t, 2, after2)
	assert.Equal(t, 2, after3)
}

func TestReconcileStopsAtFirstSendFailure(t *testing.T) {
	sink := &fakeSink{failSends: 1, sendErr: errors.New("channel unavailable")}
	store := &fakeStore{}
	m := newTestMonitor(t, Options{Sink: sink, Store: store})

	published := m.reconcile(context.Background(), banEvents("a", "b"))

	// nothing recorded for the failed head, so the whole tail retries
	assert.Equal(t, 0, published)
	assert.Empty(t, store.bans)

	published = m.reconcile(context.Background(), banEvents("a", "b"))
	assert.Equal(t, 2, published)
	require.Len(t, store.bans, 2)
	assert.Equal(t, "a", store.bans[0].BanID)
	assert.Equal(t, "b", store.bans[1].BanID)
}

func TestReconcileMidPassFailureKeepsOrder(t *testing.T) {
	sink := &fakeSink{}
	store := &fakeStore{}
	m := newTestMonitor(t, Options{Sink: sink, Store: store})

	// first pass publishes "a", then fails on "b"
	m.reconcile(context.Background(), banEvents("a"))
	sink.failSends = 1
	sink.sendErr = errors.New("flaky")
	assert.Equal(t, 0, m.reconcile(context.Background(), banEvents("b", "c")))

	// retry publishes the unrecorded tail in feed order
	assert.Equal(t, 2, m.reconcile(context.Background(), banEvents("a", "b", "c")))
	require.Len(t, store.bans, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{store.bans[0].BanID, store.bans[1].BanID, store.bans[2].BanID})
}

func TestReconcilePersistFailureStillMarksSeen(t *testing.T) {
	sink := &fakeSink{}
	store := &fakeStore{addBanErr: errors.New("disk full")}
	m := newTestMonitor(t, Options{Sink: sink, Store: store})

	assert.Equal(t, 1, m.reconcile(context.Background(), banEvents("a")))
	// in-memory watermark advanced despite the store failure
	assert.Equal(t, 0, m.reconcile(context.Background(), banEvents("a")))
	assert.Len(t, sink.sent, 1)
}

type fakeGeo struct{}

func (fakeGeo) Countries(ips []string) []string {
	if len(ips) == 0 {
		return nil
	}
	return []string{"DE"}
}

func TestReconcileEnrichesBanWithCountry(t *testing.T) {
	sink := &fakeSink{}
	m := newTestMonitor(t, Options{Sink: sink, Geo: fakeGeo{}})

	events := []models.BanEvent{{ID: "a", Player: "Griefer", IPs: []string{"203.0.113.7"}}}
	m.reconcile(context.Background(), events)

	require.Len(t, sink.sent, 1)
	assert.Contains(t, sink.sent[0].content, "**Location**: DE")
}
