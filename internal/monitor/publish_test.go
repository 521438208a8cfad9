package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardenhq/warden/internal/chat"
	"github.com/wardenhq/warden/internal/models"
)

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{FPS: 59.8, Players: 42}
}

func TestPublishStatusFirstSendSkipsDelete(t *testing.T) {
	sink := &fakeSink{}
	store := &fakeStore{}
	m := newTestMonitor(t, Options{Sink: sink, Store: store})

	err := m.publishStatus(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)

	assert.Empty(t, sink.deleted)
	require.Len(t, sink.sent, 1)
	assert.Equal(t, "msg-1", m.lastMessageID)
	assert.Equal(t, "msg-1", store.lastID)
}

func TestPublishStatusReplacesPreviousMessage(t *testing.T) {
	sink := &fakeSink{}
	m := newTestMonitor(t, Options{Sink: sink})

	require.NoError(t, m.publishStatus(context.Background(), testSnapshot(), nil))
	require.NoError(t, m.publishStatus(context.Background(), testSnapshot(), nil))

	// one deleted, one live per call
	assert.Equal(t, []string{"msg-1"}, sink.deleted)
	assert.Len(t, sink.sent, 2)
	assert.Equal(t, "msg-2", m.lastMessageID)
}

func TestPublishStatusNotFoundDeleteIsSwallowed(t *testing.T) {
	sink := &fakeSink{deleteErr: chat.ErrNotFound}
	m := newTestMonitor(t, Options{Sink: sink, Store: &fakeStore{lastID: "gone"}})

	err := m.publishStatus(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)

	require.Len(t, sink.sent, 1)
	assert.Equal(t, "msg-1", m.lastMessageID)
}

func TestPublishStatusDeleteFailureDoesNotBlockSend(t *testing.T) {
	sink := &fakeSink{deleteErr: errors.New("api down")}
	m := newTestMonitor(t, Options{Sink: sink, Store: &fakeStore{lastID: "old"}})

	err := m.publishStatus(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)

	require.Len(t, sink.sent, 1)
}

func TestPublishStatusSendFailureFailsTheTick(t *testing.T) {
	sink := &fakeSink{failSends: 1, sendErr: errors.New("send failed")}
	store := &fakeStore{lastID: "old"}
	m := newTestMonitor(t, Options{Sink: sink, Store: store})

	err := m.publishStatus(context.Background(), testSnapshot(), nil)
	require.Error(t, err)

	// state keeps the stale reference; the next delete resolves as NotFound
	assert.Equal(t, "old", m.lastMessageID)
	assert.Equal(t, "old", store.lastID)
}

func TestPublishStatusPersistFailureStillAdvancesMemory(t *testing.T) {
	sink := &fakeSink{}
	store := &fakeStore{setIDErr: errors.New("disk full")}
	m := newTestMonitor(t, Options{Sink: sink, Store: store})

	err := m.publishStatus(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)

	assert.Equal(t, "msg-1", m.lastMessageID)
	assert.Equal(t, 1, store.setIDCalls)
}

func TestPublishStatusIncludesProbeInfo(t *testing.T) {
	sink := &fakeSink{}
	m := newTestMonitor(t, Options{Sink: sink})

	info := &models.ServerInfo{Name: "EU #1", Map: "Everon", Players: 90, MaxPlayers: 128}
	require.NoError(t, m.publishStatus(context.Background(), testSnapshot(), info))

	require.Len(t, sink.sent, 1)
	assert.Contains(t, sink.sent[0].content, "EU #1")
	assert.Contains(t, sink.sent[0].content, "Everon")
}
