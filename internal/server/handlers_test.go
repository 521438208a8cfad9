package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/storage"
)

type fakeMonitor struct {
	latest *models.Snapshot
	resets int
}

func (f *fakeMonitor) Latest() *models.Snapshot {
	return f.latest
}

func (f *fakeMonitor) RequestWatermarkReset() {
	f.resets++
}

func newTestAPI(t *testing.T, mon *fakeMonitor) (*httptest.Server, *storage.Repository) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "warden-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	cfg.Server.AuthToken = "secret"
	cfg.Server.HardLimitCount = 1000
	cfg.Server.HardLimitWin = time.Minute
	cfg.Control.Unit = "gameserver"

	srv := httptest.NewServer(New(store, mon, cfg).Run())
	t.Cleanup(srv.Close)

	return srv, store
}

func doRequest(t *testing.T, method, url, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func TestHealthzIsUnauthenticated(t *testing.T) {
	srv, _ := newTestAPI(t, &fakeMonitor{})

	resp := doRequest(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusRequiresAuth(t *testing.T) {
	srv, _ := newTestAPI(t, &fakeMonitor{})

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/status", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/status", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusBeforeFirstSnapshot(t *testing.T) {
	srv, _ := newTestAPI(t, &fakeMonitor{})

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/status", "secret")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusReturnsLatestSnapshot(t *testing.T) {
	mon := &fakeMonitor{latest: &models.Snapshot{FPS: 59.8, Players: 42}}
	srv, _ := newTestAPI(t, mon)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/status", "secret")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap models.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.InDelta(t, 59.8, snap.FPS, 0.001)
	assert.Equal(t, 42, snap.Players)
}

func TestBansLedgerEndpoints(t *testing.T) {
	mon := &fakeMonitor{}
	srv, store := newTestAPI(t, mon)

	require.NoError(t, store.AddPostedBan(models.PostedBan{BanID: "a", Player: "P1", PostedAt: time.Now()}))

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/bans", "secret")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bans []models.PostedBan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bans))
	require.Len(t, bans, 1)
	assert.Equal(t, "a", bans[0].BanID)

	// clear wipes the ledger and pings the monitor for a reload
	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/bans", "secret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, mon.resets)

	ids, err := store.PostedBanIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestServerQueryWithoutTarget(t *testing.T) {
	srv, _ := newTestAPI(t, &fakeMonitor{})

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/a2s", "secret")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerQueryProbesOverrideTarget(t *testing.T) {
	srv, _ := newTestAPI(t, &fakeMonitor{})

	orig := probeServer
	t.Cleanup(func() { probeServer = orig })

	var probed config.Game
	probeServer = func(options config.Game) (*models.ServerInfo, error) {
		probed = options
		return &models.ServerInfo{Name: "EU #1", Map: "Everon"}, nil
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/a2s?ip=203.0.113.7&port=17777", "secret")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "203.0.113.7", probed.Address)
	assert.Equal(t, 17777, probed.Port)

	var info models.ServerInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "EU #1", info.Name)
}

func TestServerQueryInvalidPort(t *testing.T) {
	srv, _ := newTestAPI(t, &fakeMonitor{})

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/a2s?ip=203.0.113.7&port=nope", "secret")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
