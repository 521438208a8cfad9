package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const banListBody = `{
  "data": [
    {
      "type": "ban",
      "id": "ban-1",
      "attributes": {
        "reason": "cheating",
        "expires": "2026-09-01T15:30:00Z",
        "identifiers": [
          {"type": "steamID", "identifier": "7656119xxxxxxx"},
          {"type": "name", "identifier": "Griefer"},
          {"type": "name", "identifier": "GrieferAlt"},
          {"type": "ip", "identifier": "203.0.113.7"}
        ]
      }
    },
    {
      "type": "ban",
      "id": "ban-2",
      "attributes": {
        "reason": "",
        "expires": null,
        "identifiers": [
          {"type": "steamID", "identifier": "7656119yyyyyyy"}
        ]
      }
    }
  ]
}`

func newFeedServer(t *testing.T, status int, body string) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bans" {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "srv-42", r.URL.Query().Get("filter[server]"))
			assert.Equal(t, "false", r.URL.Query().Get("filter[expired]"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, "test-token", "srv-42", 5*time.Second)
}

func TestListBans(t *testing.T) {
	client := newFeedServer(t, http.StatusOK, banListBody)

	events, err := client.ListBans(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "ban-1", first.ID)
	assert.Equal(t, "cheating", first.Reason)
	// first "name" identifier wins
	assert.Equal(t, "Griefer", first.Player)
	assert.Equal(t, []string{"203.0.113.7"}, first.IPs)
	require.NotNil(t, first.Expires)
	assert.Equal(t, time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC), first.Expires.UTC())

	second := events[1]
	assert.Equal(t, "ban-2", second.ID)
	assert.Equal(t, "Unknown", second.Player)
	assert.Nil(t, second.Expires)
	assert.Empty(t, second.IPs)
}

func TestListBansForbidden(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newFeedServer(t, status, `{"errors":[]}`)

		_, err := client.ListBans(context.Background())
		assert.ErrorIs(t, err, ErrForbidden)
	}
}

func TestListBansRateLimited(t *testing.T) {
	client := newFeedServer(t, http.StatusTooManyRequests, `{"errors":[]}`)

	_, err := client.ListBans(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestListBansServerError(t *testing.T) {
	client := newFeedServer(t, http.StatusBadGateway, "upstream broke")

	_, err := client.ListBans(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestPing(t *testing.T) {
	client := newFeedServer(t, http.StatusOK, `{"data":{"id":"srv-42"}}`)
	require.NoError(t, client.Ping(context.Background()))

	client = newFeedServer(t, http.StatusForbidden, `{"errors":[]}`)
	assert.ErrorIs(t, client.Ping(context.Background()), ErrForbidden)
}
