// Package feed implements the BattleMetrics ban list client.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wardenhq/warden/internal/models"
)

var (
	// ErrForbidden signals rejected credentials. The monitor reacts with a
	// diagnostic Ping instead of retrying.
	ErrForbidden = errors.New("feed rejected credentials")

	// ErrRateLimited signals a 429 from the feed.
	ErrRateLimited = errors.New("feed rate limit exceeded")

	errUnexpectedStatus = errors.New("unexpected status code")
)

// Client queries the BattleMetrics REST API for a single server.
type Client struct {
	http     *http.Client
	apiBase  string
	token    string
	serverID string
}

// NewClient creates a feed client bound to one server id.
func NewClient(apiBase, token, serverID string, timeout time.Duration) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		apiBase:  apiBase,
		token:    token,
		serverID: serverID,
	}
}

// banList mirrors the JSON:API document returned by GET /bans.
type banList struct {
	Data []banEntry `json:"data"`
}

type banEntry struct {
	ID         string        `json:"id"`
	Attributes banAttributes `json:"attributes"`
}

type banAttributes struct {
	Expires     *time.Time      `json:"expires"`
	Reason      string          `json:"reason"`
	Identifiers []banIdentifier `json:"identifiers"`
}

type banIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// ListBans fetches the active (non-expired) bans for the configured server,
// in the order the feed returns them. The response is treated as one finite
// page; no pagination is followed.
func (c *Client) ListBans(ctx context.Context) ([]models.BanEvent, error) {
	params := url.Values{}
	params.Set("filter[server]", c.serverID)
	params.Set("filter[expired]", "false")
	params.Set("include", "user,server")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/bans?%s", c.apiBase, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var list banList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, err
	}

	events := make([]models.BanEvent, 0, len(list.Data))
	for _, entry := range list.Data {
		events = append(events, toEvent(entry))
	}

	return events, nil
}

// Ping performs a lightweight authenticated read of the configured server
// resource. It exists purely to diagnose credential problems after a
// Forbidden response from ListBans.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/servers/%s", c.apiBase, c.serverID), nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return checkStatus(resp)
}

// toEvent maps a feed entry to the internal model. The display name is the
// first identifier of type "name", falling back to "Unknown"; every "ip"
// identifier is carried along for enrichment.
func toEvent(entry banEntry) models.BanEvent {
	event := models.BanEvent{
		ID:      entry.ID,
		Reason:  entry.Attributes.Reason,
		Expires: entry.Attributes.Expires,
		Player:  "Unknown",
	}

	named := false
	for _, id := range entry.Attributes.Identifiers {
		switch id.Type {
		case "name":
			if !named {
				event.Player = id.Identifier
				named = true
			}
		case "ip":
			event.IPs = append(event.IPs, id.Identifier)
		}
	}

	return event
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}

func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d, response: %s", errUnexpectedStatus, resp.StatusCode, string(body))
	}
}
