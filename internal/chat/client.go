// Package chat implements the messaging channel sink: sending, deleting and
// fetching channel messages over the Discord-compatible REST API, plus the
// plain-text formatting of status and ban messages.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotFound is returned when the referenced message no longer exists.
// Callers replacing a previous message treat it as already gone.
var ErrNotFound = errors.New("message not found")

var errUnexpectedStatus = errors.New("unexpected status code")

// Client is a minimal REST client for a bot account. One instance is
// created at startup and reused for every call.
type Client struct {
	http    *http.Client
	apiBase string
	token   string
}

// NewClient creates a chat client for the given API base URL and bot token.
func NewClient(apiBase, token string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		apiBase: apiBase,
		token:   token,
	}
}

type sendRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	ID string `json:"id"`
}

// Send posts content to the channel and returns the new message id.
func (c *Client) Send(ctx context.Context, channelID, content string) (string, error) {
	body, err := json.Marshal(sendRequest{Content: content})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/channels/%s/messages", c.apiBase, channelID),
		bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var msg messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return "", err
	}

	return msg.ID, nil
}

// Delete removes a message from the channel. A missing message yields
// ErrNotFound so the caller can distinguish "already gone" from a real
// delivery problem.
func (c *Client) Delete(ctx context.Context, channelID, messageID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/channels/%s/messages/%s", c.apiBase, channelID, messageID), nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return statusError(resp)
	}
}

// Fetch checks whether a message still exists in the channel.
func (c *Client) Fetch(ctx context.Context, channelID, messageID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/channels/%s/messages/%s", c.apiBase, channelID, messageID), nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return statusError(resp)
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Accept", "application/json")
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %d, response: %s", errUnexpectedStatus, resp.StatusCode, string(body))
}
