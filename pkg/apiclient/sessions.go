package apiclient

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/marmos91/sessiond/pkg/api/handlers"
	"github.com/marmos91/sessiond/pkg/journal"
	"github.com/marmos91/sessiond/pkg/session"
)

// Health returns the liveness check response.
func (c *Client) Health() (*handlers.HealthResponse, error) {
	var resp handlers.HealthResponse
	if err := c.get("/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Server returns information about the TCP server.
func (c *Client) Server() (*handlers.ServerInfo, error) {
	var info handlers.ServerInfo
	if err := c.get("/api/v1/server", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListSessions returns all live sessions ordered by connect time.
func (c *Client) ListSessions() ([]session.Info, error) {
	var sessions []session.Info
	if err := c.get("/api/v1/sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns one live session.
func (c *Client) GetSession(id uuid.UUID) (*session.Info, error) {
	var info session.Info
	if err := c.get("/api/v1/sessions/"+id.String(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DisconnectSession forcibly disconnects a session.
func (c *Client) DisconnectSession(id uuid.UUID) error {
	return c.delete("/api/v1/sessions/"+id.String(), nil)
}

// DisconnectAll disconnects every live session and returns how many were kicked.
func (c *Client) DisconnectAll() (int, error) {
	var resp handlers.DisconnectAllResponse
	if err := c.delete("/api/v1/sessions", &resp); err != nil {
		return 0, err
	}
	return resp.Disconnected, nil
}

// History returns journal events. A nil id means all sessions; limit <= 0
// uses the server default.
func (c *Client) History(id uuid.UUID, limit int) ([]journal.Event, error) {
	q := url.Values{}
	if id != uuid.Nil {
		q.Set("session", id.String())
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/sessions/history"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var events []journal.Event
	if err := c.get(path, &events); err != nil {
		return nil, err
	}
	return events, nil
}
