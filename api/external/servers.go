/* servers.go
 * Contains the methods for listing and probing game servers
 * Authors: Zachary Bower
 */

package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ListServers returns every server visible to the api key
func (c *Client) ListServers(ctx context.Context) ([]GameServer, error) {
	var res struct {
		Servers []GameServer `json:"servers"`
	}
	if err := c.do(ctx, http.MethodGet, "/servers", nil, &res); err != nil {
		if isNotFound(err) {
			return []GameServer{}, nil
		}
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return res.Servers, nil
}

// GetServer fetches a server by id
func (c *Client) GetServer(ctx context.Context, serverID int) (*GameServer, error) {
	var res struct {
		Server *GameServer `json:"server"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/servers/%d", serverID), nil, &res); err != nil {
		return nil, err
	}
	if res.Server == nil {
		return nil, fmt.Errorf("%w: server %d", ErrNotFound, serverID)
	}
	return res.Server, nil
}

// ServerAlive probes a server. The api answers with an error status when it cannot reach the game server
// Postconditions: Returns true when the server is reachable, false when the api reports it offline, or an error
// when the api itself could not be queried
func (c *Client) ServerAlive(ctx context.Context, serverID int) (bool, error) {
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/servers/%d/status", serverID), nil, nil)
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) || isNotFound(err) {
		return false, nil
	}
	return false, err
}
