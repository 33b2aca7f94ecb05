/* teams.go
 * Contains the methods for creating and deleting teams on the match api
 * Authors: Zachary Bower
 */

package external

import (
	"context"
	"fmt"
	"net/http"
)

// CreateTeam creates a team and returns the api's id for it
// Preconditions: Receives the team payload with at least one roster entry
// Postconditions: Returns the new team id, or an error if the api rejected the request
func (c *Client) CreateTeam(ctx context.Context, team TeamRequest) (int, error) {
	var res insertResponse
	if err := c.do(ctx, http.MethodPost, "/teams", []TeamRequest{team}, &res); err != nil {
		return 0, fmt.Errorf("failed to create team %q: %w", team.Name, err)
	}
	if res.ID == 0 {
		return 0, fmt.Errorf("failed to create team %q: api returned no id", team.Name)
	}
	return res.ID, nil
}

// DeleteTeam deletes a team. Deleting a team that no longer exists is not an error
func (c *Client) DeleteTeam(ctx context.Context, teamID int) error {
	err := c.do(ctx, http.MethodDelete, "/teams", []rawID{{TeamID: teamID}}, nil)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}
	return nil
}
