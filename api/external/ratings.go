/* ratings.go
 * Contains the skill rating lookup backed by the api's player leaderboard
 * Authors: Zachary Bower
 */

package external

import (
	"context"
	"fmt"
	"net/http"
)

// FetchRatings returns the average rating of each requested steam id. Players without history are absent from
// the map
func (c *Client) FetchRatings(ctx context.Context, steamIDs []string) (map[string]float64, error) {
	var res struct {
		Leaderboard []PlayerRating `json:"leaderboard"`
	}
	if err := c.do(ctx, http.MethodGet, "/leaderboard/players", nil, &res); err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	wanted := make(map[string]bool, len(steamIDs))
	for _, id := range steamIDs {
		wanted[id] = true
	}
	ratings := make(map[string]float64)
	for _, row := range res.Leaderboard {
		if wanted[row.SteamID] {
			ratings[row.SteamID] = row.AverageRating
		}
	}
	return ratings, nil
}
