/* matches.go
 * Contains the methods for creating and polling matches on the match api
 * Authors: Zachary Bower
 */

package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// CreateMatch creates a match and returns its id
func (c *Client) CreateMatch(ctx context.Context, match MatchRequest) (int, error) {
	var res insertResponse
	if err := c.do(ctx, http.MethodPost, "/matches", []MatchRequest{match}, &res); err != nil {
		return 0, fmt.Errorf("failed to create match: %w", err)
	}
	if res.ID == 0 {
		return 0, fmt.Errorf("failed to create match: api returned no id")
	}
	return res.ID, nil
}

// GetMatch fetches the live state of a match. Returns ErrNotFound once the match was deleted on the api
func (c *Client) GetMatch(ctx context.Context, matchID int) (*Match, error) {
	var res struct {
		Match *Match `json:"match"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/matches/%d", matchID), nil, &res); err != nil {
		return nil, err
	}
	if res.Match == nil {
		return nil, fmt.Errorf("%w: match %d", ErrNotFound, matchID)
	}
	return res.Match, nil
}

// GetMapStats returns the per map results of a match. A match without stats returns an empty slice
func (c *Client) GetMapStats(ctx context.Context, matchID int) ([]MapStats, error) {
	var res struct {
		MapStats []MapStats `json:"mapstats"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/mapstats/%d", matchID), nil, &res)
	if err != nil {
		if isNotFound(err) {
			return []MapStats{}, nil
		}
		return nil, err
	}
	return res.MapStats, nil
}

// GetSeason fetches a season by id
func (c *Client) GetSeason(ctx context.Context, seasonID int) (*Season, error) {
	var res struct {
		Season *Season `json:"season"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/seasons/%d", seasonID), nil, &res); err != nil {
		return nil, err
	}
	if res.Season == nil {
		return nil, fmt.Errorf("%w: season %d", ErrNotFound, seasonID)
	}
	return res.Season, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
