/* matches.go
 * Contains the methods for interacting with the matches collection. Only live matches are stored, a match document
 * is deleted when the match is finalized
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// InsertMatch stores a live match
func (s *Store) InsertMatch(ctx context.Context, match *shared.Match) error {
	if _, err := s.Collections.Matches.InsertOne(ctx, match); err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

// GetMatch does DB lookup and gets a live match by its external id
func (s *Store) GetMatch(ctx context.Context, matchID int) (*shared.Match, error) {
	var match shared.Match
	err := s.Collections.Matches.FindOne(ctx, bson.M{"_id": matchID}).Decode(&match)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching match from db: %w", err)
	}
	return &match, nil
}

// ListMatches returns every live match. Used to resume polling after a restart
func (s *Store) ListMatches(ctx context.Context) ([]shared.Match, error) {
	cursor, err := s.Collections.Matches.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error fetching matches from db: %w", err)
	}

	var matches []shared.Match
	if err = cursor.All(ctx, &matches); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into slice of matches: %w", err)
	}
	return matches, nil
}

// IsUserInMatch reports whether the user plays in any live match
func (s *Store) IsUserInMatch(ctx context.Context, userID string) (bool, error) {
	count, err := s.Collections.Matches.CountDocuments(ctx, bson.M{"teams.members": userID})
	if err != nil {
		return false, fmt.Errorf("error counting matches: %w", err)
	}
	return count > 0, nil
}

// DeleteMatch removes a finalized match. Deleting a missing match is not an error
func (s *Store) DeleteMatch(ctx context.Context, matchID int) error {
	if _, err := s.Collections.Matches.DeleteOne(ctx, bson.M{"_id": matchID}); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return nil
}
