/* teams.go
 * Contains the methods for interacting with the teams collection
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

// InsertTeam stores a new team
func (s *Store) InsertTeam(ctx context.Context, team *shared.Team) error {
	if _, err := s.Collections.Teams.InsertOne(ctx, team); err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

// GetTeam does DB lookup and gets a team by id
func (s *Store) GetTeam(ctx context.Context, teamID string) (*shared.Team, error) {
	return s.findTeam(ctx, bson.M{"_id": teamID})
}

// GetTeamByMember finds the team of a guild the user is rostered on
func (s *Store) GetTeamByMember(ctx context.Context, guildID string, userID string) (*shared.Team, error) {
	return s.findTeam(ctx, bson.M{"guild_id": guildID, "members": userID})
}

// GetTeamByName finds a team of a guild by its name
func (s *Store) GetTeamByName(ctx context.Context, guildID string, name string) (*shared.Team, error) {
	return s.findTeam(ctx, bson.M{"guild_id": guildID, "name": name})
}

func (s *Store) findTeam(ctx context.Context, filter bson.M) (*shared.Team, error) {
	var team shared.Team
	err := s.Collections.Teams.FindOne(ctx, filter).Decode(&team)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching team from db: %w", err)
	}
	return &team, nil
}

// AddTeamMember adds a user to the roster
func (s *Store) AddTeamMember(ctx context.Context, teamID string, userID string) error {
	res, err := s.Collections.Teams.UpdateOne(ctx, bson.M{"_id": teamID}, bson.M{"$addToSet": bson.M{"members": userID}})
	return matchedOne(res, err, "add team member")
}

// RemoveTeamMember removes a user from the roster
func (s *Store) RemoveTeamMember(ctx context.Context, teamID string, userID string) error {
	res, err := s.Collections.Teams.UpdateOne(ctx, bson.M{"_id": teamID}, bson.M{"$pull": bson.M{"members": userID}})
	return matchedOne(res, err, "remove team member")
}

// SetTeamExternalID records the id the match api assigned to the team
func (s *Store) SetTeamExternalID(ctx context.Context, teamID string, externalID int) error {
	res, err := s.Collections.Teams.UpdateOne(ctx, bson.M{"_id": teamID}, bson.M{"$set": bson.M{"external_id": externalID}})
	return matchedOne(res, err, "set team external id")
}

// DeleteTeam removes a team
func (s *Store) DeleteTeam(ctx context.Context, teamID string) error {
	res, err := s.Collections.Teams.DeleteOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("failed to delete team: %w", mongo.ErrNoDocuments)
	}
	return nil
}
