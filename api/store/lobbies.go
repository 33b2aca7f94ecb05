/* lobbies.go
 * Contains the methods for interacting with the lobbies collection. The queue, team slots and cvars live inside the
 * lobby document so each mutation below is a single atomic document update
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

// InsertLobby stores a new lobby
func (s *Store) InsertLobby(ctx context.Context, lobby *shared.Lobby) error {
	if lobby.Queue == nil {
		lobby.Queue = []shared.QueuedPlayer{}
	}
	if _, err := s.Collections.Lobbies.InsertOne(ctx, lobby); err != nil {
		return fmt.Errorf("failed to insert lobby: %w", err)
	}
	return nil
}

// GetLobby does DB lookup and gets a lobby by id
// Preconditions: Receives the lobby id
// Postconditions: Returns the lobby if it exists, or an error wrapping mongo.ErrNoDocuments if it does not
func (s *Store) GetLobby(ctx context.Context, lobbyID string) (*shared.Lobby, error) {
	return s.findLobby(ctx, bson.M{"_id": lobbyID})
}

// GetLobbyByQueueChannel finds the lobby whose queue voice channel is channelID
func (s *Store) GetLobbyByQueueChannel(ctx context.Context, channelID string) (*shared.Lobby, error) {
	return s.findLobby(ctx, bson.M{"spaces.queue_channel_id": channelID})
}

// GetLobbyByQueuedUser finds the lobby whose queue holds userID
func (s *Store) GetLobbyByQueuedUser(ctx context.Context, userID string) (*shared.Lobby, error) {
	return s.findLobby(ctx, bson.M{"queue.user_id": userID})
}

func (s *Store) findLobby(ctx context.Context, filter bson.M) (*shared.Lobby, error) {
	var lobby shared.Lobby
	err := s.Collections.Lobbies.FindOne(ctx, filter).Decode(&lobby)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching lobby from db: %w", err)
	}
	return &lobby, nil
}

// ListLobbies returns the lobbies of a guild, or every lobby when guildID is empty
func (s *Store) ListLobbies(ctx context.Context, guildID string) ([]shared.Lobby, error) {
	filter := bson.M{}
	if guildID != "" {
		filter["guild_id"] = guildID
	}
	cursor, err := s.Collections.Lobbies.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching lobbies from db: %w", err)
	}

	var lobbies []shared.Lobby
	if err = cursor.All(ctx, &lobbies); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into slice of lobbies: %w", err)
	}
	return lobbies, nil
}

// UpdateLobby applies a partial settings update
func (s *Store) UpdateLobby(ctx context.Context, lobbyID string, update LobbyUpdate) error {
	set := update.toSet()
	if len(set) == 0 {
		return nil
	}
	res, err := s.Collections.Lobbies.UpdateOne(ctx, bson.M{"_id": lobbyID}, bson.M{"$set": set})
	return matchedOne(res, err, "update lobby")
}

// DeleteLobby removes a lobby
func (s *Store) DeleteLobby(ctx context.Context, lobbyID string) error {
	res, err := s.Collections.Lobbies.DeleteOne(ctx, bson.M{"_id": lobbyID})
	if err != nil {
		return fmt.Errorf("failed to delete lobby: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("failed to delete lobby: %w", mongo.ErrNoDocuments)
	}
	return nil
}

// SetLobbyCvar adds or replaces a cvar
func (s *Store) SetLobbyCvar(ctx context.Context, lobbyID string, key string, value string) error {
	res, err := s.Collections.Lobbies.UpdateOne(ctx,
		bson.M{"_id": lobbyID},
		bson.M{"$set": bson.M{"cvars." + key: value}})
	return matchedOne(res, err, "set cvar")
}

// DeleteLobbyCvar removes a cvar. Returns an error wrapping mongo.ErrNoDocuments when the cvar does not exist
func (s *Store) DeleteLobbyCvar(ctx context.Context, lobbyID string, key string) error {
	res, err := s.Collections.Lobbies.UpdateOne(ctx,
		bson.M{"_id": lobbyID, "cvars." + key: bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{"cvars." + key: ""}})
	return matchedOne(res, err, "delete cvar")
}

// ResetQueue empties the queue, frees both team slots and commits the capacity in one update
// Preconditions: Receives the lobby id and the capacity to store (pass the current one to only clear)
// Postconditions: The lobby has an empty queue, free team slots and the given capacity
func (s *Store) ResetQueue(ctx context.Context, lobbyID string, capacity int) error {
	res, err := s.Collections.Lobbies.UpdateOne(ctx,
		bson.M{"_id": lobbyID},
		bson.M{"$set": bson.M{
			"queue":      bson.A{},
			"team_slots": bson.A{"", ""},
			"capacity":   capacity,
		}})
	return matchedOne(res, err, "reset queue")
}

// AddQueuedPlayer appends a player to the queue and stores the team slots. The filter refuses duplicates so a
// racing duplicate join matches no document
func (s *Store) AddQueuedPlayer(ctx context.Context, lobbyID string, player shared.QueuedPlayer, slots [2]string) error {
	res, err := s.Collections.Lobbies.UpdateOne(ctx,
		bson.M{"_id": lobbyID, "queue.user_id": bson.M{"$ne": player.UserID}},
		bson.M{
			"$push": bson.M{"queue": player},
			"$set":  bson.M{"team_slots": bson.A{slots[0], slots[1]}},
		})
	return matchedOne(res, err, "add queued player")
}

// RemoveQueuedPlayers removes players from the queue and stores the team slots
func (s *Store) RemoveQueuedPlayers(ctx context.Context, lobbyID string, userIDs []string, slots [2]string) error {
	res, err := s.Collections.Lobbies.UpdateOne(ctx,
		bson.M{"_id": lobbyID},
		bson.M{
			"$pull": bson.M{"queue": bson.M{"user_id": bson.M{"$in": userIDs}}},
			"$set":  bson.M{"team_slots": bson.A{slots[0], slots[1]}},
		})
	return matchedOne(res, err, "remove queued players")
}
