/* store.go
 * Contains the store struct and NewStore function. The methods for this package were split into four files:
 * lobbies, teams, matches and users. Each of these files contain methods for interacting with that part of the
 * database
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Collections struct {
		Lobbies *mongo.Collection
		Teams   *mongo.Collection
		Matches *mongo.Collection
		Users   *mongo.Collection
	}
}

// Function for initialising Store. Connects to the db and sets the collection values
// Preconditions: Receives a context bounding the connection attempt and strings containing dbName and mongoURI
// Postconditions: Returns pointer to the Store object, or error if it occurs
func NewStore(ctx context.Context, dbName string, mongoURI string) (*Store, error) {
	if dbName == "" {
		return nil, fmt.Errorf("dbName cannot be empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}
	return newStore(client, client.Database(dbName)), nil
}

func newStore(client *mongo.Client, db *mongo.Database) *Store {
	s := &Store{Client: client, Database: db}
	s.Collections.Lobbies = db.Collection("lobbies")
	s.Collections.Teams = db.Collection("teams")
	s.Collections.Matches = db.Collection("matches")
	s.Collections.Users = db.Collection("users")
	return s
}

// EnsureIndexes creates the lookup indexes used by the engine
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.Collections.Lobbies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "spaces.queue_channel_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to index lobbies: %w", err)
	}
	_, err = s.Collections.Lobbies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "queue.user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to index queued players: %w", err)
	}
	_, err = s.Collections.Teams.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "members", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to index teams: %w", err)
	}
	_, err = s.Collections.Matches.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "teams.members", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to index matches: %w", err)
	}
	return nil
}

// Close disconnects the mongo client
func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// matchedOne turns an update that matched nothing into mongo.ErrNoDocuments
func matchedOne(res *mongo.UpdateResult, err error, action string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to %s: %w", action, mongo.ErrNoDocuments)
	}
	return nil
}
