/* test_helpers.go
 * Contains test helper functions for store package tests
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"go.mongodb.org/mongo-driver/mongo"
)

// NewTestStore wraps an existing client and database, e.g. the mock deployment of an mtest.T
func NewTestStore(client *mongo.Client, db *mongo.Database) *Store {
	return newStore(client, db)
}

// CreateTestStore creates a Store connected to a test database.
// Returns the store and a cleanup function.
func CreateTestStore(mongoURI string) (*Store, func(), error) {
	store, err := NewStore(context.TODO(), "test_g5_bot", mongoURI)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if store.Client != nil {
			// Drop test database
			store.Database.Drop(context.TODO())
			// Disconnect client
			store.Client.Disconnect(context.TODO())
		}
	}

	return store, cleanup, nil
}

// CreateSampleLobby creates sample Lobby data for testing.
func CreateSampleLobby(id string, capacity int) *shared.Lobby {
	return &shared.Lobby{
		ID:            id,
		GuildID:       "guild1",
		Name:          "Lobby " + id,
		Capacity:      capacity,
		Mode:          shared.ModePug,
		TeamMethod:    shared.TeamMethodCaptains,
		CaptainMethod: shared.CaptainMethodVolunteer,
		Series:        shared.SeriesBo1,
		MapPool:       []string{"de_ancient", "de_anubis", "de_dust2", "de_inferno", "de_mirage", "de_nuke", "de_vertigo"},
		Cvars:         map[string]string{},
		Spaces: shared.LobbySpaces{
			CategoryID:        "cat_" + id,
			QueueChannelID:    "queue_" + id,
			TextChannelID:     "text_" + id,
			PrematchChannelID: "prematch_" + id,
		},
		Queue: []shared.QueuedPlayer{},
	}
}

// CreateSampleMatch creates sample Match data for testing.
func CreateSampleMatch(id int, lobbyID string) *shared.Match {
	return &shared.Match{
		ID:      id,
		LobbyID: lobbyID,
		GuildID: "guild1",
		Teams: [2]shared.MatchTeam{
			{Name: "team_a", ExternalID: 10, Captain: "u1", Members: []string{"u1", "u2"}, Ephemeral: true},
			{Name: "team_b", ExternalID: 11, Captain: "u3", Members: []string{"u3", "u4"}, Ephemeral: true},
		},
		ServerID:  1,
		Maps:      []string{"de_mirage"},
		Series:    shared.SeriesBo1,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
}
