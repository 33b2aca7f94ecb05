/* store_test.go
 * Contains unit tests for store.go and lobbies.go
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"os"
	"testing"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func updateResponse(matched int) bson.D {
	return bson.D{
		{Key: "ok", Value: 1},
		{Key: "n", Value: matched},
		{Key: "nModified", Value: matched},
	}
}

func lobbyDoc(id string, capacity int, queued ...string) bson.D {
	queue := bson.A{}
	for _, u := range queued {
		queue = append(queue, bson.D{{Key: "user_id", Value: u}})
	}
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "guild_id", Value: "guild1"},
		{Key: "capacity", Value: capacity},
		{Key: "mode", Value: "pug"},
		{Key: "series", Value: "bo1"},
		{Key: "map_pool", Value: bson.A{"de_mirage", "de_nuke"}},
		{Key: "spaces", Value: bson.D{{Key: "queue_channel_id", Value: "queue_" + id}}},
		{Key: "queue", Value: queue},
		{Key: "team_slots", Value: bson.A{"", ""}},
	}
}

// region lobby tests

func TestGetLobby_Found(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes lobby with embedded queue", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.lobbies", mtest.FirstBatch, lobbyDoc("l1", 10, "u1", "u2")))

		lobby, err := store.GetLobby(context.Background(), "l1")

		require.NoError(t, err)
		assert.Equal(t, 10, lobby.Capacity)
		assert.Equal(t, []string{"u1", "u2"}, lobby.QueuedIDs())
		assert.Equal(t, shared.SeriesBo1, lobby.Series)
		assert.Equal(t, "queue_l1", lobby.Spaces.QueueChannelID)
	})
}

func TestGetLobby_NotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns ErrNoDocuments", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.lobbies", mtest.FirstBatch))

		_, err := store.GetLobby(context.Background(), "missing")

		assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	})
}

func TestGetLobbyByQueuedUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("finds the queue holding the user", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.lobbies", mtest.FirstBatch, lobbyDoc("l2", 4, "u1")))

		lobby, err := store.GetLobbyByQueuedUser(context.Background(), "u1")

		require.NoError(t, err)
		assert.Equal(t, "l2", lobby.ID)
	})

	mt.Run("user not queued", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.lobbies", mtest.FirstBatch))

		_, err := store.GetLobbyByQueuedUser(context.Background(), "u1")

		assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	})
}

func TestListLobbies(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns all lobbies", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.lobbies", mtest.FirstBatch,
			lobbyDoc("l1", 10), lobbyDoc("l2", 4)))

		lobbies, err := store.ListLobbies(context.Background(), "guild1")

		require.NoError(t, err)
		require.Len(t, lobbies, 2)
		assert.Equal(t, "l2", lobbies[1].ID)
	})
}

func TestInsertLobby(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserts lobby", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := store.InsertLobby(context.Background(), CreateSampleLobby("l1", 10))

		assert.NoError(t, err)
	})
}

func TestResetQueue(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("clears queue and sets capacity", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(updateResponse(1))

		err := store.ResetQueue(context.Background(), "l1", 4)

		assert.NoError(t, err)
	})

	mt.Run("missing lobby", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(updateResponse(0))

		err := store.ResetQueue(context.Background(), "missing", 4)

		assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	})
}

func TestAddQueuedPlayer_Duplicate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate matches no document", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(updateResponse(0))

		err := store.AddQueuedPlayer(context.Background(), "l1", shared.QueuedPlayer{UserID: "u1"}, [2]string{})

		assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	})
}

func TestRemoveQueuedPlayers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("pulls players", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(updateResponse(1))

		err := store.RemoveQueuedPlayers(context.Background(), "l1", []string{"u1", "u2"}, [2]string{"t1", ""})

		assert.NoError(t, err)
	})
}

func TestLobbyCvars(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("set cvar", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(updateResponse(1))

		assert.NoError(t, store.SetLobbyCvar(context.Background(), "l1", "mp_overtime_enable", "1"))
	})

	mt.Run("delete missing cvar", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(updateResponse(0))

		err := store.DeleteLobbyCvar(context.Background(), "l1", "sv_cheats")

		assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	})
}

func TestUpdateLobby_EmptyUpdateIsNoop(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no request sent", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)

		assert.NoError(t, store.UpdateLobby(context.Background(), "l1", LobbyUpdate{}))
	})
}

func TestDeleteLobby(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deletes", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})

		assert.NoError(t, store.DeleteLobby(context.Background(), "l1"))
	})

	mt.Run("missing", func(mt *mtest.T) {
		store := NewTestStore(mt.Client, mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})

		assert.ErrorIs(t, store.DeleteLobby(context.Background(), "l1"), mongo.ErrNoDocuments)
	})
}

// endregion

// region models tests

func TestLobbyUpdate_Apply(t *testing.T) {
	lobby := CreateSampleLobby("l1", 10)
	series := shared.SeriesBo3
	region := "EU"

	LobbyUpdate{Series: &series, Region: &region, MapPool: []string{"de_nuke"}}.Apply(lobby)

	assert.Equal(t, shared.SeriesBo3, lobby.Series)
	assert.Equal(t, "EU", lobby.Region)
	assert.Equal(t, []string{"de_nuke"}, lobby.MapPool)
	assert.Equal(t, shared.TeamMethodCaptains, lobby.TeamMethod)
}

func TestLobbyUpdate_ToSet(t *testing.T) {
	season := 4
	set := LobbyUpdate{SeasonID: &season}.toSet()

	assert.Equal(t, bson.M{"season_id": 4}, set)
}

// endregion

// Integration test for NewStore
func TestNewStore_Integration(t *testing.T) {
	mongoURI := os.Getenv("MONGO_TEST_URI")
	if mongoURI == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	store, cleanup, err := CreateTestStore(mongoURI)
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.EnsureIndexes(ctx))
	require.NoError(t, store.InsertLobby(ctx, CreateSampleLobby("l1", 4)))
	require.NoError(t, store.AddQueuedPlayer(ctx, "l1", shared.QueuedPlayer{UserID: "u1"}, [2]string{}))
	assert.ErrorIs(t, store.AddQueuedPlayer(ctx, "l1", shared.QueuedPlayer{UserID: "u1"}, [2]string{}), mongo.ErrNoDocuments)
	queued, err := store.GetLobbyByQueuedUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "l1", queued.ID)
	require.NoError(t, store.SetLobbyCvar(ctx, "l1", "mp_maxrounds", "24"))
	require.NoError(t, store.ResetQueue(ctx, "l1", 2))

	lobby, err := store.GetLobby(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, lobby.Queue)
	assert.Equal(t, 2, lobby.Capacity)
	assert.Equal(t, "24", lobby.Cvars["mp_maxrounds"])
}

func TestNewStore_EmptyDBName(t *testing.T) {
	_, err := NewStore(context.Background(), "", "mongodb://localhost:27017")

	assert.Error(t, err)
}
