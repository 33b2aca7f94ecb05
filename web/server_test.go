/* server_test.go
 * Contains unit tests for the status server routes
 * Authors: Zachary Bower
 */

package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) (*httptest.Server, *api.API, *api.MockStore) {
	t.Helper()
	store := api.NewMockStore()
	engine, err := api.NewAPI(api.Config{
		Store:    store,
		Host:     api.NewMockMatchHost(),
		Surface:  api.NewMockSurface(),
		Platform: api.NewMockPlatform(),
		Logger:   zaptest.NewLogger(t),
		Timeouts: api.Timeouts{Poll: time.Hour},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Shutdown(context.Background()) })

	srv := httptest.NewServer(NewServer(Config{API: engine, Logger: zaptest.NewLogger(t)}).Routes())
	t.Cleanup(srv.Close)
	return srv, engine, store
}

func getJSON(t *testing.T, url string, body any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if body != nil {
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(resp.Body).Decode(body))
	}
	return resp.StatusCode
}

// region Healthz tests

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/healthz", nil))
}

func TestUnknownRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/webhooks/unknown", nil))
}

// endregion

// region Lobby tests

func TestLobbyHandler(t *testing.T) {
	srv, engine, store := newTestServer(t)
	store.Lobbies["l1"] = &shared.Lobby{
		ID:       "l1",
		GuildID:  "guild1",
		Name:     "Main",
		Capacity: 10,
		Series:   shared.SeriesBo1,
		Queue:    []shared.QueuedPlayer{{UserID: "u1"}, {UserID: "u2"}},
	}

	var status LobbyStatus
	code := getJSON(t, srv.URL+"/lobbies/l1", &status)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Main", status.Lobby.Name)
	assert.Equal(t, []string{"u1", "u2"}, status.Lobby.QueuedIDs())
	assert.False(t, status.Locked)

	require.True(t, engine.Guards().TryLock("l1"))
	defer engine.Guards().Unlock("l1")
	getJSON(t, srv.URL+"/lobbies/l1", &status)
	assert.True(t, status.Locked)
}

func TestLobbyHandler_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var body errorResponse
	code := getJSON(t, srv.URL+"/lobbies/missing", &body)

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, api.ErrLobbyNotFound.Error(), body.Error)
}

func TestLobbyHandler_StoreError(t *testing.T) {
	srv, _, store := newTestServer(t)
	store.GetLobbyError = errors.New("connection reset")

	var body errorResponse
	code := getJSON(t, srv.URL+"/lobbies/l1", &body)

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "failed to load lobby", body.Error)
}

// endregion

// region Matches tests

func TestMatchesHandler_Empty(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var body MatchesResponse
	code := getJSON(t, srv.URL+"/matches", &body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, body.Count)
	assert.NotNil(t, body.Matches)
}

func TestMatchesHandler_Tracked(t *testing.T) {
	srv, engine, store := newTestServer(t)
	store.Matches[100] = &shared.Match{
		ID:      100,
		LobbyID: "l1",
		Series:  shared.SeriesBo3,
		Teams:   [2]shared.MatchTeam{{Name: "team_u1", Members: []string{"u1"}}, {Name: "team_u2", Members: []string{"u2"}}},
	}
	n, err := engine.ResumeTracking(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var body MatchesResponse
	getJSON(t, srv.URL+"/matches", &body)

	require.Equal(t, 1, body.Count)
	assert.Equal(t, 100, body.Matches[0].ID)
	assert.Equal(t, "team_u1", body.Matches[0].Teams[0].Name)
}

// endregion
