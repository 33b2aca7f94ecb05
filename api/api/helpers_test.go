/* helpers_test.go
 * Contains the test harness shared by the tests of the api package
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const waitTimeout = 5 * time.Second

type harness struct {
	api      *API
	store    *MockStore
	host     *MockMatchHost
	surface  *MockSurface
	platform *MockPlatform
	ratings  *MockRatings
}

// testTimeouts keeps interactive windows long enough for tests to drive them and disables the poll loop in practice
func testTimeouts() Timeouts {
	return Timeouts{
		ReadyCheck:  waitTimeout,
		Volunteer:   waitTimeout,
		Draft:       waitTimeout,
		Veto:        waitTimeout,
		Invite:      waitTimeout,
		Poll:        time.Hour,
		DisplaySpin: 5 * time.Millisecond,
		MaxSpins:    100,
	}
}

func newHarness(t *testing.T, timeouts Timeouts) *harness {
	t.Helper()
	h := &harness{
		store:    NewMockStore(),
		host:     NewMockMatchHost(),
		surface:  NewMockSurface(),
		platform: NewMockPlatform(),
		ratings:  &MockRatings{Ratings: map[string]float64{}},
	}
	a, err := NewAPI(Config{
		Store:    h.store,
		Host:     h.host,
		Ratings:  h.ratings,
		Surface:  h.surface,
		Platform: h.platform,
		Logger:   zaptest.NewLogger(t),
		Timeouts: timeouts,
		Seed:     42,
	})
	require.NoError(t, err)
	h.api = a
	t.Cleanup(func() {
		_ = a.Shutdown(context.Background())
	})
	return h
}

func userID(i int) string {
	return fmt.Sprintf("u%d", i)
}

func steamID(i int) string {
	return fmt.Sprintf("7656119%010d", i)
}

// linkUsers stores users u1..un with steam accounts
func (h *harness) linkUsers(n int) []string {
	ids := make([]string, n)
	for i := 1; i <= n; i++ {
		ids[i-1] = userID(i)
		h.store.Users[userID(i)] = &shared.User{UserID: userID(i), Username: fmt.Sprintf("player%d", i), SteamID: steamID(i)}
	}
	return ids
}

func (h *harness) addLobby(id string, capacity int, method shared.TeamMethod, pool ...string) *shared.Lobby {
	if len(pool) == 0 {
		pool = []string{"de_mirage"}
	}
	lobby := &shared.Lobby{
		ID:            id,
		GuildID:       "guild1",
		Name:          "Lobby " + id,
		Capacity:      capacity,
		Mode:          shared.ModePug,
		TeamMethod:    method,
		CaptainMethod: shared.CaptainMethodRandom,
		Series:        shared.SeriesBo1,
		MapPool:       pool,
		Cvars:         map[string]string{},
		Spaces: shared.LobbySpaces{
			QueueChannelID:    "queue_" + id,
			TextChannelID:     "text_" + id,
			PrematchChannelID: "prematch_" + id,
		},
		Queue: []shared.QueuedPlayer{},
	}
	h.store.Lobbies[id] = lobby
	return cloneLobby(lobby)
}

func (h *harness) addTeam(id string, captain string, members ...string) *shared.Team {
	team := &shared.Team{
		ID:        id,
		GuildID:   "guild1",
		Name:      "Team " + id,
		CaptainID: captain,
		Members:   append([]string{captain}, members...),
	}
	h.store.Teams[id] = team
	return cloneTeam(team)
}

// fullLobby returns a lobby snapshot whose queue holds the given players
func (h *harness) fullLobby(id string, method shared.TeamMethod, players []string, pool ...string) *shared.Lobby {
	lobby := h.addLobby(id, len(players), method, pool...)
	for _, p := range players {
		lobby.Queue = append(lobby.Queue, shared.QueuedPlayer{UserID: p, JoinedAt: time.Now()})
	}
	h.store.Lobbies[id].Queue = cloneLobby(lobby).Queue
	return lobby
}

// goDone runs fn in the background and returns a channel closed when it returns
func goDone(fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for the operation to finish")
	}
}

func (h *harness) prompt(t *testing.T, prefix string) PostedDisplay {
	t.Helper()
	p, ok := h.surface.WaitForPrompt(prefix, waitTimeout)
	require.True(t, ok, "no %q prompt was presented", prefix)
	return p
}
