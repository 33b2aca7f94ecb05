/* poller_test.go
 * Contains unit tests for poller.go
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/external"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"
	"github.com/thboss/g5-discord-bot-sub000/api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveMatch stores and tracks a match that exists on the host
func liveMatch(t *testing.T, h *harness) *shared.Match {
	t.Helper()
	h.addLobby("l1", 4, shared.TeamMethodRandom)
	match := store.CreateSampleMatch(100, "l1")
	match.Spaces = shared.MatchSpaces{ChannelIDs: []string{"va", "vb"}}
	ref, err := h.surface.Post(context.Background(), "text_l1", shared.Display{Title: "Match #100"})
	require.NoError(t, err)
	match.Display = ref
	require.NoError(t, h.store.InsertMatch(context.Background(), match))
	h.host.Matches[100] = &external.Match{ID: 100, ServerID: 1, Team1ID: 10, Team2ID: 11}
	h.api.poller.Track(match)
	return match
}

func TestPoll_LiveMatchUpdatesDisplay(t *testing.T) {
	h := newHarness(t, testTimeouts())
	match := liveMatch(t, h)
	h.host.Matches[100].Team1Score = 7
	h.host.Matches[100].Team2Score = 3

	h.api.PollMatches(context.Background())

	display, ok := h.surface.Latest(match.Display)
	require.True(t, ok)
	assert.Equal(t, "team_a 7 : 3 team_b", display.Description)
	assert.Len(t, h.api.TrackedMatches(), 1)
}

func TestPoll_FinishedMatchIsFinalized(t *testing.T) {
	h := newHarness(t, testTimeouts())
	match := liveMatch(t, h)
	h.host.MapStats[100] = []external.MapStats{{MatchID: 100, MapName: "de_mirage", Team1Score: 13, Team2Score: 9}}
	h.host.FinishMatch(100, 1, 0)

	h.api.PollMatches(context.Background())

	assert.Empty(t, h.api.TrackedMatches())
	assert.NotContains(t, h.store.Matches, 100)
	assert.ElementsMatch(t, []int{10, 11}, h.host.Deleted())
	assert.Equal(t, 1, h.platform.MatchSpacesDeleted())

	moves := h.platform.Moves()
	require.Len(t, moves, 1)
	assert.Equal(t, "prematch_l1", moves[0].ChannelID)
	assert.ElementsMatch(t, match.Participants(), moves[0].UserIDs)

	display, ok := h.surface.Latest(match.Display)
	require.True(t, ok)
	assert.Equal(t, "Match #100 results", display.Title)
	require.Len(t, display.Fields, 1)
	assert.Equal(t, "13 : 9", display.Fields[0].Value)
}

func TestPoll_CancelledMatchHasNoResults(t *testing.T) {
	h := newHarness(t, testTimeouts())
	match := liveMatch(t, h)
	h.host.MapStats[100] = []external.MapStats{{MatchID: 100, MapName: "de_mirage"}}
	h.host.Matches[100].Cancelled = true

	h.api.PollMatches(context.Background())

	assert.Empty(t, h.api.TrackedMatches())
	_, ok := h.surface.Latest(match.Display)
	assert.False(t, ok, "display of a cancelled match is removed")
}

func TestPoll_DeletedMatchIsFinalized(t *testing.T) {
	h := newHarness(t, testTimeouts())
	liveMatch(t, h)
	h.host.RemoveMatch(100)

	h.api.PollMatches(context.Background())

	assert.Empty(t, h.api.TrackedMatches())
	assert.NotContains(t, h.store.Matches, 100)
	assert.Equal(t, 1, h.platform.MatchSpacesDeleted())
}

func TestPoll_FetchErrorKeepsTracking(t *testing.T) {
	h := newHarness(t, testTimeouts())
	liveMatch(t, h)
	h.host.GetMatchError = external.ErrConnection

	h.api.PollMatches(context.Background())

	assert.Len(t, h.api.TrackedMatches(), 1)
	assert.Contains(t, h.store.Matches, 100)
}

func TestPoll_ServerErrorKeepsTracking(t *testing.T) {
	h := newHarness(t, testTimeouts())
	liveMatch(t, h)
	h.host.GetMatchError = &external.APIError{StatusCode: http.StatusBadGateway, Message: "bad gateway"}

	h.api.PollMatches(context.Background())

	assert.Len(t, h.api.TrackedMatches(), 1)
}

func TestPoll_UnauthorizedStopsTracking(t *testing.T) {
	h := newHarness(t, testTimeouts())
	match := liveMatch(t, h)
	h.linkUsers(4)
	h.host.GetMatchError = fmt.Errorf("%w: GET /matches/100", external.ErrUnauthorized)
	ctx := context.Background()

	h.api.PollMatches(ctx)

	assert.Empty(t, h.api.TrackedMatches())
	assert.Contains(t, h.store.Matches, 100, "the record is kept for the next start")
	assert.Empty(t, h.platform.Moves())
	assert.Empty(t, h.host.Deleted())

	calls := h.host.GetMatchCalls
	h.api.PollMatches(ctx)
	assert.Equal(t, calls, h.host.GetMatchCalls, "the match is not polled again")

	_, err := h.api.JoinQueue(ctx, "l1", match.Participants()[0])
	assert.ErrorIs(t, err, ErrAlreadyInMatch)
}

func TestPoll_SkipsWhilePollRunning(t *testing.T) {
	h := newHarness(t, testTimeouts())
	liveMatch(t, h)
	h.host.FinishMatch(100, 1, 0)

	h.api.poller.polling.Lock()
	assert.False(t, h.api.PollMatches(context.Background()))
	assert.Equal(t, 0, h.host.GetMatchCalls)
	assert.Len(t, h.api.TrackedMatches(), 1)
	h.api.poller.polling.Unlock()

	assert.True(t, h.api.PollMatches(context.Background()))
	assert.Empty(t, h.api.TrackedMatches())
}

func TestPoll_ConcurrentPollsFinalizeOnce(t *testing.T) {
	h := newHarness(t, testTimeouts())
	liveMatch(t, h)
	h.host.FinishMatch(100, 1, 0)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.api.PollMatches(context.Background())
		}()
	}
	wg.Wait()

	assert.Empty(t, h.api.TrackedMatches())
	assert.ElementsMatch(t, []int{10, 11}, h.host.Deleted())
	assert.Len(t, h.platform.Moves(), 1)
}

func TestPoll_StatsErrorDoesNotBlockFinalize(t *testing.T) {
	h := newHarness(t, testTimeouts())
	liveMatch(t, h)
	h.host.GetMapStatsError = errors.New("stats unavailable")
	h.host.FinishMatch(100, 0, 1)

	h.api.PollMatches(context.Background())

	assert.Empty(t, h.api.TrackedMatches())
	assert.NotContains(t, h.store.Matches, 100)
}

func TestPoller_StopsWhenIdle(t *testing.T) {
	timeouts := testTimeouts()
	timeouts.Poll = 10 * time.Millisecond
	h := newHarness(t, timeouts)
	liveMatch(t, h)
	assert.True(t, h.api.poller.Running())

	h.host.RemoveMatch(100)

	require.Eventually(t, func() bool {
		return !h.api.poller.Running() && len(h.api.TrackedMatches()) == 0
	}, waitTimeout, 10*time.Millisecond)
}

func TestPoller_StopWaitsForLoop(t *testing.T) {
	h := newHarness(t, testTimeouts())
	liveMatch(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.api.Shutdown(ctx))
	assert.False(t, h.api.poller.Running())
	assert.Len(t, h.api.TrackedMatches(), 1, "stopping does not finalize matches")
}

func TestResumeTracking(t *testing.T) {
	h := newHarness(t, testTimeouts())
	require.NoError(t, h.store.InsertMatch(context.Background(), store.CreateSampleMatch(5, "l1")))
	require.NoError(t, h.store.InsertMatch(context.Background(), store.CreateSampleMatch(6, "l1")))

	n, err := h.api.ResumeTracking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tracked := h.api.TrackedMatches()
	require.Len(t, tracked, 2)
	assert.Equal(t, 5, tracked[0].ID)
	assert.Equal(t, 6, tracked[1].ID)
}
