/* draft_test.go
 * Contains unit tests for draft.go
 * Authors: Zachary Bower
 */

package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraft_CaptainsSeedTeams(t *testing.T) {
	d := NewDraft([2]string{"p1", "p2"}, players(10))

	assert.Equal(t, []string{"p1"}, d.Teams[0])
	assert.Equal(t, []string{"p2"}, d.Teams[1])
	assert.Len(t, d.Pool, 8)
	assert.Equal(t, "p1", d.ActiveCaptain())
}

func TestDraft_SnakeOrder(t *testing.T) {
	d := NewDraft([2]string{"p1", "p2"}, players(10))

	expected := []string{"p1", "p2", "p2", "p1", "p1", "p2", "p2"}
	for i, captain := range expected {
		require.Equal(t, captain, d.ActiveCaptain(), "pick %d", i)
		require.NoError(t, d.Pick(captain, d.Pool[0]))
	}

	// The final player is auto-assigned to the smaller team
	assert.True(t, d.Done())
	assert.Len(t, d.Teams[0], 5)
	assert.Len(t, d.Teams[1], 5)
	assert.Equal(t, "", d.ActiveCaptain())
}

func TestDraft_ConservesPlayers(t *testing.T) {
	d := NewDraft([2]string{"p3", "p8"}, players(8))

	for !d.Done() {
		total := d.Teams.Size() + len(d.Pool)
		require.Equal(t, 8, total)
		require.NoError(t, d.Pick(d.ActiveCaptain(), d.Pool[len(d.Pool)-1]))
	}
	assert.ElementsMatch(t, players(8), append(append([]string{}, d.Teams[0]...), d.Teams[1]...))
}

func TestDraft_RejectsInvalidPicks(t *testing.T) {
	d := NewDraft([2]string{"p1", "p2"}, players(10))

	assert.ErrorIs(t, d.Pick("p5", "p6"), ErrNotCaptain)
	assert.ErrorIs(t, d.Pick("p2", "p6"), ErrNotYourTurn)
	assert.ErrorIs(t, d.Pick("p1", "p2"), ErrPlayerUnavailable)
	assert.ErrorIs(t, d.Pick("p1", "nobody"), ErrPlayerUnavailable)

	// Rejected picks do not change state
	assert.Len(t, d.Pool, 8)
	assert.Equal(t, "p1", d.ActiveCaptain())
}

func TestDraft_PickAfterDone(t *testing.T) {
	d := NewDraft([2]string{"p1", "p2"}, players(4))
	require.NoError(t, d.Pick("p1", "p3"))

	require.True(t, d.Done())
	assert.Equal(t, []string{"p1", "p3"}, d.Teams[0])
	assert.Equal(t, []string{"p2", "p4"}, d.Teams[1])
	assert.ErrorIs(t, d.Pick("p2", "p4"), ErrDraftComplete)
}
