/* teams_test.go
 * Contains unit tests for teams.go
 * Authors: Zachary Bower
 */

package logic

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func players(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("p%d", i+1)
	}
	return out
}

// region RandomTeams tests

func TestRandomTeams_SplitsEvenly(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := players(10)

	teams := RandomTeams(pool, rng)

	assert.Len(t, teams[0], 5)
	assert.Len(t, teams[1], 5)
	assert.ElementsMatch(t, pool, append(append([]string{}, teams[0]...), teams[1]...))
}

func TestRandomTeams_DoesNotMutateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pool := players(4)

	RandomTeams(pool, rng)

	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, pool)
}

// endregion

// region AutobalanceTeams tests

func TestAutobalanceTeams_GreedyAssignment(t *testing.T) {
	ratings := map[string]float64{"p1": 100, "p2": 90, "p3": 80, "p4": 70}

	teams := AutobalanceTeams([]string{"p3", "p1", "p4", "p2"}, ratings)

	assert.Equal(t, []string{"p1", "p4"}, teams[0])
	assert.Equal(t, []string{"p2", "p3"}, teams[1])
	assert.Equal(t, TeamRating(teams[0], ratings), TeamRating(teams[1], ratings))
}

func TestAutobalanceTeams_MissingRatingsDefaultToZero(t *testing.T) {
	ratings := map[string]float64{"p1": 50}

	teams := AutobalanceTeams(players(4), ratings)

	assert.Equal(t, 4, teams.Size())
	assert.Len(t, teams[0], 2)
	assert.Len(t, teams[1], 2)
	assert.Contains(t, teams[0], "p1")
}

func TestAutobalanceTeams_NeverExceedsHalf(t *testing.T) {
	ratings := map[string]float64{"p1": 1000, "p2": 1, "p3": 1, "p4": 1, "p5": 1, "p6": 1}

	teams := AutobalanceTeams(players(6), ratings)

	assert.Len(t, teams[0], 3)
	assert.Len(t, teams[1], 3)
}

// endregion

// region PickCaptains tests

func TestPickCaptains_Rank(t *testing.T) {
	ratings := map[string]float64{"p1": 1, "p2": 5, "p3": 3, "p4": 4}
	rng := rand.New(rand.NewSource(1))

	captains := PickCaptains(shared.CaptainMethodRank, players(4), ratings, nil, rng)

	assert.Equal(t, [2]string{"p2", "p4"}, captains)
}

func TestPickCaptains_VolunteersFirst(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	captains := PickCaptains(shared.CaptainMethodVolunteer, players(6), nil, []string{"p5", "p5", "outsider", "p2", "p3"}, rng)

	assert.Equal(t, [2]string{"p5", "p2"}, captains)
}

func TestPickCaptains_VolunteerShortfallFilledRandomly(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	captains := PickCaptains(shared.CaptainMethodVolunteer, players(6), nil, []string{"p4"}, rng)

	assert.Equal(t, "p4", captains[0])
	assert.NotEqual(t, "p4", captains[1])
	assert.Contains(t, players(6), captains[1])
}

func TestPickCaptains_RandomDistinct(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	captains := PickCaptains(shared.CaptainMethodRandom, players(2), nil, nil, rng)

	require.NotEqual(t, captains[0], captains[1])
	assert.ElementsMatch(t, []string{"p1", "p2"}, captains[:])
}

// endregion
