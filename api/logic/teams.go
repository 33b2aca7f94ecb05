/* teams.go
 * Contains the team formation policies (random and autobalance) and captain selection used when a lobby fills
 * Authors: Zachary Bower
 */

package logic

import (
	"math/rand"
	"slices"
	"sort"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/samber/lo"
)

// Rosters is the outcome of a formation policy. Rosters[0] is team A
type Rosters [2][]string

// Size returns the number of players across both teams
func (r Rosters) Size() int {
	return len(r[0]) + len(r[1])
}

// RandomTeams shuffles the players and splits them into two halves
// Preconditions: Receives the players to split and a random source
// Postconditions: Returns two teams whose sizes differ by at most one
func RandomTeams(players []string, rng *rand.Rand) Rosters {
	shuffled := slices.Clone(players)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	half := len(shuffled) / 2
	return Rosters{slices.Clone(shuffled[:half]), slices.Clone(shuffled[half:])}
}

// AutobalanceTeams greedily balances total rating. Players are taken highest rating first and each goes to the team
// with the strictly smaller total, team A on ties, and never past half the pool. Missing ratings count as zero.
// Preconditions: Receives the players to split and their ratings
// Postconditions: Returns two teams of equal size (±1 for odd pools)
func AutobalanceTeams(players []string, ratings map[string]float64) Rosters {
	sorted := byRatingDesc(players, ratings)
	limit := (len(players) + 1) / 2

	var teams Rosters
	var totals [2]float64
	for _, player := range sorted {
		team := 0
		switch {
		case len(teams[0]) >= limit:
			team = 1
		case len(teams[1]) >= limit:
			team = 0
		case totals[1] < totals[0]:
			team = 1
		}
		teams[team] = append(teams[team], player)
		totals[team] += ratings[player]
	}
	return teams
}

// TeamRating sums the ratings of a roster
func TeamRating(team []string, ratings map[string]float64) float64 {
	return lo.SumBy(team, func(p string) float64 { return ratings[p] })
}

// PickCaptains chooses the two draft captains
// Preconditions: Receives the captain method, at least two players, their ratings (rank method), the users that
// volunteered in the order they did so (volunteer method) and a random source
// Postconditions: Returns two distinct players. Volunteer slots left empty are filled at random
func PickCaptains(method shared.CaptainMethod, players []string, ratings map[string]float64, volunteers []string, rng *rand.Rand) [2]string {
	var chosen []string
	switch method {
	case shared.CaptainMethodRank:
		chosen = byRatingDesc(players, ratings)
	case shared.CaptainMethodVolunteer:
		chosen = lo.Uniq(lo.Filter(volunteers, func(v string, _ int) bool {
			return slices.Contains(players, v)
		}))
		if len(chosen) > 2 {
			chosen = chosen[:2]
		}
	}

	if len(chosen) < 2 {
		rest := RandomTeams(lo.Without(players, chosen...), rng)
		chosen = append(chosen, rest[0]...)
		chosen = append(chosen, rest[1]...)
	}
	return [2]string{chosen[0], chosen[1]}
}

func byRatingDesc(players []string, ratings map[string]float64) []string {
	sorted := slices.Clone(players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ratings[sorted[i]] > ratings[sorted[j]]
	})
	return sorted
}
