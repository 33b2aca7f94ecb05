/* draft.go
 * Contains the captains draft state machine. Captains alternate picks in a snake order until every player has a team
 * Authors: Zachary Bower
 */

package logic

import (
	"errors"
	"slices"
)

var ErrNotCaptain = errors.New("only a captain can pick")
var ErrNotYourTurn = errors.New("it is not your turn")
var ErrPlayerUnavailable = errors.New("player is not available to pick")
var ErrTeamComplete = errors.New("team is already full")
var ErrDraftComplete = errors.New("draft already completed")

// MinDraftPool is the smallest number of players a captains draft runs with. Smaller pools are split at random
const MinDraftPool = 4

// pickOrder is the team that owns each pick: A, then B B, A A, ...
var pickOrder = []int{
	0,
	1, 1, 0, 0,
	1, 1, 0, 0,
	1, 1, 0, 0,
	1, 1, 0, 0,
	1, 1, 0, 0,
	1, 1, 0, 0,
	1, 1, 0, 0,
	1,
}

// Draft holds the state of a captains draft. Teams[i][0] is the captain of team i
type Draft struct {
	Teams    Rosters
	Pool     []string
	teamSize int
	turn     int
}

// NewDraft starts a draft
// Preconditions: Receives two distinct captains and every player in the lobby including the captains
// Postconditions: Returns a draft where each team holds only its captain and the pool holds everyone else
func NewDraft(captains [2]string, players []string) *Draft {
	d := &Draft{
		Teams:    Rosters{{captains[0]}, {captains[1]}},
		teamSize: len(players) / 2,
	}
	for _, p := range players {
		if p != captains[0] && p != captains[1] {
			d.Pool = append(d.Pool, p)
		}
	}
	d.autoAssign()
	return d
}

// Done reports whether every player has been assigned
func (d *Draft) Done() bool {
	return len(d.Pool) == 0
}

// ActiveCaptain returns the captain whose turn it is, or "" once the draft is done
func (d *Draft) ActiveCaptain() string {
	if d.Done() {
		return ""
	}
	return d.Teams[d.activeTeam()][0]
}

// Pick assigns a player from the pool to the acting captain's team
// Preconditions: Receives the acting user and the player they want
// Postconditions: The player moves from the pool to the captain's team, or an error explains why the pick was
// rejected and the state is unchanged. When one player remains they join the smaller team
func (d *Draft) Pick(captain string, player string) error {
	if d.Done() {
		return ErrDraftComplete
	}
	team := d.captainTeam(captain)
	if team < 0 {
		return ErrNotCaptain
	}
	if len(d.Teams[team]) >= d.teamSize {
		return ErrTeamComplete
	}
	if team != d.activeTeam() {
		return ErrNotYourTurn
	}
	idx := slices.Index(d.Pool, player)
	if idx < 0 {
		return ErrPlayerUnavailable
	}

	d.Teams[team] = append(d.Teams[team], player)
	d.Pool = slices.Delete(d.Pool, idx, idx+1)
	d.turn++
	d.autoAssign()
	return nil
}

func (d *Draft) activeTeam() int {
	team := pickOrder[d.turn%len(pickOrder)]
	if len(d.Teams[team]) >= d.teamSize {
		return 1 - team
	}
	return team
}

func (d *Draft) captainTeam(user string) int {
	for i, team := range d.Teams {
		if team[0] == user {
			return i
		}
	}
	return -1
}

func (d *Draft) autoAssign() {
	if len(d.Pool) != 1 {
		return
	}
	team := 0
	if len(d.Teams[1]) < len(d.Teams[0]) {
		team = 1
	}
	d.Teams[team] = append(d.Teams[team], d.Pool[0])
	d.Pool = nil
}
