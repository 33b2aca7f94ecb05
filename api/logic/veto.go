/* veto.go
 * Contains the map veto state machine. Each series type follows a fixed script of bans and picks alternating
 * between the two captains
 * Authors: Zachary Bower
 */

package logic

import (
	"errors"
	"fmt"
	"slices"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"
)

var ErrMapUnavailable = errors.New("map is not available")
var ErrVetoComplete = errors.New("veto already completed")
var ErrMapPoolTooSmall = errors.New("map pool is too small for the series")

type VetoAction string

const (
	ActionBan  VetoAction = "ban"
	ActionPick VetoAction = "pick"
)

// vetoScript is the fixed order of actions for a series. Once steps run out the tail action repeats. Scripts with
// a decider end by picking the last remaining map automatically
type vetoScript struct {
	steps   []VetoAction
	tail    VetoAction
	decider bool
}

var vetoScripts = map[shared.SeriesType]vetoScript{
	shared.SeriesBo1: {
		tail:    ActionBan,
		decider: true,
	},
	shared.SeriesBo2: {
		steps: []VetoAction{ActionBan, ActionBan, ActionBan, ActionBan, ActionPick, ActionPick},
	},
	shared.SeriesBo3: {
		steps:   []VetoAction{ActionBan, ActionBan, ActionPick, ActionPick, ActionBan, ActionBan},
		tail:    ActionBan,
		decider: true,
	},
	shared.SeriesBo5: {
		steps:   []VetoAction{ActionBan, ActionBan, ActionPick, ActionPick, ActionPick, ActionPick},
		tail:    ActionBan,
		decider: true,
	},
}

// MinMapPool returns the smallest pool a series can be vetoed from
func MinMapPool(series shared.SeriesType) int {
	switch series {
	case shared.SeriesBo2:
		return 6
	case shared.SeriesBo3:
		return 5
	case shared.SeriesBo5:
		return 7
	default:
		return 1
	}
}

// Veto holds the state of a map veto. Captains[0] acts on even steps
type Veto struct {
	Series    shared.SeriesType
	Captains  [2]string
	Remaining []string
	Bans      []string
	Picks     []string
	script    vetoScript
	step      int
	done      bool
}

// NewVeto starts a veto. With an even pool the captains swap so the second captain acts first
// Preconditions: Receives the series, the two team captains and the lobby map pool
// Postconditions: Returns the veto or ErrMapPoolTooSmall. A bo1 with a single map is complete immediately
func NewVeto(series shared.SeriesType, captains [2]string, pool []string) (*Veto, error) {
	script, ok := vetoScripts[series]
	if !ok {
		return nil, fmt.Errorf("unknown series type %q", series)
	}
	if len(pool) < MinMapPool(series) {
		return nil, fmt.Errorf("%w: %s needs %d maps, pool has %d", ErrMapPoolTooSmall, series, MinMapPool(series), len(pool))
	}
	if len(pool)%2 == 0 {
		captains[0], captains[1] = captains[1], captains[0]
	}
	v := &Veto{
		Series:    series,
		Captains:  captains,
		Remaining: slices.Clone(pool),
		script:    script,
	}
	v.checkDone()
	return v, nil
}

// Done reports whether the veto has reached its terminal state
func (v *Veto) Done() bool {
	return v.done
}

// Action returns the action the active captain must take next
func (v *Veto) Action() VetoAction {
	if v.step < len(v.script.steps) {
		return v.script.steps[v.step]
	}
	return v.script.tail
}

// ActiveCaptain returns the captain whose turn it is, or "" once the veto is done
func (v *Veto) ActiveCaptain() string {
	if v.done {
		return ""
	}
	return v.Captains[v.step%2]
}

// Choose applies the active captain's ban or pick
// Preconditions: Receives the acting user and a map name
// Postconditions: The map moves from Remaining to Bans or Picks, or an error is returned and the state is unchanged
func (v *Veto) Choose(captain string, mapName string) error {
	if v.done {
		return ErrVetoComplete
	}
	if captain != v.ActiveCaptain() {
		return ErrNotYourTurn
	}
	idx := slices.Index(v.Remaining, mapName)
	if idx < 0 {
		return ErrMapUnavailable
	}

	switch v.Action() {
	case ActionPick:
		v.Picks = append(v.Picks, mapName)
	default:
		v.Bans = append(v.Bans, mapName)
	}
	v.Remaining = slices.Delete(v.Remaining, idx, idx+1)
	v.step++
	v.checkDone()
	return nil
}

func (v *Veto) checkDone() {
	if v.script.decider {
		if len(v.Remaining) == 1 {
			v.Picks = append(v.Picks, v.Remaining[0])
			v.Remaining = nil
			v.done = true
		}
		return
	}
	if v.step >= len(v.script.steps) {
		v.done = true
	}
}
