/* formation.go
 * Contains team formation for a match attempt: fixed rosters for team lobbies, and random, autobalanced or
 * drafted teams for open queue lobbies
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/logic"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// formTeams resolves both sides of the match. The captain of each side is the first entry of its roster
func (a *API) formTeams(ctx context.Context, run *setupRun) ([2]shared.MatchTeam, error) {
	if run.lobby.Mode == shared.ModeTeam {
		return a.fixedTeams(ctx, run)
	}

	var rosters logic.Rosters
	switch {
	case run.lobby.TeamMethod == shared.TeamMethodCaptains && len(run.players) >= logic.MinDraftPool:
		var err error
		rosters, err = a.draftTeams(ctx, run)
		if err != nil {
			return [2]shared.MatchTeam{}, err
		}
	case run.lobby.TeamMethod == shared.TeamMethodAutobalance:
		ratings, err := a.playerRatings(ctx, run)
		if err != nil {
			run.log.Warn("failed to fetch ratings, falling back to random teams", zap.Error(err))
			rosters = a.randomTeams(run.players)
		} else {
			rosters = logic.AutobalanceTeams(run.players, ratings)
		}
	default:
		rosters = a.randomTeams(run.players)
	}

	var teams [2]shared.MatchTeam
	for i, roster := range rosters {
		teams[i] = shared.MatchTeam{
			Name:      "team_" + run.name(roster[0]),
			Captain:   roster[0],
			Members:   roster,
			Ephemeral: true,
		}
	}
	return teams, nil
}

func (a *API) randomTeams(players []string) logic.Rosters {
	var rosters logic.Rosters
	a.withRand(func(rng *rand.Rand) {
		rosters = logic.RandomTeams(players, rng)
	})
	return rosters
}

// fixedTeams builds the sides from the two teams occupying the lobby slots. The team captain leads the side when
// they are queued, otherwise the first queued member does
func (a *API) fixedTeams(ctx context.Context, run *setupRun) ([2]shared.MatchTeam, error) {
	var teams [2]shared.MatchTeam
	for i, slot := range run.lobby.TeamSlots {
		if slot == "" {
			return teams, fmt.Errorf("lobby slot %d is empty", i+1)
		}
		team, err := a.Store.GetTeam(ctx, slot)
		if err != nil {
			return teams, fmt.Errorf("failed to load team %s: %w", slot, err)
		}
		members := lo.FilterMap(run.lobby.Queue, func(p shared.QueuedPlayer, _ int) (string, bool) {
			return p.UserID, p.TeamID == slot
		})
		if idx := slices.Index(members, team.CaptainID); idx > 0 {
			members[0], members[idx] = members[idx], members[0]
		}
		teams[i] = shared.MatchTeam{
			Name:       team.Name,
			TeamID:     team.ID,
			ExternalID: team.ExternalID,
			Captain:    members[0],
			Members:    members,
		}
	}
	return teams, nil
}

// playerRatings returns the skill rating of each player keyed by user id. Players without a rating count as zero
func (a *API) playerRatings(ctx context.Context, run *setupRun) (map[string]float64, error) {
	if a.ratings == nil {
		return nil, errors.New("no rating provider configured")
	}
	bySteam := make(map[string]string, len(run.players))
	for _, p := range run.players {
		if u := run.users[p]; u != nil && u.SteamID != "" {
			bySteam[u.SteamID] = p
		}
	}
	steamRatings, err := a.ratings.FetchRatings(ctx, lo.Keys(bySteam))
	if err != nil {
		return nil, err
	}
	ratings := make(map[string]float64, len(run.players))
	for steamID, userID := range bySteam {
		ratings[userID] = steamRatings[steamID]
	}
	return ratings, nil
}

// draftTeams picks captains per the lobby's captain method and runs the draft
func (a *API) draftTeams(ctx context.Context, run *setupRun) (logic.Rosters, error) {
	var ratings map[string]float64
	var volunteers []string
	switch run.lobby.CaptainMethod {
	case shared.CaptainMethodRank:
		var err error
		ratings, err = a.playerRatings(ctx, run)
		if err != nil {
			run.log.Warn("failed to fetch ratings, picking random captains", zap.Error(err))
		}
	case shared.CaptainMethodVolunteer:
		var err error
		volunteers, err = a.collectVolunteers(ctx, run)
		if err != nil {
			return logic.Rosters{}, err
		}
	}

	method := run.lobby.CaptainMethod
	if method == shared.CaptainMethodRank && ratings == nil {
		method = shared.CaptainMethodRandom
	}
	var captains [2]string
	a.withRand(func(rng *rand.Rand) {
		captains = logic.PickCaptains(method, run.players, ratings, volunteers, rng)
	})
	run.step(fmt.Sprintf("Captains: %s and %s", mention(captains[0]), mention(captains[1])))
	return a.runDraft(ctx, run, captains)
}

// collectVolunteers asks for captain volunteers until two have volunteered or the window closes
func (a *API) collectVolunteers(ctx context.Context, run *setupRun) ([]string, error) {
	var volunteers []string
	ref, err := a.surface.Post(ctx, run.lobby.Spaces.TextChannelID, volunteerDisplay(volunteers))
	if err != nil {
		return nil, err
	}
	sub, err := a.surface.Subscribe(ref)
	if err != nil {
		return nil, err
	}
	defer sub.Close()
	defer a.deleteDisplay(ctx, ref)

	timer := time.NewTimer(a.timeouts.Volunteer)
	defer timer.Stop()
	for len(volunteers) < 2 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-sub.Deleted():
			return nil, ErrSurfaceDeleted
		case <-timer.C:
			return volunteers, nil
		case ev := <-sub.Choices():
			if ev.Value != optionVolunteer || !slices.Contains(run.players, ev.UserID) || slices.Contains(volunteers, ev.UserID) {
				continue
			}
			volunteers = append(volunteers, ev.UserID)
			if err := a.surface.Update(ctx, ref, volunteerDisplay(volunteers)); err != nil {
				run.log.Debug("failed to update volunteer display", zap.Error(err))
			}
		}
	}
	return volunteers, nil
}

// runDraft runs the captains draft until every player is picked
// Preconditions: Receives the setup run and the two captains
// Postconditions: Returns both rosters with the captain first, or ErrDraftTimeout when the window closes and
// ErrSurfaceDeleted when the draft display is deleted
func (a *API) runDraft(ctx context.Context, run *setupRun, captains [2]string) (logic.Rosters, error) {
	draft := logic.NewDraft(captains, run.players)
	if draft.Done() {
		return draft.Teams, nil
	}
	deadline := time.Now().Add(a.timeouts.Draft)
	names := run.names()

	ref, err := a.surface.Post(ctx, run.lobby.Spaces.TextChannelID, draftDisplay(draft, deadline, names))
	if err != nil {
		return logic.Rosters{}, err
	}
	sub, err := a.surface.Subscribe(ref)
	if err != nil {
		return logic.Rosters{}, err
	}
	defer sub.Close()

	timer := time.NewTimer(a.timeouts.Draft)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return logic.Rosters{}, ctx.Err()
		case <-sub.Deleted():
			return logic.Rosters{}, ErrSurfaceDeleted
		case <-timer.C:
			a.deleteDisplay(ctx, ref)
			return logic.Rosters{}, ErrDraftTimeout
		case ev := <-sub.Choices():
			if err := draft.Pick(ev.UserID, ev.Value); err != nil {
				run.log.Debug("rejected draft pick", zap.String("user", ev.UserID), zap.String("player", ev.Value), zap.Error(err))
				continue
			}
			if err := a.surface.Update(ctx, ref, draftDisplay(draft, deadline, names)); err != nil {
				run.log.Debug("failed to update draft display", zap.Error(err))
			}
			if draft.Done() {
				return draft.Teams, nil
			}
		}
	}
}

// deleteDisplay removes an interactive display, ignoring displays that are already gone
func (a *API) deleteDisplay(ctx context.Context, ref shared.SurfaceRef) {
	if err := a.surface.Delete(context.WithoutCancel(ctx), ref); err != nil && !errors.Is(err, ErrSurfaceGone) {
		a.log.Debug("failed to delete display", zap.String("message", ref.MessageID), zap.Error(err))
	}
}
