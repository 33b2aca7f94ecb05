/* lifecycle.go
 * Contains the match setup sequence run after a successful ready check: team formation, external teams, map veto,
 * server selection, season, match creation, and the compensation run when any of those steps fails
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/external"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// setupRun is the state of one match attempt
type setupRun struct {
	a        *API
	lobby    *shared.Lobby
	players  []string
	users    map[string]*shared.User
	progress shared.SurfaceRef
	steps    []string
	created  []int
	log      *zap.Logger
}

func (r *setupRun) name(userID string) string {
	if u := r.users[userID]; u != nil && u.Username != "" {
		return u.Username
	}
	return userID
}

func (r *setupRun) names() map[string]string {
	names := make(map[string]string, len(r.users))
	for id := range r.users {
		names[id] = r.name(id)
	}
	return names
}

// step records a completed step on the progress display
func (r *setupRun) step(text string) {
	r.steps = append(r.steps, text)
	r.status(context.Background(), "Setting up the match...")
}

func (r *setupRun) status(ctx context.Context, status string) {
	if r.progress.Empty() {
		return
	}
	if err := r.a.surface.Update(ctx, r.progress, setupDisplay(r.steps, status)); err != nil {
		r.log.Debug("failed to update setup progress", zap.Error(err))
	}
}

// setupMatch creates the match for a lobby whose players all acknowledged the ready check
// Preconditions: Receives the locked lobby snapshot holding the full queue
// Postconditions: Returns the created match, persisted and tracked by the poller. On failure the external teams
// created for the attempt are deleted, the players are moved to the pre-match channel and the error is returned
func (a *API) setupMatch(ctx context.Context, lobby *shared.Lobby) (*shared.Match, error) {
	run := &setupRun{
		a:       a,
		lobby:   lobby,
		players: lobby.QueuedIDs(),
		users:   make(map[string]*shared.User),
		log:     a.log.With(zap.String("lobby", lobby.ID)),
	}
	ref, err := a.surface.Post(ctx, lobby.Spaces.TextChannelID, setupDisplay(nil, "Setting up the match..."))
	if err != nil {
		run.log.Warn("failed to post setup progress", zap.Error(err))
	} else {
		run.progress = ref
	}

	match, err := a.createMatch(ctx, run)
	if err != nil {
		a.compensate(ctx, run, err)
		return nil, err
	}
	return match, nil
}

func (a *API) createMatch(ctx context.Context, run *setupRun) (*shared.Match, error) {
	lobby := run.lobby
	for _, p := range run.players {
		user, err := a.Store.GetUser(ctx, p)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to load user %s: %w", p, err)
		}
		run.users[p] = user
	}

	teams, err := a.formTeams(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("failed to form teams: %w", err)
	}
	run.step(fmt.Sprintf("Teams formed: %s vs %s", teams[0].Name, teams[1].Name))

	if err := a.ensureExternalTeams(ctx, run, &teams); err != nil {
		return nil, fmt.Errorf("failed to create teams: %w", err)
	}
	run.step("Teams registered")

	maps, err := a.runVeto(ctx, run, [2]string{teams[0].Captain, teams[1].Captain})
	if err != nil {
		return nil, fmt.Errorf("map veto failed: %w", err)
	}
	run.step("Maps: " + strings.Join(maps, ", "))

	server, err := a.selectServer(ctx, lobby.Region)
	if err != nil {
		return nil, err
	}
	run.step("Server: " + server.DisplayName)

	seasonID := 0
	if lobby.SeasonID != 0 {
		season, err := a.host.GetSeason(ctx, lobby.SeasonID)
		if err != nil {
			if errors.Is(err, external.ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrSeasonNotFound, lobby.SeasonID)
			}
			return nil, fmt.Errorf("failed to load season: %w", err)
		}
		seasonID = season.ID
		run.step("Season: " + season.Name)
	}

	matchID, err := a.host.CreateMatch(ctx, external.MatchRequest{
		ServerID:          server.ID,
		Team1ID:           teams[0].ExternalID,
		Team2ID:           teams[1].ExternalID,
		SeasonID:          seasonID,
		Title:             fmt.Sprintf("%s: {TEAM1} vs {TEAM2}", lobby.Name),
		MaxMaps:           lobby.Series.MaxMaps(),
		SkipVeto:          true,
		VetoMappool:       strings.Join(maps, " "),
		SideType:          "always_knife",
		PlayersPerTeam:    lobby.Capacity / 2,
		MinPlayersToReady: lobby.Capacity / 2,
		StartTime:         time.Now().UTC().Format(time.RFC3339),
		Cvars:             lobby.Cvars,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	match := &shared.Match{
		ID:        matchID,
		LobbyID:   lobby.ID,
		GuildID:   lobby.GuildID,
		Teams:     teams,
		ServerID:  server.ID,
		Maps:      maps,
		Series:    lobby.Series,
		Display:   run.progress,
		CreatedAt: time.Now().UTC(),
	}
	a.openMatchSpaces(ctx, run, match)
	if err := a.Store.InsertMatch(ctx, match); err != nil {
		run.log.Error("failed to persist match", zap.Int("match", match.ID), zap.Error(err))
	}
	if !match.Display.Empty() {
		if err := a.surface.Update(ctx, match.Display, matchDisplay(match, nil, server)); err != nil {
			run.log.Debug("failed to show match display", zap.Int("match", match.ID), zap.Error(err))
		}
	}
	a.poller.Track(match)
	return match, nil
}

// ensureExternalTeams registers both sides on the match-hosting service. Fixed teams reuse their existing id,
// ephemeral teams are recorded so they can be deleted if the attempt fails
func (a *API) ensureExternalTeams(ctx context.Context, run *setupRun, teams *[2]shared.MatchTeam) error {
	for i := range teams {
		team := &teams[i]
		if !team.Ephemeral && team.ExternalID != 0 {
			continue
		}
		auth := make(map[string]external.TeamAuth, len(team.Members))
		for _, m := range team.Members {
			if u := run.users[m]; u != nil && u.SteamID != "" {
				auth[u.SteamID] = external.TeamAuth{Name: run.name(m), Captain: external.Flag(m == team.Captain)}
			}
		}
		id, err := a.host.CreateTeam(ctx, external.TeamRequest{Name: team.Name, AuthNames: auth})
		if err != nil {
			return err
		}
		team.ExternalID = id
		if team.Ephemeral {
			run.created = append(run.created, id)
			continue
		}
		if err := a.Store.SetTeamExternalID(ctx, team.TeamID, id); err != nil {
			run.log.Warn("failed to persist external team id", zap.String("team", team.TeamID), zap.Error(err))
		}
	}
	return nil
}

// selectServer returns the first free server of the region that answers its status probe
// Preconditions: Receives the lobby region, empty for any region
// Postconditions: Returns the server, ErrNoServersAvailable, or the error of the server list. An authorization
// failure while probing is returned immediately
func (a *API) selectServer(ctx context.Context, region string) (*external.GameServer, error) {
	servers, err := a.host.ListServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list game servers: %w", err)
	}
	for _, s := range servers {
		if bool(s.InUse) || (region != "" && !strings.EqualFold(s.Flag, region)) {
			continue
		}
		alive, err := a.host.ServerAlive(ctx, s.ID)
		if err != nil {
			if errors.Is(err, external.ErrUnauthorized) {
				return nil, err
			}
			a.log.Debug("game server probe failed", zap.Int("server", s.ID), zap.Error(err))
			continue
		}
		if alive {
			return &s, nil
		}
	}
	return nil, ErrNoServersAvailable
}

// openMatchSpaces creates the team voice channels and moves each team into its channel
func (a *API) openMatchSpaces(ctx context.Context, run *setupRun, match *shared.Match) {
	spaces, err := a.platform.CreateMatchSpaces(ctx, run.lobby, match)
	if err != nil {
		run.log.Warn("failed to create match channels", zap.Int("match", match.ID), zap.Error(err))
		return
	}
	match.Spaces = spaces
	if len(spaces.ChannelIDs) < len(match.Teams) {
		return
	}
	for i, team := range match.Teams {
		if err := a.platform.MovePlayers(ctx, match.GuildID, team.Members, spaces.ChannelIDs[i]); err != nil {
			run.log.Warn("failed to move team to match channel", zap.Int("match", match.ID), zap.Error(err))
		}
	}
}

// compensate undoes the side effects of a failed attempt. Its own failures are logged and never replace cause
func (a *API) compensate(ctx context.Context, run *setupRun, cause error) {
	ctx = context.WithoutCancel(ctx)
	var errs error
	for _, id := range lo.Uniq(run.created) {
		errs = multierr.Append(errs, a.host.DeleteTeam(ctx, id))
	}
	if run.lobby.Spaces.PrematchChannelID != "" {
		errs = multierr.Append(errs, a.platform.MovePlayers(ctx, run.lobby.GuildID, run.players, run.lobby.Spaces.PrematchChannelID))
	}
	if errs != nil {
		run.log.Warn("match setup compensation incomplete", zap.NamedError("cause", cause), zap.Error(errs))
	}
	run.status(ctx, "Match setup failed: "+cause.Error())
}
