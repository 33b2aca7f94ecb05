/* display.go
 * Contains the builders for the displays the engine presents and the single flight queue display refresh
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
	"github.com/thboss/g5-discord-bot-sub000/api/logic"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const optionReady = "ready"
const optionVolunteer = "volunteer"
const optionAccept = "accept"
const optionReject = "reject"

func mention(userID string) string {
	return "<@" + userID + ">"
}

func mentionList(userIDs []string) string {
	if len(userIDs) == 0 {
		return "_empty_"
	}
	lines := make([]string, len(userIDs))
	for i, id := range userIDs {
		lines[i] = fmt.Sprintf("%d. %s", i+1, mention(id))
	}
	return strings.Join(lines, "\n")
}

// RefreshQueueDisplay re-renders the queue display of a lobby. With repost the old display is deleted and a new
// one is posted at the bottom of the channel
func (a *API) RefreshQueueDisplay(ctx context.Context, lobbyID string, repost bool) error {
	return a.guards.singleFlight(ctx, lobbyID, func() error {
		lobby, err := a.getLobby(ctx, lobbyID)
		if err != nil {
			return err
		}
		display := queueDisplay(lobby, a.guards.IsLocked(lobbyID))

		if repost && !lobby.Display.Empty() {
			if err := a.surface.Delete(ctx, lobby.Display); err != nil {
				a.log.Debug("failed to delete old queue display", zap.String("lobby", lobbyID), zap.Error(err))
			}
			lobby.Display = shared.SurfaceRef{}
		}
		if !lobby.Display.Empty() {
			err := a.surface.Update(ctx, lobby.Display, display)
			if err == nil {
				return nil
			}
			if !errors.Is(err, ErrSurfaceGone) {
				return fmt.Errorf("failed to update queue display: %w", err)
			}
		}

		ref, err := a.surface.Post(ctx, lobby.Spaces.TextChannelID, display)
		if err != nil {
			return fmt.Errorf("failed to post queue display: %w", err)
		}
		return a.Store.UpdateLobby(ctx, lobbyID, lobbyDisplayUpdate(ref))
	})
}

// refreshQueue refreshes the queue display and logs failures
func (a *API) refreshQueue(ctx context.Context, lobbyID string, repost bool) {
	if err := a.RefreshQueueDisplay(ctx, lobbyID, repost); err != nil {
		a.log.Warn("failed to refresh queue display", zap.String("lobby", lobbyID), zap.Error(err))
	}
}

func queueDisplay(lobby *shared.Lobby, locked bool) shared.Display {
	d := shared.Display{
		Title:       fmt.Sprintf("%s queue %d/%d", lobby.Name, len(lobby.Queue), lobby.Capacity),
		Description: mentionList(lobby.QueuedIDs()),
		Fields: []shared.DisplayField{
			{Name: "Series", Value: string(lobby.Series), Inline: true},
			{Name: "Teams", Value: string(lobby.TeamMethod), Inline: true},
			{Name: "Maps", Value: strings.Join(lobby.MapPool, ", ")},
		},
	}
	if lobby.Mode == shared.ModeTeam {
		d.Fields[1] = shared.DisplayField{Name: "Mode", Value: "teams", Inline: true}
	} else if lobby.TeamMethod == shared.TeamMethodCaptains {
		d.Fields = append(d.Fields, shared.DisplayField{Name: "Captains", Value: string(lobby.CaptainMethod), Inline: true})
	}
	if lobby.Region != "" {
		d.Fields = append(d.Fields, shared.DisplayField{Name: "Region", Value: lobby.Region, Inline: true})
	}
	if locked {
		d.Footer = "Setting up a match, the queue will reopen shortly"
	} else {
		d.Footer = "Join the queue voice channel to queue"
	}
	return d
}

func readyDisplay(players []string, ready map[string]bool, deadline time.Time) shared.Display {
	var waiting, done []string
	for _, p := range players {
		if ready[p] {
			done = append(done, mention(p))
		} else {
			waiting = append(waiting, mention(p))
		}
	}
	return shared.Display{
		Title:       "Lobby filled, ready up!",
		Description: fmt.Sprintf("Press ready %s", humanize.Time(deadline)),
		Fields: []shared.DisplayField{
			{Name: fmt.Sprintf("Ready (%d)", len(done)), Value: joinOrEmpty(done), Inline: true},
			{Name: fmt.Sprintf("Waiting (%d)", len(waiting)), Value: joinOrEmpty(waiting), Inline: true},
		},
		Options: []shared.Option{{Value: optionReady, Label: "Ready"}},
	}
}

func volunteerDisplay(volunteers []string) shared.Display {
	return shared.Display{
		Title:       "Captain selection",
		Description: "Press volunteer to become a captain. The first two volunteers captain the teams",
		Fields:      []shared.DisplayField{{Name: "Volunteers", Value: mentionList(volunteers)}},
		Options:     []shared.Option{{Value: optionVolunteer, Label: "Volunteer"}},
	}
}

func draftDisplay(d *logic.Draft, deadline time.Time, names map[string]string) shared.Display {
	options := make([]shared.Option, len(d.Pool))
	for i, p := range d.Pool {
		label := names[p]
		if label == "" {
			label = p
		}
		options[i] = shared.Option{Value: p, Label: label}
	}
	display := shared.Display{
		Title: "Captains draft",
		Fields: []shared.DisplayField{
			{Name: "Team " + nameOr(names, d.Teams[0][0]), Value: mentionList(d.Teams[0]), Inline: true},
			{Name: "Team " + nameOr(names, d.Teams[1][0]), Value: mentionList(d.Teams[1]), Inline: true},
		},
		Options: options,
	}
	if d.Done() {
		display.Description = "Draft complete"
	} else {
		display.Description = fmt.Sprintf("%s picks next. The draft ends %s", mention(d.ActiveCaptain()), humanize.Time(deadline))
	}
	return display
}

func vetoDisplay(v *logic.Veto, deadline time.Time) shared.Display {
	options := make([]shared.Option, len(v.Remaining))
	for i, m := range v.Remaining {
		options[i] = shared.Option{Value: m, Label: m}
	}
	display := shared.Display{
		Title: fmt.Sprintf("Map veto (%s)", v.Series),
		Fields: []shared.DisplayField{
			{Name: "Banned", Value: joinOrEmpty(v.Bans), Inline: true},
			{Name: "Picked", Value: joinOrEmpty(v.Picks), Inline: true},
		},
		Options: options,
	}
	if v.Done() {
		display.Description = "Veto complete"
	} else {
		display.Description = fmt.Sprintf("%s must %s a map. The veto ends %s", mention(v.ActiveCaptain()), v.Action(), humanize.Time(deadline))
	}
	return display
}

func setupDisplay(steps []string, status string) shared.Display {
	return shared.Display{
		Title:       "Match setup",
		Description: status,
		Fields:      []shared.DisplayField{{Name: "Progress", Value: joinOrEmpty(steps)}},
	}
}

func matchDisplay(match *shared.Match, live *external.Match, server *external.GameServer) shared.Display {
	d := shared.Display{
		Title: fmt.Sprintf("Match #%d", match.ID),
		Fields: []shared.DisplayField{
			{Name: match.Teams[0].Name, Value: mentionList(match.Teams[0].Members), Inline: true},
			{Name: match.Teams[1].Name, Value: mentionList(match.Teams[1].Members), Inline: true},
			{Name: "Maps", Value: strings.Join(match.Maps, ", ")},
		},
		Footer: "Started " + humanize.Time(match.CreatedAt),
	}
	if live != nil {
		d.Description = fmt.Sprintf("%s %d : %d %s", match.Teams[0].Name, live.Team1Score, live.Team2Score, match.Teams[1].Name)
	}
	if server != nil {
		d.Fields = append(d.Fields, shared.DisplayField{Name: "Server", Value: fmt.Sprintf("%s `connect %s`", server.DisplayName, server.Address())})
	}
	return d
}

func resultsDisplay(match *shared.Match, live *external.Match, stats []external.MapStats) shared.Display {
	d := shared.Display{
		Title:       fmt.Sprintf("Match #%d results", match.ID),
		Description: fmt.Sprintf("%s %d : %d %s", match.Teams[0].Name, live.Team1Score, live.Team2Score, match.Teams[1].Name),
	}
	for _, s := range stats {
		d.Fields = append(d.Fields, shared.DisplayField{
			Name:  fmt.Sprintf("Map %d: %s", s.MapNumber+1, s.MapName),
			Value: fmt.Sprintf("%d : %d", s.Team1Score, s.Team2Score),
		})
	}
	if live.EndTime != nil {
		if end, err := time.Parse(time.RFC3339, *live.EndTime); err == nil {
			d.Footer = fmt.Sprintf("Finished %s after %s", humanize.Time(end), strings.TrimSpace(humanize.RelTime(match.CreatedAt, end, "", "")))
		}
	}
	return d
}

func nameOr(names map[string]string, userID string) string {
	if name := names[userID]; name != "" {
		return name
	}
	return userID
}

func joinOrEmpty(values []string) string {
	if len(values) == 0 {
		return "_none_"
	}
	return strings.Join(values, "\n")
}
