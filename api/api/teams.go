/* teams.go
 * Contains the fixed team roster operations used by team mode lobbies: create, request to join, leave
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CreateTeam creates a fixed team captained by its creator
// Preconditions: Receives the guild, the team name and the captain's user id
// Postconditions: Returns the stored team, or ErrNotLinked, ErrAlreadyOnTeam or ErrTeamNameTaken
func (a *API) CreateTeam(ctx context.Context, guildID string, name string, captainID string) (*shared.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}
	if err := a.requireLinked(ctx, captainID); err != nil {
		return nil, err
	}
	unlock := a.lockUser(captainID)
	defer unlock()
	if err := a.requireTeamless(ctx, guildID, captainID); err != nil {
		return nil, err
	}
	if _, err := a.Store.GetTeamByName(ctx, guildID, name); err == nil {
		return nil, ErrTeamNameTaken
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	team := &shared.Team{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		Name:      name,
		CaptainID: captainID,
		Members:   []string{captainID},
	}
	if err := a.Store.InsertTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to store team: %w", err)
	}
	return team, nil
}

// Team returns a team by name
func (a *API) Team(ctx context.Context, guildID string, name string) (*shared.Team, error) {
	team, err := a.Store.GetTeamByName(ctx, guildID, strings.TrimSpace(name))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTeamNotFound
	}
	return team, err
}

// RequestTeamJoin asks the captain of a team to accept a user and waits for the answer
// Preconditions: Receives the guild, the team name, the requesting user and the channel to present the request in
// Postconditions: Returns the final status of the request. An accepted request adds the user to the roster and
// drops the team's external identity so the next match registers the new roster. An accept that can no longer
// be applied is returned as rejected together with ErrAlreadyOnTeam or ErrTeamBusy
func (a *API) RequestTeamJoin(ctx context.Context, guildID string, teamName string, userID string, channelID string) (InviteStatus, error) {
	if err := a.requireLinked(ctx, userID); err != nil {
		return "", err
	}
	if err := a.requireTeamless(ctx, guildID, userID); err != nil {
		return "", err
	}
	team, err := a.Team(ctx, guildID, teamName)
	if err != nil {
		return "", err
	}
	if busy, err := a.teamBusy(ctx, team); err != nil {
		return "", err
	} else if busy {
		return "", ErrTeamBusy
	}

	req, err := a.invites.open(team.ID, userID, a.timeouts.Invite)
	if err != nil {
		return "", err
	}
	defer a.invites.resolve(req, InviteExpired)

	prompt := inviteDisplay(team, userID, InvitePending)
	ref, err := a.surface.Post(ctx, channelID, prompt)
	if err != nil {
		return "", err
	}
	sub, err := a.surface.Subscribe(ref)
	if err != nil {
		return "", err
	}
	defer sub.Close()

	status := a.awaitCaptain(ctx, sub, team.CaptainID)
	var joinErr error
	if status == InviteAccepted {
		if joinErr = a.commitTeamJoin(ctx, guildID, team.ID, userID); joinErr != nil {
			status = InviteRejected
		}
	}
	status = a.invites.resolve(req, status)
	if err := a.surface.Update(ctx, ref, inviteDisplay(team, userID, status)); err != nil {
		a.log.Debug("failed to update join request display", zap.String("team", team.ID), zap.Error(err))
	}
	return status, joinErr
}

// commitTeamJoin adds an accepted user to the roster. The user must still be teamless and the team must still be
// out of every lobby and live match when the captain answers
// Postconditions: The user is a member, or ErrAlreadyOnTeam, ErrTeamBusy or ErrTeamNotFound is returned and the
// roster is unchanged
func (a *API) commitTeamJoin(ctx context.Context, guildID string, teamID string, userID string) error {
	unlockUser := a.lockUser(userID)
	defer unlockUser()
	unlockTeam := a.lockTeam(teamID)
	defer unlockTeam()

	if err := a.requireTeamless(ctx, guildID, userID); err != nil {
		return err
	}
	team, err := a.Store.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTeamNotFound
		}
		return err
	}
	if busy, err := a.teamBusy(ctx, team); err != nil {
		return err
	} else if busy {
		return ErrTeamBusy
	}
	if err := a.Store.AddTeamMember(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	a.dropExternalTeam(ctx, team)
	return nil
}

func (a *API) awaitCaptain(ctx context.Context, sub Subscription, captainID string) InviteStatus {
	timer := time.NewTimer(a.timeouts.Invite)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return InviteExpired
		case <-timer.C:
			return InviteExpired
		case <-sub.Deleted():
			return InviteRejected
		case ev := <-sub.Choices():
			if ev.UserID != captainID {
				continue
			}
			switch ev.Value {
			case optionAccept:
				return InviteAccepted
			case optionReject:
				return InviteRejected
			}
		}
	}
}

func inviteDisplay(team *shared.Team, userID string, status InviteStatus) shared.Display {
	d := shared.Display{
		Title:       "Team join request",
		Description: fmt.Sprintf("%s wants to join %s", mention(userID), team.Name),
	}
	if status == InvitePending {
		d.Footer = "Only the team captain can answer"
		d.Options = []shared.Option{{Value: optionAccept, Label: "Accept"}, {Value: optionReject, Label: "Reject"}}
		return d
	}
	d.Footer = "Request " + string(status)
	return d
}

// PendingInvites returns the requests waiting for the captain of a team
func (a *API) PendingInvites(teamID string) []InviteRequest {
	return a.invites.forTeam(teamID)
}

// LeaveTeam removes a user from their team. A captain can only leave once they are the last member, which
// deletes the team
func (a *API) LeaveTeam(ctx context.Context, guildID string, userID string) error {
	unlockUser := a.lockUser(userID)
	defer unlockUser()
	team, err := a.Store.GetTeamByMember(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTeamNotFound
		}
		return err
	}
	unlockTeam := a.lockTeam(team.ID)
	defer unlockTeam()
	if busy, err := a.teamBusy(ctx, team); err != nil {
		return err
	} else if busy {
		return ErrTeamBusy
	}

	if team.CaptainID == userID {
		if len(team.Members) > 1 {
			return ErrCaptainCannotLeave
		}
		a.dropExternalTeam(ctx, team)
		return a.Store.DeleteTeam(ctx, team.ID)
	}
	if err := a.Store.RemoveTeamMember(ctx, team.ID, userID); err != nil {
		return err
	}
	a.dropExternalTeam(ctx, team)
	return nil
}

// teamBusy reports whether the team occupies a lobby slot or any member plays a live match
func (a *API) teamBusy(ctx context.Context, team *shared.Team) (bool, error) {
	lobbies, err := a.Store.ListLobbies(ctx, team.GuildID)
	if err != nil {
		return false, err
	}
	for _, lobby := range lobbies {
		if lobby.SlotOf(team.ID) >= 0 {
			return true, nil
		}
	}
	for _, m := range team.Members {
		if a.poller.Playing(m) {
			return true, nil
		}
		inMatch, err := a.Store.IsUserInMatch(ctx, m)
		if err != nil {
			return false, err
		}
		if inMatch {
			return true, nil
		}
	}
	return false, nil
}

// dropExternalTeam deletes the team's identity on the match-hosting service after its roster changed
func (a *API) dropExternalTeam(ctx context.Context, team *shared.Team) {
	if team.ExternalID == 0 {
		return
	}
	if err := a.host.DeleteTeam(ctx, team.ExternalID); err != nil {
		a.log.Warn("failed to delete external team", zap.String("team", team.ID), zap.Error(err))
	}
	if err := a.Store.SetTeamExternalID(ctx, team.ID, 0); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		a.log.Warn("failed to clear external team id", zap.String("team", team.ID), zap.Error(err))
	}
}

func (a *API) requireLinked(ctx context.Context, userID string) error {
	user, err := a.User(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Linked() {
		return ErrNotLinked
	}
	return nil
}

func (a *API) requireTeamless(ctx context.Context, guildID string, userID string) error {
	_, err := a.Store.GetTeamByMember(ctx, guildID, userID)
	switch {
	case err == nil:
		return ErrAlreadyOnTeam
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil
	default:
		return err
	}
}
