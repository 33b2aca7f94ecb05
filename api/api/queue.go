/* queue.go
 * Contains the queue membership operations. A join that fills the lobby locks it in the same critical section and
 * hands over to the ready check and match setup pipeline
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// JoinResult is the queue state after a successful join
type JoinResult struct {
	Lobby  *shared.Lobby
	Filled bool
}

// HandleJoin processes a player entering the lobby's queue space. When the join fills the lobby the ready check
// and match setup run before HandleJoin returns
// Preconditions: Receives the lobby id and the joining user id
// Postconditions: Returns nil if the player was queued, or the reason they were not
func (a *API) HandleJoin(ctx context.Context, lobbyID string, userID string) error {
	res, err := a.JoinQueue(ctx, lobbyID, userID)
	if err != nil {
		return err
	}
	a.refreshQueue(ctx, lobbyID, false)
	if res.Filled {
		a.runFilledLobby(ctx, res.Lobby)
	}
	return nil
}

// HandleLeave processes a player leaving the lobby's queue space
func (a *API) HandleLeave(ctx context.Context, lobbyID string, userID string) error {
	removed, err := a.LeaveQueue(ctx, lobbyID, userID)
	if err != nil {
		return err
	}
	if removed {
		a.refreshQueue(ctx, lobbyID, false)
	}
	return nil
}

// JoinQueue adds a player to a lobby queue
// Preconditions: Receives the lobby id and the joining user id
// Postconditions: The player is appended to the queue, or one of ErrLobbyLocked, ErrNotLinked, ErrAlreadyInMatch,
// ErrAlreadyQueued, ErrQueuedElsewhere, ErrLobbyFull, ErrNotOnRosteredTeam or ErrTeamFull is returned and nothing
// changed. When the join fills the lobby, the lobby is left locked and Filled is set
func (a *API) JoinQueue(ctx context.Context, lobbyID string, userID string) (*JoinResult, error) {
	unlockUser := a.lockUser(userID)
	defer unlockUser()

	var res *JoinResult
	err := a.guards.mutate(lobbyID, func() (bool, error) {
		lobby, err := a.getLobby(ctx, lobbyID)
		if err != nil {
			return false, err
		}
		if err := a.checkEligible(ctx, lobby, userID); err != nil {
			return false, err
		}

		player := shared.QueuedPlayer{UserID: userID, JoinedAt: time.Now().UTC()}
		slots := lobby.TeamSlots
		var team *shared.Team
		if lobby.Mode == shared.ModeTeam {
			team, err = a.Store.GetTeamByMember(ctx, lobby.GuildID, userID)
			if err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					return false, ErrNotOnRosteredTeam
				}
				return false, err
			}
			unlockTeam := a.lockTeam(team.ID)
			defer unlockTeam()
			if lobby.SlotOf(team.ID) < 0 {
				free := slices.Index(slots[:], "")
				if free < 0 {
					return false, ErrNotOnRosteredTeam
				}
				slots[free] = team.ID
			}
			if lobby.TeamCount(team.ID) >= lobby.Capacity/2 {
				return false, ErrTeamFull
			}
			player.TeamID = team.ID
		}

		if err := a.Store.AddQueuedPlayer(ctx, lobbyID, player, slots); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return false, ErrAlreadyQueued
			}
			return false, err
		}
		before := lobby.TeamCount(player.TeamID)
		lobby.Queue = append(lobby.Queue, player)
		lobby.TeamSlots = slots
		if team != nil {
			a.syncEarlyAccess(ctx, lobby, team.Members, before, lobby.TeamCount(team.ID))
		}

		res = &JoinResult{Lobby: lobby, Filled: len(lobby.Queue) >= lobby.Capacity}
		return res.Filled, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *API) checkEligible(ctx context.Context, lobby *shared.Lobby, userID string) error {
	user, err := a.Store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotLinked
		}
		return err
	}
	if !user.Linked() {
		return ErrNotLinked
	}
	if a.poller.Playing(userID) {
		return ErrAlreadyInMatch
	}
	inMatch, err := a.Store.IsUserInMatch(ctx, userID)
	if err != nil {
		return err
	}
	if inMatch {
		return ErrAlreadyInMatch
	}
	if lobby.IsQueued(userID) {
		return ErrAlreadyQueued
	}
	other, err := a.Store.GetLobbyByQueuedUser(ctx, userID)
	switch {
	case err == nil && other.ID != lobby.ID:
		return ErrQueuedElsewhere
	case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
		return err
	}
	if len(lobby.Queue) >= lobby.Capacity {
		return ErrLobbyFull
	}
	return nil
}

// LeaveQueue removes a player from a lobby queue. Leaving a queue the player is not in changes nothing
// Preconditions: Receives the lobby id and the leaving user id
// Postconditions: Returns whether the player was removed, or ErrLobbyLocked and nothing changed
func (a *API) LeaveQueue(ctx context.Context, lobbyID string, userID string) (bool, error) {
	removed := false
	err := a.guards.mutate(lobbyID, func() (bool, error) {
		lobby, err := a.getLobby(ctx, lobbyID)
		if err != nil {
			return false, err
		}
		if !lobby.IsQueued(userID) {
			return false, nil
		}
		removed = true
		return false, a.removePlayers(ctx, lobby, []string{userID})
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// removePlayers drops players from the queue, frees the slot of any team left without queued members and revokes
// early access for teams that fell below the threshold. The caller holds the lobby mutex
func (a *API) removePlayers(ctx context.Context, lobby *shared.Lobby, userIDs []string) error {
	before := make(map[string]int)
	for _, slot := range lobby.TeamSlots {
		if slot != "" {
			before[slot] = lobby.TeamCount(slot)
		}
	}

	remaining := lo.Filter(lobby.Queue, func(p shared.QueuedPlayer, _ int) bool {
		return !slices.Contains(userIDs, p.UserID)
	})
	after := &shared.Lobby{Queue: remaining, TeamSlots: lobby.TeamSlots}
	slots := lobby.TeamSlots
	for i, slot := range slots {
		if slot != "" && after.TeamCount(slot) == 0 {
			slots[i] = ""
		}
	}

	if err := a.Store.RemoveQueuedPlayers(ctx, lobby.ID, userIDs, slots); err != nil {
		return fmt.Errorf("failed to remove players from queue: %w", err)
	}
	lobby.Queue = remaining
	lobby.TeamSlots = slots

	for teamID, count := range before {
		team, err := a.Store.GetTeam(ctx, teamID)
		if err != nil {
			a.log.Warn("failed to load team for early access", zap.String("team", teamID), zap.Error(err))
			continue
		}
		a.syncEarlyAccess(ctx, lobby, team.Members, count, lobby.TeamCount(teamID))
	}
	return nil
}

// syncEarlyAccess grants a team access to the queue space while capacity/2-1 or more of its members are queued,
// and revokes it when the count drops below. Only crossings of the threshold touch the platform
func (a *API) syncEarlyAccess(ctx context.Context, lobby *shared.Lobby, members []string, before int, after int) {
	threshold := lobby.Capacity/2 - 1
	if threshold <= 0 {
		return
	}
	wasOpen := before >= threshold
	isOpen := after >= threshold
	if wasOpen == isOpen {
		return
	}
	if err := a.platform.SetEarlyAccess(ctx, lobby, members, isOpen); err != nil {
		a.log.Warn("failed to update team early access",
			zap.String("lobby", lobby.ID), zap.Bool("allow", isOpen), zap.Error(err))
	}
}

// clearQueue empties the queue of a lobby (optionally changing capacity) and revokes the early access of the teams
// that occupied its slots. The caller holds the lobby mutex
func (a *API) clearQueue(ctx context.Context, lobby *shared.Lobby, capacity int) error {
	slotted := make(map[string]int)
	for _, slot := range lobby.TeamSlots {
		if slot != "" {
			slotted[slot] = lobby.TeamCount(slot)
		}
	}
	if err := a.Store.ResetQueue(ctx, lobby.ID, capacity); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	for teamID, count := range slotted {
		team, err := a.Store.GetTeam(ctx, teamID)
		if err != nil {
			a.log.Warn("failed to load team for early access", zap.String("team", teamID), zap.Error(err))
			continue
		}
		a.syncEarlyAccess(ctx, lobby, team.Members, count, 0)
	}
	lobby.Queue = nil
	lobby.TeamSlots = [2]string{}
	lobby.Capacity = capacity
	return nil
}

// SetCapacity changes the capacity of a lobby. The queue is cleared in the same store update
// Preconditions: Receives the lobby id and the new capacity
// Postconditions: Capacity changed and queue empty, or ErrInvalidCapacity, ErrUnchanged or ErrLobbyLocked
func (a *API) SetCapacity(ctx context.Context, lobbyID string, capacity int) error {
	if !validCapacity(capacity) {
		return ErrInvalidCapacity
	}
	var evicted []string
	var lobby *shared.Lobby
	err := a.guards.mutate(lobbyID, func() (bool, error) {
		var err error
		lobby, err = a.getLobby(ctx, lobbyID)
		if err != nil {
			return false, err
		}
		if lobby.Capacity == capacity {
			return false, ErrUnchanged
		}
		evicted = lobby.QueuedIDs()
		return false, a.clearQueue(ctx, lobby, capacity)
	})
	if err != nil {
		return err
	}
	a.releasePlayers(ctx, lobby, evicted)
	a.refreshQueue(ctx, lobbyID, false)
	return nil
}

// EmptyQueue removes every player from a lobby queue
func (a *API) EmptyQueue(ctx context.Context, lobbyID string) error {
	var evicted []string
	var lobby *shared.Lobby
	err := a.guards.mutate(lobbyID, func() (bool, error) {
		var err error
		lobby, err = a.getLobby(ctx, lobbyID)
		if err != nil {
			return false, err
		}
		evicted = lobby.QueuedIDs()
		return false, a.clearQueue(ctx, lobby, lobby.Capacity)
	})
	if err != nil {
		return err
	}
	a.releasePlayers(ctx, lobby, evicted)
	a.refreshQueue(ctx, lobbyID, false)
	return nil
}

// releasePlayers moves players out of the queue space to the lobby's pre-match channel
func (a *API) releasePlayers(ctx context.Context, lobby *shared.Lobby, userIDs []string) {
	if len(userIDs) == 0 || lobby.Spaces.PrematchChannelID == "" {
		return
	}
	if err := a.platform.MovePlayers(ctx, lobby.GuildID, userIDs, lobby.Spaces.PrematchChannelID); err != nil {
		a.log.Warn("failed to move players to pre-match channel", zap.String("lobby", lobby.ID), zap.Error(err))
	}
}

func validCapacity(capacity int) bool {
	return capacity >= 2 && capacity <= 32 && capacity%2 == 0
}
