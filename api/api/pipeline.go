/* pipeline.go
 * Contains the pipeline run once a lobby fills: close the queue entry, ready check, match setup, then restore the
 * lobby for the next queue
 * Authors: Zachary Bower
 */

package api

import (
	"context"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"go.uber.org/zap"
)

// runFilledLobby owns the lobby lock taken by the filling join and always releases it
// Preconditions: Receives the snapshot of the lobby taken when it filled. The lobby is locked
// Postconditions: The lobby is unlocked, its entry is open and its queue display is refreshed. After a match
// attempt (successful or not) the queue is empty, after a partial ready check the unready players are evicted
func (a *API) runFilledLobby(ctx context.Context, lobby *shared.Lobby) {
	log := a.log.With(zap.String("lobby", lobby.ID))
	ctx = context.WithoutCancel(ctx)
	repost := false
	defer func() {
		a.guards.Unlock(lobby.ID)
		if err := a.platform.SetQueueEntry(ctx, lobby, true); err != nil {
			log.Warn("failed to reopen queue entry", zap.Error(err))
		}
		a.refreshQueue(ctx, lobby.ID, repost)
	}()

	if err := a.platform.SetQueueEntry(ctx, lobby, false); err != nil {
		log.Warn("failed to close queue entry", zap.Error(err))
	}

	players := lobby.QueuedIDs()
	res, err := a.runReadyCheck(ctx, lobby)
	if err != nil {
		log.Info("ready check aborted", zap.Error(err))
		a.endAttempt(ctx, lobby)
		a.releasePlayers(ctx, lobby, players)
		repost = true
		return
	}
	if res.Partial() {
		log.Info("ready check timed out", zap.Strings("unready", res.Unready))
		a.evictUnready(ctx, lobby, res.Unready)
		repost = true
		return
	}

	match, err := a.setupMatch(ctx, lobby)
	if err != nil {
		log.Warn("match setup failed", zap.Error(err))
	} else {
		log.Info("match created", zap.Int("match", match.ID))
	}
	a.endAttempt(ctx, lobby)
	repost = true
}

// endAttempt clears the queue after a match attempt. The lobby is still locked by the pipeline
func (a *API) endAttempt(ctx context.Context, lobby *shared.Lobby) {
	err := a.guards.internal(lobby.ID, func() error {
		fresh, err := a.getLobby(ctx, lobby.ID)
		if err != nil {
			return err
		}
		return a.clearQueue(ctx, fresh, fresh.Capacity)
	})
	if err != nil {
		a.log.Error("failed to clear queue after match attempt", zap.String("lobby", lobby.ID), zap.Error(err))
	}
}

// evictUnready removes the players that missed the ready check and moves them out of the queue space
func (a *API) evictUnready(ctx context.Context, lobby *shared.Lobby, unready []string) {
	err := a.guards.internal(lobby.ID, func() error {
		fresh, err := a.getLobby(ctx, lobby.ID)
		if err != nil {
			return err
		}
		return a.removePlayers(ctx, fresh, unready)
	})
	if err != nil {
		a.log.Error("failed to evict unready players", zap.String("lobby", lobby.ID), zap.Error(err))
		return
	}
	a.releasePlayers(ctx, lobby, unready)
}
