/* ready_check.go
 * Contains the ready check run when a lobby fills. Every queued player must press ready within the window
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"go.uber.org/zap"
)

// ReadyResult is the outcome of a ready check that was not cancelled. Unready is empty when everyone acknowledged
type ReadyResult struct {
	Ready   []string
	Unready []string
}

// Partial reports whether the check timed out with players missing
func (r ReadyResult) Partial() bool {
	return len(r.Unready) > 0
}

// runReadyCheck presents the roster and collects acknowledgements until every player is ready or the window closes
// Preconditions: Receives the filled lobby. The caller holds the lobby lock
// Postconditions: Returns the ready and unready players, or ErrSurfaceDeleted when the display is deleted and the
// context error when the context is cancelled. The subscription is closed on every path
func (a *API) runReadyCheck(ctx context.Context, lobby *shared.Lobby) (ReadyResult, error) {
	players := lobby.QueuedIDs()
	ready := make(map[string]bool, len(players))
	deadline := time.Now().Add(a.timeouts.ReadyCheck)

	ref, err := a.surface.Post(ctx, lobby.Spaces.TextChannelID, readyDisplay(players, ready, deadline))
	if err != nil {
		return ReadyResult{}, err
	}
	sub, err := a.surface.Subscribe(ref)
	if err != nil {
		return ReadyResult{}, err
	}
	defer sub.Close()

	timer := time.NewTimer(a.timeouts.ReadyCheck)
	defer timer.Stop()

	deleted := false
	defer func() {
		if deleted {
			return
		}
		if err := a.surface.Delete(context.WithoutCancel(ctx), ref); err != nil && !errors.Is(err, ErrSurfaceGone) {
			a.log.Debug("failed to delete ready check display", zap.String("lobby", lobby.ID), zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ReadyResult{}, ctx.Err()
		case <-sub.Deleted():
			deleted = true
			return ReadyResult{}, ErrSurfaceDeleted
		case <-timer.C:
			return splitReady(players, ready), nil
		case ev := <-sub.Choices():
			if ev.Value != optionReady || ready[ev.UserID] || !slices.Contains(players, ev.UserID) {
				continue
			}
			ready[ev.UserID] = true
			if len(ready) == len(players) {
				return splitReady(players, ready), nil
			}
			if err := a.surface.Update(ctx, ref, readyDisplay(players, ready, deadline)); err != nil {
				a.log.Debug("failed to update ready check display", zap.String("lobby", lobby.ID), zap.Error(err))
			}
		}
	}
}

func splitReady(players []string, ready map[string]bool) ReadyResult {
	var res ReadyResult
	for _, p := range players {
		if ready[p] {
			res.Ready = append(res.Ready, p)
		} else {
			res.Unready = append(res.Unready, p)
		}
	}
	return res
}
