/* veto.go
 * Contains the interactive map veto run between the two captains of a match
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/logic"

	"go.uber.org/zap"
)

// runVeto runs the map veto for the lobby's series
// Preconditions: Receives the setup run and the captains of team A and team B
// Postconditions: Returns the maps to play in order, or ErrVetoTimeout / ErrSurfaceDeleted. Either error aborts
// the match attempt
func (a *API) runVeto(ctx context.Context, run *setupRun, captains [2]string) ([]string, error) {
	veto, err := logic.NewVeto(run.lobby.Series, captains, run.lobby.MapPool)
	if err != nil {
		return nil, err
	}
	if veto.Done() {
		return veto.Picks, nil
	}
	deadline := time.Now().Add(a.timeouts.Veto)

	ref, err := a.surface.Post(ctx, run.lobby.Spaces.TextChannelID, vetoDisplay(veto, deadline))
	if err != nil {
		return nil, err
	}
	sub, err := a.surface.Subscribe(ref)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	timer := time.NewTimer(a.timeouts.Veto)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-sub.Deleted():
			return nil, ErrSurfaceDeleted
		case <-timer.C:
			a.deleteDisplay(ctx, ref)
			return nil, ErrVetoTimeout
		case ev := <-sub.Choices():
			if err := veto.Choose(ev.UserID, ev.Value); err != nil {
				run.log.Debug("rejected veto choice", zap.String("user", ev.UserID), zap.String("map", ev.Value), zap.Error(err))
				continue
			}
			if err := a.surface.Update(ctx, ref, vetoDisplay(veto, deadline)); err != nil {
				run.log.Debug("failed to update veto display", zap.Error(err))
			}
			if veto.Done() {
				return veto.Picks, nil
			}
		}
	}
}
