/* poller.go
 * Contains the poller shared by every live match. It runs while at least one match is tracked, refreshes the match
 * displays and finalizes matches once the match-hosting service reports them over
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/external"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const pollConcurrency = 4

// Poller tracks live matches
type Poller struct {
	api      *API
	interval time.Duration
	// polling is held by the poll in progress
	polling sync.Mutex

	mu      sync.Mutex
	tracked map[int]*shared.Match
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func newPoller(a *API, interval time.Duration) *Poller {
	return &Poller{
		api:      a,
		interval: interval,
		tracked:  make(map[int]*shared.Match),
	}
}

// Track registers a match and starts the poll loop if it is not running
func (p *Poller) Track(match *shared.Match) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracked[match.ID] = match
	if !p.running {
		p.running = true
		p.stop = make(chan struct{})
		p.done = make(chan struct{})
		go p.loop(p.stop, p.done)
	}
}

// Untrack removes a match from polling
func (p *Poller) Untrack(matchID int) {
	p.mu.Lock()
	delete(p.tracked, matchID)
	p.mu.Unlock()
}

// Tracked returns the tracked matches ordered by id
func (p *Poller) Tracked() []shared.Match {
	p.mu.Lock()
	defer p.mu.Unlock()
	matches := make([]shared.Match, 0, len(p.tracked))
	for _, m := range p.tracked {
		matches = append(matches, *m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches
}

// Playing reports whether the user is a participant of a tracked match
func (p *Poller) Playing(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.tracked {
		if slices.Contains(m.Participants(), userID) {
			return true
		}
	}
	return false
}

// Running reports whether the poll loop is active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stop ends the poll loop and waits for the current poll to finish
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stop)
	done := p.done
	p.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.PollOnce(context.Background())
			if p.idle(stop) {
				return
			}
		}
	}
}

// idle marks the loop stopped when nothing is tracked. A loop that was already stopped reports idle
func (p *Poller) idle(stop <-chan struct{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != stop {
		return true
	}
	if len(p.tracked) == 0 {
		p.running = false
		return true
	}
	return false
}

// PollOnce polls every tracked match once. It returns false without polling when another poll is in progress
func (p *Poller) PollOnce(ctx context.Context) bool {
	if !p.polling.TryLock() {
		return false
	}
	defer p.polling.Unlock()

	var g errgroup.Group
	g.SetLimit(pollConcurrency)
	for _, m := range p.Tracked() {
		g.Go(func() error {
			p.api.pollMatch(ctx, &m)
			return nil
		})
	}
	_ = g.Wait()
	return true
}

// pollMatch refreshes one match, finalizing it when it is over or no longer exists
func (a *API) pollMatch(ctx context.Context, match *shared.Match) {
	log := a.log.With(zap.Int("match", match.ID))
	live, err := a.host.GetMatch(ctx, match.ID)
	switch {
	case errors.Is(err, external.ErrNotFound):
		log.Info("match no longer exists, finalizing")
		a.finalizeMatch(ctx, match, nil)
		return
	case err != nil && !external.IsRetryable(err):
		// the record is kept so a restart with working credentials resumes it
		log.Error("match status cannot be fetched, no longer polling", zap.Error(err))
		a.poller.Untrack(match.ID)
		return
	case err != nil:
		log.Warn("failed to fetch match status", zap.Error(err))
		return
	case live.Finished():
		a.finalizeMatch(ctx, match, live)
		return
	}

	server, err := a.host.GetServer(ctx, live.ServerID)
	if err != nil {
		log.Debug("failed to fetch match server", zap.Error(err))
		server = nil
	}
	if match.Display.Empty() {
		return
	}
	if err := a.surface.Update(ctx, match.Display, matchDisplay(match, live, server)); err != nil {
		log.Debug("failed to update match display", zap.Error(err))
	}
}

// finalizeMatch posts the results, releases the participants and removes every match scoped resource
// Preconditions: Receives the tracked match and its final state, nil when the match was deleted externally
// Postconditions: The match is untracked and removed from the store. Cleanup failures are logged
func (a *API) finalizeMatch(ctx context.Context, match *shared.Match, live *external.Match) {
	log := a.log.With(zap.Int("match", match.ID))
	defer a.poller.Untrack(match.ID)

	a.postResults(ctx, match, live)

	var errs error
	lobby, err := a.Store.GetLobby(ctx, match.LobbyID)
	switch {
	case err != nil:
		log.Warn("failed to load lobby of finished match", zap.Error(err))
	case lobby.Spaces.PrematchChannelID != "":
		errs = multierr.Append(errs, a.platform.MovePlayers(ctx, match.GuildID, match.Participants(), lobby.Spaces.PrematchChannelID))
	}
	if len(match.Spaces.ChannelIDs) > 0 {
		errs = multierr.Append(errs, a.platform.DeleteMatchSpaces(ctx, match.Spaces))
	}
	for _, team := range match.Teams {
		if team.Ephemeral && team.ExternalID != 0 {
			errs = multierr.Append(errs, a.host.DeleteTeam(ctx, team.ExternalID))
		}
	}
	errs = multierr.Append(errs, a.Store.DeleteMatch(ctx, match.ID))
	if errs != nil {
		log.Warn("match cleanup incomplete", zap.Error(errs))
	}
	log.Info("match finalized")
}

// postResults shows the result summary of a match that was played. Cancelled and deleted matches have their
// display removed instead
func (a *API) postResults(ctx context.Context, match *shared.Match, live *external.Match) {
	if match.Display.Empty() {
		return
	}
	var stats []external.MapStats
	if live != nil && !bool(live.Cancelled) {
		var err error
		stats, err = a.host.GetMapStats(ctx, match.ID)
		if err != nil {
			a.log.Warn("failed to fetch map stats", zap.Int("match", match.ID), zap.Error(err))
		}
	}
	if len(stats) == 0 {
		a.deleteDisplay(ctx, match.Display)
		return
	}

	display := resultsDisplay(match, live, stats)
	err := a.surface.Update(ctx, match.Display, display)
	if errors.Is(err, ErrSurfaceGone) {
		_, err = a.surface.Post(ctx, match.Display.ChannelID, display)
	}
	if err != nil {
		a.log.Warn("failed to post match results", zap.Int("match", match.ID), zap.Error(err))
	}
}

// ResumeTracking registers the matches persisted by a previous process with the poller
func (a *API) ResumeTracking(ctx context.Context) (int, error) {
	matches, err := a.Store.ListMatches(ctx)
	if err != nil {
		return 0, err
	}
	for i := range matches {
		a.poller.Track(&matches[i])
	}
	return len(matches), nil
}

// TrackedMatches returns the live matches being polled
func (a *API) TrackedMatches() []shared.Match {
	return a.poller.Tracked()
}

// PollMatches polls every tracked match once, outside the regular interval. It reports false when it was skipped
// because a poll was already running
func (a *API) PollMatches(ctx context.Context) bool {
	return a.poller.PollOnce(ctx)
}
