/* api.go
 * This file contains the API struct, the entry point of the match orchestration engine. Lobby administration,
 * queue membership, ready checks, team formation, map veto, match setup and match polling are all reached through
 * the methods of API. For details about each step see the other files of this package
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/store"

	"go.uber.org/zap"
)

// Timeouts are the fixed windows of each interactive phase and the match polling interval
type Timeouts struct {
	ReadyCheck  time.Duration
	Volunteer   time.Duration
	Draft       time.Duration
	Veto        time.Duration
	Invite      time.Duration
	Poll        time.Duration
	DisplaySpin time.Duration
	MaxSpins    int
}

// DefaultTimeouts returns the production windows
func DefaultTimeouts() Timeouts {
	return Timeouts{
		ReadyCheck:  60 * time.Second,
		Volunteer:   30 * time.Second,
		Draft:       180 * time.Second,
		Veto:        180 * time.Second,
		Invite:      60 * time.Second,
		Poll:        20 * time.Second,
		DisplaySpin: 100 * time.Millisecond,
		MaxSpins:    50,
	}
}

// Config holds the dependencies of the engine. Ratings and Logger are optional
type Config struct {
	Store    store.Interface
	Host     MatchHost
	Ratings  RatingProvider
	Surface  Surface
	Platform Platform
	Logger   *zap.Logger
	Timeouts Timeouts
	Seed     int64
}

// API provides methods for interacting with the match orchestration engine
type API struct {
	Store    store.Interface
	host     MatchHost
	ratings  RatingProvider
	surface  Surface
	platform Platform
	log      *zap.Logger
	timeouts Timeouts

	guards  *LobbyGuards
	poller  *Poller
	invites *inviteRegistry
	// members serialises queue joins and roster changes per user and per team. Order: user, lobby, team
	members *keyedMutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewAPI creates a new API instance with the provided configuration
// Preconditions: Receives a Config with at least Store, Host, Surface and Platform set
// Postconditions: Returns the API or an error naming the missing dependency. Zero timeouts take their default
func NewAPI(cfg Config) (*API, error) {
	switch {
	case cfg.Store == nil:
		return nil, fmt.Errorf("store is required")
	case cfg.Host == nil:
		return nil, fmt.Errorf("match host is required")
	case cfg.Surface == nil:
		return nil, fmt.Errorf("surface is required")
	case cfg.Platform == nil:
		return nil, fmt.Errorf("platform is required")
	}

	timeouts := withDefaults(cfg.Timeouts)
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	a := &API{
		Store:    cfg.Store,
		host:     cfg.Host,
		ratings:  cfg.Ratings,
		surface:  cfg.Surface,
		platform: cfg.Platform,
		log:      logger,
		timeouts: timeouts,
		guards:   NewLobbyGuards(timeouts.DisplaySpin, timeouts.MaxSpins),
		invites:  newInviteRegistry(),
		members:  newKeyedMutex(),
		rng:      rand.New(rand.NewSource(seed)),
	}
	a.poller = newPoller(a, timeouts.Poll)
	return a, nil
}

func withDefaults(t Timeouts) Timeouts {
	d := DefaultTimeouts()
	if t.ReadyCheck > 0 {
		d.ReadyCheck = t.ReadyCheck
	}
	if t.Volunteer > 0 {
		d.Volunteer = t.Volunteer
	}
	if t.Draft > 0 {
		d.Draft = t.Draft
	}
	if t.Veto > 0 {
		d.Veto = t.Veto
	}
	if t.Invite > 0 {
		d.Invite = t.Invite
	}
	if t.Poll > 0 {
		d.Poll = t.Poll
	}
	if t.DisplaySpin > 0 {
		d.DisplaySpin = t.DisplaySpin
	}
	if t.MaxSpins > 0 {
		d.MaxSpins = t.MaxSpins
	}
	return d
}

// Guards exposes the per lobby concurrency control, used by the status server
func (a *API) Guards() *LobbyGuards {
	return a.guards
}

// Shutdown stops the match poller
func (a *API) Shutdown(ctx context.Context) error {
	return a.poller.Stop(ctx)
}

func (a *API) lockUser(userID string) func() {
	return a.members.lock("user:" + userID)
}

func (a *API) lockTeam(teamID string) func() {
	return a.members.lock("team:" + teamID)
}

// withRand gives fn exclusive use of the shared random source
func (a *API) withRand(fn func(rng *rand.Rand)) {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	fn(a.rng)
}
