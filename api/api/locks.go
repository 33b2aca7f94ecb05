/* locks.go
 * Contains the per lobby concurrency control. Structural mutations of a lobby (join, leave, capacity and settings
 * changes) are serialised by a mutex, a lobby that is running a ready check or match setup is locked and rejects
 * them, and display refreshes of a lobby are single flight
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

type lobbyGuard struct {
	mu      sync.Mutex
	locked  bool
	display *semaphore.Weighted
}

// LobbyGuards holds the guard of every lobby seen by this process
type LobbyGuards struct {
	mu           sync.Mutex
	guards       map[string]*lobbyGuard
	spinInterval time.Duration
	maxSpins     int
}

// NewLobbyGuards creates the guard registry. A display refresh waits at most maxSpins * spinInterval for the
// previous refresh of the same lobby
func NewLobbyGuards(spinInterval time.Duration, maxSpins int) *LobbyGuards {
	return &LobbyGuards{
		guards:       make(map[string]*lobbyGuard),
		spinInterval: spinInterval,
		maxSpins:     maxSpins,
	}
}

func (g *LobbyGuards) guard(lobbyID string) *lobbyGuard {
	g.mu.Lock()
	defer g.mu.Unlock()
	lg, ok := g.guards[lobbyID]
	if !ok {
		lg = &lobbyGuard{display: semaphore.NewWeighted(1)}
		g.guards[lobbyID] = lg
	}
	return lg
}

// TryLock locks the lobby unless it is already locked
func (g *LobbyGuards) TryLock(lobbyID string) bool {
	lg := g.guard(lobbyID)
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if lg.locked {
		return false
	}
	lg.locked = true
	return true
}

// Unlock releases the lobby lock
func (g *LobbyGuards) Unlock(lobbyID string) {
	lg := g.guard(lobbyID)
	lg.mu.Lock()
	lg.locked = false
	lg.mu.Unlock()
}

// IsLocked reports whether the lobby is running a ready check or match setup
func (g *LobbyGuards) IsLocked(lobbyID string) bool {
	lg := g.guard(lobbyID)
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.locked
}

// mutate runs fn while holding the lobby mutex. fn is not run and ErrLobbyLocked is returned when the lobby is
// locked. fn may set the lock by returning lock=true
func (g *LobbyGuards) mutate(lobbyID string, fn func() (lock bool, err error)) error {
	lg := g.guard(lobbyID)
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if lg.locked {
		return ErrLobbyLocked
	}
	lock, err := fn()
	if err != nil {
		return err
	}
	if lock {
		lg.locked = true
	}
	return nil
}

// internal runs fn holding the lobby mutex regardless of the lock, for the pipeline that owns the lock
func (g *LobbyGuards) internal(lobbyID string, fn func() error) error {
	lg := g.guard(lobbyID)
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return fn()
}

// singleFlight runs fn unless another refresh of the lobby is running, in which case it polls until that refresh
// finishes, giving up with ErrDisplayBusy after maxSpins attempts
func (g *LobbyGuards) singleFlight(ctx context.Context, lobbyID string, fn func() error) error {
	sem := g.guard(lobbyID).display
	for spins := 0; !sem.TryAcquire(1); spins++ {
		if spins >= g.maxSpins {
			return ErrDisplayBusy
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.spinInterval):
		}
	}
	defer sem.Release(1)
	return fn()
}

// Forget drops the guard of a deleted lobby
func (g *LobbyGuards) Forget(lobbyID string) {
	g.mu.Lock()
	delete(g.guards, lobbyID)
	g.mu.Unlock()
}

// keyedMutex serialises work per key. An entry is dropped once nobody holds or waits for it
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// lock blocks until key is free and returns the function releasing it
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// held returns the number of keys currently held or waited on
func (k *keyedMutex) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
