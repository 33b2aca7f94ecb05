/* interfaces.go
 * Contains the interfaces for the capabilities the engine needs from the outside world: the chat platform, the
 * match-hosting service and the skill rating provider
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"

	"github.com/thboss/g5-discord-bot-sub000/api/external"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"
)

// ErrSurfaceGone is returned by Surface.Update when the display no longer exists on the platform
var ErrSurfaceGone = errors.New("display no longer exists")

// Surface renders displays and collects choices made on them
type Surface interface {
	Post(ctx context.Context, channelID string, display shared.Display) (shared.SurfaceRef, error)
	Update(ctx context.Context, ref shared.SurfaceRef, display shared.Display) error
	Delete(ctx context.Context, ref shared.SurfaceRef) error
	Subscribe(ref shared.SurfaceRef) (Subscription, error)
}

// Subscription delivers the choices made on one display. The owner must Close it on every exit path
type Subscription interface {
	Choices() <-chan shared.ChoiceEvent
	Deleted() <-chan struct{}
	Close()
}

// Platform covers the chat platform side effects other than displays: channels, entry permissions and moving
// members between voice channels
type Platform interface {
	CreateLobbySpaces(ctx context.Context, guildID string, name string) (shared.LobbySpaces, error)
	DeleteLobbySpaces(ctx context.Context, spaces shared.LobbySpaces) error
	SetQueueEntry(ctx context.Context, lobby *shared.Lobby, open bool) error
	SetEarlyAccess(ctx context.Context, lobby *shared.Lobby, userIDs []string, allow bool) error
	CreateMatchSpaces(ctx context.Context, lobby *shared.Lobby, match *shared.Match) (shared.MatchSpaces, error)
	DeleteMatchSpaces(ctx context.Context, spaces shared.MatchSpaces) error
	MovePlayers(ctx context.Context, guildID string, userIDs []string, channelID string) error
}

// MatchHost is the external match-hosting service
type MatchHost interface {
	CreateTeam(ctx context.Context, team external.TeamRequest) (int, error)
	DeleteTeam(ctx context.Context, teamID int) error
	CreateMatch(ctx context.Context, match external.MatchRequest) (int, error)
	GetMatch(ctx context.Context, matchID int) (*external.Match, error)
	GetMapStats(ctx context.Context, matchID int) ([]external.MapStats, error)
	GetSeason(ctx context.Context, seasonID int) (*external.Season, error)
	ListServers(ctx context.Context) ([]external.GameServer, error)
	GetServer(ctx context.Context, serverID int) (*external.GameServer, error)
	ServerAlive(ctx context.Context, serverID int) (bool, error)
}

// RatingProvider returns skill ratings keyed by steam id. Players without history may be absent
type RatingProvider interface {
	FetchRatings(ctx context.Context, steamIDs []string) (map[string]float64, error)
}

// Ensure the api client implements both external capabilities
var _ MatchHost = (*external.Client)(nil)
var _ RatingProvider = (*external.Client)(nil)
