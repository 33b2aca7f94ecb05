/* store_interface.go
 * Contains the Store interface for dependency injection and testing
 * Authors: Zachary Bower
 */

package store

import (
	"context"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"
)

// Interface defines the methods that Store implements.
// This allows for mocking in tests. Lookups that find nothing return an error wrapping mongo.ErrNoDocuments
type Interface interface {
	InsertLobby(ctx context.Context, lobby *shared.Lobby) error
	GetLobby(ctx context.Context, lobbyID string) (*shared.Lobby, error)
	GetLobbyByQueueChannel(ctx context.Context, channelID string) (*shared.Lobby, error)
	GetLobbyByQueuedUser(ctx context.Context, userID string) (*shared.Lobby, error)
	ListLobbies(ctx context.Context, guildID string) ([]shared.Lobby, error)
	UpdateLobby(ctx context.Context, lobbyID string, update LobbyUpdate) error
	DeleteLobby(ctx context.Context, lobbyID string) error
	SetLobbyCvar(ctx context.Context, lobbyID string, key string, value string) error
	DeleteLobbyCvar(ctx context.Context, lobbyID string, key string) error
	ResetQueue(ctx context.Context, lobbyID string, capacity int) error
	AddQueuedPlayer(ctx context.Context, lobbyID string, player shared.QueuedPlayer, slots [2]string) error
	RemoveQueuedPlayers(ctx context.Context, lobbyID string, userIDs []string, slots [2]string) error

	InsertTeam(ctx context.Context, team *shared.Team) error
	GetTeam(ctx context.Context, teamID string) (*shared.Team, error)
	GetTeamByMember(ctx context.Context, guildID string, userID string) (*shared.Team, error)
	GetTeamByName(ctx context.Context, guildID string, name string) (*shared.Team, error)
	AddTeamMember(ctx context.Context, teamID string, userID string) error
	RemoveTeamMember(ctx context.Context, teamID string, userID string) error
	SetTeamExternalID(ctx context.Context, teamID string, externalID int) error
	DeleteTeam(ctx context.Context, teamID string) error

	InsertMatch(ctx context.Context, match *shared.Match) error
	GetMatch(ctx context.Context, matchID int) (*shared.Match, error)
	ListMatches(ctx context.Context) ([]shared.Match, error)
	IsUserInMatch(ctx context.Context, userID string) (bool, error)
	DeleteMatch(ctx context.Context, matchID int) error

	GetUser(ctx context.Context, userID string) (*shared.User, error)
	StoreUser(ctx context.Context, user shared.User) error
}

// Ensure Store implements Interface
var _ Interface = (*Store)(nil)
