/* lobbies.go
 * Contains the lobby administration operations: create, delete and the lobby settings
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/thboss/g5-discord-bot-sub000/api/external"
	"github.com/thboss/g5-discord-bot-sub000/api/logic"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"
	"github.com/thboss/g5-discord-bot-sub000/api/store"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// LobbyOptions are the settings of a new lobby. Zero values take the defaults
type LobbyOptions struct {
	GuildID       string
	Name          string
	Capacity      int
	Mode          shared.LobbyMode
	TeamMethod    shared.TeamMethod
	CaptainMethod shared.CaptainMethod
	Series        shared.SeriesType
	Region        string
	SeasonID      int
	MapPool       []string
}

func (o LobbyOptions) withDefaults() LobbyOptions {
	if o.Capacity == 0 {
		o.Capacity = 10
	}
	if o.Mode == "" {
		o.Mode = shared.ModePug
	}
	if o.TeamMethod == "" {
		o.TeamMethod = shared.TeamMethodCaptains
	}
	if o.CaptainMethod == "" {
		o.CaptainMethod = shared.CaptainMethodVolunteer
	}
	if o.Series == "" {
		o.Series = shared.SeriesBo1
	}
	if len(o.MapPool) == 0 {
		o.MapPool = slices.Clone(logic.DefaultMapPool)
	}
	return o
}

// CreateLobby creates a lobby with its platform channels and posts its queue display
// Preconditions: Receives the guild and lobby settings
// Postconditions: Returns the persisted lobby, or a validation error. When persisting fails the created channels
// are deleted again
func (a *API) CreateLobby(ctx context.Context, opts LobbyOptions) (*shared.Lobby, error) {
	opts = opts.withDefaults()
	if strings.TrimSpace(opts.Name) == "" {
		return nil, fmt.Errorf("lobby name is required")
	}
	if !validCapacity(opts.Capacity) {
		return nil, ErrInvalidCapacity
	}
	if _, err := shared.ParseSeries(string(opts.Series)); err != nil {
		return nil, ErrInvalidSeries
	}
	if err := validMethods(opts.Mode, opts.TeamMethod, opts.CaptainMethod); err != nil {
		return nil, err
	}
	pool := lo.Uniq(opts.MapPool)
	if len(pool) < logic.MinMapPool(opts.Series) {
		return nil, fmt.Errorf("%w: %s needs %d maps", logic.ErrMapPoolTooSmall, opts.Series, logic.MinMapPool(opts.Series))
	}

	spaces, err := a.platform.CreateLobbySpaces(ctx, opts.GuildID, opts.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create lobby channels: %w", err)
	}
	lobby := &shared.Lobby{
		ID:            uuid.NewString(),
		GuildID:       opts.GuildID,
		Name:          opts.Name,
		Capacity:      opts.Capacity,
		Mode:          opts.Mode,
		TeamMethod:    opts.TeamMethod,
		CaptainMethod: opts.CaptainMethod,
		Series:        opts.Series,
		Region:        opts.Region,
		SeasonID:      opts.SeasonID,
		MapPool:       pool,
		Cvars:         map[string]string{},
		Spaces:        spaces,
		Queue:         []shared.QueuedPlayer{},
	}
	if err := a.Store.InsertLobby(ctx, lobby); err != nil {
		if cleanupErr := a.platform.DeleteLobbySpaces(context.WithoutCancel(ctx), spaces); cleanupErr != nil {
			a.log.Warn("failed to delete channels of unsaved lobby", zap.Error(cleanupErr))
		}
		return nil, fmt.Errorf("failed to store lobby: %w", err)
	}
	a.refreshQueue(ctx, lobby.ID, false)
	return lobby, nil
}

func validMethods(mode shared.LobbyMode, teams shared.TeamMethod, captains shared.CaptainMethod) error {
	switch {
	case mode != shared.ModePug && mode != shared.ModeTeam:
		return fmt.Errorf("%w: lobby mode %q", ErrInvalidMethod, mode)
	case !slices.Contains([]shared.TeamMethod{shared.TeamMethodCaptains, shared.TeamMethodAutobalance, shared.TeamMethodRandom}, teams):
		return fmt.Errorf("%w: team method %q", ErrInvalidMethod, teams)
	case !slices.Contains([]shared.CaptainMethod{shared.CaptainMethodVolunteer, shared.CaptainMethodRank, shared.CaptainMethodRandom}, captains):
		return fmt.Errorf("%w: captain method %q", ErrInvalidMethod, captains)
	}
	return nil
}

// DeleteLobby removes a lobby, its channels and its display
func (a *API) DeleteLobby(ctx context.Context, lobbyID string) error {
	err := a.guards.mutate(lobbyID, func() (bool, error) {
		lobby, err := a.getLobby(ctx, lobbyID)
		if err != nil {
			return false, err
		}
		if !lobby.Display.Empty() {
			a.deleteDisplay(ctx, lobby.Display)
		}
		if err := a.platform.DeleteLobbySpaces(ctx, lobby.Spaces); err != nil {
			a.log.Warn("failed to delete lobby channels", zap.String("lobby", lobbyID), zap.Error(err))
		}
		return false, a.Store.DeleteLobby(ctx, lobbyID)
	})
	if err != nil {
		return err
	}
	a.guards.Forget(lobbyID)
	return nil
}

// Lobby returns a lobby by id
func (a *API) Lobby(ctx context.Context, lobbyID string) (*shared.Lobby, error) {
	return a.getLobby(ctx, lobbyID)
}

// LobbyForChannel returns the lobby owning a queue voice channel
func (a *API) LobbyForChannel(ctx context.Context, channelID string) (*shared.Lobby, error) {
	lobby, err := a.Store.GetLobbyByQueueChannel(ctx, channelID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrLobbyNotFound
	}
	return lobby, err
}

// ListLobbies returns the lobbies of a guild
func (a *API) ListLobbies(ctx context.Context, guildID string) ([]shared.Lobby, error) {
	return a.Store.ListLobbies(ctx, guildID)
}

func (a *API) getLobby(ctx context.Context, lobbyID string) (*shared.Lobby, error) {
	lobby, err := a.Store.GetLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLobbyNotFound
		}
		return nil, fmt.Errorf("failed to load lobby: %w", err)
	}
	return lobby, nil
}

func lobbyDisplayUpdate(ref shared.SurfaceRef) store.LobbyUpdate {
	return store.LobbyUpdate{Display: &ref}
}

// updateSettings applies a settings change built from the current lobby. build returns ErrUnchanged when the
// lobby already has the requested value
func (a *API) updateSettings(ctx context.Context, lobbyID string, build func(lobby *shared.Lobby) (store.LobbyUpdate, error)) error {
	err := a.guards.mutate(lobbyID, func() (bool, error) {
		lobby, err := a.getLobby(ctx, lobbyID)
		if err != nil {
			return false, err
		}
		update, err := build(lobby)
		if err != nil {
			return false, err
		}
		return false, a.Store.UpdateLobby(ctx, lobbyID, update)
	})
	if err != nil {
		return err
	}
	a.refreshQueue(ctx, lobbyID, false)
	return nil
}

// SetSeries changes the series of a lobby. The map pool must be large enough for the new series
func (a *API) SetSeries(ctx context.Context, lobbyID string, value string) error {
	series, err := shared.ParseSeries(strings.ToLower(value))
	if err != nil {
		return ErrInvalidSeries
	}
	return a.updateSettings(ctx, lobbyID, func(lobby *shared.Lobby) (store.LobbyUpdate, error) {
		if lobby.Series == series {
			return store.LobbyUpdate{}, ErrUnchanged
		}
		if len(lobby.MapPool) < logic.MinMapPool(series) {
			return store.LobbyUpdate{}, fmt.Errorf("%w: %s needs %d maps", logic.ErrMapPoolTooSmall, series, logic.MinMapPool(series))
		}
		return store.LobbyUpdate{Series: &series}, nil
	})
}

// SetTeamMethod changes how open queue teams are formed
func (a *API) SetTeamMethod(ctx context.Context, lobbyID string, value string) error {
	method := shared.TeamMethod(strings.ToLower(value))
	if err := validMethods(shared.ModePug, method, shared.CaptainMethodRandom); err != nil {
		return err
	}
	return a.updateSettings(ctx, lobbyID, func(lobby *shared.Lobby) (store.LobbyUpdate, error) {
		if lobby.TeamMethod == method {
			return store.LobbyUpdate{}, ErrUnchanged
		}
		return store.LobbyUpdate{TeamMethod: &method}, nil
	})
}

// SetCaptainMethod changes how draft captains are chosen
func (a *API) SetCaptainMethod(ctx context.Context, lobbyID string, value string) error {
	method := shared.CaptainMethod(strings.ToLower(value))
	if err := validMethods(shared.ModePug, shared.TeamMethodRandom, method); err != nil {
		return err
	}
	return a.updateSettings(ctx, lobbyID, func(lobby *shared.Lobby) (store.LobbyUpdate, error) {
		if lobby.CaptainMethod == method {
			return store.LobbyUpdate{}, ErrUnchanged
		}
		return store.LobbyUpdate{CaptainMethod: &method}, nil
	})
}

// SetRegion restricts server selection to servers flagged with the region. An empty region allows any server
func (a *API) SetRegion(ctx context.Context, lobbyID string, region string) error {
	region = strings.ToUpper(strings.TrimSpace(region))
	return a.updateSettings(ctx, lobbyID, func(lobby *shared.Lobby) (store.LobbyUpdate, error) {
		if lobby.Region == region {
			return store.LobbyUpdate{}, ErrUnchanged
		}
		return store.LobbyUpdate{Region: &region}, nil
	})
}

// SetSeason attaches the lobby's matches to a season. Zero detaches it
func (a *API) SetSeason(ctx context.Context, lobbyID string, seasonID int) error {
	if seasonID != 0 {
		if _, err := a.host.GetSeason(ctx, seasonID); err != nil {
			if errors.Is(err, external.ErrNotFound) {
				return ErrSeasonNotFound
			}
			return err
		}
	}
	return a.updateSettings(ctx, lobbyID, func(lobby *shared.Lobby) (store.LobbyUpdate, error) {
		if lobby.SeasonID == seasonID {
			return store.LobbyUpdate{}, ErrUnchanged
		}
		return store.LobbyUpdate{SeasonID: &seasonID}, nil
	})
}

// SetMapPool replaces the map pool of a lobby
func (a *API) SetMapPool(ctx context.Context, lobbyID string, maps []string) error {
	pool := lo.Uniq(maps)
	return a.updateSettings(ctx, lobbyID, func(lobby *shared.Lobby) (store.LobbyUpdate, error) {
		if slices.Equal(lobby.MapPool, pool) {
			return store.LobbyUpdate{}, ErrUnchanged
		}
		if len(pool) < logic.MinMapPool(lobby.Series) {
			return store.LobbyUpdate{}, fmt.Errorf("%w: %s needs %d maps", logic.ErrMapPoolTooSmall, lobby.Series, logic.MinMapPool(lobby.Series))
		}
		return store.LobbyUpdate{MapPool: pool}, nil
	})
}

// AddCvar sets a custom server variable applied to the lobby's matches
func (a *API) AddCvar(ctx context.Context, lobbyID string, key string, value string) error {
	if !validCvarName(key) {
		return ErrInvalidCvar
	}
	return a.guards.mutate(lobbyID, func() (bool, error) {
		if _, err := a.getLobby(ctx, lobbyID); err != nil {
			return false, err
		}
		return false, a.Store.SetLobbyCvar(ctx, lobbyID, key, value)
	})
}

// DeleteCvar removes a custom server variable
func (a *API) DeleteCvar(ctx context.Context, lobbyID string, key string) error {
	if !validCvarName(key) {
		return ErrInvalidCvar
	}
	return a.guards.mutate(lobbyID, func() (bool, error) {
		lobby, err := a.getLobby(ctx, lobbyID)
		if err != nil {
			return false, err
		}
		if _, ok := lobby.Cvars[key]; !ok {
			return false, ErrCvarNotFound
		}
		err = a.Store.DeleteLobbyCvar(ctx, lobbyID, key)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, ErrCvarNotFound
		}
		return false, err
	})
}

func validCvarName(key string) bool {
	return key != "" && !strings.Contains(key, ".") && !strings.HasPrefix(key, "$")
}
