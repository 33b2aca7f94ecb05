/* test_mocks.go
 * Contains in-memory implementations of the engine's dependencies for testing the API package and its callers
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/external"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"
	"github.com/thboss/g5-discord-bot-sub000/api/store"

	"go.mongodb.org/mongo-driver/mongo"
)

// region MockStore

// MockStore implements the store Interface in memory
type MockStore struct {
	mu      sync.Mutex
	Lobbies map[string]*shared.Lobby
	Teams   map[string]*shared.Team
	Matches map[int]*shared.Match
	Users   map[string]*shared.User

	// Error injection for testing error paths
	InsertLobbyError     error
	GetLobbyError        error
	UpdateLobbyError     error
	ResetQueueError      error
	AddQueuedPlayerError error
	InsertMatchError     error
	GetUserError         error

	ResetQueueCalls int
}

// NewMockStore creates an empty MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		Lobbies: make(map[string]*shared.Lobby),
		Teams:   make(map[string]*shared.Team),
		Matches: make(map[int]*shared.Match),
		Users:   make(map[string]*shared.User),
	}
}

func notFound(what string) error {
	return fmt.Errorf("%s not found: %w", what, mongo.ErrNoDocuments)
}

func cloneLobby(l *shared.Lobby) *shared.Lobby {
	c := *l
	c.MapPool = slices.Clone(l.MapPool)
	c.Queue = slices.Clone(l.Queue)
	c.Cvars = make(map[string]string, len(l.Cvars))
	for k, v := range l.Cvars {
		c.Cvars[k] = v
	}
	return &c
}

func cloneTeam(t *shared.Team) *shared.Team {
	c := *t
	c.Members = slices.Clone(t.Members)
	return &c
}

func cloneMatch(m *shared.Match) *shared.Match {
	c := *m
	for i := range c.Teams {
		c.Teams[i].Members = slices.Clone(m.Teams[i].Members)
	}
	c.Maps = slices.Clone(m.Maps)
	c.Spaces.ChannelIDs = slices.Clone(m.Spaces.ChannelIDs)
	return &c
}

func (m *MockStore) InsertLobby(_ context.Context, lobby *shared.Lobby) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertLobbyError != nil {
		return m.InsertLobbyError
	}
	if _, ok := m.Lobbies[lobby.ID]; ok {
		return fmt.Errorf("lobby %s already exists", lobby.ID)
	}
	m.Lobbies[lobby.ID] = cloneLobby(lobby)
	return nil
}

func (m *MockStore) GetLobby(_ context.Context, lobbyID string) (*shared.Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetLobbyError != nil {
		return nil, m.GetLobbyError
	}
	lobby, ok := m.Lobbies[lobbyID]
	if !ok {
		return nil, notFound("lobby")
	}
	return cloneLobby(lobby), nil
}

func (m *MockStore) GetLobbyByQueueChannel(_ context.Context, channelID string) (*shared.Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lobby := range m.Lobbies {
		if lobby.Spaces.QueueChannelID == channelID {
			return cloneLobby(lobby), nil
		}
	}
	return nil, notFound("lobby")
}

func (m *MockStore) GetLobbyByQueuedUser(_ context.Context, userID string) (*shared.Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Lobbies))
	for id := range m.Lobbies {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if m.Lobbies[id].IsQueued(userID) {
			return cloneLobby(m.Lobbies[id]), nil
		}
	}
	return nil, notFound("lobby")
}

func (m *MockStore) ListLobbies(_ context.Context, guildID string) ([]shared.Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var lobbies []shared.Lobby
	for _, lobby := range m.Lobbies {
		if guildID == "" || lobby.GuildID == guildID {
			lobbies = append(lobbies, *cloneLobby(lobby))
		}
	}
	slices.SortFunc(lobbies, func(a, b shared.Lobby) int { return strings.Compare(a.ID, b.ID) })
	return lobbies, nil
}

func (m *MockStore) UpdateLobby(_ context.Context, lobbyID string, update store.LobbyUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateLobbyError != nil {
		return m.UpdateLobbyError
	}
	lobby, ok := m.Lobbies[lobbyID]
	if !ok {
		return notFound("lobby")
	}
	update.Apply(lobby)
	return nil
}

func (m *MockStore) DeleteLobby(_ context.Context, lobbyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Lobbies[lobbyID]; !ok {
		return notFound("lobby")
	}
	delete(m.Lobbies, lobbyID)
	return nil
}

func (m *MockStore) SetLobbyCvar(_ context.Context, lobbyID string, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lobby, ok := m.Lobbies[lobbyID]
	if !ok {
		return notFound("lobby")
	}
	if lobby.Cvars == nil {
		lobby.Cvars = make(map[string]string)
	}
	lobby.Cvars[key] = value
	return nil
}

func (m *MockStore) DeleteLobbyCvar(_ context.Context, lobbyID string, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lobby, ok := m.Lobbies[lobbyID]
	if !ok {
		return notFound("lobby")
	}
	if _, ok := lobby.Cvars[key]; !ok {
		return notFound("cvar")
	}
	delete(lobby.Cvars, key)
	return nil
}

func (m *MockStore) ResetQueue(_ context.Context, lobbyID string, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetQueueCalls++
	if m.ResetQueueError != nil {
		return m.ResetQueueError
	}
	lobby, ok := m.Lobbies[lobbyID]
	if !ok {
		return notFound("lobby")
	}
	lobby.Queue = []shared.QueuedPlayer{}
	lobby.TeamSlots = [2]string{}
	lobby.Capacity = capacity
	return nil
}

func (m *MockStore) AddQueuedPlayer(_ context.Context, lobbyID string, player shared.QueuedPlayer, slots [2]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddQueuedPlayerError != nil {
		return m.AddQueuedPlayerError
	}
	lobby, ok := m.Lobbies[lobbyID]
	if !ok || lobby.IsQueued(player.UserID) {
		return notFound("lobby")
	}
	lobby.Queue = append(lobby.Queue, player)
	lobby.TeamSlots = slots
	return nil
}

func (m *MockStore) RemoveQueuedPlayers(_ context.Context, lobbyID string, userIDs []string, slots [2]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lobby, ok := m.Lobbies[lobbyID]
	if !ok {
		return notFound("lobby")
	}
	lobby.Queue = slices.DeleteFunc(lobby.Queue, func(p shared.QueuedPlayer) bool {
		return slices.Contains(userIDs, p.UserID)
	})
	lobby.TeamSlots = slots
	return nil
}

func (m *MockStore) InsertTeam(_ context.Context, team *shared.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Teams[team.ID] = cloneTeam(team)
	return nil
}

func (m *MockStore) GetTeam(_ context.Context, teamID string) (*shared.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.Teams[teamID]
	if !ok {
		return nil, notFound("team")
	}
	return cloneTeam(team), nil
}

func (m *MockStore) GetTeamByMember(_ context.Context, guildID string, userID string) (*shared.Team, error) {
	return m.findTeam(func(t *shared.Team) bool { return t.GuildID == guildID && t.HasMember(userID) })
}

func (m *MockStore) GetTeamByName(_ context.Context, guildID string, name string) (*shared.Team, error) {
	return m.findTeam(func(t *shared.Team) bool { return t.GuildID == guildID && t.Name == name })
}

func (m *MockStore) findTeam(match func(t *shared.Team) bool) (*shared.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, team := range m.Teams {
		if match(team) {
			return cloneTeam(team), nil
		}
	}
	return nil, notFound("team")
}

func (m *MockStore) AddTeamMember(_ context.Context, teamID string, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.Teams[teamID]
	if !ok {
		return notFound("team")
	}
	if !team.HasMember(userID) {
		team.Members = append(team.Members, userID)
	}
	return nil
}

func (m *MockStore) RemoveTeamMember(_ context.Context, teamID string, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.Teams[teamID]
	if !ok {
		return notFound("team")
	}
	team.Members = slices.DeleteFunc(team.Members, func(id string) bool { return id == userID })
	return nil
}

func (m *MockStore) SetTeamExternalID(_ context.Context, teamID string, externalID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.Teams[teamID]
	if !ok {
		return notFound("team")
	}
	team.ExternalID = externalID
	return nil
}

func (m *MockStore) DeleteTeam(_ context.Context, teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Teams[teamID]; !ok {
		return notFound("team")
	}
	delete(m.Teams, teamID)
	return nil
}

func (m *MockStore) InsertMatch(_ context.Context, match *shared.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertMatchError != nil {
		return m.InsertMatchError
	}
	m.Matches[match.ID] = cloneMatch(match)
	return nil
}

func (m *MockStore) GetMatch(_ context.Context, matchID int) (*shared.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.Matches[matchID]
	if !ok {
		return nil, notFound("match")
	}
	return cloneMatch(match), nil
}

func (m *MockStore) ListMatches(_ context.Context) ([]shared.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := make([]shared.Match, 0, len(m.Matches))
	for _, match := range m.Matches {
		matches = append(matches, *cloneMatch(match))
	}
	slices.SortFunc(matches, func(a, b shared.Match) int { return a.ID - b.ID })
	return matches, nil
}

func (m *MockStore) IsUserInMatch(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, match := range m.Matches {
		if slices.Contains(match.Participants(), userID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStore) DeleteMatch(_ context.Context, matchID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Matches, matchID)
	return nil
}

func (m *MockStore) GetUser(_ context.Context, userID string) (*shared.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	user, ok := m.Users[userID]
	if !ok {
		return nil, notFound("user")
	}
	c := *user
	return &c, nil
}

func (m *MockStore) StoreUser(_ context.Context, user shared.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[user.UserID] = &user
	return nil
}

// LobbySnapshot returns a copy of a stored lobby, or nil
func (m *MockStore) LobbySnapshot(lobbyID string) *shared.Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()
	lobby, ok := m.Lobbies[lobbyID]
	if !ok {
		return nil
	}
	return cloneLobby(lobby)
}

var _ store.Interface = (*MockStore)(nil)

// endregion

// region MockMatchHost

// MockMatchHost implements MatchHost in memory. Created teams and matches get increasing ids
type MockMatchHost struct {
	mu            sync.Mutex
	Servers       []external.GameServer
	Alive         map[int]bool
	Matches       map[int]*external.Match
	MapStats      map[int][]external.MapStats
	Seasons       map[int]*external.Season
	CreatedTeams  map[int]external.TeamRequest
	DeletedTeams  []int
	MatchRequests []external.MatchRequest
	nextTeamID    int
	nextMatchID   int
	GetMatchCalls int

	// Error injection for testing error paths
	CreateTeamError  error
	DeleteTeamError  error
	CreateMatchError error
	GetMatchError    error
	GetMapStatsError error
	ListServersError error
	ProbeError       error
}

// NewMockMatchHost creates a host with one free, alive server
func NewMockMatchHost() *MockMatchHost {
	return &MockMatchHost{
		Servers:      []external.GameServer{{ID: 1, DisplayName: "Server 1", IPString: "127.0.0.1", Port: 27015, Flag: "EU"}},
		Alive:        map[int]bool{1: true},
		Matches:      make(map[int]*external.Match),
		MapStats:     make(map[int][]external.MapStats),
		Seasons:      make(map[int]*external.Season),
		CreatedTeams: make(map[int]external.TeamRequest),
		nextTeamID:   1,
		nextMatchID:  100,
	}
}

func (h *MockMatchHost) CreateTeam(_ context.Context, team external.TeamRequest) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.CreateTeamError != nil {
		return 0, h.CreateTeamError
	}
	id := h.nextTeamID
	h.nextTeamID++
	h.CreatedTeams[id] = team
	return id, nil
}

func (h *MockMatchHost) DeleteTeam(_ context.Context, teamID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.DeletedTeams = append(h.DeletedTeams, teamID)
	return h.DeleteTeamError
}

func (h *MockMatchHost) CreateMatch(_ context.Context, req external.MatchRequest) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.CreateMatchError != nil {
		return 0, h.CreateMatchError
	}
	id := h.nextMatchID
	h.nextMatchID++
	h.MatchRequests = append(h.MatchRequests, req)
	h.Matches[id] = &external.Match{ID: id, ServerID: req.ServerID, Team1ID: req.Team1ID, Team2ID: req.Team2ID, MaxMaps: req.MaxMaps, Title: req.Title}
	return id, nil
}

func (h *MockMatchHost) GetMatch(_ context.Context, matchID int) (*external.Match, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.GetMatchCalls++
	if h.GetMatchError != nil {
		return nil, h.GetMatchError
	}
	match, ok := h.Matches[matchID]
	if !ok {
		return nil, external.ErrNotFound
	}
	c := *match
	return &c, nil
}

func (h *MockMatchHost) GetMapStats(_ context.Context, matchID int) ([]external.MapStats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.GetMapStatsError != nil {
		return nil, h.GetMapStatsError
	}
	return slices.Clone(h.MapStats[matchID]), nil
}

func (h *MockMatchHost) GetSeason(_ context.Context, seasonID int) (*external.Season, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	season, ok := h.Seasons[seasonID]
	if !ok {
		return nil, external.ErrNotFound
	}
	c := *season
	return &c, nil
}

func (h *MockMatchHost) ListServers(_ context.Context) ([]external.GameServer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ListServersError != nil {
		return nil, h.ListServersError
	}
	return slices.Clone(h.Servers), nil
}

func (h *MockMatchHost) GetServer(_ context.Context, serverID int) (*external.GameServer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.Servers {
		if s.ID == serverID {
			return &s, nil
		}
	}
	return nil, external.ErrNotFound
}

func (h *MockMatchHost) ServerAlive(_ context.Context, serverID int) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ProbeError != nil {
		return false, h.ProbeError
	}
	return h.Alive[serverID], nil
}

// FinishMatch marks a match as ended with the given score
func (h *MockMatchHost) FinishMatch(matchID int, team1Score int, team2Score int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	match, ok := h.Matches[matchID]
	if !ok {
		return
	}
	end := time.Now().UTC().Format(time.RFC3339)
	match.Team1Score = team1Score
	match.Team2Score = team2Score
	match.EndTime = &end
}

// RemoveMatch deletes a match as if an admin removed it on the service
func (h *MockMatchHost) RemoveMatch(matchID int) {
	h.mu.Lock()
	delete(h.Matches, matchID)
	h.mu.Unlock()
}

// Deleted returns the ids passed to DeleteTeam
func (h *MockMatchHost) Deleted() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.DeletedTeams)
}

// Created returns the ids of the created teams in ascending order
func (h *MockMatchHost) Created() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]int, 0, len(h.CreatedTeams))
	for id := range h.CreatedTeams {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Requests returns the match creation requests received
func (h *MockMatchHost) Requests() []external.MatchRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.MatchRequests)
}

var _ MatchHost = (*MockMatchHost)(nil)

// endregion

// region MockRatings

// MockRatings returns fixed ratings keyed by steam id
type MockRatings struct {
	Ratings map[string]float64
	Err     error
}

func (r *MockRatings) FetchRatings(_ context.Context, steamIDs []string) (map[string]float64, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	ratings := make(map[string]float64, len(steamIDs))
	for _, id := range steamIDs {
		ratings[id] = r.Ratings[id]
	}
	return ratings, nil
}

// endregion

// region MockSurface

// PostedDisplay is a display rendered by MockSurface
type PostedDisplay struct {
	Ref     shared.SurfaceRef
	Display shared.Display
}

type mockSubscription struct {
	surface *MockSurface
	ref     shared.SurfaceRef
	choices chan shared.ChoiceEvent
	deleted chan struct{}
	gone    bool
}

func (s *mockSubscription) Choices() <-chan shared.ChoiceEvent { return s.choices }
func (s *mockSubscription) Deleted() <-chan struct{}           { return s.deleted }

func (s *mockSubscription) Close() {
	s.surface.mu.Lock()
	defer s.surface.mu.Unlock()
	subs := s.surface.subs[s.ref.MessageID]
	s.surface.subs[s.ref.MessageID] = slices.DeleteFunc(subs, func(o *mockSubscription) bool { return o == s })
}

// MockSurface implements Surface in memory. WaitForPrompt blocks until an interactive display is subscribed to
type MockSurface struct {
	mu       sync.Mutex
	next     int
	Displays map[string]shared.Display
	channels map[string]string
	subs     map[string][]*mockSubscription
	posts    chan PostedDisplay
	prompts  chan PostedDisplay

	PostError error
}

// NewMockSurface creates an empty surface
func NewMockSurface() *MockSurface {
	return &MockSurface{
		Displays: make(map[string]shared.Display),
		channels: make(map[string]string),
		subs:     make(map[string][]*mockSubscription),
		posts:    make(chan PostedDisplay, 256),
		prompts:  make(chan PostedDisplay, 64),
	}
}

func (s *MockSurface) Post(_ context.Context, channelID string, display shared.Display) (shared.SurfaceRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PostError != nil {
		return shared.SurfaceRef{}, s.PostError
	}
	s.next++
	ref := shared.SurfaceRef{ChannelID: channelID, MessageID: fmt.Sprintf("msg%d", s.next)}
	s.Displays[ref.MessageID] = display
	s.channels[ref.MessageID] = channelID
	select {
	case s.posts <- PostedDisplay{Ref: ref, Display: display}:
	default:
	}
	return ref, nil
}

func (s *MockSurface) Update(_ context.Context, ref shared.SurfaceRef, display shared.Display) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Displays[ref.MessageID]; !ok {
		return ErrSurfaceGone
	}
	s.Displays[ref.MessageID] = display
	return nil
}

func (s *MockSurface) Delete(_ context.Context, ref shared.SurfaceRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Displays[ref.MessageID]; !ok {
		return ErrSurfaceGone
	}
	delete(s.Displays, ref.MessageID)
	return nil
}

func (s *MockSurface) Subscribe(ref shared.SurfaceRef) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	display, ok := s.Displays[ref.MessageID]
	if !ok {
		return nil, ErrSurfaceGone
	}
	sub := &mockSubscription{
		surface: s,
		ref:     ref,
		choices: make(chan shared.ChoiceEvent, 64),
		deleted: make(chan struct{}),
	}
	s.subs[ref.MessageID] = append(s.subs[ref.MessageID], sub)
	select {
	case s.prompts <- PostedDisplay{Ref: ref, Display: display}:
	default:
	}
	return sub, nil
}

// Choose delivers a choice to every open subscription on the display
func (s *MockSurface) Choose(ref shared.SurfaceRef, userID string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs[ref.MessageID] {
		select {
		case sub.choices <- shared.ChoiceEvent{UserID: userID, Value: value}:
		default:
		}
	}
}

// DeleteExternally removes a display as if a user deleted it on the platform
func (s *MockSurface) DeleteExternally(ref shared.SurfaceRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Displays, ref.MessageID)
	for _, sub := range s.subs[ref.MessageID] {
		if !sub.gone {
			sub.gone = true
			close(sub.deleted)
		}
	}
}

// WaitForPost waits for a display whose title starts with prefix to be posted
func (s *MockSurface) WaitForPost(prefix string, timeout time.Duration) (PostedDisplay, bool) {
	return waitFor(s.posts, prefix, timeout)
}

// WaitForPrompt waits for a display whose title starts with prefix to be subscribed to
func (s *MockSurface) WaitForPrompt(prefix string, timeout time.Duration) (PostedDisplay, bool) {
	return waitFor(s.prompts, prefix, timeout)
}

func waitFor(ch <-chan PostedDisplay, prefix string, timeout time.Duration) (PostedDisplay, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case p := <-ch:
			if strings.HasPrefix(p.Display.Title, prefix) {
				return p, true
			}
		case <-deadline:
			return PostedDisplay{}, false
		}
	}
}

// Latest returns the current state of a display
func (s *MockSurface) Latest(ref shared.SurfaceRef) (shared.Display, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.Displays[ref.MessageID]
	return d, ok
}

// Find returns the displays whose title starts with prefix
func (s *MockSurface) Find(prefix string) []shared.Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []shared.Display
	for _, d := range s.Displays {
		if strings.HasPrefix(d.Title, prefix) {
			found = append(found, d)
		}
	}
	return found
}

// OpenSubscriptions counts the subscriptions that have not been closed
func (s *MockSurface) OpenSubscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, subs := range s.subs {
		n += len(subs)
	}
	return n
}

var _ Surface = (*MockSurface)(nil)

// endregion

// region MockPlatform

// EntryChange records a queue space entry being opened or closed
type EntryChange struct {
	LobbyID string
	Open    bool
}

// AccessChange records a team being granted or denied early access
type AccessChange struct {
	LobbyID string
	UserIDs []string
	Allow   bool
}

// PlayerMove records players being moved to a voice channel
type PlayerMove struct {
	UserIDs   []string
	ChannelID string
}

// MockPlatform implements Platform and records every side effect
type MockPlatform struct {
	mu                 sync.Mutex
	next               int
	entries            []EntryChange
	access             []AccessChange
	moves              []PlayerMove
	DeletedLobbySpaces []shared.LobbySpaces
	CreatedMatchSpaces []shared.MatchSpaces
	DeletedMatchSpaces []shared.MatchSpaces

	// Error injection for testing error paths
	CreateLobbySpacesError error
	CreateMatchSpacesError error
	MovePlayersError       error
}

// NewMockPlatform creates an empty platform
func NewMockPlatform() *MockPlatform {
	return &MockPlatform{}
}

func (p *MockPlatform) CreateLobbySpaces(_ context.Context, _ string, _ string) (shared.LobbySpaces, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CreateLobbySpacesError != nil {
		return shared.LobbySpaces{}, p.CreateLobbySpacesError
	}
	p.next++
	n := p.next
	return shared.LobbySpaces{
		CategoryID:        fmt.Sprintf("cat%d", n),
		QueueChannelID:    fmt.Sprintf("queue%d", n),
		TextChannelID:     fmt.Sprintf("text%d", n),
		PrematchChannelID: fmt.Sprintf("prematch%d", n),
	}, nil
}

func (p *MockPlatform) DeleteLobbySpaces(_ context.Context, spaces shared.LobbySpaces) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DeletedLobbySpaces = append(p.DeletedLobbySpaces, spaces)
	return nil
}

func (p *MockPlatform) SetQueueEntry(_ context.Context, lobby *shared.Lobby, open bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, EntryChange{LobbyID: lobby.ID, Open: open})
	return nil
}

func (p *MockPlatform) SetEarlyAccess(_ context.Context, lobby *shared.Lobby, userIDs []string, allow bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.access = append(p.access, AccessChange{LobbyID: lobby.ID, UserIDs: slices.Clone(userIDs), Allow: allow})
	return nil
}

func (p *MockPlatform) CreateMatchSpaces(_ context.Context, _ *shared.Lobby, match *shared.Match) (shared.MatchSpaces, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CreateMatchSpacesError != nil {
		return shared.MatchSpaces{}, p.CreateMatchSpacesError
	}
	spaces := shared.MatchSpaces{ChannelIDs: []string{
		fmt.Sprintf("match%d_a", match.ID),
		fmt.Sprintf("match%d_b", match.ID),
	}}
	p.CreatedMatchSpaces = append(p.CreatedMatchSpaces, spaces)
	return spaces, nil
}

func (p *MockPlatform) DeleteMatchSpaces(_ context.Context, spaces shared.MatchSpaces) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DeletedMatchSpaces = append(p.DeletedMatchSpaces, spaces)
	return nil
}

func (p *MockPlatform) MovePlayers(_ context.Context, _ string, userIDs []string, channelID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.MovePlayersError != nil {
		return p.MovePlayersError
	}
	p.moves = append(p.moves, PlayerMove{UserIDs: slices.Clone(userIDs), ChannelID: channelID})
	return nil
}

// Entries returns the recorded entry changes
func (p *MockPlatform) Entries() []EntryChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.entries)
}

// Access returns the recorded early access changes
func (p *MockPlatform) Access() []AccessChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.access)
}

// Moves returns the recorded player moves
func (p *MockPlatform) Moves() []PlayerMove {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.moves)
}

// MatchSpacesDeleted returns how many match space sets were deleted
func (p *MockPlatform) MatchSpacesDeleted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.DeletedMatchSpaces)
}

var _ Platform = (*MockPlatform)(nil)

// endregion
