/* models.go
 * This file contain the structs and enums that are shared between sub packages: lobbies, teams, matches and the
 * structured display state handed to the chat platform
 * Authors: Zachary Bower
 */

package shared

import (
	"fmt"
	"time"
)

// User is a platform user and the external game identity linked to them
type User struct {
	UserID   string `bson:"_id"`
	Username string `bson:"username"`
	SteamID  string `bson:"steam_id,omitempty"`
}

// Linked reports whether the user has the external identity required to queue
func (u User) Linked() bool {
	return u.SteamID != ""
}

type LobbyMode string

const (
	ModePug  LobbyMode = "pug"
	ModeTeam LobbyMode = "team"
)

type TeamMethod string

const (
	TeamMethodCaptains    TeamMethod = "captains"
	TeamMethodAutobalance TeamMethod = "autobalance"
	TeamMethodRandom      TeamMethod = "random"
)

type CaptainMethod string

const (
	CaptainMethodVolunteer CaptainMethod = "volunteer"
	CaptainMethodRank      CaptainMethod = "rank"
	CaptainMethodRandom    CaptainMethod = "random"
)

type SeriesType string

const (
	SeriesBo1 SeriesType = "bo1"
	SeriesBo2 SeriesType = "bo2"
	SeriesBo3 SeriesType = "bo3"
	SeriesBo5 SeriesType = "bo5"
)

// MaxMaps returns the number of maps played in the series
func (s SeriesType) MaxMaps() int {
	switch s {
	case SeriesBo2:
		return 2
	case SeriesBo3:
		return 3
	case SeriesBo5:
		return 5
	default:
		return 1
	}
}

// ParseSeries validates a series string such as "bo3"
func ParseSeries(s string) (SeriesType, error) {
	switch SeriesType(s) {
	case SeriesBo1, SeriesBo2, SeriesBo3, SeriesBo5:
		return SeriesType(s), nil
	}
	return "", fmt.Errorf("unknown series type %q", s)
}

// SurfaceRef identifies a rendered display on the chat platform
type SurfaceRef struct {
	ChannelID string `bson:"channel_id,omitempty" json:"channel_id,omitempty"`
	MessageID string `bson:"message_id,omitempty" json:"message_id,omitempty"`
}

// Empty reports whether nothing has been rendered yet
func (r SurfaceRef) Empty() bool {
	return r.MessageID == ""
}

// LobbySpaces are the platform channels owned by a lobby
type LobbySpaces struct {
	CategoryID        string `bson:"category_id,omitempty" json:"category_id,omitempty"`
	QueueChannelID    string `bson:"queue_channel_id,omitempty" json:"queue_channel_id,omitempty"`
	TextChannelID     string `bson:"text_channel_id,omitempty" json:"text_channel_id,omitempty"`
	PrematchChannelID string `bson:"prematch_channel_id,omitempty" json:"prematch_channel_id,omitempty"`
}

// QueuedPlayer is a member of a lobby queue. TeamID is only set in team mode lobbies
type QueuedPlayer struct {
	UserID   string    `bson:"user_id" json:"user_id"`
	TeamID   string    `bson:"team_id,omitempty" json:"team_id,omitempty"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
}

// Lobby is a persistent queue space. The queue and team slots are embedded so a single document update can clear
// the queue and change the capacity together
type Lobby struct {
	ID            string            `bson:"_id" json:"id"`
	GuildID       string            `bson:"guild_id" json:"guild_id"`
	Name          string            `bson:"name" json:"name"`
	Capacity      int               `bson:"capacity" json:"capacity"`
	Mode          LobbyMode         `bson:"mode" json:"mode"`
	TeamMethod    TeamMethod        `bson:"team_method" json:"team_method"`
	CaptainMethod CaptainMethod     `bson:"captain_method" json:"captain_method"`
	Series        SeriesType        `bson:"series" json:"series"`
	Region        string            `bson:"region,omitempty" json:"region,omitempty"`
	SeasonID      int               `bson:"season_id,omitempty" json:"season_id,omitempty"`
	MapPool       []string          `bson:"map_pool" json:"map_pool"`
	Cvars         map[string]string `bson:"cvars,omitempty" json:"cvars,omitempty"`
	Spaces        LobbySpaces       `bson:"spaces" json:"spaces"`
	Display       SurfaceRef        `bson:"display,omitempty" json:"display,omitempty"`
	Queue         []QueuedPlayer    `bson:"queue" json:"queue"`
	TeamSlots     [2]string         `bson:"team_slots" json:"team_slots"`
}

// QueuedIDs returns the user ids currently in the queue in join order
func (l *Lobby) QueuedIDs() []string {
	ids := make([]string, 0, len(l.Queue))
	for _, p := range l.Queue {
		ids = append(ids, p.UserID)
	}
	return ids
}

// IsQueued reports whether the user is in the queue
func (l *Lobby) IsQueued(userID string) bool {
	for _, p := range l.Queue {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// TeamCount returns how many queued players belong to the given team
func (l *Lobby) TeamCount(teamID string) int {
	count := 0
	for _, p := range l.Queue {
		if teamID != "" && p.TeamID == teamID {
			count++
		}
	}
	return count
}

// SlotOf returns the slot index occupied by the team, or -1
func (l *Lobby) SlotOf(teamID string) int {
	if teamID == "" {
		return -1
	}
	for i, slot := range l.TeamSlots {
		if slot == teamID {
			return i
		}
	}
	return -1
}

// Team is a persistent fixed roster used by team mode lobbies
type Team struct {
	ID         string   `bson:"_id" json:"id"`
	GuildID    string   `bson:"guild_id" json:"guild_id"`
	Name       string   `bson:"name" json:"name"`
	CaptainID  string   `bson:"captain_id" json:"captain_id"`
	Members    []string `bson:"members" json:"members"`
	ExternalID int      `bson:"external_id,omitempty" json:"external_id,omitempty"`
}

// HasMember reports whether the user is on the roster
func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// MatchTeam is one side of a created match
type MatchTeam struct {
	Name       string   `bson:"name" json:"name"`
	TeamID     string   `bson:"team_id,omitempty" json:"team_id,omitempty"`
	ExternalID int      `bson:"external_id" json:"external_id"`
	Captain    string   `bson:"captain" json:"captain"`
	Members    []string `bson:"members" json:"members"`
	Ephemeral  bool     `bson:"ephemeral" json:"ephemeral"`
}

// MatchSpaces are the platform channels created for a live match
type MatchSpaces struct {
	ChannelIDs []string `bson:"channel_ids,omitempty" json:"channel_ids,omitempty"`
}

// Match is a live match created on the external match-hosting service. ID is the external id
type Match struct {
	ID        int          `bson:"_id" json:"id"`
	LobbyID   string       `bson:"lobby_id" json:"lobby_id"`
	GuildID   string       `bson:"guild_id" json:"guild_id"`
	Teams     [2]MatchTeam `bson:"teams" json:"teams"`
	ServerID  int          `bson:"server_id" json:"server_id"`
	Maps      []string     `bson:"maps" json:"maps"`
	Series    SeriesType   `bson:"series" json:"series"`
	Display   SurfaceRef   `bson:"display,omitempty" json:"display,omitempty"`
	Spaces    MatchSpaces  `bson:"spaces,omitempty" json:"spaces,omitempty"`
	CreatedAt time.Time    `bson:"created_at" json:"created_at"`
}

// Participants returns every player of both teams
func (m *Match) Participants() []string {
	players := make([]string, 0, len(m.Teams[0].Members)+len(m.Teams[1].Members))
	players = append(players, m.Teams[0].Members...)
	return append(players, m.Teams[1].Members...)
}

// DisplayField is a titled block of text inside a display
type DisplayField struct {
	Name   string
	Value  string
	Inline bool
}

// Option is a selectable choice presented on a display
type Option struct {
	Value    string
	Label    string
	Disabled bool
}

// Display is platform agnostic display state. The chat adapter decides how it is rendered
type Display struct {
	Title       string
	Description string
	Fields      []DisplayField
	Footer      string
	Options     []Option
}

// ChoiceEvent is a user selecting one of a display's options
type ChoiceEvent struct {
	UserID string
	Value  string
}
