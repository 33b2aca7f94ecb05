/* models.go
 * This file contains the request and response models of the G5 match-hosting api
 * Authors: Zachary Bower
 */

package external

import "fmt"

// Flag decodes the api's boolean columns which may arrive as 0/1 or true/false
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "1", "true":
		*f = true
	case "0", "false", "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean flag %s", data)
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// TeamAuth is a roster entry keyed by steam id
type TeamAuth struct {
	Name    string `json:"name"`
	Captain Flag   `json:"captain"`
}

// TeamRequest creates a team on the api
type TeamRequest struct {
	Name       string              `json:"name"`
	Tag        string              `json:"tag,omitempty"`
	Flag       string              `json:"flag,omitempty"`
	PublicTeam Flag                `json:"public_team"`
	AuthNames  map[string]TeamAuth `json:"auth_name"`
}

// MatchRequest creates a match on the api. Maps are already vetoed so the server skips its own veto
type MatchRequest struct {
	ServerID          int               `json:"server_id"`
	Team1ID           int               `json:"team1_id"`
	Team2ID           int               `json:"team2_id"`
	SeasonID          int               `json:"season_id,omitempty"`
	Title             string            `json:"title"`
	MaxMaps           int               `json:"max_maps"`
	SkipVeto          Flag              `json:"skip_veto"`
	VetoMappool       string            `json:"veto_mappool"`
	SideType          string            `json:"side_type"`
	PlayersPerTeam    int               `json:"players_per_team"`
	MinPlayersToReady int               `json:"min_players_to_ready"`
	IgnoreServer      Flag              `json:"ignore_server"`
	StartTime         string            `json:"start_time"`
	Cvars             map[string]string `json:"match_cvars,omitempty"`
}

// Match is the live state of a match on the api
type Match struct {
	ID         int     `json:"id"`
	ServerID   int     `json:"server_id"`
	Team1ID    int     `json:"team1_id"`
	Team2ID    int     `json:"team2_id"`
	Team1Score int     `json:"team1_score"`
	Team2Score int     `json:"team2_score"`
	Winner     *int    `json:"winner"`
	Title      string  `json:"title"`
	MaxMaps    int     `json:"max_maps"`
	Cancelled  Flag    `json:"cancelled"`
	Forfeit    Flag    `json:"forfeit"`
	StartTime  *string `json:"start_time"`
	EndTime    *string `json:"end_time"`
}

// Finished reports whether the match is over for any reason
func (m *Match) Finished() bool {
	return m.EndTime != nil || bool(m.Cancelled) || bool(m.Forfeit)
}

// GameServer is a registered game server
type GameServer struct {
	ID           int    `json:"id"`
	DisplayName  string `json:"display_name"`
	IPString     string `json:"ip_string"`
	Port         int    `json:"port"`
	GOTVPort     int    `json:"gotv_port,omitempty"`
	Flag         string `json:"flag"`
	InUse        Flag   `json:"in_use"`
	PublicServer Flag   `json:"public_server"`
}

// Address returns the connect address of the server
func (s GameServer) Address() string {
	return fmt.Sprintf("%s:%d", s.IPString, s.Port)
}

// MapStats is the result of one map of a match
type MapStats struct {
	ID         int     `json:"id"`
	MatchID    int     `json:"match_id"`
	MapNumber  int     `json:"map_number"`
	MapName    string  `json:"map_name"`
	Team1Score int     `json:"team1_score"`
	Team2Score int     `json:"team2_score"`
	Winner     *int    `json:"winner"`
	StartTime  *string `json:"start_time"`
	EndTime    *string `json:"end_time"`
}

// Season groups matches for statistics
type Season struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// PlayerRating is a leaderboard row
type PlayerRating struct {
	SteamID       string  `json:"steamId"`
	Name          string  `json:"name"`
	AverageRating float64 `json:"average_rating"`
	Wins          int     `json:"wins"`
	TotalMaps     int     `json:"total_maps"`
}

type insertResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// rawID is used for api payloads that only reference another entity
type rawID struct {
	TeamID int `json:"team_id"`
}
