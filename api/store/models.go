/* models.go
 * This file contain the structs that describe partial updates to DB objects
 * Authors: Zachary Bower
 */

package store

import (
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"go.mongodb.org/mongo-driver/bson"
)

// LobbyUpdate lists the lobby settings to change. Nil fields are left untouched
type LobbyUpdate struct {
	Series        *shared.SeriesType
	TeamMethod    *shared.TeamMethod
	CaptainMethod *shared.CaptainMethod
	Region        *string
	SeasonID      *int
	MapPool       []string
	Display       *shared.SurfaceRef
}

// toSet converts the update into a $set document
func (u LobbyUpdate) toSet() bson.M {
	set := bson.M{}
	if u.Series != nil {
		set["series"] = *u.Series
	}
	if u.TeamMethod != nil {
		set["team_method"] = *u.TeamMethod
	}
	if u.CaptainMethod != nil {
		set["captain_method"] = *u.CaptainMethod
	}
	if u.Region != nil {
		set["region"] = *u.Region
	}
	if u.SeasonID != nil {
		set["season_id"] = *u.SeasonID
	}
	if u.MapPool != nil {
		set["map_pool"] = u.MapPool
	}
	if u.Display != nil {
		set["display"] = *u.Display
	}
	return set
}

// Apply copies the set fields onto an in-memory lobby
func (u LobbyUpdate) Apply(lobby *shared.Lobby) {
	if u.Series != nil {
		lobby.Series = *u.Series
	}
	if u.TeamMethod != nil {
		lobby.TeamMethod = *u.TeamMethod
	}
	if u.CaptainMethod != nil {
		lobby.CaptainMethod = *u.CaptainMethod
	}
	if u.Region != nil {
		lobby.Region = *u.Region
	}
	if u.SeasonID != nil {
		lobby.SeasonID = *u.SeasonID
	}
	if u.MapPool != nil {
		lobby.MapPool = append([]string(nil), u.MapPool...)
	}
	if u.Display != nil {
		lobby.Display = *u.Display
	}
}
