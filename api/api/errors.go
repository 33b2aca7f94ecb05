/* errors.go
 * Contains the errors returned by the engine. Command handlers compare against these with errors.Is to pick the
 * message shown to users
 * Authors: Zachary Bower
 */

package api

import "errors"

// queue membership
var ErrNotLinked = errors.New("link your steam account with $link before joining a queue")
var ErrAlreadyInMatch = errors.New("you are already playing in a live match")
var ErrAlreadyQueued = errors.New("you are already in this queue")
var ErrLobbyFull = errors.New("lobby is full")
var ErrNotOnRosteredTeam = errors.New("your team is not playing in this lobby")
var ErrTeamFull = errors.New("your team already has enough players queued")
var ErrLobbyLocked = errors.New("lobby is busy setting up a match")
var ErrQueuedElsewhere = errors.New("you are already in another lobby's queue")

// lobby administration
var ErrLobbyNotFound = errors.New("lobby not found")
var ErrInvalidCapacity = errors.New("capacity must be an even number between 2 and 32")
var ErrInvalidSeries = errors.New("series must be one of bo1, bo2, bo3 or bo5")
var ErrInvalidMethod = errors.New("unknown method")
var ErrUnchanged = errors.New("value is unchanged")
var ErrInvalidCvar = errors.New("cvar names may not be empty or contain '.' or '$'")
var ErrCvarNotFound = errors.New("cvar not found")

// match lifecycle
var ErrNoServersAvailable = errors.New("no game servers available")
var ErrSeasonNotFound = errors.New("season not found")
var ErrSurfaceDeleted = errors.New("display was deleted")
var ErrDraftTimeout = errors.New("captains did not finish the draft in time")
var ErrVetoTimeout = errors.New("captains did not finish the map veto in time")
var ErrDisplayBusy = errors.New("display refresh still in progress")

// users and teams
var ErrInvalidSteamID = errors.New("steam id must be a 17 digit SteamID64")
var ErrTeamNotFound = errors.New("team not found")
var ErrAlreadyOnTeam = errors.New("user is already on a team")
var ErrTeamNameTaken = errors.New("team name is already taken")
var ErrCaptainCannotLeave = errors.New("captains cannot leave a team that still has members")
var ErrTeamBusy = errors.New("team is queued or playing a match")
var ErrInvitePending = errors.New("you already have a pending request to join a team")
