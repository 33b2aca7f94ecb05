/* models.go
 * Contains the configuration of the status server and the JSON documents it serves
 * Authors: Zachary Bower
 */

package web

import (
	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"go.uber.org/zap"
)

// Config holds the configuration for the web server
type Config struct {
	Addr   string
	API    *api.API
	Logger *zap.Logger
}

// Server is the HTTP server that reports the state of lobbies and live matches
type Server struct {
	api *api.API
	log *zap.Logger
}

// LobbyStatus is a lobby's queue snapshot and whether it is locked by a ready check or match setup
type LobbyStatus struct {
	Lobby  shared.Lobby `json:"lobby"`
	Locked bool         `json:"locked"`
}

// MatchesResponse lists the live matches being polled
type MatchesResponse struct {
	Count   int            `json:"count"`
	Matches []shared.Match `json:"matches"`
}

type errorResponse struct {
	Error string `json:"error"`
}
