/* handlers.go
 * Contains the HTTP handlers of the status server
 * Authors: Zachary Bower
 */

package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// LobbyHandler returns the queue snapshot of a lobby and its lock state
// Preconditions: The route carries the lobby id
// Postconditions: Writes the LobbyStatus, 404 for an unknown lobby or 500 when the store fails
func (s *Server) LobbyHandler(w http.ResponseWriter, r *http.Request) {
	lobbyID := chi.URLParam(r, "id")
	lobby, err := s.api.Lobby(r.Context(), lobbyID)
	if errors.Is(err, api.ErrLobbyNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.log.Error("failed to load lobby", zap.String("lobby", lobbyID), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load lobby"})
		return
	}
	s.writeJSON(w, http.StatusOK, LobbyStatus{Lobby: *lobby, Locked: s.api.Guards().IsLocked(lobbyID)})
}

// MatchesHandler lists the live matches being polled
func (s *Server) MatchesHandler(w http.ResponseWriter, r *http.Request) {
	matches := s.api.TrackedMatches()
	if matches == nil {
		matches = []shared.Match{}
	}
	s.writeJSON(w, http.StatusOK, MatchesResponse{Count: len(matches), Matches: matches})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Debug("failed to write response", zap.Error(err))
	}
}
