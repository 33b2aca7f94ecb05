/* routes.go
 * Contains the routes of the status server
 * Authors: Zachary Bower
 */

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewServer creates the status server for an engine
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{api: cfg.API, log: logger}
}

// Routes returns the handler serving the status endpoints
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/lobbies/{id}", s.LobbyHandler)
	r.Get("/matches", s.MatchesHandler)
	return r
}
