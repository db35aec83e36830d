package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/noughts/internal/api/handler"
	"github.com/mcoot/noughts/internal/api/middleware"
	"github.com/mcoot/noughts/internal/gateway"
	"github.com/mcoot/noughts/internal/services/game"
	"github.com/mcoot/noughts/internal/services/identity"
	"github.com/mcoot/noughts/internal/services/presence"
	"github.com/mcoot/noughts/internal/web/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Hub      *ws.Hub
	Gateway  *gateway.Dispatcher
	Presence *presence.Directory
	Games    *game.Controller
	Identity *identity.Registry
}

// NewRouter creates the HTTP router: the websocket endpoint plus the
// read-only status API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)

	statusHandler := handler.NewStatusHandler(cfg.Presence, cfg.Games, cfg.Hub, cfg.Identity, cfg.Logger)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Realtime gateway
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(w, req, cfg.Hub, cfg.Gateway)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", statusHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/players", statusHandler.Players).Methods(http.MethodGet)
	api.HandleFunc("/stats", statusHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", statusHandler.Session).Methods(http.MethodGet)

	return r
}
