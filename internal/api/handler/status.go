package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/noughts/internal/api/apierr"
	"github.com/mcoot/noughts/internal/api/response"
	"github.com/mcoot/noughts/internal/model"
)

// Lobby is the read side of the presence directory
type Lobby interface {
	List() []model.RosterEntry
	Counts() (connected int, idle int)
}

// Sessions is the read side of the game controller
type Sessions interface {
	GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error)
	CountSessions(ctx context.Context) (int, error)
}

// Connections reports open websocket connections
type Connections interface {
	ClientCount() int
}

// Logins reports connections holding a secret
type Logins interface {
	ActiveCount() int
}

// StatusHandler serves read-only views of live server state
type StatusHandler struct {
	lobby       Lobby
	sessions    Sessions
	connections Connections
	logins      Logins
	logger      *slog.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(lobby Lobby, sessions Sessions, connections Connections, logins Logins, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		lobby:       lobby,
		sessions:    sessions,
		connections: connections,
		logins:      logins,
		logger:      logger,
	}
}

// Health handles GET /api/v1/health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.CountSessions(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		WriteError(w, apierr.NewUnavailableError("Session storage unavailable"))
		return
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// Players handles GET /api/v1/players
func (h *StatusHandler) Players(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.PlayersFromRoster(h.lobby.List()))
}

// Stats handles GET /api/v1/stats
func (h *StatusHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.CountSessions(r.Context())
	if err != nil {
		h.logger.Error("failed to count sessions", slog.String("error", err.Error()))
		WriteError(w, err)
		return
	}
	_, idle := h.lobby.Counts()

	response.JSON(w, http.StatusOK, response.Stats{
		Connections:   h.connections.ClientCount(),
		Authenticated: h.logins.ActiveCount(),
		Lobby:         idle,
		Sessions:      sessions,
	})
}

// Session handles GET /api/v1/sessions/{id}
func (h *StatusHandler) Session(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		WriteError(w, apierr.NewInvalidRequestError("session id is required"))
		return
	}

	session, err := h.sessions.GetSession(r.Context(), model.SessionID(id))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}
