package response

import (
	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/protocol"
)

// Health is the body of the health endpoint
type Health struct {
	Status string `json:"status"`
}

// Players lists the idle lobby participants in join order
type Players struct {
	Players []protocol.Player `json:"players"`
	Count   int               `json:"count"`
}

// PlayersFromRoster converts a lobby roster
func PlayersFromRoster(roster []model.RosterEntry) Players {
	return Players{
		Players: protocol.NewPlayers(roster),
		Count:   len(roster),
	}
}

// Stats summarises live server state.
// Connections counts open websockets, Lobby the idle participants,
// Sessions the games currently held in storage.
type Stats struct {
	Connections   int `json:"connections"`
	Authenticated int `json:"authenticated"`
	Lobby         int `json:"lobby"`
	Sessions      int `json:"sessions"`
}

// Session wraps a session snapshot in the same shape clients receive over the socket
type Session struct {
	Session protocol.Game `json:"session"`
}

// SessionFromModel converts a game session
func SessionFromModel(s *model.GameSession) Session {
	return Session{Session: protocol.NewGame(s)}
}
