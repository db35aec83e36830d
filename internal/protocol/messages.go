package protocol

import (
	"github.com/mcoot/noughts/internal/model"
)

// MessageType names a client-to-server intent
type MessageType string

const (
	MessageLogin          MessageType = "login"
	MessageRequestGame    MessageType = "requestGame"
	MessageAcceptGame     MessageType = "acceptGame"
	MessageDeclineGame    MessageType = "declineGame"
	MessageMakeMove       MessageType = "makeMove"
	MessageNewGameRequest MessageType = "newGameRequest"
	MessageSuggestMove    MessageType = "suggestMove"
)

// Player is one roster entry on the wire
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LoginSuccess is sent to a connection after it authenticates
type LoginSuccess struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IncomingRequest is sent to the target of a challenge
type IncomingRequest struct {
	FromID   string `json:"fromId"`
	FromName string `json:"fromName"`
}

// Players maps symbols to display names
type Players struct {
	X string `json:"X"`
	O string `json:"O"`
}

// Game is the full session snapshot sent with gameStart and gameState.
// Empty cells and an unresolved winner are null.
type Game struct {
	ID      string    `json:"id"`
	Board   []*string `json:"board"`
	Turn    string    `json:"turn"`
	Players Players   `json:"players"`
	Winner  *string   `json:"winner"`
}

// MoveSuggestion carries a suggested cell
type MoveSuggestion struct {
	Index int `json:"index"`
}

// MakeMove is the payload of a makeMove intent
type MakeMove struct {
	Index *int `json:"index"`
}

// SuggestMove is the optional payload of a suggestMove intent
type SuggestMove struct {
	Difficulty string `json:"difficulty,omitempty"`
}

// NewGame converts a session into its wire snapshot
func NewGame(session *model.GameSession) Game {
	board := make([]*string, model.BoardSize)
	for i, cell := range session.Board {
		if cell != model.SymbolNone {
			mark := string(cell)
			board[i] = &mark
		}
	}

	var winner *string
	if session.Outcome != model.OutcomeNone {
		w := string(session.Outcome)
		winner = &w
	}

	return Game{
		ID:      string(session.ID),
		Board:   board,
		Turn:    string(session.Turn),
		Players: Players{X: session.Players.X, O: session.Players.O},
		Winner:  winner,
	}
}

// NewPlayers converts a roster into its wire form
func NewPlayers(roster []model.RosterEntry) []Player {
	players := make([]Player, len(roster))
	for i, entry := range roster {
		players[i] = Player{ID: string(entry.ID), Name: entry.Name}
	}
	return players
}
