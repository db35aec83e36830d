package model

import "time"

// SessionID uniquely identifies a game session
type SessionID string

// Outcome is the terminal result of a game. The zero value means unresolved.
type Outcome string

const (
	OutcomeNone         Outcome = ""
	OutcomeXWins        Outcome = "X"
	OutcomeOWins        Outcome = "O"
	OutcomeDraw         Outcome = "draw"
	OutcomeOpponentLeft Outcome = "opponent_left"
)

// GameState is the phase of a session derived from its outcome
type GameState string

const (
	GameStateInProgress GameState = "in_progress"
	GameStateWon        GameState = "won"
	GameStateDraw       GameState = "draw"
	GameStateAbandoned  GameState = "abandoned"
)

// Assignment maps each symbol to the display name playing it
type Assignment struct {
	X string
	O string
}

// NameFor returns the display name assigned to the symbol
func (a Assignment) NameFor(symbol Symbol) string {
	switch symbol {
	case SymbolX:
		return a.X
	case SymbolO:
		return a.O
	default:
		return ""
	}
}

// SymbolFor returns the symbol assigned to the display name, or SymbolNone
func (a Assignment) SymbolFor(name string) Symbol {
	switch name {
	case a.X:
		return SymbolX
	case a.O:
		return SymbolO
	default:
		return SymbolNone
	}
}

// GameSession is one two-player game
type GameSession struct {
	ID           SessionID
	Board        Board
	Turn         Symbol
	Players      Assignment
	Outcome      Outcome
	Participants [2]ConnectionID // Connections playing X and O, in that order
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewGameSession creates a session with an empty board and X to move
func NewGameSession(id SessionID, players Assignment, participants [2]ConnectionID, now time.Time) *GameSession {
	return &GameSession{
		ID:           id,
		Turn:         SymbolX,
		Players:      players,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// State returns the current phase of the session
func (g *GameSession) State() GameState {
	switch g.Outcome {
	case OutcomeXWins, OutcomeOWins:
		return GameStateWon
	case OutcomeDraw:
		return GameStateDraw
	case OutcomeOpponentLeft:
		return GameStateAbandoned
	default:
		return GameStateInProgress
	}
}

// IsTerminal returns true once an outcome has been recorded
func (g *GameSession) IsTerminal() bool {
	return g.Outcome != OutcomeNone
}

// HasParticipant returns true if the connection plays in this session
func (g *GameSession) HasParticipant(id ConnectionID) bool {
	return g.Participants[0] == id || g.Participants[1] == id
}

// ConnectionFor returns the connection playing the symbol
func (g *GameSession) ConnectionFor(symbol Symbol) ConnectionID {
	switch symbol {
	case SymbolX:
		return g.Participants[0]
	case SymbolO:
		return g.Participants[1]
	default:
		return ""
	}
}

// Opponent returns the other participant's connection
func (g *GameSession) Opponent(id ConnectionID) ConnectionID {
	if g.Participants[0] == id {
		return g.Participants[1]
	}
	return g.Participants[0]
}

// ApplyMove writes the active symbol at index, resolves the outcome and
// passes the turn when the game continues. The turn never moves on error.
func (g *GameSession) ApplyMove(index int) error {
	if g.IsTerminal() {
		return ErrSessionComplete
	}
	if !IsValidIndex(index) {
		return ErrInvalidPosition
	}
	if !g.Board.IsEmpty(index) {
		return ErrCellOccupied
	}

	g.Board[index] = g.Turn
	g.Outcome = g.Board.Evaluate()
	if g.Outcome == OutcomeNone {
		g.Turn = g.Turn.Other()
	}
	return nil
}

// Reset clears the board and outcome and gives X the first move.
// The symbol assignment is kept.
func (g *GameSession) Reset() {
	g.Board = Board{}
	g.Outcome = OutcomeNone
	g.Turn = SymbolX
}

// Clone returns a copy that shares no state with the session
func (g *GameSession) Clone() *GameSession {
	c := *g
	return &c
}
