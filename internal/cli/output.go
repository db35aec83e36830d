package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/protocol"
)

// Output handles formatting output based on the configured format.
// It is safe for concurrent use so server events and prompts do not interleave.
type Output struct {
	format string
	w      io.Writer
	mu     sync.Mutex
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs one server message. JSON output is one object per line.
func (o *Output) PrintEvent(env protocol.Envelope, at time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		data, _ := json.Marshal(EventLine{Time: at, Type: env.Type, Payload: env.Payload})
		fmt.Fprintln(o.w, string(data))
		return
	}
	fmt.Fprintf(o.w, "[%s] %s: %s\n", at.Format("2006-01-02 15:04:05"), env.Type, describeEvent(env))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case PlayersResult:
		o.printPlayers(v.Players)
	case StatsResult:
		fmt.Fprintf(o.w, "Connections: %d\n", v.Connections)
		fmt.Fprintf(o.w, "Logged in: %d\n", v.Authenticated)
		fmt.Fprintf(o.w, "In lobby: %d\n", v.Lobby)
		fmt.Fprintf(o.w, "Sessions: %d\n", v.Sessions)
	case protocol.Game:
		fmt.Fprint(o.w, renderGame(v))
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printPlayers(players []protocol.Player) {
	if len(players) == 0 {
		fmt.Fprintln(o.w, "No players waiting")
		return
	}
	fmt.Fprintf(o.w, "Players (%d):\n", len(players))
	for _, p := range players {
		fmt.Fprintf(o.w, "  - %s (%s)\n", p.Name, p.ID)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// PlayersResult response type
type PlayersResult struct {
	Players []protocol.Player `json:"players"`
	Count   int               `json:"count"`
}

// StatsResult response type
type StatsResult struct {
	Connections   int `json:"connections"`
	Authenticated int `json:"authenticated"`
	Lobby         int `json:"lobby"`
	Sessions      int `json:"sessions"`
}

// EventLine is the JSON form of a streamed server message
type EventLine struct {
	Time    time.Time       `json:"time"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// describeEvent renders a server message as a single line of text
func describeEvent(env protocol.Envelope) string {
	switch model.EventType(env.Type) {
	case model.EventLoginSuccess:
		var p protocol.LoginSuccess
		if json.Unmarshal(env.Payload, &p) == nil {
			return fmt.Sprintf("logged in as %s (%s)", p.Name, p.ID)
		}
	case model.EventPlayerList:
		var players []protocol.Player
		if json.Unmarshal(env.Payload, &players) == nil {
			if len(players) == 0 {
				return "lobby is empty"
			}
			names := make([]string, len(players))
			for i, p := range players {
				names[i] = fmt.Sprintf("%s (%s)", p.Name, p.ID)
			}
			return strings.Join(names, ", ")
		}
	case model.EventIncomingRequest:
		var p protocol.IncomingRequest
		if json.Unmarshal(env.Payload, &p) == nil {
			return fmt.Sprintf("%s (%s) wants to play", p.FromName, p.FromID)
		}
	case model.EventGameStart, model.EventGameState:
		var g protocol.Game
		if json.Unmarshal(env.Payload, &g) == nil {
			return summarizeGame(g)
		}
	case model.EventMoveSuggestion:
		var p protocol.MoveSuggestion
		if json.Unmarshal(env.Payload, &p) == nil {
			return fmt.Sprintf("try cell %d", p.Index)
		}
	case model.EventLoginError, model.EventGameRequestError, model.EventError:
		var message string
		if json.Unmarshal(env.Payload, &message) == nil {
			return message
		}
	}
	return string(env.Payload)
}

// summarizeGame renders a snapshot on one line, rows separated by '/'
func summarizeGame(g protocol.Game) string {
	rows := make([]string, 0, 3)
	for row := 0; row < 3; row++ {
		var b strings.Builder
		for col := 0; col < 3; col++ {
			b.WriteString(cellText(g.Board, row*3+col, "."))
		}
		rows = append(rows, b.String())
	}

	status := "turn " + g.Turn
	if g.Winner != nil {
		status = "result " + *g.Winner
	}
	return fmt.Sprintf("%s X=%s O=%s %s %s", g.ID, g.Players.X, g.Players.O, strings.Join(rows, "/"), status)
}

// renderGame draws the board with free cells numbered for the move command
func renderGame(g protocol.Game) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game %s: X=%s O=%s\n", g.ID, g.Players.X, g.Players.O)
	for row := 0; row < 3; row++ {
		if row > 0 {
			b.WriteString("---+---+---\n")
		}
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			index := row*3 + col
			cells[col] = " " + cellText(g.Board, index, strconv.Itoa(index)) + " "
		}
		b.WriteString(strings.Join(cells, "|") + "\n")
	}

	switch {
	case g.Winner == nil:
		fmt.Fprintf(&b, "%s to move\n", g.Turn)
	case *g.Winner == string(model.OutcomeDraw):
		b.WriteString("Draw\n")
	case *g.Winner == string(model.OutcomeOpponentLeft):
		b.WriteString("Opponent left\n")
	default:
		fmt.Fprintf(&b, "%s wins\n", *g.Winner)
	}
	return b.String()
}

func cellText(board []*string, index int, empty string) string {
	if index < len(board) && board[index] != nil {
		return *board[index]
	}
	return empty
}
