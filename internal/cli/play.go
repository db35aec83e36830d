package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/protocol"
)

var errQuit = errors.New("quit")

const playHelp = `Commands:
  list               show players waiting in the lobby
  challenge <id>     challenge a player by id or name
  accept [id]        accept a challenge (defaults to the latest)
  decline [id]       decline a challenge (defaults to the latest)
  move <0-8>         mark a cell, numbered left to right from the top
  new                start a new game with the same opponent
  hint [difficulty]  ask for a suggested move (easy, medium, expert)
  board              show the current game
  help               show this help
  quit               disconnect`

func newPlayCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play interactively over the websocket gateway",
		Long: `Log in and play from the terminal. Server events are printed as they arrive.

` + playHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := cfg.WebsocketURL()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			conn, err := Dial(ctx, wsURL)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			if err := conn.Login(secret); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			return newPlaySession(conn, out).run(cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Login secret (required)")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

// playState is what the terminal knows from the server's messages
type playState struct {
	Roster      []protocol.Player
	LastRequest string
	Game        *protocol.Game
}

// outgoing is one intent to send to the server
type outgoing struct {
	messageType protocol.MessageType
	payload     any
}

type playSession struct {
	conn *Conn
	out  *Output

	mu    sync.Mutex
	state playState
}

func newPlaySession(conn *Conn, out *Output) *playSession {
	return &playSession{conn: conn, out: out}
}

// run reads commands from in until quit, EOF or the server closes the connection
func (p *playSession) run(in io.Reader) error {
	p.out.PrintMessage(fmt.Sprintf("Logged in as %s (%s). Type 'help' for commands.", p.conn.Name, p.conn.ID))

	readErr := make(chan error, 1)
	go func() { readErr <- p.readLoop() }()

	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case err := <-readErr:
			if err != nil && !isClosed(err) {
				return fmt.Errorf("connection lost: %w", err)
			}
			p.out.PrintMessage("Disconnected")
			return nil
		case line, ok := <-lines:
			if !ok {
				p.stop(readErr)
				return nil
			}
			if err := p.handleLine(line); err != nil {
				if errors.Is(err, errQuit) {
					p.stop(readErr)
					return nil
				}
				p.out.PrintError(err)
			}
		}
	}
}

// stop closes the connection and waits for the reader to finish printing
func (p *playSession) stop(readErr <-chan error) {
	_ = p.conn.Close()
	<-readErr
}

func (p *playSession) handleLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return errQuit
	case "help":
		p.out.PrintMessage(playHelp)
		return nil
	case "list":
		p.mu.Lock()
		players := append([]protocol.Player{}, p.state.Roster...)
		p.mu.Unlock()
		p.out.Print(PlayersResult{Players: players, Count: len(players)})
		return nil
	case "board":
		p.mu.Lock()
		game := p.state.Game
		p.mu.Unlock()
		if game == nil {
			return errors.New("not in a game")
		}
		p.out.Print(*game)
		return nil
	}

	p.mu.Lock()
	msg, err := parseCommand(fields, p.state)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	return p.conn.Send(msg.messageType, msg.payload)
}

func (p *playSession) readLoop() error {
	for {
		env, err := p.conn.Next()
		if err != nil {
			return err
		}
		p.apply(env)
	}
}

// apply records what the message says about the world and prints it
func (p *playSession) apply(env protocol.Envelope) {
	p.mu.Lock()
	var game *protocol.Game
	switch model.EventType(env.Type) {
	case model.EventPlayerList:
		var players []protocol.Player
		if json.Unmarshal(env.Payload, &players) == nil {
			p.state.Roster = players
		}
	case model.EventIncomingRequest:
		var req protocol.IncomingRequest
		if json.Unmarshal(env.Payload, &req) == nil {
			p.state.LastRequest = req.FromID
		}
	case model.EventGameStart, model.EventGameState:
		var g protocol.Game
		if json.Unmarshal(env.Payload, &g) == nil {
			p.state.Game = &g
			p.state.LastRequest = ""
			game = &g
		}
	}
	p.mu.Unlock()

	p.out.PrintEvent(env, time.Now())
	if game != nil && p.out.format != "json" {
		p.out.Print(*game)
	}
}

// parseCommand turns a command line into the intent to send
func parseCommand(fields []string, state playState) (outgoing, error) {
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "challenge":
		if len(args) != 1 {
			return outgoing{}, errors.New("usage: challenge <id>")
		}
		return outgoing{protocol.MessageRequestGame, resolvePlayer(args[0], state.Roster)}, nil

	case "accept", "decline":
		target := state.LastRequest
		if len(args) > 0 {
			target = resolvePlayer(args[0], state.Roster)
		}
		if target == "" {
			return outgoing{}, fmt.Errorf("no pending challenge to %s", fields[0])
		}
		if strings.EqualFold(fields[0], "accept") {
			return outgoing{protocol.MessageAcceptGame, target}, nil
		}
		return outgoing{protocol.MessageDeclineGame, target}, nil

	case "move":
		if len(args) != 1 {
			return outgoing{}, errors.New("usage: move <0-8>")
		}
		index, err := strconv.Atoi(args[0])
		if err != nil || index < 0 || index >= model.BoardSize {
			return outgoing{}, fmt.Errorf("cell must be a number from 0 to %d", model.BoardSize-1)
		}
		return outgoing{protocol.MessageMakeMove, protocol.MakeMove{Index: &index}}, nil

	case "new":
		return outgoing{protocol.MessageNewGameRequest, nil}, nil

	case "hint":
		if len(args) > 0 {
			return outgoing{protocol.MessageSuggestMove, protocol.SuggestMove{Difficulty: strings.ToLower(args[0])}}, nil
		}
		return outgoing{protocol.MessageSuggestMove, nil}, nil

	default:
		return outgoing{}, fmt.Errorf("unknown command %q, type 'help' for commands", fields[0])
	}
}

// resolvePlayer maps a display name to its id when the roster has a match
func resolvePlayer(arg string, roster []protocol.Player) string {
	for _, p := range roster {
		if p.ID == arg {
			return arg
		}
	}
	for _, p := range roster {
		if strings.EqualFold(p.Name, arg) {
			return p.ID
		}
	}
	return arg
}
