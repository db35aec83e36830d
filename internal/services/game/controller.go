package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/noughts/internal/dependencies/clock"
	"github.com/mcoot/noughts/internal/dependencies/random"
	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/storage"
)

// SessionIDLength is the length of generated session IDs
const SessionIDLength = 12

// Controller manages the game session state machine and turn flow
type Controller struct {
	storage   storage.Storage
	clock     clock.Clock
	random    random.Random
	publisher model.Publisher
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[model.SessionID]*sync.Mutex
}

// NewController creates a new GameController
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	publisher model.Publisher,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:   storage,
		clock:     clock,
		random:    random,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "game")),
		locks:     make(map[model.SessionID]*sync.Mutex),
	}
}

// lockSession serializes mutations of one session and returns the unlock func
func (c *Controller) lockSession(id model.SessionID) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (c *Controller) forgetLock(id model.SessionID) {
	c.mu.Lock()
	delete(c.locks, id)
	c.mu.Unlock()
}

// StartSession creates a session with an empty board and X to move.
// participants holds the X connection first.
func (c *Controller) StartSession(ctx context.Context, players model.Assignment, participants [2]model.ConnectionID) (*model.GameSession, error) {
	// Generate unique session ID
	var id model.SessionID
	for {
		id = model.SessionID(c.random.Token(SessionIDLength))
		_, err := c.storage.GetSession(ctx, id)
		if errors.Is(err, model.ErrSessionNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	session := model.NewGameSession(id, players, participants, c.clock.Now())
	if err := c.storage.SaveSession(ctx, session); err != nil {
		c.logger.Error("failed to save session",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("session started",
		slog.String("session_id", string(id)),
		slog.String("x", players.X),
		slog.String("o", players.O),
	)
	return session, nil
}

// Discard deletes a session that never started play
func (c *Controller) Discard(ctx context.Context, id model.SessionID) error {
	defer c.forgetLock(id)
	return c.storage.DeleteSession(ctx, id)
}

// GetSession retrieves a session by ID
func (c *Controller) GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error) {
	return c.storage.GetSession(ctx, id)
}

// CountSessions returns the number of live sessions
func (c *Controller) CountSessions(ctx context.Context) (int, error) {
	return c.storage.CountSessions(ctx)
}

// MakeMove places the participant's symbol at index and broadcasts the
// resulting state to both players
func (c *Controller) MakeMove(ctx context.Context, participant model.Participant, index int) (*model.GameSession, error) {
	if !participant.InSession() {
		return nil, model.ErrNoSession
	}

	unlock := c.lockSession(participant.SessionID)
	defer unlock()

	session, err := c.storage.GetSession(ctx, participant.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasParticipant(participant.ID) {
		return nil, model.ErrNoSession
	}
	if session.IsTerminal() {
		return nil, model.ErrSessionComplete
	}

	// Authority: the mover must hold the active symbol
	if session.Players.NameFor(session.Turn) != participant.DisplayName ||
		session.ConnectionFor(session.Turn) != participant.ID {
		return nil, model.ErrNotPlayerTurn
	}

	if err := session.ApplyMove(index); err != nil {
		return nil, err
	}
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Debug("move applied",
		slog.String("session_id", string(session.ID)),
		slog.String("player", participant.DisplayName),
		slog.Int("index", index),
		slog.String("outcome", string(session.Outcome)),
	)
	if session.IsTerminal() {
		c.logger.Info("session finished",
			slog.String("session_id", string(session.ID)),
			slog.String("outcome", string(session.Outcome)),
		)
	}

	c.publisher.Publish(model.To(session.Participants[:]...), model.SnapshotEvent(model.EventGameState, session))
	return session, nil
}

// NewGame resets the participant's session, keeping the symbol assignment,
// and broadcasts the fresh board to both players
func (c *Controller) NewGame(ctx context.Context, participant model.Participant) (*model.GameSession, error) {
	if !participant.InSession() {
		return nil, model.ErrNoSession
	}

	unlock := c.lockSession(participant.SessionID)
	defer unlock()

	session, err := c.storage.GetSession(ctx, participant.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasParticipant(participant.ID) {
		return nil, model.ErrNoSession
	}

	session.Reset()
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("session reset",
		slog.String("session_id", string(session.ID)),
		slog.String("player", participant.DisplayName),
	)

	c.publisher.Publish(model.To(session.Participants[:]...), model.SnapshotEvent(model.EventGameStart, session))
	return session, nil
}

// TurnSnapshot returns a copy of the participant's session if it is in
// progress and the participant holds the active symbol
func (c *Controller) TurnSnapshot(ctx context.Context, participant model.Participant) (*model.GameSession, error) {
	if !participant.InSession() {
		return nil, model.ErrNoSession
	}

	unlock := c.lockSession(participant.SessionID)
	defer unlock()

	session, err := c.storage.GetSession(ctx, participant.SessionID)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, model.ErrSessionComplete
	}
	if session.ConnectionFor(session.Turn) != participant.ID {
		return nil, model.ErrNotPlayerTurn
	}
	return session, nil
}

// Abandon ends the session because leaver disconnected. The remaining
// player receives one final snapshot, then the session is destroyed.
func (c *Controller) Abandon(ctx context.Context, id model.SessionID, leaver model.ConnectionID) error {
	unlock := c.lockSession(id)
	defer func() {
		unlock()
		c.forgetLock(id)
	}()

	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return err
	}

	session.Outcome = model.OutcomeOpponentLeft
	session.UpdatedAt = c.clock.Now()

	if session.HasParticipant(leaver) {
		c.publisher.Publish(model.To(session.Opponent(leaver)), model.SnapshotEvent(model.EventGameState, session))
	}

	c.logger.Info("session abandoned",
		slog.String("session_id", string(id)),
		slog.String("connection_id", string(leaver)),
	)
	return c.storage.DeleteSession(ctx, id)
}
