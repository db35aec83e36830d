package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/protocol"
	"github.com/mcoot/noughts/internal/services/bot"
	"github.com/mcoot/noughts/internal/services/game"
	"github.com/mcoot/noughts/internal/services/identity"
	"github.com/mcoot/noughts/internal/services/pairing"
	"github.com/mcoot/noughts/internal/services/presence"
)

// DefaultQueueSize is the inbox capacity used when none is configured
const DefaultQueueSize = 256

// Messages surfaced to clients
const (
	msgInvalidSecret    = "Invalid secret code."
	msgSecretInUse      = "This secret code is already in use."
	msgAlreadyLoggedIn  = "Already logged in."
	msgLoginFailed      = "Login failed, please try again."
	msgMalformedMessage = "Malformed message."
	msgUnknownMessage   = "Unknown message type."
	msgGameExpired      = "Your game has expired."
)

type inbound struct {
	connID     model.ConnectionID
	data       []byte
	disconnect bool
}

// Dispatcher is the connection gateway: it decodes client intents, routes
// them to the services and runs the disconnect cascade. Messages are
// handled one at a time by Run.
type Dispatcher struct {
	identity  *identity.Registry
	presence  *presence.Directory
	pairing   *pairing.Coordinator
	games     *game.Controller
	bot       *bot.Service
	publisher model.Publisher
	logger    *slog.Logger

	inbox chan inbound
	done  chan struct{}
	once  sync.Once

	suggestions sync.WaitGroup
}

// New creates a new Dispatcher
func New(
	identity *identity.Registry,
	presence *presence.Directory,
	pairing *pairing.Coordinator,
	games *game.Controller,
	bot *bot.Service,
	publisher model.Publisher,
	queueSize int,
	logger *slog.Logger,
) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		identity:  identity,
		presence:  presence,
		pairing:   pairing,
		games:     games,
		bot:       bot,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "gateway")),
		inbox:     make(chan inbound, queueSize),
		done:      make(chan struct{}),
	}
}

// Submit queues a client frame for handling. It returns false once the
// dispatcher has stopped.
func (d *Dispatcher) Submit(connID model.ConnectionID, data []byte) bool {
	return d.enqueue(inbound{connID: connID, data: data})
}

// SubmitDisconnect queues the disconnect cascade for a connection
func (d *Dispatcher) SubmitDisconnect(connID model.ConnectionID) bool {
	return d.enqueue(inbound{connID: connID, disconnect: true})
}

func (d *Dispatcher) enqueue(msg inbound) bool {
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.inbox <- msg:
		return true
	case <-d.done:
		return false
	}
}

// Run handles queued messages until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started")
	defer func() {
		d.once.Do(func() { close(d.done) })
		d.suggestions.Wait()
		d.logger.Info("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.inbox:
			if msg.disconnect {
				d.HandleDisconnect(ctx, msg.connID)
			} else {
				d.HandleMessage(ctx, msg.connID, msg.data)
			}
		}
	}
}

// Wait blocks until in-flight move suggestions have been delivered
func (d *Dispatcher) Wait() {
	d.suggestions.Wait()
}

// HandleMessage processes one client frame synchronously
func (d *Dispatcher) HandleMessage(ctx context.Context, connID model.ConnectionID, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		d.logger.Debug("malformed frame",
			slog.String("connection_id", string(connID)),
			slog.String("error", err.Error()),
		)
		d.sendError(connID, msgMalformedMessage)
		return
	}

	if protocol.MessageType(env.Type) == protocol.MessageLogin {
		d.handleLogin(ctx, connID, env)
		return
	}

	participant, err := d.presence.Get(connID)
	if err != nil {
		// Unauthenticated connections may only log in
		d.logger.Debug("ignoring message from unauthenticated connection",
			slog.String("connection_id", string(connID)),
			slog.String("type", env.Type),
		)
		return
	}

	switch protocol.MessageType(env.Type) {
	case protocol.MessageRequestGame:
		target, err := protocol.DecodePayload[string](env)
		if err != nil {
			d.drop(connID, env.Type, err)
			return
		}
		d.reconcile(ctx, connID, model.ConnectionID(target))
		err = d.pairing.RequestGame(ctx, connID, model.ConnectionID(target))
		d.drop(connID, env.Type, err)

	case protocol.MessageAcceptGame:
		challenger, err := protocol.DecodePayload[string](env)
		if err != nil {
			d.drop(connID, env.Type, err)
			return
		}
		d.reconcile(ctx, connID, model.ConnectionID(challenger))
		_, err = d.pairing.AcceptGame(ctx, connID, model.ConnectionID(challenger))
		d.drop(connID, env.Type, err)

	case protocol.MessageDeclineGame:
		challenger, err := protocol.DecodePayload[string](env)
		if err != nil {
			d.drop(connID, env.Type, err)
			return
		}
		d.drop(connID, env.Type, d.pairing.DeclineGame(connID, model.ConnectionID(challenger)))

	case protocol.MessageMakeMove:
		move, err := protocol.DecodePayload[protocol.MakeMove](env)
		if err == nil && move.Index == nil {
			err = model.ErrInvalidPosition
		}
		if err != nil {
			d.drop(connID, env.Type, err)
			return
		}
		_, err = d.games.MakeMove(ctx, participant, *move.Index)
		d.sessionFailed(ctx, participant, env.Type, err)

	case protocol.MessageNewGameRequest:
		_, err := d.games.NewGame(ctx, participant)
		d.sessionFailed(ctx, participant, env.Type, err)

	case protocol.MessageSuggestMove:
		d.handleSuggestMove(ctx, participant, env)

	default:
		d.logger.Debug("unknown message type",
			slog.String("connection_id", string(connID)),
			slog.String("type", env.Type),
		)
		d.sendError(connID, msgUnknownMessage)
	}
}

func (d *Dispatcher) handleLogin(ctx context.Context, connID model.ConnectionID, env protocol.Envelope) {
	secret, err := protocol.DecodePayload[string](env)
	if err != nil {
		d.publish(connID, model.EventLoginError, msgInvalidSecret)
		return
	}

	name, err := d.identity.Authenticate(ctx, connID, secret)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidSecret):
			d.publish(connID, model.EventLoginError, msgInvalidSecret)
		case errors.Is(err, model.ErrSecretAlreadyActive):
			d.publish(connID, model.EventLoginError, msgSecretInUse)
		case errors.Is(err, model.ErrAlreadyAuthenticated):
			d.publish(connID, model.EventLoginError, msgAlreadyLoggedIn)
		default:
			d.logger.Error("login failed",
				slog.String("connection_id", string(connID)),
				slog.String("error", err.Error()),
			)
			d.publish(connID, model.EventLoginError, msgLoginFailed)
		}
		return
	}

	if _, err := d.presence.Add(connID, name); err != nil {
		d.logger.Error("failed to register participant",
			slog.String("connection_id", string(connID)),
			slog.String("error", err.Error()),
		)
		d.identity.Release(ctx, connID)
		d.publish(connID, model.EventLoginError, msgLoginFailed)
		return
	}

	d.publisher.Publish(model.To(connID), model.Event{
		Type:    model.EventLoginSuccess,
		Payload: model.LoginSuccessPayload{ID: connID, Name: name},
	})
	d.publisher.Publish(model.Everyone(), d.presence.RosterEvent())
}

// handleSuggestMove answers off the dispatch loop so a slow provider never
// holds up other clients
func (d *Dispatcher) handleSuggestMove(ctx context.Context, participant model.Participant, env protocol.Envelope) {
	var requested string
	if len(env.Payload) > 0 {
		req, err := protocol.DecodePayload[protocol.SuggestMove](env)
		if err != nil {
			d.drop(participant.ID, env.Type, err)
			return
		}
		requested = req.Difficulty
	}
	difficulty, err := bot.ParseDifficulty(requested, d.bot.DefaultDifficulty())
	if err != nil {
		d.drop(participant.ID, env.Type, err)
		return
	}

	session, err := d.games.TurnSnapshot(ctx, participant)
	if err != nil {
		d.sessionFailed(ctx, participant, env.Type, err)
		return
	}

	d.suggestions.Add(1)
	go func() {
		defer d.suggestions.Done()

		move, err := d.bot.SuggestMove(ctx, session, difficulty)
		if err != nil {
			d.drop(participant.ID, env.Type, err)
			return
		}
		d.publisher.Publish(model.To(participant.ID), model.Event{
			Type:    model.EventMoveSuggestion,
			Payload: model.MoveSuggestionPayload{Index: move},
		})
	}()
}

// HandleDisconnect releases everything held by the connection. Repeated
// calls for the same connection are no-ops.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, connID model.ConnectionID) {
	d.identity.Release(ctx, connID)
	d.pairing.Forget(connID)

	participant, err := d.presence.Get(connID)
	if err != nil {
		return
	}

	if participant.InSession() {
		err := d.games.Abandon(ctx, participant.SessionID, connID)
		if err != nil && !errors.Is(err, model.ErrSessionNotFound) {
			d.logger.Error("failed to abandon session",
				slog.String("session_id", string(participant.SessionID)),
				slog.String("error", err.Error()),
			)
		}
		d.presence.Unpair(participant.SessionID)
	}

	if _, err := d.presence.Remove(connID); err != nil {
		return
	}

	d.logger.Info("participant left",
		slog.String("connection_id", string(connID)),
		slog.String("player", participant.DisplayName),
	)
	d.publisher.Publish(model.Everyone(), d.presence.RosterEvent())
}

// reconcile ends any session the given participants are still paired into
// whose record is gone from storage, such as one expired by a TTL
func (d *Dispatcher) reconcile(ctx context.Context, ids ...model.ConnectionID) {
	for _, id := range ids {
		participant, err := d.presence.Get(id)
		if err != nil || !participant.InSession() {
			continue
		}
		_, err = d.games.GetSession(ctx, participant.SessionID)
		if errors.Is(err, model.ErrSessionNotFound) {
			d.endExpiredSession(ctx, participant.SessionID)
		}
	}
}

// sessionFailed handles an error from a session operation
func (d *Dispatcher) sessionFailed(ctx context.Context, participant model.Participant, messageType string, err error) {
	if errors.Is(err, model.ErrSessionNotFound) {
		d.endExpiredSession(ctx, participant.SessionID)
		return
	}
	d.drop(participant.ID, messageType, err)
}

// endExpiredSession returns both players of a vanished session to the lobby
func (d *Dispatcher) endExpiredSession(ctx context.Context, sessionID model.SessionID) {
	released := d.presence.Unpair(sessionID)
	if len(released) == 0 {
		return
	}
	if err := d.games.Discard(ctx, sessionID); err != nil {
		d.logger.Error("failed to discard session",
			slog.String("session_id", string(sessionID)),
			slog.String("error", err.Error()),
		)
	}

	d.logger.Warn("session expired",
		slog.String("session_id", string(sessionID)),
		slog.Int("released", len(released)),
	)
	for _, id := range released {
		d.sendError(id, msgGameExpired)
	}
	d.publisher.Publish(model.Everyone(), d.presence.RosterEvent())
}

func (d *Dispatcher) publish(connID model.ConnectionID, eventType model.EventType, message string) {
	d.publisher.Publish(model.To(connID), model.Event{
		Type:    eventType,
		Payload: model.MessagePayload{Message: message},
	})
}

func (d *Dispatcher) sendError(connID model.ConnectionID, message string) {
	d.publish(connID, model.EventError, message)
}

// drop logs a rejected intent. Conforming clients never trigger these, so
// nothing is sent back.
func (d *Dispatcher) drop(connID model.ConnectionID, messageType string, err error) {
	if err == nil {
		return
	}
	d.logger.Debug("intent rejected",
		slog.String("connection_id", string(connID)),
		slog.String("type", messageType),
		slog.String("error", err.Error()),
	)
}
