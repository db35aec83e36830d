package pairing

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/noughts/internal/dependencies/random"
	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/services/game"
	"github.com/mcoot/noughts/internal/services/presence"
)

// Coordinator runs the challenge handshake between idle participants and
// promotes an accepted pair into a game session
type Coordinator struct {
	presence  *presence.Directory
	games     *game.Controller
	random    random.Random
	publisher model.Publisher
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[model.ConnectionID]model.ConnectionID // target -> latest challenger
}

// New creates a new pairing Coordinator
func New(
	presence *presence.Directory,
	games *game.Controller,
	random random.Random,
	publisher model.Publisher,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		presence:  presence,
		games:     games,
		random:    random,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "pairing")),
		pending:   make(map[model.ConnectionID]model.ConnectionID),
	}
}

// RequestGame challenges target on behalf of from. When either side is
// unavailable only the challenger is told.
func (c *Coordinator) RequestGame(ctx context.Context, from, target model.ConnectionID) error {
	challenger, err := c.presence.Get(from)
	if err != nil {
		return err
	}

	opponent, err := c.presence.Get(target)
	if err != nil || from == target || challenger.InSession() || opponent.InSession() {
		c.publisher.Publish(model.To(from), model.Event{
			Type:    model.EventGameRequestError,
			Payload: model.MessagePayload{Message: "Player is not available."},
		})
		c.logger.Debug("game request rejected",
			slog.String("connection_id", string(from)),
			slog.String("target", string(target)),
		)
		return model.ErrTargetUnavailable
	}

	c.mu.Lock()
	c.pending[target] = from
	c.mu.Unlock()

	c.publisher.Publish(model.To(target), model.Event{
		Type: model.EventIncomingRequest,
		Payload: model.IncomingRequestPayload{
			FromID:   challenger.ID,
			FromName: challenger.DisplayName,
		},
	})

	c.logger.Info("game requested",
		slog.String("player", challenger.DisplayName),
		slog.String("target", opponent.DisplayName),
	)
	return nil
}

// AcceptGame starts a session between acceptor and the challenger that
// most recently challenged them. Symbols are assigned by coin flip.
func (c *Coordinator) AcceptGame(ctx context.Context, acceptor, challenger model.ConnectionID) (*model.GameSession, error) {
	c.mu.Lock()
	latest, ok := c.pending[acceptor]
	c.mu.Unlock()
	if !ok || latest != challenger {
		return nil, model.ErrNoPendingRequest
	}

	from, errFrom := c.presence.Get(challenger)
	to, errTo := c.presence.Get(acceptor)
	if errFrom != nil || errTo != nil || from.InSession() || to.InSession() {
		c.clear(acceptor)
		return nil, model.ErrTargetUnavailable
	}

	x, o := to, from
	if c.random.CoinFlip() {
		x, o = from, to
	}

	session, err := c.games.StartSession(ctx,
		model.Assignment{X: x.DisplayName, O: o.DisplayName},
		[2]model.ConnectionID{x.ID, o.ID},
	)
	if err != nil {
		return nil, err
	}

	if err := c.presence.Pair(x.ID, o.ID, session.ID); err != nil {
		if discardErr := c.games.Discard(ctx, session.ID); discardErr != nil {
			c.logger.Error("failed to discard session",
				slog.String("session_id", string(session.ID)),
				slog.String("error", discardErr.Error()),
			)
		}
		return nil, err
	}

	c.Forget(x.ID)
	c.Forget(o.ID)

	c.publisher.Publish(model.To(x.ID, o.ID), model.SnapshotEvent(model.EventGameStart, session))
	c.publisher.Publish(model.Everyone(), c.presence.RosterEvent())
	return session, nil
}

// DeclineGame clears the pending challenge. Nothing is sent to the challenger.
func (c *Coordinator) DeclineGame(acceptor, challenger model.ConnectionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if latest, ok := c.pending[acceptor]; !ok || latest != challenger {
		return model.ErrNoPendingRequest
	}
	delete(c.pending, acceptor)

	c.logger.Debug("game declined",
		slog.String("connection_id", string(acceptor)),
		slog.String("challenger", string(challenger)),
	)
	return nil
}

// Forget drops every pending challenge made by or to the connection
func (c *Coordinator) Forget(id model.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, id)
	for target, challenger := range c.pending {
		if challenger == id {
			delete(c.pending, target)
		}
	}
}

// PendingChallenger returns the latest challenger of target, if any
func (c *Coordinator) PendingChallenger(target model.ConnectionID) (model.ConnectionID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	challenger, ok := c.pending[target]
	return challenger, ok
}

func (c *Coordinator) clear(target model.ConnectionID) {
	c.mu.Lock()
	delete(c.pending, target)
	c.mu.Unlock()
}
