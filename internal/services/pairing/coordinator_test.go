package pairing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/noughts/internal/dependencies/mocks"
	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/services/game"
	"github.com/mcoot/noughts/internal/services/presence"
	"github.com/mcoot/noughts/internal/storage/memory"
	"github.com/mcoot/noughts/internal/testutil"
)

type CoordinatorSuite struct {
	suite.Suite
	random      *mocks.MockRandom
	publisher   *testutil.RecordingPublisher
	presence    *presence.Directory
	games       *game.Controller
	coordinator *Coordinator
	ctx         context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	logger := testutil.NopLogger()

	s.random = mocks.NewMockRandom()
	s.publisher = testutil.NewRecordingPublisher()
	s.presence = presence.New(clock, logger)
	s.games = game.NewController(memory.New(), clock, s.random, s.publisher, logger)
	s.coordinator = New(s.presence, s.games, s.random, s.publisher, logger)
	s.ctx = context.Background()

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, err := s.presence.Add(model.ConnectionID(name), name)
		s.Require().NoError(err)
	}
}

// RequestGame tests

func (s *CoordinatorSuite) TestRequestGameNotifiesTargetOnly() {
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Alice", "Bob"))

	deliveries := s.publisher.Deliveries()
	s.Require().Len(deliveries, 1)
	s.Equal(model.EventIncomingRequest, deliveries[0].Event.Type)
	s.Equal([]model.ConnectionID{"Bob"}, deliveries[0].Audience.IDs)
	s.Equal(model.IncomingRequestPayload{FromID: "Alice", FromName: "Alice"}, deliveries[0].Event.Payload)

	challenger, ok := s.coordinator.PendingChallenger("Bob")
	s.True(ok)
	s.Equal(model.ConnectionID("Alice"), challenger)
}

func (s *CoordinatorSuite) TestRequestGameUnknownTarget() {
	err := s.coordinator.RequestGame(s.ctx, "Alice", "Nobody")
	s.ErrorIs(err, model.ErrTargetUnavailable)

	deliveries := s.publisher.Deliveries()
	s.Require().Len(deliveries, 1)
	s.Equal(model.EventGameRequestError, deliveries[0].Event.Type)
	s.Equal([]model.ConnectionID{"Alice"}, deliveries[0].Audience.IDs)
	s.Equal(model.MessagePayload{Message: "Player is not available."}, deliveries[0].Event.Payload)
}

func (s *CoordinatorSuite) TestRequestGameSelf() {
	err := s.coordinator.RequestGame(s.ctx, "Alice", "Alice")
	s.ErrorIs(err, model.ErrTargetUnavailable)
}

func (s *CoordinatorSuite) TestRequestGameTargetInSession() {
	s.Require().NoError(s.presence.Pair("Bob", "Carol", "s-1"))

	err := s.coordinator.RequestGame(s.ctx, "Alice", "Bob")
	s.ErrorIs(err, model.ErrTargetUnavailable)
	s.Empty(s.publisher.EventsFor("Bob"))
}

func (s *CoordinatorSuite) TestRequestGameFromUnknownChallenger() {
	err := s.coordinator.RequestGame(s.ctx, "Nobody", "Bob")
	s.ErrorIs(err, model.ErrParticipantNotFound)
	s.Empty(s.publisher.Deliveries())
}

func (s *CoordinatorSuite) TestLaterRequestOverwritesPending() {
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Alice", "Bob"))
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Carol", "Bob"))

	_, err := s.coordinator.AcceptGame(s.ctx, "Bob", "Alice")
	s.ErrorIs(err, model.ErrNoPendingRequest)

	_, err = s.coordinator.AcceptGame(s.ctx, "Bob", "Carol")
	s.NoError(err)
}

// AcceptGame tests

func (s *CoordinatorSuite) TestAcceptGameStartsSession() {
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Alice", "Bob"))
	s.publisher.Reset()
	s.random.QueueCoin(true)

	session, err := s.coordinator.AcceptGame(s.ctx, "Bob", "Alice")
	s.Require().NoError(err)

	s.Equal(model.Assignment{X: "Alice", O: "Bob"}, session.Players)
	s.Equal([2]model.ConnectionID{"Alice", "Bob"}, session.Participants)
	s.Equal(model.SymbolX, session.Turn)

	alice, _ := s.presence.Get("Alice")
	bob, _ := s.presence.Get("Bob")
	s.Equal(session.ID, alice.SessionID)
	s.Equal(session.ID, bob.SessionID)

	deliveries := s.publisher.Deliveries()
	s.Require().Len(deliveries, 2)

	s.Equal(model.EventGameStart, deliveries[0].Event.Type)
	s.ElementsMatch([]model.ConnectionID{"Alice", "Bob"}, deliveries[0].Audience.IDs)

	s.Equal(model.EventPlayerList, deliveries[1].Event.Type)
	s.True(deliveries[1].Audience.All)
	s.Equal(model.PlayerListPayload{Players: []model.RosterEntry{{ID: "Carol", Name: "Carol"}}}, deliveries[1].Event.Payload)

	_, ok := s.coordinator.PendingChallenger("Bob")
	s.False(ok)
}

func (s *CoordinatorSuite) TestAcceptGameCoinFlipTails() {
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Alice", "Bob"))
	s.random.QueueCoin(false)

	session, err := s.coordinator.AcceptGame(s.ctx, "Bob", "Alice")
	s.Require().NoError(err)

	s.Equal(model.Assignment{X: "Bob", O: "Alice"}, session.Players)
	s.Equal([2]model.ConnectionID{"Bob", "Alice"}, session.Participants)
}

func (s *CoordinatorSuite) TestAcceptGameWithoutRequest() {
	_, err := s.coordinator.AcceptGame(s.ctx, "Bob", "Alice")
	s.ErrorIs(err, model.ErrNoPendingRequest)
	s.Empty(s.publisher.Deliveries())
}

func (s *CoordinatorSuite) TestAcceptGameAfterChallengerLeft() {
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Alice", "Bob"))
	_, _ = s.presence.Remove("Alice")
	s.publisher.Reset()

	_, err := s.coordinator.AcceptGame(s.ctx, "Bob", "Alice")
	s.ErrorIs(err, model.ErrTargetUnavailable)
	s.Empty(s.publisher.Deliveries())

	count, _ := s.games.CountSessions(s.ctx)
	s.Equal(0, count)
}

func (s *CoordinatorSuite) TestAcceptGameAfterChallengerPairedElsewhere() {
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Alice", "Bob"))
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Alice", "Carol"))

	_, err := s.coordinator.AcceptGame(s.ctx, "Carol", "Alice")
	s.Require().NoError(err)

	_, err = s.coordinator.AcceptGame(s.ctx, "Bob", "Alice")
	s.ErrorIs(err, model.ErrNoPendingRequest)

	bob, _ := s.presence.Get("Bob")
	s.False(bob.InSession())
}

// DeclineGame tests

func (s *CoordinatorSuite) TestDeclineGameIsSilent() {
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Alice", "Bob"))
	s.publisher.Reset()

	s.Require().NoError(s.coordinator.DeclineGame("Bob", "Alice"))
	s.Empty(s.publisher.Deliveries())

	_, err := s.coordinator.AcceptGame(s.ctx, "Bob", "Alice")
	s.ErrorIs(err, model.ErrNoPendingRequest)
}

func (s *CoordinatorSuite) TestDeclineGameWithoutRequest() {
	s.ErrorIs(s.coordinator.DeclineGame("Bob", "Alice"), model.ErrNoPendingRequest)
}

// Forget tests

func (s *CoordinatorSuite) TestForgetDropsBothDirections() {
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Alice", "Bob"))
	s.Require().NoError(s.coordinator.RequestGame(s.ctx, "Carol", "Alice"))

	s.coordinator.Forget("Alice")

	_, ok := s.coordinator.PendingChallenger("Bob")
	s.False(ok)
	_, ok = s.coordinator.PendingChallenger("Alice")
	s.False(ok)
}
