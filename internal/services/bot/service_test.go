package bot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/noughts/internal/dependencies/mocks"
	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/services/bot"
	"github.com/mcoot/noughts/internal/testutil"
)

// stubStrategy returns a fixed answer, optionally blocking until ctx ends
type stubStrategy struct {
	move       int
	err        error
	block      bool
	calls      int
	difficulty bot.Difficulty
}

func (s *stubStrategy) ChooseMove(ctx context.Context, board model.Board, symbol model.Symbol, difficulty bot.Difficulty) (int, error) {
	s.calls++
	s.difficulty = difficulty
	if s.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return s.move, s.err
}

type ServiceSuite struct {
	suite.Suite
	mockRandom *mocks.MockRandom
	primary    *stubStrategy
	service    *bot.Service
	session    *model.GameSession
	ctx        context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.mockRandom = mocks.NewMockRandom()
	s.primary = &stubStrategy{move: 4}
	s.service = bot.NewService(s.primary, bot.NewRandomStrategy(s.mockRandom),
		bot.Config{Timeout: 20 * time.Millisecond, Difficulty: bot.DifficultyEasy},
		testutil.NopLogger(),
	)
	s.session = model.NewGameSession("s-1", model.Assignment{X: "Alice", O: "Bob"},
		[2]model.ConnectionID{"a", "b"}, time.Now())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestUsesPrimary() {
	move, err := s.service.SuggestMove(s.ctx, s.session, bot.DifficultyExpert)
	s.Require().NoError(err)
	s.Equal(4, move)
	s.Equal(bot.DifficultyExpert, s.primary.difficulty)
}

func (s *ServiceSuite) TestDefaultDifficulty() {
	_, err := s.service.SuggestMove(s.ctx, s.session, "")
	s.Require().NoError(err)
	s.Equal(bot.DifficultyEasy, s.primary.difficulty)
	s.Equal(bot.DifficultyEasy, s.service.DefaultDifficulty())
}

func (s *ServiceSuite) TestFallsBackOnError() {
	s.primary.err = errors.New("provider down")
	s.mockRandom.QueueIntn(3)

	move, err := s.service.SuggestMove(s.ctx, s.session, "")
	s.Require().NoError(err)
	s.Equal(3, move)
}

func (s *ServiceSuite) TestFallsBackOnTimeout() {
	s.primary.block = true
	s.mockRandom.QueueIntn(8)

	start := time.Now()
	move, err := s.service.SuggestMove(s.ctx, s.session, "")
	s.Require().NoError(err)
	s.Equal(8, move)
	s.Less(time.Since(start), time.Second)
}

func (s *ServiceSuite) TestFallsBackOnOccupiedCell() {
	s.Require().NoError(s.session.ApplyMove(4))
	s.mockRandom.QueueIntn(0)

	move, err := s.service.SuggestMove(s.ctx, s.session, "")
	s.Require().NoError(err)
	s.Equal(0, move)
}

func (s *ServiceSuite) TestFallsBackOnOutOfRangeCell() {
	s.primary.move = 42
	s.mockRandom.QueueIntn(1)

	move, err := s.service.SuggestMove(s.ctx, s.session, "")
	s.Require().NoError(err)
	s.Equal(1, move)
}

func (s *ServiceSuite) TestRandomOnlyWithoutPrimary() {
	service := bot.NewService(nil, bot.NewRandomStrategy(s.mockRandom), bot.DefaultConfig(), testutil.NopLogger())
	s.mockRandom.QueueIntn(2)

	move, err := service.SuggestMove(s.ctx, s.session, "")
	s.Require().NoError(err)
	s.Equal(2, move)
}

func (s *ServiceSuite) TestFinishedSession() {
	for _, idx := range []int{0, 3, 1, 4, 2} {
		s.Require().NoError(s.session.ApplyMove(idx))
	}

	_, err := s.service.SuggestMove(s.ctx, s.session, "")
	s.ErrorIs(err, model.ErrSessionComplete)
	s.Equal(0, s.primary.calls)
}
