package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/noughts/internal/model"
)

// Config holds configuration for the bot service
type Config struct {
	// Timeout bounds a single call to the primary strategy
	Timeout time.Duration

	// Difficulty is used when a request does not name one
	Difficulty Difficulty
}

// DefaultConfig returns default bot configuration
func DefaultConfig() Config {
	return Config{
		Timeout:    5 * time.Second,
		Difficulty: DifficultyMedium,
	}
}

// Service suggests moves, preferring the primary strategy and falling back
// when it fails, times out, or proposes an illegal cell
type Service struct {
	primary  Strategy // nil when no external provider is configured
	fallback Strategy
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a new bot Service
func NewService(primary Strategy, fallback Strategy, cfg Config, logger *slog.Logger) *Service {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = DefaultConfig().Difficulty
	}
	return &Service{
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "bot-service")),
	}
}

// DefaultDifficulty returns the difficulty used when none is requested
func (s *Service) DefaultDifficulty() Difficulty {
	return s.cfg.Difficulty
}

// SuggestMove returns a legal cell for the side to move in session
func (s *Service) SuggestMove(ctx context.Context, session *model.GameSession, difficulty Difficulty) (int, error) {
	if session.IsTerminal() {
		return 0, model.ErrSessionComplete
	}
	if session.Board.IsFull() {
		return 0, model.ErrNoLegalMove
	}
	if difficulty == "" {
		difficulty = s.cfg.Difficulty
	}

	if s.primary != nil {
		move, err := s.askPrimary(ctx, session, difficulty)
		if err == nil {
			return move, nil
		}
		s.logger.Warn("move provider failed, using fallback",
			slog.String("session_id", string(session.ID)),
			slog.String("error", err.Error()),
		)
	}

	return s.fallback.ChooseMove(ctx, session.Board, session.Turn, difficulty)
}

func (s *Service) askPrimary(ctx context.Context, session *model.GameSession, difficulty Difficulty) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	move, err := s.primary.ChooseMove(ctx, session.Board, session.Turn, difficulty)
	if err != nil {
		return 0, err
	}
	if !model.IsValidIndex(move) {
		return 0, model.ErrInvalidPosition
	}
	if !session.Board.IsEmpty(move) {
		return 0, model.ErrCellOccupied
	}

	s.logger.Debug("move suggested",
		slog.String("session_id", string(session.ID)),
		slog.Int("index", move),
		slog.String("difficulty", string(difficulty)),
	)
	return move, nil
}
