package bot

import (
	"context"

	"github.com/mcoot/noughts/internal/dependencies/random"
	"github.com/mcoot/noughts/internal/model"
)

// RandomStrategy picks uniformly among the empty cells
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// ChooseMove returns a random empty cell, ignoring difficulty
func (s *RandomStrategy) ChooseMove(ctx context.Context, board model.Board, symbol model.Symbol, difficulty Difficulty) (int, error) {
	empty := board.EmptyCells()
	if len(empty) == 0 {
		return 0, model.ErrNoLegalMove
	}
	return empty[s.random.Intn(len(empty))], nil
}
