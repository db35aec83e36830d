package bot

import (
	"context"
	"fmt"

	"github.com/mcoot/noughts/internal/model"
)

// Difficulty tunes how strongly a strategy plays
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyExpert Difficulty = "expert"
)

// ParseDifficulty validates a difficulty name. An empty name yields fallback.
func ParseDifficulty(name string, fallback Difficulty) (Difficulty, error) {
	switch d := Difficulty(name); d {
	case "":
		return fallback, nil
	case DifficultyEasy, DifficultyMedium, DifficultyExpert:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty: %s", name)
	}
}

// Strategy chooses a cell for the given symbol to play
type Strategy interface {
	ChooseMove(ctx context.Context, board model.Board, symbol model.Symbol, difficulty Difficulty) (int, error)
}
