package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mcoot/noughts/internal/model"
)

// DefaultModel is used when no model is configured
const DefaultModel = "claude-haiku-4-5"

// maxResponseTokens bounds the reply; a move object is a handful of tokens
const maxResponseTokens = 64

var errNoMoveInReply = errors.New("no move in model reply")

// AnthropicStrategy asks a Claude model to pick the move
type AnthropicStrategy struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicStrategy creates a strategy using the given API key. Extra
// request options are applied after the key (base URL, retries).
func NewAnthropicStrategy(apiKey string, modelName string, opts ...option.RequestOption) *AnthropicStrategy {
	if modelName == "" {
		modelName = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicStrategy{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(modelName),
	}
}

// ChooseMove sends the board to the model and parses {"move": n} from the reply.
// The index is not checked for legality here.
func (s *AnthropicStrategy) ChooseMove(ctx context.Context, board model.Board, symbol model.Symbol, difficulty Difficulty) (int, error) {
	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: maxResponseTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(difficulty)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(movePrompt(board, symbol))),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("requesting move: %w", err)
	}

	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		if move, err := parseMove(block.Text); err == nil {
			return move, nil
		}
	}
	return 0, errNoMoveInReply
}

func systemPrompt(difficulty Difficulty) string {
	switch difficulty {
	case DifficultyEasy:
		return "You are playing noughts and crosses casually. You often pick a random, " +
			"non-optimal cell so the game stays relaxed."
	case DifficultyExpert:
		return "You are a perfect noughts and crosses player. Always take a winning cell " +
			"if one exists, otherwise block the opponent's winning cell, otherwise prefer " +
			"the centre and then corners. Never lose."
	default:
		return "You are a strong noughts and crosses player. Play to win, though you " +
			"occasionally miss the best move."
	}
}

func movePrompt(board model.Board, symbol model.Symbol) string {
	empty := board.EmptyCells()
	moves := make([]string, len(empty))
	for i, idx := range empty {
		moves[i] = fmt.Sprint(idx)
	}

	var b strings.Builder
	b.WriteString("The board is a 9-character string read left to right, top to bottom. ")
	b.WriteString("'X' and 'O' are marks and '_' is an empty cell.\n")
	fmt.Fprintf(&b, "Board: %s\n", board.String())
	fmt.Fprintf(&b, "You play '%s'. Your opponent plays '%s'.\n", symbol, symbol.Other())
	fmt.Fprintf(&b, "Legal cells (0-8): [%s]\n", strings.Join(moves, ", "))
	b.WriteString(`Reply with only a JSON object of the form {"move": <cell>}.`)
	return b.String()
}

// parseMove extracts the move from the first JSON object in text
func parseMove(text string) (int, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return 0, errNoMoveInReply
	}

	var reply struct {
		Move *int `json:"move"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err != nil {
		return 0, err
	}
	if reply.Move == nil {
		return 0, errNoMoveInReply
	}
	return *reply.Move, nil
}
