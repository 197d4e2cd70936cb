package gemini

import (
	"context"

	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ Counter = (*TokenCounter)(nil)

// TokenCounter counts tokens using the local Gemini tokenizer.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a new TokenCounter for the given model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, "user")}, nil)
	if err != nil {
		return 0, err
	}
	return int(result.TotalTokens), nil
}

// TrimToBudget shortens text until counter reports at most limit tokens.
// Text is cut at a rune boundary proportionally to the overshoot.
func TrimToBudget(ctx context.Context, counter Counter, text string, limit int) (string, error) {
	runes := []rune(text)
	for {
		n, err := counter.CountTokens(ctx, string(runes))
		if err != nil {
			return "", err
		}
		if n <= limit || len(runes) == 0 {
			return string(runes), nil
		}
		keep := len(runes) * limit / n
		if keep >= len(runes) {
			keep = len(runes) - 1
		}
		runes = runes[:keep]
	}
}
