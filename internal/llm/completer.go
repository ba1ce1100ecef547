package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nikhilbhutani/medalchat/internal/observability"
	"github.com/nikhilbhutani/medalchat/pkg/tokenizer"
)

var ErrNoProvider = errors.New("no LLM provider configured")

// Completer sends a single user prompt through the gateway and returns the
// raw completion text.
type Completer struct {
	gw       Gateway
	provider string
	model    string
	logger   *slog.Logger
}

func NewCompleter(gw Gateway, provider, model string) *Completer {
	return &Completer{
		gw:       gw,
		provider: provider,
		model:    model,
		logger:   slog.Default().With("component", "llm"),
	}
}

func (c *Completer) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if c == nil || c.gw == nil {
		return "", ErrNoProvider
	}

	resp, err := c.gw.Chat(ctx, ChatRequest{
		Provider:    c.provider,
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	in, out := resp.InputTokens, resp.OutputTokens
	if in == 0 && out == 0 {
		in, out = tokenizer.CountTokens(prompt), tokenizer.CountTokens(resp.Content)
	}
	observability.ObserveLLMUsage(resp.Provider, in, out, resp.CostUSD)

	c.logger.Debug("completion",
		"provider", resp.Provider,
		"model", resp.Model,
		"input_tokens", in,
		"output_tokens", out,
		"cost_usd", resp.CostUSD,
		"latency_ms", resp.LatencyMs,
	)
	return resp.Content, nil
}
