package bot

import (
	"context"
	"fmt"
)

// ReplayAgent is a deterministic stub used for demos and tests. It never
// touches the network or the store.
type ReplayAgent struct{}

func NewReplayAgent() *ReplayAgent { return &ReplayAgent{} }

func (a *ReplayAgent) GenerateResponse(ctx context.Context, prompt string, history []Message) (string, error) {
	_ = ctx
	_ = history
	return fmt.Sprintf("This is a response from ReplayBot for: %q", prompt), nil
}

// GenerateTitle takes the first 50 runes of the opening message, with an
// ellipsis when truncated.
func (a *ReplayAgent) GenerateTitle(ctx context.Context, history []Message) (string, error) {
	_ = ctx
	if len(history) == 0 || history[0].Content == "" {
		return "Replay Chat", nil
	}
	runes := []rune(history[0].Content)
	if len(runes) > 50 {
		return string(runes[:50]) + "...", nil
	}
	return string(runes), nil
}
