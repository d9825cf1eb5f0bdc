package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CredentialStore looks up the decrypted provider API key for a bot type.
// ok is false when no key is stored.
type CredentialStore interface {
	APIKey(ctx context.Context, botType string) (key string, ok bool, err error)
}

// PromptStore looks up stored system-prompt text.
type PromptStore interface {
	PromptContent(ctx context.Context, id uint64) (content string, ok bool, err error)
	DefaultPromptContent(ctx context.Context, botType string) (content string, ok bool, err error)
}

// Endpoints carries the provider base URLs and model names from config.
type Endpoints struct {
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiBaseURL string
	GeminiModel   string
}

// Resolver builds the agent matching a bot type and prompt configuration.
// Resolution is a function of (botType, promptID) plus the injected stores;
// there are no package-level lookups.
type Resolver struct {
	creds     CredentialStore
	prompts   PromptStore
	endpoints Endpoints
	log       *zap.Logger
}

func NewResolver(creds CredentialStore, prompts PromptStore, endpoints Endpoints, log *zap.Logger) *Resolver {
	return &Resolver{creds: creds, prompts: prompts, endpoints: endpoints, log: log}
}

// Resolve returns a live agent for the bot type. The replay agent needs
// neither credential nor prompt. Provider-backed agents hard-stop on a
// missing credential; a missing prompt configuration degrades to the bot
// type's default and finally to no system prompt at all.
func (r *Resolver) Resolve(ctx context.Context, botType string, promptID *uint64) (Agent, error) {
	botType = strings.ToLower(strings.TrimSpace(botType))

	if botType == TypeReplay {
		return NewReplayAgent(), nil
	}
	if !ValidType(botType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBotType, botType)
	}

	key, ok, err := r.creds.APIKey(ctx, botType)
	if err != nil {
		return nil, fmt.Errorf("bot: load api key for %s: %w", botType, err)
	}
	if !ok || strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, botType)
	}

	systemPrompt, err := r.resolvePrompt(ctx, botType, promptID)
	if err != nil {
		return nil, err
	}
	if systemPrompt == "" {
		r.log.Warn("no system prompt configured, agent runs without one",
			zap.String("bot_type", botType))
	}

	switch botType {
	case TypeOpenAI:
		return NewOpenAIAgent(r.endpoints.OpenAIBaseURL, key, r.endpoints.OpenAIModel, systemPrompt, r.log), nil
	case TypeGemini:
		return NewGeminiAgent(r.endpoints.GeminiBaseURL, key, r.endpoints.GeminiModel, systemPrompt, r.log), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBotType, botType)
}

func (r *Resolver) resolvePrompt(ctx context.Context, botType string, promptID *uint64) (string, error) {
	if promptID != nil {
		content, ok, err := r.prompts.PromptContent(ctx, *promptID)
		if err != nil {
			return "", fmt.Errorf("bot: load prompt %d: %w", *promptID, err)
		}
		if ok {
			return content, nil
		}
		r.log.Warn("configured prompt not found, falling back to default",
			zap.Uint64("prompt_id", *promptID), zap.String("bot_type", botType))
	}

	content, ok, err := r.prompts.DefaultPromptContent(ctx, botType)
	if err != nil {
		return "", fmt.Errorf("bot: load default prompt for %s: %w", botType, err)
	}
	if !ok {
		return "", nil
	}
	return content, nil
}
