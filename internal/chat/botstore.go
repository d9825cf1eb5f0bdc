package chat

import (
	"context"
	"errors"

	"github.com/esaudezap/backend/internal/secrets"
)

// BotStore adapts the repo and the secret box to the resolver's lookup
// contracts. Keys come back decrypted; a missing row is (_, false, nil).
type BotStore struct {
	repo *Repo
	box  *secrets.Box
}

func NewBotStore(repo *Repo, box *secrets.Box) *BotStore {
	return &BotStore{repo: repo, box: box}
}

func (s *BotStore) APIKey(ctx context.Context, botType string) (string, bool, error) {
	k, err := s.repo.GetAPIKey(ctx, botType)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	plain, err := s.box.Open(k.APIKeyEnc)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

func (s *BotStore) PromptContent(ctx context.Context, id uint64) (string, bool, error) {
	p, err := s.repo.GetPrompt(ctx, id)
	if errors.Is(err, ErrPromptNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.PromptContent, true, nil
}

func (s *BotStore) DefaultPromptContent(ctx context.Context, botType string) (string, bool, error) {
	p, err := s.repo.GetDefaultPrompt(ctx, botType)
	if errors.Is(err, ErrPromptNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.PromptContent, true, nil
}
