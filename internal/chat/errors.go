package chat

import "errors"

var (
	ErrSessionNotFound    = errors.New("chat: session not found")
	ErrUnauthorized       = errors.New("chat: session owned by another user")
	ErrEvaluationExists   = errors.New("chat: session already evaluated")
	ErrEvaluationNotFound = errors.New("chat: no evaluation for session")
	ErrPromptNotFound     = errors.New("chat: prompt not found")
	ErrLastDefaultPrompt  = errors.New("chat: cannot delete the only default prompt for a bot type")
	ErrKeyNotFound        = errors.New("chat: no api key for bot type")
	ErrInvalidRating      = errors.New("chat: rating must be between 1 and 5")
)
