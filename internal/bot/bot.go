// Package bot contains the conversational agents and the resolver that
// turns a stored bot type + prompt configuration into a live agent.
package bot

import (
	"context"
	"errors"
	"strings"
)

// Bot types. The set is closed: adding a provider means adding a constant,
// an Agent implementation and a match arm in the resolver.
const (
	TypeOpenAI = "openai"
	TypeGemini = "gemini"
	TypeReplay = "replay"
)

// Message sender roles as stored in chat history.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

var (
	ErrUnknownBotType    = errors.New("bot: unknown bot type")
	ErrMissingCredential = errors.New("bot: missing api key for bot type")
	ErrUpstream          = errors.New("bot: provider call failed")
)

// ValidType reports whether t names a known bot type.
func ValidType(t string) bool {
	switch strings.ToLower(t) {
	case TypeOpenAI, TypeGemini, TypeReplay:
		return true
	}
	return false
}

// Message is one history entry handed to an agent, oldest first.
type Message struct {
	Sender  string
	Content string
}

// Agent is a conversational assistant.
//
// GenerateResponse returns a single reply for the new user utterance given
// the prior history; provider failures surface as errors wrapping
// ErrUpstream. GenerateTitle produces a short session label from the
// history after the first exchange; it is best-effort and degrades to a
// fixed fallback instead of returning an error.
type Agent interface {
	GenerateResponse(ctx context.Context, prompt string, history []Message) (string, error)
	GenerateTitle(ctx context.Context, history []Message) (string, error)
}

// fallbackTitle is used whenever provider title generation fails.
const fallbackTitle = "Chat Session"

// titleInstruction asks the model for a concise session label.
const titleInstruction = "Por favor, resuma a conversa acima em um título curto e conciso (com menos de 10 palavras). Não inclua frases conversacionais ou saudações. Apenas o título."

// trimQuotes strips one pair of surrounding quote characters from a
// model-produced title.
func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
