package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/esaudezap/backend/internal/bot"
	"github.com/esaudezap/backend/internal/common"
)

// AgentResolver turns a bot type + prompt configuration into a live agent.
type AgentResolver interface {
	Resolve(ctx context.Context, botType string, promptID *uint64) (bot.Agent, error)
}

// Service orchestrates chat exchanges: persist the user message, invoke the
// resolved agent, persist the reply, and rewrite the session title exactly
// once after the first exchange.
type Service struct {
	repo     *Repo
	resolver AgentResolver
	log      *zap.Logger
	locks    *sessionLocks
}

func NewService(repo *Repo, resolver AgentResolver, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		log:      log,
		locks:    newSessionLocks(),
	}
}

// DefaultBotType is used when session creation names no assistant. The
// replay bot works without any stored credential.
const DefaultBotType = bot.TypeReplay

func (s *Service) CreateSession(ctx context.Context, userID uint64, title, botType string, promptID *uint64) (*Session, error) {
	if title == "" {
		title = DefaultTitle
	}
	if botType == "" {
		botType = DefaultBotType
	}
	botType = strings.ToLower(botType)
	if !bot.ValidType(botType) {
		return nil, fmt.Errorf("%w: %q", bot.ErrUnknownBotType, botType)
	}

	sid, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		SessionID: sid,
		UserID:    userID,
		Title:     title,
		BotType:   botType,
		PromptID:  promptID,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// loadOwnedSession distinguishes a missing session from one owned by
// another user, so callers can answer 404 vs 403.
func (s *Service) loadOwnedSession(ctx context.Context, userID uint64, sessionID string) (*Session, error) {
	session, err := s.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrUnauthorized
	}
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, userID uint64, sessionID string) (*Session, error) {
	return s.loadOwnedSession(ctx, userID, sessionID)
}

func (s *Service) ListSessions(ctx context.Context, userID uint64) ([]Session, error) {
	return s.repo.ListSessionsByUser(ctx, userID)
}

func (s *Service) ListSessionMessages(ctx context.Context, userID uint64, sessionID string) ([]Message, error) {
	if _, err := s.loadOwnedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, sessionID)
}

// ExchangeResult is one completed round trip. Title is set only when this
// exchange triggered the once-only title rewrite.
type ExchangeResult struct {
	SessionID string
	UserMsg   *Message
	BotMsg    *Message
	Title     *string
}

// SendMessage runs one exchange. A caller-supplied botType that differs
// from the stored one switches the session's assistant for this and later
// exchanges; prior history is not revalidated against the new type.
func (s *Service) SendMessage(ctx context.Context, userID uint64, sessionID, content, botType string) (*ExchangeResult, error) {
	s.locks.lock(sessionID)
	defer s.locks.unlock(sessionID)

	session, err := s.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if botType != "" {
		botType = strings.ToLower(botType)
		if !bot.ValidType(botType) {
			return nil, fmt.Errorf("%w: %q", bot.ErrUnknownBotType, botType)
		}
		if botType != session.BotType {
			if err := s.repo.UpdateSessionBotType(ctx, sessionID, botType); err != nil {
				return nil, err
			}
			session.BotType = botType
		}
	}

	userMsg := &Message{
		SessionID: sessionID,
		Sender:    bot.SenderUser,
		UserID:    &userID,
		Content:   content,
	}
	if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	history, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// prior history: everything before the utterance just stored
	prior := toBotHistory(history[:len(history)-1])

	agent, err := s.resolver.Resolve(ctx, session.BotType, session.PromptID)
	if err != nil {
		return nil, err
	}

	reply, err := agent.GenerateResponse(ctx, content, prior)
	if err != nil {
		return nil, err
	}

	botMsg := &Message{
		SessionID: sessionID,
		Sender:    bot.SenderBot,
		Content:   reply,
		BotType:   session.BotType,
	}
	if err := s.repo.InsertMessage(ctx, botMsg); err != nil {
		return nil, err
	}
	if err := s.repo.TouchSession(ctx, sessionID); err != nil {
		s.log.Warn("touch session failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	result := &ExchangeResult{
		SessionID: sessionID,
		UserMsg:   userMsg,
		BotMsg:    botMsg,
	}

	if title, ok := s.maybeGenerateTitle(ctx, session); ok {
		result.Title = &title
	}
	return result, nil
}

// maybeGenerateTitle fires only when the session just completed its first
// exchange and the guard flag is still clear. Failures are soft: the
// exchange result stands and the prior title remains.
func (s *Service) maybeGenerateTitle(ctx context.Context, session *Session) (string, bool) {
	if session.TitleGenerated {
		return "", false
	}
	count, err := s.repo.CountMessages(ctx, session.SessionID)
	if err != nil {
		s.log.Warn("title check: count messages failed",
			zap.String("session_id", session.SessionID), zap.Error(err))
		return "", false
	}
	if count != 2 {
		return "", false
	}

	agent, err := s.resolver.Resolve(ctx, session.BotType, session.PromptID)
	if err != nil {
		s.log.Warn("title generation: resolve failed",
			zap.String("session_id", session.SessionID), zap.Error(err))
		return "", false
	}

	history, err := s.repo.ListMessages(ctx, session.SessionID)
	if err != nil {
		s.log.Warn("title generation: load history failed",
			zap.String("session_id", session.SessionID), zap.Error(err))
		return "", false
	}

	title, err := agent.GenerateTitle(ctx, toBotHistory(history))
	if err != nil || strings.TrimSpace(title) == "" {
		s.log.Warn("title generation failed",
			zap.String("session_id", session.SessionID), zap.Error(err))
		return "", false
	}

	wrote, err := s.repo.SetTitleOnce(ctx, session.SessionID, title)
	if err != nil {
		s.log.Warn("title write failed",
			zap.String("session_id", session.SessionID), zap.Error(err))
		return "", false
	}
	if !wrote {
		return "", false
	}
	return title, true
}

func toBotHistory(msgs []Message) []bot.Message {
	out := make([]bot.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, bot.Message{Sender: m.Sender, Content: m.Content})
	}
	return out
}

// SubmitEvaluation records the one-and-only satisfaction rating for a
// session the requester owns.
func (s *Service) SubmitEvaluation(ctx context.Context, userID uint64, sessionID string, rating int, comment string) (*Evaluation, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if runes := []rune(comment); len(runes) > 500 {
		comment = string(runes[:500])
	}
	if _, err := s.loadOwnedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	eval := &Evaluation{
		SessionID: sessionID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.repo.CreateEvaluation(ctx, eval); err != nil {
		return nil, err
	}
	return eval, nil
}

func (s *Service) GetEvaluation(ctx context.Context, userID uint64, sessionID string) (*Evaluation, error) {
	if _, err := s.loadOwnedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.repo.GetEvaluationBySession(ctx, sessionID)
}
