package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/esaudezap/backend/internal/bot"
	"github.com/esaudezap/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// one connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(
		&models.User{},
		&Session{},
		&Message{},
		&BotPrompt{},
		&BotAPIKey{},
		&Evaluation{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{DisplayName: "Test User", Email: email, Role: models.RoleUser}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

type stubAgent struct {
	reply      string
	title      string
	genErr     error
	titleCalls int
}

func (a *stubAgent) GenerateResponse(ctx context.Context, prompt string, history []bot.Message) (string, error) {
	if a.genErr != nil {
		return "", a.genErr
	}
	return a.reply, nil
}

func (a *stubAgent) GenerateTitle(ctx context.Context, history []bot.Message) (string, error) {
	a.titleCalls++
	return a.title, nil
}

type stubResolver struct {
	agent       bot.Agent
	err         error
	lastBotType string
}

func (r *stubResolver) Resolve(ctx context.Context, botType string, promptID *uint64) (bot.Agent, error) {
	r.lastBotType = botType
	if r.err != nil {
		return nil, r.err
	}
	return r.agent, nil
}

func newTestService(t *testing.T, resolver AgentResolver) (*Service, *Repo, *gorm.DB) {
	t.Helper()
	gdb := openTestDB(t)
	repo := NewRepo(gdb)
	return NewService(repo, resolver, zap.NewNop()), repo, gdb
}

func TestCreateSessionDefaults(t *testing.T) {
	svc, _, gdb := newTestService(t, &stubResolver{agent: &stubAgent{}})
	user := createTestUser(t, gdb, "a@example.com")

	s, err := svc.CreateSession(context.Background(), user.ID, "", "", nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if s.Title != DefaultTitle {
		t.Fatalf("expected title %q, got %q", DefaultTitle, s.Title)
	}
	if s.BotType != bot.TypeReplay {
		t.Fatalf("expected default bot type %q, got %q", bot.TypeReplay, s.BotType)
	}
	if len(s.SessionID) != 26 {
		t.Fatalf("expected 26-char session id, got %q", s.SessionID)
	}
}

func TestCreateSessionRejectsUnknownBotType(t *testing.T) {
	svc, _, gdb := newTestService(t, &stubResolver{agent: &stubAgent{}})
	user := createTestUser(t, gdb, "a@example.com")

	_, err := svc.CreateSession(context.Background(), user.ID, "", "llama", nil)
	if !errors.Is(err, bot.ErrUnknownBotType) {
		t.Fatalf("expected ErrUnknownBotType, got %v", err)
	}
}

func TestSendMessageFirstExchange(t *testing.T) {
	agent := &stubAgent{reply: "Olá, como posso ajudar?", title: "Vacinação infantil"}
	svc, repo, gdb := newTestService(t, &stubResolver{agent: agent})
	user := createTestUser(t, gdb, "a@example.com")
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, user.ID, "", bot.TypeOpenAI, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	res, err := svc.SendMessage(ctx, user.ID, s.SessionID, "Quando vacinar meu filho?", "")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if res.UserMsg.Sender != bot.SenderUser || res.UserMsg.Content != "Quando vacinar meu filho?" {
		t.Fatalf("unexpected user message: %+v", res.UserMsg)
	}
	if res.BotMsg.Sender != bot.SenderBot || res.BotMsg.Content != agent.reply {
		t.Fatalf("unexpected bot message: %+v", res.BotMsg)
	}
	if res.BotMsg.BotType != bot.TypeOpenAI {
		t.Fatalf("bot message should record the bot type, got %q", res.BotMsg.BotType)
	}
	if res.Title == nil || *res.Title != "Vacinação infantil" {
		t.Fatalf("expected generated title in result, got %v", res.Title)
	}

	msgs, err := repo.ListMessages(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}

	stored, err := repo.GetSessionBySessionID(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if stored.Title != "Vacinação infantil" || !stored.TitleGenerated {
		t.Fatalf("title not persisted with guard: %+v", stored)
	}
}

func TestTitleGeneratedExactlyOnce(t *testing.T) {
	agent := &stubAgent{reply: "resposta", title: "Primeiro título"}
	svc, _, gdb := newTestService(t, &stubResolver{agent: agent})
	user := createTestUser(t, gdb, "a@example.com")
	ctx := context.Background()

	s, _ := svc.CreateSession(ctx, user.ID, "", bot.TypeOpenAI, nil)

	for i := 0; i < 4; i++ {
		if _, err := svc.SendMessage(ctx, user.ID, s.SessionID, "mensagem", ""); err != nil {
			t.Fatalf("exchange %d: %v", i, err)
		}
	}
	if agent.titleCalls != 1 {
		t.Fatalf("title generation ran %d times, want 1", agent.titleCalls)
	}

	agent.title = "Segundo título"
	stored, _ := svc.repo.GetSessionBySessionID(ctx, s.SessionID)
	if stored.Title != "Primeiro título" {
		t.Fatalf("title changed after first exchange: %q", stored.Title)
	}
}

func TestSendMessageForeignOwner(t *testing.T) {
	svc, repo, gdb := newTestService(t, &stubResolver{agent: &stubAgent{reply: "r"}})
	owner := createTestUser(t, gdb, "owner@example.com")
	intruder := createTestUser(t, gdb, "other@example.com")
	ctx := context.Background()

	s, _ := svc.CreateSession(ctx, owner.ID, "", bot.TypeReplay, nil)

	_, err := svc.SendMessage(ctx, intruder.ID, s.SessionID, "let me in", "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	msgs, _ := repo.ListMessages(ctx, s.SessionID)
	if len(msgs) != 0 {
		t.Fatalf("rejected exchange must persist nothing, got %d messages", len(msgs))
	}
}

func TestSendMessageUnknownSession(t *testing.T) {
	svc, _, gdb := newTestService(t, &stubResolver{agent: &stubAgent{reply: "r"}})
	user := createTestUser(t, gdb, "a@example.com")

	_, err := svc.SendMessage(context.Background(), user.ID, "01J0000000000000000000000X", "hi", "")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSendMessageUpstreamFailureKeepsUserMessage(t *testing.T) {
	agent := &stubAgent{genErr: bot.ErrUpstream}
	svc, repo, gdb := newTestService(t, &stubResolver{agent: agent})
	user := createTestUser(t, gdb, "a@example.com")
	ctx := context.Background()

	s, _ := svc.CreateSession(ctx, user.ID, "", bot.TypeOpenAI, nil)

	_, err := svc.SendMessage(ctx, user.ID, s.SessionID, "pergunta", "")
	if !errors.Is(err, bot.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	msgs, _ := repo.ListMessages(ctx, s.SessionID)
	if len(msgs) != 1 || msgs[0].Sender != bot.SenderUser {
		t.Fatalf("expected only the user message persisted, got %d messages", len(msgs))
	}
}

func TestSendMessageSwitchesBotType(t *testing.T) {
	resolver := &stubResolver{agent: &stubAgent{reply: "r", title: "t"}}
	svc, repo, gdb := newTestService(t, resolver)
	user := createTestUser(t, gdb, "a@example.com")
	ctx := context.Background()

	s, _ := svc.CreateSession(ctx, user.ID, "", bot.TypeReplay, nil)

	if _, err := svc.SendMessage(ctx, user.ID, s.SessionID, "oi", bot.TypeOpenAI); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if resolver.lastBotType != bot.TypeOpenAI {
		t.Fatalf("resolver saw %q, want %q", resolver.lastBotType, bot.TypeOpenAI)
	}
	stored, _ := repo.GetSessionBySessionID(ctx, s.SessionID)
	if stored.BotType != bot.TypeOpenAI {
		t.Fatalf("session bot type not switched, got %q", stored.BotType)
	}
}

func TestReplayExchangeTitlesFromFirstMessage(t *testing.T) {
	svc, repo, gdb := newTestService(t, &stubResolver{agent: bot.NewReplayAgent()})
	user := createTestUser(t, gdb, "a@example.com")
	ctx := context.Background()

	s, _ := svc.CreateSession(ctx, user.ID, "", bot.TypeReplay, nil)

	res, err := svc.SendMessage(ctx, user.ID, s.SessionID, "Hello", "")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if !strings.Contains(res.BotMsg.Content, `"Hello"`) {
		t.Fatalf("replay reply should quote the prompt, got %q", res.BotMsg.Content)
	}
	if res.Title == nil || *res.Title != "Hello" {
		t.Fatalf("expected title %q, got %v", "Hello", res.Title)
	}

	stored, _ := repo.GetSessionBySessionID(ctx, s.SessionID)
	if stored.Title != "Hello" {
		t.Fatalf("persisted title %q", stored.Title)
	}
}

func TestSubmitEvaluation(t *testing.T) {
	svc, _, gdb := newTestService(t, &stubResolver{agent: &stubAgent{}})
	user := createTestUser(t, gdb, "a@example.com")
	ctx := context.Background()

	s, _ := svc.CreateSession(ctx, user.ID, "", bot.TypeReplay, nil)

	if _, err := svc.SubmitEvaluation(ctx, user.ID, s.SessionID, 0, ""); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("rating 0: expected ErrInvalidRating, got %v", err)
	}
	if _, err := svc.SubmitEvaluation(ctx, user.ID, s.SessionID, 6, ""); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("rating 6: expected ErrInvalidRating, got %v", err)
	}

	// multibyte runes: truncation must not split a character
	long := strings.Repeat("ã", 600)
	eval, err := svc.SubmitEvaluation(ctx, user.ID, s.SessionID, 4, long)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if n := len([]rune(eval.Comment)); n != 500 {
		t.Fatalf("comment not truncated to 500 runes, got %d", n)
	}
	if !utf8.ValidString(eval.Comment) {
		t.Fatalf("truncated comment is not valid utf-8")
	}

	if _, err := svc.SubmitEvaluation(ctx, user.ID, s.SessionID, 5, "again"); !errors.Is(err, ErrEvaluationExists) {
		t.Fatalf("second submit: expected ErrEvaluationExists, got %v", err)
	}

	got, err := svc.GetEvaluation(ctx, user.ID, s.SessionID)
	if err != nil {
		t.Fatalf("get evaluation: %v", err)
	}
	if got.Rating != 4 {
		t.Fatalf("rating %d, want 4", got.Rating)
	}
}

func TestGetEvaluationMissing(t *testing.T) {
	svc, _, gdb := newTestService(t, &stubResolver{agent: &stubAgent{}})
	user := createTestUser(t, gdb, "a@example.com")
	ctx := context.Background()

	s, _ := svc.CreateSession(ctx, user.ID, "", bot.TypeReplay, nil)

	_, err := svc.GetEvaluation(ctx, user.ID, s.SessionID)
	if !errors.Is(err, ErrEvaluationNotFound) {
		t.Fatalf("expected ErrEvaluationNotFound, got %v", err)
	}
}
