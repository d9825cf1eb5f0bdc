package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestGeminiPlaceholderWhenHistoryOpensWithBot(t *testing.T) {
	a := NewGeminiAgent("", "key", "", "", zap.NewNop())

	history := []Message{
		{Sender: SenderBot, Content: "Olá! Sou o assistente."},
		{Sender: SenderUser, Content: "Oi"},
	}
	contents := a.buildContents(history, true)

	if len(contents) != 3 {
		t.Fatalf("expected placeholder plus history, got %d entries", len(contents))
	}
	if contents[0].Role != "user" {
		t.Fatalf("first entry must carry the user role, got %q", contents[0].Role)
	}
	if contents[0].Parts[0].Text != placeholderOpening {
		t.Fatalf("expected placeholder text, got %q", contents[0].Parts[0].Text)
	}
	if contents[1].Role != "model" {
		t.Fatalf("bot history entry must map to model role, got %q", contents[1].Role)
	}
}

func TestGeminiSystemPromptBecomesOpeningUserTurn(t *testing.T) {
	a := NewGeminiAgent("", "key", "", "oriente cidadãos", zap.NewNop())

	history := []Message{
		{Sender: SenderBot, Content: "Olá"},
	}
	contents := a.buildContents(history, true)

	if contents[0].Role != "user" || contents[0].Parts[0].Text != "oriente cidadãos" {
		t.Fatalf("expected system prompt as opening user turn, got %+v", contents[0])
	}
	// the system turn already satisfies the user-first rule; no placeholder
	if contents[1].Parts[0].Text != "Olá" {
		t.Fatalf("expected history right after system turn, got %+v", contents[1])
	}
}

func TestGeminiUserFirstHistoryNeedsNoPlaceholder(t *testing.T) {
	a := NewGeminiAgent("", "key", "", "", zap.NewNop())

	contents := a.buildContents([]Message{{Sender: SenderUser, Content: "Oi"}}, true)
	if len(contents) != 1 || contents[0].Role != "user" {
		t.Fatalf("expected history unchanged, got %+v", contents)
	}
}

func TestGeminiEmptyTextYieldsDiagnosticFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"},"candidates":[]}`))
	}))
	defer srv.Close()

	a := NewGeminiAgent(srv.URL, "key", "gemini-1.5-flash", "", zap.NewNop())
	reply, err := a.GenerateResponse(context.Background(), "Oi", nil)
	if err != nil {
		t.Fatalf("empty text must not be an error: %v", err)
	}
	if !strings.Contains(reply, "SAFETY") {
		t.Fatalf("expected block reason in fallback, got %q", reply)
	}
}

func TestGeminiFinishReasonInFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`))
	}))
	defer srv.Close()

	a := NewGeminiAgent(srv.URL, "key", "", "", zap.NewNop())
	reply, err := a.GenerateResponse(context.Background(), "Oi", nil)
	if err != nil {
		t.Fatalf("empty text must not be an error: %v", err)
	}
	if !strings.Contains(reply, "MAX_TOKENS") {
		t.Fatalf("expected finish reason in fallback, got %q", reply)
	}
}

func TestGeminiResponseAndTitleRequests(t *testing.T) {
	var requests []geminiGenReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiGenReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		requests = append(requests, req)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"\"Vacina especial\""}]}}]}`))
	}))
	defer srv.Close()

	a := NewGeminiAgent(srv.URL, "key", "gemini-1.5-flash", "", zap.NewNop())

	history := []Message{
		{Sender: SenderUser, Content: "Oi"},
		{Sender: SenderBot, Content: "Olá"},
	}
	if _, err := a.GenerateResponse(context.Background(), "vacina?", history); err != nil {
		t.Fatalf("generate response: %v", err)
	}
	title, err := a.GenerateTitle(context.Background(), history)
	if err != nil {
		t.Fatalf("generate title: %v", err)
	}
	if title != "Vacina especial" {
		t.Fatalf("expected quotes trimmed, got %q", title)
	}

	if len(requests) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(requests))
	}
	if requests[0].GenerationConfig.MaxOutputTokens != 500 {
		t.Fatalf("reply call should cap at 500 tokens, got %d", requests[0].GenerationConfig.MaxOutputTokens)
	}
	if requests[1].GenerationConfig.MaxOutputTokens != 20 {
		t.Fatalf("title call should cap at 20 tokens, got %d", requests[1].GenerationConfig.MaxOutputTokens)
	}
	lastTitleTurn := requests[1].Contents[len(requests[1].Contents)-1]
	if lastTitleTurn.Parts[0].Text != titleInstruction {
		t.Fatalf("expected title instruction as final turn, got %+v", lastTitleTurn)
	}
}
