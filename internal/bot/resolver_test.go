package bot

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeStore struct {
	keys      map[string]string
	prompts   map[uint64]string
	defaults  map[string]string
	keyCalls  int
	promptErr error
}

func (f *fakeStore) APIKey(ctx context.Context, botType string) (string, bool, error) {
	f.keyCalls++
	k, ok := f.keys[botType]
	return k, ok, nil
}

func (f *fakeStore) PromptContent(ctx context.Context, id uint64) (string, bool, error) {
	if f.promptErr != nil {
		return "", false, f.promptErr
	}
	p, ok := f.prompts[id]
	return p, ok, nil
}

func (f *fakeStore) DefaultPromptContent(ctx context.Context, botType string) (string, bool, error) {
	p, ok := f.defaults[botType]
	return p, ok, nil
}

func newTestResolver(store *fakeStore) *Resolver {
	return NewResolver(store, store, Endpoints{}, zap.NewNop())
}

func TestResolveReplaySkipsLookups(t *testing.T) {
	store := &fakeStore{}
	r := newTestResolver(store)

	agent, err := r.Resolve(context.Background(), TypeReplay, nil)
	if err != nil {
		t.Fatalf("resolve replay: %v", err)
	}
	if _, ok := agent.(*ReplayAgent); !ok {
		t.Fatalf("expected replay agent, got %T", agent)
	}
	if store.keyCalls != 0 {
		t.Fatalf("replay must not hit the credential store")
	}
}

func TestResolveUnknownBotType(t *testing.T) {
	r := newTestResolver(&fakeStore{})
	_, err := r.Resolve(context.Background(), "claude", nil)
	if !errors.Is(err, ErrUnknownBotType) {
		t.Fatalf("expected ErrUnknownBotType, got %v", err)
	}
}

func TestResolveMissingCredential(t *testing.T) {
	r := newTestResolver(&fakeStore{keys: map[string]string{}})
	_, err := r.Resolve(context.Background(), TypeOpenAI, nil)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}

	// an empty stored key is as unusable as none
	r = newTestResolver(&fakeStore{keys: map[string]string{TypeGemini: "  "}})
	_, err = r.Resolve(context.Background(), TypeGemini, nil)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential for blank key, got %v", err)
	}
}

func TestResolveUsesExplicitPrompt(t *testing.T) {
	store := &fakeStore{
		keys:     map[string]string{TypeOpenAI: "sk-x"},
		prompts:  map[uint64]string{7: "prompt específico"},
		defaults: map[string]string{TypeOpenAI: "prompt padrão"},
	}
	r := newTestResolver(store)

	id := uint64(7)
	agent, err := r.Resolve(context.Background(), TypeOpenAI, &id)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	oa, ok := agent.(*OpenAIAgent)
	if !ok {
		t.Fatalf("expected openai agent, got %T", agent)
	}
	if oa.SystemPrompt != "prompt específico" {
		t.Fatalf("expected explicit prompt, got %q", oa.SystemPrompt)
	}
}

func TestResolveFallsBackToDefaultPrompt(t *testing.T) {
	store := &fakeStore{
		keys:     map[string]string{TypeGemini: "key"},
		prompts:  map[uint64]string{},
		defaults: map[string]string{TypeGemini: "prompt padrão"},
	}
	r := newTestResolver(store)

	missing := uint64(99)
	agent, err := r.Resolve(context.Background(), TypeGemini, &missing)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	ga := agent.(*GeminiAgent)
	if ga.SystemPrompt != "prompt padrão" {
		t.Fatalf("expected default prompt fallback, got %q", ga.SystemPrompt)
	}
}

func TestResolveProceedsWithoutAnyPrompt(t *testing.T) {
	store := &fakeStore{keys: map[string]string{TypeOpenAI: "sk-x"}}
	r := newTestResolver(store)

	agent, err := r.Resolve(context.Background(), TypeOpenAI, nil)
	if err != nil {
		t.Fatalf("missing prompt must not fail resolution: %v", err)
	}
	if agent.(*OpenAIAgent).SystemPrompt != "" {
		t.Fatalf("expected empty system prompt")
	}
}
