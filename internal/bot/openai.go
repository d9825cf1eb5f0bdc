package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OpenAIAgent talks to the OpenAI chat-completions API.
type OpenAIAgent struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Client       *http.Client

	log *zap.Logger
}

type openAIMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatReq struct {
	Model     string      `json:"model"`
	Messages  []openAIMsg `json:"messages"`
	MaxTokens int         `json:"max_tokens,omitempty"`
}

type openAIChatResp struct {
	Choices []struct {
		Message openAIMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAIAgent(baseURL, apiKey, model, systemPrompt string, log *zap.Logger) *OpenAIAgent {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIAgent{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		SystemPrompt: systemPrompt,
		Client:       &http.Client{Timeout: 90 * time.Second},
		log:          log,
	}
}

// buildHistory maps stored history to completion roles: user stays user,
// bot becomes assistant.
func (a *OpenAIAgent) buildHistory(history []Message) []openAIMsg {
	out := make([]openAIMsg, 0, len(history)+2)
	if a.SystemPrompt != "" {
		out = append(out, openAIMsg{Role: "system", Content: a.SystemPrompt})
	}
	for _, m := range history {
		role := "assistant"
		if m.Sender == SenderUser {
			role = "user"
		}
		out = append(out, openAIMsg{Role: role, Content: m.Content})
	}
	return out
}

func (a *OpenAIAgent) complete(ctx context.Context, messages []openAIMsg, maxTokens int) (string, error) {
	if strings.TrimSpace(a.APIKey) == "" {
		return "", fmt.Errorf("%w: openai api key is empty", ErrMissingCredential)
	}

	body, err := json.Marshal(openAIChatReq{
		Model:     a.Model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(a.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.APIKey)

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: openai: %s", ErrUpstream, msg)
	}

	var decoded openAIChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: openai: decode: %v", ErrUpstream, err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("%w: openai: %s", ErrUpstream, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: openai: empty completion", ErrUpstream)
	}
	return decoded.Choices[0].Message.Content, nil
}

func (a *OpenAIAgent) GenerateResponse(ctx context.Context, prompt string, history []Message) (string, error) {
	messages := a.buildHistory(history)
	messages = append(messages, openAIMsg{Role: "user", Content: prompt})
	return a.complete(ctx, messages, 0)
}

func (a *OpenAIAgent) GenerateTitle(ctx context.Context, history []Message) (string, error) {
	if len(history) == 0 || history[0].Content == "" {
		return fallbackTitle, nil
	}

	messages := make([]openAIMsg, 0, len(history)+1)
	for _, m := range history {
		role := "assistant"
		if m.Sender == SenderUser {
			role = "user"
		}
		messages = append(messages, openAIMsg{Role: role, Content: m.Content})
	}
	messages = append(messages, openAIMsg{Role: "user", Content: titleInstruction})

	title, err := a.complete(ctx, messages, 20)
	if err != nil {
		a.log.Warn("openai title generation failed", zap.Error(err))
		return fallbackTitle, nil
	}
	return trimQuotes(title), nil
}
