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

// placeholderOpening satisfies Gemini's rule that the first history entry
// must carry the user role, for sessions whose stored history opens with a
// bot message and no system prompt is configured.
const placeholderOpening = "Start of conversation."

// GeminiAgent talks to the Gemini generateContent API.
type GeminiAgent struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Client       *http.Client

	log *zap.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenReq struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiGenResp struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewGeminiAgent(baseURL, apiKey, model, systemPrompt string, log *zap.Logger) *GeminiAgent {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiAgent{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		SystemPrompt: systemPrompt,
		Client:       &http.Client{Timeout: 90 * time.Second},
		log:          log,
	}
}

// buildContents maps stored history to Gemini roles (user stays user, bot
// becomes model) while guaranteeing the first entry carries the user role:
// a configured system prompt is emitted as the opening user turn; without
// one, a bot-first history gets a placeholder user turn in front.
func (a *GeminiAgent) buildContents(history []Message, includeSystem bool) []geminiContent {
	out := make([]geminiContent, 0, len(history)+2)

	if includeSystem && a.SystemPrompt != "" {
		out = append(out, geminiContent{Role: "user", Parts: []geminiPart{{Text: a.SystemPrompt}}})
	} else if len(history) > 0 && history[0].Sender == SenderBot {
		out = append(out, geminiContent{Role: "user", Parts: []geminiPart{{Text: placeholderOpening}}})
	}

	for _, m := range history {
		role := "model"
		if m.Sender == SenderUser {
			role = "user"
		}
		out = append(out, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	return out
}

func (a *GeminiAgent) generate(ctx context.Context, contents []geminiContent, maxTokens int) (*geminiGenResp, error) {
	if strings.TrimSpace(a.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", ErrMissingCredential)
	}

	var reqBody geminiGenReq
	reqBody.Contents = contents
	reqBody.GenerationConfig.MaxOutputTokens = maxTokens

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(a.BaseURL, "/"), a.Model, a.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: gemini: %s", ErrUpstream, msg)
	}

	var decoded geminiGenResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: gemini: decode: %v", ErrUpstream, err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, fmt.Errorf("%w: gemini: %s", ErrUpstream, decoded.Error.Message)
	}
	return &decoded, nil
}

func (r *geminiGenResp) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func (a *GeminiAgent) GenerateResponse(ctx context.Context, prompt string, history []Message) (string, error) {
	contents := a.buildContents(history, true)
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: prompt}}})

	resp, err := a.generate(ctx, contents, 500)
	if err != nil {
		return "", err
	}

	if text := resp.text(); text != "" {
		return text, nil
	}

	// Empty text: answer with a diagnostic fallback carrying the provider's
	// block or finish reason instead of raw emptiness.
	msg := "Desculpe, não consegui gerar uma resposta no momento."
	switch {
	case resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "":
		msg += fmt.Sprintf(" Motivo: Conteúdo bloqueado por %s.", resp.PromptFeedback.BlockReason)
	case len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "":
		msg += fmt.Sprintf(" Motivo: Geração finalizada com razão: %s.", resp.Candidates[0].FinishReason)
	default:
		msg += " Nenhuma resposta textual válida foi gerada."
	}
	a.log.Error("gemini returned no text", zap.Any("response", resp))
	return msg + " Por favor, tente novamente.", nil
}

func (a *GeminiAgent) GenerateTitle(ctx context.Context, history []Message) (string, error) {
	if len(history) == 0 || history[0].Content == "" {
		return fallbackTitle, nil
	}

	contents := a.buildContents(history, false)
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: titleInstruction}}})

	resp, err := a.generate(ctx, contents, 20)
	if err != nil {
		a.log.Warn("gemini title generation failed", zap.Error(err))
		return fallbackTitle, nil
	}
	title := strings.TrimSpace(resp.text())
	if title == "" {
		return fallbackTitle, nil
	}
	return trimQuotes(title), nil
}
