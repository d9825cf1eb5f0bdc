package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/esaudezap/backend/internal/bot"
	"github.com/esaudezap/backend/internal/chat"
	"github.com/esaudezap/backend/internal/common"
)

// MaskedKey is the only form in which a stored credential ever leaves the
// service.
const MaskedKey = "********"

// providerBotType accepts the bot types that carry prompts and keys; the
// replay stub needs neither.
func providerBotType(t string) (string, bool) {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == bot.TypeOpenAI || t == bot.TypeGemini {
		return t, true
	}
	return "", false
}

// Sessions

func (h *Handler) AdminListSessions(c *gin.Context) {
	sessions, err := h.Repo.ListAllSessions(c.Request.Context())
	if err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, gin.H{"sessions": sessions})
}

func (h *Handler) AdminListSessionMessages(c *gin.Context) {
	sessionID := c.Param("session_id")
	if _, err := h.Repo.GetSessionBySessionID(c.Request.Context(), sessionID); err != nil {
		h.failDomain(c, err)
		return
	}
	msgs, err := h.Repo.ListMessages(c.Request.Context(), sessionID)
	if err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, gin.H{"messages": msgs})
}

func (h *Handler) AdminGetSessionEvaluation(c *gin.Context) {
	eval, err := h.Repo.GetEvaluationBySession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, eval)
}

// Prompts

type promptReq struct {
	PromptName    string `json:"promptName" binding:"required"`
	BotType       string `json:"botType" binding:"required"`
	PromptContent string `json:"promptContent" binding:"required"`
	IsDefault     bool   `json:"isDefault"`
}

func (h *Handler) AdminListPrompts(c *gin.Context) {
	prompts, err := h.Repo.ListPrompts(c.Request.Context())
	if err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, gin.H{"prompts": prompts})
}

func (h *Handler) AdminCreatePrompt(c *gin.Context) {
	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "promptName, botType and promptContent required")
		return
	}
	botType, ok := providerBotType(req.BotType)
	if !ok {
		common.Fail(c, http.StatusBadRequest, 10010, "botType must be openai or gemini")
		return
	}

	prompt := &chat.BotPrompt{
		PromptName:    req.PromptName,
		BotType:       botType,
		PromptContent: req.PromptContent,
		IsDefault:     req.IsDefault,
	}
	if err := h.Repo.CreatePrompt(c.Request.Context(), prompt); err != nil {
		h.failDomain(c, err)
		return
	}
	common.Created(c, prompt)
}

func (h *Handler) AdminUpdatePrompt(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid prompt id")
		return
	}

	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "promptName, botType and promptContent required")
		return
	}
	botType, ok := providerBotType(req.BotType)
	if !ok {
		common.Fail(c, http.StatusBadRequest, 10010, "botType must be openai or gemini")
		return
	}

	prompt := &chat.BotPrompt{
		ID:            id,
		PromptName:    req.PromptName,
		BotType:       botType,
		PromptContent: req.PromptContent,
		IsDefault:     req.IsDefault,
	}
	if err := h.Repo.UpdatePrompt(c.Request.Context(), prompt); err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, prompt)
}

func (h *Handler) AdminDeletePrompt(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid prompt id")
		return
	}
	if err := h.Repo.DeletePrompt(c.Request.Context(), id); err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": id})
}

// API keys

func (h *Handler) AdminListAPIKeys(c *gin.Context) {
	keys, err := h.Repo.ListAPIKeys(c.Request.Context())
	if err != nil {
		h.failDomain(c, err)
		return
	}

	out := make([]gin.H, 0, len(keys))
	for _, k := range keys {
		out = append(out, gin.H{
			"id":         k.ID,
			"bot_type":   k.BotType,
			"api_key":    MaskedKey,
			"updated_at": k.UpdatedAt,
		})
	}
	common.OK(c, gin.H{"api_keys": out})
}

type upsertKeyReq struct {
	BotType string `json:"botType" binding:"required"`
	APIKey  string `json:"apiKey" binding:"required"`
}

func (h *Handler) AdminUpsertAPIKey(c *gin.Context) {
	var req upsertKeyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "botType and apiKey required")
		return
	}
	botType, ok := providerBotType(req.BotType)
	if !ok {
		common.Fail(c, http.StatusBadRequest, 10010, "botType must be openai or gemini")
		return
	}

	sealed, err := h.Box.Seal(strings.TrimSpace(req.APIKey))
	if err != nil {
		h.failDomain(c, err)
		return
	}
	if err := h.Repo.UpsertAPIKey(c.Request.Context(), botType, sealed); err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, gin.H{"bot_type": botType, "api_key": MaskedKey})
}

func (h *Handler) AdminDeleteAPIKey(c *gin.Context) {
	botType, ok := providerBotType(c.Param("bot_type"))
	if !ok {
		common.Fail(c, http.StatusBadRequest, 10010, "botType must be openai or gemini")
		return
	}
	if err := h.Repo.DeleteAPIKey(c.Request.Context(), botType); err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": botType})
}
