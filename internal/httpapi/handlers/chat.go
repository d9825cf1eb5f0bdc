package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/esaudezap/backend/internal/common"
	"github.com/esaudezap/backend/internal/httpapi/middleware"
)

type createSessionReq struct {
	Title    string  `json:"title"`
	BotType  string  `json:"botType"`
	PromptID *uint64 `json:"promptId"`
}

func (h *Handler) CreateChatSession(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	var req createSessionReq
	_ = c.ShouldBindJSON(&req) // empty body is a valid request

	sess, err := h.ChatSvc.CreateSession(c.Request.Context(), uid, req.Title, req.BotType, req.PromptID)
	if err != nil {
		h.failDomain(c, err)
		return
	}

	common.Created(c, sess)
}

func (h *Handler) ListChatSessions(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	sessions, err := h.ChatSvc.ListSessions(c.Request.Context(), uid)
	if err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, gin.H{"sessions": sessions})
}

func (h *Handler) GetChatSession(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	sess, err := h.ChatSvc.GetSession(c.Request.Context(), uid, c.Param("session_id"))
	if err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, sess)
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	msgs, err := h.ChatSvc.ListSessionMessages(c.Request.Context(), uid, c.Param("session_id"))
	if err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, gin.H{"messages": msgs})
}

type sendMessageReq struct {
	Content string `json:"content" binding:"required"`
	BotType string `json:"botType"`
}

// SendChatMessage runs one orchestrated exchange.
func (h *Handler) SendChatMessage(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "content required")
		return
	}

	result, err := h.ChatSvc.SendMessage(c.Request.Context(), uid, c.Param("session_id"), req.Content, req.BotType)
	if err != nil {
		h.failDomain(c, err)
		return
	}

	resp := gin.H{
		"session_id":   result.SessionID,
		"user_message": result.UserMsg,
		"bot_message":  result.BotMsg,
	}
	if result.Title != nil {
		resp["title"] = *result.Title
	}
	common.Created(c, resp)
}
