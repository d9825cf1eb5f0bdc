package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/esaudezap/backend/internal/common"
	"github.com/esaudezap/backend/internal/httpapi/middleware"
)

type submitEvaluationReq struct {
	SessionID string `json:"sessionId" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment"`
}

func (h *Handler) SubmitEvaluation(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	var req submitEvaluationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "sessionId and rating required")
		return
	}

	eval, err := h.ChatSvc.SubmitEvaluation(c.Request.Context(), uid, req.SessionID, req.Rating, req.Comment)
	if err != nil {
		h.failDomain(c, err)
		return
	}
	common.Created(c, eval)
}

func (h *Handler) GetEvaluation(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	eval, err := h.ChatSvc.GetEvaluation(c.Request.Context(), uid, c.Param("session_id"))
	if err != nil {
		h.failDomain(c, err)
		return
	}
	common.OK(c, eval)
}
