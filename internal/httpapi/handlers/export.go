package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/esaudezap/backend/internal/export"
)

// AdminExportCSV streams the full session+message archive as CSV.
func (h *Handler) AdminExportCSV(c *gin.Context) {
	sessions, err := h.Repo.ListAllSessionsWithMessages(c.Request.Context())
	if err != nil {
		h.failDomain(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="sessions.csv"`)
	c.Status(http.StatusOK)

	if err := export.WriteCSV(c.Writer, export.Build(sessions)); err != nil {
		h.Log.Error("csv export failed", zap.Error(err))
	}
}

// AdminExportJSON streams the same archive as JSON.
func (h *Handler) AdminExportJSON(c *gin.Context) {
	sessions, err := h.Repo.ListAllSessionsWithMessages(c.Request.Context())
	if err != nil {
		h.failDomain(c, err)
		return
	}

	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="sessions.json"`)
	c.Status(http.StatusOK)

	if err := export.WriteJSON(c.Writer, export.Build(sessions)); err != nil {
		h.Log.Error("json export failed", zap.Error(err))
	}
}
