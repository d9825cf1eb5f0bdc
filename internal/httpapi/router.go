package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/esaudezap/backend/internal/common"
	"github.com/esaudezap/backend/internal/config"
	"github.com/esaudezap/backend/internal/httpapi/handlers"
	"github.com/esaudezap/backend/internal/httpapi/middleware"
	"github.com/esaudezap/backend/internal/secrets"
)

// NewRouter wires the full HTTP surface. limiter may be nil when rate
// limiting is disabled.
func NewRouter(db *gorm.DB, cfg *config.Config, log *zap.Logger, box *secrets.Box, limiter middleware.ExchangeLimiter) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, log, box)

	r.GET("/ping", h.Ping)

	api := r.Group("/api")

	// auth
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/google", h.GoogleRedirect)
	api.GET("/auth/google/callback", h.GoogleCallback)

	// authenticated surface
	authed := api.Group("/")
	authed.Use(middleware.AuthRequired(cfg.Auth.JWTSecret))

	authed.GET("/me", h.Me)

	authed.POST("/chats", h.CreateChatSession)
	authed.GET("/chats", h.ListChatSessions)
	authed.GET("/chats/:session_id", h.GetChatSession)
	authed.GET("/chats/:session_id/messages", h.ListChatMessages)
	authed.POST("/chats/:session_id/messages",
		middleware.RateLimit(limiter, log), h.SendChatMessage)

	authed.POST("/evaluations", h.SubmitEvaluation)
	authed.GET("/evaluations/:session_id", h.GetEvaluation)

	// admin surface
	admin := authed.Group("/admin")
	admin.Use(middleware.AdminRequired(db))

	admin.POST("/upgrade-user", h.UpgradeUser)

	admin.GET("/sessions", h.AdminListSessions)
	admin.GET("/sessions/:session_id/messages", h.AdminListSessionMessages)
	admin.GET("/sessions/:session_id/evaluation", h.AdminGetSessionEvaluation)

	admin.GET("/prompts", h.AdminListPrompts)
	admin.POST("/prompts", h.AdminCreatePrompt)
	admin.PUT("/prompts/:id", h.AdminUpdatePrompt)
	admin.DELETE("/prompts/:id", h.AdminDeletePrompt)

	admin.GET("/api-keys", h.AdminListAPIKeys)
	admin.PUT("/api-keys", h.AdminUpsertAPIKey)
	admin.DELETE("/api-keys/:bot_type", h.AdminDeleteAPIKey)

	admin.GET("/export/sessions.csv", h.AdminExportCSV)
	admin.GET("/export/sessions.json", h.AdminExportJSON)

	return r
}
