package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/esaudezap/backend/internal/auth"
	"github.com/esaudezap/backend/internal/bot"
	"github.com/esaudezap/backend/internal/chat"
	"github.com/esaudezap/backend/internal/common"
	"github.com/esaudezap/backend/internal/config"
	"github.com/esaudezap/backend/internal/secrets"
)

type Handler struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Log     *zap.Logger
	Repo    *chat.Repo
	ChatSvc *chat.Service
	Box     *secrets.Box
	Google  *auth.GoogleOAuth
}

func NewHandler(db *gorm.DB, cfg *config.Config, log *zap.Logger, box *secrets.Box) *Handler {
	repo := chat.NewRepo(db)
	resolver := bot.NewResolver(
		chat.NewBotStore(repo, box),
		chat.NewBotStore(repo, box),
		bot.Endpoints{
			OpenAIBaseURL: cfg.Bot.OpenAIBaseURL,
			OpenAIModel:   cfg.Bot.OpenAIModel,
			GeminiBaseURL: cfg.Bot.GeminiBaseURL,
			GeminiModel:   cfg.Bot.GeminiModel,
		},
		log,
	)
	return &Handler{
		DB:      db,
		Cfg:     cfg,
		Log:     log,
		Repo:    repo,
		ChatSvc: chat.NewService(repo, resolver, log),
		Box:     box,
		Google:  auth.NewGoogleOAuth(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL),
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// failDomain maps domain errors onto the HTTP envelope.
func (h *Handler) failDomain(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		common.Fail(c, http.StatusNotFound, 40400, "chat session not found")
	case errors.Is(err, chat.ErrUnauthorized):
		common.Fail(c, http.StatusForbidden, 40301, "not authorized for this chat session")
	case errors.Is(err, bot.ErrUnknownBotType):
		common.Fail(c, http.StatusBadRequest, 10010, "unknown bot type")
	case errors.Is(err, bot.ErrMissingCredential):
		common.Fail(c, http.StatusServiceUnavailable, 50301, "no api key configured for bot type")
	case errors.Is(err, bot.ErrUpstream):
		common.Fail(c, http.StatusBadGateway, 50201, "assistant provider failed")
	case errors.Is(err, chat.ErrEvaluationExists):
		common.Fail(c, http.StatusConflict, 40901, "evaluation already submitted for this session")
	case errors.Is(err, chat.ErrEvaluationNotFound):
		common.Fail(c, http.StatusNotFound, 40402, "no evaluation found for this session")
	case errors.Is(err, chat.ErrPromptNotFound):
		common.Fail(c, http.StatusNotFound, 40403, "prompt not found")
	case errors.Is(err, chat.ErrLastDefaultPrompt):
		common.Fail(c, http.StatusConflict, 40902, "cannot delete the only default prompt for a bot type")
	case errors.Is(err, chat.ErrKeyNotFound):
		common.Fail(c, http.StatusNotFound, 40404, "no api key for bot type")
	case errors.Is(err, chat.ErrInvalidRating):
		common.Fail(c, http.StatusBadRequest, 10011, "rating must be between 1 and 5")
	default:
		h.Log.Error("unhandled error", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
