package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/esaudezap/backend/internal/auth"
	"github.com/esaudezap/backend/internal/common"
	"github.com/esaudezap/backend/internal/models"
)

type signupReq struct {
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
}

func (h *Handler) tokenTTL() time.Duration {
	ttl := h.Cfg.Auth.TokenTTLMin
	if ttl <= 0 {
		ttl = 60
	}
	return time.Duration(ttl) * time.Minute
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "displayName, email and password required")
		return
	}

	var count int64
	if err := h.DB.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("email = ?", req.Email).Count(&count).Error; err != nil {
		h.failDomain(c, err)
		return
	}
	if count > 0 {
		common.Fail(c, http.StatusBadRequest, 10002, "user already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.failDomain(c, err)
		return
	}

	user := models.User{
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		h.failDomain(c, err)
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.Auth.JWTSecret, h.tokenTTL())
	if err != nil {
		h.failDomain(c, err)
		return
	}

	common.Created(c, gin.H{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"email":        user.Email,
		"token":        token,
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "email and password required")
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).
		Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPassword(user.PasswordHash, req.Password)) {
		common.Fail(c, http.StatusBadRequest, 10003, "invalid credentials")
		return
	}
	if err != nil {
		h.failDomain(c, err)
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.Auth.JWTSecret, h.tokenTTL())
	if err != nil {
		h.failDomain(c, err)
		return
	}

	common.OK(c, gin.H{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"email":        user.Email,
		"token":        token,
	})
}

// GoogleRedirect starts the OAuth consent flow.
func (h *Handler) GoogleRedirect(c *gin.Context) {
	if !h.Google.Enabled() {
		common.Fail(c, http.StatusNotImplemented, 50101, "google sign-in not configured")
		return
	}
	state := uuid.NewString()
	c.SetCookie("oauth_state", state, 600, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.Google.AuthURL(state))
}

// GoogleCallback finishes the flow: upsert the user by Google id and send
// the browser back to the front-end with a token.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if !h.Google.Enabled() {
		common.Fail(c, http.StatusNotImplemented, 50101, "google sign-in not configured")
		return
	}

	state, _ := c.Cookie("oauth_state")
	if state == "" || state != c.Query("state") {
		common.Fail(c, http.StatusBadRequest, 10005, "oauth state mismatch")
		return
	}
	code := c.Query("code")
	if code == "" {
		common.Fail(c, http.StatusBadRequest, 10006, "missing oauth code")
		return
	}

	profile, err := h.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		h.Log.Warn("google exchange failed", zap.Error(err))
		common.Fail(c, http.StatusBadGateway, 50202, "google sign-in failed")
		return
	}

	ctx := c.Request.Context()
	var user models.User
	err = h.DB.WithContext(ctx).Where("google_id = ?", profile.ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// link by email when the account already exists locally
		err = h.DB.WithContext(ctx).Where("email = ?", profile.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				DisplayName: profile.Name,
				Email:       profile.Email,
				Photo:       profile.Picture,
				Role:        models.RoleUser,
			}
			user.GoogleID = &profile.ID
			if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
				h.failDomain(c, err)
				return
			}
		} else if err == nil {
			user.GoogleID = &profile.ID
			if user.Photo == "" {
				user.Photo = profile.Picture
			}
			if err := h.DB.WithContext(ctx).Save(&user).Error; err != nil {
				h.failDomain(c, err)
				return
			}
		} else {
			h.failDomain(c, err)
			return
		}
	} else if err != nil {
		h.failDomain(c, err)
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.Auth.JWTSecret, h.tokenTTL())
	if err != nil {
		h.failDomain(c, err)
		return
	}

	redirect := fmt.Sprintf("%s/auth/google/callback?token=%s&id=%d&displayName=%s&email=%s",
		h.Cfg.Server.FrontendURL,
		url.QueryEscape(token),
		user.ID,
		url.QueryEscape(user.DisplayName),
		url.QueryEscape(user.Email),
	)
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}
