package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/esaudezap/backend/internal/common"
	"github.com/esaudezap/backend/internal/httpapi/middleware"
	"github.com/esaudezap/backend/internal/models"
)

func (h *Handler) Me(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "user not found")
			return
		}
		h.failDomain(c, err)
		return
	}

	common.OK(c, gin.H{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"email":        user.Email,
		"photo":        user.Photo,
		"role":         user.Role,
		"created_at":   user.CreatedAt,
	})
}

type upgradeUserReq struct {
	Email string `json:"email" binding:"required,email"`
}

// UpgradeUser promotes an account to the admin role.
func (h *Handler) UpgradeUser(c *gin.Context) {
	var req upgradeUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "email required")
		return
	}

	res := h.DB.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("email = ?", req.Email).
		Update("role", models.RoleAdmin)
	if res.Error != nil {
		h.failDomain(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		common.Fail(c, http.StatusNotFound, 40401, "user not found")
		return
	}

	common.OK(c, gin.H{"email": req.Email, "role": models.RoleAdmin})
}
