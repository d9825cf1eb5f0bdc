package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/esaudezap/backend/internal/auth"
	"github.com/esaudezap/backend/internal/common"
	"github.com/esaudezap/backend/internal/models"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "auth.user_id"

// AuthRequired validates the bearer token and stores the user id in the
// request context.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, 40100, "missing bearer token")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		uid, err := auth.ParseJWT(token, jwtSecret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40101, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, uid)
		c.Next()
	}
}

// UserID extracts the authenticated user id set by AuthRequired.
func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

// AdminRequired loads the authenticated user and rejects non-admins. It
// must run after AuthRequired.
func AdminRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := UserID(c)
		if !ok {
			common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
			c.Abort()
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, uid).Error; err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "unknown user")
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			common.Fail(c, http.StatusForbidden, 40300, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}
