package middleware

import (
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/service"
	"learn_with_me_client/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionMiddleware 要求本地已登录，userId 写入上下文
func SessionMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUserID()
		if err != nil {
			util.Error(c, http.StatusUnauthorized, util.MsgLoginRequired)
			c.Abort()
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}

// RoleMiddleware 管理员拥有所有教师权限
func RoleMiddleware(auth *service.AuthService, roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser()
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := user.Role == model.Admin
		for _, role := range roles {
			if user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
