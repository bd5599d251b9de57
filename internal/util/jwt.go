package util

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDFromToken 读取 access token 中的 userId（不校验签名，签名由后端负责）
func UserIDFromToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrNotAuthenticated
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}

	for _, key := range []string{"userId", "user_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			return fmt.Sprintf("%.0f", v), nil
		}
	}
	return "", ErrInvalidToken
}

// GetUserIDFromContext 由 SessionMiddleware 写入
func GetUserIDFromContext(c *gin.Context) string {
	v, exists := c.Get("userId")
	if !exists {
		return ""
	}
	id, _ := v.(string)
	return id
}
