package middleware

import (
	"ielts_exam_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

// IdentityMiddleware 身份由网关认证后通过请求头传入，这里只做存在性检查
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(util.HeaderUserID))
		if userID == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		role := util.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(util.HeaderUserRole))))
		if role == "" {
			role = util.RoleStudent
		}

		c.Set("user", &util.Identity{UserID: userID, Role: role})
		c.Next()
	}
}

func RoleMiddleware(roles ...util.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// 管理员拥有所有教师权限
			if user.Role == util.RoleAdmin || user.Role == role {
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
