package util

import (
	"github.com/gin-gonic/gin"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Identity 由上游网关完成认证后传入，本服务只信任不校验
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

func GetUserFromContext(c *gin.Context) *Identity {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	id, ok := user.(*Identity)
	if !ok {
		return nil
	}
	return id
}
