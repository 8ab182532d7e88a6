package middleware

import (
	"crypto/subtle"
	"errors"

	"terminal-terrace/video-lead/internal/dto"
	"terminal-terrace/video-lead/pkg/authsdk"
	"terminal-terrace/video-lead/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderAdminToken 运维脚本使用的管理员令牌请求头
const HeaderAdminToken = "X-Admin-Token"

// 上下文键
const (
	KeyUserID   = "user_id"
	KeyEmail    = "email"
	KeyName     = "name"
	KeyUserRole = "user_role"
)

func authError(err error) *response.BusinessError {
	msg := "无效的认证令牌"
	switch {
	case errors.Is(err, authsdk.ErrNoToken):
		msg = "未提供认证令牌"
	case errors.Is(err, authsdk.ErrExpiredToken):
		msg = "认证令牌已过期"
	}
	return response.NewBusinessError(
		response.WithErrorCode(response.Unauthorized),
		response.WithErrorMessage(msg),
		response.WithError(err),
	)
}

func setUser(c *gin.Context, user *authsdk.UserContext) {
	c.Set(KeyUserID, user.UserID)
	c.Set(KeyEmail, user.Email)
	c.Set(KeyName, user.Name)
	c.Set(KeyUserRole, user.Role)
}

// JWTAuth JWT 认证中间件（必需认证）
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authsdk.GetUserFromHeader(c.Request.Header, secret)
		if err != nil {
			dto.AbortWithError(c, authError(err))
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// RequireAdmin 管理员接口：JWT 角色为 admin，或携带配置的 X-Admin-Token
func RequireAdmin(secret, adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken != "" {
			given := c.GetHeader(HeaderAdminToken)
			if given != "" && subtle.ConstantTimeCompare([]byte(given), []byte(adminToken)) == 1 {
				c.Set(KeyUserRole, authsdk.RoleAdmin)
				c.Next()
				return
			}
		}

		user, err := authsdk.GetUserFromHeader(c.Request.Header, secret)
		if err != nil {
			dto.AbortWithError(c, authError(err))
			return
		}
		if !user.IsAdmin() {
			dto.AbortWithError(c, response.NewBusinessError(
				response.WithErrorCode(response.Forbidden),
				response.WithErrorMessage("需要管理员权限"),
			))
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// CurrentUserID 读取 JWTAuth 写入的用户 ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(KeyUserID)
	if !exists || v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentUser 读取 JWTAuth 写入的用户信息
func CurrentUser(c *gin.Context) (*authsdk.UserContext, bool) {
	id, ok := CurrentUserID(c)
	if !ok {
		return nil, false
	}
	return &authsdk.UserContext{
		UserID: id,
		Email:  c.GetString(KeyEmail),
		Name:   c.GetString(KeyName),
		Role:   c.GetString(KeyUserRole),
	}, true
}
