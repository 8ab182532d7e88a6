package admin

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes admin 为管理员校验中间件
func RegisterRoutes(r *gin.RouterGroup, service *AdminService, admin gin.HandlerFunc) {
	h := &AdminHandler{service: service}

	g := r.Group("/admin", admin)
	{
		g.GET("/users", h.ListUsers)
		g.DELETE("/users/:id", h.DeleteUser)
	}
}
