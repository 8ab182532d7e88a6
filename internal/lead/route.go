package lead

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes auth 为登录校验，admin 为管理员校验
func RegisterRoutes(r *gin.RouterGroup, service *LeadService, auth, admin gin.HandlerFunc) {
	h := NewLeadHandler(service)

	g := r.Group("/leads")
	{
		g.POST("", auth, h.Create)
		g.GET("", auth, h.List)
		g.GET("/:id/video", auth, h.Video)
		g.DELETE("/:id", admin, h.Delete)
	}

	r.GET("/admin/leads/:id/video", admin, h.AdminVideo)
}
