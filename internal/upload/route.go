package upload

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册分片上传路由，auth 为登录校验中间件
func RegisterRoutes(r *gin.RouterGroup, service *Service, auth gin.HandlerFunc) {
	h := NewHandler(service)

	g := r.Group("/upload-chunked", auth)
	{
		g.POST("", h.Handle)
		g.GET("/:upload_id", h.Status)
	}
}
