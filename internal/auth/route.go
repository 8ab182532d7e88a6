package auth

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, service *AuthService, auth gin.HandlerFunc) {
	h := &AuthHandler{service: service}

	g := r.Group("/auth")
	{
		g.POST("/register", h.Register)
		g.POST("/login", h.Login)
		g.GET("/me", auth, h.Me)
	}
}
