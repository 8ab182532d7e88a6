package route

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"terminal-terrace/video-lead/config"
	_ "terminal-terrace/video-lead/docs"
	"terminal-terrace/video-lead/internal/admin"
	"terminal-terrace/video-lead/internal/auth"
	"terminal-terrace/video-lead/internal/dto"
	"terminal-terrace/video-lead/internal/lead"
	"terminal-terrace/video-lead/internal/middleware"
	"terminal-terrace/video-lead/internal/upload"
	"terminal-terrace/video-lead/internal/user"
	"terminal-terrace/video-lead/pkg/authsdk"
	"terminal-terrace/video-lead/pkg/database"
)

// Deps 路由依赖，Redis 可为空
type Deps struct {
	Config *config.AppConfig
	DB     *gorm.DB
	Redis  redis.UniversalClient
	Log    zerolog.Logger
}

func initRoute(r *gin.Engine, deps Deps) error {
	cfg := deps.Config

	// Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", healthz(deps.DB))

	requireAuth := middleware.JWTAuth(cfg.JWT.Secret)
	requireAdmin := middleware.RequireAdmin(cfg.JWT.Secret, cfg.Admin.Token)

	// 初始化依赖
	userRepo := user.NewUserRepository(deps.DB)
	authService := auth.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL(), deps.Log)

	leadService := lead.NewLeadService(lead.NewLeadRepository(deps.DB), deps.Log)

	uploadService, err := newUploadService(deps)
	if err != nil {
		return err
	}

	adminService := admin.NewAdminService(admin.NewAdminRepository(deps.DB), deps.Log)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		auth.RegisterRoutes(apiV1, authService, requireAuth)
		upload.RegisterRoutes(apiV1, uploadService, requireAuth)
		lead.RegisterRoutes(apiV1, leadService, requireAuth, requireAdmin)
		admin.RegisterRoutes(apiV1, adminService, requireAdmin)
	}
	return nil
}

func newUploadService(deps Deps) (*upload.Service, error) {
	cfg := deps.Config.Upload

	verifier, err := upload.NewVerifier(cfg.DigestAlgorithm)
	if err != nil {
		return nil, err
	}

	var lock upload.AssemblyLock = upload.NoopLock{}
	if deps.Redis != nil {
		lock = upload.NewRedisLock(deps.Redis, cfg.AssemblyLockTTL)
	}

	repo := upload.NewUploadRepository(deps.DB, func(tx *gorm.DB) upload.LeadWriter {
		return lead.NewLeadRepository(tx)
	})
	assembler := upload.NewAssembler(repo, lock, deps.Log)

	return upload.NewService(repo, verifier, assembler, upload.Options{
		MaxChunkBytes:        cfg.MaxChunkBytes,
		AllowReopenCompleted: cfg.AllowReopenCompleted,
	}, deps.Log), nil
}

// healthz 数据库可用时返回 200
func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.PingPostgres(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func SetupRouter(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	dto.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(deps.Log))

	// 允许多个前端端口
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}

	// 设置跨域请求
	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			authsdk.HeaderAuthToken, middleware.HeaderAdminToken, middleware.HeaderRequestID,
		},
		ExposeHeaders: []string{middleware.HeaderRequestID},
	}))
	r.Use(middleware.BodyLimit(cfg.Upload.MaxRequestBytes))

	if err := initRoute(r, deps); err != nil {
		return nil, err
	}
	return r, nil
}
