// @title Video Lead API
// @version 1.0
// @description 视频线索收集服务
// @BasePath /api/v1
// @securityDefinitions.apikey AuthToken
// @in header
// @name X-Auth-Token
// @securityDefinitions.apikey AdminToken
// @in header
// @name X-Admin-Token
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"terminal-terrace/video-lead/config"
	"terminal-terrace/video-lead/internal/health"
	"terminal-terrace/video-lead/internal/model"
	"terminal-terrace/video-lead/internal/route"
	"terminal-terrace/video-lead/pkg/database"
	"terminal-terrace/video-lead/pkg/logging"
)

const serviceName = "video-lead"

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	cfg := config.MustLoad(*configPath)

	// 2. 初始化日志
	log, closer, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Path:   cfg.Log.Path,
	})
	if err != nil {
		panic(err)
	}
	defer closer.Close()
	log = log.With().Str("service", serviceName).Logger()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("服务异常退出")
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 初始化数据库
	db, err := database.OpenPostgres(ctx, cfg.Database.Postgres(), log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.Database.AutoMigrate {
		if err := model.InitTable(ctx, db); err != nil {
			return err
		}
		log.Info().Msg("数据库迁移完成")
	}

	// 4. 初始化 Redis（可选）
	var rdb redis.UniversalClient
	checks := []health.ReadinessCheck{health.PostgresCheck(db)}
	if cfg.Redis.Enabled {
		client, err := database.OpenRedis(ctx, cfg.Redis.Redis(), log)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
		checks = append(checks, health.RedisCheck(rdb))
	}

	// 5. 设置路由
	r, err := route.SetupRouter(route.Deps{Config: cfg, DB: db, Redis: rdb, Log: log})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 2)

	// 6. 启动服务
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP 服务已启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var grpcSrv *health.Server
	if cfg.GRPC.Port > 0 {
		grpcSrv = health.NewServer(cfg.GRPC.CheckInterval, log, checks...)
		go func() {
			if err := grpcSrv.Serve(ctx, cfg.GRPC.Port); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("收到退出信号，开始优雅关闭")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP 服务关闭超时")
	}

	log.Info().Msg("服务已关闭")
	return runErr
}
