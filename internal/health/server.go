// Package health 暴露 gRPC 标准健康检查，供负载均衡与编排系统探测
package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	"terminal-terrace/video-lead/pkg/database"
)

const checkTimeout = 500 * time.Millisecond

// ReadinessCheck 依赖是否可用
type ReadinessCheck interface {
	IsReady(ctx context.Context) error
}

// CheckFunc 函数适配为 ReadinessCheck
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) IsReady(ctx context.Context) error { return f(ctx) }

// PostgresCheck 数据库连通性
func PostgresCheck(db *gorm.DB) ReadinessCheck {
	return CheckFunc(func(ctx context.Context) error {
		return database.PingPostgres(ctx, db)
	})
}

// RedisCheck Redis 连通性
func RedisCheck(client redis.UniversalClient) ReadinessCheck {
	return CheckFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

// Server gRPC 健康检查服务
type Server struct {
	grpc     *grpc.Server
	health   *grpchealth.Server
	checks   []ReadinessCheck
	interval time.Duration
	log      zerolog.Logger
}

func NewServer(interval time.Duration, log zerolog.Logger, checks ...ReadinessCheck) *Server {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s := &Server{
		grpc:     grpc.NewServer(),
		health:   grpchealth.NewServer(),
		checks:   checks,
		interval: interval,
		log:      log,
	}

	// 启动时先报告不可用，首轮检查通过后再切换
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// Check 执行一轮检查并更新状态
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for _, c := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.IsReady(cctx)
		cancel()

		if err != nil {
			s.log.Warn().Err(err).Msg("就绪检查失败")
			status = healthpb.HealthCheckResponse_NOT_SERVING
			break
		}
	}
	s.health.SetServingStatus("", status)
	return status
}

// Serve 在 port 上提供服务，直到 ctx 结束或监听失败
func (s *Server) Serve(ctx context.Context, port int) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("监听 gRPC 端口失败: %w", err)
	}

	go s.watch(ctx)

	s.log.Info().Int("port", port).Msg("gRPC 健康检查已启动")
	return s.grpc.Serve(l)
}

func (s *Server) watch(ctx context.Context) {
	s.Check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Shutdown 优雅停止，ctx 到期后强制关闭
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}
