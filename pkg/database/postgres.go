package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Postgres 连接参数，默认值由 config 统一给出
type Postgres struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string        // silent, error, warn, info
	SlowThreshold   time.Duration // 超过该耗时的 SQL 记为 warn，0 表示不记录
}

// DSN URL 形式的连接串，用户名与密码会被转义
func (p Postgres) DSN() string {
	sslmode := "disable"
	if p.SSLMode {
		sslmode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Name,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}

// OpenPostgres 打开连接池并确认数据库可达，SQL 日志写入 log
func OpenPostgres(ctx context.Context, p Postgres, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(p.DSN()), &gorm.Config{
		Logger: NewGormLogger(log, p.LogLevel, p.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}
	if p.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(p.ConnMaxLifetime)
	}

	if err := PingPostgres(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("数据库不可达: %w", err)
	}

	log.Info().
		Str("addr", net.JoinHostPort(p.Host, strconv.Itoa(p.Port))).
		Str("database", p.Name).
		Int("max_open_conns", p.MaxOpenConns).
		Msg("数据库连接成功")
	return db, nil
}

// PingPostgres 检查数据库是否可用
func PingPostgres(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
