package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger 把 gorm 的 SQL 日志转到 zerolog；请求上下文里有 logger 时带上 request_id
type gormLogger struct {
	log   zerolog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewGormLogger level 取 silent, error, warn, info，未知值按 warn 处理
func NewGormLogger(log zerolog.Logger, level string, slow time.Duration) logger.Interface {
	return &gormLogger{log: log.With().Str("component", "gorm").Logger(), level: ParseGormLevel(level), slow: slow}
}

func ParseGormLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) from(ctx context.Context) *zerolog.Logger {
	if ctxLog := zerolog.Ctx(ctx); ctxLog.GetLevel() != zerolog.Disabled {
		return ctxLog
	}
	return &l.log
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.from(ctx).Info().Msgf(msg, data...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.from(ctx).Warn().Msgf(msg, data...)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.from(ctx).Error().Msgf(msg, data...)
	}
}

// Trace 失败的 SQL 记 error（记录不存在除外），慢 SQL 记 warn，info 级别记录全部 SQL
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var ev *zerolog.Event
	msg := "sql"
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		ev = l.from(ctx).Error().Err(err)
		msg = "sql failed"
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		ev = l.from(ctx).Warn().Dur("threshold", l.slow)
		msg = "slow sql"
	case l.level >= logger.Info:
		ev = l.from(ctx).Debug()
	default:
		return
	}

	sql, rows := fc()
	ev.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg(msg)
}
