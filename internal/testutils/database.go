package testutils

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"terminal-terrace/video-lead/internal/model"
	dbPkg "terminal-terrace/video-lead/pkg/database"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// OpenTestDB connects to the test database and runs migrations once per process.
// Tests are skipped when PostgreSQL is unreachable.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		host := getEnvOrDefault("POSTGRES_HOST", "localhost")
		port := getEnvOrDefault("POSTGRES_PORT", "5433")
		user := getEnvOrDefault("POSTGRES_USER", "test")
		password := getEnvOrDefault("POSTGRES_PASSWORD", "test")
		dbname := getEnvOrDefault("POSTGRES_DB", "video_leads_test")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Suppress logs in tests
	})
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := dbPkg.PingPostgres(ctx, db); err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}

	migrateOnce.Do(func() {
		migrateErr = model.InitTable(context.Background(), db)
	})
	if migrateErr != nil {
		t.Fatalf("Failed to migrate test database: %v", migrateErr)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SetupTestDB returns a transaction that is rolled back when the test ends
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := OpenTestDB(t)
	tx := db.Begin()
	t.Cleanup(func() {
		tx.Rollback()
	})
	return tx
}

// SetupTestRedis creates a test Redis connection
// Returns nil if Redis is not available (tests can skip Redis-dependent features)
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisPort, err := strconv.Atoi(getEnvOrDefault("REDIS_PORT", "6380"))
	if err != nil || redisPort == 0 {
		redisPort = 6380
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := dbPkg.OpenRedis(ctx, dbPkg.Redis{
		Host: getEnvOrDefault("REDIS_HOST", "localhost"),
		Port: redisPort,
		DB:   15,
	}, zerolog.Nop())
	if err != nil {
		return nil
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
