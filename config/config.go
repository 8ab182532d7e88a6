// config/config.go - 配置管理文件
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"terminal-terrace/video-lead/pkg/database"
)

// AppConfig 应用配置结构
type AppConfig struct {
	Server      ServerConfig   `koanf:"server"`
	GRPC        GRPCConfig     `koanf:"grpc"`
	Database    DatabaseConfig `koanf:"database"`
	Redis       RedisConfig    `koanf:"redis"`
	Log         LogConfig      `koanf:"log"`
	JWT         JWTConfig      `koanf:"jwt"`
	Upload      UploadConfig   `koanf:"upload"`
	Admin       AdminConfig    `koanf:"admin"`
	FrontendURL string         `koanf:"frontend_url"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Mode            string        `koanf:"mode"` // debug, release
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type GRPCConfig struct {
	Port          int           `koanf:"port"` // 0 表示不启动
	CheckInterval time.Duration `koanf:"check_interval"`
}

type DatabaseConfig struct {
	Driver       string `koanf:"driver"`
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
	Database     string `koanf:"database"`
	SSLMode      bool   `koanf:"sslmode"`
	LogLevel     string `koanf:"log_level"` // 数据库日志级别
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	MaxLifetime  int    `koanf:"max_lifetime"` // 秒
	AutoMigrate  bool   `koanf:"auto_migrate"`

	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

// Postgres 转换为连接参数
func (d DatabaseConfig) Postgres() database.Postgres {
	return database.Postgres{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.Username,
		Password:        d.Password,
		Name:            d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: time.Duration(d.MaxLifetime) * time.Second,
		LogLevel:        d.LogLevel,
		SlowThreshold:   d.SlowThreshold,
	}
}

type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	PoolSize int    `koanf:"pool_size"`

	MinIdleConns int `koanf:"min_idle_conns"`
}

// Redis 转换为连接参数
func (r RedisConfig) Redis() database.Redis {
	return database.Redis{
		Host:         r.Host,
		Port:         r.Port,
		Password:     r.Password,
		DB:           r.DB,
		PoolSize:     r.PoolSize,
		MinIdleConns: r.MinIdleConns,
	}
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
	Output string `koanf:"output"` // stdout, file
	Path   string `koanf:"path"`   // 日志文件路径
}

type JWTConfig struct {
	Secret     string `koanf:"secret"`
	ExpireTime int    `koanf:"expire_time"` // 小时
}

// TTL 令牌有效期
func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpireTime) * time.Hour
}

type UploadConfig struct {
	MaxRequestBytes      int64         `koanf:"max_request_bytes"`
	MaxChunkBytes        int           `koanf:"max_chunk_bytes"` // 解码后的分片大小
	DigestAlgorithm      string        `koanf:"digest_algorithm"` // md5, xxhash64
	AllowReopenCompleted bool          `koanf:"allow_reopen_completed"`
	AssemblyLockTTL      time.Duration `koanf:"assembly_lock_ttl"`
}

type AdminConfig struct {
	Token string `koanf:"token"` // X-Admin-Token，为空则只认 JWT 角色
}

// 历史部署使用的环境变量名
var legacyEnv = map[string]string{
	"DB_HOST":        "database.host",
	"DB_PORT":        "database.port",
	"DB_USER":        "database.username",
	"DB_PASSWORD":    "database.password",
	"DB_NAME":        "database.database",
	"REDIS_HOST":     "redis.host",
	"REDIS_PORT":     "redis.port",
	"REDIS_PASSWORD": "redis.password",
	"JWT_SECRET":     "jwt.secret",
	"LOG_LEVEL":      "log.level",
	"FRONTEND_URL":   "frontend_url",
	"ADMIN_TOKEN":    "admin.token",
}

func defaults() map[string]any {
	return map[string]any{
		"server.host":                   "0.0.0.0",
		"server.port":                   8080,
		"server.mode":                   "release",
		"server.read_timeout":           "60s",
		"server.write_timeout":          "60s",
		"server.shutdown_timeout":       "15s",
		"grpc.port":                     0,
		"grpc.check_interval":           "5s",
		"database.driver":               "postgres",
		"database.host":                 "localhost",
		"database.port":                 5432,
		"database.log_level":            "warn",
		"database.auto_migrate":         true,
		"database.max_open_conns":       100,
		"database.max_idle_conns":       10,
		"database.max_lifetime":         3600,
		"database.slow_threshold":       "200ms",
		"redis.host":                    "localhost",
		"redis.port":                    6379,
		"redis.pool_size":               10,
		"redis.min_idle_conns":          5,
		"log.level":                     "info",
		"log.format":                    "json",
		"log.output":                    "stdout",
		"jwt.expire_time":               720,
		"upload.max_request_bytes":      50 << 20,
		"upload.max_chunk_bytes":        10 << 20,
		"upload.digest_algorithm":       "md5",
		"upload.allow_reopen_completed": true,
		"upload.assembly_lock_ttl":      "2m",
		"frontend_url":                  "http://localhost:5173",
	}
}

// Load 加载配置：默认值 < 配置文件 < 旧环境变量 < APP_ 前缀环境变量
// configPath 为空或文件不存在时只使用默认值和环境变量
func Load(configPath string) (*AppConfig, error) {
	// 首先加载 .env 文件到环境变量
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("警告: 无法加载 .env 文件: %v", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("加载默认配置失败: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("加载配置文件失败: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	legacy := map[string]any{}
	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			legacy[key] = v
		}
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}

	// APP_UPLOAD__MAX_CHUNK_BYTES -> upload.max_chunk_bytes
	if err := k.Load(env.Provider("APP_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "APP_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}

	conf := &AppConfig{}
	if err := k.Unmarshal("", conf); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := validateConfig(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// MustLoad 加载配置，失败则退出
func MustLoad(configPath string) *AppConfig {
	conf, err := Load(configPath)
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	return conf
}

func validateConfig(c *AppConfig) error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 非法: %d", c.Server.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("grpc.port 非法: %d", c.GRPC.Port)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns 不能大于 max_open_conns")
	}
	if c.Upload.MaxChunkBytes <= 0 {
		return fmt.Errorf("upload.max_chunk_bytes 必须为正数")
	}
	if c.Upload.MaxRequestBytes <= 0 {
		return fmt.Errorf("upload.max_request_bytes 必须为正数")
	}
	switch strings.ToLower(c.Upload.DigestAlgorithm) {
	case "md5", "xxhash64":
	default:
		return fmt.Errorf("upload.digest_algorithm 不支持: %s", c.Upload.DigestAlgorithm)
	}
	if c.JWT.ExpireTime <= 0 {
		return fmt.Errorf("jwt.expire_time 必须为正数")
	}
	if c.JWT.Secret == "" {
		log.Printf("警告: jwt.secret 为空，所有令牌校验都会失败")
	}
	return nil
}
