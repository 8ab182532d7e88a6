package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, conf.Server.Port)
	assert.Equal(t, 15*time.Second, conf.Server.ShutdownTimeout)
	assert.Equal(t, "md5", conf.Upload.DigestAlgorithm)
	assert.True(t, conf.Upload.AllowReopenCompleted)
	assert.Equal(t, 720*time.Hour, conf.JWT.TTL())
	assert.Equal(t, 2*time.Minute, conf.Upload.AssemblyLockTTL)
}

func TestConnectionParams(t *testing.T) {
	t.Setenv("DB_PASSWORD", "p@ss word")
	conf, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	pg := conf.Database.Postgres()
	assert.Equal(t, 100, pg.MaxOpenConns)
	assert.Equal(t, 10, pg.MaxIdleConns)
	assert.Equal(t, time.Hour, pg.ConnMaxLifetime)
	assert.Equal(t, 200*time.Millisecond, pg.SlowThreshold)
	assert.Equal(t, "p@ss word", pg.Password)

	rd := conf.Redis.Redis()
	assert.Equal(t, "localhost:6379", rd.Addr())
	assert.Equal(t, 10, rd.PoolSize)
	assert.Equal(t, 5, rd.MinIdleConns)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  host: db.internal
upload:
  digest_algorithm: xxhash64
  max_chunk_bytes: 1024
`)

	t.Setenv("DB_PASSWORD", "from-legacy")
	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("APP_SERVER__PORT", "9100")
	t.Setenv("APP_ADMIN__TOKEN", "admin-token")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, conf.Server.Port)
	assert.Equal(t, "db.internal", conf.Database.Host)
	assert.Equal(t, "from-legacy", conf.Database.Password)
	assert.Equal(t, "legacy-secret", conf.JWT.Secret)
	assert.Equal(t, "admin-token", conf.Admin.Token)
	assert.Equal(t, "xxhash64", conf.Upload.DigestAlgorithm)
	assert.Equal(t, 1024, conf.Upload.MaxChunkBytes)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "分片上限非法", body: "upload:\n  max_chunk_bytes: 0\n"},
		{name: "摘要算法不支持", body: "upload:\n  digest_algorithm: sha1\n"},
		{name: "端口非法", body: "server:\n  port: 70000\n"},
		{name: "令牌有效期非法", body: "jwt:\n  expire_time: -1\n"},
		{name: "空闲连接多于最大连接", body: "database:\n  max_open_conns: 5\n  max_idle_conns: 10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
