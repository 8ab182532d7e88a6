package upload

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AssemblyLock 合并前的分布式短锁，只用于挡掉重复合并，正确性由数据库保证
type AssemblyLock interface {
	// TryLock 获取锁；acquired 为 false 表示已有其他请求在合并
	TryLock(ctx context.Context, uploadID string) (unlock func(), acquired bool, err error)
}

// NoopLock 未启用 Redis 时使用
type NoopLock struct{}

func (NoopLock) TryLock(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}

// 仅删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock 基于 SET NX PX 的合并锁
type RedisLock struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLock(client redis.UniversalClient, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLock{client: client, ttl: ttl}
}

func lockKey(uploadID string) string {
	return "upload:assemble:" + uploadID
}

func (l *RedisLock) TryLock(ctx context.Context, uploadID string) (func(), bool, error) {
	key := lockKey(uploadID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// 请求可能已取消，释放使用独立的短超时
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		releaseScript.Run(releaseCtx, l.client, []string{key}, token)
	}
	return unlock, true, nil
}
