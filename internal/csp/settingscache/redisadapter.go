package settingscache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// GoRedisAdapter wraps *redis.Client to satisfy RedisClient, translating
// go-redis's *Cmd return values into the plain (value, error) shape this
// package's interface expects. Grounded on the teacher's
// internal/infra.GoRedisAdapter, which does the same narrowing for its own
// RedisClient interface.
type GoRedisAdapter struct {
	rdb *redis.Client
}

// NewGoRedisAdapter wraps an already-constructed *redis.Client.
func NewGoRedisAdapter(rdb *redis.Client) *GoRedisAdapter {
	return &GoRedisAdapter{rdb: rdb}
}

func (a *GoRedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return a.rdb.Set(ctx, key, value, ttl).Err()
}

func (a *GoRedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := a.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (a *GoRedisAdapter) Del(ctx context.Context, keys ...string) error {
	return a.rdb.Del(ctx, keys...).Err()
}
