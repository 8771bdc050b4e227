package draws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisUnionCache guarda a união de dezenas sorteadas por jogo, invalidada a
// cada sorteio novo. Cache é atalho: erro de Redis nunca derruba a operação.
type RedisUnionCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisUnionCache(c *redis.Client, ttl time.Duration) *RedisUnionCache {
	return &RedisUnionCache{Client: c, TTL: ttl}
}

func unionKey(gameID string) string { return "draws:union:" + gameID }

func (r *RedisUnionCache) GetUnion(ctx context.Context, gameID string) ([]string, bool) {
	b, err := r.Client.Get(ctx, unionKey(gameID)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (r *RedisUnionCache) SetUnion(ctx context.Context, gameID string, union []string) {
	b, err := json.Marshal(union)
	if err != nil {
		return
	}
	_ = r.Client.Set(ctx, unionKey(gameID), b, r.TTL).Err()
}

func (r *RedisUnionCache) Invalidate(ctx context.Context, gameID string) {
	_ = r.Client.Del(ctx, unionKey(gameID)).Err()
}
