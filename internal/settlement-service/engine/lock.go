package engine

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

// Locker serializa a apuração por jogo. O store não tem lock nativo, então a
// garantia vem de um lease no Redis.
type Locker interface {
	Acquire(ctx context.Context, gameID string) (release func(), err error)
}

// RedisLocker implementa o lease com SETNX + TTL. O TTL cobre o caso do
// processo morrer segurando o lock.
type RedisLocker struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisLocker(c *redis.Client) *RedisLocker {
	return &RedisLocker{Client: c, TTL: 30 * time.Second}
}

func lockKey(gameID string) string { return "settle:lock:" + gameID }

func (l *RedisLocker) Acquire(ctx context.Context, gameID string) (func(), error) {
	ok, err := l.Client.SetNX(ctx, lockKey(gameID), "1", l.TTL).Result()
	if err != nil {
		return nil, apperr.Upstreamf("lock_error", err, "acquire settle lock")
	}
	if !ok {
		return nil, apperr.Statef("settlement_in_progress",
			"settlement already running for game %s", gameID)
	}
	return func() {
		_ = l.Client.Del(context.Background(), lockKey(gameID)).Err()
	}, nil
}
