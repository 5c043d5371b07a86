package voice

import (
	"context"
	"time"

	"cxtrack-voice/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "voice:delivered:"

// RedisDedup implements DedupGuard on Redis. One key per provider call id,
// bounded by TTL; this is an opt-in guard, the default deployment runs
// without it and accepts duplicate rows on redelivery.
type RedisDedup struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDedup(rdb *redis.Client, ttl time.Duration) *RedisDedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDedup{rdb: rdb, ttl: ttl}
}

func (d *RedisDedup) FirstDelivery(ctx context.Context, providerCallID string) (bool, error) {
	return utils.MarkFirstDelivery(ctx, d.rdb, dedupKeyPrefix+providerCallID, d.ttl)
}
