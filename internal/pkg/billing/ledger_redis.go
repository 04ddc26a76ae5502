package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const ledgerKeyPrefix = "billing:event:"

// RedisLedger shares the seen set across instances. SET NX with a TTL gives
// the atomic test-and-insert plus the retention window in one call.
type RedisLedger struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisLedger creates a ledger over an existing Redis client.
// Non-positive retention falls back to DefaultRetention.
func NewRedisLedger(client *redis.Client, retention time.Duration) *RedisLedger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisLedger{client: client, retention: retention}
}

func (l *RedisLedger) MarkSeen(ctx context.Context, eventID string) (bool, error) {
	first, err := l.client.SetNX(ctx, ledgerKeyPrefix+eventID, 1, l.retention).Result()
	if err != nil {
		return false, fmt.Errorf("ledger setnx: %w", err)
	}
	return first, nil
}
