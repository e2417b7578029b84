package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "progress:light"
	defaultTTL = 7 * 24 * time.Hour
)

// advanceScript 仅当新值更大时写入，保证 slot 单调前进
var advanceScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local val = tonumber(ARGV[1])
if val > cur then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	return 1
end
return 0
`)

// RedisProgressStore 以单个 key 记录某条订阅流最近处理完成的 slot
type RedisProgressStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisProgressStore stream 用于区分多个索引器实例（通常取 gRPC endpoint）
func NewRedisProgressStore(rdb *redis.Client, stream string) *RedisProgressStore {
	return &RedisProgressStore{
		rdb: rdb,
		key: slotKey(stream),
		ttl: defaultTTL,
	}
}

func slotKey(stream string) string {
	if stream == "" {
		stream = "default"
	}
	return fmt.Sprintf("%s:%s:last_slot", keyPrefix, stream)
}

func (r *RedisProgressStore) LastSlot(ctx context.Context) (uint64, bool, error) {
	val, err := r.rdb.Get(ctx, r.key).Uint64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("redis get %s: %w", r.key, err)
	default:
		return val, true, nil
	}
}

func (r *RedisProgressStore) SaveSlot(ctx context.Context, slot uint64) error {
	err := advanceScript.Run(ctx, r.rdb, []string{r.key}, slot, r.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis save %s: %w", r.key, err)
	}
	return nil
}
