package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/menu"
	"github.com/redis/go-redis/v9"
)

// putIfNewer stores the snapshot only when its generation is not older than
// the generation recorded for the snapshot already stored.
var putIfNewer = redis.NewScript(`
local written = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[1]) < written then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('SET', KEYS[2], ARGV[1])
return 1
`)

// Connect opens a Redis client and checks it answers.
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisSnapshotStore keeps menu snapshots in Redis without expiry.
type RedisSnapshotStore struct {
	Client *redis.Client
}

func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{Client: client}
}

func SnapshotKey(restaurantID uint) string {
	return "menuData:" + strconv.FormatUint(uint64(restaurantID), 10)
}

func generationKey(restaurantID uint) string {
	return SnapshotKey(restaurantID) + ":gen"
}

func writtenKey(restaurantID uint) string {
	return SnapshotKey(restaurantID) + ":written"
}

func (s *RedisSnapshotStore) NextGeneration(ctx context.Context, restaurantID uint) (int64, error) {
	return s.Client.Incr(ctx, generationKey(restaurantID)).Result()
}

func (s *RedisSnapshotStore) Put(ctx context.Context, restaurantID uint, generation int64, snap *menu.Snapshot) (bool, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}

	keys := []string{SnapshotKey(restaurantID), writtenKey(restaurantID)}
	res, err := putIfNewer.Run(ctx, s.Client, keys, generation, payload).Int()
	if err != nil {
		return false, fmt.Errorf("store snapshot: %w", err)
	}
	return res == 1, nil
}

func (s *RedisSnapshotStore) Get(ctx context.Context, restaurantID uint) (*menu.Snapshot, error) {
	payload, err := s.Client.Get(ctx, SnapshotKey(restaurantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, menu.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap menu.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
