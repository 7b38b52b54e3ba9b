package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	unreadKeyPrefix  = "notifications:unread:"
	versionKeyPrefix = "notifications:unread:version:"
	unreadTTL        = 24 * time.Hour
	versionTTL       = 2 * unreadTTL
)

// storeIfVersion writes the count only while the version key still holds the
// value the caller read before counting. KEYS: count, version. ARGV: version,
// count, ttl seconds.
var storeIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'EX', ARGV[3])
return 1
`)

// UnreadCounter caches each user's unread notification count.
//
// A miss means the caller must rebuild the value from the database: read
// Version first, count, then StoreIfVersion. Every Invalidate bumps the
// version, so a count taken before a concurrent change is never stored.
type UnreadCounter interface {
	Get(ctx context.Context, userID string) (count int64, found bool, err error)
	Version(ctx context.Context, userID string) (string, error)
	StoreIfVersion(ctx context.Context, userID string, count int64, version string) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

type unreadCounter struct {
	redis *redis.Client
}

func NewUnreadCounter(redisClient *redis.Client) UnreadCounter {
	return &unreadCounter{redis: redisClient}
}

func unreadKey(userID string) string {
	return unreadKeyPrefix + userID
}

func versionKey(userID string) string {
	return versionKeyPrefix + userID
}

func (c *unreadCounter) Get(ctx context.Context, userID string) (int64, bool, error) {
	result, err := c.redis.Get(ctx, unreadKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	count, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		// corrupt entry, treat as a miss
		return 0, false, nil
	}
	return count, true, nil
}

func (c *unreadCounter) Version(ctx context.Context, userID string) (string, error) {
	version, err := c.redis.Get(ctx, versionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return version, err
}

func (c *unreadCounter) StoreIfVersion(ctx context.Context, userID string, count int64, version string) (bool, error) {
	stored, err := storeIfVersion.Run(ctx, c.redis,
		[]string{unreadKey(userID), versionKey(userID)},
		version, strconv.FormatInt(count, 10), strconv.Itoa(int(unreadTTL.Seconds())),
	).Int64()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate bumps the version before dropping the cached count.
func (c *unreadCounter) Invalidate(ctx context.Context, userID string) error {
	if err := c.redis.Incr(ctx, versionKey(userID)).Err(); err != nil {
		return err
	}
	if err := c.redis.Expire(ctx, versionKey(userID), versionTTL).Err(); err != nil {
		return err
	}
	return c.redis.Del(ctx, unreadKey(userID)).Err()
}
