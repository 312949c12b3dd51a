// Package lock provides a Redis-backed mutual-exclusion lock so only one
// replica of a scheduled job runs a given tick.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/config"
)

// Connect opens a Redis client and verifies it with a PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Only the owner that set the key may delete it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLock is a single key claimed with SET NX and a TTL. The TTL bounds
// how long a crashed holder blocks the others.
type RedisLock struct {
	client redis.Cmdable
	key    string
	owner  string
	ttl    time.Duration
	log    *logrus.Logger
}

func NewRedisLock(client redis.Cmdable, key string, ttl time.Duration, logger *logrus.Logger) *RedisLock {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisLock{client: client, key: key, owner: uuid.NewString(), ttl: ttl, log: logger}
}

// Owner identifies this holder in the lock value.
func (l *RedisLock) Owner() string { return l.owner }

// Acquire claims the lock. It returns false without error when another owner
// holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim lock %s: %w", l.key, err)
	}
	if !ok {
		holder, err := l.client.Get(ctx, l.key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.log.WithError(err).Debug("[LOCK] Could not read current holder")
		}
		l.log.WithFields(logrus.Fields{"key": l.key, "holder": holder}).Info("[LOCK] Held by another instance")
	}
	return ok, nil
}

// Release deletes the key if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if n == 0 {
		l.log.WithField("key", l.key).Warn("[LOCK] Lock expired before release")
	}
	return nil
}
