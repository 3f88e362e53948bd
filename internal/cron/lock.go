package cron

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

const defaultLockTTL = 25 * time.Hour

// redisStore is the subset of the redis client used for locking.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock guards the cron cycle so only one worker runs it at a time.
type RedisLock struct {
	store redisStore
	key   string
	ttl   time.Duration
	owner string
	logg  *logger.Logger
}

// NewRedisLock builds a distributed lock around the given redis key.
func NewRedisLock(store redisStore, key string, ttl time.Duration, logg *logger.Logger) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis store is required")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{
		store: store,
		key:   key,
		ttl:   ttl,
		owner: uuid.NewString(),
		logg:  logg,
	}, nil
}

// Acquire attempts to take the lock. It returns false when another worker
// holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.store.SetNX(ctx, l.key, l.owner, l.ttl)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release frees the lock only when this worker still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	current, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return err
	}
	if current != l.owner {
		if l.logg != nil {
			l.logg.Warn(ctx, "cron lock owned by another worker, skipping release")
		}
		return nil
	}
	return l.store.Del(ctx, l.key)
}
