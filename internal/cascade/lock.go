package cascade

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/im7mortal/kmutex"
)

// Locker provides mutual exclusion keyed by cascade root. The returned
// function releases the lock and is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// LocalLocker serialises cascades on the same root within one process.
type LocalLocker struct {
	km *kmutex.Kmutex
}

// NewLocalLocker creates an in-process Locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{km: kmutex.New()}
}

// Lock blocks until key is free. kmutex cannot be interrupted, so a context
// that ends while waiting still acquires the lock and then reports the error.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.km.Lock(key)
	if err := ctx.Err(); err != nil {
		l.km.Unlock(key)
		return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	return func() { l.km.Unlock(key) }, nil
}

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker is a Locker shared by every process talking to the same redis.
// Keys expire after ttl so a crashed holder cannot wedge a root forever.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewRedisLocker creates a Locker backed by SET NX.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		prefix: "soundshare:cascade:",
		ttl:    ttl,
		poll:   50 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := l.prefix + key

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, ctx.Err())
		case <-ticker.C:
		}
	}

	return func() {
		// The caller's context may be gone by now; release regardless.
		l.client.Eval(context.Background(), releaseScript, []string{redisKey}, token)
	}, nil
}

// rootKey is the lock key of a cascade root.
func rootKey(n Node) string {
	return n.String()
}
