package windowlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix     = "venue-rota:lock:"
	retryInterval = 100 * time.Millisecond
)

// releaseScript deletes a key only while it still holds our token
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes a key's expiry forward only while it still holds our token
var extendScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisOptions configures the Redis-backed locker
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long a crashed holder can block others.
	// A live holder renews its keys every TTL/3, so runs may outlast it.
	TTL time.Duration
}

// RedisLocker locks keys across processes sharing one Redis instance
type RedisLocker struct {
	rdb    *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker connects to Redis and checks the connection with a ping
func NewRedisLocker(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisLocker, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Debug("Connected to redis", zap.String("addr", opts.Addr))

	return &RedisLocker{rdb: rdb, ttl: opts.TTL, logger: logger}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	token := uuid.New().String()
	var held []string

	release := func() {
		// Release with a fresh context so a cancelled caller still frees its keys
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(releaseCtx, l.rdb, []string{keyPrefix + held[i]}, token).Err(); err != nil {
				l.logger.Warn("Failed to release window lock", zap.String("key", held[i]), zap.Error(err))
			}
		}
	}

	for _, key := range sortedUnique(keys) {
		if err := l.acquire(ctx, key, token); err != nil {
			release()
			return nil, fmt.Errorf("failed to lock %s: %w", key, err)
		}
		held = append(held, key)
	}

	l.logger.Debug("Acquired window lock", zap.Strings("keys", held))

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.renew(held, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			release()
		})
	}, nil
}

// renew extends the lease on keys until stop is closed
func (l *RedisLocker) renew(keys []string, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(max(l.ttl/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), l.ttl)
		for _, key := range keys {
			extended, err := extendScript.Run(ctx, l.rdb, []string{keyPrefix + key}, token, l.ttl.Milliseconds()).Int()
			if err != nil {
				l.logger.Warn("Failed to renew window lock", zap.String("key", key), zap.Error(err))
				continue
			}
			if extended == 0 {
				l.logger.Error("Window lock lost before release", zap.String("key", key))
			}
		}
		cancel()
	}
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, keyPrefix+key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close closes the Redis connection
func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}
