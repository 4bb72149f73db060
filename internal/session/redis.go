package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mylankajourney/admin-console/internal/domain"
)

const keyPrefix = "mlj:session:"

// RedisStore keeps sessions in Redis as JSON with a TTL, so they survive
// console restarts and are shared across instances.
type RedisStore struct {
	rdb *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an already connected client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func key(token string) string { return keyPrefix + token }

func (r *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	raw, err := r.rdb.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, domain.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session.RedisStore.Get: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("session.RedisStore.Get: decode: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session.RedisStore.Save: encode: %w", err)
	}
	if err := r.rdb.Set(ctx, key(s.Token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("session.RedisStore.Save: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if err := r.rdb.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("session.RedisStore.Delete: %w", err)
	}
	return nil
}

// RedisOptions configures Connect.
type RedisOptions struct {
	Addr           string
	Password       string
	DB             int
	ConnectTimeout time.Duration // total time allowed for ping attempts
	RetryInterval  time.Duration // first wait between attempts, doubled up to MaxWait
	MaxWait        time.Duration
}

// Connect opens a Redis client and pings it until it answers or
// ConnectTimeout passes, backing off exponentially between attempts.
func Connect(ctx context.Context, opts RedisOptions, log *slog.Logger) (*redis.Client, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 10 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis", "addr", opts.Addr, "timeout", opts.ConnectTimeout)
	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		err := rdb.Ping(ctx).Err()
		if err == nil {
			log.Info("connected to redis", "addr", opts.Addr, "attempts", attempt)
			return rdb, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = rdb.Close()
			return nil, fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
			log.Warn("redis connection failed, retrying", "addr", opts.Addr, "attempt", attempt, "next_retry_in", wait, "error", err)
			wait *= 2
			if wait > opts.MaxWait {
				wait = opts.MaxWait
			}
		}
	}
}
