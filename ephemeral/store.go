package ephemeral

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// ErrUnavailable wraps every failure that is not a plain cache miss.
var ErrUnavailable = errors.New("ephemeral store unavailable")

// Options tunes retry and scan behaviour.
type Options struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero disables retrying.
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// ScanCount is the COUNT hint passed to each SCAN page.
	ScanCount int64
}

// DefaultOptions returns three retries starting at 50ms, capped at 1s,
// scanning 100 keys per page.
func DefaultOptions() Options {
	return Options{
		MaxRetries:  3,
		BaseBackoff: 50 * time.Millisecond,
		MaxBackoff:  time.Second,
		ScanCount:   100,
	}
}

// RedisStore implements the engine's ephemeral store contract on Redis.
type RedisStore struct {
	redis redis.UniversalClient
	opts  Options
}

// NewRedisStore wraps client. Zero-valued option fields fall back to
// DefaultOptions, except MaxRetries where zero is meaningful.
func NewRedisStore(client redis.UniversalClient, opts Options) *RedisStore {
	def := DefaultOptions()
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = def.BaseBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = def.MaxBackoff
	}
	if opts.ScanCount <= 0 {
		opts.ScanCount = def.ScanCount
	}
	return &RedisStore{redis: client, opts: opts}
}

// Get returns the value at key. A missing key is ("", false, nil).
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.do(ctx, func(ctx context.Context) error {
		v, err := s.redis.Get(ctx, key).Result()
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// Set writes value at key. A non-positive ttl stores the key without
// expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	err := s.do(ctx, func(ctx context.Context) error {
		return s.redis.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := s.do(ctx, func(ctx context.Context) error {
		return s.redis.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := s.do(ctx, func(ctx context.Context) error {
		v, err := s.redis.Exists(ctx, key).Result()
		n = v
		return err
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// DeleteIfExists removes key and reports whether this call removed it.
//
// A retried DEL whose first reply was lost reports false even though the
// key is gone. Callers treat false as a replay, which fails closed.
func (s *RedisStore) DeleteIfExists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := s.do(ctx, func(ctx context.Context) error {
		v, err := s.redis.Del(ctx, key).Result()
		n = v
		return err
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}

// ScanKeys returns every key matching pattern, walking the keyspace with
// SCAN until the cursor wraps to zero.
func (s *RedisStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	err := s.scan(ctx, pattern, func(keys []string) error {
		out = append(out, keys...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByPattern deletes every key matching pattern one SCAN page at a
// time and returns how many keys were removed.
func (s *RedisStore) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	var deleted int
	err := s.scan(ctx, pattern, func(keys []string) error {
		var n int64
		err := s.do(ctx, func(ctx context.Context) error {
			v, err := s.redis.Del(ctx, keys...).Result()
			n = v
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		deleted += int(n)
		return nil
	})
	return deleted, err
}

// IncrementWithTTL increments the counter at key and starts its expiry on
// the first hit of a window.
func (s *RedisStore) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var count int64
	err := s.do(ctx, func(ctx context.Context) error {
		v, err := s.redis.Incr(ctx, key).Result()
		count = v
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 && ttl > 0 {
		err := s.do(ctx, func(ctx context.Context) error {
			return s.redis.Expire(ctx, key, ttl).Err()
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return count, nil
}

// Ping checks connectivity once, without retrying.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) scan(ctx context.Context, pattern string, page func([]string) error) error {
	var cursor uint64
	for {
		var (
			keys []string
			next uint64
		)
		err := s.do(ctx, func(ctx context.Context) error {
			var err error
			keys, next, err = s.redis.Scan(ctx, cursor, pattern, s.opts.ScanCount).Result()
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(keys) > 0 {
			if err := page(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// do runs fn, retrying transient failures under the configured backoff.
func (s *RedisStore) do(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(
		uint64(s.opts.MaxRetries),
		retry.WithCappedDuration(s.opts.MaxBackoff, retry.NewExponential(s.opts.BaseBackoff)),
	)
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// isTransient reports whether err is a connectivity failure worth retrying.
// Cache misses, server error replies and cancellations are final.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, redis.ErrClosed) {
		return false
	}
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
