package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the pair under <prefix>:access and <prefix>:refresh, and the
// profile under <prefix>:profile. The prefix is the isolation boundary: two clients
// with different prefixes never see each other's credentials.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a [RedisStore]. A ttl of zero keeps keys until Clear.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "gosession"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

func (s *RedisStore) Get(ctx context.Context, kind Kind) (string, bool) {
	var name string
	switch kind {
	case Access:
		name = "access"
	case Refresh:
		name = "refresh"
	default:
		return "", false
	}

	// Both keys are read together so a torn pair is never reported.
	vals, err := s.redis.MGet(ctx, s.key("access"), s.key("refresh")).Result()
	if err != nil || len(vals) != 2 {
		return "", false
	}
	access, _ := vals[0].(string)
	refresh, _ := vals[1].(string)
	if access == "" || refresh == "" {
		return "", false
	}
	if name == "access" {
		return access, true
	}
	return refresh, true
}

func (s *RedisStore) Set(ctx context.Context, access, refresh string) error {
	if err := validatePair(access, refresh); err != nil {
		return err
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.MSet(ctx, s.key("access"), access, s.key("refresh"), refresh)
		pipe.Del(ctx, s.key("profile"))
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key("access"), s.ttl)
			pipe.Expire(ctx, s.key("refresh"), s.ttl)
		} else {
			pipe.Persist(ctx, s.key("access"))
			pipe.Persist(ctx, s.key("refresh"))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key("access"), s.key("refresh"), s.key("profile")).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Profile(ctx context.Context) ([]byte, bool) {
	data, err := s.redis.Get(ctx, s.key("profile")).Bytes()
	if err != nil {
		return nil, false
	}
	return data, len(data) > 0
}

func (s *RedisStore) SetProfile(ctx context.Context, profile []byte) error {
	if err := s.redis.Set(ctx, s.key("profile"), profile, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
