package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps challenges in a shared redis instance so multiple server
// processes see the same pending codes. Entries carry a TTL of twice the
// challenge validity window: the extra margin lets an expired (but not yet
// evicted) challenge surface as expired rather than missing.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Set(ctx context.Context, email string, challenge Challenge) error {
	key := challengeKey(email)
	if err := s.client.HSet(ctx, key,
		"code", challenge.Code,
		"created_at", challenge.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Err(); err != nil {
		return fmt.Errorf("store otp challenge: %w", err)
	}
	if err := s.client.Expire(ctx, key, 2*s.ttl).Err(); err != nil {
		return fmt.Errorf("expire otp challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (Challenge, error) {
	values, err := s.client.HGetAll(ctx, challengeKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, ErrNotFound
		}
		return Challenge{}, fmt.Errorf("load otp challenge: %w", err)
	}
	if len(values) == 0 {
		return Challenge{}, ErrNotFound
	}

	createdAt, err := time.Parse(time.RFC3339Nano, values["created_at"])
	if err != nil {
		return Challenge{}, fmt.Errorf("parse otp timestamp: %w", err)
	}
	return Challenge{Code: values["code"], CreatedAt: createdAt}, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, challengeKey(email)).Err(); err != nil {
		return fmt.Errorf("delete otp challenge: %w", err)
	}
	return nil
}

func challengeKey(email string) string {
	return "otp:" + normalizeEmail(email)
}
