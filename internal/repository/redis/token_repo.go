package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenPrefix = "token:"

// TokenRepo tracks issued auth tokens so they can be revoked before their
// JWT expiry. A token absent from Redis is treated as revoked.
type TokenRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenRepo(client *redis.Client, ttl time.Duration) *TokenRepo {
	return &TokenRepo{client: client, ttl: ttl}
}

func (r *TokenRepo) SaveToken(ctx context.Context, token, userID string) error {
	return r.client.Set(ctx, tokenPrefix+token, userID, r.ttl).Err()
}

func (r *TokenRepo) TokenExists(ctx context.Context, token string) (bool, error) {
	_, err := r.client.Get(ctx, tokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *TokenRepo) DeleteToken(ctx context.Context, token string) error {
	return r.client.Del(ctx, tokenPrefix+token).Err()
}
