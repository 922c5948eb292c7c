package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learnhub/apperrors"
	"learnhub/models"

	goredis "github.com/redis/go-redis/v9"
)

// RedisIntentRegistry keeps intents in Redis with the intent TTL as key expiry
type RedisIntentRegistry struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisIntentRegistry connects and pings; callers fall back to the gorm registry on error
func NewRedisIntentRegistry(ctx context.Context, addr string) (*RedisIntentRegistry, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisIntentRegistry{rdb: rdb, prefix: "payment_intent:"}, nil
}

func (r *RedisIntentRegistry) Save(ctx context.Context, intent models.PaymentIntent) error {
	ttl := time.Until(intent.ExpiresAt)
	if ttl <= 0 {
		return apperrors.Validation("gateway.SaveIntent", "intent already expired")
	}
	raw, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	// SETNX keeps the first record for a re-issued id
	return r.rdb.SetNX(ctx, r.prefix+intent.IntentID, raw, ttl).Err()
}

func (r *RedisIntentRegistry) Find(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+intentID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, apperrors.NotFound("gateway.FindIntent", "Payment intent not found or expired!")
	}
	if err != nil {
		return nil, apperrors.Upstream("gateway.FindIntent", "intent registry unavailable", err)
	}
	var intent models.PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, apperrors.Internal("gateway.FindIntent", err)
	}
	return &intent, nil
}

func (r *RedisIntentRegistry) Close() error {
	return r.rdb.Close()
}
