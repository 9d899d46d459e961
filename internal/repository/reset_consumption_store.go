package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const consumedKeyPrefix = "reset:consumed:"

// ResetConsumptionStore marks reset tokens consumed. The token format has
// no built-in revocation, so without this marker a used token would stay
// cryptographically valid and replayable until natural expiry.
type ResetConsumptionStore interface {
	// Consume records the token id as used. Returns false when the id was
	// already consumed; only the first caller wins.
	Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

type resetConsumptionStore struct {
	client *redis.Client
}

// NewResetConsumptionStore returns a Redis-backed implementation. The
// marker lives exactly as long as the token could, then expires with it.
func NewResetConsumptionStore(client *redis.Client) ResetConsumptionStore {
	return &resetConsumptionStore{client: client}
}

func (s *resetConsumptionStore) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.SetNX(ctx, consumedKeyPrefix+tokenID, "1", ttl).Result()
}
