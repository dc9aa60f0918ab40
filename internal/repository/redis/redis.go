package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	availableKeyPrefix = "available:"
	idempotencyTTL     = 24 * time.Hour
)

// Adapter mirrors available-unit counters into Redis and provides
// idempotency keys for mutating boundary requests. The database stays
// authoritative; everything here is advisory.
type Adapter struct {
	client *redis.Client
}

func NewAdapter(client *redis.Client) *Adapter {
	return &Adapter{client: client}
}

// SetAvailable overwrites the cached available-unit counter for a
// product.
func (a *Adapter) SetAvailable(ctx context.Context, productID int64, units int) error {
	return a.client.Set(ctx, availableKey(productID), units, 0).Err()
}

// GetAvailable reads the cached counter. The boolean is false when the
// product has no cached value.
func (a *Adapter) GetAvailable(ctx context.Context, productID int64) (int, bool, error) {
	val, err := a.client.Get(ctx, availableKey(productID)).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// SetIdempotency claims a request key. The boolean is false when the key
// was already claimed, meaning the request is a duplicate.
func (a *Adapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	return a.client.SetNX(ctx, "idem:"+key, 1, idempotencyTTL).Result()
}

func availableKey(productID int64) string {
	return fmt.Sprintf("%s%d", availableKeyPrefix, productID)
}
