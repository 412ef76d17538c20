package redis

import (
	"context"
	"time"
)

// IdempotencyStore holds one record per Idempotency-Key: a reservation while the first
// request runs, then the response that later retries replay.
type IdempotencyStore interface {
	IdempotencyKey(scope, id string) string
	Reserve(ctx context.Context, key, marker string, ttl time.Duration) (existing string, reserved bool, err error)
	Complete(ctx context.Context, key, record string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Reserve claims key with marker. When another request already holds it, the stored value
// is returned instead; an empty value means the holder's reservation expired mid-read.
func (c *Client) Reserve(ctx context.Context, key, marker string, ttl time.Duration) (string, bool, error) {
	if c.store == nil {
		return "", false, errNotInitialized
	}
	ok, err := c.store.SetNX(ctx, key, marker, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	existing, err := c.store.Get(ctx, key).Result()
	if IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

// Complete replaces the reservation with the final record.
func (c *Client) Complete(ctx context.Context, key, record string, ttl time.Duration) error {
	return c.Set(ctx, key, record, ttl)
}

// Release drops a reservation so the same key can be retried.
func (c *Client) Release(ctx context.Context, key string) error {
	return c.Del(ctx, key)
}
