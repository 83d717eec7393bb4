package redisad

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "session:revoked:"

// Denylist stores revoked session token ids with a TTL matching the token's remaining life.
type Denylist struct{ c *redis.Client }

func NewDenylist(c *redis.Client) *Denylist { return &Denylist{c: c} }

func (d *Denylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	return d.c.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.c.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
