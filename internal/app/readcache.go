package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"spot_rental/internal/domain"
)

const keyAllSpots = "spots:all"

func keySpot(id int64) string       { return fmt.Sprintf("spot:%d", id) }
func keyOwnerSpots(id int64) string { return fmt.Sprintf("spots:owner:%d", id) }

// readCache is cache-aside for spot read models. A nil cache or zero TTL disables it.
type readCache struct {
	cache domain.Cache
	ttl   time.Duration
}

func (c readCache) enabled() bool { return c.cache != nil && c.ttl > 0 }

func (c readCache) get(ctx context.Context, key string, dst any) bool {
	if !c.enabled() {
		return false
	}
	ok, err := c.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	return ok
}

func (c readCache) set(ctx context.Context, key string, v any) {
	if !c.enabled() {
		return
	}
	if err := c.cache.Set(ctx, key, v, int(c.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// invalidateSpot drops every cached read model that includes spot s.
func (c readCache) invalidateSpot(ctx context.Context, s domain.Spot) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, keySpot(s.ID), keyAllSpots, keyOwnerSpots(s.OwnerID)); err != nil {
		log.Warn().Err(err).Int64("spot_id", s.ID).Msg("cache invalidate failed")
	}
}
