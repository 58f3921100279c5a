package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// Redis key prefix for cached resolutions.
const cacheKeyPrefix = "geo:"

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gatehouse_geocode_cache_lookups_total",
	Help: "Geocode cache lookups by result",
}, []string{"result"})

// CachedResolver is a read-through Redis cache in front of a Resolver.
// The cache is best-effort: any Redis fault degrades to the inner resolver,
// and only successful resolutions are cached.
type CachedResolver struct {
	inner  Resolver
	client *redis.Client
	ttl    time.Duration
}

// NewCached wraps inner with a Redis cache. ttl bounds how long a resolved
// address is reused for the same coordinates.
func NewCached(inner Resolver, client *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{inner: inner, client: client, ttl: ttl}
}

func (r *CachedResolver) ReverseGeocode(ctx context.Context, lat, lng float64) (*Address, error) {
	key := cacheKey(lat, lng)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var addr Address
		if jsonErr := json.Unmarshal(raw, &addr); jsonErr == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return &addr, nil
		}
		// Corrupt entry: fall through to the upstream and overwrite it.
		cacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		cacheLookups.WithLabelValues("miss").Inc()
	default:
		cacheLookups.WithLabelValues("error").Inc()
	}

	addr, err := r.inner.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	if raw, jsonErr := json.Marshal(addr); jsonErr == nil {
		// Best-effort write; a failed Set only costs a future lookup.
		_ = r.client.Set(ctx, key, raw, r.ttl).Err()
	}
	return addr, nil
}

// cacheKey rounds to 5 decimal places (~1m precision) so jittered client
// coordinates still share an entry.
func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%s%.5f,%.5f", cacheKeyPrefix, lat, lng)
}
