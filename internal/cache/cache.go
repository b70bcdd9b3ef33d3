// Package cache provides a typed TTL cache over pluggable durable stores.
// Entries are keyed by (Type, key), carry creation/expiry timestamps and a
// hit counter, and expire lazily: a read that observes an expired entry
// deletes it and reports a miss.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ekimeshi/ekimeshi/internal/telemetry"
)

// Type identifies a cache namespace. Each type has a fixed TTL.
type Type string

const (
	TypeRestaurantSearch   Type = "restaurant_search"
	TypeGeocodeForward     Type = "geocode_forward"
	TypeStationPredictions Type = "station_predictions"
	TypeNearbyStations     Type = "nearby_stations"
	TypeGeocodeReverse     Type = "geocode_reverse"
	TypePlaceDetail        Type = "place_detail"
)

// ttlSeconds is the authoritative TTL table.
var ttlSeconds = map[Type]int64{
	TypeRestaurantSearch:   172800,  // 48h
	TypeGeocodeForward:     604800,  // 7d
	TypeStationPredictions: 86400,   // 24h
	TypeNearbyStations:     43200,   // 12h
	TypeGeocodeReverse:     86400,   // 24h
	TypePlaceDetail:        1209600, // 14d
}

// TTL returns the configured lifetime for entries of this type.
func (t Type) TTL() time.Duration {
	return time.Duration(ttlSeconds[t]) * time.Second
}

// Entry is a stored cache record.
type Entry struct {
	CacheKey  string          `json:"cache_key"`
	CacheType Type            `json:"cache_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	HitCount  int64           `json:"hit_count"`
}

// Store is the backing-store contract. Implementations must treat an expired
// entry as a miss and delete it during the read, increment the hit counter on
// every successful read, and fully replace an existing entry on Set (hit count
// back to zero, fresh timestamps).
type Store interface {
	Get(ctx context.Context, typ Type, key string) (json.RawMessage, bool)
	Set(ctx context.Context, typ Type, key string, payload json.RawMessage, ttl time.Duration) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Get reads and decodes a cached value. Any fault, including a corrupt
// payload, is reported as a miss so callers fall through to a live fetch.
func Get[T any](ctx context.Context, s Store, typ Type, key string) (T, bool) {
	var v T
	if s == nil {
		return v, false
	}
	payload, ok := s.Get(ctx, typ, key)
	if !ok {
		telemetry.CacheMisses.WithLabelValues(string(typ)).Inc()
		return v, false
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		telemetry.CacheMisses.WithLabelValues(string(typ)).Inc()
		return v, false
	}
	telemetry.CacheHits.WithLabelValues(string(typ)).Inc()
	return v, true
}

// Set encodes and stores a value with the type's configured TTL. Failures are
// swallowed: the cache is an optimization layer, never a correctness
// dependency.
func Set[T any](ctx context.Context, s Store, typ Type, key string, v T) {
	if s == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.Set(ctx, typ, key, payload, typ.TTL())
}
