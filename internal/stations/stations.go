// Package stations resolves search origins: free-text station lookup via
// autocomplete, and nearby-station discovery from device coordinates. Both
// paths read through the cache.
package stations

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ekimeshi/ekimeshi/internal/cache"
	"github.com/ekimeshi/ekimeshi/internal/geo"
	"github.com/ekimeshi/ekimeshi/places"
)

// maxStations caps every result list. More than a handful of candidate
// stations is noise for origin selection.
const maxStations = 5

// nearbyRadiusMeters is how far from the device we look for stations.
const nearbyRadiusMeters = 2000

// Station is a transit point usable as a search origin.
type Station struct {
	Name       string   `json:"name"`
	Prefecture string   `json:"prefecture,omitempty"`
	Address    string   `json:"address,omitempty"`
	Distance   *float64 `json:"distance,omitempty"`
	PlaceID    string   `json:"place_id,omitempty"`
	Lat        float64  `json:"lat,omitempty"`
	Lng        float64  `json:"lng,omitempty"`
}

// Provider is the slice of the places gateway the resolver needs.
type Provider interface {
	Autocomplete(ctx context.Context, inputText, countryRestriction, typeFilter string) ([]places.Prediction, error)
	NearbySearch(ctx context.Context, origin places.LatLng, radiusMeters int, keyword, placeType string) ([]places.PlaceResult, error)
}

type Resolver struct {
	provider Provider
	store    cache.Store
	log      zerolog.Logger
}

func NewResolver(provider Provider, store cache.Store, log zerolog.Logger) *Resolver {
	return &Resolver{provider: provider, store: store, log: log}
}

// SearchByText returns station candidates for a free-text query, cached per
// normalized input.
func (r *Resolver) SearchByText(ctx context.Context, input string) ([]Station, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	if key == "" {
		return nil, nil
	}
	if cached, ok := cache.Get[[]Station](ctx, r.store, cache.TypeStationPredictions, key); ok {
		return cached, nil
	}

	preds, err := r.provider.Autocomplete(ctx, input, "jp", "transit_station")
	if err != nil {
		return nil, err
	}

	stations := make([]Station, 0, maxStations)
	for _, p := range preds {
		if len(p.Types) > 0 && !geo.IsStation(p.Types) {
			continue
		}
		stations = append(stations, Station{
			Name:       p.StructuredFormatting.MainText,
			Prefecture: prefectureOf(p.StructuredFormatting.SecondaryText),
			Address:    p.Description,
			PlaceID:    p.PlaceID,
		})
		if len(stations) == maxStations {
			break
		}
	}

	cache.Set(ctx, r.store, cache.TypeStationPredictions, key, stations)
	return stations, nil
}

// Nearby discovers stations around the given coordinates, sorted ascending by
// distance and truncated to the top candidates. The cache key buckets
// coordinates coarsely, so nearby requests within ~1 km share one entry.
func (r *Resolver) Nearby(ctx context.Context, lat, lng float64) ([]Station, error) {
	key := geo.EncodeKey(lat, lng, geo.PrecisionCoarse)
	if cached, ok := cache.Get[[]Station](ctx, r.store, cache.TypeNearbyStations, key); ok {
		return cached, nil
	}

	results, err := r.provider.NearbySearch(ctx, places.LatLng{Lat: lat, Lng: lng}, nearbyRadiusMeters, "", "train_station")
	if err != nil {
		return nil, err
	}

	stations := make([]Station, 0, len(results))
	for _, res := range results {
		if !geo.IsStation(res.Types) {
			continue
		}
		s := Station{
			Name:    res.Name,
			Address: res.Vicinity,
			PlaceID: res.PlaceID,
		}
		if res.Geometry != nil {
			loc := res.Geometry.Location
			s.Lat, s.Lng = loc.Lat, loc.Lng
			d := geo.Haversine(lat, lng, loc.Lat, loc.Lng)
			s.Distance = &d
		}
		stations = append(stations, s)
	}

	sort.SliceStable(stations, func(i, j int) bool {
		di, dj := stations[i].Distance, stations[j].Distance
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
	if len(stations) > maxStations {
		stations = stations[:maxStations]
	}

	r.log.Debug().Int("stations", len(stations)).Str("bucket", key).Msg("nearby stations fetched")
	cache.Set(ctx, r.store, cache.TypeNearbyStations, key, stations)
	return stations, nil
}

// prefectureOf extracts the prefecture from an autocomplete secondary text
// like "日本、東京都渋谷区" or "Shibuya City, Tokyo, Japan".
func prefectureOf(secondary string) string {
	secondary = strings.TrimSpace(secondary)
	if secondary == "" {
		return ""
	}
	// Japanese format: "日本、<prefecture><rest>" separated by 、
	if parts := strings.Split(secondary, "、"); len(parts) > 1 {
		return strings.TrimSpace(parts[1])
	}
	parts := strings.Split(secondary, ",")
	return strings.TrimSpace(parts[0])
}
