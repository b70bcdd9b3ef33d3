package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ekimeshi/ekimeshi/internal/cache"
	"github.com/ekimeshi/ekimeshi/internal/geo"
	"github.com/ekimeshi/ekimeshi/places"
)

// PlacesProvider is the slice of the provider gateway the orchestrator needs.
// Injected so tests substitute fakes without a DI framework.
type PlacesProvider interface {
	NearbySearch(ctx context.Context, origin places.LatLng, radiusMeters int, keyword, placeType string) ([]places.PlaceResult, error)
	GeocodeForward(ctx context.Context, addressText string) ([]places.GeocodeResult, error)
	Details(ctx context.Context, placeID string) (*places.PlaceResult, error)
	PhotoURL(photoRef string, maxWidth int) string
}

// Orchestrator runs multi-keyword nearby searches through the cache layer.
type Orchestrator struct {
	provider    PlacesProvider
	store       cache.Store
	log         zerolog.Logger
	concurrency int
}

func NewOrchestrator(provider PlacesProvider, store cache.Store, log zerolog.Logger, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Orchestrator{provider: provider, store: store, log: log, concurrency: concurrency}
}

// Search resolves the origin, fans out one cached-or-live lookup per keyword
// with bounded concurrency, merges by place id, drops non-operational places
// and computes distances. Results are unsorted and unfiltered; FilterSort is
// the caller's next step. A single keyword failure aborts the whole search.
func (o *Orchestrator) Search(ctx context.Context, keywords []string, origin Origin, radiusMeters int) ([]Place, error) {
	log := o.log.With().Str("search_id", uuid.NewString()).Logger()

	coords, err := o.resolveOrigin(ctx, origin)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Float64("lat", coords.Lat).Float64("lng", coords.Lng).
		Int("radius", radiusMeters).Strs("keywords", keywords).
		Msg("search origin resolved")

	// Position-indexed results keep the merge deterministic in caller keyword
	// order no matter which fetch completes first.
	results := make([][]places.PlaceResult, len(keywords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, keyword := range keywords {
		i, keyword := i, keyword
		g.Go(func() error {
			key := searchKey(keyword, coords, radiusMeters)
			if cached, ok := cache.Get[[]places.PlaceResult](gctx, o.store, cache.TypeRestaurantSearch, key); ok {
				results[i] = cached
				return nil
			}
			fetched, err := o.provider.NearbySearch(gctx, coords, radiusMeters, keyword, "restaurant")
			if err != nil {
				return err
			}
			cache.Set(gctx, o.store, cache.TypeRestaurantSearch, key, fetched)
			results[i] = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("keyword search failed, aborting")
		return nil, err
	}

	merged := o.merge(keywords, results, coords)
	log.Debug().Int("places", len(merged)).Msg("search merged")
	return merged, nil
}

// searchKey is a deterministic function of keyword, coordinates and radius.
// Coordinates are formatted exactly as passed, with no independent rounding,
// so repeat searches with identical parameters always hit.
func searchKey(keyword string, coords places.LatLng, radiusMeters int) string {
	return strings.Join([]string{
		keyword,
		strconv.FormatFloat(coords.Lat, 'f', -1, 64),
		strconv.FormatFloat(coords.Lng, 'f', -1, 64),
		strconv.Itoa(radiusMeters),
	}, ":")
}

func (o *Orchestrator) resolveOrigin(ctx context.Context, origin Origin) (places.LatLng, error) {
	if origin.Coords != nil {
		return *origin.Coords, nil
	}

	query := strings.TrimSpace(origin.StationName + " " + origin.Prefecture)
	if query == "" {
		return places.LatLng{}, &places.GeocodeError{Query: query, Message: "empty origin"}
	}

	key := origin.StationName + "," + origin.Prefecture
	if cached, ok := cache.Get[places.LatLng](ctx, o.store, cache.TypeGeocodeForward, key); ok {
		return cached, nil
	}

	results, err := o.provider.GeocodeForward(ctx, query)
	if err != nil {
		return places.LatLng{}, err
	}
	if len(results) == 0 {
		return places.LatLng{}, &places.GeocodeError{Query: query, Message: "no results"}
	}
	coords := results[0].Geometry.Location
	cache.Set(ctx, o.store, cache.TypeGeocodeForward, key, coords)
	return coords, nil
}

// merge deduplicates by place id in first-seen order, unioning the matching
// keywords per record, then drops non-operational businesses and computes
// haversine distances from the origin.
func (o *Orchestrator) merge(keywords []string, results [][]places.PlaceResult, origin places.LatLng) []Place {
	byID := make(map[string]*Place)
	order := make([]string, 0)

	for i, keyword := range keywords {
		for _, r := range results[i] {
			if existing, ok := byID[r.PlaceID]; ok {
				if !existing.HasKeyword(keyword) {
					existing.SearchKeywords = append(existing.SearchKeywords, keyword)
				}
				continue
			}
			p := o.toPlace(r)
			p.SearchKeywords = []string{keyword}
			byID[r.PlaceID] = p
			order = append(order, r.PlaceID)
		}
	}

	out := make([]Place, 0, len(order))
	for _, id := range order {
		p := byID[id]
		if p.BusinessStatus != "" && p.BusinessStatus != places.StatusOperational {
			continue
		}
		out = append(out, *p)
	}

	for i := range out {
		out[i].Distance = distanceFrom(origin, &out[i])
	}
	return out
}

// distanceFrom is nil when the provider supplied no coordinates.
func distanceFrom(origin places.LatLng, p *Place) *float64 {
	if p.coords == nil {
		return nil
	}
	d := geo.Haversine(origin.Lat, origin.Lng, p.coords.Lat, p.coords.Lng)
	return &d
}

func (o *Orchestrator) toPlace(r places.PlaceResult) *Place {
	p := &Place{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Vicinity:         r.Vicinity,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
		PriceLevel:       PriceLevelUnknown,
		Types:            r.Types,
		BusinessStatus:   r.BusinessStatus,
	}
	if r.PriceLevel != nil {
		p.PriceLevel = *r.PriceLevel
	}
	if r.OpeningHours != nil {
		p.OpeningHours = r.OpeningHours.WeekdayText
	}
	for _, photo := range r.Photos {
		p.PhotoURLs = append(p.PhotoURLs, o.provider.PhotoURL(photo.PhotoReference, 400))
	}
	if r.Geometry != nil {
		loc := r.Geometry.Location
		p.coords = &loc
	}
	return p
}

// PlaceDetail fetches the full record for one place through the detail cache.
// A DetailsError is recoverable: callers fall back to the summary record.
func (o *Orchestrator) PlaceDetail(ctx context.Context, placeID string) (*Place, error) {
	if placeID == "" {
		return nil, fmt.Errorf("placeID required")
	}
	if cached, ok := cache.Get[places.PlaceResult](ctx, o.store, cache.TypePlaceDetail, placeID); ok {
		return o.toPlace(cached), nil
	}
	r, err := o.provider.Details(ctx, placeID)
	if err != nil {
		return nil, err
	}
	cache.Set(ctx, o.store, cache.TypePlaceDetail, placeID, *r)
	return o.toPlace(*r), nil
}
