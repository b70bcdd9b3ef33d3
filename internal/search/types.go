// Package search implements the keyword fan-out search pipeline: cached-or-live
// per-keyword lookups, merge by place id, and the pure filter/sort stage that
// can be re-applied to a merged result set without further provider cost.
package search

import "github.com/ekimeshi/ekimeshi/places"

// PriceLevelUnknown marks a place whose price tier the provider omitted.
const PriceLevelUnknown = -1

// Place is a merged, deduplicated point-of-interest record assembled from one
// or more keyword searches.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	PriceLevel       int      `json:"price_level"`
	Types            []string `json:"types,omitempty"`
	PhotoURLs        []string `json:"photo_urls,omitempty"`
	SearchKeywords   []string `json:"search_keywords"`
	Distance         *float64 `json:"distance,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	OpeningHours     []string `json:"opening_hours,omitempty"`

	// coords backs the distance computation; absent when the provider sent
	// no geometry.
	coords *places.LatLng
}

// Location returns the place's coordinates, or nil when unknown.
func (p *Place) Location() *places.LatLng {
	return p.coords
}

// HasKeyword reports whether the place was matched by keyword.
func (p *Place) HasKeyword(keyword string) bool {
	for _, k := range p.SearchKeywords {
		if k == keyword {
			return true
		}
	}
	return false
}

// Origin is where a search measures from: direct coordinates, or a station
// name to be forward-geocoded.
type Origin struct {
	Coords      *places.LatLng
	StationName string
	Prefecture  string
}

// Filters are the client-adjustable predicates applied by FilterSort.
// Re-applying them against a cached Place list never re-triggers network
// calls; that separation is why filtering lives apart from the orchestrator.
type Filters struct {
	MinRating           float64
	MinReviews          int
	SelectedPriceLevels []int // empty means no price filtering
	OpenNow             bool
	RadiusMeters        int
}
