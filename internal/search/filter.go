package search

import (
	"sort"
	"time"

	"github.com/ekimeshi/ekimeshi/internal/hours"
	"github.com/ekimeshi/ekimeshi/places"
)

// tightRadiusThreshold bounds the client-side radius re-check. The provider's
// own radius filter is coarse at very small radii, so below this threshold
// places with a known distance must also satisfy distance <= radius.
const tightRadiusThreshold = 100

// FilterSort applies the active predicates and returns a new list sorted
// ascending by distance, unknown distances last. Pure: the input list and its
// elements are never mutated. "Open now" is a function of wall-clock time, so
// callers re-invoke with a fresh instant rather than storing the result.
func FilterSort(in []Place, f Filters, now time.Time) []Place {
	out := make([]Place, 0, len(in))
	for _, p := range in {
		if passes(&p, f, now) {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Distance, out[j].Distance
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
	return out
}

func passes(p *Place, f Filters, now time.Time) bool {
	if p.BusinessStatus != "" && p.BusinessStatus != places.StatusOperational {
		return false
	}
	if p.Rating < f.MinRating {
		return false
	}
	if p.UserRatingsTotal < f.MinReviews {
		return false
	}
	if len(f.SelectedPriceLevels) > 0 && !containsInt(f.SelectedPriceLevels, p.PriceLevel) {
		return false
	}
	if f.OpenNow && !hours.IsOpenAt(p.OpeningHours, now) {
		return false
	}
	if f.RadiusMeters > 0 && f.RadiusMeters <= tightRadiusThreshold &&
		p.Distance != nil && *p.Distance > float64(f.RadiusMeters) {
		return false
	}
	return true
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
