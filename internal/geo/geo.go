// Package geo provides coordinate helpers shared by the cache and search layers:
// stable cache-key encoding, great-circle distance, and station-type checks.
package geo

import (
	"fmt"
	"math"
)

// Precision presets for EncodeKey. The precision trades cache hit-rate against
// staleness: 3 decimals buckets coordinates into ~110 m cells, 2 decimals into
// ~1.1 km cells. Callers must pick one consciously.
const (
	PrecisionFine   = 3 // ~110 m cells, nearby-station lookups close to the user
	PrecisionCoarse = 2 // ~1.1 km cells, server-side nearby-station cache
)

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371000.0

// EncodeKey rounds both coordinates to precision decimal digits and joins them
// into a stable cache key. Points within the same rounding cell share a key.
func EncodeKey(lat, lng float64, precision int) string {
	return fmt.Sprintf("%.*f,%.*f", precision, lat, precision, lng)
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

var stationTypes = map[string]struct{}{
	"train_station":   {},
	"subway_station":  {},
	"transit_station": {},
}

// IsStation reports whether any of the provider place types marks a transit stop.
func IsStation(types []string) bool {
	for _, t := range types {
		if _, ok := stationTypes[t]; ok {
			return true
		}
	}
	return false
}
