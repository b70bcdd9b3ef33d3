package geo

import (
	"math"
	"testing"
)

func TestEncodeKeyDeterministic(t *testing.T) {
	a := EncodeKey(35.68123, 139.76712, 3)
	b := EncodeKey(35.68123, 139.76712, 3)
	if a != b {
		t.Errorf("EncodeKey not deterministic: %s vs %s", a, b)
	}
	if a != "35.681,139.767" {
		t.Errorf("EncodeKey = %s, want 35.681,139.767", a)
	}
}

func TestEncodeKeyBuckets(t *testing.T) {
	// Points inside the same rounding cell share a key.
	if EncodeKey(35.6811, 139.7671, 2) != EncodeKey(35.6809, 139.7669, 2) {
		t.Error("points in the same cell should share a key")
	}
	// Points across a cell boundary differ.
	if EncodeKey(35.681, 139.767, 3) == EncodeKey(35.682, 139.767, 3) {
		t.Error("points across a cell boundary should differ")
	}
}

func TestEncodeKeyPrecision(t *testing.T) {
	tests := []struct {
		lat, lng  float64
		precision int
		want      string
	}{
		{35.6812, 139.7671, 3, "35.681,139.767"},
		{35.6812, 139.7671, 2, "35.68,139.77"},
		{-33.8688, 151.2093, 2, "-33.87,151.21"},
		{0, 0, 3, "0.000,0.000"},
	}
	for _, tt := range tests {
		got := EncodeKey(tt.lat, tt.lng, tt.precision)
		if got != tt.want {
			t.Errorf("EncodeKey(%v, %v, %d) = %s, want %s", tt.lat, tt.lng, tt.precision, got, tt.want)
		}
	}
}

func TestHaversine(t *testing.T) {
	// Identical points.
	if d := Haversine(35.6812, 139.7671, 35.6812, 139.7671); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}

	// Symmetry.
	ab := Haversine(35.6812, 139.7671, 35.658, 139.7016)
	ba := Haversine(35.658, 139.7016, 35.6812, 139.7671)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("not symmetric: %f vs %f", ab, ba)
	}

	// Tokyo Station -> Shibuya Station, roughly 6-7 km.
	if ab < 6000 || ab > 7000 {
		t.Errorf("Tokyo->Shibuya = %f m, want 6000-7000", ab)
	}

	// Southern hemisphere: Sydney -> Melbourne, roughly 700-730 km.
	sm := Haversine(-33.8688, 151.2093, -37.8136, 144.9631)
	if sm < 700000 || sm > 730000 {
		t.Errorf("Sydney->Melbourne = %f m, want 700000-730000", sm)
	}
}

func TestIsStation(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  bool
	}{
		{"train", []string{"train_station", "point_of_interest"}, true},
		{"subway", []string{"subway_station"}, true},
		{"transit", []string{"establishment", "transit_station"}, true},
		{"empty", []string{}, false},
		{"nil", nil, false},
		{"unrelated", []string{"parking", "restaurant"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStation(tt.types); got != tt.want {
				t.Errorf("IsStation(%v) = %v, want %v", tt.types, got, tt.want)
			}
		})
	}
}
