package search

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ekimeshi/ekimeshi/internal/cache"
	"github.com/ekimeshi/ekimeshi/places"
)

// fakeProvider is an in-memory PlacesProvider with call accounting.
type fakeProvider struct {
	mu            sync.Mutex
	searchCalls   int
	geocodeCalls  int
	detailCalls   int
	resultsByWord map[string][]places.PlaceResult
	searchErr     map[string]error
	geocodeResult []places.GeocodeResult
	geocodeErr    error
	detail        *places.PlaceResult
	detailErr     error
}

func (f *fakeProvider) NearbySearch(_ context.Context, _ places.LatLng, _ int, keyword, _ string) ([]places.PlaceResult, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()
	if err := f.searchErr[keyword]; err != nil {
		return nil, err
	}
	return f.resultsByWord[keyword], nil
}

func (f *fakeProvider) GeocodeForward(_ context.Context, _ string) ([]places.GeocodeResult, error) {
	f.mu.Lock()
	f.geocodeCalls++
	f.mu.Unlock()
	return f.geocodeResult, f.geocodeErr
}

func (f *fakeProvider) Details(_ context.Context, _ string) (*places.PlaceResult, error) {
	f.mu.Lock()
	f.detailCalls++
	f.mu.Unlock()
	return f.detail, f.detailErr
}

func (f *fakeProvider) PhotoURL(ref string, maxWidth int) string {
	return fmt.Sprintf("https://photos.test/%s?w=%d", ref, maxWidth)
}

func geom(lat, lng float64) *places.Geometry {
	return &places.Geometry{Location: places.LatLng{Lat: lat, Lng: lng}}
}

var tokyoStation = places.LatLng{Lat: 35.6812, Lng: 139.7671}

func newTestOrchestrator(f *fakeProvider) (*Orchestrator, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	return NewOrchestrator(f, store, zerolog.Nop(), 3), store
}

func TestSearchMergesSamePlaceAcrossKeywords(t *testing.T) {
	shared := places.PlaceResult{PlaceID: "p1", Name: "喫茶ラーメン軒", Geometry: geom(35.682, 139.768)}
	f := &fakeProvider{resultsByWord: map[string][]places.PlaceResult{
		"ラーメン": {shared, {PlaceID: "p2", Name: "Afuri", Geometry: geom(35.683, 139.769)}},
		"カフェ":  {shared},
	}}
	o, _ := newTestOrchestrator(f)

	got, err := o.Search(context.Background(), []string{"ラーメン", "カフェ"}, Origin{Coords: &tokyoStation}, 500)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d places, want 2 (p1 merged)", len(got))
	}
	var merged *Place
	for i := range got {
		if got[i].PlaceID == "p1" {
			merged = &got[i]
		}
	}
	if merged == nil {
		t.Fatal("p1 missing from results")
	}
	if !merged.HasKeyword("ラーメン") || !merged.HasKeyword("カフェ") {
		t.Errorf("searchKeywords = %v, want both keywords", merged.SearchKeywords)
	}
}

func TestSearchKeywordFailureAbortsAll(t *testing.T) {
	f := &fakeProvider{
		resultsByWord: map[string][]places.PlaceResult{
			"ラーメン": {{PlaceID: "p1", Name: "ok"}},
		},
		searchErr: map[string]error{
			"カフェ": &places.SearchError{Keyword: "カフェ", Message: "provider status UNKNOWN_ERROR"},
		},
	}
	o, _ := newTestOrchestrator(f)

	_, err := o.Search(context.Background(), []string{"ラーメン", "カフェ"}, Origin{Coords: &tokyoStation}, 500)
	var searchErr *places.SearchError
	if !errors.As(err, &searchErr) {
		t.Fatalf("want SearchError, got %T: %v", err, err)
	}
	if searchErr.Keyword != "カフェ" {
		t.Errorf("error keyword = %q, want カフェ", searchErr.Keyword)
	}
}

func TestSearchDropsNonOperational(t *testing.T) {
	f := &fakeProvider{resultsByWord: map[string][]places.PlaceResult{
		"ラーメン": {
			{PlaceID: "open", Name: "a", BusinessStatus: places.StatusOperational},
			{PlaceID: "gone", Name: "b", BusinessStatus: places.StatusClosedPermanently},
			{PlaceID: "paused", Name: "c", BusinessStatus: places.StatusClosedTemporarily},
			{PlaceID: "unknown", Name: "d"},
		},
	}}
	o, _ := newTestOrchestrator(f)

	got, err := o.Search(context.Background(), []string{"ラーメン"}, Origin{Coords: &tokyoStation}, 500)
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.PlaceID)
	}
	if !reflect.DeepEqual(ids, []string{"open", "unknown"}) {
		t.Errorf("ids = %v, want [open unknown]", ids)
	}
}

func TestSearchComputesDistances(t *testing.T) {
	f := &fakeProvider{resultsByWord: map[string][]places.PlaceResult{
		"ラーメン": {
			{PlaceID: "shibuya", Geometry: geom(35.658, 139.7016)},
			{PlaceID: "nowhere"}, // no geometry
		},
	}}
	o, _ := newTestOrchestrator(f)

	got, err := o.Search(context.Background(), []string{"ラーメン"}, Origin{Coords: &tokyoStation}, 500)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Distance == nil || *got[0].Distance < 6000 || *got[0].Distance > 7000 {
		t.Errorf("distance to Shibuya = %v, want ~6.5 km", got[0].Distance)
	}
	if got[1].Distance != nil {
		t.Errorf("place without geometry must have nil distance, got %v", *got[1].Distance)
	}
}

func TestSearchIdempotentViaCache(t *testing.T) {
	f := &fakeProvider{resultsByWord: map[string][]places.PlaceResult{
		"ラーメン": {{PlaceID: "p1", Name: "a", Geometry: geom(35.682, 139.768)}},
		"カフェ":  {{PlaceID: "p2", Name: "b", Geometry: geom(35.683, 139.769)}},
	}}
	o, _ := newTestOrchestrator(f)
	ctx := context.Background()
	keywords := []string{"ラーメン", "カフェ"}

	first, err := o.Search(ctx, keywords, Origin{Coords: &tokyoStation}, 500)
	if err != nil {
		t.Fatal(err)
	}
	if f.searchCalls != 2 {
		t.Fatalf("first search issued %d provider calls, want 2", f.searchCalls)
	}

	second, err := o.Search(ctx, keywords, Origin{Coords: &tokyoStation}, 500)
	if err != nil {
		t.Fatal(err)
	}
	if f.searchCalls != 2 {
		t.Errorf("repeat search issued %d extra provider calls, want 0", f.searchCalls-2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeat search results differ from the first run")
	}
}

func TestSearchStationOriginGeocodedOnceThenCached(t *testing.T) {
	f := &fakeProvider{
		resultsByWord: map[string][]places.PlaceResult{"ラーメン": {}},
		geocodeResult: []places.GeocodeResult{{
			FormattedAddress: "日本、東京都渋谷区",
			Geometry:         places.Geometry{Location: places.LatLng{Lat: 35.658, Lng: 139.7016}},
		}},
	}
	o, _ := newTestOrchestrator(f)
	ctx := context.Background()
	origin := Origin{StationName: "渋谷駅", Prefecture: "東京都"}

	if _, err := o.Search(ctx, []string{"ラーメン"}, origin, 500); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Search(ctx, []string{"ラーメン"}, origin, 500); err != nil {
		t.Fatal(err)
	}
	if f.geocodeCalls != 1 {
		t.Errorf("geocode called %d times, want 1 (second resolved from cache)", f.geocodeCalls)
	}
}

func TestSearchStationOriginNotFound(t *testing.T) {
	f := &fakeProvider{geocodeResult: nil}
	o, _ := newTestOrchestrator(f)

	_, err := o.Search(context.Background(), []string{"ラーメン"}, Origin{StationName: "存在しない駅"}, 500)
	var geoErr *places.GeocodeError
	if !errors.As(err, &geoErr) {
		t.Fatalf("want GeocodeError, got %T: %v", err, err)
	}
}

func TestSearchKeyDeterministic(t *testing.T) {
	a := searchKey("ラーメン", places.LatLng{Lat: 35.6812, Lng: 139.7671}, 500)
	b := searchKey("ラーメン", places.LatLng{Lat: 35.6812, Lng: 139.7671}, 500)
	if a != b {
		t.Errorf("searchKey not deterministic: %s vs %s", a, b)
	}
	if c := searchKey("ラーメン", places.LatLng{Lat: 35.6812, Lng: 139.7671}, 501); c == a {
		t.Error("radius must be part of the key")
	}
	if c := searchKey("カフェ", places.LatLng{Lat: 35.6812, Lng: 139.7671}, 500); c == a {
		t.Error("keyword must be part of the key")
	}
}

func TestPlaceDetailCachesAndConverts(t *testing.T) {
	price := 2
	f := &fakeProvider{detail: &places.PlaceResult{
		PlaceID:    "p1",
		Name:       "Ichiran",
		PriceLevel: &price,
		Photos:     []places.Photo{{PhotoReference: "ref1"}},
	}}
	o, _ := newTestOrchestrator(f)
	ctx := context.Background()

	got, err := o.PlaceDetail(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PriceLevel != 2 {
		t.Errorf("price level = %d, want 2", got.PriceLevel)
	}
	if len(got.PhotoURLs) != 1 {
		t.Errorf("photo urls = %v, want one resolved URL", got.PhotoURLs)
	}

	if _, err := o.PlaceDetail(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if f.detailCalls != 1 {
		t.Errorf("details called %d times, want 1", f.detailCalls)
	}
}

func TestPlaceDetailErrorIsTyped(t *testing.T) {
	f := &fakeProvider{detailErr: &places.DetailsError{PlaceID: "p1", Message: "boom"}}
	o, _ := newTestOrchestrator(f)

	_, err := o.PlaceDetail(context.Background(), "p1")
	var detErr *places.DetailsError
	if !errors.As(err, &detErr) {
		t.Fatalf("want DetailsError, got %T: %v", err, err)
	}
}

func TestToPlaceUnknownPriceLevel(t *testing.T) {
	o, _ := newTestOrchestrator(&fakeProvider{})
	p := o.toPlace(places.PlaceResult{PlaceID: "p1"})
	if p.PriceLevel != PriceLevelUnknown {
		t.Errorf("price level = %d, want %d for omitted provider field", p.PriceLevel, PriceLevelUnknown)
	}
}
