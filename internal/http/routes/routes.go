package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ekimeshi/ekimeshi/internal/cache"
	"github.com/ekimeshi/ekimeshi/internal/geo"
	"github.com/ekimeshi/ekimeshi/internal/keywords"
	"github.com/ekimeshi/ekimeshi/internal/search"
	"github.com/ekimeshi/ekimeshi/internal/stations"
	"github.com/ekimeshi/ekimeshi/places"
)

const sessionKeywordsKey = "custom_keywords"

// Geocoder is the slice of the places gateway the geocode endpoints use.
type Geocoder interface {
	GeocodeForward(ctx context.Context, addressText string) ([]places.GeocodeResult, error)
	GeocodeReverse(ctx context.Context, lat, lng float64) ([]places.GeocodeResult, error)
}

type Server struct {
	Router   *chi.Mux
	Sess     *scs.SessionManager
	Search   *search.Orchestrator
	Stations *stations.Resolver
	Geocoder Geocoder
	Store    cache.Store
	Log      zerolog.Logger
}

type ServerOptions struct {
	Sess     *scs.SessionManager
	Search   *search.Orchestrator
	Stations *stations.Resolver
	Geocoder Geocoder
	Store    cache.Store
	Log      zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	s := &Server{
		Router:   r,
		Sess:     opts.Sess,
		Search:   opts.Search,
		Stations: opts.Stations,
		Geocoder: opts.Geocoder,
		Store:    opts.Store,
		Log:      opts.Log,
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/restaurants/search", s.handleRestaurantSearch)
	r.Get("/restaurants/{placeID}", s.handleRestaurantDetail)
	r.Post("/stations/search", s.handleStationSearch)
	r.Post("/stations/nearby", s.handleStationsNearby)
	r.Post("/geocode/forward", s.handleGeocodeForward)
	r.Post("/geocode/reverse", s.handleGeocodeReverse)

	r.Get("/keywords", s.handleListKeywords)
	r.Post("/keywords", s.handleAddKeyword)
	r.Delete("/keywords/{keyword}", s.handleRemoveKeyword)

	return s
}

type latLngPayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type stationPayload struct {
	Name       string `json:"name"`
	Prefecture string `json:"prefecture"`
}

type filtersPayload struct {
	MinRating   float64 `json:"min_rating"`
	MinReviews  int     `json:"min_reviews"`
	PriceLevels []int   `json:"price_levels"`
	OpenNow     bool    `json:"open_now"`
}

type searchRequest struct {
	Keywords []string        `json:"keywords"`
	Location *latLngPayload  `json:"location"`
	Station  *stationPayload `json:"station"`
	Radius   int             `json:"radius"`
	Filters  *filtersPayload `json:"filters"`
}

func (s *Server) handleRestaurantSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Keywords) == 0 {
		s.respondError(w, http.StatusBadRequest, "keywords are required")
		return
	}
	if req.Radius <= 0 {
		s.respondError(w, http.StatusBadRequest, "radius must be positive")
		return
	}

	var origin search.Origin
	switch {
	case req.Location != nil && req.Location.Lat != nil && req.Location.Lng != nil:
		origin.Coords = &places.LatLng{Lat: *req.Location.Lat, Lng: *req.Location.Lng}
	case req.Station != nil && req.Station.Name != "":
		origin.StationName = req.Station.Name
		origin.Prefecture = req.Station.Prefecture
	default:
		s.respondError(w, http.StatusBadRequest, "location or station is required")
		return
	}

	results, err := s.Search.Search(r.Context(), req.Keywords, origin, req.Radius)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}

	if req.Filters != nil {
		results = search.FilterSort(results, search.Filters{
			MinRating:           req.Filters.MinRating,
			MinReviews:          req.Filters.MinReviews,
			SelectedPriceLevels: req.Filters.PriceLevels,
			OpenNow:             req.Filters.OpenNow,
			RadiusMeters:        req.Radius,
		}, time.Now())
	}

	s.respondData(w, results)
}

func (s *Server) handleRestaurantDetail(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	place, err := s.Search.PlaceDetail(r.Context(), placeID)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	s.respondData(w, place)
}

func (s *Server) handleStationSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		s.respondError(w, http.StatusBadRequest, "input is required")
		return
	}

	result, err := s.Stations.SearchByText(r.Context(), req.Input)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	if result == nil {
		result = []stations.Station{}
	}
	s.respondData(w, result)
}

func (s *Server) handleStationsNearby(w http.ResponseWriter, r *http.Request) {
	var req latLngPayload
	if !s.decode(w, r, &req) {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		s.respondError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	result, err := s.Stations.Nearby(r.Context(), *req.Lat, *req.Lng)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	if result == nil {
		result = []stations.Station{}
	}
	s.respondData(w, result)
}

type forwardGeocodeResponse struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

func (s *Server) handleGeocodeForward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		s.respondError(w, http.StatusBadRequest, "address is required")
		return
	}

	if cached, ok := cache.Get[forwardGeocodeResponse](r.Context(), s.Store, cache.TypeGeocodeForward, "addr:"+address); ok {
		s.respondData(w, cached)
		return
	}

	results, err := s.Geocoder.GeocodeForward(r.Context(), address)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	if len(results) == 0 {
		s.respondError(w, http.StatusNotFound, "address not found")
		return
	}

	resp := forwardGeocodeResponse{
		Lat:              results[0].Geometry.Location.Lat,
		Lng:              results[0].Geometry.Location.Lng,
		FormattedAddress: results[0].FormattedAddress,
	}
	cache.Set(r.Context(), s.Store, cache.TypeGeocodeForward, "addr:"+address, resp)
	s.respondData(w, resp)
}

type reverseGeocodeResponse struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

func (s *Server) handleGeocodeReverse(w http.ResponseWriter, r *http.Request) {
	var req latLngPayload
	if !s.decode(w, r, &req) {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		s.respondError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	key := geo.EncodeKey(*req.Lat, *req.Lng, geo.PrecisionFine)
	if cached, ok := cache.Get[reverseGeocodeResponse](r.Context(), s.Store, cache.TypeGeocodeReverse, key); ok {
		s.respondData(w, cached)
		return
	}

	results, err := s.Geocoder.GeocodeReverse(r.Context(), *req.Lat, *req.Lng)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	if len(results) == 0 {
		s.respondError(w, http.StatusNotFound, "no address at this location")
		return
	}

	resp := reverseGeocodeResponse{
		Lat:     *req.Lat,
		Lng:     *req.Lng,
		Address: results[0].FormattedAddress,
	}
	cache.Set(r.Context(), s.Store, cache.TypeGeocodeReverse, key, resp)
	s.respondData(w, resp)
}

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	reg := s.registry(r.Context())
	s.respondData(w, map[string]any{
		"defaults": keywords.Defaults,
		"custom":   reg.Custom(),
		"all":      reg.All(),
	})
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	reg := s.registry(r.Context())
	if !reg.Add(req.Keyword) {
		s.respondError(w, http.StatusBadRequest, "keyword is empty or already registered")
		return
	}
	s.saveRegistry(r.Context(), reg)
	s.respondData(w, reg.All())
}

func (s *Server) handleRemoveKeyword(w http.ResponseWriter, r *http.Request) {
	keyword := chi.URLParam(r, "keyword")
	if unescaped, err := url.PathUnescape(keyword); err == nil {
		keyword = unescaped
	}

	reg := s.registry(r.Context())
	if !reg.Remove(keyword) {
		s.respondError(w, http.StatusNotFound, "keyword not found")
		return
	}
	s.saveRegistry(r.Context(), reg)
	s.respondData(w, reg.All())
}

// registry rebuilds the session's keyword registry. Each request owns its
// copy; nothing is shared across sessions.
func (s *Server) registry(ctx context.Context) *keywords.Registry {
	var custom []string
	if raw := s.Sess.GetString(ctx, sessionKeywordsKey); raw != "" {
		_ = json.Unmarshal([]byte(raw), &custom)
	}
	return keywords.NewRegistry(custom)
}

func (s *Server) saveRegistry(ctx context.Context, reg *keywords.Registry) {
	raw, err := json.Marshal(reg.Custom())
	if err != nil {
		return
	}
	s.Sess.Put(ctx, sessionKeywordsKey, string(raw))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondSearchError maps the domain error taxonomy onto HTTP statuses:
// unresolvable origins are 404, everything provider- or auth-shaped is 500.
func (s *Server) respondSearchError(w http.ResponseWriter, err error) {
	var geoErr *places.GeocodeError
	if errors.As(err, &geoErr) {
		s.respondError(w, http.StatusNotFound, geoErr.Error())
		return
	}
	s.Log.Error().Err(err).Msg("search failed")
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondData(w http.ResponseWriter, data any) {
	s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]any{"success": false, "error": msg})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.Log.Error().Err(err).Msg("encode response failed")
	}
}
