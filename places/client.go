// Package places is the gateway to the external maps/places provider. Every
// operation issues exactly one outbound request (retry policy belongs to the
// caller) and maps the provider's status envelope onto typed errors; ZERO_RESULTS
// is a success with an empty list, never an error.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ekimeshi/ekimeshi/internal/telemetry"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

// Provider envelope statuses the gateway distinguishes.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusDenied      = "REQUEST_DENIED"
)

type Client struct {
	http     *http.Client
	baseURL  *url.URL
	apiKey   string
	language string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("apiKey required")
	}
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:     http.DefaultClient,
		baseURL:  u,
		apiKey:   apiKey,
		language: "ja",
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) doJSON(ctx context.Context, p string, params url.Values, out any) error {
	u := *c.baseURL
	u.Path = u.Path + p
	params.Set("key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", p, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func countCall(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	telemetry.ProviderCalls.WithLabelValues(op, result).Inc()
}

// NearbySearch finds places around origin. An empty result list is success.
// placeType narrows results to a provider place type and may be empty.
func (c *Client) NearbySearch(ctx context.Context, origin LatLng, radiusMeters int, keyword, placeType string) ([]PlaceResult, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	params.Set("radius", fmt.Sprint(radiusMeters))
	if keyword != "" {
		params.Set("keyword", keyword)
	}
	if placeType != "" {
		params.Set("type", placeType)
	}

	var env struct {
		Status       string        `json:"status"`
		ErrorMessage string        `json:"error_message"`
		Results      []PlaceResult `json:"results"`
	}
	err := c.doJSON(ctx, "/place/nearbysearch/json", params, &env)
	defer func() { countCall("nearby_search", err) }()
	if err != nil {
		err = &SearchError{Keyword: keyword, Message: err.Error()}
		return nil, err
	}

	switch env.Status {
	case statusOK, statusZeroResults:
		return env.Results, nil
	case statusDenied:
		err = &AuthError{Message: env.ErrorMessage}
		return nil, err
	default:
		err = &SearchError{Keyword: keyword, Message: fmt.Sprintf("provider status %s: %s", env.Status, env.ErrorMessage)}
		return nil, err
	}
}

// Autocomplete returns predictions for inputText. countryRestriction is an
// ISO 3166-1 alpha-2 code ("jp"); typeFilter narrows prediction types.
func (c *Client) Autocomplete(ctx context.Context, inputText, countryRestriction, typeFilter string) ([]Prediction, error) {
	params := url.Values{}
	params.Set("input", inputText)
	if countryRestriction != "" {
		params.Set("components", "country:"+countryRestriction)
	}
	if typeFilter != "" {
		params.Set("types", typeFilter)
	}

	var env struct {
		Status       string       `json:"status"`
		ErrorMessage string       `json:"error_message"`
		Predictions  []Prediction `json:"predictions"`
	}
	err := c.doJSON(ctx, "/place/autocomplete/json", params, &env)
	defer func() { countCall("autocomplete", err) }()
	if err != nil {
		return nil, err
	}

	switch env.Status {
	case statusOK, statusZeroResults:
		return env.Predictions, nil
	case statusDenied:
		err = &AuthError{Message: env.ErrorMessage}
		return nil, err
	default:
		err = fmt.Errorf("places: autocomplete status %s: %s", env.Status, env.ErrorMessage)
		return nil, err
	}
}

func (c *Client) geocode(ctx context.Context, query string, params url.Values) ([]GeocodeResult, error) {
	var env struct {
		Status       string          `json:"status"`
		ErrorMessage string          `json:"error_message"`
		Results      []GeocodeResult `json:"results"`
	}
	err := c.doJSON(ctx, "/geocode/json", params, &env)
	defer func() { countCall("geocode", err) }()
	if err != nil {
		// Transport failures stay plain errors. GeocodeError is reserved for
		// "nothing matched", which callers surface as not-found.
		err = fmt.Errorf("places: geocode %q: %w", query, err)
		return nil, err
	}

	switch env.Status {
	case statusOK, statusZeroResults:
		// An empty list after a clean status is a domain-level "not found",
		// which callers distinguish from transport/auth failures.
		return env.Results, nil
	case statusDenied:
		err = &AuthError{Message: env.ErrorMessage}
		return nil, err
	default:
		err = fmt.Errorf("places: geocode %q status %s: %s", query, env.Status, env.ErrorMessage)
		return nil, err
	}
}

// GeocodeForward resolves free-text addresses to coordinates.
func (c *Client) GeocodeForward(ctx context.Context, addressText string) ([]GeocodeResult, error) {
	params := url.Values{}
	params.Set("address", addressText)
	return c.geocode(ctx, addressText, params)
}

// GeocodeReverse resolves coordinates to addresses.
func (c *Client) GeocodeReverse(ctx context.Context, lat, lng float64) ([]GeocodeResult, error) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	return c.geocode(ctx, fmt.Sprintf("%f,%f", lat, lng), params)
}

// Details fetches the full record for one place.
func (c *Client) Details(ctx context.Context, placeID string) (*PlaceResult, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,vicinity,rating,user_ratings_total,price_level,types,photos,geometry,business_status,opening_hours,formatted_phone_number,website")

	var env struct {
		Status       string      `json:"status"`
		ErrorMessage string      `json:"error_message"`
		Result       PlaceResult `json:"result"`
	}
	err := c.doJSON(ctx, "/place/details/json", params, &env)
	defer func() { countCall("details", err) }()
	if err != nil {
		err = &DetailsError{PlaceID: placeID, Message: err.Error()}
		return nil, err
	}

	switch env.Status {
	case statusOK:
		return &env.Result, nil
	case statusDenied:
		err = &AuthError{Message: env.ErrorMessage}
		return nil, err
	default:
		err = &DetailsError{PlaceID: placeID, Message: fmt.Sprintf("provider status %s: %s", env.Status, env.ErrorMessage)}
		return nil, err
	}
}

// PhotoURL builds the photo fetch URL for a photo reference. Pure URL
// construction, no network call. maxWidth <= 0 falls back to 400.
func (c *Client) PhotoURL(photoRef string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 400
	}
	params := url.Values{}
	params.Set("maxwidth", fmt.Sprint(maxWidth))
	params.Set("photo_reference", photoRef)
	params.Set("key", c.apiKey)
	return c.baseURL.String() + "/place/photo?" + params.Encode()
}
