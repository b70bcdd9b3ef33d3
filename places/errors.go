package places

import "fmt"

// AuthError means the provider rejected the API key. Fatal for the whole
// search; surfaced verbatim and never retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "places: request denied: " + e.Message
}

// GeocodeError means an origin resolved to nothing: the provider answered
// cleanly but no result matched the query. Transport and provider failures
// are plain errors, not GeocodeError.
type GeocodeError struct {
	Query   string
	Message string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("places: geocode %q failed: %s", e.Query, e.Message)
}

// SearchError is keyword-scoped: one keyword's nearby search failed. The
// orchestrator aborts the combined search on it, since partial keyword
// coverage would silently under-report results.
type SearchError struct {
	Keyword string
	Message string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("places: search for %q failed: %s", e.Keyword, e.Message)
}

// DetailsError means detail enrichment failed for one place. Recoverable:
// callers fall back to the summary record already in hand.
type DetailsError struct {
	PlaceID string
	Message string
}

func (e *DetailsError) Error() string {
	return fmt.Sprintf("places: details for %s failed: %s", e.PlaceID, e.Message)
}
