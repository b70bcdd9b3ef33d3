package places

// LatLng is a coordinate pair as the provider encodes it.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Business status values recognized by the merge layer.
const (
	StatusOperational       = "OPERATIONAL"
	StatusClosedTemporarily = "CLOSED_TEMPORARILY"
	StatusClosedPermanently = "CLOSED_PERMANENTLY"
)

// Geometry carries a result's location.
type Geometry struct {
	Location LatLng `json:"location"`
}

// Photo is a provider photo reference, resolvable via Client.PhotoURL.
type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

// OpeningHours carries the weekly free-text schedule, one entry per day,
// e.g. "Wednesday: 11:00 AM – 2:00 PM, 5:00 PM – 10:00 PM".
type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// PlaceResult is one provider record from a nearby search or a detail lookup.
// PriceLevel is a pointer because the provider omits it for places with no
// known price tier.
type PlaceResult struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	Vicinity         string        `json:"vicinity,omitempty"`
	Rating           float64       `json:"rating,omitempty"`
	UserRatingsTotal int           `json:"user_ratings_total,omitempty"`
	PriceLevel       *int          `json:"price_level,omitempty"`
	Types            []string      `json:"types,omitempty"`
	Photos           []Photo       `json:"photos,omitempty"`
	Geometry         *Geometry     `json:"geometry,omitempty"`
	BusinessStatus   string        `json:"business_status,omitempty"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
	FormattedPhone   string        `json:"formatted_phone_number,omitempty"`
	Website          string        `json:"website,omitempty"`
}

// Prediction is one autocomplete suggestion.
type Prediction struct {
	Description          string `json:"description"`
	PlaceID              string `json:"place_id"`
	StructuredFormatting struct {
		MainText      string `json:"main_text"`
		SecondaryText string `json:"secondary_text"`
	} `json:"structured_formatting"`
	Types []string `json:"types,omitempty"`
}

// GeocodeResult is one forward or reverse geocoding record.
type GeocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
	Types            []string `json:"types,omitempty"`
}
