// Package location models the three ways a user can point the provider at a
// place: a named city, raw coordinates, or a free-text address.
//
// Every variant knows how to encode itself as provider request parameters and
// as a cache-key fragment. The set of variants is closed; Location cannot be
// implemented outside this package.
package location

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidLocation is returned when no usable location can be built from input.
var ErrInvalidLocation = errors.New("invalid location")

// Location is a place the provider can compute a prayer calendar for.
type Location interface {
	// RequestParams returns the query parameters identifying this place.
	RequestParams() url.Values
	// CacheKey returns a filesystem-safe fragment unique to the variant and its values.
	CacheKey() string
	// Endpoint returns the calendar endpoint family for this variant.
	Endpoint() string
	// String returns a human-readable description.
	String() string

	sealed()
}

// City is a named place: city and country, with an optional state/region.
type City struct {
	City    string
	Country string
	State   string
}

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Address is a free-text address geocoded by the provider.
type Address struct {
	Text string
}

func (City) sealed()        {}
func (Coordinates) sealed() {}
func (Address) sealed()     {}

func (c City) RequestParams() url.Values {
	params := url.Values{}
	params.Set("city", c.City)
	params.Set("country", c.Country)
	if c.State != "" {
		params.Set("state", c.State)
	}
	return params
}

func (c City) CacheKey() string {
	key := "city_" + escape(c.City) + "_" + escape(c.Country)
	if c.State != "" {
		key += "_" + escape(c.State)
	}
	return key
}

func (City) Endpoint() string { return "calendarByCity" }

func (c City) String() string {
	if c.State != "" {
		return c.City + ", " + c.State + ", " + c.Country
	}
	return c.City + ", " + c.Country
}

func (c Coordinates) RequestParams() url.Values {
	params := url.Values{}
	params.Set("latitude", formatFloat(c.Latitude))
	params.Set("longitude", formatFloat(c.Longitude))
	return params
}

// CacheKey lists longitude before latitude, matching existing cache files.
func (c Coordinates) CacheKey() string {
	return "coordinates_" + escape(formatFloat(c.Longitude)) + "_" + escape(formatFloat(c.Latitude))
}

func (Coordinates) Endpoint() string { return "calendar" }

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
}

func (a Address) RequestParams() url.Values {
	params := url.Values{}
	params.Set("address", a.Text)
	return params
}

func (a Address) CacheKey() string {
	return "address_" + escape(a.Text)
}

func (Address) Endpoint() string { return "calendarByAddress" }

func (a Address) String() string { return a.Text }

// FromFields picks a location variant from loosely-specified input.
// Priority: city+country, then address, then coordinates.
// hasCoords reports whether latitude/longitude were explicitly supplied, so
// that 0,0 can still be requested.
func FromFields(city, country, state, address string, lat, lon float64, hasCoords bool) (Location, error) {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	address = strings.TrimSpace(address)

	switch {
	case city != "" && country != "":
		return City{City: city, Country: country, State: strings.TrimSpace(state)}, nil
	case city != "":
		return nil, fmt.Errorf("%w: country is required when city is set", ErrInvalidLocation)
	case country != "":
		return nil, fmt.Errorf("%w: city is required when country is set", ErrInvalidLocation)
	case address != "":
		return Address{Text: address}, nil
	case hasCoords:
		if lat < -90 || lat > 90 {
			return nil, fmt.Errorf("%w: latitude %v out of range", ErrInvalidLocation, lat)
		}
		if lon < -180 || lon > 180 {
			return nil, fmt.Errorf("%w: longitude %v out of range", ErrInvalidLocation, lon)
		}
		return Coordinates{Latitude: lat, Longitude: lon}, nil
	default:
		return nil, fmt.Errorf("%w: no city, address or coordinates given", ErrInvalidLocation)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escape makes a field safe for use between "_" separators in a file name.
// QueryEscape leaves "_", "." and "~" alone, so those are encoded by hand.
func escape(s string) string {
	s = url.QueryEscape(s)
	return strings.NewReplacer("_", "%5F", ".", "%2E", "~", "%7E").Replace(s)
}
