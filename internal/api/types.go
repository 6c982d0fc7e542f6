package api

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// envelope is the top-level Al Adhan response. Data is kept raw so the
// calendar array can be cached byte for byte.
type envelope struct {
	Code    int             `json:"code"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Day is one daily record of a calendar payload.
type Day struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timing is a single named time as emitted by the provider, e.g. "Fajr" / "05:17 (EET)".
type Timing struct {
	Name  string
	Value string
}

// Timings keeps the provider's emission order. Rollover detection walks the
// entries in this order, so it must never be rebuilt from a map.
type Timings []Timing

// Get returns the raw value for name.
func (t Timings) Get(name string) (string, bool) {
	for _, e := range t {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// Names returns the timing names in emission order.
func (t Timings) Names() []string {
	names := make([]string, len(t))
	for i, e := range t {
		names[i] = e.Name
	}
	return names
}

// UnmarshalJSON decodes a JSON object into Timings, preserving key order.
func (t *Timings) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("timings: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("timings: expected object, got %v", tok)
	}

	out := Timings{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("timings: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("timings: unexpected key %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("timings: value for %s: %w", name, err)
		}
		value, ok := valTok.(string)
		if !ok {
			return fmt.Errorf("timings: value for %s is not a string: %v", name, valTok)
		}
		out = append(out, Timing{Name: name, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("timings: %w", err)
	}

	*t = out
	return nil
}

// MarshalJSON encodes Timings as a JSON object in emission order.
func (t Timings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DateInfo contains date representations.
type DateInfo struct {
	Readable  string        `json:"readable"` // "15 Jun 2024"
	Timestamp string        `json:"timestamp"`
	Hijri     HijriDate     `json:"hijri"`
	Gregorian GregorianDate `json:"gregorian"`
}

// HijriDate represents the Hijri (Islamic) date from the API response.
type HijriDate struct {
	Date        string           `json:"date"`
	Day         string           `json:"day"`
	Month       HijriMonth       `json:"month"`
	Year        string           `json:"year"`
	Designation HijriDesignation `json:"designation"`
}

type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"`
	Ar     string `json:"ar"`
}

type HijriDesignation struct {
	Abbreviated string `json:"abbreviated"`
	Expanded    string `json:"expanded"`
}

// Format returns the Hijri date as "DD MonthName YYYY AH", or "" when incomplete.
func (h HijriDate) Format() string {
	if h.Day == "" || h.Month.En == "" || h.Year == "" {
		return ""
	}
	abbr := h.Designation.Abbreviated
	if abbr == "" {
		abbr = "AH"
	}
	return h.Day + " " + h.Month.En + " " + h.Year + " " + abbr
}

type GregorianDate struct {
	Date string `json:"date"` // "15-06-2024"
	Day  string `json:"day"`
	Year string `json:"year"`
}

// Meta contains request metadata returned by the API.
type Meta struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Method    MethodInfo `json:"method"`
	School    string     `json:"school"`
}

// MethodInfo identifies the calculation method used.
type MethodInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ParseCalendar decodes a cached or freshly fetched calendar payload.
func ParseCalendar(payload []byte) ([]Day, error) {
	var days []Day
	if err := json.Unmarshal(payload, &days); err != nil {
		return nil, fmt.Errorf("failed to decode calendar payload: %w", err)
	}
	return days, nil
}
