package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/myprayer/internal/api"
)

// Prayer represents a single prayer with its name and time.
type Prayer struct {
	Name string
	Time time.Time
}

// Day is one calendar day's prayers, in provider emission order.
type Day struct {
	Date     time.Time // midnight of the nominal date, in the payload's timezone
	Prayers  []Prayer
	Hijri    string
	Timezone string
}

// AllPrayerNames lists every prayer/event the API can return, in emission order.
var AllPrayerNames = []string{
	"Fajr", "Sunrise", "Dhuhr", "Asr", "Sunset", "Maghrib", "Isha",
	"Imsak", "Midnight", "Firstthird", "Lastthird",
}

// DefaultPrayerNames are the prayers tracked by default.
var DefaultPrayerNames = []string{
	"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha",
}

// ShortNames maps full prayer names to short abbreviations.
var ShortNames = map[string]string{
	"Fajr":       "F",
	"Sunrise":    "S",
	"Dhuhr":      "D",
	"Asr":        "A",
	"Sunset":     "St",
	"Maghrib":    "M",
	"Isha":       "I",
	"Imsak":      "Im",
	"Midnight":   "Mi",
	"Firstthird": "F3",
	"Lastthird":  "L3",
}

// IsValidName reports whether name is a prayer the API can return.
func IsValidName(name string) bool {
	_, ok := ShortNames[name]
	return ok
}

// ResolveTimings turns one day's raw timings into dated prayers.
//
// Only names in selected are kept, and they keep the provider's order.
// Filtering happens first so that a skipped entry never takes part in the
// rollover comparison. Once a time-of-day goes backwards relative to the
// previous emitted prayer, that prayer and every later one is moved to the
// next calendar day (Midnight and Lastthird usually fall after 00:00).
func ResolveTimings(timings api.Timings, date time.Time, loc *time.Location, selected []string) ([]Prayer, error) {
	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		want[name] = true
	}

	var (
		prayers []Prayer
		last    time.Time
		rolled  bool
	)
	for _, t := range timings {
		if !want[t.Name] {
			continue
		}

		candidate, err := parseTimeStr(t.Value, date, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s (%q): %w", t.Name, t.Value, err)
		}

		if !last.IsZero() && candidate.Before(last) {
			rolled = true
		}
		if rolled {
			candidate = candidate.AddDate(0, 0, 1)
		}

		prayers = append(prayers, Prayer{Name: t.Name, Time: candidate})
		last = candidate
	}

	return prayers, nil
}

// Next returns the first prayer strictly after now, or nil if all have passed.
func (d *Day) Next(now time.Time) *Prayer {
	for i := range d.Prayers {
		if d.Prayers[i].Time.After(now) {
			return &d.Prayers[i]
		}
	}
	return nil
}

// Current returns the most recent prayer at or before now, or nil if none has started.
func (d *Day) Current(now time.Time) *Prayer {
	var current *Prayer
	for i := range d.Prayers {
		if d.Prayers[i].Time.After(now) {
			break
		}
		current = &d.Prayers[i]
	}
	return current
}

// HasPassed reports whether the day's last prayer is at or before now.
// A day with no prayers has nothing left and counts as passed.
func (d *Day) HasPassed(now time.Time) bool {
	if len(d.Prayers) == 0 {
		return true
	}
	return !d.Prayers[len(d.Prayers)-1].Time.After(now)
}

// Get returns the prayer with the given name.
func (d *Day) Get(name string) *Prayer {
	for i := range d.Prayers {
		if d.Prayers[i].Name == name {
			return &d.Prayers[i]
		}
	}
	return nil
}

// TimeRemaining returns the duration until the given prayer time.
func TimeRemaining(p Prayer, now time.Time) time.Duration {
	return p.Time.Sub(now)
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// parseTimeStr parses "15:02" or "15:02 (BST)" on the given date in loc.
func parseTimeStr(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.IndexByte(s, ' '); idx != -1 {
		s = s[:idx]
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in %q", raw)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc), nil
}
