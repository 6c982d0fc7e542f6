package schedule

import (
	"fmt"
	"time"

	"github.com/smokyabdulrahman/myprayer/internal/api"
	"github.com/smokyabdulrahman/myprayer/internal/prayer"
)

// Month is one resolved calendar month: the raw payload as cached plus its
// decoded daily records.
type Month struct {
	Month int
	Year  int
	Raw   []byte
	Days  []api.Day
}

// NewMonth decodes a raw calendar payload.
func NewMonth(month, year int, raw []byte) (*Month, error) {
	days, err := api.ParseCalendar(raw)
	if err != nil {
		return nil, err
	}
	return &Month{Month: month, Year: year, Raw: raw, Days: days}, nil
}

// DaysInMonth is the number of daily records the provider returned.
func (m *Month) DaysInMonth() int {
	return len(m.Days)
}

// Zone is the timezone the payload's clock times are expressed in. A month
// with no records, or naming an unknown zone, falls back to the local zone.
func (m *Month) Zone() *time.Location {
	if len(m.Days) == 0 {
		return time.Local
	}
	return timezone(m.Days[0].Meta.Timezone)
}

// Day resolves the 1-based day into dated prayers, keeping only the names in
// prayers.
func (m *Month) Day(day int, prayers []string) (*prayer.Day, error) {
	if day < 1 || day > len(m.Days) {
		return nil, &DayOutOfRangeError{
			Requested:   day,
			DaysInMonth: len(m.Days),
			Month:       m.Month,
			Year:        m.Year,
		}
	}

	rec := m.Days[day-1]
	loc := timezone(rec.Meta.Timezone)
	date := time.Date(m.Year, time.Month(m.Month), day, 0, 0, 0, 0, loc)

	resolved, err := prayer.ResolveTimings(rec.Timings, date, loc, prayers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", date.Format("2006-01-02"), err)
	}

	return &prayer.Day{
		Date:     date,
		Prayers:  resolved,
		Hijri:    rec.Date.Hijri.Format(),
		Timezone: loc.String(),
	}, nil
}

// timezone loads the payload's IANA zone, falling back to the local zone.
func timezone(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
