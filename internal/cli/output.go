package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/smokyabdulrahman/myprayer/internal/prayer"
	"github.com/smokyabdulrahman/myprayer/internal/schedule"
)

// dayJSON is the JSON form of one resolved day.
type dayJSON struct {
	Location string       `json:"location,omitempty"`
	Date     string       `json:"date"`
	Hijri    string       `json:"hijri,omitempty"`
	Timezone string       `json:"timezone"`
	Timings  []timingJSON `json:"timings"`
	Next     *nextJSON    `json:"next,omitempty"`
}

// timingJSON keeps provider order, which a map would lose.
type timingJSON struct {
	Name string `json:"name"`
	Time string `json:"time"`
	Date string `json:"date"` // differs from the day's date after midnight rollover
}

type nextJSON struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Date      string `json:"date"`
	Remaining string `json:"remaining"`
	Seconds   int64  `json:"seconds"`
}

func newDayJSON(location string, d *prayer.Day, layout string) dayJSON {
	out := dayJSON{
		Location: location,
		Date:     d.Date.Format(time.DateOnly),
		Hijri:    d.Hijri,
		Timezone: d.Timezone,
		Timings:  make([]timingJSON, 0, len(d.Prayers)),
	}
	for _, p := range d.Prayers {
		out.Timings = append(out.Timings, timingJSON{
			Name: p.Name,
			Time: p.Time.Format(layout),
			Date: p.Time.Format(time.DateOnly),
		})
	}
	return out
}

func newNextJSON(p prayer.Prayer, now time.Time, layout string) *nextJSON {
	remaining := max(prayer.TimeRemaining(p, now), 0)
	return &nextJSON{
		Prayer:    p.Name,
		Time:      p.Time.Format(layout),
		Date:      p.Time.Format(time.DateOnly),
		Remaining: prayer.FormatRemaining(remaining),
		Seconds:   int64(remaining / time.Second),
	}
}

// waybarJSON is the payload of a Waybar custom module with return-type json.
type waybarJSON struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
	Alt     string `json:"alt"`
}

// newWaybarJSON shows the countdown in the bar and the whole schedule of the
// next prayer's day in the tooltip.
func newWaybarJSON(next *schedule.NextPrayer, now time.Time, layout string) waybarJSON {
	remaining := prayer.FormatRemaining(max(prayer.TimeRemaining(next.Prayer, now), 0))

	var tooltip strings.Builder
	tooltip.WriteString(next.Day.Date.Format("Monday, January 02"))
	tooltip.WriteString("\n")
	for _, p := range next.Day.Prayers {
		fmt.Fprintf(&tooltip, "\n%s: %s", p.Name, p.Time.Format(layout))
	}

	return waybarJSON{
		Text:    remaining,
		Tooltip: tooltip.String(),
		Class:   strings.ToLower(next.Prayer.Name),
		Alt:     next.Prayer.Name + ": " + remaining,
	}
}

// writeWaybar writes v on a single line, as Waybar reads one object per line.
func writeWaybar(w io.Writer, v waybarJSON) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// writeMachine prints one "name,time,date" line per prayer.
func writeMachine(w io.Writer, d *prayer.Day, layout string) error {
	var b strings.Builder
	for _, p := range d.Prayers {
		fmt.Fprintf(&b, "%s,%s,%s\n", p.Name, p.Time.Format(layout), p.Time.Format(time.DateOnly))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
