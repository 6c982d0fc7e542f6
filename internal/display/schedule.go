package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/myprayer/internal/prayer"
)

// Day renders one day's schedule under heading. Prayers at or before now are
// dimmed; next, when set, is highlighted with a countdown. Prayers that fall
// after midnight of the nominal date are marked "+1".
func Day(p Palette, heading string, d *prayer.Day, next *prayer.Prayer, now time.Time, timeFormat string) string {
	var sb strings.Builder

	sb.WriteString("\n  " + p.Bold(heading) + "\n")
	dateLine := d.Date.Format("Mon 02 Jan 2006")
	if d.Hijri != "" {
		dateLine += " | " + d.Hijri
	}
	sb.WriteString("  " + dateLine + "\n")
	if d.Timezone != "" {
		sb.WriteString("  " + p.Muted(d.Timezone) + "\n")
	}
	sb.WriteString("\n")

	width := 0
	for _, pr := range d.Prayers {
		width = max(width, len(pr.Name))
	}

	for _, pr := range d.Prayers {
		line := fmt.Sprintf("  %-*s  %s", width, pr.Name, ClockTime(pr, d, timeFormat))

		switch {
		case next != nil && pr.Name == next.Name && pr.Time.Equal(next.Time):
			remaining := prayer.FormatRemaining(prayer.TimeRemaining(pr, now))
			sb.WriteString(p.Accent(line+"  <- next in "+remaining) + "\n")
		case !pr.Time.After(now):
			sb.WriteString(p.Dim(line) + "\n")
		default:
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString("\n")

	return sb.String()
}

// ClockTime formats a prayer's time of day, adding "(+1)" when it belongs to
// the day after d's nominal date.
func ClockTime(pr prayer.Prayer, d *prayer.Day, timeFormat string) string {
	s := pr.Time.Format(timeFormat)
	if dayAfter(d.Date, pr.Time) {
		s += " (+1)"
	}
	return s
}

func dayAfter(date, t time.Time) bool {
	t = t.In(date.Location())
	y1, m1, d1 := date.Date()
	y2, m2, d2 := t.Date()
	return y2 > y1 || (y2 == y1 && (m2 > m1 || (m2 == m1 && d2 > d1)))
}

// Range renders several days as a grid, one row per day. The row for now's
// calendar date is highlighted.
func Range(p Palette, days []*prayer.Day, now time.Time, timeFormat string) string {
	if len(days) == 0 {
		return ""
	}

	headers := []string{"Date"}
	for _, pr := range days[0].Prayers {
		headers = append(headers, pr.Name)
	}
	tbl := NewTable(p, headers...)

	for i, d := range days {
		cells := []string{d.Date.Format("Mon 02 Jan")}
		for _, pr := range d.Prayers {
			cells = append(cells, ClockTime(pr, d, timeFormat))
		}
		tbl.AddRow(cells...)

		if sameDate(d.Date, now) {
			tbl.Highlight(i)
		}
	}
	return tbl.Render()
}

func sameDate(date, t time.Time) bool {
	t = t.In(date.Location())
	y1, m1, d1 := date.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
