package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Built-in display modes for a single upcoming prayer.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
	FormatMachine            = "machine"
)

// builtinFormats maps each mode to the template it expands to.
var builtinFormats = map[string]string{
	FormatTimeRemaining:      "{{.Remaining}}",
	FormatNextPrayerTime:     "{{.Time}}",
	FormatNameAndTime:        "{{.Name}} {{.Time}}",
	FormatNameAndRemaining:   "{{.Name}} {{.Remaining}}",
	FormatShortNameAndTime:   "{{.ShortName}} {{.Time}}",
	FormatShortNameAndRemain: "{{.ShortName}} {{.Remaining}}",
	FormatFull:               "{{.Name}} {{.Time}} ({{.Remaining}})",
	FormatMachine:            `{{.Name}},{{.Time}},{{.Date}},{{printf "%02dH%02dM" .Hours .Minutes}}`,
}

// FormatModes lists the built-in mode names.
var FormatModes = []string{
	FormatTimeRemaining, FormatNextPrayerTime, FormatNameAndTime, FormatNameAndRemaining,
	FormatShortNameAndTime, FormatShortNameAndRemain, FormatFull, FormatMachine,
}

// FormatData is the data available to format templates.
type FormatData struct {
	Name      string // "Asr"
	ShortName string // "A"
	Time      string // "15:02" or "3:02 PM"
	Date      string // "2026-02-28", the prayer's own date
	Remaining string // "2h 15m"
	Hours     int
	Minutes   int
}

// FormatOutput renders p relative to now.
//
// mode is either a built-in mode name or, when it contains "{{", a custom Go
// template over FormatData. Unknown modes fall back to name-and-time.
// timeFormat is a Go layout such as "15:04" or "3:04 PM".
func FormatOutput(p Prayer, now time.Time, mode string, timeFormat string) string {
	d := TimeRemaining(p, now)
	if d < 0 {
		d = 0
	}
	data := FormatData{
		Name:      p.Name,
		ShortName: ShortNames[p.Name],
		Time:      p.Time.Format(timeFormat),
		Date:      p.Time.Format("2006-01-02"),
		Remaining: FormatRemaining(d),
		Hours:     int(d.Hours()),
		Minutes:   int(d.Minutes()) % 60,
	}

	tmpl := mode
	if !strings.Contains(mode, "{{") {
		var ok bool
		if tmpl, ok = builtinFormats[mode]; !ok {
			tmpl = builtinFormats[FormatNameAndTime]
		}
	}
	return execTemplate(tmpl, data)
}

func execTemplate(text string, data FormatData) string {
	t, err := template.New("format").Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}
	return buf.String()
}
