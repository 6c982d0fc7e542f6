package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/myprayer/internal/display"
	"github.com/smokyabdulrahman/myprayer/internal/prayer"
)

func newQueryCmd(a *app) *cobra.Command {
	var days string

	cmd := &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long: "Query a specific prayer time for today, or across multiple days with --days.\n\n" +
			"Valid prayer names: " + strings.Join(prayer.AllPrayerNames, ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := canonicalPrayer(args[0])
			if err != nil {
				return err
			}
			n, err := parseDays(days)
			if err != nil {
				return err
			}
			return a.runQuery(cmd, name, n)
		},
	}

	cmd.Flags().StringVar(&days, "days", "1", "Number of days to show (or 'week'/'month')")

	return cmd
}

// canonicalPrayer matches name case-insensitively against the known prayers.
func canonicalPrayer(name string) (string, error) {
	for _, known := range prayer.AllPrayerNames {
		if strings.EqualFold(known, name) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown prayer %q; valid names: %s", name, strings.Join(prayer.AllPrayerNames, ", "))
}

func parseDays(s string) (int, error) {
	switch s {
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid --days %q: must be a positive integer, 'week' or 'month'", s)
	}
	return n, nil
}

type queryJSON struct {
	Prayer string       `json:"prayer"`
	Times  []timingJSON `json:"times"`
}

func (a *app) runQuery(cmd *cobra.Command, name string, days int) error {
	sess, err := a.newSession(cmd)
	if err != nil {
		return err
	}

	req := sess.req
	req.Prayers = []string{name}

	now := a.clock(sess)
	resolved, err := sess.engine.ResolveRange(cmd.Context(), req, now, days)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if a.opts.json {
		out := queryJSON{Prayer: name, Times: make([]timingJSON, 0, len(resolved))}
		for _, d := range resolved {
			if p := d.Get(name); p != nil {
				out.Times = append(out.Times, timingJSON{
					Name: p.Name,
					Time: p.Time.Format(sess.timeLayout),
					Date: d.Date.Format(time.DateOnly),
				})
			}
		}
		return writeJSON(w, out)
	}

	if days == 1 {
		d := resolved[0]
		p := d.Get(name)
		if p == nil {
			return fmt.Errorf("%s not available for %s", name, d.Date.Format(time.DateOnly))
		}
		_, err = fmt.Fprintf(w, "%s %s\n", name, display.ClockTime(*p, d, sess.timeLayout))
		return err
	}

	_, err = fmt.Fprint(w, display.Range(display.NewPalette(w), resolved, now, sess.timeLayout))
	return err
}
