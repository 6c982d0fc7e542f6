package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/myprayer/internal/display"
	"github.com/smokyabdulrahman/myprayer/internal/prayer"
)

// runDay shows one day's schedule, today unless --day/--month/--year say
// otherwise.
func (a *app) runDay(cmd *cobra.Command, args []string) error {
	if a.opts.json && a.opts.machine {
		return errors.New("--json and --machine cannot be used together")
	}

	sess, err := a.newSession(cmd)
	if err != nil {
		return err
	}

	now := a.clock(sess)

	d, err := a.resolveDay(cmd, sess, now)
	if err != nil {
		return err
	}

	if a.opts.machine {
		return writeMachine(cmd.OutOrStdout(), d, sess.timeLayout)
	}

	var next *prayer.Prayer
	if isToday(d.Date, now) {
		next = d.Next(now)
	}

	if a.opts.json {
		out := newDayJSON(sess.heading, d, sess.timeLayout)
		if next != nil {
			out.Next = newNextJSON(*next, now, sess.timeLayout)
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	_, err = fmt.Fprint(w, display.Day(display.NewPalette(w), sess.heading, d, next, now, sess.timeLayout))
	return err
}

// resolveDay resolves the day the date flags name, filling unset parts from
// the current date. Without any date flag it asks for today at the location.
func (a *app) resolveDay(cmd *cobra.Command, sess *session, now time.Time) (*prayer.Day, error) {
	flags := cmd.Flags()
	if !anyFlagSet(flags, "day", "month", "year") {
		return sess.engine.ResolveToday(cmd.Context(), sess.req, now)
	}

	year, month, day := now.Date()
	if v, _ := flags.GetInt("day"); flags.Changed("day") {
		day = v
	}
	if v, _ := flags.GetInt("month"); flags.Changed("month") {
		if v < 1 || v > 12 {
			return nil, fmt.Errorf("invalid month %d: must be between 1 and 12", v)
		}
		month = time.Month(v)
	}
	if v, _ := flags.GetInt("year"); flags.Changed("year") {
		year = v
	}
	return sess.engine.ResolveDay(cmd.Context(), sess.req, day, int(month), year)
}

// isToday reports whether now falls on date's calendar day in date's zone.
func isToday(date, now time.Time) bool {
	y1, m1, d1 := date.Date()
	y2, m2, d2 := now.In(date.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
