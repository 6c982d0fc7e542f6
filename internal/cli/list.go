package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/myprayer/internal/display"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days starting today (default: 7, at most 62).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := 7
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid number of days: %q (must be a positive integer)", args[0])
				}
				days = n
			}
			return a.runList(cmd, days)
		},
	}
}

func newWeekCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, 7)
		},
	}
}

func newMonthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, 30)
		},
	}
}

func (a *app) runList(cmd *cobra.Command, days int) error {
	sess, err := a.newSession(cmd)
	if err != nil {
		return err
	}

	now := a.clock(sess)
	resolved, err := sess.engine.ResolveRange(cmd.Context(), sess.req, now, days)
	if err != nil {
		return err
	}

	if a.opts.json {
		out := make([]dayJSON, 0, len(resolved))
		for _, d := range resolved {
			out = append(out, newDayJSON("", d, sess.timeLayout))
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	p := display.NewPalette(w)
	_, err = fmt.Fprintf(w, "\n  %s\n\n%s\n", p.Bold(sess.heading), display.Range(p, resolved, now, sess.timeLayout))
	return err
}
