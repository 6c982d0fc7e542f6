package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/myprayer/internal/prayer"
)

// formatWaybar prints a Waybar custom module object instead of plain text.
const formatWaybar = "waybar"

func newNextCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long: "Display the next upcoming prayer time with a countdown.\n" +
			"Crosses into tomorrow, next month and next year as needed. Suited to status bars.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNext(cmd, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", prayer.FormatFull,
		"Display format: "+strings.Join(prayer.FormatModes, ", ")+", "+formatWaybar+", or a custom Go template")

	return cmd
}

func (a *app) runNext(cmd *cobra.Command, format string) error {
	sess, err := a.newSession(cmd)
	if err != nil {
		return err
	}

	now := a.clock(sess)
	next, err := sess.engine.ResolveNext(cmd.Context(), sess.req, now)
	if err != nil {
		return err
	}
	if next == nil {
		return errors.New("no upcoming prayer among " + strings.Join(sess.req.Prayers, ", "))
	}

	if a.opts.json {
		return writeJSON(cmd.OutOrStdout(), newNextJSON(next.Prayer, now, sess.timeLayout))
	}

	if format == formatWaybar {
		return writeWaybar(cmd.OutOrStdout(), newWaybarJSON(next, now, sess.timeLayout))
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(next.Prayer, now, format, sess.timeLayout))
	return err
}
