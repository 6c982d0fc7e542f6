// Package cli implements the myprayer command line on top of the schedule
// engine.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/myprayer/internal/api"
	"github.com/smokyabdulrahman/myprayer/internal/cache"
	"github.com/smokyabdulrahman/myprayer/internal/config"
	"github.com/smokyabdulrahman/myprayer/internal/geo"
	"github.com/smokyabdulrahman/myprayer/internal/location"
	"github.com/smokyabdulrahman/myprayer/internal/logging"
	"github.com/smokyabdulrahman/myprayer/internal/schedule"
)

// options holds the global flags shared across all subcommands.
type options struct {
	configPath string
	city       string
	country    string
	state      string
	address    string
	latitude   float64
	longitude  float64
	method     int
	prayers    string
	timeFormat string
	cacheDir   string
	json       bool
	machine    bool
	force      bool
	detect     bool
	verbose    bool
	timeout    time.Duration
	apiURL     string
}

// app carries per-invocation state. Nothing here outlives one Execute call.
type app struct {
	version string
	now     func() time.Time
	opts    options
	cfg     *config.Config // loaded in PersistentPreRunE
	logger  zerolog.Logger
}

// annotationNoConfig marks commands that run even when the config file
// cannot be loaded.
const annotationNoConfig = "myprayer/no-config"

// locationFlags are the flags that replace the configured location as a whole.
var locationFlags = []string{"city", "country", "state", "address", "latitude", "longitude"}

// NewRootCmd creates the root command for the myprayer CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(&app{version: version, now: time.Now})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "myprayer",
		Short: "Islamic prayer times CLI",
		Long: "Prayer times for any city, address or coordinates, powered by the Al Adhan API.\n" +
			"Monthly calendars are cached on disk; use --force to refetch.",
		Version:           a.version,
		PersistentPreRunE: a.setup,
		// Default action: show today's prayer schedule.
		RunE:          a.runDay,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.opts.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/myprayer/config.json)")
	pf.StringVar(&a.opts.city, "city", "", "City name (takes precedence over config)")
	pf.StringVar(&a.opts.country, "country", "", "Country name or code (required with --city)")
	pf.StringVar(&a.opts.state, "state", "", "State or province (optional, with --city)")
	pf.StringVar(&a.opts.address, "address", "", "Free-form address")
	pf.Float64Var(&a.opts.latitude, "latitude", 0, "Latitude (with --longitude)")
	pf.Float64Var(&a.opts.longitude, "longitude", 0, "Longitude (with --latitude)")
	pf.IntVar(&a.opts.method, "method", -1, "Calculation method ID (see 'methods'); -1 lets the API choose")
	pf.StringVar(&a.opts.prayers, "prayers", "", "Comma-separated prayers to show (overrides config)")
	pf.StringVar(&a.opts.timeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&a.opts.cacheDir, "cache-dir", "", "Cache directory (default: $XDG_CACHE_HOME/myprayer)")
	pf.BoolVar(&a.opts.json, "json", false, "Output as JSON")
	pf.BoolVarP(&a.opts.force, "force", "f", false, "Ignore cached calendars and refetch")
	pf.BoolVar(&a.opts.detect, "detect", false, "Detect location from your IP address")
	pf.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Log cache and network activity to stderr")
	pf.DurationVar(&a.opts.timeout, "timeout", 10*time.Second, "HTTP request timeout")
	pf.StringVar(&a.opts.apiURL, "api-url", "", "Prayer times API base URL")
	_ = pf.MarkHidden("api-url")

	f := rootCmd.Flags()
	f.Int("day", 0, "Day of month (default: today)")
	f.Int("month", 0, "Month 1-12 (default: this month)")
	f.Int("year", 0, "Year (default: this year)")
	f.BoolVar(&a.opts.machine, "machine", false, "Print one name,time,date line per prayer")

	rootCmd.AddCommand(newNextCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newWeekCmd(a))
	rootCmd.AddCommand(newMonthCmd(a))
	rootCmd.AddCommand(newQueryCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newMethodsCmd())

	return rootCmd
}

// setup runs before every command: logging first, then the config file.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.logger = logging.New(cmd.ErrOrStderr(), a.opts.verbose)

	path, err := a.configPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		// Commands that repair or locate a broken file must still run.
		if cmd.Annotations[annotationNoConfig] == "true" {
			a.logger.Debug().Err(err).Msg("[cli] ignoring unreadable config")
			a.cfg = &config.Config{}
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.logger.Debug().Str("path", path).Msg("[cli] config loaded")
	return nil
}

func (a *app) configPath() (string, error) {
	if a.opts.configPath != "" {
		return a.opts.configPath, nil
	}
	return config.Path()
}

// effectiveConfig returns the merged configuration values, applying the
// priority CLI flags > environment > config file > defaults. It uses
// cobra's Changed() to detect whether a flag was explicitly set.
func (a *app) effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Config{}
	if a.cfg != nil {
		cfg = *a.cfg
	}
	defaults := config.Defaults()
	flags := cmd.Flags()

	set := func(name string) bool { return anyFlagSet(flags, name) }

	if anyFlagSet(flags, locationFlags...) {
		cfg.City, cfg.Country, cfg.State, cfg.Address = "", "", "", ""
		cfg.Latitude, cfg.Longitude = nil, nil
	}
	if set("city") {
		cfg.City = a.opts.city
	}
	if set("country") {
		cfg.Country = a.opts.country
	}
	if set("state") {
		cfg.State = a.opts.state
	}
	if set("address") {
		cfg.Address = a.opts.address
	}
	if set("latitude") {
		cfg.Latitude = &a.opts.latitude
	}
	if set("longitude") {
		cfg.Longitude = &a.opts.longitude
	}

	if set("method") {
		cfg.Method = &a.opts.method
	} else if cfg.Method == nil {
		cfg.Method = defaults.Method
	}
	if set("prayers") {
		cfg.Prayers = a.opts.prayers
	}
	if set("cache-dir") {
		cfg.CacheDir = a.opts.cacheDir
	}
	if set("time-format") {
		cfg.TimeFormat = a.opts.timeFormat
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = defaults.TimeFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// anyFlagSet reports whether any of the named flags was explicitly set.
func anyFlagSet(flags *pflag.FlagSet, names ...string) bool {
	for _, name := range names {
		if f := flags.Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}

// session is everything a command needs to run one resolution.
type session struct {
	req        schedule.Request
	engine     *schedule.Engine
	heading    string         // human-readable location
	zone       *time.Location // detected zone; nil means the local zone
	timeLayout string         // Go layout for clock times
}

// place is a resolved query location.
type place struct {
	loc     location.Location
	heading string
	zone    *time.Location
}

// newSession resolves the effective config, the location and the engine.
func (a *app) newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := a.effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := cache.New(cfg.CacheDir, a.logger)
	if err != nil {
		return nil, fmt.Errorf("cache unavailable: %w", err)
	}

	pl, err := a.resolveLocation(cmd.Context(), cfg, store)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(
		api.WithTimeout(a.opts.timeout),
		api.WithLogger(a.logger),
		api.WithBaseURL(a.opts.apiURL),
	)
	fetcher := schedule.NewFetcher(client, store, a.logger)

	layout := "15:04"
	if cfg.TimeFormat == "12h" {
		layout = "3:04 PM"
	}

	return &session{
		req: schedule.Request{
			Location: pl.loc,
			Method:   cfg.MethodOrDefault(-1),
			Prayers:  cfg.PrayerList(),
			Force:    a.opts.force,
		},
		engine:     schedule.NewEngine(fetcher, a.logger),
		heading:    pl.heading,
		zone:       pl.zone,
		timeLayout: layout,
	}, nil
}

// resolveLocation picks the location to query. With --detect the IP
// geolocation (cached for a day) is used; otherwise the configured location
// must be complete.
func (a *app) resolveLocation(ctx context.Context, cfg *config.Config, store *cache.Store) (place, error) {
	if !a.opts.detect {
		loc, err := cfg.Location()
		if err != nil {
			if errors.Is(err, location.ErrInvalidLocation) {
				return place{}, fmt.Errorf("%w\nset one with 'myprayer config set city <city>' and 'country', pass --city/--country, --address or --latitude/--longitude, or use --detect", err)
			}
			return place{}, err
		}
		return place{loc: loc, heading: loc.String()}, nil
	}

	detected := store.LoadGeo()
	if detected == nil {
		var err error
		detected, err = geo.DetectLocation(ctx)
		if err != nil {
			return place{}, fmt.Errorf("location auto-detection failed: %w", err)
		}
		if err := store.SaveGeo(detected); err != nil {
			a.logger.Warn().Err(err).Msg("[cli] failed to cache detected location")
		}
	}
	a.logger.Debug().Str("city", detected.City).Str("country", detected.Country).Msg("[cli] using detected location")

	pl := place{loc: detected.Coordinates(), heading: detected.Coordinates().String()}
	if detected.City != "" && detected.Country != "" {
		pl.heading = detected.City + ", " + detected.Country
	}
	if detected.Timezone != "" {
		if zone, err := time.LoadLocation(detected.Timezone); err == nil {
			pl.zone = zone
		}
	}
	return pl, nil
}

// clock returns the current time, anchored to the detected zone when known.
func (a *app) clock(s *session) time.Time {
	now := a.now()
	if s.zone != nil {
		now = now.In(s.zone)
	}
	return now
}
