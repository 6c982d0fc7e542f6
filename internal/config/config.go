// Package config provides persistent configuration for the myprayer CLI.
//
// Configuration is stored as JSON at $XDG_CONFIG_HOME/myprayer/config.json
// and read through viper, with MYPRAYER_<KEY> environment variables taking
// precedence over the file. The merge priority is:
// CLI flags > environment > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/spf13/viper"

	"github.com/smokyabdulrahman/myprayer/internal/location"
	"github.com/smokyabdulrahman/myprayer/internal/prayer"
)

const (
	configDirName  = "myprayer"
	configFileName = "config.json"
	envPrefix      = "MYPRAYER"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country", "state",
	"address",
	"latitude", "longitude",
	"method",
	"time_format",
	"prayers",
	"cache_dir",
}

// Config holds all user-configurable settings.
// Nil pointers and empty strings mean "not set".
type Config struct {
	City       string   `json:"city,omitempty" mapstructure:"city"`
	Country    string   `json:"country,omitempty" mapstructure:"country"`
	State      string   `json:"state,omitempty" mapstructure:"state"`
	Address    string   `json:"address,omitempty" mapstructure:"address"`
	Latitude   *float64 `json:"latitude,omitempty" mapstructure:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude  *float64 `json:"longitude,omitempty" mapstructure:"longitude" validate:"omitempty,min=-180,max=180"`
	Method     *int     `json:"method,omitempty" mapstructure:"method" validate:"omitempty,min=-1"`
	TimeFormat string   `json:"time_format,omitempty" mapstructure:"time_format" validate:"omitempty,oneof=12h 24h"`
	Prayers    string   `json:"prayers,omitempty" mapstructure:"prayers" validate:"omitempty,prayers"` // comma-separated
	CacheDir   string   `json:"cache_dir,omitempty" mapstructure:"cache_dir"`
}

// fieldForKey maps config keys to struct field names for partial validation.
var fieldForKey = map[string]string{
	"latitude":    "Latitude",
	"longitude":   "Longitude",
	"method":      "Method",
	"time_format": "TimeFormat",
	"prayers":     "Prayers",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// RegisterValidation only fails on an empty tag or a baked-in name.
	_ = v.RegisterValidation("prayers", func(fl validator.FieldLevel) bool {
		_, err := ParsePrayers(fl.Field().String())
		return err == nil
	})
	return v
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	method := -1
	return Config{
		Method:     &method,
		TimeFormat: "24h",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file at the default path, applying environment
// overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path and applies MYPRAYER_* environment
// overrides. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	return load(path, true)
}

// ReadFile reads only the config file at path, ignoring the environment.
// Use it when the result will be written back.
func ReadFile(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, withEnv bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if withEnv {
		for _, key := range ValidKeys {
			// BindEnv only errors when called without a key.
			_ = v.BindEnv(key, EnvVar(key))
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}

// Validate checks every set field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return humanize(err)
	}
	return nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating the directory if needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reset deletes the config file at the default path.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return ResetAt(path)
}

// ResetAt deletes the config file at path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set parses value for key and stores it. The change is validated before
// it is applied, so a failed Set leaves c untouched.
func (c *Config) Set(key, value string) error {
	next := *c

	switch key {
	case "city":
		next.City = value
	case "country":
		next.Country = value
	case "state":
		next.State = value
	case "address":
		next.Address = value
	case "latitude", "longitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be a number", key, value)
		}
		if key == "latitude" {
			next.Latitude = &v
		} else {
			next.Longitude = &v
		}
	case "method":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid method %q: must be an integer", value)
		}
		next.Method = &v
	case "time_format":
		next.TimeFormat = value
	case "prayers":
		next.Prayers = value
	case "cache_dir":
		next.CacheDir = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	if field, ok := fieldForKey[key]; ok {
		if err := validate.StructPartial(&next, field); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, humanize(err))
		}
	}

	*c = next
	return nil
}

// Get returns the string value of a config key, or "" when unset.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "state":
		return c.State, nil
	case "address":
		return c.Address, nil
	case "latitude":
		return formatFloat(c.Latitude), nil
	case "longitude":
		return formatFloat(c.Longitude), nil
	case "method":
		if c.Method == nil {
			return "", nil
		}
		return strconv.Itoa(*c.Method), nil
	case "time_format":
		return c.TimeFormat, nil
	case "prayers":
		return c.Prayers, nil
	case "cache_dir":
		return c.CacheDir, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// MethodOrDefault returns the method value, falling back to the given default.
func (c *Config) MethodOrDefault(def int) int {
	if c.Method != nil {
		return *c.Method
	}
	return def
}

// PrayerList returns the configured prayers, or the defaults when unset.
func (c *Config) PrayerList() []string {
	if c.Prayers == "" {
		return prayer.DefaultPrayerNames
	}
	names, err := ParsePrayers(c.Prayers)
	if err != nil {
		return prayer.DefaultPrayerNames
	}
	return names
}

// Location builds the configured location. Latitude and longitude only
// count when both are set.
func (c *Config) Location() (location.Location, error) {
	var lat, lon float64
	hasCoords := c.Latitude != nil && c.Longitude != nil
	if hasCoords {
		lat, lon = *c.Latitude, *c.Longitude
	}
	return location.FromFields(c.City, c.Country, c.State, c.Address, lat, lon, hasCoords)
}

// ParsePrayers splits a comma-separated prayer list and checks every name.
func ParsePrayers(list string) ([]string, error) {
	var names []string
	for _, n := range strings.Split(list, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if !prayer.IsValidName(n) {
			return nil, fmt.Errorf("invalid prayer name %q; valid names: %s", n, strings.Join(prayer.AllPrayerNames, ", "))
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return nil, errors.New("prayer list is empty")
	}
	return names, nil
}

// humanize turns validator errors into a short message per field.
func humanize(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "min", "max":
			bounds := map[string]string{
				"Latitude":  "between -90 and 90",
				"Longitude": "between -180 and 180",
				"Method":    "-1 (provider default) or a provider method ID",
			}
			msgs = append(msgs, fmt.Sprintf("%s must be %s", fe.Field(), bounds[fe.Field()]))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "prayers":
			msgs = append(msgs, fmt.Sprintf("%s must list valid prayer names (%s)", fe.Field(), strings.Join(prayer.AllPrayerNames, ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
