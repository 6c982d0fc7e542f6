// Package schedule resolves prayer schedules for a location: it fetches
// monthly calendars through a file cache, turns days into dated prayers and
// walks forward across day, month and year boundaries to find the next one.
package schedule

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/myprayer/internal/api"
	"github.com/smokyabdulrahman/myprayer/internal/cache"
	"github.com/smokyabdulrahman/myprayer/internal/location"
)

// Provider fetches a month of raw calendar data from the remote source.
// *api.Client satisfies it.
type Provider interface {
	FetchCalendar(ctx context.Context, loc location.Location, month, year, method int) ([]byte, error)
}

// Store persists raw monthly payloads. *cache.Store satisfies it.
type Store interface {
	Get(loc location.Location, month, year, method int) ([]byte, error)
	Put(loc location.Location, month, year, method int, payload []byte) error
}

// Fetcher returns monthly calendars from the store, or from the provider on
// a miss or when forced.
type Fetcher struct {
	provider Provider
	store    Store
	logger   zerolog.Logger
}

// NewFetcher creates a Fetcher. store may be nil to disable caching.
func NewFetcher(provider Provider, store Store, logger zerolog.Logger) *Fetcher {
	return &Fetcher{provider: provider, store: store, logger: logger}
}

// ResolveMonth returns the calendar for (loc, month, year, method).
//
// With force set the cache is not read, but a successful fetch is still
// written back. Provider failures are returned unchanged as *api.ProviderError.
func (f *Fetcher) ResolveMonth(ctx context.Context, loc location.Location, month, year, method int, force bool) (*Month, error) {
	logger := f.logger.With().
		Str("location", loc.String()).
		Int("month", month).
		Int("year", year).
		Int("method", method).
		Logger()

	if !force && f.store != nil {
		if m, ok := f.fromStore(logger, loc, month, year, method); ok {
			return m, nil
		}
	}

	logger.Debug().Bool("force", force).Msg("[fetcher] fetching from provider")
	raw, err := f.provider.FetchCalendar(ctx, loc, month, year, method)
	if err != nil {
		return nil, err
	}

	m, err := NewMonth(month, year, raw)
	if err != nil {
		return nil, &api.ProviderError{
			Kind:     api.ErrFetchFailed,
			Message:  "undecodable calendar",
			Location: loc.String(),
			Month:    month,
			Year:     year,
			Err:      err,
		}
	}

	if f.store != nil {
		if err := f.store.Put(loc, month, year, method, raw); err != nil {
			logger.Warn().Err(err).Msg("[fetcher] failed to write cache")
		}
	}

	return m, nil
}

func (f *Fetcher) fromStore(logger zerolog.Logger, loc location.Location, month, year, method int) (*Month, bool) {
	raw, err := f.store.Get(loc, month, year, method)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			logger.Warn().Err(err).Msg("[fetcher] cache read failed")
		} else {
			logger.Debug().Msg("[fetcher] cache miss")
		}
		return nil, false
	}

	m, err := NewMonth(month, year, raw)
	if err != nil {
		logger.Warn().Err(err).Msg("[fetcher] ignoring corrupt cache entry")
		return nil, false
	}

	logger.Debug().Int("days", m.DaysInMonth()).Msg("[fetcher] cache hit")
	return m, true
}
