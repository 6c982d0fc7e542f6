package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smokyabdulrahman/myprayer/internal/location"
	"github.com/smokyabdulrahman/myprayer/internal/prayer"
)

// maxRangeDays bounds ResolveRange so a typo cannot trigger a year of fetches.
const maxRangeDays = 62

// Request describes one resolution. It is passed by value and never mutated
// by the engine.
type Request struct {
	Location location.Location
	Method   int      // -1 lets the provider choose
	Prayers  []string // prayers of interest, matched against provider names
	Force    bool     // bypass cache reads for every month this request touches
}

func (r Request) validate() error {
	if r.Location == nil {
		return fmt.Errorf("%w: no location given", location.ErrInvalidLocation)
	}
	return nil
}

// NextPrayer is the upcoming prayer together with the day it belongs to.
type NextPrayer struct {
	Prayer prayer.Prayer
	Day    *prayer.Day
}

// Engine answers day and next-prayer queries on top of a Fetcher.
type Engine struct {
	fetcher *Fetcher
	logger  zerolog.Logger
}

// NewEngine creates an Engine.
func NewEngine(fetcher *Fetcher, logger zerolog.Logger) *Engine {
	return &Engine{fetcher: fetcher, logger: logger}
}

// ResolveDay returns the prayers of interest for the given calendar day.
func (e *Engine) ResolveDay(ctx context.Context, req Request, day, month, year int) (*prayer.Day, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	m, err := e.fetcher.ResolveMonth(ctx, req.Location, month, year, req.Method, req.Force)
	if err != nil {
		return nil, err
	}
	return m.Day(day, req.Prayers)
}

// ResolveToday returns the prayers of interest for now's calendar date at
// the location, which is the date in the payload's zone rather than now's.
func (e *Engine) ResolveToday(ctx context.Context, req Request, now time.Time) (*prayer.Day, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	m, day, err := e.localDate(ctx, newMonthSet(e, req), now)
	if err != nil {
		return nil, err
	}
	return m.Day(day, req.Prayers)
}

// ResolveNext returns the first prayer strictly after now.
//
// The search starts on now's calendar date at the location. When every
// prayer of that day is at or before now, it moves to the following day,
// fetching the next month (and year) when the day was the last of its month.
// A nil result with a nil error means no upcoming prayer was found.
func (e *Engine) ResolveNext(ctx context.Context, req Request, now time.Time) (*NextPrayer, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	set := newMonthSet(e, req)
	m, day, err := e.localDate(ctx, set, now)
	if err != nil {
		return nil, err
	}
	today, err := m.Day(day, req.Prayers)
	if err != nil {
		return nil, err
	}

	if today.HasPassed(now) {
		if day < m.DaysInMonth() {
			day++
		} else {
			day = 1
			month, year := nextMonth(m.Month, m.Year)
			e.logger.Debug().Int("month", month).Int("year", year).Msg("[engine] day passed, moving to next month")

			m, err = set.get(ctx, month, year)
			if err != nil {
				return nil, err
			}
		}

		today, err = m.Day(day, req.Prayers)
		if err != nil {
			return nil, err
		}
	}

	next := today.Next(now)
	if next == nil {
		e.logger.Debug().Str("date", today.Date.Format("2006-01-02")).Msg("[engine] no upcoming prayer")
		return nil, nil
	}
	return &NextPrayer{Prayer: *next, Day: today}, nil
}

// ResolveRange returns count consecutive days starting at start's calendar
// date at the location. Each month in the range is fetched once; distinct
// months are fetched concurrently.
func (e *Engine) ResolveRange(ctx context.Context, req Request, start time.Time, count int) ([]*prayer.Day, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if count < 1 || count > maxRangeDays {
		return nil, fmt.Errorf("day count must be between 1 and %d, got %d", maxRangeDays, count)
	}

	set := newMonthSet(e, req)
	m, day, err := e.localDate(ctx, set, start)
	if err != nil {
		return nil, err
	}

	first := time.Date(m.Year, time.Month(m.Month), day, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, count)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, i)
	}

	var keys []calendarKey
	seen := make(map[calendarKey]bool)
	for _, d := range dates {
		k := calendarKey{int(d.Month()), d.Year()}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			_, err := set.get(gCtx, k.month, k.year)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	days := make([]*prayer.Day, 0, count)
	for _, d := range dates {
		m, err := set.get(ctx, int(d.Month()), d.Year())
		if err != nil {
			return nil, err
		}
		pd, err := m.Day(d.Day(), req.Prayers)
		if err != nil {
			return nil, err
		}
		days = append(days, pd)
	}
	return days, nil
}

// localDate finds the month and day of now's calendar date in the payload's
// zone. The month is first looked up by now's own date; when the payload
// zone puts now on another month, that month is resolved instead.
func (e *Engine) localDate(ctx context.Context, set *monthSet, now time.Time) (*Month, int, error) {
	m, err := set.get(ctx, int(now.Month()), now.Year())
	if err != nil {
		return nil, 0, err
	}

	year, month, day := now.In(m.Zone()).Date()
	if year == m.Year && int(month) == m.Month {
		return m, day, nil
	}

	e.logger.Debug().
		Str("zone", m.Zone().String()).
		Int("month", int(month)).
		Int("year", year).
		Msg("[engine] local date falls in another month")

	m, err = set.get(ctx, int(month), year)
	if err != nil {
		return nil, 0, err
	}
	return m, day, nil
}

type calendarKey struct{ month, year int }

// monthSet resolves each month at most once per engine call, so Force never
// refetches a month the same call already fetched.
type monthSet struct {
	e   *Engine
	req Request

	mu     sync.Mutex
	months map[calendarKey]*Month
}

func newMonthSet(e *Engine, req Request) *monthSet {
	return &monthSet{e: e, req: req, months: make(map[calendarKey]*Month)}
}

func (s *monthSet) get(ctx context.Context, month, year int) (*Month, error) {
	k := calendarKey{month, year}

	s.mu.Lock()
	m, ok := s.months[k]
	s.mu.Unlock()
	if ok {
		return m, nil
	}

	m, err := s.e.fetcher.ResolveMonth(ctx, s.req.Location, month, year, s.req.Method, s.req.Force)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.months[k] = m
	s.mu.Unlock()
	return m, nil
}

func nextMonth(month, year int) (int, int) {
	if month == 12 {
		return 1, year + 1
	}
	return month + 1, year
}
