package schedule

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/myprayer/internal/api"
	"github.com/smokyabdulrahman/myprayer/internal/location"
)

func at(year, month, day, hour, minute int) time.Time {
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
}

func TestResolveDay_CairoEndToEnd(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/calendarByCity/2024/6", r.URL.Path)
		assert.Equal(t, "Cairo", r.URL.Query().Get("city"))
		assert.Equal(t, "Egypt", r.URL.Query().Get("country"))
		assert.Equal(t, "5", r.URL.Query().Get("method"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"code":200,"status":"OK","data":%s}`, monthPayload(6, 2024))
	}))
	defer server.Close()

	client := api.NewClient(api.WithBaseURL(server.URL))
	e := newEngine(t, client, newStore(t))

	d, err := e.ResolveDay(context.Background(), cairoRequest(), 15, 6, 2024)
	require.NoError(t, err)

	assert.Equal(t, []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}, prayerNames(d))
	for _, p := range d.Prayers {
		assert.Equal(t, "2024-06-15", p.Time.Format("2006-01-02"), p.Name)
	}

	_, err = e.ResolveDay(context.Background(), cairoRequest(), 16, 6, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second day of the same month must come from cache")
}

func TestResolveDay_ProviderStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   error
	}{
		{http.StatusBadRequest, api.ErrBadRequest},
		{http.StatusTooManyRequests, api.ErrRateLimited},
		{http.StatusInternalServerError, api.ErrServerError},
		{http.StatusBadGateway, api.ErrFetchFailed},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"code":0,"status":"error","data":"Unable to find city"}`)
			}))
			defer server.Close()

			e := newEngine(t, api.NewClient(api.WithBaseURL(server.URL)), newStore(t))
			_, err := e.ResolveDay(context.Background(), cairoRequest(), 15, 6, 2024)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Contains(t, err.Error(), "06/2024")
		})
	}
}

func TestResolveDay_DayOutOfRange(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, monthPayload(6, 2024))
	e := newEngine(t, p, newStore(t))

	_, err := e.ResolveDay(context.Background(), cairoRequest(), 31, 6, 2024)

	var rangeErr *DayOutOfRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, DayOutOfRangeError{Requested: 31, DaysInMonth: 30, Month: 6, Year: 2024}, *rangeErr)
}

func TestResolveDay_MissingLocation(t *testing.T) {
	p := newFakeProvider()
	e := newEngine(t, p, newStore(t))

	_, err := e.ResolveDay(context.Background(), Request{Method: 5}, 1, 6, 2024)
	assert.True(t, errors.Is(err, location.ErrInvalidLocation))
	assert.Equal(t, 0, p.total())
}

func TestResolveNext_LaterToday(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, monthPayload(6, 2024))
	e := newEngine(t, p, newStore(t))

	next, err := e.ResolveNext(context.Background(), cairoRequest(), at(2024, 6, 15, 13, 0))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Asr", next.Prayer.Name)
	assert.Equal(t, at(2024, 6, 15, 16, 32), next.Prayer.Time)
	assert.Equal(t, 15, next.Day.Date.Day())
}

func TestResolveNext_StrictlyAfterNow(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, monthPayload(6, 2024))
	e := newEngine(t, p, newStore(t))

	next, err := e.ResolveNext(context.Background(), cairoRequest(), at(2024, 6, 15, 12, 56))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Asr", next.Prayer.Name)
}

func TestResolveNext_AfterIshaMovesToTomorrow(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, monthPayload(6, 2024))
	e := newEngine(t, p, newStore(t))

	next, err := e.ResolveNext(context.Background(), cairoRequest(), at(2024, 6, 15, 22, 0))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Fajr", next.Prayer.Name)
	assert.Equal(t, at(2024, 6, 16, 4, 9), next.Prayer.Time)
	assert.Equal(t, 16, next.Day.Date.Day())
	assert.Equal(t, 1, p.total())
}

func TestResolveNext_PostMidnightPrayerKeepsDayOpen(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, monthPayload(6, 2024))
	e := newEngine(t, p, newStore(t))

	req := cairoRequest("Fajr", "Dhuhr", "Asr", "Maghrib", "Isha", "Midnight")
	next, err := e.ResolveNext(context.Background(), req, at(2024, 6, 15, 23, 30))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Midnight", next.Prayer.Name)
	assert.Equal(t, at(2024, 6, 16, 0, 56), next.Prayer.Time)
	assert.Equal(t, 15, next.Day.Date.Day(), "Midnight belongs to the 15th's schedule")
}

func TestResolveNext_MonthBoundary(t *testing.T) {
	p := newFakeProvider().
		serve(6, 2024, monthPayload(6, 2024)).
		serve(7, 2024, monthPayload(7, 2024))
	e := newEngine(t, p, newStore(t))

	next, err := e.ResolveNext(context.Background(), cairoRequest(), at(2024, 6, 30, 22, 0))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Fajr", next.Prayer.Name)
	assert.Equal(t, at(2024, 7, 1, 4, 9), next.Prayer.Time)
	assert.Equal(t, 1, p.callsFor(6, 2024))
	assert.Equal(t, 1, p.callsFor(7, 2024))
}

func TestResolveNext_YearBoundaryFetchesJanuaryEvenWhenDecemberCached(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Put(cairo, 12, 2024, 5, monthPayload(12, 2024)))

	p := newFakeProvider().serve(1, 2025, monthPayload(1, 2025))
	e := newEngine(t, p, s)

	next, err := e.ResolveNext(context.Background(), cairoRequest(), at(2024, 12, 31, 23, 0))
	require.NoError(t, err)
	require.NotNil(t, next)

	assert.Equal(t, "Fajr", next.Prayer.Name)
	assert.Equal(t, at(2025, 1, 1, 4, 9), next.Prayer.Time)
	assert.Equal(t, 2025, next.Day.Date.Year())
	assert.Equal(t, 0, p.callsFor(12, 2024), "December must be served from cache")
	assert.Equal(t, 1, p.callsFor(1, 2025))

	_, err = s.Get(cairo, 1, 2025, 5)
	assert.NoError(t, err, "January must be cached after the fetch")
}

func TestResolveNext_ForceAppliesToEveryMonth(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Put(cairo, 12, 2024, 5, monthPayload(12, 2024)))
	require.NoError(t, s.Put(cairo, 1, 2025, 5, monthPayload(1, 2025)))

	p := newFakeProvider().
		serve(12, 2024, monthPayload(12, 2024)).
		serve(1, 2025, monthPayload(1, 2025))
	e := newEngine(t, p, s)

	req := cairoRequest()
	req.Force = true
	_, err := e.ResolveNext(context.Background(), req, at(2024, 12, 31, 23, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, p.callsFor(12, 2024))
	assert.Equal(t, 1, p.callsFor(1, 2025))
}

func TestResolveNext_NextMonthFetchErrorPropagates(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, monthPayload(6, 2024))
	p.errs[monthKey{7, 2024}] = &api.ProviderError{Kind: api.ErrRateLimited, Month: 7, Year: 2024}
	e := newEngine(t, p, newStore(t))

	_, err := e.ResolveNext(context.Background(), cairoRequest(), at(2024, 6, 30, 22, 0))
	assert.True(t, errors.Is(err, api.ErrRateLimited))
}

func TestResolveNext_AbsentWhenNothingSelected(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, monthPayload(6, 2024))
	e := newEngine(t, p, newStore(t))

	next, err := e.ResolveNext(context.Background(), cairoRequest("Tahajjud"), at(2024, 6, 15, 12, 0))
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestResolveNext_RequestNotMutated(t *testing.T) {
	p := newFakeProvider().
		serve(6, 2024, monthPayload(6, 2024)).
		serve(7, 2024, monthPayload(7, 2024))
	e := newEngine(t, p, newStore(t))

	req := cairoRequest()
	before := fmt.Sprintf("%+v", req)
	_, err := e.ResolveNext(context.Background(), req, at(2024, 6, 30, 22, 0))
	require.NoError(t, err)
	assert.Equal(t, before, fmt.Sprintf("%+v", req))
}

const losAngeles = "America/Los_Angeles"

// laPayload serves a whole month with clock times in Los Angeles.
func laPayload(month, year int) []byte {
	days := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return monthPayloadZone(month, year, days, losAngeles)
}

func laTime(t *testing.T, year, month, day, hour, minute int) time.Time {
	t.Helper()
	zone, err := time.LoadLocation(losAngeles)
	require.NoError(t, err)
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, zone)
}

func TestResolveNext_UsesDateAtLocation(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, laPayload(6, 2024))
	e := newEngine(t, p, newStore(t))

	// 03:00 UTC on the 16th is 20:00 on the 15th in Los Angeles.
	next, err := e.ResolveNext(context.Background(), cairoRequest(), at(2024, 6, 16, 3, 0))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Isha", next.Prayer.Name)
	assert.True(t, laTime(t, 2024, 6, 15, 21, 32).Equal(next.Prayer.Time), "got %s", next.Prayer.Time)
	assert.Equal(t, 15, next.Day.Date.Day())
	assert.Equal(t, 1, p.total())
}

func TestResolveNext_DateAtLocationInPreviousMonth(t *testing.T) {
	p := newFakeProvider().
		serve(6, 2024, laPayload(6, 2024)).
		serve(7, 2024, laPayload(7, 2024))
	e := newEngine(t, p, newStore(t))

	next, err := e.ResolveNext(context.Background(), cairoRequest(), at(2024, 7, 1, 3, 0))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Isha", next.Prayer.Name)
	assert.True(t, laTime(t, 2024, 6, 30, 21, 32).Equal(next.Prayer.Time), "got %s", next.Prayer.Time)
	assert.Equal(t, time.June, next.Day.Date.Month())
	assert.Equal(t, 1, p.callsFor(6, 2024))
	assert.Equal(t, 1, p.callsFor(7, 2024))
}

func TestResolveNext_ForceFetchesEachMonthOnce(t *testing.T) {
	p := newFakeProvider().
		serve(6, 2024, laPayload(6, 2024)).
		serve(7, 2024, laPayload(7, 2024))
	e := newEngine(t, p, newStore(t))

	req := cairoRequest()
	req.Force = true

	// 23:00 on June 30 in Los Angeles: the day is over, so July 1 is next.
	next, err := e.ResolveNext(context.Background(), req, at(2024, 7, 1, 6, 0))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Fajr", next.Prayer.Name)
	assert.True(t, laTime(t, 2024, 7, 1, 4, 9).Equal(next.Prayer.Time), "got %s", next.Prayer.Time)
	assert.Equal(t, 1, p.callsFor(6, 2024))
	assert.Equal(t, 1, p.callsFor(7, 2024))
}

func TestResolveToday_UsesDateAtLocation(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, laPayload(6, 2024))
	e := newEngine(t, p, newStore(t))

	d, err := e.ResolveToday(context.Background(), cairoRequest(), at(2024, 6, 16, 3, 0))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", d.Date.Format("2006-01-02"))
	assert.Equal(t, losAngeles, d.Timezone)
}

func TestResolveToday_MatchesUTCDateForUTCPayload(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, monthPayload(6, 2024))
	e := newEngine(t, p, newStore(t))

	d, err := e.ResolveToday(context.Background(), cairoRequest(), at(2024, 6, 16, 3, 0))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-16", d.Date.Format("2006-01-02"))
}

func TestResolveRange_StartsAtDateAtLocation(t *testing.T) {
	p := newFakeProvider().
		serve(6, 2024, laPayload(6, 2024)).
		serve(7, 2024, laPayload(7, 2024))
	e := newEngine(t, p, newStore(t))

	days, err := e.ResolveRange(context.Background(), cairoRequest(), at(2024, 7, 1, 3, 0), 2)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-06-30", days[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-07-01", days[1].Date.Format("2006-01-02"))
	assert.Equal(t, 1, p.callsFor(6, 2024))
	assert.Equal(t, 1, p.callsFor(7, 2024))
}

func TestResolveRange_AcrossMonths(t *testing.T) {
	p := newFakeProvider().
		serve(6, 2024, monthPayload(6, 2024)).
		serve(7, 2024, monthPayload(7, 2024))
	e := newEngine(t, p, newStore(t))

	days, err := e.ResolveRange(context.Background(), cairoRequest(), at(2024, 6, 29, 10, 0), 4)
	require.NoError(t, err)
	require.Len(t, days, 4)

	want := []string{"2024-06-29", "2024-06-30", "2024-07-01", "2024-07-02"}
	for i, d := range days {
		assert.Equal(t, want[i], d.Date.Format("2006-01-02"))
		assert.Len(t, d.Prayers, 5)
	}
	assert.Equal(t, 1, p.callsFor(6, 2024))
	assert.Equal(t, 1, p.callsFor(7, 2024))
}

func TestResolveRange_ErrorFromAnyMonth(t *testing.T) {
	p := newFakeProvider().serve(6, 2024, monthPayload(6, 2024))
	p.errs[monthKey{7, 2024}] = &api.ProviderError{Kind: api.ErrServerError, Month: 7, Year: 2024}
	e := newEngine(t, p, newStore(t))

	_, err := e.ResolveRange(context.Background(), cairoRequest(), at(2024, 6, 29, 10, 0), 7)
	assert.True(t, errors.Is(err, api.ErrServerError))
}

func TestResolveRange_InvalidCount(t *testing.T) {
	e := newEngine(t, newFakeProvider(), newStore(t))

	for _, n := range []int{0, -1, maxRangeDays + 1} {
		_, err := e.ResolveRange(context.Background(), cairoRequest(), at(2024, 6, 1, 0, 0), n)
		assert.Error(t, err, "count %d", n)
	}
}

func TestNextMonth(t *testing.T) {
	m, y := nextMonth(12, 2024)
	assert.Equal(t, 1, m)
	assert.Equal(t, 2025, y)

	m, y = nextMonth(6, 2024)
	assert.Equal(t, 7, m)
	assert.Equal(t, 2024, y)
}
