package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/myprayer/internal/cache"
	"github.com/smokyabdulrahman/myprayer/internal/location"
	"github.com/smokyabdulrahman/myprayer/internal/prayer"
)

var cairo = location.City{City: "Cairo", Country: "Egypt"}

const cairoTimings = `"Fajr":"04:09 (UTC)","Sunrise":"05:54 (UTC)","Dhuhr":"12:56 (UTC)","Asr":"16:32 (UTC)","Sunset":"19:58 (UTC)","Maghrib":"19:58 (UTC)","Isha":"21:32 (UTC)","Imsak":"03:59 (UTC)","Midnight":"00:56 (UTC)","Firstthird":"23:03 (UTC)","Lastthird":"02:49 (UTC)"`

// monthPayload builds a provider "data" array with one record per calendar
// day of the month, all sharing the same timings.
func monthPayload(month, year int) []byte {
	days := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return monthPayloadDays(month, year, days)
}

func monthPayloadDays(month, year, days int) []byte {
	return monthPayloadZone(month, year, days, "UTC")
}

// monthPayloadZone is monthPayloadDays with clock times in the named zone.
func monthPayloadZone(month, year, days int, zone string) []byte {
	timings := cairoTimings
	if zone != "UTC" {
		timings = strings.ReplaceAll(cairoTimings, "(UTC)", "("+zone+")")
	}
	records := make([]string, 0, days)
	for d := 1; d <= days; d++ {
		records = append(records, fmt.Sprintf(
			`{"timings":{%s},"date":{"readable":"%02d %s %d","gregorian":{"date":"%02d-%02d-%d"},"hijri":{"day":"%d","month":{"number":12,"en":"Dhū al-Ḥijjah"},"year":"1445","designation":{"abbreviated":"AH"}}},"meta":{"timezone":"%s","method":{"id":5}}}`,
			timings, d, time.Month(month).String()[:3], year, d, month, year, d, zone,
		))
	}
	return []byte("[" + strings.Join(records, ",") + "]")
}

type monthKey struct{ month, year int }

// fakeProvider serves payloads per month and counts calls.
type fakeProvider struct {
	mu       sync.Mutex
	payloads map[monthKey][]byte
	errs     map[monthKey]error
	calls    map[monthKey]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		payloads: map[monthKey][]byte{},
		errs:     map[monthKey]error{},
		calls:    map[monthKey]int{},
	}
}

func (p *fakeProvider) serve(month, year int, payload []byte) *fakeProvider {
	p.payloads[monthKey{month, year}] = payload
	return p
}

func (p *fakeProvider) FetchCalendar(_ context.Context, _ location.Location, month, year, _ int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := monthKey{month, year}
	p.calls[k]++
	if err := p.errs[k]; err != nil {
		return nil, err
	}
	payload, ok := p.payloads[k]
	if !ok {
		return nil, fmt.Errorf("no payload for %d/%d", month, year)
	}
	return payload, nil
}

func (p *fakeProvider) callsFor(month, year int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[monthKey{month, year}]
}

func (p *fakeProvider) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func newEngine(t *testing.T, p Provider, s Store) *Engine {
	t.Helper()
	return NewEngine(NewFetcher(p, s, zerolog.Nop()), zerolog.Nop())
}

func cairoRequest(prayers ...string) Request {
	if len(prayers) == 0 {
		prayers = prayer.DefaultPrayerNames
	}
	return Request{Location: cairo, Method: 5, Prayers: prayers}
}

func prayerNames(d *prayer.Day) []string {
	out := make([]string, len(d.Prayers))
	for i, p := range d.Prayers {
		out[i] = p.Name
	}
	return out
}
