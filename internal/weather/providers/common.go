package providers

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/weather"
)

// Params carries what every weather provider needs besides its credentials.
type Params struct {
	Fetcher  fetch.Fetcher
	Location weather.Location
	Units    weather.Units
	TTL      time.Duration

	// Now and TZ default to time.Now and time.Local.
	Now func() time.Time
	TZ  *time.Location

	// BaseURL overrides the upstream origin; tests point it at httptest.
	BaseURL string
}

func (p Params) now() time.Time {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return now().In(p.tz())
}

func (p Params) tz() *time.Location {
	if p.TZ != nil {
		return p.TZ
	}
	return time.Local
}

func (p Params) today() time.Time {
	return startOfDay(p.now())
}

func (p Params) base(def string) string {
	if p.BaseURL != "" {
		return strings.TrimRight(p.BaseURL, "/")
	}
	return def
}

func (p Params) request(rawURL, cacheKey string, headers map[string]string) fetch.Request {
	return fetch.Request{URL: rawURL, Headers: headers, CacheKey: cacheKey, TTL: p.TTL}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func withQuery(base string, q url.Values) string {
	return base + "?" + q.Encode()
}

// point is one upstream time step. Temp is NaN and Symbol empty when the step
// does not carry that field.
type point struct {
	At     time.Time
	Temp   float64
	Symbol string
}

// dailyBucket aggregates the points of one local calendar day.
type dailyBucket struct {
	Date   time.Time
	Min    float64
	Max    float64
	Symbol string

	hasTemp    bool
	symbolDist time.Duration
}

// aggregateDaily folds sub-daily points into consecutive local days starting
// at today: min/max temperature and the symbol closest to local noon. It stops
// at the first day missing a temperature or a symbol.
func aggregateDaily(points []point, today time.Time) []dailyBucket {
	byDay := map[time.Time]*dailyBucket{}
	loc := today.Location()

	for _, pt := range points {
		local := pt.At.In(loc)
		day := startOfDay(local)
		if day.Before(today) {
			continue
		}
		b, ok := byDay[day]
		if !ok {
			b = &dailyBucket{Date: day, symbolDist: math.MaxInt64}
			byDay[day] = b
		}
		if !math.IsNaN(pt.Temp) {
			if !b.hasTemp {
				b.Min, b.Max, b.hasTemp = pt.Temp, pt.Temp, true
			} else {
				b.Min = math.Min(b.Min, pt.Temp)
				b.Max = math.Max(b.Max, pt.Temp)
			}
		}
		if pt.Symbol != "" {
			dist := local.Sub(day.Add(12 * time.Hour))
			if dist < 0 {
				dist = -dist
			}
			if dist < b.symbolDist {
				b.Symbol, b.symbolDist = pt.Symbol, dist
			}
		}
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var out []dailyBucket
	next := today
	for _, d := range days {
		b := byDay[d]
		if !d.Equal(next) || !b.hasTemp || b.Symbol == "" {
			break
		}
		out = append(out, *b)
		next = next.AddDate(0, 0, 1)
	}
	return out
}

// finish validates a mapped forecast, turning gaps into a malformed-response error.
func finish(source string, f weather.Forecast) (weather.Forecast, error) {
	if err := f.Validate(); err != nil {
		return nil, fetch.NewMalformedResponseError(source, "incomplete forecast", err)
	}
	return f, nil
}

// condition is one row of a provider's weather-code table.
type condition struct {
	icon weather.Icon
	text string
}
