package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/weather"
)

const weatherGovURL = "https://api.weather.gov"

// WeatherGov resolves the gridpoint forecast URL for the location, then reads
// its 12-hour periods. Both steps are cached under their own keys.
type WeatherGov struct {
	params Params
	selfID string
}

func NewWeatherGov(p Params, selfID string) *WeatherGov {
	return &WeatherGov{params: p, selfID: selfID}
}

func (w *WeatherGov) Name() string {
	return string(provider.KindWeatherGov)
}

func (w *WeatherGov) headers() map[string]string {
	return map[string]string{
		"User-Agent": w.selfID,
		"Accept":     "application/geo+json",
	}
}

type weatherGovPoints struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type weatherGovForecast struct {
	Properties struct {
		Periods []weatherGovPeriod `json:"periods"`
	} `json:"properties"`
}

type weatherGovPeriod struct {
	StartTime     string   `json:"startTime"`
	IsDaytime     bool     `json:"isDaytime"`
	Temperature   *float64 `json:"temperature"`
	ShortForecast string   `json:"shortForecast"`
}

func (w *WeatherGov) GetWeather(ctx context.Context) (weather.Forecast, error) {
	pointsURL := fmt.Sprintf("%s/points/%s,%s", w.params.base(weatherGovURL), coord(w.params.Location.Lat), coord(w.params.Location.Lon))

	var points weatherGovPoints
	if err := w.params.Fetcher.FetchJSON(ctx, w.params.request(pointsURL, "weather-weathergov-points", w.headers()), &points); err != nil {
		return nil, fmt.Errorf("weathergov points: %w", err)
	}
	if points.Properties.Forecast == "" {
		return nil, fetch.Malformedf(w.Name(), "points response has no forecast url")
	}

	units := "si"
	if w.params.Units == weather.UnitsImperial {
		units = "us"
	}
	q := url.Values{}
	q.Set("units", units)

	var forecast weatherGovForecast
	if err := w.params.Fetcher.FetchJSON(ctx, w.params.request(withQuery(points.Properties.Forecast, q), "weather-weathergov-forecast", w.headers()), &forecast); err != nil {
		return nil, fmt.Errorf("weathergov forecast: %w", err)
	}

	out, err := w.mapPeriods(forecast.Properties.Periods)
	if err != nil {
		return nil, err
	}
	return finish(w.Name(), out)
}

type weatherGovDay struct {
	date  time.Time
	day   *weatherGovPeriod
	night *weatherGovPeriod
}

// mapPeriods pairs each daytime period with the night that follows it. A
// forecast issued in the evening starts with "Tonight", which becomes today.
func (w *WeatherGov) mapPeriods(periods []weatherGovPeriod) (weather.Forecast, error) {
	today := w.params.today()
	var days []*weatherGovDay
	find := func(date time.Time) *weatherGovDay {
		for _, d := range days {
			if d.date.Equal(date) {
				return d
			}
		}
		d := &weatherGovDay{date: date}
		days = append(days, d)
		return d
	}

	for i := range periods {
		p := &periods[i]
		start, err := time.Parse(time.RFC3339, p.StartTime)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(w.Name(), "period startTime", err)
		}
		if p.Temperature == nil {
			return nil, fetch.Malformedf(w.Name(), "period %s: missing temperature", p.StartTime)
		}
		date := startOfDay(start.In(w.params.tz()))
		// the small hours belong to the previous evening's night period
		if !p.IsDaytime && start.In(w.params.tz()).Hour() < 6 {
			date = date.AddDate(0, 0, -1)
		}
		if date.Before(today) {
			continue
		}
		d := find(date)
		if p.IsDaytime {
			d.day = p
		} else if d.night == nil {
			d.night = p
		}
	}

	var out weather.Forecast
	for _, d := range days {
		var s weather.Sample
		s.Date = d.date
		switch {
		case d.day != nil && d.night != nil:
			s.Max, s.Min = *d.day.Temperature, *d.night.Temperature
			s.Icon = weather.IconFromText(d.day.ShortForecast, false)
			s.Description = d.day.ShortForecast
		case d.day != nil:
			s.Max, s.Min = *d.day.Temperature, *d.day.Temperature
			s.Icon = weather.IconFromText(d.day.ShortForecast, false)
			s.Description = d.day.ShortForecast
		default:
			s.Max, s.Min = *d.night.Temperature, *d.night.Temperature
			s.Icon = weather.IconFromText(d.night.ShortForecast, true)
			s.Description = d.night.ShortForecast
		}
		if s.Min > s.Max {
			s.Min, s.Max = s.Max, s.Min
		}
		out = append(out, s)
	}
	return out, nil
}
