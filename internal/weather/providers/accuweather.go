package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/weather"
)

const accuWeatherURL = "http://dataservice.accuweather.com"

// AccuWeather reads the 5-day daily forecast. Without a configured location
// key it first resolves one from the coordinates.
type AccuWeather struct {
	params      Params
	apiKey      string
	locationKey string
}

func NewAccuWeather(p Params, apiKey, locationKey string) *AccuWeather {
	return &AccuWeather{params: p, apiKey: apiKey, locationKey: locationKey}
}

func (a *AccuWeather) Name() string {
	return string(provider.KindAccuWeather)
}

type accuWeatherLocation struct {
	Key string `json:"Key"`
}

type accuWeatherValue struct {
	Value *float64 `json:"Value"`
}

type accuWeatherPayload struct {
	DailyForecasts []struct {
		Date        string `json:"Date"`
		Temperature struct {
			Minimum accuWeatherValue `json:"Minimum"`
			Maximum accuWeatherValue `json:"Maximum"`
		} `json:"Temperature"`
		Day struct {
			Icon       int    `json:"Icon"`
			IconPhrase string `json:"IconPhrase"`
		} `json:"Day"`
	} `json:"DailyForecasts"`
}

func (a *AccuWeather) GetWeather(ctx context.Context) (weather.Forecast, error) {
	key, err := a.resolveLocationKey(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("apikey", a.apiKey)
	q.Set("metric", strconv.FormatBool(a.params.Units != weather.UnitsImperial))
	endpoint := fmt.Sprintf("%s/forecasts/v1/daily/5day/%s", a.params.base(accuWeatherURL), url.PathEscape(key))

	var payload accuWeatherPayload
	if err := a.params.Fetcher.FetchJSON(ctx, a.params.request(withQuery(endpoint, q), "weather-accuweather", nil), &payload); err != nil {
		return nil, fmt.Errorf("accuweather forecast: %w", err)
	}

	today := a.params.today()
	var out weather.Forecast
	for _, d := range payload.DailyForecasts {
		at, err := time.Parse(time.RFC3339, d.Date)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(a.Name(), "forecast date", err)
		}
		date := startOfDay(at.In(a.params.tz()))
		if date.Before(today) {
			continue
		}
		minV, maxV := d.Temperature.Minimum.Value, d.Temperature.Maximum.Value
		if minV == nil || maxV == nil {
			return nil, fetch.Malformedf(a.Name(), "day %s: missing temperature", d.Date)
		}
		out = append(out, weather.Sample{
			Date:        date,
			Min:         *minV,
			Max:         *maxV,
			Icon:        accuWeatherIcon(d.Day.Icon),
			Description: d.Day.IconPhrase,
		})
	}
	return finish(a.Name(), out)
}

func (a *AccuWeather) resolveLocationKey(ctx context.Context) (string, error) {
	if a.locationKey != "" {
		return a.locationKey, nil
	}
	q := url.Values{}
	q.Set("apikey", a.apiKey)
	q.Set("q", a.params.Location.Key())
	endpoint := a.params.base(accuWeatherURL) + "/locations/v1/cities/geoposition/search"

	var loc accuWeatherLocation
	if err := a.params.Fetcher.FetchJSON(ctx, a.params.request(withQuery(endpoint, q), "weather-accuweather-location", nil), &loc); err != nil {
		return "", fmt.Errorf("accuweather location: %w", err)
	}
	if loc.Key == "" {
		return "", fetch.Malformedf(a.Name(), "geoposition search returned no location key")
	}
	return loc.Key, nil
}

func accuWeatherIcon(n int) weather.Icon {
	switch {
	case n >= 1 && n <= 2, n == 30, n == 31:
		return weather.IconClearDay
	case n >= 3 && n <= 4:
		return weather.IconPartlyCloudyDay
	case n == 5, n == 11:
		return weather.IconFog
	case n >= 6 && n <= 8:
		return weather.IconCloudy
	case n >= 12 && n <= 14, n >= 39 && n <= 40:
		return weather.IconShowers
	case n >= 15 && n <= 17, n >= 41 && n <= 42:
		return weather.IconThunderstorm
	case n == 18:
		return weather.IconRain
	case n >= 19 && n <= 23, n >= 43 && n <= 44:
		return weather.IconSnow
	case n >= 24 && n <= 29:
		return weather.IconSleet
	case n == 32:
		return weather.IconWind
	case n >= 33 && n <= 34:
		return weather.IconClearNight
	case n >= 35 && n <= 38:
		return weather.IconPartlyCloudyNight
	default:
		return weather.IconCloudy
	}
}
