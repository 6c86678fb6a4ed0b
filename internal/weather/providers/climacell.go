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

const climacellURL = "https://api.tomorrow.io/v4/timelines"

// Climacell reads daily intervals from the Tomorrow.io (formerly Climacell) timelines API.
type Climacell struct {
	params Params
	apiKey string
}

func NewClimacell(p Params, apiKey string) *Climacell {
	return &Climacell{params: p, apiKey: apiKey}
}

func (c *Climacell) Name() string {
	return string(provider.KindClimacell)
}

type climacellPayload struct {
	Data struct {
		Timelines []struct {
			Intervals []struct {
				StartTime string `json:"startTime"`
				Values    struct {
					TemperatureMin *float64 `json:"temperatureMin"`
					TemperatureMax *float64 `json:"temperatureMax"`
					WeatherCode    *int     `json:"weatherCode"`
				} `json:"values"`
			} `json:"intervals"`
		} `json:"timelines"`
	} `json:"data"`
}

var climacellCodes = map[int]condition{
	1000: {weather.IconClearDay, "Clear"},
	1100: {weather.IconClearDay, "Mostly Clear"},
	1101: {weather.IconPartlyCloudyDay, "Partly Cloudy"},
	1102: {weather.IconCloudy, "Mostly Cloudy"},
	1001: {weather.IconCloudy, "Cloudy"},
	2000: {weather.IconFog, "Fog"},
	2100: {weather.IconFog, "Light Fog"},
	3000: {weather.IconWind, "Light Wind"},
	3001: {weather.IconWind, "Wind"},
	3002: {weather.IconWind, "Strong Wind"},
	4000: {weather.IconDrizzle, "Drizzle"},
	4001: {weather.IconRain, "Rain"},
	4200: {weather.IconRain, "Light Rain"},
	4201: {weather.IconRain, "Heavy Rain"},
	5000: {weather.IconSnow, "Snow"},
	5001: {weather.IconSnow, "Flurries"},
	5100: {weather.IconSnow, "Light Snow"},
	5101: {weather.IconSnow, "Heavy Snow"},
	6000: {weather.IconSleet, "Freezing Drizzle"},
	6001: {weather.IconSleet, "Freezing Rain"},
	6200: {weather.IconSleet, "Light Freezing Rain"},
	6201: {weather.IconSleet, "Heavy Freezing Rain"},
	7000: {weather.IconSleet, "Ice Pellets"},
	7101: {weather.IconSleet, "Heavy Ice Pellets"},
	7102: {weather.IconSleet, "Light Ice Pellets"},
	8000: {weather.IconThunderstorm, "Thunderstorm"},
}

func (c *Climacell) GetWeather(ctx context.Context) (weather.Forecast, error) {
	q := url.Values{}
	q.Set("location", c.params.Location.Key())
	q.Set("fields", "temperatureMin,temperatureMax,weatherCode")
	q.Set("timesteps", "1d")
	q.Set("units", string(c.params.Units))
	if tz := c.params.tz().String(); tz != "Local" {
		q.Set("timezone", tz)
	}
	q.Set("apikey", c.apiKey)

	var payload climacellPayload
	if err := c.params.Fetcher.FetchJSON(ctx, c.params.request(withQuery(c.params.base(climacellURL), q), "weather-climacell", nil), &payload); err != nil {
		return nil, fmt.Errorf("climacell: %w", err)
	}
	if len(payload.Data.Timelines) == 0 {
		return nil, fetch.Malformedf(c.Name(), "no timelines in response")
	}

	today := c.params.today()
	var out weather.Forecast
	for _, iv := range payload.Data.Timelines[0].Intervals {
		at, err := time.Parse(time.RFC3339, iv.StartTime)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(c.Name(), "interval startTime", err)
		}
		date := startOfDay(at.In(c.params.tz()))
		if date.Before(today) {
			continue
		}
		v := iv.Values
		if v.TemperatureMin == nil || v.TemperatureMax == nil || v.WeatherCode == nil {
			return nil, fetch.Malformedf(c.Name(), "interval %s: missing values", iv.StartTime)
		}
		cond, ok := climacellCodes[*v.WeatherCode]
		if !ok {
			return nil, fetch.Malformedf(c.Name(), "interval %s: unknown weather code %d", iv.StartTime, *v.WeatherCode)
		}
		out = append(out, weather.Sample{
			Date:        date,
			Min:         *v.TemperatureMin,
			Max:         *v.TemperatureMax,
			Icon:        cond.icon,
			Description: cond.text,
		})
	}
	return finish(c.Name(), out)
}
