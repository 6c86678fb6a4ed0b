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

const openWeatherURL = "https://api.openweathermap.org/data/3.0/onecall"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap One Call 3.0.
type OpenWeatherProvider struct {
	params Params
	apiKey string
}

func NewOpenWeatherProvider(p Params, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{params: p, apiKey: apiKey}
}

func (p *OpenWeatherProvider) Name() string {
	return string(provider.KindOpenWeatherMap)
}

type openWeatherItem struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type openWeatherPayload struct {
	Daily []struct {
		Dt   int64 `json:"dt"`
		Temp struct {
			Min *float64 `json:"min"`
			Max *float64 `json:"max"`
		} `json:"temp"`
		Weather []openWeatherItem `json:"weather"`
	} `json:"daily"`
}

func (p *OpenWeatherProvider) GetWeather(ctx context.Context) (weather.Forecast, error) {
	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("lat", coord(p.params.Location.Lat))
	values.Set("lon", coord(p.params.Location.Lon))
	values.Set("units", string(p.params.Units))
	values.Set("exclude", "current,minutely,hourly,alerts")

	var payload openWeatherPayload
	if err := p.params.Fetcher.FetchJSON(ctx, p.params.request(withQuery(p.params.base(openWeatherURL), values), "weather-openweathermap", nil), &payload); err != nil {
		return nil, fmt.Errorf("openweathermap: %w", err)
	}

	today := p.params.today()
	var out weather.Forecast
	for _, d := range payload.Daily {
		date := startOfDay(time.Unix(d.Dt, 0).In(p.params.tz()))
		if date.Before(today) {
			continue
		}
		if d.Temp.Min == nil || d.Temp.Max == nil {
			return nil, fetch.Malformedf(p.Name(), "day %d: missing temperature", d.Dt)
		}
		if len(d.Weather) == 0 {
			return nil, fetch.Malformedf(p.Name(), "day %d: missing weather condition", d.Dt)
		}
		item := d.Weather[0]
		desc := item.Description
		if desc == "" {
			desc = item.Main
		}
		out = append(out, weather.Sample{
			Date:        date,
			Min:         *d.Temp.Min,
			Max:         *d.Temp.Max,
			Icon:        mapOpenWeatherCondition(item.ID),
			Description: weather.Describe(desc),
		})
	}
	return finish(p.Name(), out)
}

// mapOpenWeatherCondition groups condition ids:
// https://openweathermap.org/weather-conditions
func mapOpenWeatherCondition(id int) weather.Icon {
	switch {
	case id >= 200 && id < 300:
		return weather.IconThunderstorm
	case id >= 300 && id < 400:
		return weather.IconDrizzle
	case id == 511:
		return weather.IconSleet
	case id >= 520 && id < 600:
		return weather.IconShowers
	case id >= 500 && id < 600:
		return weather.IconRain
	case id >= 611 && id <= 616:
		return weather.IconSleet
	case id >= 600 && id < 700:
		return weather.IconSnow
	case id == 771 || id == 781:
		return weather.IconWind
	case id >= 700 && id < 800:
		return weather.IconFog
	case id == 800:
		return weather.IconClearDay
	case id == 801 || id == 802:
		return weather.IconPartlyCloudyDay
	default:
		return weather.IconCloudy
	}
}
