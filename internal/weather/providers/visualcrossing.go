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

const visualCrossingURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

// VisualCrossing reads the Timeline API, which already reports daily values.
type VisualCrossing struct {
	params Params
	apiKey string
}

func NewVisualCrossing(p Params, apiKey string) *VisualCrossing {
	return &VisualCrossing{params: p, apiKey: apiKey}
}

func (v *VisualCrossing) Name() string {
	return string(provider.KindVisualCrossing)
}

type visualCrossingPayload struct {
	Days []struct {
		Datetime   string   `json:"datetime"`
		TempMin    *float64 `json:"tempmin"`
		TempMax    *float64 `json:"tempmax"`
		Icon       string   `json:"icon"`
		Conditions string   `json:"conditions"`
	} `json:"days"`
}

func (v *VisualCrossing) GetWeather(ctx context.Context) (weather.Forecast, error) {
	unitGroup := "metric"
	if v.params.Units == weather.UnitsImperial {
		unitGroup = "us"
	}
	q := url.Values{}
	q.Set("unitGroup", unitGroup)
	q.Set("include", "days")
	q.Set("key", v.apiKey)
	q.Set("contentType", "json")
	endpoint := fmt.Sprintf("%s/%s,%s", v.params.base(visualCrossingURL), coord(v.params.Location.Lat), coord(v.params.Location.Lon))

	var payload visualCrossingPayload
	if err := v.params.Fetcher.FetchJSON(ctx, v.params.request(withQuery(endpoint, q), "weather-visualcrossing", nil), &payload); err != nil {
		return nil, fmt.Errorf("visualcrossing: %w", err)
	}

	today := v.params.today()
	var out weather.Forecast
	for _, d := range payload.Days {
		date, err := time.ParseInLocation("2006-01-02", d.Datetime, v.params.tz())
		if err != nil {
			return nil, fetch.NewMalformedResponseError(v.Name(), "day datetime", err)
		}
		if date.Before(today) {
			continue
		}
		if d.TempMin == nil || d.TempMax == nil {
			return nil, fetch.Malformedf(v.Name(), "day %s: missing temperature", d.Datetime)
		}
		out = append(out, weather.Sample{
			Date:        date,
			Min:         *d.TempMin,
			Max:         *d.TempMax,
			Icon:        visualCrossingIcon(d.Icon),
			Description: d.Conditions,
		})
	}
	return finish(v.Name(), out)
}

func visualCrossingIcon(icon string) weather.Icon {
	switch icon {
	case "clear-day":
		return weather.IconClearDay
	case "clear-night":
		return weather.IconClearNight
	case "partly-cloudy-day":
		return weather.IconPartlyCloudyDay
	case "partly-cloudy-night":
		return weather.IconPartlyCloudyNight
	case "cloudy":
		return weather.IconCloudy
	case "fog":
		return weather.IconFog
	case "wind":
		return weather.IconWind
	case "rain":
		return weather.IconRain
	case "snow":
		return weather.IconSnow
	default:
		return weather.IconFromText(icon, false)
	}
}
