package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/i474232898/epaper-dashboard/internal/provider"
)

const weatherGovURL = "https://api.weather.gov"

// WeatherGovAlerts reads the active alerts for the configured point.
type WeatherGovAlerts struct {
	params Params
	selfID string
}

func NewWeatherGovAlerts(p Params, selfID string) *WeatherGovAlerts {
	return &WeatherGovAlerts{params: p, selfID: selfID}
}

func (w *WeatherGovAlerts) Name() string {
	return string(provider.KindWeatherGovAlerts)
}

type weatherGovAlertsPayload struct {
	Features []struct {
		Properties struct {
			Headline string `json:"headline"`
			Event    string `json:"event"`
		} `json:"properties"`
	} `json:"features"`
}

func (w *WeatherGovAlerts) GetAlert(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("point", w.params.Location.Key())
	endpoint := w.params.base(weatherGovURL) + "/alerts/active?" + q.Encode()
	headers := map[string]string{
		"User-Agent": w.selfID,
		"Accept":     "application/geo+json",
	}

	var payload weatherGovAlertsPayload
	if err := w.params.Fetcher.FetchJSON(ctx, w.params.request(endpoint, "alert-weathergov", headers), &payload); err != nil {
		return "", fmt.Errorf("weathergov alerts: %w", err)
	}
	if len(payload.Features) == 0 {
		return "", nil
	}
	props := payload.Features[0].Properties
	if props.Headline != "" {
		return clean(props.Headline), nil
	}
	return clean(props.Event), nil
}
