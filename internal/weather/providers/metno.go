package providers

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/weather"
)

const metNoURL = "https://api.met.no/weatherapi/locationforecast/2.0/compact"

// MetNo reads the Locationforecast 2.0 compact timeseries (Celsius only).
type MetNo struct {
	params Params
	selfID string
}

func NewMetNo(p Params, selfID string) *MetNo {
	return &MetNo{params: p, selfID: selfID}
}

func (m *MetNo) Name() string {
	return string(provider.KindMetNo)
}

type metNoSummary struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
}

type metNoPayload struct {
	Properties struct {
		Timeseries []struct {
			Time string `json:"time"`
			Data struct {
				Instant struct {
					Details struct {
						AirTemperature *float64 `json:"air_temperature"`
					} `json:"details"`
				} `json:"instant"`
				Next1Hours *metNoSummary `json:"next_1_hours"`
				Next6Hours *metNoSummary `json:"next_6_hours"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

var metNoDescriptions = map[string]string{
	"clearsky":              "Clear Sky",
	"fair":                  "Fair",
	"partlycloudy":          "Partly Cloudy",
	"cloudy":                "Cloudy",
	"fog":                   "Fog",
	"lightrain":             "Light Rain",
	"rain":                  "Rain",
	"heavyrain":             "Heavy Rain",
	"lightrainshowers":      "Light Rain Showers",
	"rainshowers":           "Rain Showers",
	"heavyrainshowers":      "Heavy Rain Showers",
	"lightsleet":            "Light Sleet",
	"sleet":                 "Sleet",
	"sleetshowers":          "Sleet Showers",
	"lightsnow":             "Light Snow",
	"snow":                  "Snow",
	"heavysnow":             "Heavy Snow",
	"snowshowers":           "Snow Showers",
	"rainandthunder":        "Rain And Thunder",
	"rainshowersandthunder": "Rain Showers And Thunder",
}

func (m *MetNo) GetWeather(ctx context.Context) (weather.Forecast, error) {
	q := url.Values{}
	q.Set("lat", coord(m.params.Location.Lat))
	q.Set("lon", coord(m.params.Location.Lon))
	headers := map[string]string{"User-Agent": m.selfID}

	var payload metNoPayload
	if err := m.params.Fetcher.FetchJSON(ctx, m.params.request(withQuery(m.params.base(metNoURL), q), "weather-metno", headers), &payload); err != nil {
		return nil, fmt.Errorf("metno: %w", err)
	}

	points := make([]point, 0, len(payload.Properties.Timeseries))
	for _, ts := range payload.Properties.Timeseries {
		at, err := time.Parse(time.RFC3339, ts.Time)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(m.Name(), "timeseries time", err)
		}
		pt := point{At: at, Temp: math.NaN()}
		if t := ts.Data.Instant.Details.AirTemperature; t != nil {
			pt.Temp = *t
		}
		switch {
		case ts.Data.Next6Hours != nil && ts.Data.Next6Hours.Summary.SymbolCode != "":
			pt.Symbol = ts.Data.Next6Hours.Summary.SymbolCode
		case ts.Data.Next1Hours != nil:
			pt.Symbol = ts.Data.Next1Hours.Summary.SymbolCode
		}
		points = append(points, pt)
	}

	var out weather.Forecast
	for _, b := range aggregateDaily(points, m.params.today()) {
		out = append(out, weather.Sample{
			Date:        b.Date,
			Min:         m.params.Units.Convert(b.Min),
			Max:         m.params.Units.Convert(b.Max),
			Icon:        weather.IconFromText(b.Symbol, strings.HasSuffix(b.Symbol, "_night")),
			Description: metNoDescription(b.Symbol),
		})
	}
	return finish(m.Name(), out)
}

// metNoDescription strips the _day/_night/_polartwilight variant from a symbol code.
func metNoDescription(symbol string) string {
	base, _, _ := strings.Cut(symbol, "_")
	if d, ok := metNoDescriptions[base]; ok {
		return d
	}
	return weather.Describe(base)
}
