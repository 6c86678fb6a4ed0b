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

const metOfficeURL = "https://api-metoffice.apiconnect.ibmcloud.com/v0/forecasts/point/daily"

// MetOfficeDataHub reads the site-specific daily spot forecast (Celsius only).
type MetOfficeDataHub struct {
	params       Params
	clientID     string
	clientSecret string
}

func NewMetOfficeDataHub(p Params, clientID, clientSecret string) *MetOfficeDataHub {
	return &MetOfficeDataHub{params: p, clientID: clientID, clientSecret: clientSecret}
}

func (m *MetOfficeDataHub) Name() string {
	return string(provider.KindMetOfficeDataHub)
}

type metOfficePayload struct {
	Features []struct {
		Properties struct {
			TimeSeries []struct {
				Time                        string   `json:"time"`
				DayMaxScreenTemperature     *float64 `json:"dayMaxScreenTemperature"`
				DayMinScreenTemperature     *float64 `json:"dayMinScreenTemperature"`
				NightMinScreenTemperature   *float64 `json:"nightMinScreenTemperature"`
				DaySignificantWeatherCode   *int     `json:"daySignificantWeatherCode"`
				NightSignificantWeatherCode *int     `json:"nightSignificantWeatherCode"`
			} `json:"timeSeries"`
		} `json:"properties"`
	} `json:"features"`
}

var metOfficeCodes = map[int]condition{
	0:  {weather.IconClearNight, "Clear night"},
	1:  {weather.IconClearDay, "Sunny day"},
	2:  {weather.IconPartlyCloudyNight, "Partly cloudy"},
	3:  {weather.IconPartlyCloudyDay, "Partly cloudy"},
	5:  {weather.IconFog, "Mist"},
	6:  {weather.IconFog, "Fog"},
	7:  {weather.IconCloudy, "Cloudy"},
	8:  {weather.IconCloudy, "Overcast"},
	9:  {weather.IconShowers, "Light rain shower"},
	10: {weather.IconShowers, "Light rain shower"},
	11: {weather.IconDrizzle, "Drizzle"},
	12: {weather.IconRain, "Light rain"},
	13: {weather.IconShowers, "Heavy rain shower"},
	14: {weather.IconShowers, "Heavy rain shower"},
	15: {weather.IconRain, "Heavy rain"},
	16: {weather.IconSleet, "Sleet shower"},
	17: {weather.IconSleet, "Sleet shower"},
	18: {weather.IconSleet, "Sleet"},
	19: {weather.IconSleet, "Hail shower"},
	20: {weather.IconSleet, "Hail shower"},
	21: {weather.IconSleet, "Hail"},
	22: {weather.IconSnow, "Light snow shower"},
	23: {weather.IconSnow, "Light snow shower"},
	24: {weather.IconSnow, "Light snow"},
	25: {weather.IconSnow, "Heavy snow shower"},
	26: {weather.IconSnow, "Heavy snow shower"},
	27: {weather.IconSnow, "Heavy snow"},
	28: {weather.IconThunderstorm, "Thunder shower"},
	29: {weather.IconThunderstorm, "Thunder shower"},
	30: {weather.IconThunderstorm, "Thunder"},
}

func (m *MetOfficeDataHub) GetWeather(ctx context.Context) (weather.Forecast, error) {
	q := url.Values{}
	q.Set("excludeParameterMetadata", "true")
	q.Set("includeLocationName", "false")
	q.Set("latitude", coord(m.params.Location.Lat))
	q.Set("longitude", coord(m.params.Location.Lon))
	headers := map[string]string{
		"X-IBM-Client-Id":     m.clientID,
		"X-IBM-Client-Secret": m.clientSecret,
		"Accept":              "application/json",
	}

	var payload metOfficePayload
	if err := m.params.Fetcher.FetchJSON(ctx, m.params.request(withQuery(m.params.base(metOfficeURL), q), "weather-metofficedatahub", headers), &payload); err != nil {
		return nil, fmt.Errorf("metofficedatahub: %w", err)
	}
	if len(payload.Features) == 0 {
		return nil, fetch.Malformedf(m.Name(), "no features in response")
	}

	today := m.params.today()
	var out weather.Forecast
	for _, ts := range payload.Features[0].Properties.TimeSeries {
		at, err := time.Parse("2006-01-02T15:04Z", ts.Time)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(m.Name(), "timeSeries time", err)
		}
		y, mo, d := at.Date()
		date := time.Date(y, mo, d, 0, 0, 0, 0, m.params.tz())
		if date.Before(today) {
			continue
		}

		maxT := ts.DayMaxScreenTemperature
		minT := ts.NightMinScreenTemperature
		if minT == nil {
			minT = ts.DayMinScreenTemperature
		}
		code := ts.DaySignificantWeatherCode
		if code == nil {
			code = ts.NightSignificantWeatherCode
		}
		if maxT == nil || minT == nil || code == nil {
			return nil, fetch.Malformedf(m.Name(), "day %s: missing temperature or weather code", ts.Time)
		}
		cond, ok := metOfficeCodes[*code]
		if !ok {
			return nil, fetch.Malformedf(m.Name(), "day %s: unknown weather code %d", ts.Time, *code)
		}
		out = append(out, weather.Sample{
			Date:        date,
			Min:         m.params.Units.Convert(*minT),
			Max:         m.params.Units.Convert(*maxT),
			Icon:        cond.icon,
			Description: cond.text,
		})
	}
	return finish(m.Name(), out)
}
