package providers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/weather"
)

const smhiURL = "https://opendata-download-metfcst.smhi.se/api/category/pmp3g/version/2/geotype/point"

// SMHI reads the pmp3g point forecast. Temperatures are always Celsius.
type SMHI struct {
	params Params
	selfID string
}

func NewSMHI(p Params, selfID string) *SMHI {
	return &SMHI{params: p, selfID: selfID}
}

func (s *SMHI) Name() string {
	return string(provider.KindSMHI)
}

type smhiPayload struct {
	TimeSeries []struct {
		ValidTime  string `json:"validTime"`
		Parameters []struct {
			Name   string    `json:"name"`
			Values []float64 `json:"values"`
		} `json:"parameters"`
	} `json:"timeSeries"`
}

// Wsymb2 weather symbols.
var smhiSymbols = map[int]condition{
	1:  {weather.IconClearDay, "Clear sky"},
	2:  {weather.IconClearDay, "Nearly clear sky"},
	3:  {weather.IconPartlyCloudyDay, "Variable cloudiness"},
	4:  {weather.IconPartlyCloudyDay, "Halfclear sky"},
	5:  {weather.IconCloudy, "Cloudy sky"},
	6:  {weather.IconCloudy, "Overcast"},
	7:  {weather.IconFog, "Fog"},
	8:  {weather.IconShowers, "Light rain showers"},
	9:  {weather.IconShowers, "Moderate rain showers"},
	10: {weather.IconShowers, "Heavy rain showers"},
	11: {weather.IconThunderstorm, "Thunderstorm"},
	12: {weather.IconSleet, "Light sleet showers"},
	13: {weather.IconSleet, "Moderate sleet showers"},
	14: {weather.IconSleet, "Heavy sleet showers"},
	15: {weather.IconSnow, "Light snow showers"},
	16: {weather.IconSnow, "Moderate snow showers"},
	17: {weather.IconSnow, "Heavy snow showers"},
	18: {weather.IconRain, "Light rain"},
	19: {weather.IconRain, "Moderate rain"},
	20: {weather.IconRain, "Heavy rain"},
	21: {weather.IconThunderstorm, "Thunder"},
	22: {weather.IconSleet, "Light sleet"},
	23: {weather.IconSleet, "Moderate sleet"},
	24: {weather.IconSleet, "Heavy sleet"},
	25: {weather.IconSnow, "Light snowfall"},
	26: {weather.IconSnow, "Moderate snowfall"},
	27: {weather.IconSnow, "Heavy snowfall"},
}

func (s *SMHI) GetWeather(ctx context.Context) (weather.Forecast, error) {
	endpoint := fmt.Sprintf("%s/lon/%s/lat/%s/data.json", s.params.base(smhiURL), coord(s.params.Location.Lon), coord(s.params.Location.Lat))
	headers := map[string]string{"User-Agent": s.selfID}

	var payload smhiPayload
	if err := s.params.Fetcher.FetchJSON(ctx, s.params.request(endpoint, "weather-smhi", headers), &payload); err != nil {
		return nil, fmt.Errorf("smhi: %w", err)
	}

	points := make([]point, 0, len(payload.TimeSeries))
	for _, ts := range payload.TimeSeries {
		at, err := time.Parse(time.RFC3339, ts.ValidTime)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(s.Name(), "validTime", err)
		}
		pt := point{At: at, Temp: math.NaN()}
		for _, param := range ts.Parameters {
			if len(param.Values) == 0 {
				continue
			}
			switch param.Name {
			case "t":
				pt.Temp = param.Values[0]
			case "Wsymb2":
				pt.Symbol = strconv.Itoa(int(param.Values[0]))
			}
		}
		points = append(points, pt)
	}

	var out weather.Forecast
	for _, b := range aggregateDaily(points, s.params.today()) {
		code, _ := strconv.Atoi(b.Symbol)
		cond, ok := smhiSymbols[code]
		if !ok {
			return nil, fetch.Malformedf(s.Name(), "unknown Wsymb2 %q", b.Symbol)
		}
		out = append(out, weather.Sample{
			Date:        b.Date,
			Min:         s.params.Units.Convert(b.Min),
			Max:         s.params.Units.Convert(b.Max),
			Icon:        cond.icon,
			Description: cond.text,
		})
	}
	return finish(s.Name(), out)
}
