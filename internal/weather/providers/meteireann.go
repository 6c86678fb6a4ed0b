package providers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/i474232898/epaper-dashboard/internal/common"
	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/weather"
)

const metEireannURL = "http://metwdb-openaccess.ichec.ie/metno-wdb2ts/locationforecast"

// MetEireann reads the open-access point forecast (XML, Celsius only).
// Instants carry temperatures, intervals carry symbols.
type MetEireann struct {
	params Params
}

func NewMetEireann(p Params) *MetEireann {
	return &MetEireann{params: p}
}

func (m *MetEireann) Name() string {
	return string(provider.KindMetEireann)
}

type metEireannPayload struct {
	Times []struct {
		From     string `xml:"from,attr"`
		To       string `xml:"to,attr"`
		Location struct {
			Temperature *struct {
				Value string `xml:"value,attr"`
			} `xml:"temperature"`
			Symbol *struct {
				ID     string `xml:"id,attr"`
				Number int    `xml:"number,attr"`
			} `xml:"symbol"`
		} `xml:"location"`
	} `xml:"product>time"`
}

func (m *MetEireann) GetWeather(ctx context.Context) (weather.Forecast, error) {
	// the upstream expects ';' between parameters
	endpoint := fmt.Sprintf("%s?lat=%s;long=%s", m.params.base(metEireannURL), coord(m.params.Location.Lat), coord(m.params.Location.Lon))

	var payload metEireannPayload
	if err := m.params.Fetcher.FetchXML(ctx, m.params.request(endpoint, "weather-meteireann", nil), &payload); err != nil {
		return nil, fmt.Errorf("meteireann: %w", err)
	}

	points := make([]point, 0, len(payload.Times))
	for _, t := range payload.Times {
		from, err := time.Parse(time.RFC3339, t.From)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(m.Name(), "time from", err)
		}
		pt := point{At: from, Temp: math.NaN()}
		if t.Location.Temperature != nil {
			v, err := strconv.ParseFloat(t.Location.Temperature.Value, 64)
			if err != nil {
				return nil, fetch.NewMalformedResponseError(m.Name(), "temperature value", err)
			}
			pt.Temp = v
		}
		if t.Location.Symbol != nil {
			pt.Symbol = t.Location.Symbol.ID
		}
		points = append(points, pt)
	}

	var out weather.Forecast
	for _, b := range aggregateDaily(points, m.params.today()) {
		text := common.SplitWords(b.Symbol)
		out = append(out, weather.Sample{
			Date:        b.Date,
			Min:         m.params.Units.Convert(b.Min),
			Max:         m.params.Units.Convert(b.Max),
			Icon:        weather.IconFromText(text, false),
			Description: weather.Describe(text),
		})
	}
	return finish(m.Name(), out)
}
