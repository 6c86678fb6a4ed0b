package providers

import (
	"github.com/i474232898/epaper-dashboard/internal/config"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/weather"
)

// Candidates lists every weather provider in priority order.
func Candidates(creds config.WeatherCredentials, p Params) []provider.Candidate[weather.Provider] {
	return []provider.Candidate[weather.Provider]{
		{
			Kind:       provider.KindVisualCrossing,
			Configured: func() bool { return creds.VisualCrossingAPIKey != "" },
			New:        func() weather.Provider { return NewVisualCrossing(p, creds.VisualCrossingAPIKey) },
		},
		{
			Kind:       provider.KindMetEireann,
			Configured: func() bool { return creds.MetEireann },
			New:        func() weather.Provider { return NewMetEireann(p) },
		},
		{
			Kind:       provider.KindWeatherGov,
			Configured: func() bool { return creds.WeatherGovSelfID != "" },
			New:        func() weather.Provider { return NewWeatherGov(p, creds.WeatherGovSelfID) },
		},
		{
			Kind:       provider.KindMetNo,
			Configured: func() bool { return creds.MetNoSelfID != "" },
			New:        func() weather.Provider { return NewMetNo(p, creds.MetNoSelfID) },
		},
		{
			Kind:       provider.KindAccuWeather,
			Configured: func() bool { return creds.AccuWeatherAPIKey != "" },
			New: func() weather.Provider {
				return NewAccuWeather(p, creds.AccuWeatherAPIKey, creds.AccuWeatherLocationKey)
			},
		},
		{
			Kind:       provider.KindMetOfficeDataHub,
			Configured: func() bool { return creds.MetOfficeClientID != "" && creds.MetOfficeClientSecret != "" },
			New: func() weather.Provider {
				return NewMetOfficeDataHub(p, creds.MetOfficeClientID, creds.MetOfficeClientSecret)
			},
		},
		{
			Kind:       provider.KindOpenWeatherMap,
			Configured: func() bool { return creds.OpenWeatherMapAPIKey != "" },
			New:        func() weather.Provider { return NewOpenWeatherProvider(p, creds.OpenWeatherMapAPIKey) },
		},
		{
			Kind:       provider.KindClimacell,
			Configured: func() bool { return creds.ClimacellAPIKey != "" },
			New:        func() weather.Provider { return NewClimacell(p, creds.ClimacellAPIKey) },
		},
		{
			Kind:       provider.KindSMHI,
			Configured: func() bool { return creds.SMHISelfID != "" },
			New:        func() weather.Provider { return NewSMHI(p, creds.SMHISelfID) },
		},
	}
}

// Select returns the highest-priority configured weather provider.
func Select(creds config.WeatherCredentials, p Params) (weather.Provider, provider.Kind, error) {
	return provider.Select(provider.CategoryWeather, Candidates(creds, p))
}
