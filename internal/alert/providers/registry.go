package providers

import (
	"context"
	"errors"

	"github.com/i474232898/epaper-dashboard/internal/alert"
	"github.com/i474232898/epaper-dashboard/internal/config"
	"github.com/i474232898/epaper-dashboard/internal/provider"
)

// KindNone is reported when no alert source is configured.
const KindNone provider.Kind = "none"

// None never has an alert.
type None struct{}

func (None) Name() string {
	return string(KindNone)
}

func (None) GetAlert(context.Context) (string, error) {
	return "", nil
}

// Candidates lists every alert provider in priority order.
func Candidates(creds config.AlertCredentials, p Params) []provider.Candidate[alert.Provider] {
	return []provider.Candidate[alert.Provider]{
		{
			Kind:       provider.KindWeatherGovAlerts,
			Configured: func() bool { return creds.WeatherGovSelfID != "" },
			New:        func() alert.Provider { return NewWeatherGovAlerts(p, creds.WeatherGovSelfID) },
		},
		{
			Kind:       provider.KindMetOfficeRSS,
			Configured: func() bool { return creds.MetOfficeFeedURL != "" },
			Validate:   func() error { return provider.ValidURL("ALERT_METOFFICE_FEED_URL", creds.MetOfficeFeedURL) },
			New:        func() alert.Provider { return NewMetOfficeRSS(p, creds.MetOfficeFeedURL) },
		},
		{
			Kind:       provider.KindMetEireannAlerts,
			Configured: func() bool { return creds.MetEireannFeedURL != "" },
			Validate:   func() error { return provider.ValidURL("ALERT_MET_EIREANN_FEED_URL", creds.MetEireannFeedURL) },
			New:        func() alert.Provider { return NewMetEireannAlerts(p, creds.MetEireannFeedURL) },
		},
	}
}

// Select returns the highest-priority configured alert provider. Alerts are
// optional: with nothing configured it returns None rather than an error.
func Select(creds config.AlertCredentials, p Params) (alert.Provider, provider.Kind, error) {
	ap, kind, err := provider.Select(provider.CategoryAlert, Candidates(creds, p))
	if errors.Is(err, provider.ErrNoProviderConfigured) {
		return None{}, KindNone, nil
	}
	return ap, kind, err
}
