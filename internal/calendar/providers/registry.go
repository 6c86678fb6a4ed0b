package providers

import (
	"github.com/i474232898/epaper-dashboard/internal/calendar"
	"github.com/i474232898/epaper-dashboard/internal/config"
	"github.com/i474232898/epaper-dashboard/internal/provider"
)

// Candidates lists every calendar provider in priority order.
func Candidates(creds config.CalendarCredentials, p Params) []provider.Candidate[calendar.Provider] {
	return []provider.Candidate[calendar.Provider]{
		{
			Kind:       provider.KindOutlook,
			Configured: func() bool { return creds.OutlookCalendarID != "" && creds.OutlookAccessToken != "" },
			New: func() calendar.Provider {
				return NewOutlook(p, creds.OutlookCalendarID, creds.OutlookAccessToken)
			},
		},
		{
			Kind:       provider.KindCalDav,
			Configured: func() bool { return creds.CalDavURL != "" },
			Validate:   func() error { return provider.ValidURL("CALDAV_CALENDAR_URL", creds.CalDavURL) },
			New: func() calendar.Provider {
				return NewCalDav(p, creds.CalDavURL, creds.CalDavCalendarID, creds.CalDavUsername, creds.CalDavPassword)
			},
		},
		{
			Kind:       provider.KindICS,
			Configured: func() bool { return creds.ICSURL != "" },
			Validate:   func() error { return provider.ValidURL("ICS_CALENDAR_URL", creds.ICSURL) },
			New:        func() calendar.Provider { return NewICS(p, creds.ICSURL) },
		},
		{
			Kind:       provider.KindGoogle,
			Configured: func() bool { return creds.GoogleAPIKey != "" },
			New:        func() calendar.Provider { return NewGoogle(p, creds.GoogleCalendarID, creds.GoogleAPIKey) },
		},
	}
}

// Select returns the highest-priority configured calendar provider.
func Select(creds config.CalendarCredentials, p Params) (calendar.Provider, provider.Kind, error) {
	return provider.Select(provider.CategoryCalendar, Candidates(creds, p))
}
