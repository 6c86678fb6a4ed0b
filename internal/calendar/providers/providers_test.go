package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/epaper-dashboard/internal/calendar"
	"github.com/i474232898/epaper-dashboard/internal/config"
	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/store"
)

// Monday 2024-03-04 10:00 UTC
var testNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//epaper//test//EN
BEGIN:VEVENT
UID:conference@test
DTSTAMP:20240301T000000Z
DTSTART;VALUE=DATE:20240306
DTEND;VALUE=DATE:20240308
SUMMARY:Conference
END:VEVENT
BEGIN:VEVENT
UID:dentist@test
DTSTAMP:20240301T000000Z
DTSTART:20240304T140000Z
DTEND:20240304T150000Z
SUMMARY:Dentist
END:VEVENT
BEGIN:VEVENT
UID:old@test
DTSTAMP:20240301T000000Z
DTSTART:20240301T090000Z
DTEND:20240301T100000Z
SUMMARY:Old
END:VEVENT
END:VCALENDAR
`

type upstream struct {
	*httptest.Server
	calls atomic.Int32
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func newParams(baseURL string) Params {
	return Params{
		Fetcher: fetch.NewClient(store.NewMemoryStore()),
		TTL:     time.Hour,
		Window:  calendar.NewWindow(testNow, false, calendar.DefaultMaxResults),
		TZ:      time.UTC,
		BaseURL: baseURL,
	}
}

func serveICS(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/calendar")
	w.Write([]byte(strings.ReplaceAll(sampleICS, "\n", "\r\n")))
}

func TestSelect_Priority(t *testing.T) {
	creds := config.CalendarCredentials{
		CalDavURL:    "https://dav.example.com/cal",
		ICSURL:       "https://example.com/cal.ics",
		GoogleAPIKey: "g",
	}
	p, kind, err := Select(creds, newParams(""))
	require.NoError(t, err)
	assert.Equal(t, provider.KindCalDav, kind)
	assert.IsType(t, &CalDav{}, p)

	assert.Equal(t, []provider.Kind{provider.KindOutlook, provider.KindCalDav, provider.KindICS, provider.KindGoogle},
		provider.Order(Candidates(creds, Params{})))
}

func TestSelect_OutlookNeedsToken(t *testing.T) {
	creds := config.CalendarCredentials{OutlookCalendarID: "cal", ICSURL: "https://example.com/cal.ics"}
	_, kind, err := Select(creds, newParams(""))
	require.NoError(t, err)
	assert.Equal(t, provider.KindICS, kind)
}

func TestSelect_NothingConfigured(t *testing.T) {
	_, _, err := Select(config.CalendarCredentials{GoogleCalendarID: "primary"}, newParams(""))
	assert.True(t, errors.Is(err, provider.ErrNoProviderConfigured))
}

func TestSelect_MalformedURLIsScopedToCalendar(t *testing.T) {
	_, kind, err := Select(config.CalendarCredentials{ICSURL: "not a url"}, newParams(""))
	require.Error(t, err)
	assert.Equal(t, provider.KindICS, kind)
	assert.False(t, errors.Is(err, provider.ErrNoProviderConfigured))

	var ice *provider.InvalidConfigError
	require.True(t, errors.As(err, &ice))
	assert.Equal(t, provider.CategoryCalendar, ice.Category)
	assert.Contains(t, err.Error(), "ICS_CALENDAR_URL")
}

func TestICS(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		serveICS(w)
	})

	ics := NewICS(newParams(""), srv.URL+"/cal.ics")
	events, err := ics.GetCalendarEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2, "past events are dropped")

	assert.Equal(t, calendar.Event{
		Summary: "Dentist",
		Start:   time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC),
	}, events[0])
	assert.Equal(t, calendar.Event{
		Summary: "Conference",
		Start:   time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		AllDay:  true,
	}, events[1])

	_, err = ics.GetCalendarEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestICS_GarbageIsMalformed(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nUID:x\r\nSUMMARY:no start\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"))
	})

	_, err := NewICS(newParams(""), srv.URL).GetCalendarEvents(context.Background())
	var malformed *fetch.MalformedResponseError
	require.True(t, errors.As(err, &malformed), "got %v", err)
}

func TestCalDav_BasicAuthExport(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "s3cret", pass)
		assert.Equal(t, "/remote.php/dav/calendars/alice/personal/", r.URL.Path)
		assert.Equal(t, "export", r.URL.RawQuery)
		serveICS(w)
	})

	c := NewCalDav(newParams(""), srv.URL+"/remote.php/dav/calendars/alice", "personal", "alice", "s3cret")
	events, err := c.GetCalendarEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestOutlook(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "/me/calendars/cal-1/calendarView", r.URL.Path)
		assert.Equal(t, "15", r.URL.Query().Get("$top"))
		assert.Equal(t, "2024-03-04T10:00:00Z", r.URL.Query().Get("startDateTime"))
		w.Write([]byte(`{"value":[
			{"subject":"Review","isAllDay":false,"start":{"dateTime":"2024-03-05T09:30:00.0000000","timeZone":"UTC"},"end":{"dateTime":"2024-03-05T10:00:00.0000000","timeZone":"UTC"}},
			{"subject":"Offsite","isAllDay":true,"start":{"dateTime":"2024-03-04T00:00:00.0000000","timeZone":"UTC"},"end":{"dateTime":"2024-03-05T00:00:00.0000000","timeZone":"UTC"}}
		]}`))
	})

	events, err := NewOutlook(newParams(srv.URL), "cal-1", "token-1").GetCalendarEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Offsite", events[0].Summary)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), events[1].Start)
}

func TestGoogle(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		w.Write([]byte(`{"items":[
			{"summary":"Birthday","start":{"date":"2024-03-09"},"end":{"date":"2024-03-10"}},
			{"summary":"Call","start":{"dateTime":"2024-03-04T16:00:00+01:00"},"end":{"dateTime":"2024-03-04T16:30:00+01:00"}}
		]}`))
	})

	events, err := NewGoogle(newParams(srv.URL), "", "g-key").GetCalendarEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Call", events[0].Summary)
	assert.True(t, events[0].Start.Equal(time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, calendar.Event{
		Summary: "Birthday",
		Start:   time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		AllDay:  true,
	}, events[1])
}
