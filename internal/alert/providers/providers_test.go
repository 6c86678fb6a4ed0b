package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/epaper-dashboard/internal/config"
	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/store"
	"github.com/i474232898/epaper-dashboard/internal/weather"
)

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
		Fetcher:  fetch.NewClient(store.NewMemoryStore()),
		Location: weather.Location{Lat: 38.8894, Lon: -77.0352},
		TTL:      time.Hour,
		BaseURL:  baseURL,
	}
}

const metOfficeFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Met Office warnings</title>
    <item>
      <title>
        Yellow warning of wind affecting London &amp; South East England
      </title>
      <description>Strong winds may lead to some disruption.</description>
    </item>
    <item><title>Yellow warning of rain</title></item>
  </channel>
</rss>`

func TestSelect_Priority(t *testing.T) {
	creds := config.AlertCredentials{
		MetOfficeFeedURL:  "https://example.com/metoffice.rss",
		MetEireannFeedURL: "https://example.com/meteireann.rss",
	}
	p, kind, err := Select(creds, newParams(""))
	require.NoError(t, err)
	assert.Equal(t, provider.KindMetOfficeRSS, kind)
	assert.IsType(t, &MetOfficeRSS{}, p)

	assert.Equal(t, []provider.Kind{provider.KindWeatherGovAlerts, provider.KindMetOfficeRSS, provider.KindMetEireannAlerts},
		provider.Order(Candidates(creds, Params{})))
}

func TestSelect_NothingConfiguredIsNoAlert(t *testing.T) {
	p, kind, err := Select(config.AlertCredentials{}, newParams(""))
	require.NoError(t, err)
	assert.Equal(t, KindNone, kind)

	msg, err := p.GetAlert(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestSelect_MalformedFeedURL(t *testing.T) {
	_, kind, err := Select(config.AlertCredentials{MetEireannFeedURL: "warnings.xml"}, newParams(""))
	require.Error(t, err)
	assert.Equal(t, provider.KindMetEireannAlerts, kind)

	var ice *provider.InvalidConfigError
	require.True(t, errors.As(err, &ice))
	assert.Equal(t, provider.CategoryAlert, ice.Category)
}

func TestWeatherGovAlerts(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts/active", r.URL.Path)
		assert.Equal(t, "38.8894,-77.0352", r.URL.Query().Get("point"))
		assert.Equal(t, "dashboard (me@example.com)", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"features":[
			{"properties":{"event":"Heat Advisory","headline":"Heat Advisory issued July 1 at 4:02AM EDT until July 1 at 8:00PM EDT"}},
			{"properties":{"event":"Flood Watch","headline":"Flood Watch"}}
		]}`))
	})

	a := NewWeatherGovAlerts(newParams(srv.URL), "dashboard (me@example.com)")
	msg, err := a.GetAlert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Heat Advisory issued July 1 at 4:02AM EDT until July 1 at 8:00PM EDT", msg)

	_, err = a.GetAlert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestWeatherGovAlerts_NoActiveAlerts(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	})

	msg, err := NewWeatherGovAlerts(newParams(srv.URL), "id").GetAlert(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestMetOfficeRSS(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(metOfficeFeed))
	})

	msg, err := NewMetOfficeRSS(newParams(""), srv.URL+"/feed.xml").GetAlert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Yellow warning of wind affecting London & South East England", msg)
}

func TestMetOfficeRSS_EmptyChannel(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<rss version="2.0"><channel><title>Met Office warnings</title></channel></rss>`))
	})

	msg, err := NewMetOfficeRSS(newParams(""), srv.URL).GetAlert(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestMetOfficeRSS_NotAFeed(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>maintenance</body></html>`))
	})

	_, err := NewMetOfficeRSS(newParams(""), srv.URL).GetAlert(context.Background())
	var malformed *fetch.MalformedResponseError
	assert.True(t, errors.As(err, &malformed), "got %v", err)
}

func TestMetEireannAlerts(t *testing.T) {
	tests := []struct {
		name string
		item string
		want string
	}{
		{
			name: "title and description",
			item: `<item><title>Yellow Wind Warning</title><description>Southwest winds gusting 90 km/h.</description></item>`,
			want: "Yellow Wind Warning - Southwest winds gusting 90 km/h.",
		},
		{
			name: "title only",
			item: `<item><title>Status Orange Rain Warning</title></item>`,
			want: "Status Orange Rain Warning",
		},
		{
			name: "description repeats title",
			item: `<item><title>Frost</title><description>frost</description></item>`,
			want: "Frost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<rss version="2.0"><channel>` + tt.item + `</channel></rss>`))
			})

			msg, err := NewMetEireannAlerts(newParams(""), srv.URL).GetAlert(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestAlert_UpstreamErrorSurfaces(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewMetEireannAlerts(newParams(""), srv.URL).GetAlert(context.Background())
	var fetchErr *fetch.FetchError
	require.True(t, errors.As(err, &fetchErr), "got %v", err)
	assert.Equal(t, fetch.ErrorTypeServer, fetchErr.Type)
}
