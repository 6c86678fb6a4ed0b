package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/epaper-dashboard/internal/calendar"
	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
)

const googleURL = "https://www.googleapis.com/calendar/v3"

// Google reads the Calendar v3 events list with an API key, so the calendar
// has to be public.
type Google struct {
	params     Params
	calendarID string
	apiKey     string
}

func NewGoogle(p Params, calendarID, apiKey string) *Google {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Google{params: p, calendarID: calendarID, apiKey: apiKey}
}

func (g *Google) Name() string {
	return string(provider.KindGoogle)
}

type googleTime struct {
	Date     string `json:"date"`
	DateTime string `json:"dateTime"`
}

type googlePayload struct {
	Items []struct {
		Summary string     `json:"summary"`
		Start   googleTime `json:"start"`
		End     googleTime `json:"end"`
	} `json:"items"`
}

func (g *Google) GetCalendarEvents(ctx context.Context) ([]calendar.Event, error) {
	w := g.params.Window
	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("timeMin", w.Start.UTC().Format(time.RFC3339))
	q.Set("timeMax", w.End.UTC().Format(time.RFC3339))
	q.Set("maxResults", strconv.Itoa(w.MaxResults))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	endpoint := fmt.Sprintf("%s/calendars/%s/events", g.params.base(googleURL), url.PathEscape(g.calendarID))

	var payload googlePayload
	if err := g.params.Fetcher.FetchJSON(ctx, g.params.request(withQuery(endpoint, q), "calendar-google", nil), &payload); err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}

	events := make([]calendar.Event, 0, len(payload.Items))
	for _, it := range payload.Items {
		e := calendar.Event{Summary: it.Summary, AllDay: it.Start.Date != ""}
		var err error
		if e.Start, err = g.parse(it.Start); err != nil {
			return nil, fetch.NewMalformedResponseError(g.Name(), "event start", err)
		}
		if e.End, err = g.parse(it.End); err != nil {
			return nil, fetch.NewMalformedResponseError(g.Name(), "event end", err)
		}
		events = append(events, e)
	}
	return w.Normalize(events), nil
}

func (g *Google) parse(t googleTime) (time.Time, error) {
	if t.Date != "" {
		return g.params.date(t.Date)
	}
	return time.Parse(time.RFC3339, t.DateTime)
}
