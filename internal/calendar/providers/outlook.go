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

const outlookURL = "https://graph.microsoft.com/v1.0"

// Outlook reads a Microsoft Graph calendar view. The bearer token is obtained
// out of band and passed in through configuration.
type Outlook struct {
	params      Params
	calendarID  string
	accessToken string
}

func NewOutlook(p Params, calendarID, accessToken string) *Outlook {
	return &Outlook{params: p, calendarID: calendarID, accessToken: accessToken}
}

func (o *Outlook) Name() string {
	return string(provider.KindOutlook)
}

type outlookDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type outlookPayload struct {
	Value []struct {
		Subject  string          `json:"subject"`
		IsAllDay bool            `json:"isAllDay"`
		Start    outlookDateTime `json:"start"`
		End      outlookDateTime `json:"end"`
	} `json:"value"`
}

func (o *Outlook) GetCalendarEvents(ctx context.Context) ([]calendar.Event, error) {
	w := o.params.Window
	q := url.Values{}
	q.Set("startDateTime", w.Start.UTC().Format(time.RFC3339))
	q.Set("endDateTime", w.End.UTC().Format(time.RFC3339))
	q.Set("$top", strconv.Itoa(w.MaxResults))
	q.Set("$orderby", "start/dateTime")
	q.Set("$select", "subject,start,end,isAllDay")
	endpoint := fmt.Sprintf("%s/me/calendars/%s/calendarView", o.params.base(outlookURL), url.PathEscape(o.calendarID))
	headers := map[string]string{
		"Authorization": "Bearer " + o.accessToken,
		"Prefer":        `outlook.timezone="UTC"`,
	}

	var payload outlookPayload
	if err := o.params.Fetcher.FetchJSON(ctx, o.params.request(withQuery(endpoint, q), "calendar-outlook", headers), &payload); err != nil {
		return nil, fmt.Errorf("outlook: %w", err)
	}

	events := make([]calendar.Event, 0, len(payload.Value))
	for _, v := range payload.Value {
		start, err := o.parse(v.Start, v.IsAllDay)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(o.Name(), "event start", err)
		}
		end, err := o.parse(v.End, v.IsAllDay)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(o.Name(), "event end", err)
		}
		events = append(events, calendar.Event{Start: start, End: end, Summary: v.Subject, AllDay: v.IsAllDay})
	}
	return w.Normalize(events), nil
}

// parse reads Graph's zone-less "2024-03-04T09:00:00.0000000" in the
// reported zone. All-day values are re-anchored to local midnight.
func (o *Outlook) parse(dt outlookDateTime, allDay bool) (time.Time, error) {
	zone := time.UTC
	if dt.TimeZone != "" && dt.TimeZone != "UTC" {
		if loc, err := time.LoadLocation(dt.TimeZone); err == nil {
			zone = loc
		}
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.9999999", dt.DateTime, zone)
	if err != nil {
		return time.Time{}, err
	}
	if allDay {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, o.params.tz()), nil
	}
	return t, nil
}
