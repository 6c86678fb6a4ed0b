package providers

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/i474232898/epaper-dashboard/internal/calendar"
	"github.com/i474232898/epaper-dashboard/internal/fetch"
)

var errMissingStart = errors.New("missing DTSTART")

// Params carries what every calendar provider needs besides its credentials.
type Params struct {
	Fetcher fetch.Fetcher
	TTL     time.Duration
	Window  calendar.Window

	// TZ anchors all-day events; defaults to time.Local.
	TZ *time.Location

	// BaseURL overrides the upstream origin for hosted APIs.
	BaseURL string
}

func (p Params) tz() *time.Location {
	if p.TZ != nil {
		return p.TZ
	}
	return time.Local
}

func (p Params) base(def string) string {
	if p.BaseURL != "" {
		return strings.TrimRight(p.BaseURL, "/")
	}
	return def
}

func (p Params) request(rawURL, cacheKey string, headers map[string]string) fetch.Request {
	return fetch.Request{URL: rawURL, Headers: headers, CacheKey: cacheKey, TTL: p.TTL}
}

func withQuery(base string, q url.Values) string {
	return base + "?" + q.Encode()
}

// date parses a YYYY-MM-DD (or YYYYMMDD) all-day date at local midnight.
func (p Params) date(s string) (time.Time, error) {
	layout := "2006-01-02"
	if len(s) == 8 {
		layout = "20060102"
	}
	return time.ParseInLocation(layout, s, p.tz())
}

// fetchICS downloads an iCalendar body and converts its VEVENTs.
func fetchICS(ctx context.Context, p Params, source string, req fetch.Request) ([]calendar.Event, error) {
	body, err := p.Fetcher.FetchText(ctx, req)
	if err != nil {
		return nil, err
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fetch.NewMalformedResponseError(source, "parse ics", err)
	}

	var events []calendar.Event
	for _, ve := range cal.Events() {
		e, err := icsEvent(p, ve)
		if err != nil {
			return nil, fetch.NewMalformedResponseError(source, "event "+ve.Id(), err)
		}
		events = append(events, e)
	}
	return p.Window.Normalize(events), nil
}

func icsEvent(p Params, ve *ics.VEvent) (calendar.Event, error) {
	var e calendar.Event
	if summary := ve.GetProperty(ics.ComponentPropertySummary); summary != nil {
		e.Summary = summary.Value
	}

	start := ve.GetProperty(ics.ComponentPropertyDtStart)
	if start == nil {
		return e, errMissingStart
	}
	if isDateValue(start) {
		var err error
		e.AllDay = true
		if e.Start, err = p.date(start.Value); err != nil {
			return e, err
		}
		e.End = e.Start.AddDate(0, 0, 1)
		if end := ve.GetProperty(ics.ComponentPropertyDtEnd); end != nil {
			if e.End, err = p.date(end.Value); err != nil {
				return e, err
			}
		}
		return e, nil
	}

	var err error
	if e.Start, err = ve.GetStartAt(); err != nil {
		return e, err
	}
	e.End = e.Start
	if ve.GetProperty(ics.ComponentPropertyDtEnd) != nil {
		if e.End, err = ve.GetEndAt(); err != nil {
			return e, err
		}
	}
	return e, nil
}

func isDateValue(prop *ics.IANAProperty) bool {
	if v, ok := prop.ICalParameters["VALUE"]; ok && len(v) > 0 && strings.EqualFold(v[0], "DATE") {
		return true
	}
	return len(prop.Value) == 8
}
