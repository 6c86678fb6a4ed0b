package calendar

import (
	"context"
	"sort"
	"time"
)

const (
	// DefaultMaxResults is the number of events the screen templates have room for.
	DefaultMaxResults = 15
	windowLength      = 365 * 24 * time.Hour
)

// Event is one calendar entry. End is exclusive; all-day events start and end
// at local midnight.
type Event struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Summary string    `json:"summary"`
	AllDay  bool      `json:"allDay"`
}

// FirstDay returns the local date the event starts on.
func (e Event) FirstDay(loc *time.Location) time.Time {
	return startOfDay(e.Start.In(loc))
}

// LastDay returns the local date of the last day the event occupies.
func (e Event) LastDay(loc *time.Location) time.Time {
	end := e.End
	if end.After(e.Start) {
		end = end.Add(-time.Nanosecond)
	} else {
		end = e.Start
	}
	return startOfDay(end.In(loc))
}

// Occurs reports whether the event covers the local date day (inclusive).
func (e Event) Occurs(day time.Time) bool {
	loc := day.Location()
	return !e.FirstDay(loc).After(day) && !day.After(e.LastDay(loc))
}

// Provider abstracts a calendar source (Outlook, CalDav, ICS, Google).
type Provider interface {
	Name() string
	GetCalendarEvents(ctx context.Context) ([]Event, error)
}

// Window bounds the events a provider returns.
type Window struct {
	Start      time.Time
	End        time.Time
	MaxResults int
}

// NewWindow spans one year from now, or from the start of today when past
// events of today should still be shown.
func NewWindow(now time.Time, includePastToday bool, maxResults int) Window {
	start := now
	if includePastToday {
		start = startOfDay(now)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return Window{Start: start, End: now.Add(windowLength), MaxResults: maxResults}
}

// Normalize drops events outside the window, sorts by start and truncates to
// MaxResults. Events that already ended before the window are excluded;
// events starting exactly at the window end are kept.
func (w Window) Normalize(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.End.After(e.Start) {
			if !e.End.After(w.Start) {
				continue
			}
		} else if e.Start.Before(w.Start) {
			continue
		}
		if e.Start.After(w.End) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	if w.MaxResults > 0 && len(out) > w.MaxResults {
		out = out[:w.MaxResults]
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
