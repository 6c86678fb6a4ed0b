package providers

import (
	"context"
	"fmt"

	"github.com/i474232898/epaper-dashboard/internal/calendar"
	"github.com/i474232898/epaper-dashboard/internal/provider"
)

// ICS reads a public iCalendar feed.
type ICS struct {
	params Params
	url    string
}

func NewICS(p Params, url string) *ICS {
	return &ICS{params: p, url: url}
}

func (c *ICS) Name() string {
	return string(provider.KindICS)
}

func (c *ICS) GetCalendarEvents(ctx context.Context) ([]calendar.Event, error) {
	events, err := fetchICS(ctx, c.params, c.Name(), c.params.request(c.url, "calendar-ics", nil))
	if err != nil {
		return nil, fmt.Errorf("ics: %w", err)
	}
	return events, nil
}
