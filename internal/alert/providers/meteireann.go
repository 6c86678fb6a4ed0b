package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/i474232898/epaper-dashboard/internal/provider"
)

// MetEireannAlerts reads the Met Éireann warnings RSS feed. Its titles are
// terse ("Yellow Wind Warning"), so the description is appended.
type MetEireannAlerts struct {
	params  Params
	feedURL string
}

func NewMetEireannAlerts(p Params, feedURL string) *MetEireannAlerts {
	return &MetEireannAlerts{params: p, feedURL: feedURL}
}

func (m *MetEireannAlerts) Name() string {
	return string(provider.KindMetEireannAlerts)
}

func (m *MetEireannAlerts) GetAlert(ctx context.Context) (string, error) {
	var feed rssFeed
	if err := m.params.Fetcher.FetchXML(ctx, m.params.request(m.feedURL, "alert-meteireann", nil), &feed); err != nil {
		return "", fmt.Errorf("meteireann alerts: %w", err)
	}
	item, ok := feed.first()
	if !ok {
		return "", nil
	}
	title, desc := clean(item.Title), clean(item.Description)
	if desc == "" || strings.EqualFold(desc, title) {
		return title, nil
	}
	if title == "" {
		return desc, nil
	}
	return title + " - " + desc, nil
}
