package providers

import (
	"context"
	"fmt"

	"github.com/i474232898/epaper-dashboard/internal/provider"
)

// MetOfficeRSS reads a regional Met Office warnings RSS feed.
type MetOfficeRSS struct {
	params  Params
	feedURL string
}

func NewMetOfficeRSS(p Params, feedURL string) *MetOfficeRSS {
	return &MetOfficeRSS{params: p, feedURL: feedURL}
}

func (m *MetOfficeRSS) Name() string {
	return string(provider.KindMetOfficeRSS)
}

func (m *MetOfficeRSS) GetAlert(ctx context.Context) (string, error) {
	var feed rssFeed
	if err := m.params.Fetcher.FetchXML(ctx, m.params.request(m.feedURL, "alert-metoffice", nil), &feed); err != nil {
		return "", fmt.Errorf("metoffice rss: %w", err)
	}
	item, ok := feed.first()
	if !ok {
		return "", nil
	}
	return clean(item.Title), nil
}
