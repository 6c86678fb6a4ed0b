package providers

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/weather"
)

// Params carries what every alert provider needs besides its credentials.
type Params struct {
	Fetcher  fetch.Fetcher
	Location weather.Location
	TTL      time.Duration

	// BaseURL overrides the weather.gov origin; feed providers take full URLs.
	BaseURL string
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

// rssFeed is the subset of RSS 2.0 both feed providers read.
type rssFeed struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
}

func (f rssFeed) first() (rssItem, bool) {
	if len(f.Channel.Items) == 0 {
		return rssItem{}, false
	}
	return f.Channel.Items[0], true
}

// clean collapses the whitespace feeds wrap their text in.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
