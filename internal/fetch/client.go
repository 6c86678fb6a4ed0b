package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/text/encoding/htmlindex"
	"resty.dev/v3"

	"github.com/i474232898/epaper-dashboard/internal/store"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 8 << 20
)

// Request describes one cached GET.
type Request struct {
	URL      string
	Headers  map[string]string
	CacheKey string
	TTL      time.Duration
}

// Fetcher is the contract providers use to retrieve upstream payloads.
type Fetcher interface {
	FetchJSON(ctx context.Context, req Request, out any) error
	FetchXML(ctx context.Context, req Request, out any) error
	FetchText(ctx context.Context, req Request) ([]byte, error)
}

// Client serves payloads from the cache store while they are fresh and issues
// a single GET otherwise. It never retries.
type Client struct {
	store store.Store
	http  *resty.Client
	log   zerolog.Logger

	// one breaker per upstream, created on first use
	breakerSettings gobreaker.Settings
	mu              sync.Mutex
	breakers        map[string]*gobreaker.CircuitBreaker

	timeout    time.Duration
	httpClient *http.Client
}

// Option mutates the client during construction.
type Option func(*Client)

// WithTimeout bounds every request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient installs a custom transport client (useful for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithBreakerSettings replaces the settings every per-upstream breaker is
// built from. Name is overwritten with the upstream's breaker key.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(c *Client) { c.breakerSettings = st }
}

// NewClient builds a Client backed by s.
func NewClient(s store.Store, opts ...Option) *Client {
	c := &Client{
		store:   s,
		timeout: defaultTimeout,
		breakerSettings: gobreaker.Settings{
			Timeout: 2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		},
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	rc := resty.New()
	if c.httpClient != nil {
		rc = resty.NewWithClient(c.httpClient)
	}
	c.http = rc.
		SetTimeout(c.timeout).
		SetRetryCount(0).
		SetResponseBodyLimit(maxBodySize)
	return c
}

// FetchJSON decodes the (possibly cached) payload as JSON into out.
func (c *Client) FetchJSON(ctx context.Context, req Request, out any) error {
	return c.fetch(ctx, req, func(data []byte) error {
		return json.Unmarshal(data, out)
	})
}

// FetchXML decodes the (possibly cached) payload as XML into out.
func (c *Client) FetchXML(ctx context.Context, req Request, out any) error {
	return c.fetch(ctx, req, func(data []byte) error {
		dec := xml.NewDecoder(bytes.NewReader(data))
		dec.CharsetReader = charsetReader
		return dec.Decode(out)
	})
}

// charsetReader lets feeds declare legacy encodings such as ISO-8859-1.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// FetchText returns the (possibly cached) raw payload. Empty bodies are rejected.
func (c *Client) FetchText(ctx context.Context, req Request) ([]byte, error) {
	var body []byte
	err := c.fetch(ctx, req, func(data []byte) error {
		if len(data) == 0 {
			return errors.New("empty body")
		}
		body = data
		return nil
	})
	return body, err
}

func (c *Client) fetch(ctx context.Context, req Request, decode func([]byte) error) error {
	log := c.log.With().Str("cache_key", req.CacheKey).Logger()

	if req.CacheKey != "" && !c.store.IsStale(req.CacheKey, req.TTL) {
		data, err := c.store.Read(req.CacheKey)
		switch {
		case err == nil:
			derr := decode(data)
			if derr == nil {
				log.Info().Msg("found in cache")
				return nil
			}
			log.Warn().Err(derr).Msg("cached payload unreadable, refetching")
		case errors.Is(err, store.ErrNotFound):
		default:
			log.Warn().Err(err).Msg("cache read failed, refetching")
		}
	}

	log.Info().Str("url", req.URL).Msg("cache is stale, fetching from source")
	body, err := c.get(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("fetch failed")
		return err
	}

	if err := decode(body); err != nil {
		return NewMalformedResponseError(req.URL, "decode body", err)
	}

	if req.CacheKey != "" {
		if err := c.store.Write(req.CacheKey, body); err != nil {
			log.Warn().Err(err).Msg("could not persist response to cache")
		}
	}
	return nil
}

// get performs exactly one GET through the circuit breaker.
func (c *Client) get(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := c.breaker(req).Execute(func() (interface{}, error) {
		resp, execErr := c.http.R().
			SetContext(ctx).
			SetHeaders(req.Headers).
			Get(req.URL)
		if execErr != nil {
			if isTimeout(ctx, execErr) {
				return nil, NewTimeoutError(req.URL, execErr)
			}
			return nil, NewNetworkError(req.URL, execErr)
		}

		body := resp.Bytes()
		if !resp.IsSuccess() {
			return nil, ClassifyHTTPError(req.URL, resp.StatusCode(), body)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, NewCircuitOpenError(req.URL, err)
		}
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, NewNetworkError(req.URL, errors.New("unexpected result type from circuit breaker"))
	}
	return body, nil
}

// breaker returns the breaker guarding req's upstream: one per cache key, or
// per host for uncached requests.
func (c *Client) breaker(req Request) *gobreaker.CircuitBreaker {
	key := req.CacheKey
	if key == "" {
		key = req.URL
		if u, err := url.Parse(req.URL); err == nil && u.Host != "" {
			key = u.Host
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[key]; ok {
		return cb
	}
	st := c.breakerSettings
	st.Name = key
	if st.IsSuccessful == nil {
		st.IsSuccessful = countsAsSuccess
	}
	cb := gobreaker.NewCircuitBreaker(st)
	c.breakers[key] = cb
	return cb
}

// countsAsSuccess keeps 4xx answers from tripping the breaker: the upstream is
// up, the request or its credentials are wrong.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var fe *FetchError
	return errors.As(err, &fe) && fe.Type == ErrorTypeClient
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
