// Package dashboard refreshes the per-category values and renders them into
// the output SVG.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/epaper-dashboard/internal/alert"
	alertproviders "github.com/i474232898/epaper-dashboard/internal/alert/providers"
	"github.com/i474232898/epaper-dashboard/internal/calendar"
	calendarproviders "github.com/i474232898/epaper-dashboard/internal/calendar/providers"
	"github.com/i474232898/epaper-dashboard/internal/config"
	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/render"
	"github.com/i474232898/epaper-dashboard/internal/store"
	"github.com/i474232898/epaper-dashboard/internal/weather"
	weatherproviders "github.com/i474232898/epaper-dashboard/internal/weather/providers"
)

// Runner resolves providers from configuration and turns their data into
// template values. Between runs it keeps the last good values of each category
// in the store.
type Runner struct {
	cfg     *config.AppConfig
	fetcher fetch.Fetcher
	store   store.Store
	log     zerolog.Logger
	now     func() time.Time

	weatherBaseURL  string
	calendarBaseURL string
	alertBaseURL    string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l.With().Str("component", "dashboard").Logger() }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithBaseURLs points hosted provider APIs at another origin. Empty strings
// keep the real endpoints.
func WithBaseURLs(weatherURL, calendarURL, alertURL string) Option {
	return func(r *Runner) {
		r.weatherBaseURL = weatherURL
		r.calendarBaseURL = calendarURL
		r.alertBaseURL = alertURL
	}
}

func NewRunner(cfg *config.AppConfig, fetcher fetch.Fetcher, st store.Store, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		fetcher: fetcher,
		store:   st,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) tz() *time.Location {
	if r.cfg.Timezone != nil {
		return r.cfg.Timezone
	}
	return time.Local
}

func (r *Runner) localNow() time.Time {
	return r.now().In(r.tz())
}

// WeatherValues fetches the forecast from the configured provider and formats
// the WEATHER_* and clock tokens.
func (r *Runner) WeatherValues(ctx context.Context) (render.Values, error) {
	p, kind, err := weatherproviders.Select(r.cfg.Weather, weatherproviders.Params{
		Fetcher:  r.fetcher,
		Location: r.cfg.Location,
		Units:    r.cfg.Units,
		TTL:      r.cfg.WeatherTTL,
		Now:      r.now,
		TZ:       r.tz(),
		BaseURL:  r.weatherBaseURL,
	})
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("provider", string(kind)).Msg("using weather provider")

	forecast, err := p.GetWeather(ctx)
	if err != nil {
		return nil, fmt.Errorf("get weather from %s: %w", p.Name(), err)
	}
	return weather.Format(forecast, r.cfg.Units, r.localNow(), r.cfg.Locale), nil
}

// CalendarValues fetches upcoming events and formats CAL_DAY_i and CAL_EVENTS.
func (r *Runner) CalendarValues(ctx context.Context) (render.Values, error) {
	now := r.localNow()
	p, kind, err := calendarproviders.Select(r.cfg.Calendar, calendarproviders.Params{
		Fetcher: r.fetcher,
		TTL:     r.cfg.CalendarTTL,
		Window:  calendar.NewWindow(now, r.cfg.IncludePastEventsToday, r.cfg.MaxCalendarEvents),
		TZ:      r.tz(),
		BaseURL: r.calendarBaseURL,
	})
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("provider", string(kind)).Msg("using calendar provider")

	events, err := p.GetCalendarEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("get calendar events from %s: %w", p.Name(), err)
	}
	return calendar.Format(events, now, r.cfg.Locale), nil
}

// AlertValues formats the current warning. Alerts are best-effort: failures
// are logged and render as a hidden, empty message.
func (r *Runner) AlertValues(ctx context.Context) (render.Values, error) {
	p, kind, err := alertproviders.Select(r.cfg.Alert, alertproviders.Params{
		Fetcher:  r.fetcher,
		Location: r.cfg.Location,
		TTL:      r.cfg.AlertTTL,
		BaseURL:  r.alertBaseURL,
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("no alert provider")
		return alert.Format(""), nil
	}

	msg, err := p.GetAlert(ctx)
	if err != nil {
		r.log.Warn().Err(err).Str("provider", string(kind)).Msg("alert unavailable")
		return alert.Format(""), nil
	}
	r.log.Info().Str("provider", string(kind)).Str("alert", msg).Msg("alert")
	return alert.Format(msg), nil
}

// Values dispatches to the category's formatter.
func (r *Runner) Values(ctx context.Context, c provider.Category) (render.Values, error) {
	switch c {
	case provider.CategoryWeather:
		return r.WeatherValues(ctx)
	case provider.CategoryCalendar:
		return r.CalendarValues(ctx)
	case provider.CategoryAlert:
		return r.AlertValues(ctx)
	default:
		return nil, fmt.Errorf("unknown category %q", c)
	}
}

// Run refreshes the requested categories (all when none given) and renders
// the template into the output once. A category that fails, or was not
// requested, contributes its last good values so a partial refresh never
// erases what an earlier run drew. When no requested category refreshes the
// output is left as it was. The joined errors are returned for logging.
func (r *Runner) Run(ctx context.Context, categories ...provider.Category) error {
	log := r.log.With().Str("run_id", uuid.NewString()).Logger()
	log.Info().Msg("dashboard run started")

	requested := make(map[provider.Category]bool)
	for _, c := range stages(categories) {
		requested[c] = true
	}

	var (
		errs      []error
		rendered  []render.Values
		refreshed int
	)
	for _, c := range provider.Categories {
		clog := log.With().Str("category", string(c)).Logger()

		if !requested[c] {
			if last, ok := r.lastGood(clog, c); ok {
				rendered = append(rendered, last)
			}
			continue
		}

		values, err := r.Values(ctx, c)
		if err != nil {
			if errors.Is(err, provider.ErrNoProviderConfigured) {
				clog.Warn().Err(err).Msg("stage skipped")
			} else {
				clog.Error().Err(err).Msg("stage failed")
			}
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
			if last, ok := r.lastGood(clog, c); ok {
				clog.Info().Msg("using last good values")
				rendered = append(rendered, last)
			}
			continue
		}

		r.remember(clog, c, values)
		rendered = append(rendered, values)
		refreshed++
		clog.Info().Int("tokens", len(values)).Msg("stage refreshed")
	}

	if refreshed == 0 {
		log.Warn().Int("failed", len(errs)).Msg("nothing refreshed, output left as it was")
		return errors.Join(errs...)
	}
	if err := render.UpdateFile(r.cfg.TemplatePath, r.cfg.OutputPath, rendered...); err != nil {
		log.Error().Err(err).Msg("render failed")
		errs = append(errs, fmt.Errorf("render: %w", err))
	} else {
		log.Info().Str("template", r.cfg.TemplatePath).Str("output", r.cfg.OutputPath).Msg("output rendered")
	}

	log.Info().Int("failed", len(errs)).Msg("dashboard run finished")
	return errors.Join(errs...)
}

func valuesKey(c provider.Category) string {
	return "values-" + string(c)
}

// remember persists values as the category's last good values.
func (r *Runner) remember(log zerolog.Logger, c provider.Category, values render.Values) {
	payload, err := json.Marshal(values)
	if err != nil {
		log.Warn().Err(err).Msg("could not encode values")
		return
	}
	if err := r.store.Write(valuesKey(c), payload); err != nil {
		log.Warn().Err(err).Msg("could not persist values")
	}
}

// lastGood loads the values persisted by the category's last successful run.
func (r *Runner) lastGood(log zerolog.Logger, c provider.Category) (render.Values, bool) {
	payload, err := r.store.Read(valuesKey(c))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Msg("could not read last good values")
		}
		return nil, false
	}
	var values render.Values
	if err := json.Unmarshal(payload, &values); err != nil {
		log.Warn().Err(err).Msg("last good values unreadable")
		return nil, false
	}
	return values, true
}

// stages orders the requested categories the way they must be rendered and
// drops duplicates.
func stages(requested []provider.Category) []provider.Category {
	if len(requested) == 0 {
		return provider.Categories
	}
	want := make(map[provider.Category]bool, len(requested))
	for _, c := range requested {
		want[c] = true
	}
	var out []provider.Category
	for _, c := range provider.Categories {
		if want[c] {
			out = append(out, c)
		}
	}
	return out
}
