package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/epaper-dashboard/internal/weather"
)

// WeatherCredentials holds every weather credential group. The first group
// that is complete, in registry priority order, decides the provider.
type WeatherCredentials struct {
	VisualCrossingAPIKey   string
	MetEireann             bool
	WeatherGovSelfID       string
	MetNoSelfID            string
	AccuWeatherAPIKey      string
	AccuWeatherLocationKey string
	MetOfficeClientID      string
	MetOfficeClientSecret  string
	OpenWeatherMapAPIKey   string
	ClimacellAPIKey        string
	SMHISelfID             string
}

// CalendarCredentials holds every calendar credential group.
type CalendarCredentials struct {
	OutlookCalendarID  string
	OutlookAccessToken string

	CalDavURL        string
	CalDavCalendarID string
	CalDavUsername   string
	CalDavPassword   string

	ICSURL string

	GoogleCalendarID string
	GoogleAPIKey     string
}

// AlertCredentials holds every alert credential group.
type AlertCredentials struct {
	WeatherGovSelfID  string
	MetOfficeFeedURL  string
	MetEireannFeedURL string
}

// AppConfig is built once at startup and passed to every component.
type AppConfig struct {
	Location weather.Location
	Units    weather.Units

	Weather  WeatherCredentials
	Calendar CalendarCredentials
	Alert    AlertCredentials

	// Cache windows per category.
	WeatherTTL  time.Duration
	CalendarTTL time.Duration
	AlertTTL    time.Duration
	CacheDir    string

	HTTPTimeout time.Duration

	// Calendar window options.
	IncludePastEventsToday bool
	MaxCalendarEvents      int

	TemplatePath string
	OutputPath   string

	Locale   string
	Timezone *time.Location

	LogLevel      string
	WatchInterval time.Duration
	Port          string
}

// rawConfig mirrors the environment / config file keys.
type rawConfig struct {
	VisualCrossingAPIKey   string `mapstructure:"visualcrossing_apikey"`
	WeatherMetEireann      string `mapstructure:"weather_met_eireann"`
	WeatherGovSelfID       string `mapstructure:"weathergov_self_identification"`
	MetNoSelfID            string `mapstructure:"metno_self_identification"`
	AccuWeatherAPIKey      string `mapstructure:"accuweather_apikey"`
	AccuWeatherLocationKey string `mapstructure:"accuweather_locationkey"`
	MetOfficeClientID      string `mapstructure:"metofficedatahub_client_id"`
	MetOfficeClientSecret  string `mapstructure:"metofficedatahub_client_secret"`
	OpenWeatherMapAPIKey   string `mapstructure:"openweathermap_apikey"`
	ClimacellAPIKey        string `mapstructure:"climacell_apikey"`
	SMHISelfID             string `mapstructure:"smhi_self_identification"`

	OutlookCalendarID  string `mapstructure:"outlook_calendar_id"`
	OutlookAccessToken string `mapstructure:"outlook_access_token"`
	CalDavURL          string `mapstructure:"caldav_calendar_url"`
	CalDavCalendarID   string `mapstructure:"caldav_calendar_id"`
	CalDavUsername     string `mapstructure:"caldav_username"`
	CalDavPassword     string `mapstructure:"caldav_password"`
	ICSURL             string `mapstructure:"ics_calendar_url"`
	GoogleCalendarID   string `mapstructure:"google_calendar_id"`
	GoogleAPIKey       string `mapstructure:"google_calendar_api_key"`

	AlertWeatherGovSelfID  string `mapstructure:"alert_weathergov_self_identification"`
	AlertMetOfficeFeedURL  string `mapstructure:"alert_metoffice_feed_url"`
	AlertMetEireannFeedURL string `mapstructure:"alert_met_eireann_feed_url"`

	Latitude      float64 `mapstructure:"weather_latitude" validate:"gte=-90,lte=90"`
	Longitude     float64 `mapstructure:"weather_longitude" validate:"gte=-180,lte=180"`
	WeatherFormat string  `mapstructure:"weather_format" validate:"oneof=CELSIUS FAHRENHEIT"`

	WeatherTTL  int    `mapstructure:"weather_ttl" validate:"gte=0"`
	CalendarTTL int    `mapstructure:"calendar_ttl" validate:"gte=0"`
	AlertTTL    int    `mapstructure:"alert_ttl" validate:"gte=0"`
	CacheDir    string `mapstructure:"cache_dir" validate:"required"`

	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gt=0"`

	IncludePastEvents string `mapstructure:"calendar_include_past_events_for_today" validate:"oneof=0 1"`
	MaxEvents         int    `mapstructure:"calendar_max_events" validate:"gt=0"`

	ScreenLayout string `mapstructure:"screen_layout" validate:"required"`
	TemplateDir  string `mapstructure:"template_dir"`
	OutputSVG    string `mapstructure:"output_svg" validate:"required"`

	Locale   string `mapstructure:"locale"`
	Timezone string `mapstructure:"timezone"`

	LogLevel      string        `mapstructure:"log_level"`
	WatchInterval time.Duration `mapstructure:"watch_interval" validate:"gt=0"`
	Port          string        `mapstructure:"port" validate:"required,numeric"`
}

var validate = validator.New()

var defaults = map[string]any{
	"weather_latitude":                       51.5077,
	"weather_longitude":                      -0.1277,
	"weather_format":                         "CELSIUS",
	"weather_ttl":                            3600,
	"calendar_ttl":                           3600,
	"alert_ttl":                              3600,
	"cache_dir":                              ".cache",
	"http_timeout":                           "10s",
	"calendar_include_past_events_for_today": "0",
	"calendar_max_events":                    15,
	"google_calendar_id":                     "primary",
	"screen_layout":                          "1",
	"template_dir":                           ".",
	"output_svg":                             "screen-output-weather.svg",
	"locale":                                 "en_GB",
	"log_level":                              "info",
	"watch_interval":                         "15m",
	"port":                                   "8080",
}

// Load reads configuration from an optional .env file, the environment and an
// optional config.yaml, in increasing precedence for the environment.
func Load() (*AppConfig, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, def := range defaults {
		v.SetDefault(key, def)
	}
	for _, key := range boundKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.epaper-dashboard")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return build(raw)
}

func boundKeys() []string {
	return []string{
		"visualcrossing_apikey", "weather_met_eireann", "weathergov_self_identification",
		"metno_self_identification", "accuweather_apikey", "accuweather_locationkey",
		"metofficedatahub_client_id", "metofficedatahub_client_secret", "openweathermap_apikey",
		"climacell_apikey", "smhi_self_identification",
		"outlook_calendar_id", "outlook_access_token", "caldav_calendar_url", "caldav_calendar_id",
		"caldav_username", "caldav_password", "ics_calendar_url", "google_calendar_id",
		"google_calendar_api_key",
		"alert_weathergov_self_identification", "alert_metoffice_feed_url", "alert_met_eireann_feed_url",
		"weather_latitude", "weather_longitude", "weather_format",
		"weather_ttl", "calendar_ttl", "alert_ttl", "cache_dir", "http_timeout",
		"calendar_include_past_events_for_today", "calendar_max_events",
		"screen_layout", "template_dir", "output_svg", "locale", "timezone",
		"log_level", "watch_interval", "port",
	}
}

func build(raw rawConfig) (*AppConfig, error) {
	raw.WeatherFormat = strings.ToUpper(strings.TrimSpace(raw.WeatherFormat))
	if err := validate.Struct(raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tz := time.Local
	if raw.Timezone != "" {
		loc, err := time.LoadLocation(raw.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
		tz = loc
	}

	units := weather.UnitsMetric
	if raw.WeatherFormat == "FAHRENHEIT" {
		units = weather.UnitsImperial
	}

	cfg := &AppConfig{
		Location: weather.Location{Lat: raw.Latitude, Lon: raw.Longitude},
		Units:    units,
		Weather: WeatherCredentials{
			VisualCrossingAPIKey:   raw.VisualCrossingAPIKey,
			MetEireann:             truthy(raw.WeatherMetEireann),
			WeatherGovSelfID:       raw.WeatherGovSelfID,
			MetNoSelfID:            raw.MetNoSelfID,
			AccuWeatherAPIKey:      raw.AccuWeatherAPIKey,
			AccuWeatherLocationKey: raw.AccuWeatherLocationKey,
			MetOfficeClientID:      raw.MetOfficeClientID,
			MetOfficeClientSecret:  raw.MetOfficeClientSecret,
			OpenWeatherMapAPIKey:   raw.OpenWeatherMapAPIKey,
			ClimacellAPIKey:        raw.ClimacellAPIKey,
			SMHISelfID:             raw.SMHISelfID,
		},
		Calendar: CalendarCredentials{
			OutlookCalendarID:  raw.OutlookCalendarID,
			OutlookAccessToken: raw.OutlookAccessToken,
			CalDavURL:          raw.CalDavURL,
			CalDavCalendarID:   raw.CalDavCalendarID,
			CalDavUsername:     raw.CalDavUsername,
			CalDavPassword:     raw.CalDavPassword,
			ICSURL:             raw.ICSURL,
			GoogleCalendarID:   raw.GoogleCalendarID,
			GoogleAPIKey:       raw.GoogleAPIKey,
		},
		Alert: AlertCredentials{
			WeatherGovSelfID:  raw.AlertWeatherGovSelfID,
			MetOfficeFeedURL:  raw.AlertMetOfficeFeedURL,
			MetEireannFeedURL: raw.AlertMetEireannFeedURL,
		},
		WeatherTTL:             time.Duration(raw.WeatherTTL) * time.Second,
		CalendarTTL:            time.Duration(raw.CalendarTTL) * time.Second,
		AlertTTL:               time.Duration(raw.AlertTTL) * time.Second,
		CacheDir:               raw.CacheDir,
		HTTPTimeout:            raw.HTTPTimeout,
		IncludePastEventsToday: raw.IncludePastEvents == "1",
		MaxCalendarEvents:      raw.MaxEvents,
		TemplatePath:           filepath.Join(raw.TemplateDir, fmt.Sprintf("screen-template.%s.svg", raw.ScreenLayout)),
		OutputPath:             raw.OutputSVG,
		Locale:                 raw.Locale,
		Timezone:               tz,
		LogLevel:               raw.LogLevel,
		WatchInterval:          raw.WatchInterval,
		Port:                   raw.Port,
	}
	return cfg, nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
