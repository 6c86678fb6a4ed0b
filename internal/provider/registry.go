// Package provider selects exactly one configured provider variant per data
// category from a priority-ordered list of candidates.
package provider

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Category is the axis along which one provider is active at a time.
type Category string

const (
	CategoryWeather  Category = "weather"
	CategoryCalendar Category = "calendar"
	CategoryAlert    Category = "alert"
)

// Categories lists every category in rendering order.
var Categories = []Category{CategoryCalendar, CategoryWeather, CategoryAlert}

// ParseCategory validates s as a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Kind identifies a concrete provider variant.
type Kind string

const (
	KindVisualCrossing   Kind = "visualcrossing"
	KindMetEireann       Kind = "meteireann"
	KindWeatherGov       Kind = "weathergov"
	KindMetNo            Kind = "metno"
	KindAccuWeather      Kind = "accuweather"
	KindMetOfficeDataHub Kind = "metofficedatahub"
	KindOpenWeatherMap   Kind = "openweathermap"
	KindClimacell        Kind = "climacell"
	KindSMHI             Kind = "smhi"

	KindOutlook Kind = "outlook"
	KindCalDav  Kind = "caldav"
	KindICS     Kind = "ics"
	KindGoogle  Kind = "google"

	KindWeatherGovAlerts Kind = "weathergovalerts"
	KindMetOfficeRSS     Kind = "metofficerss"
	KindMetEireannAlerts Kind = "meteireannalerts"
)

// ErrNoProviderConfigured matches any NoProviderConfiguredError via errors.Is.
var ErrNoProviderConfigured = errors.New("no provider configured")

// NoProviderConfiguredError is returned when no candidate's credentials are present.
type NoProviderConfiguredError struct {
	Category Category
	Tried    []Kind
}

func (e *NoProviderConfiguredError) Error() string {
	return fmt.Sprintf("no %s provider configured (checked %v)", e.Category, e.Tried)
}

func (e *NoProviderConfiguredError) Is(target error) bool {
	return target == ErrNoProviderConfigured
}

// InvalidConfigError is returned when the selected candidate's credentials are
// present but malformed. It only affects its own category.
type InvalidConfigError struct {
	Category Category
	Kind     Kind
	Err      error
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid %s configuration for %s: %v", e.Category, e.Kind, e.Err)
}

func (e *InvalidConfigError) Unwrap() error {
	return e.Err
}

// Candidate pairs a provider kind with the predicate that decides whether its
// credentials are present and the constructor that builds it. Validate, when
// set, runs on the selected candidate before it is built.
type Candidate[P any] struct {
	Kind       Kind
	Configured func() bool
	Validate   func() error
	New        func() P
}

// Select returns the first configured candidate in order.
func Select[P any](category Category, candidates []Candidate[P]) (P, Kind, error) {
	var zero P
	tried := make([]Kind, 0, len(candidates))
	for _, c := range candidates {
		if c.Configured != nil && c.Configured() {
			if c.Validate != nil {
				if err := c.Validate(); err != nil {
					return zero, c.Kind, &InvalidConfigError{Category: category, Kind: c.Kind, Err: err}
				}
			}
			return c.New(), c.Kind, nil
		}
		tried = append(tried, c.Kind)
	}
	return zero, "", &NoProviderConfiguredError{Category: category, Tried: tried}
}

// Order returns the kinds of candidates in priority order.
func Order[P any](candidates []Candidate[P]) []Kind {
	kinds := make([]Kind, len(candidates))
	for i, c := range candidates {
		kinds[i] = c.Kind
	}
	return kinds
}

var validate = validator.New()

// ValidURL checks that the named setting holds an absolute URL.
func ValidURL(name, v string) error {
	if err := validate.Var(v, "required,url"); err != nil {
		return fmt.Errorf("%s %q is not a valid url", name, v)
	}
	return nil
}
