package weather

import (
	"context"
)

// Provider abstracts a forecast source (Met.no, Visual Crossing, SMHI...).
// GetWeather returns consecutive days starting today with every field set.
type Provider interface {
	Name() string
	GetWeather(ctx context.Context) (Forecast, error)
}
