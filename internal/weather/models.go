package weather

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Units selects the unit system requested from providers and used for display.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// Degrees returns the temperature suffix for u.
func (u Units) Degrees() string {
	if u == UnitsImperial {
		return "°F"
	}
	return "°C"
}

// Location is the forecast point.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns a canonical "lat,lon" string with 4 decimals.
func (l Location) Key() string {
	return strconv.FormatFloat(l.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(l.Lon, 'f', 4, 64)
}

// Icon is a normalized icon code; values match the icon names in the SVG templates.
type Icon string

const (
	IconClearDay          Icon = "clear_day"
	IconClearNight        Icon = "clear_night"
	IconPartlyCloudyDay   Icon = "partly_cloudy_day"
	IconPartlyCloudyNight Icon = "partly_cloudy_night"
	IconCloudy            Icon = "cloudy"
	IconFog               Icon = "fog"
	IconDrizzle           Icon = "drizzle"
	IconRain              Icon = "rain"
	IconShowers           Icon = "showers"
	IconThunderstorm      Icon = "thunderstorm"
	IconSleet             Icon = "sleet"
	IconSnow              Icon = "snow"
	IconWind              Icon = "wind"
)

// Sample is the normalized forecast for one day.
type Sample struct {
	Date        time.Time `json:"date"`
	Min         float64   `json:"temperatureMin"`
	Max         float64   `json:"temperatureMax"`
	Icon        Icon      `json:"icon"`
	Description string    `json:"description"`
}

// Forecast is a sequence of consecutive days, index 0 = today.
type Forecast []Sample

// Validate checks that every field of every sample is populated.
func (f Forecast) Validate() error {
	if len(f) == 0 {
		return fmt.Errorf("no forecast days")
	}
	for i, s := range f {
		switch {
		case s.Date.IsZero():
			return fmt.Errorf("day %d: missing date", i)
		case math.IsNaN(s.Min) || math.IsNaN(s.Max) || math.IsInf(s.Min, 0) || math.IsInf(s.Max, 0):
			return fmt.Errorf("day %d: missing temperature", i)
		case s.Icon == "":
			return fmt.Errorf("day %d: missing icon", i)
		case s.Description == "":
			return fmt.Errorf("day %d: missing description", i)
		}
	}
	return nil
}

// CelsiusToFahrenheit converts a temperature.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// Convert converts a Celsius value into u.
func (u Units) Convert(celsius float64) float64 {
	if u == UnitsImperial {
		return CelsiusToFahrenheit(celsius)
	}
	return celsius
}
