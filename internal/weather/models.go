package weather

import (
	"strconv"
	"time"
)

// Location is a resolved geographic place. It is a value: recomputed per
// request and never mutated after construction.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name"`
	Country string  `json:"country,omitempty"`
}

// Key returns a canonical string key for indexing this location in caches.
// Coordinates are rounded so that nearby fixes share an entry.
func (l Location) Key() string {
	return formatCoord(l.Lat) + ":" + formatCoord(l.Lon)
}

func formatCoord(v float64) string {
	// Two decimal places, roughly 1km resolution.
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// CurrentConditions is the canonical current-weather shape consumed by every
// downstream view. Canonical units: Celsius, km/h, percent, millibars, meters.
// HumidityPct and UVIndex are always present (defaulted to 0 when a provider
// omits them) so consumers never branch on missing fields.
type CurrentConditions struct {
	TemperatureC      float64  `json:"temperatureC"`
	FeelsLikeC        float64  `json:"feelsLikeC"`
	HumidityPct       float64  `json:"humidityPct"`
	WindSpeedKph      float64  `json:"windSpeedKph"`
	WindDirectionDeg  float64  `json:"windDirectionDeg,omitempty"`
	UVIndex           float64  `json:"uvIndex"`
	VisibilityM       float64  `json:"visibilityM"`
	PressureMb        float64  `json:"pressureMb"`
	ConditionText     string   `json:"conditionText"`
	ConditionIcon     string   `json:"conditionIcon"`
	ConditionCategory string   `json:"conditionCategory"`
	Location          Location `json:"location"`
}

// HourlyPoint is one hour of forecast. Timestamps carry the location's UTC
// offset so calendar-day grouping happens on local time.
type HourlyPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	TemperatureC  float64   `json:"temperatureC"`
	ConditionIcon string    `json:"conditionIcon"`
	ConditionText string    `json:"conditionText"`
	HumidityPct   float64   `json:"humidityPct"`
	WindSpeedKph  float64   `json:"windSpeedKph"`
}

// DailyPoint is one local calendar day of forecast.
type DailyPoint struct {
	Date            string  `json:"date"` // YYYY-MM-DD, local calendar
	MinTemperatureC float64 `json:"minTemperatureC"`
	MaxTemperatureC float64 `json:"maxTemperatureC"`
	ConditionIcon   string  `json:"conditionIcon"`
	ConditionText   string  `json:"conditionText"`
	HumidityPct     float64 `json:"humidityPct"`
	WindSpeedKph    float64 `json:"windSpeedKph"`
}

// Forecast bundles the hourly window and the daily outlook.
type Forecast struct {
	Hourly []HourlyPoint `json:"hourly"`
	Daily  []DailyPoint  `json:"daily"`
}
