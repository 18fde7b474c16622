package models

import (
	"time"
)

// UnknownSentinel is substituted for missing categorical fields during
// cleaning. It is a placeholder, not absence: a sentinel field still
// participates in grouping, while an absent temperature never does.
const UnknownSentinel = "Unknown"

// Observation represents one city-level temperature record.
// NULL temperature represented as a pointer: nil means the measurement is
// absent and must be excluded from averages, never treated as zero.
type Observation struct {
	Date                          time.Time `json:"date" db:"observation_date"`
	Country                       string    `json:"country" db:"country"`
	City                          string    `json:"city" db:"city"`
	Latitude                      string    `json:"latitude" db:"latitude"`
	Longitude                     string    `json:"longitude" db:"longitude"`
	AverageTemperature            *float64  `json:"average_temperature,omitempty" db:"average_temperature"`
	AverageTemperatureUncertainty *float64  `json:"average_temperature_uncertainty,omitempty" db:"average_temperature_uncertainty"`
	Month                         int       `json:"month" db:"month"`
	Year                          int       `json:"year" db:"year"`
}

// HasTemperature reports whether the measured temperature is present.
func (o *Observation) HasTemperature() bool {
	return o.AverageTemperature != nil
}

// AggregateResult is the computed summary for one grouping key: the
// unweighted mean over contributing (non-absent) temperatures and the number
// of observations that contributed. A result with Count == 0 is never
// produced; an empty group is reported as absence by the engine.
type AggregateResult struct {
	Key   string  `json:"key"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}
