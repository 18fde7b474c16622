package dataset

import (
	"climate-platform/internal/models"
)

// Clean applies the per-field null policy to a single observation candidate:
//
//   - country, city absent or empty        -> "Unknown"
//   - latitude, longitude absent           -> "Unknown" (kept as opaque text)
//   - averageTemperatureUncertainty absent -> 0.0
//   - averageTemperature absent            -> stays absent
//
// The transform is pure and idempotent; it carries no cross-record state.
// The missing temperature is the measured quantity and is deliberately left
// nil so aggregation can exclude it.
func Clean(obs models.Observation) models.Observation {
	if obs.Country == "" {
		obs.Country = models.UnknownSentinel
	}
	if obs.City == "" {
		obs.City = models.UnknownSentinel
	}
	if obs.Latitude == "" {
		obs.Latitude = models.UnknownSentinel
	}
	if obs.Longitude == "" {
		obs.Longitude = models.UnknownSentinel
	}
	if obs.AverageTemperatureUncertainty == nil {
		zero := 0.0
		obs.AverageTemperatureUncertainty = &zero
	}
	return obs
}
