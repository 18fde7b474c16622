package dataset

import (
	"climate-platform/internal/models"
)

// WithCalendar derives the month (1-12) and year facets from the observation
// date. The loader guarantees a valid date before this stage runs; a zero
// date here is a pipeline ordering bug and is reported as an invariant
// violation rather than silently indexed.
func WithCalendar(obs models.Observation) (models.Observation, error) {
	if obs.Date.IsZero() {
		return obs, &models.InvariantViolationError{
			Message: "calendar indexing requires an observation with a valid date",
		}
	}
	obs.Year = obs.Date.Year()
	obs.Month = int(obs.Date.Month())
	return obs, nil
}
