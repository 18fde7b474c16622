package query

import (
	"context"
	"time"

	"climate-platform/internal/engine"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// SingleResult is the envelope for the four point queries. Matched false
// means the query found no data, which is a valid outcome, not an error.
// Value is a pointer so an unmatched result serializes without a value
// while a legitimate mean of exactly zero still does.
type SingleResult struct {
	Matched bool     `json:"matched"`
	Value   *float64 `json:"value,omitempty"`
	Count   int      `json:"count,omitempty"`
}

// SeriesPoint is one entry of a range query response.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SeriesResult is the envelope for range queries. Series is ascending by
// date; days without data are omitted.
type SeriesResult struct {
	Matched bool          `json:"matched"`
	Series  []SeriesPoint `json:"series"`
}

// Facade translates the five external query shapes into engine calls and
// converts the engine's "no data" into a tagged not-found outcome for the
// transport layer. It always reads the engine through the holder, so
// queries see reloads atomically.
type Facade struct {
	holder  *engine.Holder
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewFacade creates a new query facade
func NewFacade(holder *engine.Holder, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Facade {
	return &Facade{
		holder:  holder,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ByCountry returns the mean temperature across all observations for a country.
func (f *Facade) ByCountry(ctx context.Context, country string) SingleResult {
	res, ok := f.holder.Get().MeanByCountry(country)
	return f.single(ctx, "by_country", res.Mean, res.Count, ok)
}

// ByCountryDate returns the mean temperature for a country on one day.
func (f *Facade) ByCountryDate(ctx context.Context, country string, date time.Time) SingleResult {
	res, ok := f.holder.Get().MeanByCountryDate(country, date)
	return f.single(ctx, "by_country_date", res.Mean, res.Count, ok)
}

// ByCityDate returns the mean temperature for a city on one day.
func (f *Facade) ByCityDate(ctx context.Context, city string, date time.Time) SingleResult {
	res, ok := f.holder.Get().MeanByCityDate(city, date)
	return f.single(ctx, "by_city_date", res.Mean, res.Count, ok)
}

// ByCountryCity returns the mean temperature for a city within a country.
func (f *Facade) ByCountryCity(ctx context.Context, country, city string) SingleResult {
	res, ok := f.holder.Get().MeanByCountryCity(country, city)
	return f.single(ctx, "by_country_city", res.Mean, res.Count, ok)
}

// ByCountryRange returns the ordered per-day mean series for a country over
// an inclusive date range. InvalidRangeError passes through to the caller
// untouched; an empty series is reported as Matched false.
func (f *Facade) ByCountryRange(ctx context.Context, country string, start, end time.Time) (SeriesResult, error) {
	points, err := f.holder.Get().RangeScan(country, start, end)
	if err != nil {
		return SeriesResult{}, err
	}

	if len(points) == 0 {
		f.metrics.RecordQueryMiss("by_country_range")
		f.logger.Debug(ctx, "[QUERY_MISS] Range query matched no data", logging.Fields{
			"operation": "by_country_range",
			"country":   country,
		})
		return SeriesResult{Matched: false, Series: []SeriesPoint{}}, nil
	}

	series := make([]SeriesPoint, 0, len(points))
	for _, p := range points {
		series = append(series, SeriesPoint{
			Date:  p.Date.Format("2006-01-02"),
			Value: p.Mean,
		})
	}

	return SeriesResult{Matched: true, Series: series}, nil
}

func (f *Facade) single(ctx context.Context, operation string, value float64, count int, ok bool) SingleResult {
	if !ok {
		f.metrics.RecordQueryMiss(operation)
		f.logger.Debug(ctx, "[QUERY_MISS] Query matched no data", logging.Fields{
			"operation": operation,
		})
		return SingleResult{Matched: false}
	}
	return SingleResult{Matched: true, Value: &value, Count: count}
}
