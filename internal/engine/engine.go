package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"climate-platform/internal/models"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// Grouping keys are exact-match on normalized field values: case-sensitive
// text for country/city, calendar day for dates. Dates are normalized to
// UTC midnight so struct keys compare with ==.
type countryDateKey struct {
	Country string
	Date    time.Time
}

type cityDateKey struct {
	City string
	Date time.Time
}

type countryCityKey struct {
	Country string
	City    string
}

// group accumulates contributing temperature values for one key. Absent
// temperatures never reach the accumulator; a group left at count zero is
// reported as "no data", never as mean 0.
type group struct {
	sum   float64
	count int
}

func (g group) mean() float64 {
	return g.sum / float64(g.count)
}

// DatePoint is one entry of an ordered range scan.
type DatePoint struct {
	Date  time.Time `json:"date"`
	Mean  float64   `json:"mean"`
	Count int       `json:"count"`
}

// Summary describes the built index cardinalities.
type Summary struct {
	Observations      int       `json:"observations"`
	Countries         int       `json:"countries"`
	CountryDateGroups int       `json:"country_date_groups"`
	CityDateGroups    int       `json:"city_date_groups"`
	CountryCityGroups int       `json:"country_city_groups"`
	BuiltAt           time.Time `json:"built_at"`
}

// Engine answers point and range aggregate queries over a cleaned, indexed
// observation set. All indexes are built once in NewEngine and never mutated
// afterwards, so any number of readers may query concurrently without locks.
// Reloading means building a fresh engine and swapping it in via Holder.
type Engine struct {
	size    int
	builtAt time.Time

	byCountry     map[string]group
	byCountryDate map[countryDateKey]group
	byCityDate    map[cityDateKey]group
	byCountryCity map[countryCityKey]group

	// countryDates holds the ascending unique observation dates per country,
	// backing the ordered range scan.
	countryDates map[string][]time.Time
}

// NewEngine builds the four grouping indexes and the per-country date order
// in a single pass over the observation set. Duplicate rows for the same key
// all contribute independently; there is no deduplication.
func NewEngine(ctx context.Context, observations []models.Observation, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Engine {
	startTime := time.Now()

	e := &Engine{
		size:          len(observations),
		byCountry:     make(map[string]group),
		byCountryDate: make(map[countryDateKey]group),
		byCityDate:    make(map[cityDateKey]group),
		byCountryCity: make(map[countryCityKey]group),
		countryDates:  make(map[string][]time.Time),
	}

	for i := range observations {
		obs := &observations[i]
		if obs.AverageTemperature == nil {
			// An absent measurement never contributes to any group. A group
			// whose every observation is absent is simply a missing key.
			continue
		}

		v := *obs.AverageTemperature
		day := dayOf(obs.Date)

		cdKey := countryDateKey{Country: obs.Country, Date: day}
		if _, seen := e.byCountryDate[cdKey]; !seen {
			e.countryDates[obs.Country] = append(e.countryDates[obs.Country], day)
		}

		add(e.byCountry, obs.Country, v)
		add(e.byCountryDate, cdKey, v)
		add(e.byCityDate, cityDateKey{City: obs.City, Date: day}, v)
		add(e.byCountryCity, countryCityKey{Country: obs.Country, City: obs.City}, v)
	}

	for country := range e.countryDates {
		dates := e.countryDates[country]
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	}

	e.builtAt = time.Now().UTC()
	duration := time.Since(startTime)

	metricsCollector.EngineBuildDuration.Observe(duration.Seconds())
	metricsCollector.EngineGroupCount.WithLabelValues("country").Set(float64(len(e.byCountry)))
	metricsCollector.EngineGroupCount.WithLabelValues("country_date").Set(float64(len(e.byCountryDate)))
	metricsCollector.EngineGroupCount.WithLabelValues("city_date").Set(float64(len(e.byCityDate)))
	metricsCollector.EngineGroupCount.WithLabelValues("country_city").Set(float64(len(e.byCountryCity)))

	logger.Info(ctx, "[ENGINE_BUILD] Aggregation indexes built", logging.Fields{
		"observations":        len(observations),
		"countries":           len(e.byCountry),
		"country_date_groups": len(e.byCountryDate),
		"city_date_groups":    len(e.byCityDate),
		"country_city_groups": len(e.byCountryCity),
		"duration_seconds":    duration.Seconds(),
	})

	return e
}

func add[K comparable](m map[K]group, key K, v float64) {
	g := m[key]
	g.sum += v
	g.count++
	m[key] = g
}

// MeanByCountry returns the mean temperature across all observations for a
// country. The second return value is false when the country has no
// contributing observations.
func (e *Engine) MeanByCountry(country string) (models.AggregateResult, bool) {
	g := e.byCountry[country]
	return result(country, g)
}

// MeanByCountryDate returns the mean temperature for a country on one
// calendar day.
func (e *Engine) MeanByCountryDate(country string, date time.Time) (models.AggregateResult, bool) {
	g := e.byCountryDate[countryDateKey{Country: country, Date: dayOf(date)}]
	return result(fmt.Sprintf("%s/%s", country, date.Format("2006-01-02")), g)
}

// MeanByCityDate returns the mean temperature for a city on one calendar day.
func (e *Engine) MeanByCityDate(city string, date time.Time) (models.AggregateResult, bool) {
	g := e.byCityDate[cityDateKey{City: city, Date: dayOf(date)}]
	return result(fmt.Sprintf("%s/%s", city, date.Format("2006-01-02")), g)
}

// MeanByCountryCity returns the mean temperature for a city within a country
// across all dates.
func (e *Engine) MeanByCountryCity(country, city string) (models.AggregateResult, bool) {
	g := e.byCountryCity[countryCityKey{Country: country, City: city}]
	return result(fmt.Sprintf("%s/%s", country, city), g)
}

// RangeScan returns the ascending sequence of per-day means for a country
// over [start, end], both bounds inclusive. Days without a contributing
// observation are omitted, not zero-filled. A start after end is rejected
// with InvalidRangeError and no partial result.
func (e *Engine) RangeScan(country string, start, end time.Time) ([]DatePoint, error) {
	startDay, endDay := dayOf(start), dayOf(end)
	if startDay.After(endDay) {
		return nil, &models.InvalidRangeError{Start: startDay, End: endDay}
	}

	dates := e.countryDates[country]
	i := sort.Search(len(dates), func(i int) bool {
		return !dates[i].Before(startDay)
	})

	var points []DatePoint
	for ; i < len(dates) && !dates[i].After(endDay); i++ {
		g := e.byCountryDate[countryDateKey{Country: country, Date: dates[i]}]
		if g.count == 0 {
			continue
		}
		points = append(points, DatePoint{
			Date:  dates[i],
			Mean:  g.mean(),
			Count: g.count,
		})
	}

	return points, nil
}

// Size returns the number of observations the engine was built from.
func (e *Engine) Size() int {
	return e.size
}

// Summarize reports the built index cardinalities.
func (e *Engine) Summarize() Summary {
	return Summary{
		Observations:      e.size,
		Countries:         len(e.byCountry),
		CountryDateGroups: len(e.byCountryDate),
		CityDateGroups:    len(e.byCityDate),
		CountryCityGroups: len(e.byCountryCity),
		BuiltAt:           e.builtAt,
	}
}

func result(key string, g group) (models.AggregateResult, bool) {
	if g.count == 0 {
		return models.AggregateResult{}, false
	}
	return models.AggregateResult{
		Key:   key,
		Mean:  g.mean(),
		Count: g.count,
	}, true
}

// dayOf normalizes a timestamp to its UTC calendar day so dates compare
// exactly as map keys.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
