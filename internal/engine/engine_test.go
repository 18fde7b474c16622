package engine

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"climate-platform/internal/models"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

var testMetrics = metrics.NewCollector("engine_test")

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("engine-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func obs(country, city, date string, temp *float64) models.Observation {
	zero := 0.0
	d := day(date)
	return models.Observation{
		Date:                          d,
		Country:                       country,
		City:                          city,
		Latitude:                      models.UnknownSentinel,
		Longitude:                     models.UnknownSentinel,
		AverageTemperature:            temp,
		AverageTemperatureUncertainty: &zero,
		Month:                         int(d.Month()),
		Year:                          d.Year(),
	}
}

func temp(v float64) *float64 { return &v }

func newTestEngine(t *testing.T, observations []models.Observation) *Engine {
	t.Helper()
	return NewEngine(context.Background(), observations, testLogger(), testMetrics)
}

func TestMeanExcludesAbsentTemperatures(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-01", nil),
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(20.0)),
	})

	res, ok := e.MeanByCountry("Brazil")
	if !ok {
		t.Fatal("MeanByCountry() should match")
	}
	if res.Mean != 15.0 {
		t.Errorf("Mean = %v, want 15.0", res.Mean)
	}
	if res.Count != 2 {
		t.Errorf("Count = %d, want 2 (absent value must not contribute)", res.Count)
	}
}

func TestEmptyGroupIsNoData(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
	})

	if _, ok := e.MeanByCountry("Norway"); ok {
		t.Error("unknown country should be no data, not a zero mean")
	}
	if _, ok := e.MeanByCountryCity("Brazil", "Oslo"); ok {
		t.Error("unmatched country+city should be no data")
	}
	if _, ok := e.MeanByCountryDate("Brazil", day("1999-01-01")); ok {
		t.Error("date without observations should be no data")
	}
}

func TestAllAbsentGroupIsNoData(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", nil),
		obs("Brazil", "Rio De Janeiro", "2020-01-02", nil),
	})

	if _, ok := e.MeanByCountry("Brazil"); ok {
		t.Error("a group whose every temperature is absent should be no data")
	}
}

func TestGroupingIsExactMatch(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
	})

	if _, ok := e.MeanByCountry("brazil"); ok {
		t.Error("country match must be case-sensitive")
	}
	if _, ok := e.MeanByCountryCity("Brazil", "rio de janeiro"); ok {
		t.Error("city match must be case-sensitive")
	}
}

func TestPointLookups(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
		obs("Brazil", "Sao Paulo", "2020-01-01", temp(20.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-02", temp(30.0)),
		obs("France", "Paris", "2020-01-01", temp(4.0)),
	})

	tests := []struct {
		name      string
		query     func() (models.AggregateResult, bool)
		wantMean  float64
		wantCount int
	}{
		{
			name:      "by country spans cities and dates",
			query:     func() (models.AggregateResult, bool) { return e.MeanByCountry("Brazil") },
			wantMean:  20.0,
			wantCount: 3,
		},
		{
			name:      "by country and date spans cities",
			query:     func() (models.AggregateResult, bool) { return e.MeanByCountryDate("Brazil", day("2020-01-01")) },
			wantMean:  15.0,
			wantCount: 2,
		},
		{
			name:      "by city and date",
			query:     func() (models.AggregateResult, bool) { return e.MeanByCityDate("Rio De Janeiro", day("2020-01-02")) },
			wantMean:  30.0,
			wantCount: 1,
		},
		{
			name:      "by country and city spans dates",
			query:     func() (models.AggregateResult, bool) { return e.MeanByCountryCity("Brazil", "Rio De Janeiro") },
			wantMean:  20.0,
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := tt.query()
			if !ok {
				t.Fatal("query should match")
			}
			if res.Mean != tt.wantMean {
				t.Errorf("Mean = %v, want %v", res.Mean, tt.wantMean)
			}
			if res.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", res.Count, tt.wantCount)
			}
		})
	}
}

func TestDuplicateRowsAllContribute(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(40.0)),
	})

	res, ok := e.MeanByCityDate("Rio De Janeiro", day("2020-01-01"))
	if !ok {
		t.Fatal("query should match")
	}
	if res.Count != 3 {
		t.Errorf("Count = %d, want 3 (duplicates are not deduplicated)", res.Count)
	}
	if res.Mean != 20.0 {
		t.Errorf("Mean = %v, want 20.0", res.Mean)
	}
}

func TestRangeScanOmitsGapsInclusiveBounds(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-03", temp(12.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-05", temp(14.0)),
		obs("France", "Paris", "2020-01-02", temp(4.0)),
	})

	points, err := e.RangeScan("Brazil", day("2020-01-01"), day("2020-01-03"))
	if err != nil {
		t.Fatalf("RangeScan() error = %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 (2020-01-02 has no data, 2020-01-05 is outside)", len(points))
	}
	if !points[0].Date.Equal(day("2020-01-01")) || points[0].Mean != 10.0 {
		t.Errorf("points[0] = %+v, want 2020-01-01 mean 10.0", points[0])
	}
	if !points[1].Date.Equal(day("2020-01-03")) || points[1].Mean != 12.0 {
		t.Errorf("points[1] = %+v, want 2020-01-03 mean 12.0", points[1])
	}
}

func TestRangeScanAscending(t *testing.T) {
	// Insertion order deliberately shuffled.
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-04", temp(14.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-03", temp(12.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-02", temp(11.0)),
	})

	points, err := e.RangeScan("Brazil", day("2020-01-01"), day("2020-01-04"))
	if err != nil {
		t.Fatalf("RangeScan() error = %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Date.Before(points[i].Date) {
			t.Errorf("points not ascending at %d: %v !< %v", i, points[i-1].Date, points[i].Date)
		}
	}
}

func TestRangeScanSkipsAllAbsentDays(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-02", nil),
		obs("Brazil", "Rio De Janeiro", "2020-01-03", temp(12.0)),
	})

	points, err := e.RangeScan("Brazil", day("2020-01-01"), day("2020-01-03"))
	if err != nil {
		t.Fatalf("RangeScan() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 (a day with only absent values has no contributing observation)", len(points))
	}
}

func TestRangeScanInvalidRange(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
	})

	_, err := e.RangeScan("Brazil", day("2020-01-03"), day("2020-01-01"))
	if err == nil {
		t.Fatal("RangeScan() should reject start after end")
	}

	var rangeErr *models.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("error type = %T, want *models.InvalidRangeError", err)
	}
}

func TestRangeScanUnknownCountry(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
	})

	points, err := e.RangeScan("Norway", day("2020-01-01"), day("2020-01-03"))
	if err != nil {
		t.Fatalf("RangeScan() error = %v", err)
	}
	if len(points) != 0 {
		t.Errorf("got %d points, want 0", len(points))
	}
}

func TestHolderSwapIsAtomicReplacement(t *testing.T) {
	first := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
	})
	second := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(30.0)),
		obs("Brazil", "Rio De Janeiro", "2020-01-02", temp(30.0)),
	})

	holder := NewHolder(first)
	if holder.Get().Size() != 1 {
		t.Fatalf("Size = %d, want 1", holder.Get().Size())
	}

	holder.Swap(second)
	if holder.Get().Size() != 2 {
		t.Fatalf("Size = %d after swap, want 2", holder.Get().Size())
	}

	res, ok := holder.Get().MeanByCountry("Brazil")
	if !ok || res.Mean != 30.0 {
		t.Errorf("post-swap mean = %v (ok=%v), want 30.0", res.Mean, ok)
	}
}

func TestSummarize(t *testing.T) {
	e := newTestEngine(t, []models.Observation{
		obs("Brazil", "Rio De Janeiro", "2020-01-01", temp(10.0)),
		obs("Brazil", "Sao Paulo", "2020-01-01", temp(20.0)),
		obs("France", "Paris", "2020-01-02", temp(4.0)),
	})

	s := e.Summarize()
	if s.Observations != 3 {
		t.Errorf("Observations = %d, want 3", s.Observations)
	}
	if s.Countries != 2 {
		t.Errorf("Countries = %d, want 2", s.Countries)
	}
	if s.CountryCityGroups != 3 {
		t.Errorf("CountryCityGroups = %d, want 3", s.CountryCityGroups)
	}
}
