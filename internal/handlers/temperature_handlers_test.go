package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"climate-platform/internal/engine"
	"climate-platform/internal/models"
	"climate-platform/internal/query"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

var testMetrics = metrics.NewCollector("handlers_test")

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	logger := logging.NewStructuredLogger("handlers-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)

	temp := func(v float64) *float64 { return &v }
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("bad test date: %v", err)
		}
		return d
	}
	zero := 0.0
	observations := []models.Observation{
		{Date: day("2020-01-01"), Country: "Brazil", City: "Rio De Janeiro", Latitude: "22.90S", Longitude: "43.17W", AverageTemperature: temp(10.0), AverageTemperatureUncertainty: &zero, Month: 1, Year: 2020},
		{Date: day("2020-01-03"), Country: "Brazil", City: "Rio De Janeiro", Latitude: "22.90S", Longitude: "43.17W", AverageTemperature: temp(12.0), AverageTemperatureUncertainty: &zero, Month: 1, Year: 2020},
	}

	eng := engine.NewEngine(context.Background(), observations, logger, testMetrics)
	holder := engine.NewHolder(eng)
	facade := query.NewFacade(holder, logger, testMetrics)
	handler := NewTemperatureHandler(facade, holder, logger, testMetrics)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestByCountryMatched(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/api/temperatures/country/Brazil")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result query.SingleResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Matched || result.Value == nil || *result.Value != 11.0 {
		t.Errorf("result = %+v, want matched mean 11.0", result)
	}
}

func TestByCountryNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/api/temperatures/country/Norway")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var result query.SingleResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Matched {
		t.Error("body should carry matched=false")
	}
}

func TestByCountryDateBadDate(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/api/temperatures/country/Brazil/date/01-01-2020")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestByCityDate(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/api/temperatures/city/Rio%20De%20Janeiro/date/2020-01-03")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result query.SingleResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Matched || result.Value == nil || *result.Value != 12.0 {
		t.Errorf("result = %+v, want matched mean 12.0", result)
	}
}

func TestRangeQuery(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/api/temperatures/country/Brazil/range?start_date=2020-01-01&end_date=2020-01-03")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result query.SeriesResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Series) != 2 {
		t.Fatalf("got %d series points, want 2", len(result.Series))
	}
	if result.Series[0].Date != "2020-01-01" || result.Series[1].Date != "2020-01-03" {
		t.Errorf("series dates = %s, %s; want 2020-01-01, 2020-01-03",
			result.Series[0].Date, result.Series[1].Date)
	}
}

func TestRangeQueryInvalidRange(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/api/temperatures/country/Brazil/range?start_date=2020-02-01&end_date=2020-01-01")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if errResp.Code != http.StatusBadRequest {
		t.Errorf("error code = %d, want 400", errResp.Code)
	}
}

func TestRangeQueryMissingParams(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/api/temperatures/country/Brazil/range")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", status["status"])
	}
}

func TestSummary(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/api/temperatures/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var summary engine.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.Observations != 2 || summary.Countries != 1 {
		t.Errorf("summary = %+v, want 2 observations over 1 country", summary)
	}
}
