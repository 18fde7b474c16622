package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"climate-platform/internal/engine"
	"climate-platform/internal/models"
	"climate-platform/internal/query"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// TemperatureHandler exposes the five temperature query operations over HTTP.
// It is a thin transport shell: all data-shape decisions live in the query
// facade and the engine.
type TemperatureHandler struct {
	facade  *query.Facade
	holder  *engine.Holder
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewTemperatureHandler creates a new temperature handler
func NewTemperatureHandler(
	facade *query.Facade,
	holder *engine.Holder,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *TemperatureHandler {
	return &TemperatureHandler{
		facade:  facade,
		holder:  holder,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ByCountry handles GET /api/temperatures/country/{country}
func (h *TemperatureHandler) ByCountry(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/temperatures/country", time.Now())

	country := mux.Vars(r)["country"]
	result := h.facade.ByCountry(r.Context(), country)
	h.sendSingle(w, r, "/api/temperatures/country", result)
}

// ByCountryDate handles GET /api/temperatures/country/{country}/date/{date}
func (h *TemperatureHandler) ByCountryDate(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/temperatures/country/date", time.Now())

	vars := mux.Vars(r)
	date, err := time.Parse("2006-01-02", vars["date"])
	if err != nil {
		h.sendError(w, r, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	result := h.facade.ByCountryDate(r.Context(), vars["country"], date)
	h.sendSingle(w, r, "/api/temperatures/country/date", result)
}

// ByCityDate handles GET /api/temperatures/city/{city}/date/{date}
func (h *TemperatureHandler) ByCityDate(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/temperatures/city/date", time.Now())

	vars := mux.Vars(r)
	date, err := time.Parse("2006-01-02", vars["date"])
	if err != nil {
		h.sendError(w, r, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	result := h.facade.ByCityDate(r.Context(), vars["city"], date)
	h.sendSingle(w, r, "/api/temperatures/city/date", result)
}

// ByCountryCity handles GET /api/temperatures/country/{country}/city/{city}
func (h *TemperatureHandler) ByCountryCity(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/temperatures/country/city", time.Now())

	vars := mux.Vars(r)
	result := h.facade.ByCountryCity(r.Context(), vars["country"], vars["city"])
	h.sendSingle(w, r, "/api/temperatures/country/city", result)
}

// ByCountryRange handles GET /api/temperatures/country/{country}/range
// with start_date and end_date query parameters.
func (h *TemperatureHandler) ByCountryRange(w http.ResponseWriter, r *http.Request) {
	endpoint := "/api/temperatures/country/range"
	defer h.observe(endpoint, time.Now())

	country := mux.Vars(r)["country"]

	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start_date"))
	if err != nil {
		h.sendError(w, r, "invalid start_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end_date"))
	if err != nil {
		h.sendError(w, r, "invalid end_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	result, err := h.facade.ByCountryRange(r.Context(), country, start, end)
	if err != nil {
		var rangeErr *models.InvalidRangeError
		if errors.As(err, &rangeErr) {
			h.metrics.RecordAPIError("invalid_range", endpoint)
			h.sendError(w, r, rangeErr.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error(r.Context(), "[API_RANGE_ERROR] Range query failed", logging.Fields{
			"country": country,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "failed to execute range query", http.StatusInternalServerError)
		return
	}

	if !result.Matched {
		h.metrics.RecordAPIRequest(endpoint, "GET", "404")
		h.sendJSON(w, result, http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, result, http.StatusOK)
}

// Summary handles GET /api/temperatures/summary
func (h *TemperatureHandler) Summary(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/temperatures/summary", time.Now())

	h.metrics.RecordAPIRequest("/api/temperatures/summary", "GET", "200")
	h.sendJSON(w, h.holder.Get().Summarize(), http.StatusOK)
}

// HealthCheck handles GET /health
func (h *TemperatureHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":       "healthy",
		"observations": h.holder.Get().Size(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(r.Context(), "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendSingle writes a point-query envelope, mapping "no data" to 404. The
// envelope itself still carries matched=false so the body is self-describing.
func (h *TemperatureHandler) sendSingle(w http.ResponseWriter, r *http.Request, endpoint string, result query.SingleResult) {
	status := http.StatusOK
	if !result.Matched {
		status = http.StatusNotFound
	}
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(status))
	h.sendJSON(w, result, status)
}

// sendJSON sends a JSON response
func (h *TemperatureHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *TemperatureHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

func (h *TemperatureHandler) observe(endpoint string, start time.Time) {
	h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// RegisterRoutes registers all temperature API routes
func (h *TemperatureHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/temperatures/country/{country}/date/{date}", h.ByCountryDate).Methods("GET")
	router.HandleFunc("/api/temperatures/country/{country}/city/{city}", h.ByCountryCity).Methods("GET")
	router.HandleFunc("/api/temperatures/country/{country}/range", h.ByCountryRange).Methods("GET")
	router.HandleFunc("/api/temperatures/country/{country}", h.ByCountry).Methods("GET")
	router.HandleFunc("/api/temperatures/city/{city}/date/{date}", h.ByCityDate).Methods("GET")
	router.HandleFunc("/api/temperatures/summary", h.Summary).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
