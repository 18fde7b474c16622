package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the City Temperature API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	singleResult := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"matched": map[string]string{"type": "boolean"},
			"value":   map[string]string{"type": "number"},
			"count":   map[string]string{"type": "integer"},
		},
	}

	dateParam := func(name, in string) map[string]interface{} {
		return map[string]interface{}{
			"name":     name,
			"in":       in,
			"required": true,
			"schema":   map[string]string{"type": "string", "format": "date"},
		}
	}
	textParam := func(name string) map[string]interface{} {
		return map[string]interface{}{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]string{"type": "string"},
		}
	}

	singleResponses := map[string]interface{}{
		"200": map[string]interface{}{
			"description": "Mean temperature over contributing observations",
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{"schema": singleResult},
			},
		},
		"404": map[string]interface{}{
			"description": "No observation matched the query",
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{"schema": singleResult},
			},
		},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "City Temperature API",
			"description": "Aggregate temperature queries over a cleaned city-level observation dataset",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/temperatures/country/{country}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Mean temperature by country",
					"parameters": []map[string]interface{}{textParam("country")},
					"responses":  singleResponses,
				},
			},
			"/api/temperatures/country/{country}/date/{date}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Mean temperature by country and date",
					"parameters": []map[string]interface{}{textParam("country"), dateParam("date", "path")},
					"responses":  singleResponses,
				},
			},
			"/api/temperatures/city/{city}/date/{date}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Mean temperature by city and date",
					"parameters": []map[string]interface{}{textParam("city"), dateParam("date", "path")},
					"responses":  singleResponses,
				},
			},
			"/api/temperatures/country/{country}/city/{city}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Mean temperature by country and city",
					"parameters": []map[string]interface{}{textParam("country"), textParam("city")},
					"responses":  singleResponses,
				},
			},
			"/api/temperatures/country/{country}/range": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Per-day mean temperature series for a country",
					"description": "Inclusive date range, ascending by date; days without data are omitted",
					"parameters": []map[string]interface{}{
						textParam("country"),
						dateParam("start_date", "query"),
						dateParam("end_date", "query"),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Ordered series of per-day means",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"matched": map[string]string{"type": "boolean"},
											"series": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"date":  map[string]string{"type": "string", "format": "date"},
														"value": map[string]string{"type": "number"},
													},
												},
											},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{
							"description": "Malformed date or start_date after end_date",
						},
						"404": map[string]interface{}{
							"description": "No observation in the range",
						},
					},
				},
			},
			"/api/temperatures/summary": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Dataset and index cardinality summary",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Index summary"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "API is healthy"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Prometheus metrics",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Prometheus metrics in text format"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
