package handlers

import (
	"encoding/json"
	"net/http"

	"airquality-dashboard/internal/analysis"
	"airquality-dashboard/internal/charts"
	"airquality-dashboard/internal/views"
)

func queryParam(name, description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

func pathParam(name, description string, enum []string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      map[string]interface{}{"type": "string", "enum": enum},
	}
}

func jsonResponse(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

func errorResponse(description string) map[string]interface{} {
	return jsonResponse(description, map[string]interface{}{"$ref": "#/components/schemas/ErrorResponse"})
}

// inputParams documents the widget state accepted by views and charts.
func inputParams() []map[string]interface{} {
	choices := make([]string, 0, len(analysis.CleaningChoices))
	for _, c := range analysis.CleaningChoices {
		choices = append(choices, c.Key())
	}
	date := map[string]interface{}{"type": "string", "format": "date"}

	return []map[string]interface{}{
		queryParam(paramCleaning, "Missing value handling for the Cleaning Data view (default: drop)",
			map[string]interface{}{"type": "string", "enum": choices, "default": choices[0]}),
		queryParam(paramColumn, "Numeric column plotted by the EDA view",
			map[string]interface{}{"type": "string"}),
		queryParam(paramDateColumn, "Timestamp column used by the date range filter",
			map[string]interface{}{"type": "string"}),
		queryParam(paramStart, "Inclusive start date (YYYY-MM-DD); defaults to the earliest date", date),
		queryParam(paramEnd, "Inclusive end date (YYYY-MM-DD); defaults to the latest date", date),
	}
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	viewSlugs := make([]string, 0, len(views.All))
	for _, v := range views.All {
		viewSlugs = append(viewSlugs, v.Slug())
	}
	chartKinds := make([]string, 0, len(charts.Kinds))
	for _, k := range charts.Kinds {
		chartKinds = append(chartKinds, string(k))
	}
	nullableNumber := map[string]interface{}{"type": "number", "nullable": true}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Air Quality Dashboard API",
			"description": "Exploratory analysis of hourly air quality readings: previews, summary statistics, cleaning, distributions, monthly PM2.5 averages and pollutant correlations",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/views": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List dashboard views",
					"responses": map[string]interface{}{
						"200": jsonResponse("The five views in navigation order", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"views": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"slug":    map[string]string{"type": "string"},
											"label":   map[string]string{"type": "string"},
											"default": map[string]string{"type": "boolean"},
										},
									},
								},
							},
						}),
					},
				},
			},
			"/api/views/{view}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Render a view",
					"description": "Render one view over the loaded dataset with the given widget state. Problems such as missing columns are reported in messages rather than as errors.",
					"parameters":  append([]map[string]interface{}{pathParam("view", "View slug", viewSlugs)}, inputParams()...),
					"responses": map[string]interface{}{
						"200": jsonResponse("View payload", map[string]interface{}{"$ref": "#/components/schemas/Payload"}),
						"400": errorResponse("Malformed widget parameter"),
						"404": errorResponse("Unknown view"),
					},
				},
			},
			"/charts/{kind}.png": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Render a chart",
					"parameters": append([]map[string]interface{}{pathParam("kind", "Chart kind", chartKinds)}, inputParams()...),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "PNG image",
							"content": map[string]interface{}{
								"image/png": map[string]interface{}{
									"schema": map[string]string{"type": "string", "format": "binary"},
								},
							},
						},
						"400": errorResponse("Malformed widget parameter"),
						"404": errorResponse("Unknown chart, or nothing to plot for these inputs"),
					},
				},
			},
			"/api/dataset": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Describe the loaded dataset",
					"responses": map[string]interface{}{
						"200": jsonResponse("Dataset source, shape and load diagnostics", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"dataset": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"source":  map[string]string{"type": "string"},
										"rows":    map[string]string{"type": "integer"},
										"columns": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
										"loaded":  map[string]string{"type": "boolean"},
									},
								},
								"diagnostics": map[string]interface{}{
									"type":  "array",
									"items": map[string]interface{}{"$ref": "#/components/schemas/Message"},
								},
							},
						}),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": jsonResponse("API is healthy", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"status":         map[string]string{"type": "string"},
								"dataset_loaded": map[string]string{"type": "boolean"},
								"dataset_rows":   map[string]string{"type": "integer"},
							},
						}),
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"ErrorResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"code":    map[string]string{"type": "integer"},
					},
				},
				"Message": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"level": map[string]interface{}{"type": "string", "enum": []string{"info", "warning", "error"}},
						"text":  map[string]string{"type": "string"},
					},
				},
				"Payload": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"view":     map[string]interface{}{"type": "string", "enum": viewSlugs},
						"title":    map[string]string{"type": "string"},
						"messages": map[string]interface{}{"type": "array", "items": map[string]interface{}{"$ref": "#/components/schemas/Message"}},
						"preview": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"columns":    map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
								"rows":       map[string]interface{}{"type": "array", "items": map[string]string{"type": "array"}},
								"total_rows": map[string]string{"type": "integer"},
							},
						},
						"summary": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"column": map[string]string{"type": "string"},
									"count":  map[string]string{"type": "integer"},
									"mean":   nullableNumber,
									"std":    nullableNumber,
									"min":    nullableNumber,
									"q25":    nullableNumber,
									"q50":    nullableNumber,
									"q75":    nullableNumber,
									"max":    nullableNumber,
								},
							},
						},
						"missing": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"column":  map[string]string{"type": "string"},
									"missing": map[string]string{"type": "integer"},
								},
							},
						},
						"distribution": map[string]interface{}{"type": "object"},
						"monthly": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"month": map[string]string{"type": "integer"},
									"mean":  map[string]string{"type": "number"},
									"count": map[string]string{"type": "integer"},
								},
							},
						},
						"correlation": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"columns": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
								"values": map[string]interface{}{
									"type":  "array",
									"items": map[string]interface{}{"type": "array", "items": nullableNumber},
								},
							},
						},
						"filtered_rows": map[string]string{"type": "integer"},
						"controls":      map[string]string{"type": "object"},
						"stopped":       map[string]string{"type": "boolean"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
