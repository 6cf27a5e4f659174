package main

import (
	"net/http"

	"github.com/yumyai/calypso/pkg/handler"
)

func NewRouter(app *handler.AppContext) *http.ServeMux {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Pages
	mux.HandleFunc("GET /analyses/{id}", app.AnalysisPage)

	// API routes
	mux.HandleFunc("GET /api/v1/health", app.HealthCheck)

	mux.HandleFunc("GET /api/v1/groups", app.ListGroupsHandler)
	mux.HandleFunc("POST /api/v1/groups", app.CreateGroupHandler)
	mux.HandleFunc("DELETE /api/v1/groups/{name}", app.DeleteGroupHandler)

	mux.HandleFunc("GET /api/v1/samples", app.ListSamplesHandler)
	mux.HandleFunc("POST /api/v1/samples", app.IngestSampleHandler)
	mux.HandleFunc("DELETE /api/v1/samples/{name}", app.RemoveSampleHandler)

	// Browsing stored coverage
	mux.HandleFunc("POST /api/v1/gene-coverage", app.GeneCoveragePageHandler)
	mux.HandleFunc("GET /api/v1/gene-coverage/{sample}/{group}/{gene}", app.GeneCoverageHandler)
	mux.HandleFunc("POST /api/v1/sample-metrics", app.SampleMetricsPageHandler)
	mux.HandleFunc("GET /api/v1/sample-metrics/{sample}/{group}", app.SampleMetricsHandler)
	mux.HandleFunc("POST /api/v1/gene-aggregates", app.GeneAggregatesHandler)
	mux.HandleFunc("POST /api/v1/gene-summary", app.GeneSummaryHandler)

	// Differential coverage analysis
	mux.HandleFunc("POST /api/v1/analyses", app.StartAnalysisHandler)
	mux.HandleFunc("GET /api/v1/analyses/{id}", app.GetAnalysisHandler)
	mux.HandleFunc("POST /api/v1/analyses/{id}/export", app.ExportAnalysisHandler)

	return mux
}
