// Handler for miscellaneous endpoints such as health check

package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func (app *AppContext) HealthCheck(w http.ResponseWriter, r *http.Request) {

	response := HealthResponse{
		Health:    "ok",
		Database:  "ok",
		Timestamp: time.Now(),
	}
	status := http.StatusOK
	if err := app.DB.Ping(r.Context()); err != nil {
		response.Health = "degraded"
		response.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)

}
