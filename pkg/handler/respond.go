package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yumyai/calypso/logger"
	covdb "github.com/yumyai/calypso/pkg/db"
	"github.com/yumyai/calypso/pkg/dca"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Encode response", zap.Error(err))
	}
}

// decodeBody reads a JSON body into v and runs its validation.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Error(err.Error())
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := v.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps storage and analysis errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, covdb.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, covdb.ErrExists), errors.Is(err, covdb.ErrInUse):
		status = http.StatusConflict
	case errors.Is(err, dca.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, dca.ErrStatistical):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, dca.ErrDataAccess):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

// Page is one keyset page of results; Next is the key to pass as ?page= for the
// following page and is empty on the last page.
type Page struct {
	Next    string      `json:"next"`
	Results interface{} `json:"results"`
}
