package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	covdb "github.com/yumyai/calypso/pkg/db"
	"github.com/yumyai/calypso/pkg/dca"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("group A: %w", covdb.ErrNotFound), http.StatusNotFound},
		{"exists", fmt.Errorf("sample s1: %w", covdb.ErrExists), http.StatusConflict},
		{"in use", covdb.ErrInUse, http.StatusConflict},
		{"invalid input", dca.ErrInvalidInput, http.StatusBadRequest},
		{"statistical", &dca.StatisticalError{Reason: "no replication"}, http.StatusUnprocessableEntity},
		{"data access", &dca.DataAccessError{Op: "samples for groups", Err: errors.New("disk I/O error")}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)
			assert.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.err.Error())
		})
	}
}
