package handler

import (
	"net/http"
	"os"

	"github.com/yumyai/calypso/logger"
	"github.com/yumyai/calypso/pkg/handler/request"
	"github.com/yumyai/calypso/pkg/model"
	"go.uber.org/zap"
)

// IngestSampleHandler loads a coverage file from a path on the server into a group.
func (app *AppContext) IngestSampleHandler(w http.ResponseWriter, r *http.Request) {
	var req request.IngestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	f, err := os.Open(req.Path)
	if err != nil {
		logger.Warn("Cannot open coverage file", zap.String("path", req.Path), zap.Error(err))
		http.Error(w, "Cannot open coverage file", http.StatusBadRequest)
		return
	}
	defer f.Close()

	report, err := model.ParseCoverageFile(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := app.DB.Ingest(r.Context(), req.SampleName, req.GeneCollection, report); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.Sample{Name: req.SampleName, Group: req.GeneCollection})
}

func (app *AppContext) ListSamplesHandler(w http.ResponseWriter, r *http.Request) {
	samples, err := app.DB.ListSamples(r.Context(), r.URL.Query().Get("group"))
	if err != nil {
		writeError(w, err)
		return
	}
	if samples == nil {
		samples = []model.Sample{}
	}
	writeJSON(w, http.StatusOK, samples)
}

func (app *AppContext) RemoveSampleHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.DB.RemoveSample(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
