package handler

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/yumyai/calypso/logger"
	"github.com/yumyai/calypso/pkg/dca"
	"github.com/yumyai/calypso/pkg/handler/params"
	"github.com/yumyai/calypso/pkg/handler/request"
	"github.com/yumyai/calypso/pkg/render"
	"github.com/yumyai/calypso/pkg/report"
	"go.uber.org/zap"
)

const (
	VolcanoFile         = "volcano.png"
	refreshIntervalSecs = 5
)

type AnalysisResponse struct {
	AnalysisJob
	Results []dca.Result `json:"results,omitempty"`
}

type ExportResponse struct {
	ID    string   `json:"id"`
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// StartAnalysisHandler validates the request, queues the analysis and answers 202
// with the job id. The analysis itself runs in the background.
func (app *AppContext) StartAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	var req request.AnalysisRequest
	if !decodeBody(w, r, &req) {
		return
	}
	th, err := req.Thresholds(app.Thresholds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	engineName := req.Engine
	if engineName == "" {
		engineName = app.Engine
	}
	engine, err := dca.EngineByName(engineName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := app.Analyses.NewJob(req.Groups, req.Reference, engine.Name(), th, req.Top)
	logger.Info("Analysis queued", zap.String("job_id", job.ID), zap.Strings("groups", req.Groups))

	go app.runAnalysis(job.ID, req.Groups, req.Reference, engine, th)

	writeJSON(w, http.StatusAccepted, job)
}

func (app *AppContext) runAnalysis(jobID string, groups []string, reference string, engine dca.StatisticalEngine, th dca.Thresholds) {
	app.Analyses.SetRunning(jobID)

	opts := []dca.Option{dca.WithEngine(engine), dca.WithWorkers(app.Workers)}
	if reference != "" {
		opts = append(opts, dca.WithReference(reference))
	}
	a, err := dca.New(context.Background(), app.DB, groups, opts...)
	if err != nil {
		logger.Warn("Analysis failed", zap.String("job_id", jobID), zap.Error(err))
		app.Analyses.FailJob(jobID, err)
		return
	}
	results, err := a.Run(th)
	if err != nil {
		logger.Warn("Analysis failed", zap.String("job_id", jobID), zap.Error(err))
		app.Analyses.FailJob(jobID, err)
		return
	}

	app.Analyses.CompleteJob(jobID, a, results)
	logger.Info("Analysis completed", zap.String("job_id", jobID), zap.Int("genes", len(results)))
}

// GetAnalysisHandler reports the job status and, once completed, its results.
// ?n= limits the rows (default: the job's top), ?class= filters by classification.
func (app *AppContext) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := app.Analyses.GetJob(r.PathValue("id"))
	if !ok {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	n, err := params.Limit(q, "n", job.Top)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	classes, err := params.Classes(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := AnalysisResponse{AnalysisJob: job}
	if job.Status == AnalysisJobCompleted {
		resp.Results = dca.Top(params.FilterResults(job.Results(), classes), n)
	}
	writeJSON(w, http.StatusOK, resp)
}

// AnalysisPage renders the job as HTML, refreshing until it is finished.
func (app *AppContext) AnalysisPage(w http.ResponseWriter, r *http.Request) {
	job, ok := app.Analyses.GetJob(r.PathValue("id"))
	if !ok {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	data := render.AnalysisPageData{
		JobID:                  job.ID,
		Groups:                 job.Groups,
		Engine:                 job.Engine,
		Status:                 string(job.Status),
		ErrorMessage:           job.Error,
		PValueThreshold:        job.Thresholds.PValue,
		FoldChangeThreshold:    job.Thresholds.FoldChange,
		ShouldRefresh:          job.Status == AnalysisJobQueued || job.Status == AnalysisJobRunning,
		RefreshIntervalSeconds: refreshIntervalSecs,
	}
	for _, res := range dca.Top(job.Results(), job.Top) {
		data.Rows = append(data.Rows, render.AnalysisRow{
			Gene:           res.Gene,
			LogFC:          res.LogFC,
			LogCPM:         res.LogCPM,
			PValue:         res.PValue,
			FDR:            res.FDR,
			Classification: string(res.Classification),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderAnalysisPage(w, data); err != nil {
		logger.Error("Render analysis page", zap.Error(err))
	}
}

// ExportAnalysisHandler writes the tables and the volcano plot of a completed job
// under the export directory, in a folder named after the job. Exports of the same
// job run one at a time.
func (app *AppContext) ExportAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := app.Analyses.GetJob(r.PathValue("id"))
	if !ok {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}
	if job.Status != AnalysisJobCompleted {
		http.Error(w, "Analysis is "+string(job.Status), http.StatusConflict)
		return
	}

	job.exportMu.Lock()
	defer job.exportMu.Unlock()

	dir := filepath.Join(app.ExportDir, job.ID)
	if err := job.analyser.Export(dir); err != nil {
		writeError(w, err)
		return
	}
	if err := job.analyser.Plot(filepath.Join(dir, VolcanoFile)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ExportResponse{
		ID:    job.ID,
		Dir:   dir,
		Files: []string{report.CoveragesFile, report.TotalsFile, report.DesignFile, report.ResultsFile, VolcanoFile},
	})
}
