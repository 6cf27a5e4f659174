package handler

import (
	"net/http"

	"github.com/yumyai/calypso/pkg/handler/request"
	"github.com/yumyai/calypso/pkg/model"
)

// GeneCoveragePageHandler pages through the gene documents of one sample. ?page= is the
// last gene of the previous page.
func (app *AppContext) GeneCoveragePageHandler(w http.ResponseWriter, r *http.Request) {
	var req request.GeneCoverageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	docs, err := app.DB.GeneCoveragePage(r.Context(), req.SampleName, req.GeneCollection,
		req.GeneList, r.URL.Query().Get("page"), app.PageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	page := Page{Results: docs}
	if len(docs) == app.PageSize {
		page.Next = docs[len(docs)-1].Name
	}
	writeJSON(w, http.StatusOK, page)
}

func (app *AppContext) GeneCoverageHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := app.DB.GeneCoverage(r.Context(), r.PathValue("sample"), r.PathValue("group"), r.PathValue("gene"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SampleMetricsPageHandler pages through the sample metadata of a group. ?page= is the
// last sample of the previous page.
func (app *AppContext) SampleMetricsPageHandler(w http.ResponseWriter, r *http.Request) {
	var req request.SampleMetricsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	infos, err := app.DB.SampleMetricsPage(r.Context(), req.GeneCollection, req.SampleList,
		r.URL.Query().Get("page"), app.PageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	page := Page{Results: infos}
	if len(infos) == app.PageSize {
		page.Next = infos[len(infos)-1].Name
	}
	writeJSON(w, http.StatusOK, page)
}

func (app *AppContext) SampleMetricsHandler(w http.ResponseWriter, r *http.Request) {
	info, err := app.DB.SampleMetrics(r.Context(), r.PathValue("sample"), r.PathValue("group"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (app *AppContext) GeneAggregatesHandler(w http.ResponseWriter, r *http.Request) {
	var req request.GeneAggregateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	aggregates, err := app.DB.AggregateByGene(r.Context(), req.GeneList)
	if err != nil {
		writeError(w, err)
		return
	}
	if aggregates == nil {
		aggregates = []model.GeneAggregate{}
	}
	writeJSON(w, http.StatusOK, aggregates)
}

// GeneSummaryHandler describes each statistic of the requested genes across samples.
func (app *AppContext) GeneSummaryHandler(w http.ResponseWriter, r *http.Request) {
	var req request.GeneSummaryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	docs, err := app.DB.GeneDocuments(r.Context(), req.GeneCollection, req.GeneList, req.SampleList)
	if err != nil {
		writeError(w, err)
		return
	}
	summaries, err := model.Summarize(docs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}
