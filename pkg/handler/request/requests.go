package request

// Request bodies of the JSON API.

type GroupRequest struct {
	Name string `json:"name"`
}

// IngestRequest points at a coverage file readable by the server.
type IngestRequest struct {
	SampleName     string `json:"sample_name"`
	GeneCollection string `json:"gene_collection"`
	Path           string `json:"path"`
}

type GeneCoverageRequest struct {
	SampleName     string   `json:"sample_name"`
	GeneCollection string   `json:"gene_collection"`
	GeneList       []string `json:"gene_list"`
}

type SampleMetricsRequest struct {
	GeneCollection string   `json:"gene_collection"`
	SampleList     []string `json:"sample_list"`
}

type GeneAggregateRequest struct {
	GeneList []string `json:"gene_list"`
}

type GeneSummaryRequest struct {
	GeneCollection string   `json:"gene_collection"`
	GeneList       []string `json:"gene_list"`
	SampleList     []string `json:"sample_list"`
}

// AnalysisRequest starts a differential coverage analysis. Unset thresholds and engine
// fall back to the server configuration; Top limits the rows returned by default.
// Reference, when set, must name one of Groups.
type AnalysisRequest struct {
	Groups              []string `json:"groups"`
	Reference           string   `json:"reference"`
	PValueThreshold     *float64 `json:"p_value_threshold"`
	FoldChangeThreshold *float64 `json:"fold_change_threshold"`
	Engine              string   `json:"engine"`
	Top                 int      `json:"top"`
}
