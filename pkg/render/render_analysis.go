package render

import (
	"html/template"
	"io"
	"math"
	"strconv"

	"github.com/yumyai/calypso/logger"
	"go.uber.org/zap"
)

var analysis_page_template *template.Template

type AnalysisRow struct {
	Gene           string
	LogFC          float64
	LogCPM         float64
	PValue         float64
	FDR            float64
	Classification string
}

// AnalysisPageData describes the state of an analysis job for rendering.
type AnalysisPageData struct {
	JobID                  string
	Groups                 []string
	Engine                 string
	Status                 string
	ErrorMessage           string
	PValueThreshold        float64
	FoldChangeThreshold    float64
	Rows                   []AnalysisRow
	ShouldRefresh          bool
	RefreshIntervalSeconds int
}

// Row colours by classification.
var classColors = map[string]string{
	"over-covered":    "#f8d7da",
	"under-covered":   "#d6e4f8",
	"irrelevant":      "#eeeeee",
	"not-significant": "#ffffff",
}

// init initializes the templates used for rendering the HTML page.
func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
	    <title>Calypso differential coverage</title>
	    <style>
        table { border-collapse: collapse; }
        td, th { padding: 2px 8px; text-align: right; }
        td:first-child, td:last-child { text-align: left; }
   		</style>
		{{ if .ShouldRefresh }}
        <script>
	        setTimeout(function () { window.location.reload(); }, {{ mul .RefreshIntervalSeconds 1000 }});
        </script>
		{{ end }}
	</head>
	<body>
		<h1>Differential coverage</h1>
		<p><strong>Job ID:</strong> {{ .JobID }}</p>
		<p><strong>Groups:</strong> {{ range $i, $g := .Groups }}{{ if $i }} vs {{ end }}{{ $g }}{{ end }}</p>
		<p><strong>Engine:</strong> {{ .Engine }}</p>
		<p><strong>Thresholds:</strong> p &le; {{ fmtFloat .PValueThreshold }}, |logFC| &ge; {{ fmtFloat .FoldChangeThreshold }}</p>
		<p><strong>Status:</strong> {{ .Status }}</p>
		{{ if .ErrorMessage }}
			<p style="color: red;">{{ .ErrorMessage }}</p>
		{{ else if .Rows }}
			{{ template "results_table" .Rows }}
		{{ else }}
			<p>The analysis is still running. This page refreshes every {{ .RefreshIntervalSeconds }} seconds.</p>
		{{ end }}
	</body>
	</html>`

	resultsTmpl := `
	{{ define "results_table" }}
		<table border="1">
		<tr>
			<th>Gene</th>
			<th>logFC</th>
			<th>logCPM</th>
			<th>PValue</th>
			<th>FDR</th>
			<th>Classification</th>
		</tr>
		{{ range . }}
			<tr style="background-color: {{ classColor .Classification }}">
				<td>{{ .Gene }}</td>
				<td>{{ fmtFloat .LogFC }}</td>
				<td>{{ fmtFloat .LogCPM }}</td>
				<td>{{ fmtFloat .PValue }}</td>
				<td>{{ fmtFloat .FDR }}</td>
				<td>{{ .Classification }}</td>
			</tr>
		{{ end }}
		</table>
	{{ end }}`

	analysis_page_template = template.New("analysis_page").Funcs(template.FuncMap{
		"mul":        func(a, b int) int { return a * b },
		"fmtFloat":   fmtFloat,
		"classColor": func(c string) template.CSS { return template.CSS(classColors[c]) },
	})
	analysis_page_template = template.Must(analysis_page_template.Parse(mainTmpl))
	analysis_page_template = template.Must(analysis_page_template.Parse(resultsTmpl))
}

// fmtFloat prints four significant digits, switching to exponent form for small p-values.
func fmtFloat(v float64) string {
	if v != 0 && math.Abs(v) < 1e-3 {
		return strconv.FormatFloat(v, 'e', 3, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Function to render an HTML page with the results table
func RenderAnalysisPage(w io.Writer, data AnalysisPageData) error {
	logger.Info("Rendering analysis page", zap.String("job_id", data.JobID), zap.String("status", data.Status))
	return analysis_page_template.Execute(w, data)
}
