package report

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"

	"github.com/carbocation/pfx"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNoResults = errors.New("no results to plot")

// Series order and colours of the volcano plot.
var volcanoClasses = []struct {
	Name  string
	Color drawing.Color
}{
	{"not-significant", drawing.ColorFromHex("9e9e9e")},
	{"irrelevant", drawing.ColorFromHex("424242")},
	{"over-covered", drawing.ColorFromHex("d32f2f")},
	{"under-covered", drawing.ColorFromHex("1976d2")},
}

// Plot renders a volcano plot of rows as PNG into path.
func Plot(path string, rows []ResultRow) error {
	buffer := bytes.NewBuffer([]byte{})
	if err := RenderVolcano(buffer, rows); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return &ExportError{Path: path, Err: pfx.Err(err)}
	}
	if _, err := buffer.WriteTo(f); err != nil {
		f.Close()
		return &ExportError{Path: path, Err: pfx.Err(err)}
	}
	if err := f.Close(); err != nil {
		return &ExportError{Path: path, Err: pfx.Err(err)}
	}
	return nil
}

// RenderVolcano draws log fold change against -log10 p-value, one series per classification.
func RenderVolcano(w io.Writer, rows []ResultRow) error {
	if len(rows) == 0 {
		return ErrNoResults
	}

	xs := make(map[string][]float64)
	ys := make(map[string][]float64)
	minX, maxX := math.Inf(1), math.Inf(-1)
	maxY := 0.0
	for _, r := range rows {
		x := float64(r.LogFC)
		y := negLog10(float64(r.PValue))
		xs[r.Classification] = append(xs[r.Classification], x)
		ys[r.Classification] = append(ys[r.Classification], y)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}

	var series []chart.Series
	for _, c := range volcanoClasses {
		if len(xs[c.Name]) == 0 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name: c.Name,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				StrokeColor: c.Color,
				DotWidth:    3,
				DotColor:    c.Color,
			},
			XValues: xs[c.Name],
			YValues: ys[c.Name],
		})
	}

	padX := math.Max((maxX-minX)*0.05, 0.5)
	graph := chart.Chart{
		Title:  "Differential coverage",
		Width:  800,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "log2 fold change",
			Range: &chart.ContinuousRange{Min: minX - padX, Max: maxX + padX},
		},
		YAxis: chart.YAxis{
			Name:  "-log10 p-value",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY*1.05 + 0.5},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// negLog10 maps a p-value to -log10(p), clamping zero to the smallest positive float.
func negLog10(p float64) float64 {
	return -math.Log10(math.Max(p, math.SmallestNonzeroFloat64))
}
