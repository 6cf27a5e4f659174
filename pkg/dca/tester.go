package dca

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/yumyai/calypso/logger"
	"go.uber.org/zap"
)

// Result is the outcome for one gene.
type Result struct {
	Gene           string         `json:"gene"`
	LogFC          float64        `json:"logFC"`
	LogCPM         float64        `json:"logCPM"`
	PValue         float64        `json:"PValue"`
	FDR            float64        `json:"FDR"`
	Classification Classification `json:"classification"`
}

// Tester runs an engine over a coverage matrix and ranks the genes.
type Tester struct {
	Engine StatisticalEngine
	// Levels fixes the compared groups with Levels[0] as reference. When empty the
	// labels are taken in sorted order.
	Levels [2]string
}

// Run tests every gene of matrix. groupLabels and totals are parallel to the matrix
// columns. Results are sorted by FDR, then p-value, then matrix row.
func (t Tester) Run(matrix *CoverageMatrix, groupLabels []string, totals []float64, th Thresholds) ([]Result, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	nGenes, nSamples := matrix.Dims()
	if nGenes == 0 || nSamples == 0 {
		return nil, statErrorf("empty coverage matrix (%d genes, %d samples)", nGenes, nSamples)
	}
	if len(groupLabels) != nSamples || len(totals) != nSamples {
		return nil, fmt.Errorf("%d labels and %d totals for %d samples: %w", len(groupLabels), len(totals), nSamples, ErrInvalidInput)
	}

	levels := t.Levels
	if levels[0] == "" {
		var err error
		if levels, err = labelLevels(groupLabels); err != nil {
			return nil, err
		}
	}

	fixed := floats.Sum(totals) / float64(len(totals))
	if fixed <= 0 {
		return nil, statErrorf("every coverage value is zero")
	}

	engine := t.Engine
	if engine == nil {
		engine = NBExactEngine{}
	}
	stats, err := engine.Test(CountModel{
		Counts:           matrix.Counts(),
		GroupLabels:      groupLabels,
		Levels:           levels,
		FixedLibrarySize: fixed,
	})
	if err != nil {
		return nil, err
	}
	if len(stats) != nGenes {
		return nil, statErrorf("engine %s returned %d statistics for %d genes", engine.Name(), len(stats), nGenes)
	}

	pvalues := make([]float64, nGenes)
	for i, s := range stats {
		pvalues[i] = s.PValue
	}
	fdr := adjustBH(pvalues)

	results := make([]Result, nGenes)
	for i, s := range stats {
		if math.IsNaN(fdr[i]) {
			return nil, statErrorf("undefined FDR for gene %s", matrix.Genes[i])
		}
		results[i] = Result{
			Gene:           matrix.Genes[i],
			LogFC:          s.LogFC,
			LogCPM:         s.LogCPM,
			PValue:         s.PValue,
			FDR:            fdr[i],
			Classification: th.Classify(s.PValue, s.LogFC),
		}
	}
	// Stable sort keeps matrix row order for full ties.
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].FDR != results[b].FDR {
			return results[a].FDR < results[b].FDR
		}
		return results[a].PValue < results[b].PValue
	})

	logger.Debug("Differential coverage tested",
		zap.String("engine", engine.Name()),
		zap.Strings("levels", levels[:]),
		zap.Int("genes", nGenes),
		zap.Float64("library_size", fixed))
	return results, nil
}

func labelLevels(labels []string) ([2]string, error) {
	var levels []string
	for _, l := range labels {
		found := false
		for _, seen := range levels {
			if seen == l {
				found = true
				break
			}
		}
		if !found {
			levels = append(levels, l)
		}
	}
	if len(levels) != 2 {
		return [2]string{}, statErrorf("expected two groups, found %d", len(levels))
	}
	sort.Strings(levels)
	return [2]string{levels[0], levels[1]}, nil
}

// Top returns the first n results, or all of them when n <= 0 or n exceeds the count.
func Top(results []Result, n int) []Result {
	if n <= 0 || n >= len(results) {
		return results
	}
	return results[:n]
}
