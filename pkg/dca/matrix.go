package dca

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/yumyai/calypso/logger"
	"go.uber.org/zap"
)

// CoverageMatrix holds rounded coverage counts, one row per gene and one column per sample.
// Internally the data is laid out one row per sample, the way it is fetched.
type CoverageMatrix struct {
	Genes   []string
	Samples []string

	bySample *mat.Dense // nil when either dimension is zero
}

// Dims returns (number of genes, number of samples).
func (m *CoverageMatrix) Dims() (int, int) {
	return len(m.Genes), len(m.Samples)
}

// At returns the count of gene i in sample j.
func (m *CoverageMatrix) At(i, j int) float64 {
	return m.bySample.At(j, i)
}

// Counts returns the genes × samples view of the matrix, or nil for an empty matrix.
func (m *CoverageMatrix) Counts() mat.Matrix {
	if m.bySample == nil {
		return nil
	}
	return m.bySample.T()
}

// GeneRow copies the counts of gene i across all samples.
func (m *CoverageMatrix) GeneRow(i int) []float64 {
	row := make([]float64, len(m.Samples))
	if m.bySample != nil {
		mat.Col(row, i, m.bySample)
	}
	return row
}

// Totals returns the total coverage of each sample.
func (m *CoverageMatrix) Totals() []float64 {
	totals := make([]float64, len(m.Samples))
	for j := range m.Samples {
		if m.bySample != nil {
			totals[j] = floats.Sum(m.bySample.RawRowView(j))
		}
	}
	return totals
}

// Builder assembles a CoverageMatrix from repository reads.
type Builder struct {
	Repo Repository
	// Workers > 1 fetches samples concurrently.
	Workers int
}

// Build reads the coverage of each sample restricted to genes. Missing (sample, gene) records
// are zero. Any repository error aborts the whole build.
func (b *Builder) Build(ctx context.Context, samples, genes []string) (*CoverageMatrix, []float64, error) {
	m := &CoverageMatrix{Genes: genes, Samples: samples}
	if len(samples) == 0 || len(genes) == 0 {
		return m, make([]float64, len(samples)), nil
	}

	index := make(map[string]int, len(genes))
	for i, g := range genes {
		index[g] = i
	}
	m.bySample = mat.NewDense(len(samples), len(genes), nil)

	fill := func(ctx context.Context, j int) error {
		values, err := b.Repo.CoverageForSample(ctx, samples[j], genes)
		if err != nil {
			return &DataAccessError{Op: "coverage for sample " + samples[j], Err: err}
		}
		row := m.bySample.RawRowView(j)
		for _, v := range values {
			if i, ok := index[v.Gene]; ok {
				row[i] = math.RoundToEven(v.MeanCoverage)
			}
		}
		return nil
	}

	var err error
	if b.Workers > 1 {
		err = b.buildConcurrently(ctx, len(samples), fill)
	} else {
		for j := range samples {
			if err = fill(ctx, j); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("Built coverage matrix", zap.Int("genes", len(genes)), zap.Int("samples", len(samples)))
	return m, m.Totals(), nil
}

// buildConcurrently runs fill for every sample index behind a semaphore of b.Workers slots.
// Rows are disjoint so fills never race. The first error cancels the remaining fetches.
func (b *Builder) buildConcurrently(ctx context.Context, n int, fill func(context.Context, int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, b.Workers)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for j := 0; j < n; j++ {
		sem <- struct{}{}
		if ctx.Err() != nil {
			<-sem
			break
		}
		wg.Add(1)
		go func(j int) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fill(ctx, j); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(j)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
