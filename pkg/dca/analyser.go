package dca

import (
	"context"
	"fmt"
	"sync"

	"github.com/yumyai/calypso/logger"
	"github.com/yumyai/calypso/pkg/model"
	"github.com/yumyai/calypso/pkg/report"
	"go.uber.org/zap"
)

// Repository is the read access the analysis needs from the coverage store.
type Repository interface {
	SamplesForGroups(ctx context.Context, groups []string) ([]model.Sample, error)
	// GenesForGroups returns the genes present in every one of groups.
	GenesForGroups(ctx context.Context, groups []string) ([]string, error)
	CoverageForSample(ctx context.Context, sample string, genes []string) ([]model.CoverageValue, error)
	GroupsForSamples(ctx context.Context, samples []string) (map[string]string, error)
}

type Option func(*Analyser)

// WithEngine replaces the default negative binomial exact test.
func WithEngine(e StatisticalEngine) Option {
	return func(a *Analyser) { a.engine = e }
}

// WithReference makes group the reference of the comparison instead of the
// alphabetically first group. group must be one of the analysed groups.
func WithReference(group string) Option {
	return func(a *Analyser) { a.reference = group }
}

// WithWorkers fetches sample coverage with n concurrent requests.
func WithWorkers(n int) Option {
	return func(a *Analyser) { a.workers = n }
}

// Analyser compares the coverage of two groups. Its data is loaded once at construction;
// results are cached until Run is called again.
type Analyser struct {
	groups    [2]string
	reference string
	engine    StatisticalEngine
	workers   int

	samples []string
	genes   []string
	matrix  *CoverageMatrix
	totals  []float64
	design  []string

	mu         sync.RWMutex
	results    []Result
	thresholds Thresholds
}

// New validates groups and loads samples, genes, coverage and the experimental design.
// The groups are compared in sorted order, the first being the reference, unless
// WithReference names another one.
func New(ctx context.Context, repo Repository, groups []string, opts ...Option) (*Analyser, error) {
	if len(groups) != 2 {
		return nil, fmt.Errorf("exactly two groups are compared, got %d: %w", len(groups), ErrInvalidInput)
	}
	if groups[0] == "" || groups[1] == "" || groups[0] == groups[1] {
		return nil, fmt.Errorf("groups must be two distinct names, got %q: %w", groups, ErrInvalidInput)
	}

	a := &Analyser{groups: [2]string{groups[0], groups[1]}, engine: NBExactEngine{}, workers: 1}
	for _, opt := range opts {
		opt(a)
	}
	if a.groups[1] < a.groups[0] {
		a.groups[0], a.groups[1] = a.groups[1], a.groups[0]
	}
	switch a.reference {
	case "", a.groups[0]:
	case a.groups[1]:
		a.groups[0], a.groups[1] = a.groups[1], a.groups[0]
	default:
		return nil, fmt.Errorf("reference %q is not one of %q: %w", a.reference, groups, ErrInvalidInput)
	}

	if err := a.load(ctx, repo); err != nil {
		return nil, err
	}
	logger.Info("Loaded coverage data",
		zap.Strings("groups", a.groups[:]),
		zap.Int("samples", len(a.samples)),
		zap.Int("genes", len(a.genes)))
	return a, nil
}

func (a *Analyser) load(ctx context.Context, repo Repository) error {
	groups := a.groups[:]

	samples, err := repo.SamplesForGroups(ctx, groups)
	if err != nil {
		return &DataAccessError{Op: "samples for groups", Err: err}
	}
	genes, err := repo.GenesForGroups(ctx, groups)
	if err != nil {
		return &DataAccessError{Op: "genes for groups", Err: err}
	}

	a.samples = make([]string, len(samples))
	for i, s := range samples {
		a.samples[i] = s.Name
	}
	a.genes = genes

	b := &Builder{Repo: repo, Workers: a.workers}
	if a.matrix, a.totals, err = b.Build(ctx, a.samples, a.genes); err != nil {
		return err
	}

	byName, err := repo.GroupsForSamples(ctx, a.samples)
	if err != nil {
		return &DataAccessError{Op: "groups for samples", Err: err}
	}
	a.design = make([]string, len(a.samples))
	for i, s := range a.samples {
		g, ok := byName[s]
		if !ok {
			return &DataAccessError{Op: "groups for samples", Err: fmt.Errorf("sample %s has no group", s)}
		}
		a.design[i] = g
	}
	return nil
}

// Run tests every gene and caches the sorted results.
func (a *Analyser) Run(th Thresholds) ([]Result, error) {
	tester := Tester{Engine: a.engine, Levels: a.groups}
	results, err := tester.Run(a.matrix, a.design, a.totals, th)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.results = append([]Result(nil), results...)
	a.thresholds = th
	a.mu.Unlock()

	logger.Info("Differential coverage analysis finished",
		zap.String("reference", a.groups[0]),
		zap.String("group", a.groups[1]),
		zap.Int("genes", len(results)))
	return results, nil
}

// Results returns a copy of the cached results of the last Run.
func (a *Analyser) Results() ([]Result, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.results == nil {
		return nil, ErrNotRun
	}
	return append([]Result(nil), a.results...), nil
}

// Top returns the n most significant results of the last Run; n <= 0 means all.
func (a *Analyser) Top(n int) ([]Result, error) {
	results, err := a.Results()
	if err != nil {
		return nil, err
	}
	return Top(results, n), nil
}

// Groups returns the compared groups, the reference first.
func (a *Analyser) Groups() [2]string       { return a.groups }
func (a *Analyser) Samples() []string       { return a.samples }
func (a *Analyser) Genes() []string         { return a.genes }
func (a *Analyser) Matrix() *CoverageMatrix { return a.matrix }
func (a *Analyser) Totals() []float64       { return a.totals }
func (a *Analyser) Design() []string        { return a.design }
func (a *Analyser) Engine() string          { return a.engine.Name() }

// Thresholds returns the thresholds of the last Run.
func (a *Analyser) Thresholds() Thresholds {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.thresholds
}

// Export writes the coverage, totals and design tables to dir, plus the results when
// the analysis has been run.
func (a *Analyser) Export(dir string) error {
	tables := report.Tables{
		Genes:   a.genes,
		Samples: a.samples,
		Counts:  a.matrix.Counts(),
		Totals:  a.totals,
		Groups:  a.design,
	}
	if results, err := a.Results(); err == nil {
		tables.Results = ResultRows(results)
	}
	return report.Export(dir, tables)
}

// Plot draws the volcano plot of the last Run to path.
func (a *Analyser) Plot(path string) error {
	results, err := a.Results()
	if err != nil {
		return err
	}
	return report.Plot(path, ResultRows(results))
}

// ResultRows converts results to the rows written by the report package.
func ResultRows(results []Result) []report.ResultRow {
	rows := make([]report.ResultRow, len(results))
	for i, r := range results {
		rows[i] = report.ResultRow{
			Gene:           r.Gene,
			LogFC:          report.Float(r.LogFC),
			PValue:         report.Float(r.PValue),
			FDR:            report.Float(r.FDR),
			Classification: string(r.Classification),
		}
	}
	return rows
}
