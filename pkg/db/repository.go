package db

// Read side used by the differential coverage analysis.

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/yumyai/calypso/pkg/model"
)

// SamplesForGroups lists the samples of the given groups, ordered by the position of
// their group in groups and then by name.
func (c *CoverageDB) SamplesForGroups(ctx context.Context, groups []string) ([]model.Sample, error) {
	groups = dedupe(groups)
	if len(groups) == 0 {
		return nil, nil
	}

	var samples []model.Sample
	err := selectIn(ctx, c.db, &samples, `SELECT name, grp FROM samples WHERE grp IN (?) ORDER BY name`, groups)
	if err != nil {
		return nil, fmt.Errorf("samples for groups: %w", err)
	}

	position := make(map[string]int, len(groups))
	for i, g := range groups {
		position[g] = i
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return position[samples[i].Group] < position[samples[j].Group]
	})
	return samples, nil
}

// GenesForGroups returns the sorted genes that have coverage in every one of the groups.
func (c *CoverageDB) GenesForGroups(ctx context.Context, groups []string) ([]string, error) {
	groups = dedupe(groups)
	if len(groups) == 0 {
		return nil, nil
	}

	q, args, err := sqlx.In(`
		SELECT gene FROM coverage
		WHERE grp IN (?)
		GROUP BY gene
		HAVING COUNT(DISTINCT grp) = ?
		ORDER BY gene`, groups, len(groups))
	if err != nil {
		return nil, fmt.Errorf("genes for groups: %w", err)
	}

	var genes []string
	if err := c.db.SelectContext(ctx, &genes, c.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("genes for groups: %w", err)
	}
	return genes, nil
}

// CoverageForSample returns the mean union transcript coverage of sample for the requested genes.
// Genes without a record are simply absent from the result.
func (c *CoverageDB) CoverageForSample(ctx context.Context, sample string, genes []string) ([]model.CoverageValue, error) {
	var values []model.CoverageValue
	err := selectIn(ctx, c.db, &values, `SELECT gene, avg FROM coverage WHERE gene IN (?) AND sample = ?`, dedupe(genes), sample)
	if err != nil {
		return nil, fmt.Errorf("coverage for sample %s: %w", sample, err)
	}
	return values, nil
}

// GroupsForSamples maps each known sample name to its group.
func (c *CoverageDB) GroupsForSamples(ctx context.Context, samples []string) (map[string]string, error) {
	var rows []model.Sample
	if err := selectIn(ctx, c.db, &rows, `SELECT name, grp FROM samples WHERE name IN (?)`, dedupe(samples)); err != nil {
		return nil, fmt.Errorf("groups for samples: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Group
	}
	return out, nil
}
