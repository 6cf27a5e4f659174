package db

// Paged browsing of stored documents, keyset paginated on the ordering column.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/yumyai/calypso/pkg/model"
)

type sampleRow struct {
	Name         string `db:"name"`
	Group        string `db:"grp"`
	Nog          int    `db:"nog"`
	Parameters   string `db:"parameters"`
	CodingRegion string `db:"coding_region"`
	WholeGenome  string `db:"whole_genome"`
}

func (r sampleRow) info() model.SampleInfo {
	return model.SampleInfo{
		Name:          r.Name,
		Group:         r.Group,
		NumberOfGenes: r.Nog,
		Parameters:    json.RawMessage(r.Parameters),
		CodingRegion:  json.RawMessage(r.CodingRegion),
		WholeGenome:   json.RawMessage(r.WholeGenome),
	}
}

func decodeDocuments(docs []string) ([]model.GeneCoverage, error) {
	out := make([]model.GeneCoverage, 0, len(docs))
	for _, d := range docs {
		var g model.GeneCoverage
		if err := json.Unmarshal([]byte(d), &g); err != nil {
			return nil, fmt.Errorf("decode coverage document: %w", err)
		}
		out = append(out, g)
	}
	return out, nil
}

// GeneCoverage returns the stored document of one gene in one sample.
func (c *CoverageDB) GeneCoverage(ctx context.Context, sample, group, gene string) (*model.GeneCoverage, error) {
	var doc string
	err := c.db.GetContext(ctx, &doc,
		`SELECT document FROM coverage WHERE sample = ? AND grp = ? AND gene = ?`, sample, group, gene)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("gene %s in %s/%s: %w", gene, sample, group, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("gene coverage: %w", err)
	}

	docs, err := decodeDocuments([]string{doc})
	if err != nil {
		return nil, err
	}
	return &docs[0], nil
}

// GeneCoveragePage returns up to limit documents of sample ordered by gene name, starting
// after lastGene. An empty genes list means every gene of the sample.
func (c *CoverageDB) GeneCoveragePage(ctx context.Context, sample, group string, genes []string, lastGene string, limit int) ([]model.GeneCoverage, error) {
	var sb strings.Builder
	args := []interface{}{sample, group}
	sb.WriteString(`SELECT document FROM coverage WHERE sample = ? AND grp = ?`)
	if len(genes) > 0 {
		sb.WriteString(` AND gene IN (?)`)
		args = append(args, dedupe(genes))
	}
	if lastGene != "" {
		sb.WriteString(` AND gene > ?`)
		args = append(args, lastGene)
	}
	sb.WriteString(` ORDER BY gene LIMIT ?`)
	args = append(args, limit)

	q, qargs, err := sqlx.In(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("gene coverage page: %w", err)
	}

	var docs []string
	if err := c.db.SelectContext(ctx, &docs, c.db.Rebind(q), qargs...); err != nil {
		return nil, fmt.Errorf("gene coverage page: %w", err)
	}
	return decodeDocuments(docs)
}

// GeneDocuments returns the documents of genes in group, optionally restricted to samples.
func (c *CoverageDB) GeneDocuments(ctx context.Context, group string, genes, samples []string) ([]model.GeneCoverage, error) {
	if len(genes) == 0 {
		return nil, nil
	}

	query := `SELECT document FROM coverage WHERE gene IN (?) AND grp = ? ORDER BY gene, sample`
	args := []interface{}{dedupe(genes), group}
	if len(samples) > 0 {
		query = `SELECT document FROM coverage WHERE gene IN (?) AND grp = ? AND sample IN (?) ORDER BY gene, sample`
		args = append(args, dedupe(samples))
	}

	q, qargs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("gene documents: %w", err)
	}

	var docs []string
	if err := c.db.SelectContext(ctx, &docs, c.db.Rebind(q), qargs...); err != nil {
		return nil, fmt.Errorf("gene documents: %w", err)
	}
	return decodeDocuments(docs)
}

// SampleMetrics returns the stored metadata of one sample.
func (c *CoverageDB) SampleMetrics(ctx context.Context, sample, group string) (*model.SampleInfo, error) {
	var row sampleRow
	err := c.db.GetContext(ctx, &row, `
		SELECT name, grp, nog, parameters, coding_region, whole_genome
		FROM samples WHERE name = ? AND grp = ?`, sample, group)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sample %s/%s: %w", sample, group, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sample metrics: %w", err)
	}
	info := row.info()
	return &info, nil
}

// SampleMetricsPage returns up to limit samples of group ordered by name, starting after
// lastSample. An empty samples list means every sample of the group.
func (c *CoverageDB) SampleMetricsPage(ctx context.Context, group string, samples []string, lastSample string, limit int) ([]model.SampleInfo, error) {
	var sb strings.Builder
	args := []interface{}{group}
	sb.WriteString(`SELECT name, grp, nog, parameters, coding_region, whole_genome FROM samples WHERE grp = ?`)
	if len(samples) > 0 {
		sb.WriteString(` AND name IN (?)`)
		args = append(args, dedupe(samples))
	}
	if lastSample != "" {
		sb.WriteString(` AND name > ?`)
		args = append(args, lastSample)
	}
	sb.WriteString(` ORDER BY name LIMIT ?`)
	args = append(args, limit)

	q, qargs, err := sqlx.In(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sample metrics page: %w", err)
	}

	var rows []sampleRow
	if err := c.db.SelectContext(ctx, &rows, c.db.Rebind(q), qargs...); err != nil {
		return nil, fmt.Errorf("sample metrics page: %w", err)
	}

	out := make([]model.SampleInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.info())
	}
	return out, nil
}

// AggregateByGene averages the union transcript statistics of each gene over all samples.
func (c *CoverageDB) AggregateByGene(ctx context.Context, genes []string) ([]model.GeneAggregate, error) {
	var out []model.GeneAggregate
	err := selectIn(ctx, c.db, &out, `
		SELECT gene,
			AVG(med) AS avg_med,
			AVG(gte15x) AS avg_gte15x,
			AVG(gte30x) AS avg_gte30x,
			AVG(gte50x) AS avg_gte50x,
			AVG(avg) AS avg_avg,
			AVG(pct25) AS avg_pct25,
			AVG(pct75) AS avg_pct75
		FROM coverage
		WHERE gene IN (?)
		GROUP BY gene
		ORDER BY gene`, dedupe(genes))
	if err != nil {
		return nil, fmt.Errorf("aggregate by gene: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gene < out[j].Gene })
	return out, nil
}
