package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yumyai/calypso/logger"
	"github.com/yumyai/calypso/pkg/model"
	"go.uber.org/zap"
)

// CreateGroup registers a gene collection. Samples can only be ingested into existing groups.
func (c *CoverageDB) CreateGroup(ctx context.Context, name string) error {
	res, err := c.db.ExecContext(ctx, `INSERT OR IGNORE INTO gene_collections (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("create group %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("group %s: %w", name, ErrExists)
	}
	return nil
}

func (c *CoverageDB) ListGroups(ctx context.Context) ([]string, error) {
	var groups []string
	if err := c.db.SelectContext(ctx, &groups, `SELECT name FROM gene_collections ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// DeleteGroup removes an empty gene collection.
func (c *CoverageDB) DeleteGroup(ctx context.Context, name string) error {
	var n int
	if err := c.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM samples WHERE grp = ?`, name); err != nil {
		return fmt.Errorf("delete group %s: %w", name, err)
	}
	if n > 0 {
		return fmt.Errorf("group %s has %d samples: %w", name, n, ErrInUse)
	}

	res, err := c.db.ExecContext(ctx, `DELETE FROM gene_collections WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete group %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("group %s: %w", name, ErrNotFound)
	}
	return nil
}

// ListSamples lists the samples of group, or every sample when group is empty.
func (c *CoverageDB) ListSamples(ctx context.Context, group string) ([]model.Sample, error) {
	var samples []model.Sample
	var err error
	if group == "" {
		err = c.db.SelectContext(ctx, &samples, `SELECT name, grp FROM samples ORDER BY name`)
	} else {
		err = c.db.SelectContext(ctx, &samples, `SELECT name, grp FROM samples WHERE grp = ? ORDER BY name`, group)
	}
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	return samples, nil
}

// Ingest stores a sample and all of its gene documents in one transaction.
func (c *CoverageDB) Ingest(ctx context.Context, sample, group string, report *model.CoverageReport) (err error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingestion: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists int
	if err = tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM gene_collections WHERE name = ?`, group); err != nil {
		return fmt.Errorf("ingest %s: %w", sample, err)
	}
	if exists == 0 {
		return fmt.Errorf("group %s: %w", group, ErrNotFound)
	}
	// Sample names are unique across groups.
	var existing string
	switch err = tx.GetContext(ctx, &existing, `SELECT grp FROM samples WHERE name = ?`, sample); {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return fmt.Errorf("ingest %s: %w", sample, err)
	case existing == group:
		return fmt.Errorf("sample %s in group %s: %w", sample, group, ErrExists)
	default:
		return fmt.Errorf("sample %s is already stored in group %s, sample names must be unique across groups: %w",
			sample, existing, ErrExists)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO samples (name, grp, nog, parameters, coding_region, whole_genome)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sample, group, len(report.Genes),
		string(report.Parameters), string(report.CodingRegion), string(report.WholeGenome))
	if err != nil {
		return fmt.Errorf("insert sample %s: %w", sample, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO coverage (sample, grp, gene, avg, med, pct25, pct75, gte15x, gte30x, gte50x, lt15x, bases, gc, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare coverage insert: %w", err)
	}
	defer stmt.Close()

	for _, gene := range report.Genes {
		gene.Sample = sample
		gene.Group = group
		doc, merr := json.Marshal(gene)
		if merr != nil {
			err = fmt.Errorf("encode %s/%s: %w", sample, gene.Name, merr)
			return err
		}

		s := gene.UnionTranscript.Stats
		_, err = stmt.ExecContext(ctx, sample, group, gene.Name,
			s.Avg, s.Med, s.Pct25, s.Pct75, s.Gte15x, s.Gte30x, s.Gte50x, s.Lt15x, s.Bases, s.GC, string(doc))
		if err != nil {
			return fmt.Errorf("insert coverage %s/%s: %w", sample, gene.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ingestion: %w", err)
	}
	logger.Info("Ingested sample", zap.String("sample", sample), zap.String("group", group), zap.Int("genes", len(report.Genes)))
	return nil
}

// RemoveSample deletes a sample and its coverage documents.
func (c *CoverageDB) RemoveSample(ctx context.Context, sample string) (err error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin removal: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group string
	if err = tx.GetContext(ctx, &group, `SELECT grp FROM samples WHERE name = ?`, sample); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sample %s: %w", sample, ErrNotFound)
		}
		return fmt.Errorf("remove sample %s: %w", sample, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM coverage WHERE sample = ?`, sample)
	if err != nil {
		return fmt.Errorf("remove coverage of %s: %w", sample, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM samples WHERE name = ?`, sample); err != nil {
		return fmt.Errorf("remove sample %s: %w", sample, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit removal: %w", err)
	}

	n, _ := res.RowsAffected()
	logger.Info("Removed sample", zap.String("sample", sample), zap.String("group", group), zap.Int64("genes", n))
	return nil
}
