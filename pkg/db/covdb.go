package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/yumyai/calypso/internal/util"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Upper bound of values bound into a single IN (...) list.
const inChunkSize = 500

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrInUse    = errors.New("still in use")
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

const schema = `
CREATE TABLE IF NOT EXISTS gene_collections (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS samples (
	name          TEXT PRIMARY KEY,
	grp           TEXT NOT NULL REFERENCES gene_collections(name),
	nog           INTEGER NOT NULL DEFAULT 0,
	parameters    TEXT NOT NULL DEFAULT '{}',
	coding_region TEXT NOT NULL DEFAULT '{}',
	whole_genome  TEXT NOT NULL DEFAULT '{}',
	created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS coverage (
	sample   TEXT NOT NULL REFERENCES samples(name),
	grp      TEXT NOT NULL,
	gene     TEXT NOT NULL,
	avg      REAL NOT NULL DEFAULT 0,
	med      REAL NOT NULL DEFAULT 0,
	pct25    REAL NOT NULL DEFAULT 0,
	pct75    REAL NOT NULL DEFAULT 0,
	gte15x   REAL NOT NULL DEFAULT 0,
	gte30x   REAL NOT NULL DEFAULT 0,
	gte50x   REAL NOT NULL DEFAULT 0,
	lt15x    REAL NOT NULL DEFAULT 0,
	bases    REAL NOT NULL DEFAULT 0,
	gc       REAL NOT NULL DEFAULT 0,
	document TEXT NOT NULL,
	UNIQUE(sample, gene)
);

CREATE INDEX IF NOT EXISTS idx_coverage_grp_gene ON coverage(grp, gene);
CREATE INDEX IF NOT EXISTS idx_samples_grp ON samples(grp);
`

// CoverageDB is the SQLite backed store of samples and their gene coverage documents.
type CoverageDB struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database file at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*CoverageDB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := util.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cdb := &CoverageDB{db: conn}
	if err := cdb.initSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return cdb, nil
}

func (c *CoverageDB) initSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (c *CoverageDB) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *CoverageDB) Close() error {
	return c.db.Close()
}

// selectIn runs a query holding a single IN (?) placeholder over values in chunks
// and appends each chunk's rows to dest.
func selectIn[T any](ctx context.Context, db *sqlx.DB, dest *[]T, query string, values []string, args ...interface{}) error {
	for start := 0; start < len(values); start += inChunkSize {
		end := start + inChunkSize
		if end > len(values) {
			end = len(values)
		}

		q, qargs, err := sqlx.In(query, append([]interface{}{values[start:end]}, args...)...)
		if err != nil {
			return fmt.Errorf("expand query: %w", err)
		}

		var chunk []T
		if err := db.SelectContext(ctx, &chunk, db.Rebind(q), qargs...); err != nil {
			return err
		}
		*dest = append(*dest, chunk...)
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
