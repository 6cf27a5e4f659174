package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	covdb "github.com/yumyai/calypso/pkg/db"
	"github.com/yumyai/calypso/pkg/model"
	"github.com/yumyai/calypso/pkg/report"
)

func seedStore(t *testing.T) string {
	t.Helper()
	t.Setenv("CALYPSO_CONFIG", "")
	path := filepath.Join(t.TempDir(), "coverage.db")
	ctx := context.Background()
	db, err := covdb.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	rows := map[string][4]float64{"g1": {10, 12, 40, 42}, "g2": {5, 6, 5, 4}}
	for i := 0; i < 8; i++ {
		v := float64(i)
		rows[fmt.Sprintf("bg%d", i)] = [4]float64{20 + v, 21 + v, 20 + v, 19 + v}
	}
	require.NoError(t, db.CreateGroup(ctx, "A"))
	require.NoError(t, db.CreateGroup(ctx, "B"))
	for j, s := range []struct{ name, group string }{{"s1", "A"}, {"s2", "A"}, {"s3", "B"}, {"s4", "B"}} {
		r := &model.CoverageReport{
			Parameters:   json.RawMessage(`{}`),
			CodingRegion: json.RawMessage(`{}`),
			WholeGenome:  json.RawMessage(`{}`),
		}
		for gene, row := range rows {
			r.Genes = append(r.Genes, model.GeneCoverage{
				Name:            gene,
				UnionTranscript: model.TranscriptCoverage{Stats: model.Stats{Avg: row[j]}},
			})
		}
		require.NoError(t, db.Ingest(ctx, s.name, s.group, r))
	}
	return path
}

func TestRun(t *testing.T) {
	dbPath := seedStore(t)
	out := t.TempDir()
	plot := filepath.Join(out, "volcano.png")

	var stdout strings.Builder
	err := run(context.Background(), []string{
		"-db", dbPath, "-groups", "A,B", "-fc", "1", "-top", "2", "-workers", "2",
		"-export", out, "-plot", plot,
	}, &stdout)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "gene\tlogFC\tPValue\tFDR\tclassification", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "g1\t"))
	assert.True(t, strings.HasSuffix(lines[1], "\tover-covered"))

	for _, f := range []string{report.CoveragesFile, report.TotalsFile, report.DesignFile, report.ResultsFile, "volcano.png"} {
		_, err := os.Stat(filepath.Join(out, f))
		assert.NoError(t, err, f)
	}
}

func TestRunReference(t *testing.T) {
	dbPath := seedStore(t)

	var stdout strings.Builder
	err := run(context.Background(), []string{"-db", dbPath, "-groups", "A,B", "-reference", "B", "-fc", "1", "-top", "1"}, &stdout)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "g1\t-"))
	assert.True(t, strings.HasSuffix(lines[1], "\tunder-covered"))
}

func TestRunErrors(t *testing.T) {
	dbPath := seedStore(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing groups", []string{"-db", dbPath}},
		{"one group", []string{"-db", dbPath, "-groups", "A"}},
		{"bad engine", []string{"-db", dbPath, "-groups", "A,B", "-engine", "voom"}},
		{"bad threshold", []string{"-db", dbPath, "-groups", "A,B", "-pvalue", "0"}},
		{"unknown reference", []string{"-db", dbPath, "-groups", "A,B", "-reference", "C"}},
		{"unknown flag", []string{"-nope"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout strings.Builder
			assert.Error(t, run(context.Background(), tc.args, &stdout))
			assert.Empty(t, stdout.String())
		})
	}
}
