package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	covdb "github.com/yumyai/calypso/pkg/db"
)

const coverageDoc = `{"parameters": {}, "results": {"coding_region": {}, "whole_genome": {},
  "genes": [{"name": "g1", "union_tr": {"id": "union", "stats": {"avg": %d}, "exons": []}, "trs": []}]}}`

func writeManifest(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.tsv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func writeCoverage(t *testing.T, dir, name string, avg int) string {
	t.Helper()
	path := filepath.Join(dir, name+".json")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(coverageDoc, avg)), 0o644))
	return path
}

func TestReadManifest(t *testing.T) {
	entries, err := ReadManifest(strings.NewReader("# sample\tpath\tgroup\ns1\t/data/s1.json\tA\ns2\t/data/s2.json\tB\n"))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"s1", "/data/s1.json", "A"}, {"s2", "/data/s2.json", "B"}}, entries)

	_, err = ReadManifest(strings.NewReader("s1\t/data/s1.json\n"))
	assert.Error(t, err)
	_, err = ReadManifest(strings.NewReader("s1\t\tA\n"))
	assert.Error(t, err)
}

func TestLoadAndDrop(t *testing.T) {
	t.Setenv("CALYPSO_CONFIG", "")
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "coverage.db")
	manifest := writeManifest(t, dir,
		"s1\t"+writeCoverage(t, dir, "s1", 10)+"\tA",
		"s2\t"+writeCoverage(t, dir, "s2", 20)+"\tB",
	)
	ctx := context.Background()

	var out strings.Builder
	err := run(ctx, []string{"-db", dbPath, "-input", manifest}, strings.NewReader(""), &out)
	assert.ErrorIs(t, err, covdb.ErrNotFound, "groups are not created without -create-groups")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-db", dbPath, "-input", manifest, "-create-groups"}, strings.NewReader(""), &out))
	assert.Equal(t, "ingested s1 into A\ningested s2 into B\n", out.String())

	db, err := covdb.Open(ctx, dbPath)
	require.NoError(t, err)
	samples, err := db.ListSamples(ctx, "")
	require.NoError(t, err)
	assert.Len(t, samples, 2)
	db.Close()

	out.Reset()
	require.NoError(t, run(ctx, []string{"-db", dbPath, "-drop"}, strings.NewReader("maybe\nn\n"), &out))
	assert.Contains(t, out.String(), "Please respond with 'y' or 'n'.")
	assert.NotContains(t, out.String(), "deleted")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-db", dbPath, "-drop", "-force"}, strings.NewReader(""), &out))
	assert.Equal(t, "deleted s1 from A\ndeleted s2 from B\n", out.String())

	db, err = covdb.Open(ctx, dbPath)
	require.NoError(t, err)
	defer db.Close()
	samples, err = db.ListSamples(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestLoadReusedSampleName(t *testing.T) {
	t.Setenv("CALYPSO_CONFIG", "")
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "coverage.db")
	path := writeCoverage(t, dir, "s1", 10)
	manifest := writeManifest(t, dir, "s1\t"+path+"\tA", "s1\t"+path+"\tB")

	var out strings.Builder
	err := run(context.Background(), []string{"-db", dbPath, "-input", manifest, "-create-groups"}, strings.NewReader(""), &out)
	assert.ErrorIs(t, err, covdb.ErrExists)
	assert.Contains(t, err.Error(), "sample s1 is already stored in group A")
	assert.Equal(t, "ingested s1 into A\n", out.String())
}

func TestRunRequiresInputOrDrop(t *testing.T) {
	t.Setenv("CALYPSO_CONFIG", "")
	var out strings.Builder
	assert.Error(t, run(context.Background(), []string{"-db", filepath.Join(t.TempDir(), "c.db")}, strings.NewReader(""), &out))
}
