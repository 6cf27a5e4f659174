package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sampleTables() Tables {
	return Tables{
		Genes:   []string{"g1", "g2"},
		Samples: []string{"s1", "s2", "s3"},
		Counts:  mat.NewDense(2, 3, []float64{10, 11, 20, 5, 0, 6}),
		Totals:  []float64{15, 11, 26},
		Groups:  []string{"A", "A", "B"},
		Results: []ResultRow{
			{Gene: "g1", LogFC: 1.5, PValue: 0.001, FDR: 0.002, Classification: "over-covered"},
			{Gene: "g2", LogFC: -0.25, PValue: 0.5, FDR: 0.5, Classification: "not-significant"},
		},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Export(dir, sampleTables()))

	assert.Equal(t, []string{
		"gene\ts1\ts2\ts3",
		"g1\t10\t11\t20",
		"g2\t5\t0\t6",
	}, readLines(t, filepath.Join(dir, CoveragesFile)))

	assert.Equal(t, []string{
		"sample\ttotal",
		"s1\t15",
		"s2\t11",
		"s3\t26",
	}, readLines(t, filepath.Join(dir, TotalsFile)))

	assert.Equal(t, []string{
		"sample\tgroup",
		"s1\tA",
		"s2\tA",
		"s3\tB",
	}, readLines(t, filepath.Join(dir, DesignFile)))

	assert.Equal(t, []string{
		"gene\tlogFC\tPValue\tFDR\tclassification",
		"g1\t1.5\t0.001\t0.002\tover-covered",
		"g2\t-0.25\t0.5\t0.5\tnot-significant",
	}, readLines(t, filepath.Join(dir, ResultsFile)))
}

func TestExportWithoutResults(t *testing.T) {
	dir := t.TempDir()
	tables := sampleTables()
	tables.Results = nil
	require.NoError(t, Export(dir, tables))

	_, err := os.Stat(filepath.Join(dir, ResultsFile))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, TotalsFile))
	assert.NoError(t, err)
}

func TestExportEmptyResultsWritesHeader(t *testing.T) {
	dir := t.TempDir()
	tables := sampleTables()
	tables.Results = []ResultRow{}
	require.NoError(t, Export(dir, tables))

	assert.Equal(t, []string{"gene\tlogFC\tPValue\tFDR\tclassification"},
		readLines(t, filepath.Join(dir, ResultsFile)))
}

func TestExportOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Export(dir, sampleTables()))

	tables := sampleTables()
	tables.Results = tables.Results[:1]
	require.NoError(t, Export(dir, tables))

	lines := readLines(t, filepath.Join(dir, ResultsFile))
	assert.Len(t, lines, 2)
	assert.Len(t, readLines(t, filepath.Join(dir, TotalsFile)), 4)
}

func TestExportUnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Export(filepath.Join(blocker, "out"), sampleTables())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExport)

	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, filepath.Join(blocker, "out"), exportErr.Path)
}

func TestFloatMarshal(t *testing.T) {
	tests := []struct {
		in   Float
		want string
	}{
		{1, "1"},
		{0.05, "0.05"},
		{1e-20, "1e-20"},
		{-2.5, "-2.5"},
	}
	for _, tc := range tests {
		got, err := tc.in.MarshalCSV()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestWriteResults(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteResults(&sb, sampleTables().Results[:1]))
	assert.Equal(t, "gene\tlogFC\tPValue\tFDR\tclassification\ng1\t1.5\t0.001\t0.002\tover-covered\n", sb.String())
}
