package db

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/calypso/pkg/model"
)

func openTestDB(t *testing.T) *CoverageDB {
	t.Helper()
	cdb, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "coverage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cdb.Close() })
	return cdb
}

func report(avgByGene map[string]float64) *model.CoverageReport {
	r := &model.CoverageReport{
		Parameters:   json.RawMessage(`{"min_mapq": 20}`),
		CodingRegion: json.RawMessage(`{}`),
		WholeGenome:  json.RawMessage(`{}`),
	}
	for gene, avg := range avgByGene {
		r.Genes = append(r.Genes, model.GeneCoverage{
			Name: gene,
			UnionTranscript: model.TranscriptCoverage{
				Stats: model.Stats{Avg: avg, Med: avg, Gte15x: 1},
			},
		})
	}
	return r
}

// seed creates groups A and B: A covers g1..g3, B covers g2..g4.
func seed(t *testing.T, cdb *CoverageDB) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, cdb.CreateGroup(ctx, "A"))
	require.NoError(t, cdb.CreateGroup(ctx, "B"))
	require.NoError(t, cdb.Ingest(ctx, "s2", "A", report(map[string]float64{"g1": 10.4, "g2": 20, "g3": 5})))
	require.NoError(t, cdb.Ingest(ctx, "s1", "A", report(map[string]float64{"g1": 11, "g2": 21})))
	require.NoError(t, cdb.Ingest(ctx, "s3", "B", report(map[string]float64{"g2": 30, "g3": 6, "g4": 7})))
}

func TestRepositoryQueries(t *testing.T) {
	cdb := openTestDB(t)
	seed(t, cdb)
	ctx := context.Background()

	t.Run("samples ordered by group position then name", func(t *testing.T) {
		samples, err := cdb.SamplesForGroups(ctx, []string{"B", "A"})
		require.NoError(t, err)
		assert.Equal(t, []model.Sample{{Name: "s3", Group: "B"}, {Name: "s1", Group: "A"}, {Name: "s2", Group: "A"}}, samples)
	})

	t.Run("genes are the intersection", func(t *testing.T) {
		genes, err := cdb.GenesForGroups(ctx, []string{"A", "B"})
		require.NoError(t, err)
		assert.Equal(t, []string{"g2", "g3"}, genes)
	})

	t.Run("coverage restricted to requested genes", func(t *testing.T) {
		values, err := cdb.CoverageForSample(ctx, "s2", []string{"g1", "g3", "g9"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []model.CoverageValue{{Gene: "g1", MeanCoverage: 10.4}, {Gene: "g3", MeanCoverage: 5}}, values)
	})

	t.Run("groups for samples", func(t *testing.T) {
		groups, err := cdb.GroupsForSamples(ctx, []string{"s1", "s3", "unknown"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"s1": "A", "s3": "B"}, groups)
	})

	t.Run("empty inputs", func(t *testing.T) {
		samples, err := cdb.SamplesForGroups(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, samples)

		values, err := cdb.CoverageForSample(ctx, "s1", nil)
		require.NoError(t, err)
		assert.Empty(t, values)
	})
}

func TestCoverageForSampleChunks(t *testing.T) {
	cdb := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, cdb.CreateGroup(ctx, "A"))

	genes := make(map[string]float64)
	var names []string
	for i := 0; i < inChunkSize*2+7; i++ {
		name := "gene" + string(rune('a'+i%26)) + string(rune('a'+i/26%26)) + string(rune('a'+i/676))
		genes[name] = float64(i)
		names = append(names, name)
	}
	require.NoError(t, cdb.Ingest(ctx, "s1", "A", report(genes)))

	values, err := cdb.CoverageForSample(ctx, "s1", names)
	require.NoError(t, err)
	assert.Len(t, values, len(names))
}

func TestIngestionLifecycle(t *testing.T) {
	cdb := openTestDB(t)
	ctx := context.Background()

	err := cdb.Ingest(ctx, "s1", "missing", report(nil))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, cdb.CreateGroup(ctx, "A"))
	assert.ErrorIs(t, cdb.CreateGroup(ctx, "A"), ErrExists)
	require.NoError(t, cdb.Ingest(ctx, "s1", "A", report(map[string]float64{"g1": 1})))
	assert.ErrorIs(t, cdb.Ingest(ctx, "s1", "A", report(nil)), ErrExists)

	require.NoError(t, cdb.CreateGroup(ctx, "B"))
	err = cdb.Ingest(ctx, "s1", "B", report(nil))
	assert.ErrorIs(t, err, ErrExists)
	assert.Contains(t, err.Error(), "already stored in group A")
	require.NoError(t, cdb.DeleteGroup(ctx, "B"))

	assert.ErrorIs(t, cdb.DeleteGroup(ctx, "A"), ErrInUse)
	require.NoError(t, cdb.RemoveSample(ctx, "s1"))
	assert.ErrorIs(t, cdb.RemoveSample(ctx, "s1"), ErrNotFound)

	values, err := cdb.CoverageForSample(ctx, "s1", []string{"g1"})
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, cdb.DeleteGroup(ctx, "A"))
	assert.ErrorIs(t, cdb.DeleteGroup(ctx, "A"), ErrNotFound)

	groups, err := cdb.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestBrowse(t *testing.T) {
	cdb := openTestDB(t)
	seed(t, cdb)
	ctx := context.Background()

	doc, err := cdb.GeneCoverage(ctx, "s2", "A", "g1")
	require.NoError(t, err)
	assert.Equal(t, "s2", doc.Sample)
	assert.Equal(t, "A", doc.Group)
	assert.Equal(t, 10.4, doc.UnionTranscript.Stats.Avg)

	_, err = cdb.GeneCoverage(ctx, "s2", "B", "g1")
	assert.ErrorIs(t, err, ErrNotFound)

	page, err := cdb.GeneCoveragePage(ctx, "s2", "A", nil, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "g1", page[0].Name)
	assert.Equal(t, "g2", page[1].Name)

	page, err = cdb.GeneCoveragePage(ctx, "s2", "A", []string{"g1", "g3"}, "g1", 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "g3", page[0].Name)

	info, err := cdb.SampleMetrics(ctx, "s3", "B")
	require.NoError(t, err)
	assert.Equal(t, 3, info.NumberOfGenes)
	assert.JSONEq(t, `{"min_mapq": 20}`, string(info.Parameters))

	infos, err := cdb.SampleMetricsPage(ctx, "A", nil, "s1", 10)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "s2", infos[0].Name)

	aggs, err := cdb.AggregateByGene(ctx, []string{"g2", "g1"})
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, "g1", aggs[0].Gene)
	assert.InDelta(t, 10.7, aggs[0].AvgAvg, 1e-9)
	assert.InDelta(t, (20.0+21+30)/3, aggs[1].AvgMed, 1e-9)

	docs, err := cdb.GeneDocuments(ctx, "A", []string{"g2"}, []string{"s1"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 21.0, docs[0].UnionTranscript.Stats.Avg)
}
