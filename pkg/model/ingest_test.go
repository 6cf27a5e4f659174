package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coverageJSON = `{
  "parameters": {"min_mapq": 20},
  "results": {
    "coding_region": {"stats": {"avg": 31.2}},
    "whole_genome": {"stats": {"avg": 29.0}},
    "genes": [
      {
        "name": "BRCA2",
        "union_tr": {
          "id": "union",
          "stats": {"avg": 42.4, "med": 40, "pct25": 30, "pct75": 50, "gte15x": 0.99, "gte30x": 0.8, "gte50x": 0.2, "lt15x": 0.01, "bases": 10254, "gc": 0.38},
          "exons": [
            {"s": 100, "e": 300, "l": 200, "stats": {"avg": 41.0, "bases": 200}, "gaps": [{"s": 120, "e": 123}, {"s": 150, "e": 160}]}
          ]
        },
        "trs": [
          {"id": "NM_000059", "stats": {"avg": 42.0}, "exons": []}
        ]
      }
    ]
  }
}`

func TestParseCoverageFile(t *testing.T) {
	report, err := ParseCoverageFile(strings.NewReader(coverageJSON))
	require.NoError(t, err)
	require.Len(t, report.Genes, 1)

	gene := report.Genes[0]
	assert.Equal(t, "BRCA2", gene.Name)
	assert.InDelta(t, 42.4, gene.UnionTranscript.Stats.Avg, 1e-12)
	assert.Len(t, gene.Transcripts, 1)
	assert.JSONEq(t, `{"stats": {"avg": 31.2}}`, string(report.CodingRegion))

	exon := gene.UnionTranscript.Exons[0]
	assert.Equal(t, [][2]int{{150, 160}}, exon.Gaps, "gaps of 5 bases or less are dropped")
	require.Len(t, exon.Stats, len(StatsOrder))
	assert.Equal(t, 41.0, StatsFromArray(exon.Stats).Avg)
	assert.Equal(t, 200.0, StatsFromArray(exon.Stats).Bases)
}

func TestParseCoverageFileErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "coverage"},
		{"missing parameters", `{"results": {"genes": []}}`},
		{"gene without name", `{"parameters": {}, "results": {"genes": [{"union_tr": {}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCoverageFile(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseCoverageFileDefaultsRegions(t *testing.T) {
	report, err := ParseCoverageFile(strings.NewReader(`{"parameters": {}, "results": {}}`))
	require.NoError(t, err)
	assert.Empty(t, report.Genes)
	assert.Equal(t, "{}", string(report.WholeGenome))
}

func TestStatsValue(t *testing.T) {
	s := Stats{Avg: 3, GC: 0.4}
	v, ok := s.Value("gc")
	assert.True(t, ok)
	assert.Equal(t, 0.4, v)

	_, ok = s.Value("sd")
	assert.False(t, ok)
}
