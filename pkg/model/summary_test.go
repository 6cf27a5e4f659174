package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(gene string, avg float64) GeneCoverage {
	return GeneCoverage{Name: gene, UnionTranscript: TranscriptCoverage{Stats: Stats{Avg: avg}}}
}

func TestSummarize(t *testing.T) {
	summaries, err := Summarize([]GeneCoverage{
		doc("TP53", 10), doc("BRCA1", 2), doc("TP53", 20), doc("TP53", 30),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "BRCA1", summaries[0].Gene)
	single := summaries[0].Stats["avg"]
	assert.Equal(t, Describe{Count: 1, Mean: 2, Std: 0, Min: 2, Max: 2}, single)

	tp53 := summaries[1].Stats["avg"]
	assert.Equal(t, 3, tp53.Count)
	assert.InDelta(t, 20, tp53.Mean, 1e-12)
	assert.InDelta(t, 10, tp53.Std, 1e-12)
	assert.Equal(t, 10.0, tp53.Min)
	assert.Equal(t, 30.0, tp53.Max)
	assert.Len(t, summaries[1].Stats, len(StatsOrder))
}

func TestSummarizeEmpty(t *testing.T) {
	summaries, err := Summarize(nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
