package model

import "encoding/json"

// Sample is a sequenced sample and the group (gene collection) it was ingested into.
type Sample struct {
	Name  string `json:"name" db:"name"`
	Group string `json:"group" db:"grp"`
}

// CoverageValue is the mean per-base coverage of the union transcript of one gene.
type CoverageValue struct {
	Gene         string  `db:"gene"`
	MeanCoverage float64 `db:"avg"`
}

// StatsOrder is the position of each statistic in the compact exon stats array.
var StatsOrder = []string{"pct75", "bases", "med", "gte30x", "gte15x", "pct25", "avg", "lt15x", "gc", "gte50x"}

type Stats struct {
	Pct75  float64 `json:"pct75" db:"pct75"`
	Bases  float64 `json:"bases" db:"bases"`
	Med    float64 `json:"med" db:"med"`
	Gte30x float64 `json:"gte30x" db:"gte30x"`
	Gte15x float64 `json:"gte15x" db:"gte15x"`
	Pct25  float64 `json:"pct25" db:"pct25"`
	Avg    float64 `json:"avg" db:"avg"`
	Lt15x  float64 `json:"lt15x" db:"lt15x"`
	GC     float64 `json:"gc" db:"gc"`
	Gte50x float64 `json:"gte50x" db:"gte50x"`
}

// Array returns the statistics in StatsOrder.
func (s Stats) Array() []float64 {
	return []float64{s.Pct75, s.Bases, s.Med, s.Gte30x, s.Gte15x, s.Pct25, s.Avg, s.Lt15x, s.GC, s.Gte50x}
}

// StatsFromArray is the inverse of Stats.Array. Missing trailing values stay zero.
func StatsFromArray(a []float64) Stats {
	var s Stats
	fields := []*float64{&s.Pct75, &s.Bases, &s.Med, &s.Gte30x, &s.Gte15x, &s.Pct25, &s.Avg, &s.Lt15x, &s.GC, &s.Gte50x}
	for i := 0; i < len(a) && i < len(fields); i++ {
		*fields[i] = a[i]
	}
	return s
}

// Value looks up a statistic by its StatsOrder name.
func (s Stats) Value(name string) (float64, bool) {
	for i, key := range StatsOrder {
		if key == name {
			return s.Array()[i], true
		}
	}
	return 0, false
}

// Exon coverage as stored: stats compacted to an array, gaps as [start, end] pairs.
type ExonCoverage struct {
	Start int       `json:"s"`
	End   int       `json:"e"`
	Stats []float64 `json:"stats"`
	Gaps  [][2]int  `json:"gaps"`
}

type TranscriptCoverage struct {
	ID    string         `json:"id"`
	Stats Stats          `json:"stats"`
	Exons []ExonCoverage `json:"exons"`
}

// GeneCoverage is the stored coverage document of one gene in one sample.
type GeneCoverage struct {
	Name            string               `json:"name"`
	Sample          string               `json:"sample,omitempty"`
	Group           string               `json:"gcol,omitempty"`
	UnionTranscript TranscriptCoverage   `json:"union_tr"`
	Transcripts     []TranscriptCoverage `json:"trs"`
}

// SampleInfo is the per-sample metadata kept next to the gene documents.
type SampleInfo struct {
	Name          string          `json:"name"`
	Group         string          `json:"gene_collection"`
	NumberOfGenes int             `json:"number_of_genes"`
	Parameters    json.RawMessage `json:"parameters"`
	CodingRegion  json.RawMessage `json:"coding_region"`
	WholeGenome   json.RawMessage `json:"whole_genome"`
}

// GeneAggregate holds the mean of union transcript statistics of one gene across all samples.
type GeneAggregate struct {
	Gene      string  `json:"gene" db:"gene"`
	AvgMed    float64 `json:"avg_med" db:"avg_med"`
	AvgGte15x float64 `json:"avg_gte15x" db:"avg_gte15x"`
	AvgGte30x float64 `json:"avg_gte30x" db:"avg_gte30x"`
	AvgGte50x float64 `json:"avg_gte50x" db:"avg_gte50x"`
	AvgAvg    float64 `json:"avg_avg" db:"avg_avg"`
	AvgPct25  float64 `json:"avg_pct25" db:"avg_pct25"`
	AvgPct75  float64 `json:"avg_pct75" db:"avg_pct75"`
}
