package model

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// Describe is the count/mean/std/min/max description of one statistic.
// Std is the sample standard deviation and is reported as 0 below two observations.
type Describe struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// GeneSummary describes each union transcript statistic of a gene across samples.
type GeneSummary struct {
	Gene  string              `json:"gene"`
	Stats map[string]Describe `json:"stats"`
}

// Summarize groups gene documents by gene name and describes every statistic.
// Output is sorted by gene name.
func Summarize(docs []GeneCoverage) ([]GeneSummary, error) {
	byGene := make(map[string][]Stats)
	for _, d := range docs {
		byGene[d.Name] = append(byGene[d.Name], d.UnionTranscript.Stats)
	}

	genes := make([]string, 0, len(byGene))
	for g := range byGene {
		genes = append(genes, g)
	}
	sort.Strings(genes)

	out := make([]GeneSummary, 0, len(genes))
	for _, g := range genes {
		summary := GeneSummary{Gene: g, Stats: make(map[string]Describe, len(StatsOrder))}
		for i, key := range StatsOrder {
			values := make(stats.Float64Data, 0, len(byGene[g]))
			for _, s := range byGene[g] {
				values = append(values, s.Array()[i])
			}
			d, err := describe(values)
			if err != nil {
				return nil, err
			}
			summary.Stats[key] = d
		}
		out = append(out, summary)
	}
	return out, nil
}

func describe(values stats.Float64Data) (Describe, error) {
	d := Describe{Count: values.Len()}
	if d.Count == 0 {
		return d, nil
	}

	var err error
	if d.Mean, err = values.Mean(); err != nil {
		return d, err
	}
	if d.Min, err = values.Min(); err != nil {
		return d, err
	}
	if d.Max, err = values.Max(); err != nil {
		return d, err
	}
	if d.Count > 1 {
		if d.Std, err = values.StandardDeviationSample(); err != nil {
			return d, err
		}
		if math.IsNaN(d.Std) {
			d.Std = 0
		}
	}
	return d, nil
}
