package model

import (
	"encoding/json"
	"fmt"
	"io"
)

// Gaps shorter than this many bases are dropped on ingestion.
const MinGapLength = 5

// CoverageReport is a coverage pipeline output reduced to what is stored.
type CoverageReport struct {
	Parameters   json.RawMessage
	CodingRegion json.RawMessage
	WholeGenome  json.RawMessage
	Genes        []GeneCoverage
}

type rawGap struct {
	S int `json:"s"`
	E int `json:"e"`
}

type rawExon struct {
	S     int      `json:"s"`
	E     int      `json:"e"`
	Stats Stats    `json:"stats"`
	Gaps  []rawGap `json:"gaps"`
}

type rawTranscript struct {
	ID    string    `json:"id"`
	Stats Stats     `json:"stats"`
	Exons []rawExon `json:"exons"`
}

type rawGene struct {
	Name    string          `json:"name"`
	UnionTr rawTranscript   `json:"union_tr"`
	Trs     []rawTranscript `json:"trs"`
}

type rawCoverageFile struct {
	Parameters json.RawMessage `json:"parameters"`
	Results    struct {
		CodingRegion json.RawMessage `json:"coding_region"`
		WholeGenome  json.RawMessage `json:"whole_genome"`
		Genes        []rawGene       `json:"genes"`
	} `json:"results"`
}

// ParseCoverageFile decodes a coverage pipeline JSON document and minimizes every gene.
func ParseCoverageFile(r io.Reader) (*CoverageReport, error) {
	var raw rawCoverageFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode coverage file: %w", err)
	}
	if len(raw.Parameters) == 0 {
		return nil, fmt.Errorf("decode coverage file: missing parameters")
	}

	report := &CoverageReport{
		Parameters:   raw.Parameters,
		CodingRegion: orEmptyObject(raw.Results.CodingRegion),
		WholeGenome:  orEmptyObject(raw.Results.WholeGenome),
		Genes:        make([]GeneCoverage, 0, len(raw.Results.Genes)),
	}
	for _, g := range raw.Results.Genes {
		if g.Name == "" {
			return nil, fmt.Errorf("decode coverage file: gene without name")
		}
		report.Genes = append(report.Genes, minimizeGene(g))
	}
	return report, nil
}

func minimizeGene(g rawGene) GeneCoverage {
	gene := GeneCoverage{
		Name:            g.Name,
		UnionTranscript: minimizeTranscript(g.UnionTr),
		Transcripts:     make([]TranscriptCoverage, 0, len(g.Trs)),
	}
	for _, tr := range g.Trs {
		gene.Transcripts = append(gene.Transcripts, minimizeTranscript(tr))
	}
	return gene
}

func minimizeTranscript(tr rawTranscript) TranscriptCoverage {
	out := TranscriptCoverage{
		ID:    tr.ID,
		Stats: tr.Stats,
		Exons: make([]ExonCoverage, 0, len(tr.Exons)),
	}
	for _, e := range tr.Exons {
		out.Exons = append(out.Exons, ExonCoverage{
			Start: e.S,
			End:   e.E,
			Stats: e.Stats.Array(),
			Gaps:  convertGaps(e.Gaps),
		})
	}
	return out
}

func convertGaps(gaps []rawGap) [][2]int {
	out := [][2]int{}
	for _, g := range gaps {
		if g.E-g.S > MinGapLength {
			out = append(out, [2]int{g.S, g.E})
		}
	}
	return out
}

func orEmptyObject(m json.RawMessage) json.RawMessage {
	if len(m) == 0 {
		return json.RawMessage("{}")
	}
	return m
}
