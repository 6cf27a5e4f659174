package main

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// Entry is one manifest line: sample name, coverage JSON path and gene collection.
type Entry struct {
	Sample string `csv:"sample"`
	Path   string `csv:"path"`
	Group  string `csv:"group"`
}

// ReadManifest parses a headerless tab separated manifest.
func ReadManifest(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = 3

	var entries []Entry
	if err := gocsv.UnmarshalCSVWithoutHeaders(cr, &entries); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	for i, e := range entries {
		if e.Sample == "" || e.Path == "" || e.Group == "" {
			return nil, fmt.Errorf("manifest line %d: empty column", i+1)
		}
	}
	return entries, nil
}
