package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"

	"github.com/yumyai/calypso/internal/util"
	"github.com/yumyai/calypso/logger"
	"go.uber.org/zap"
)

// Output file names.
const (
	CoveragesFile = "coverages.tsv"
	TotalsFile    = "totals.tsv"
	DesignFile    = "experimental_design.tsv"
	ResultsFile   = "dca_results.tsv"
)

var ErrExport = errors.New("export failed")

// ExportError reports the file that could not be written.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func (e *ExportError) Is(target error) bool { return target == ErrExport }

// Float is written in the shortest representation that round-trips.
type Float float64

func (f Float) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(f), 'g', -1, 64), nil
}

type ResultRow struct {
	Gene           string `csv:"gene"`
	LogFC          Float  `csv:"logFC"`
	PValue         Float  `csv:"PValue"`
	FDR            Float  `csv:"FDR"`
	Classification string `csv:"classification"`
}

type totalRow struct {
	Sample string `csv:"sample"`
	Total  Float  `csv:"total"`
}

type designRow struct {
	Sample string `csv:"sample"`
	Group  string `csv:"group"`
}

// Tables is the data of one analysis. Counts is genes × samples and may be nil when
// there are no genes or no samples. Results is nil when the analysis was not run.
type Tables struct {
	Genes   []string
	Samples []string
	Counts  mat.Matrix
	Totals  []float64
	Groups  []string
	Results []ResultRow
}

// Export writes the tables as tab separated files into dir, creating dir when needed
// and replacing files of a previous export. Files written before a failure are kept.
func Export(dir string, t Tables) error {
	if err := util.EnsureDir(dir); err != nil {
		return &ExportError{Path: dir, Err: pfx.Err(err)}
	}

	if err := writeCoverages(filepath.Join(dir, CoveragesFile), t); err != nil {
		return err
	}

	totals := make([]totalRow, len(t.Samples))
	design := make([]designRow, len(t.Samples))
	for j, s := range t.Samples {
		totals[j] = totalRow{Sample: s, Total: Float(t.Totals[j])}
		design[j] = designRow{Sample: s, Group: t.Groups[j]}
	}
	if err := writeRows(filepath.Join(dir, TotalsFile), &totals); err != nil {
		return err
	}
	if err := writeRows(filepath.Join(dir, DesignFile), &design); err != nil {
		return err
	}

	if t.Results != nil {
		if err := writeRows(filepath.Join(dir, ResultsFile), &t.Results); err != nil {
			return err
		}
	}

	logger.Info("Exported analysis tables", zap.String("dir", dir), zap.Bool("results", t.Results != nil))
	return nil
}

// WriteResults writes rows with a header as a tab separated table to w.
func WriteResults(w io.Writer, rows []ResultRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw))
}

func create(path string) (*os.File, *csv.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, &ExportError{Path: path, Err: pfx.Err(err)}
	}
	w := csv.NewWriter(f)
	w.Comma = '\t'
	return f, w, nil
}

func closeFile(f *os.File, path string, err error) error {
	if cerr := f.Close(); err == nil && cerr != nil {
		return &ExportError{Path: path, Err: pfx.Err(cerr)}
	}
	return err
}

func writeRows(path string, rows interface{}) (err error) {
	f, w, err := create(path)
	if err != nil {
		return err
	}
	defer func() { err = closeFile(f, path, err) }()

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(w)); err != nil {
		return &ExportError{Path: path, Err: pfx.Err(err)}
	}
	return nil
}

// writeCoverages writes one row per gene with one column per sample. The columns depend
// on the samples so the rows are written directly rather than through struct tags.
func writeCoverages(path string, t Tables) (err error) {
	f, w, err := create(path)
	if err != nil {
		return err
	}
	defer func() { err = closeFile(f, path, err) }()

	record := make([]string, len(t.Samples)+1)
	record[0] = "gene"
	copy(record[1:], t.Samples)
	if err := w.Write(record); err != nil {
		return &ExportError{Path: path, Err: pfx.Err(err)}
	}

	for i, g := range t.Genes {
		record[0] = g
		for j := range t.Samples {
			record[j+1] = strconv.FormatFloat(t.Counts.At(i, j), 'f', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return &ExportError{Path: path, Err: pfx.Err(err)}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return &ExportError{Path: path, Err: pfx.Err(err)}
	}
	return nil
}
