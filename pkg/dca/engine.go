package dca

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// CountModel is everything an engine needs to test two groups of samples.
type CountModel struct {
	// Counts is genes × samples.
	Counts mat.Matrix
	// GroupLabels holds one label per sample column.
	GroupLabels []string
	// Levels are the two compared labels; Levels[0] is the reference.
	Levels [2]string
	// FixedLibrarySize is used as the library size of every sample.
	FixedLibrarySize float64
}

// GeneStat is the raw per-gene outcome of an engine, in input gene order.
type GeneStat struct {
	LogFC  float64
	LogCPM float64
	PValue float64
}

// StatisticalEngine produces per-gene fold changes and p-values for a CountModel.
type StatisticalEngine interface {
	Name() string
	Test(model CountModel) ([]GeneStat, error)
}

// EngineByName resolves the configured engine name.
func EngineByName(name string) (StatisticalEngine, error) {
	switch strings.ToLower(name) {
	case "", "edger", "nbexact":
		return NBExactEngine{}, nil
	case "fisher":
		return FisherEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q: %w", name, ErrInvalidInput)
	}
}

// columns splits sample indices by level and validates the model shape.
func (m CountModel) columns() (ref, other []int, err error) {
	if m.Counts == nil {
		return nil, nil, statErrorf("empty coverage matrix")
	}
	rows, cols := m.Counts.Dims()
	if rows == 0 || cols == 0 {
		return nil, nil, statErrorf("empty coverage matrix")
	}
	if len(m.GroupLabels) != cols {
		return nil, nil, statErrorf("%d group labels for %d samples", len(m.GroupLabels), cols)
	}
	if !(m.FixedLibrarySize > 0) {
		return nil, nil, statErrorf("library size must be positive, got %v", m.FixedLibrarySize)
	}
	for j, label := range m.GroupLabels {
		switch label {
		case m.Levels[0]:
			ref = append(ref, j)
		case m.Levels[1]:
			other = append(other, j)
		default:
			return nil, nil, statErrorf("sample %d has unexpected group %q", j, label)
		}
	}
	if len(ref) == 0 || len(other) == 0 {
		return nil, nil, statErrorf("no samples for group %q or %q", m.Levels[0], m.Levels[1])
	}
	return ref, other, nil
}

// rows copies the counts into one slice per gene.
func (m CountModel) rows() [][]float64 {
	r, c := m.Counts.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.Counts.At(i, j)
		}
	}
	return out
}

func pick(row []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, j := range idx {
		out[k] = row[j]
	}
	return out
}
