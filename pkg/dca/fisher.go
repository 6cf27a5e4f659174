package dca

import (
	"math"

	fet "github.com/glycerine/golang-fisher-exact"
	"gonum.org/v1/gonum/floats"
)

// FisherEngine tests each gene with Fisher's exact test on the 2x2 table of its coverage
// in each group against the rest of that group's coverage. It needs no replicates.
type FisherEngine struct{}

func (FisherEngine) Name() string { return "fisher" }

func (FisherEngine) Test(m CountModel) ([]GeneStat, error) {
	j1, j2, err := m.columns()
	if err != nil {
		return nil, err
	}
	counts := m.rows()

	var total1, total2 float64
	for _, row := range counts {
		for _, j := range j1 {
			total1 += row[j]
		}
		for _, j := range j2 {
			total2 += row[j]
		}
	}
	if total1+total2 == 0 {
		return nil, statErrorf("every coverage value is zero")
	}

	lib := make([]float64, len(m.GroupLabels))
	for j := range lib {
		lib[j] = m.FixedLibrarySize
	}
	factors := tmmFactors(counts, lib)
	for j := range lib {
		lib[j] *= factors[j]
	}

	stats := abundanceStats(counts, j1, j2, lib, 0)
	for i, row := range counts {
		y1 := floats.Sum(pick(row, j1))
		y2 := floats.Sum(pick(row, j2))
		_, _, _, twoTail := fet.FisherExactTest(int(y1), int(total1-y1), int(y2), int(total2-y2))
		if math.IsNaN(twoTail) {
			return nil, statErrorf("fisher test failed for gene %d", i)
		}
		stats[i].PValue = math.Min(twoTail, 1)
	}
	return stats, nil
}
