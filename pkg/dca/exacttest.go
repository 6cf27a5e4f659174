package dca

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	exactBigCount   = 900
	exactPriorCount = 0.125
	aveLogCPMPrior  = 2
	logCPMScale     = 1e6
)

// NBExactEngine is the negative binomial exact test on TMM normalized counts with a
// common dispersion.
type NBExactEngine struct{}

func (NBExactEngine) Name() string { return "edger" }

func (NBExactEngine) Test(m CountModel) ([]GeneStat, error) {
	j1, j2, err := m.columns()
	if err != nil {
		return nil, err
	}
	counts := m.rows()

	nonzero := false
	for _, row := range counts {
		for _, v := range row {
			if v > 0 {
				nonzero = true
			}
		}
	}
	if !nonzero {
		return nil, statErrorf("every coverage value is zero")
	}

	nSamples := len(m.GroupLabels)
	lib := make([]float64, nSamples)
	for j := range lib {
		lib[j] = m.FixedLibrarySize
	}
	factors := tmmFactors(counts, lib)
	for j := range lib {
		lib[j] *= factors[j]
	}

	disp, err := commonDispersion(counts, [][]int{j1, j2}, lib)
	if err != nil {
		return nil, err
	}

	stats := exactTest(counts, j1, j2, lib, disp)
	for i, s := range stats {
		if !isFinite(s.PValue) || !isFinite(s.LogFC) {
			return nil, statErrorf("non-finite statistic for gene %d", i)
		}
	}
	return stats, nil
}

// abundanceStats fits prior-augmented group means to give log fold changes and
// average log counts per million.
func abundanceStats(counts [][]float64, j1, j2 []int, lib []float64, disp float64) []GeneStat {
	n := len(lib)
	meanLib := floats.Sum(lib) / float64(n)

	prior := make([]float64, n)
	offsetAug := make([]float64, n)
	cpmPrior := make([]float64, n)
	cpmOffset := make([]float64, n)
	for j, l := range lib {
		prior[j] = exactPriorCount * l / meanLib
		offsetAug[j] = math.Log(l + 2*prior[j])
		cpmPrior[j] = aveLogCPMPrior * l / meanLib
		cpmOffset[j] = math.Log(l + 2*cpmPrior[j])
	}

	augmented := func(row, add []float64, idx []int) []float64 {
		out := make([]float64, len(idx))
		for k, j := range idx {
			out[k] = row[j] + add[j]
		}
		return out
	}
	all := make([]int, n)
	for j := range all {
		all[j] = j
	}

	out := make([]GeneStat, len(counts))
	for i, row := range counts {
		ab1 := oneGroupLogMean(augmented(row, prior, j1), pick(offsetAug, j1), disp)
		ab2 := oneGroupLogMean(augmented(row, prior, j2), pick(offsetAug, j2), disp)
		abCPM := oneGroupLogMean(augmented(row, cpmPrior, all), cpmOffset, disp)
		out[i] = GeneStat{
			LogFC:  (ab2 - ab1) / math.Ln2,
			LogCPM: (abCPM + math.Log(logCPMScale)) / math.Ln2,
		}
	}
	return out
}

// exactTest adds double tail exact p-values to abundanceStats. Counts are first
// equalized to the geometric mean library size.
func exactTest(counts [][]float64, j1, j2 []int, lib []float64, disp float64) []GeneStat {
	offset := make([]float64, len(lib))
	for j, l := range lib {
		offset[j] = math.Log(l)
	}
	libAverage := math.Exp(floats.Sum(offset) / float64(len(offset)))

	out := abundanceStats(counts, j1, j2, lib, disp)
	for i, row := range counts {
		e := math.Exp(oneGroupLogMean(row, offset, disp))
		y1 := make([]float64, len(j1))
		for k, j := range j1 {
			y1[k] = quantileToQuantile(row[j], e*lib[j], e*libAverage, disp)
		}
		y2 := make([]float64, len(j2))
		for k, j := range j2 {
			y2[k] = quantileToQuantile(row[j], e*lib[j], e*libAverage, disp)
		}
		out[i].PValue = doubleTailPValue(y1, y2, disp)
	}
	return out
}

// doubleTailPValue is the exact test for the difference between two groups of
// equalized negative binomial counts. Large counts use a beta approximation.
func doubleTailPValue(y1, y2 []float64, disp float64) float64 {
	n1, n2 := float64(len(y1)), float64(len(y2))
	raw1, raw2 := floats.Sum(y1), floats.Sum(y2)
	s1, s2 := math.RoundToEven(raw1), math.RoundToEven(raw2)
	s := s1 + s2
	mu := s / (n1 + n2)
	mu1, mu2 := n1*mu, n2*mu

	var p float64
	switch {
	case s1 > exactBigCount && s2 > exactBigCount:
		p = betaApproxPValue(raw1, raw2, n1, n2, disp)
	case s1 < mu1:
		p = tailSum(0, s1, s, n1, n2, mu1, mu2, disp)
	case s1 > mu1:
		p = tailSum(s1, s, s, n1, n2, mu1, mu2, disp)
	default:
		p = 1
	}
	return math.Min(p, 1)
}

// tailSum is twice the probability of group one totals in [from, to] conditional on the total s.
func tailSum(from, to, s, n1, n2, mu1, mu2, disp float64) float64 {
	size1, size2 := n1/disp, n2/disp
	bottom := logDNB(s, (n1+n2)/disp, s)
	var total float64
	for x := from; x <= to; x++ {
		total += math.Exp(logDNB(x, size1, mu1) + logDNB(s-x, size2, mu2) - bottom)
	}
	return 2 * total
}

func betaApproxPValue(y1, y2, n1, n2, disp float64) float64 {
	y := y1 + y2
	if y <= 0 {
		return 1
	}
	mu := y / (n1 + n2)
	alpha1 := n1 * mu / (1 + disp*mu)
	alpha2 := n2 / n1 * alpha1
	dist := distuv.Beta{Alpha: alpha1, Beta: alpha2}
	med := dist.Quantile(0.5)

	switch {
	case (y1+0.5)/y < med:
		return 2 * dist.CDF((y1+0.5)/y)
	case (y1-0.5)/y > med:
		return 2 * dist.Survival((y1-0.5)/y)
	default:
		return 1
	}
}
