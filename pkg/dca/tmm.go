package dca

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Trimming used by the trimmed mean of M-values.
const (
	tmmLogRatioTrim = 0.3
	tmmSumTrim      = 0.05
	tmmACutoff      = -1e10
)

// tmmFactors computes composition normalization factors for each sample (column) of counts.
// All-zero genes are ignored. The factors are scaled to a geometric mean of one.
func tmmFactors(counts [][]float64, libSize []float64) []float64 {
	n := len(libSize)
	factors := make([]float64, n)
	for j := range factors {
		factors[j] = 1
	}

	var x [][]float64
	for _, row := range counts {
		if floats.Max(row) > 0 {
			x = append(x, row)
		}
	}
	if len(x) == 0 || n == 1 {
		return factors
	}

	cols := make([][]float64, n)
	for j := range cols {
		cols[j] = make([]float64, len(x))
		for i, row := range x {
			cols[j][i] = row[j]
		}
	}

	f75 := make([]float64, n)
	for j := range cols {
		scaled := make([]float64, len(cols[j]))
		for i, v := range cols[j] {
			scaled[i] = v / libSize[j]
		}
		f75[j] = quantile7(scaled, 0.75)
	}

	ref := 0
	if median(f75) < 1e-20 {
		best := math.Inf(-1)
		for j := range cols {
			var s float64
			for _, v := range cols[j] {
				s += math.Sqrt(v)
			}
			if s > best {
				best, ref = s, j
			}
		}
	} else {
		mean := floats.Sum(f75) / float64(n)
		best := math.Inf(1)
		for j, f := range f75 {
			if d := math.Abs(f - mean); d < best {
				best, ref = d, j
			}
		}
	}

	var logSum float64
	for j := range cols {
		factors[j] = tmmFactor(cols[j], cols[ref], libSize[j], libSize[ref])
		logSum += math.Log(factors[j])
	}
	geo := math.Exp(logSum / float64(n))
	for j := range factors {
		factors[j] /= geo
	}
	return factors
}

// tmmFactor is the weighted trimmed mean of log ratios of obs against ref.
func tmmFactor(obs, ref []float64, libObs, libRef float64) float64 {
	var logR, absE, v []float64
	for i := range obs {
		o, r := obs[i], ref[i]
		lr := math.Log2((o / libObs) / (r / libRef))
		ae := (math.Log2(o/libObs) + math.Log2(r/libRef)) / 2
		if !isFinite(lr) || !isFinite(ae) || ae <= tmmACutoff {
			continue
		}
		logR = append(logR, lr)
		absE = append(absE, ae)
		v = append(v, (libObs-o)/libObs/o+(libRef-r)/libRef/r)
	}

	if len(logR) == 0 {
		return 1
	}
	maxAbs := 0.0
	for _, lr := range logR {
		maxAbs = math.Max(maxAbs, math.Abs(lr))
	}
	if maxAbs < 1e-6 {
		return 1
	}

	n := float64(len(logR))
	loL := math.Floor(n*tmmLogRatioTrim) + 1
	hiL := n + 1 - loL
	loS := math.Floor(n*tmmSumTrim) + 1
	hiS := n + 1 - loS

	rankR := averageRanks(logR)
	rankE := averageRanks(absE)
	var num, den float64
	for i := range logR {
		if rankR[i] >= loL && rankR[i] <= hiL && rankE[i] >= loS && rankE[i] <= hiS {
			num += logR[i] / v[i]
			den += 1 / v[i]
		}
	}
	f := num / den
	if math.IsNaN(f) {
		f = 0
	}
	return math.Exp2(f)
}

// averageRanks ranks values from 1, giving tied values the mean of their ranks.
func averageRanks(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && values[order[j+1]] == values[order[i]] {
			j++
		}
		r := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = r
		}
		i = j + 1
	}
	return ranks
}

// quantile7 is the linearly interpolated sample quantile (Hyndman and Fan type 7).
func quantile7(values []float64, p float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	h := float64(len(s)-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= len(s) {
		return s[lo]
	}
	return s[lo] + (h-float64(lo))*(s[lo+1]-s[lo])
}

func median(values []float64) float64 {
	return quantile7(values, 0.5)
}

func isFinite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}
