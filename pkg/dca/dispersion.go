package dca

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	dispersionRowSumFilter = 5
	dispersionStart        = 0.01
	dispersionPasses       = 2
	dispersionTolerance    = 1e-6
	deltaLower             = 1e-4
	deltaUpper             = 100.0 / 101.0
)

// commonDispersion estimates a single negative binomial dispersion for all genes by
// maximizing the conditional log likelihood of pseudo-counts equalized to a common
// library size. groups holds the column indices of each group.
func commonDispersion(counts [][]float64, groups [][]int, libSize []float64) (float64, error) {
	replicated := false
	for _, g := range groups {
		if len(g) > 1 {
			replicated = true
		}
	}
	if !replicated {
		return 0, statErrorf("no replication: every group has at most one sample")
	}

	var used []int
	for i, row := range counts {
		if floats.Sum(row) > dispersionRowSumFilter {
			used = append(used, i)
		}
	}
	if len(used) == 0 {
		return 0, statErrorf("no gene has a total count above %d", dispersionRowSumFilter)
	}

	disp := dispersionStart
	for pass := 0; pass < dispersionPasses; pass++ {
		pseudo := equalizeLibSizes(counts, groups, libSize, disp)

		split := make([][][]float64, len(groups))
		for k, g := range groups {
			for _, i := range used {
				split[k] = append(split[k], pick(pseudo[i], g))
			}
		}

		delta := brentMinimize(func(d float64) float64 {
			return -condLogLik(split, d)
		}, deltaLower, deltaUpper, dispersionTolerance)
		disp = delta / (1 - delta)
	}

	if !isFinite(disp) {
		return 0, statErrorf("dispersion estimate is not finite")
	}
	return disp, nil
}

// equalizeLibSizes rescales counts to pseudo-counts at the geometric mean library size.
func equalizeLibSizes(counts [][]float64, groups [][]int, libSize []float64, disp float64) [][]float64 {
	var logSum float64
	for _, l := range libSize {
		logSum += math.Log(l)
	}
	common := math.Exp(logSum / float64(len(libSize)))

	pseudo := make([][]float64, len(counts))
	for i := range pseudo {
		pseudo[i] = make([]float64, len(libSize))
	}

	for _, g := range groups {
		offset := make([]float64, len(g))
		for k, j := range g {
			offset[k] = math.Log(libSize[j])
		}
		for i, row := range counts {
			lambda := math.Exp(oneGroupLogMean(pick(row, g), offset, disp))
			for _, j := range g {
				q := quantileToQuantile(row[j], lambda*libSize[j], lambda*common, disp)
				pseudo[i][j] = math.Max(q, 0)
			}
		}
	}
	return pseudo
}

// condLogLik is the conditional log likelihood of delta = disp/(1+disp), summed over groups and genes.
func condLogLik(split [][][]float64, delta float64) float64 {
	r := 1/delta - 1
	lgR, _ := math.Lgamma(r)

	var ll float64
	for _, group := range split {
		for _, row := range group {
			n := float64(len(row))
			var t float64
			for _, y := range row {
				lg, _ := math.Lgamma(y + r)
				ll += lg
				t += y
			}
			lnr, _ := math.Lgamma(n * r)
			ltnr, _ := math.Lgamma(t + n*r)
			ll += lnr - ltnr - n*lgR
		}
	}
	return ll
}

// brentMinimize finds a local minimum of f on [a, b] by golden section search with
// parabolic interpolation.
func brentMinimize(f func(float64) float64, a, b, tol float64) float64 {
	c := (3 - math.Sqrt(5)) * 0.5
	eps := math.Sqrt(2.220446049250313e-16)

	v := a + c*(b-a)
	w, x := v, v
	var d, e float64
	fx := f(x)
	fv, fw := fx, fx
	tol3 := tol / 3

	for {
		xm := (a + b) * 0.5
		tol1 := eps*math.Abs(x) + tol3
		t2 := tol1 * 2
		if math.Abs(x-xm) <= t2-(b-a)*0.5 {
			break
		}

		var p, q, r float64
		if math.Abs(e) > tol1 {
			r = (x - w) * (fx - fv)
			q = (x - v) * (fx - fw)
			p = (x-v)*q - (x-w)*r
			q = (q - r) * 2
			if q > 0 {
				p = -p
			} else {
				q = -q
			}
			r = e
			e = d
		}

		if math.Abs(p) >= math.Abs(q*0.5*r) || p <= q*(a-x) || p >= q*(b-x) {
			// golden section
			if x < xm {
				e = b - x
			} else {
				e = a - x
			}
			d = c * e
		} else {
			// parabolic
			d = p / q
			u := x + d
			if u-a < t2 || b-u < t2 {
				d = tol1
				if x >= xm {
					d = -d
				}
			}
		}

		var u float64
		switch {
		case math.Abs(d) >= tol1:
			u = x + d
		case d > 0:
			u = x + tol1
		default:
			u = x - tol1
		}

		fu := f(u)
		if fu <= fx {
			if u < x {
				b = x
			} else {
				a = x
			}
			v, w, x = w, x, u
			fv, fw, fx = fw, fx, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu <= fw || w == x {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}
	}
	return x
}
