package dca

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

const (
	oneGroupMaxIter   = 50
	oneGroupTolerance = 1e-10
	lowCount          = 1e-10
)

// oneGroupLogMean fits log(mean) of a negative binomial GLM with a single group by
// Newton-Raphson, given log library-size offsets. All-zero counts give -Inf.
func oneGroupLogMean(y, offset []float64, disp float64) float64 {
	var beta float64
	nonzero := false
	for j, v := range y {
		if v > lowCount {
			beta += v / math.Exp(offset[j])
			nonzero = true
		}
	}
	if !nonzero {
		return math.Inf(-1)
	}
	beta = math.Log(beta / float64(len(y)))

	for iter := 0; iter < oneGroupMaxIter; iter++ {
		var dl, info float64
		for j, v := range y {
			mu := math.Exp(beta + offset[j])
			denom := 1 + mu*disp
			dl += (v - mu) / denom
			info += mu / denom
		}
		step := dl / info
		beta += step
		if math.Abs(step) < oneGroupTolerance {
			break
		}
	}
	return beta
}

// quantileToQuantile maps a count x observed under NB(inMean, disp) to the equivalent
// quantile of NB(outMean, disp), averaging a normal and a gamma approximation.
func quantileToQuantile(x, inMean, outMean, disp float64) float64 {
	if inMean < 1e-14 || outMean < 1e-14 {
		inMean += 0.25
		outMean += 0.25
	}
	ri := 1 + disp*inMean
	vi := inMean * ri
	ro := 1 + disp*outMean
	vo := outMean * ro

	qNorm := outMean + math.Sqrt(vo)*(x-inMean)/math.Sqrt(vi)

	// Extreme tails underflow to p == 0; those are mapped through the Wilson-Hilferty
	// cube-root approximation, which works on the normal scale and cannot underflow.
	var qGamma float64
	if x >= inMean {
		p := mathext.GammaIncRegComp(inMean/ri, x/ri)
		if p > 0 {
			qGamma = ro * mathext.GammaIncRegCompInv(outMean/ro, clampUnit(p))
		} else {
			qGamma = ro * wilsonHilferty(x/ri, inMean/ri, outMean/ro)
		}
	} else {
		p := mathext.GammaIncReg(inMean/ri, x/ri)
		switch {
		case p > 0:
			qGamma = ro * mathext.GammaIncRegInv(outMean/ro, clampUnit(p))
		case x > 0:
			qGamma = ro * wilsonHilferty(x/ri, inMean/ri, outMean/ro)
		}
	}
	if !isFinite(qGamma) {
		qGamma = qNorm
	}
	return (qNorm + qGamma) / 2
}

// wilsonHilferty maps x from a unit-scale gamma with shape inShape to the gamma with
// shape outShape that has the same normal score under the cube-root transform.
func wilsonHilferty(x, inShape, outShape float64) float64 {
	cin := 1 / (9 * inShape)
	z := (math.Cbrt(x/inShape) - (1 - cin)) / math.Sqrt(cin)
	cout := 1 / (9 * outShape)
	base := 1 - cout + z*math.Sqrt(cout)
	if base <= 0 {
		return 0
	}
	return outShape * base * base * base
}

// logDNB is the log density of a negative binomial with the given size and mean.
func logDNB(x, size, mu float64) float64 {
	if mu == 0 {
		if x == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	lx, _ := math.Lgamma(x + size)
	ls, _ := math.Lgamma(size)
	lf, _ := math.Lgamma(x + 1)
	return lx - ls - lf + size*math.Log(size/(size+mu)) + x*math.Log(mu/(size+mu))
}

func clampUnit(p float64) float64 {
	return math.Min(1, math.Max(0, p))
}
