package dca

import (
	"math"
	"sort"
)

// adjustBH returns Benjamini-Hochberg adjusted p-values in input order.
func adjustBH(p []float64) []float64 {
	n := len(p)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return p[order[a]] > p[order[b]] })

	adjusted := make([]float64, n)
	running := math.Inf(1)
	for k, i := range order {
		rank := float64(n - k)
		running = math.Min(running, p[i]*float64(n)/rank)
		adjusted[i] = math.Min(running, 1)
	}
	return adjusted
}
