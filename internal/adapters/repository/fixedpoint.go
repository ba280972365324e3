package repository

import "math"

// Scores are stored fixed-point so equal scores compare exactly and the
// treap ordering is total. Six decimal places cover both integer-typed
// boards (net worth, skill xp) and decimal-typed ones (farming weight).
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := math.Round(x * scoreScale)
	if scaled >= float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(scaled)
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}
