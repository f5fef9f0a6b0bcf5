package finance

import (
	"math"
	"sort"
)

// cleanCloses drops points whose close is missing, non-finite or non-positive,
// keeping timestamp and value arrays aligned, and sorts them by timestamp.
func cleanCloses(ts []int64, cl []*float64) ([]int64, []float64) {
	if len(ts) != len(cl) {
		n := len(ts)
		if len(cl) < n {
			n = len(cl)
		}
		ts = ts[:n]
		cl = cl[:n]
	}
	type point struct {
		ts int64
		v  float64
	}
	points := make([]point, 0, len(ts))
	for i := 0; i < len(ts); i++ {
		if cl[i] == nil {
			continue
		}
		v := *cl[i]
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		points = append(points, point{ts: ts[i], v: v})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].ts < points[j].ts })

	outTs := make([]int64, len(points))
	outCl := make([]float64, len(points))
	for i, p := range points {
		outTs[i] = p.ts
		outCl[i] = p.v
	}
	return outTs, outCl
}
