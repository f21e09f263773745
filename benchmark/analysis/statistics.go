// Package analysis summarizes and compares evaluation latency samples.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Latency is a summary of a latency sample in seconds.
type Latency struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Median float64
	P90    float64
	P99    float64
	Max    float64
}

// Describe summarizes a sample.
func Describe(sample []float64) Latency {
	if len(sample) == 0 {
		return Latency{}
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return Latency{
		N:      len(sorted),
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// RankSum is the result of a two-sided Mann-Whitney U test.
type RankSum struct {
	U           float64
	Z           float64
	PValue      float64
	Significant bool // p < 0.05
}

// MannWhitneyU tests whether two samples come from different distributions,
// using the normal approximation with tied ranks averaged.
func MannWhitneyU(a, b []float64) RankSum {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 == 0 || n2 == 0 {
		return RankSum{PValue: 1}
	}

	type obs struct {
		v     float64
		first bool
	}
	all := make([]obs, 0, len(a)+len(b))
	for _, v := range a {
		all = append(all, obs{v, true})
	}
	for _, v := range b {
		all = append(all, obs{v, false})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].v < all[j].v })

	var r1 float64
	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].v == all[i].v {
			j++
		}
		rank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if all[k].first {
				r1 += rank
			}
		}
		i = j
	}

	u1 := r1 - n1*(n1+1)/2
	u := math.Min(u1, n1*n2-u1)

	mu := n1 * n2 / 2
	sigma := math.Sqrt(n1 * n2 * (n1 + n2 + 1) / 12)
	if sigma == 0 {
		return RankSum{U: u, PValue: 1}
	}
	z := (u - mu) / sigma
	p := 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	return RankSum{U: u, Z: z, PValue: p, Significant: p < 0.05}
}

// EffectSize is Cohen's d of two samples.
type EffectSize struct {
	CohensD        float64
	Interpretation string // "negligible", "small", "medium", "large" or "undefined"
}

// CohensD computes the standardized mean difference of a and b.
func CohensD(a, b []float64) EffectSize {
	if len(a) < 2 || len(b) < 2 {
		return EffectSize{Interpretation: "undefined"}
	}

	m1, v1 := stat.MeanVariance(a, nil)
	m2, v2 := stat.MeanVariance(b, nil)
	n1, n2 := float64(len(a)), float64(len(b))
	pooled := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))

	var d float64
	if pooled > 0 {
		d = (m1 - m2) / pooled
	}
	return EffectSize{CohensD: d, Interpretation: interpret(math.Abs(d))}
}

func interpret(d float64) string {
	switch {
	case d < 0.2:
		return "negligible"
	case d < 0.5:
		return "small"
	case d < 0.8:
		return "medium"
	}
	return "large"
}

// Comparison contrasts a baseline sample with a sample taken under different
// conditions.
type Comparison struct {
	Baseline, Other           string
	BaselineStats, OtherStats Latency
	RankSum                   RankSum
	Effect                    EffectSize
}

// Compare describes both samples and tests their difference.
func Compare(baselineName string, baseline []float64, otherName string, other []float64) *Comparison {
	return &Comparison{
		Baseline:      baselineName,
		Other:         otherName,
		BaselineStats: Describe(baseline),
		OtherStats:    Describe(other),
		RankSum:       MannWhitneyU(baseline, other),
		Effect:        CohensD(other, baseline),
	}
}
