package stats

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a set of replay durations.
type Summary struct {
	Count int           `json:"count"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P90   time.Duration `json:"p90"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// Summarize computes mean and empirical quantiles of ds.
func Summarize(ds []time.Duration) Summary {
	if len(ds) == 0 {
		return Summary{}
	}
	xs := make([]float64, len(ds))
	for i, d := range ds {
		xs[i] = float64(d)
	}
	sort.Float64s(xs)

	q := func(p float64) time.Duration {
		return time.Duration(stat.Quantile(p, stat.Empirical, xs, nil))
	}
	return Summary{
		Count: len(xs),
		Mean:  time.Duration(stat.Mean(xs, nil)),
		P50:   q(0.5),
		P90:   q(0.9),
		P99:   q(0.99),
		Max:   time.Duration(xs[len(xs)-1]),
	}
}
