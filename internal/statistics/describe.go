// Package statistics aggregates per-case scores into run summaries.
package statistics

import "math"

// Description holds the descriptive statistics of a score sample.
type Description struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe computes count, mean, population standard deviation, minimum and
// maximum. An empty sample yields the zero Description.
func Describe(values []float64) Description {
	d := Description{N: len(values)}
	if d.N == 0 {
		return d
	}

	d.Min, d.Max = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		d.Min = math.Min(d.Min, v)
		d.Max = math.Max(d.Max, v)
	}
	d.Mean = mean(values)

	ss := 0.0
	for _, v := range values {
		diff := v - d.Mean
		ss += diff * diff
	}
	d.StdDev = math.Sqrt(ss / float64(d.N))
	return d
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
