package statistics

import (
	"math"
	"math/rand"
	"sort"
)

// ConfidenceInterval is a percentile bootstrap interval around a mean score.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

const (
	DefaultIterations = 10000
	DefaultLevel      = 0.95
	// DefaultSeed makes the interval a pure function of the scores.
	DefaultSeed int64 = 42
)

type bootstrapConfig struct {
	level      float64
	iterations int
	seed       int64
}

// BootstrapOption configures BootstrapCI.
type BootstrapOption func(*bootstrapConfig)

// WithLevel sets the confidence level, in (0, 1).
func WithLevel(level float64) BootstrapOption {
	return func(c *bootstrapConfig) {
		if level > 0 && level < 1 {
			c.level = level
		}
	}
}

func WithIterations(n int) BootstrapOption {
	return func(c *bootstrapConfig) {
		if n > 0 {
			c.iterations = n
		}
	}
}

// WithSeed sets the resampling seed. A negative seed draws a random one.
func WithSeed(seed int64) BootstrapOption {
	return func(c *bootstrapConfig) {
		c.seed = seed
	}
}

// BootstrapCI resamples scores with replacement and returns the percentile
// interval of the resampled means. With fewer than two scores the interval
// collapses onto the mean and no resampling happens.
func BootstrapCI(scores []float64, opts ...BootstrapOption) ConfidenceInterval {
	cfg := bootstrapConfig{level: DefaultLevel, iterations: DefaultIterations, seed: DefaultSeed}
	for _, o := range opts {
		o(&cfg)
	}

	n := len(scores)
	m := mean(scores)
	if n < 2 {
		return ConfidenceInterval{Lower: m, Upper: m, Mean: m, ConfidenceLevel: cfg.level}
	}

	seed := cfg.seed
	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	iters := cfg.iterations
	bootMeans := make([]float64, iters)
	sample := make([]float64, n)
	for i := range bootMeans {
		for j := range sample {
			sample[j] = scores[rng.Intn(n)]
		}
		bootMeans[i] = mean(sample)
	}
	sort.Float64s(bootMeans)

	alpha := 1.0 - cfg.level
	lo := int(math.Floor(alpha / 2.0 * float64(iters)))
	hi := min(int(math.Floor((1.0-alpha/2.0)*float64(iters))), iters-1)

	return ConfidenceInterval{
		Lower:           bootMeans[lo],
		Upper:           bootMeans[hi],
		Mean:            m,
		ConfidenceLevel: cfg.level,
		NumBootstraps:   iters,
	}
}

// Contains reports whether v lies inside the interval.
func (ci ConfidenceInterval) Contains(v float64) bool {
	return v >= ci.Lower && v <= ci.Upper
}

// Width is Upper minus Lower.
func (ci ConfidenceInterval) Width() float64 {
	return ci.Upper - ci.Lower
}
