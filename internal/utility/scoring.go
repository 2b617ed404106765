package utility

import (
	"fmt"
	"iter"
	"math"
	"slices"
)

// ScoringMethod reduces a consideration's appraisal scores to one number.
//
// scores is produced lazily and already excludes inapplicable (zero) appraisals;
// a method that stops ranging early prevents the remaining appraisals from
// being evaluated at all. seed is the consideration's bonus factor.
type ScoringMethod interface {
	Reduce(scores iter.Seq[float64], seed float64) float64
}

// ScoringFunc adapts a plain function to ScoringMethod.
type ScoringFunc func(scores iter.Seq[float64], seed float64) float64

// Reduce calls f.
func (f ScoringFunc) Reduce(scores iter.Seq[float64], seed float64) float64 {
	return f(scores, seed)
}

// Average is the arithmetic mean of the scores. It ignores the seed and
// returns 0 for an empty sequence.
var Average ScoringMethod = ScoringFunc(func(scores iter.Seq[float64], _ float64) float64 {
	sum, n := 0.0, 0
	for s := range scores {
		sum += s
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
})

// Multiplicative is the product of the scores seeded with the bonus factor,
// so an empty sequence yields the seed.
var Multiplicative ScoringMethod = ScoringFunc(func(scores iter.Seq[float64], seed float64) float64 {
	product := seed
	for s := range scores {
		product *= s
	}
	return product
})

// thresholdAccumulate sums scores onto the seed until the first one below
// threshold; that score and everything after it are ignored.
type thresholdAccumulate struct {
	threshold float64
}

// ThresholdAccumulate returns a fail-fast summing method. Order the
// consideration's appraisals cheapest or most discriminating first.
func ThresholdAccumulate(threshold float64) (ScoringMethod, error) {
	if threshold < 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return thresholdAccumulate{threshold: threshold}, nil
}

// MustThresholdAccumulate is ThresholdAccumulate for static decision trees;
// it panics on an invalid threshold.
func MustThresholdAccumulate(threshold float64) ScoringMethod {
	m, err := ThresholdAccumulate(threshold)
	if err != nil {
		panic(err)
	}
	return m
}

func (t thresholdAccumulate) Reduce(scores iter.Seq[float64], seed float64) float64 {
	sum := seed
	for s := range scores {
		if s < t.threshold {
			break
		}
		sum += s
	}
	return sum
}

// Threshold returns the configured cutoff.
func (t thresholdAccumulate) Threshold() float64 { return t.threshold }

// ReduceSlice runs m over an already collected slice of scores.
func ReduceSlice(m ScoringMethod, scores []float64, seed float64) float64 {
	return m.Reduce(slices.Values(scores), seed)
}

// ScoringMethodByName resolves the method names used by declarative reasoner
// definitions: "average", "multiplicative" and "threshold".
func ScoringMethodByName(name string, threshold float64) (ScoringMethod, error) {
	switch name {
	case "", "average":
		return Average, nil
	case "multiplicative":
		return Multiplicative, nil
	case "threshold", "thresholdAccumulate":
		return ThresholdAccumulate(threshold)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}
