package utility

import (
	"fmt"
	"math"
)

// Curve reshapes a raw appraisal score, usually in [0, 1]. Curves are
// monotonic by convention only; inversions are allowed on purpose.
type Curve func(float64) float64

// Linear returns the score unchanged.
func Linear(x float64) float64 { return x }

// Quadratic squares the score: small values are suppressed, large ones kept.
func Quadratic(x float64) float64 { return x * x }

// InverseQuadratic is 1 - x², so high raw scores produce low utility.
func InverseQuadratic(x float64) float64 { return 1 - x*x }

// Logistic returns a falling S-curve 1 - 1/(1 + (2e)^(-(steepness*x) + midpoint)).
// Logistic(12, 6) maps 0 to ~1, 0.5 to 0.5 and 1 to ~0, with most of the drop
// between 0.3 and 0.7. Feed it a satiety level to get an urgency score.
func Logistic(steepness, midpoint float64) Curve {
	base := math.E * 2
	return func(x float64) float64 {
		exponent := -(x * steepness) + midpoint
		return 1 - 1/(1+math.Pow(base, exponent))
	}
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// Normalize maps v from [lo, hi] to [0, 1], clamped. A degenerate range maps
// everything at or above lo to 1.
func Normalize(v, lo, hi float64) float64 {
	if hi == lo {
		if v >= lo {
			return 1
		}
		return 0
	}
	return Clamp01((v - lo) / (hi - lo))
}

var builtinCurves = map[string]Curve{
	"linear":           Linear,
	"quadratic":        Quadratic,
	"inverseQuadratic": InverseQuadratic,
	"logistic":         Logistic(12, 6),
}

// CurveByName resolves one of the built-in curve names used by declarative
// reasoner definitions. The empty name means "no curve" and returns nil.
func CurveByName(name string) (Curve, error) {
	if name == "" {
		return nil, nil
	}
	c, ok := builtinCurves[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurve, name)
	}
	return c, nil
}
