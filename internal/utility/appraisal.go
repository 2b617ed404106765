package utility

import "math"

// AppraisalFunc scores one contextual factor. Returning 0 marks the factor as
// inapplicable: it is dropped from aggregation rather than counted as a zero.
// Implementations must not mutate ctx and should return 0 instead of failing
// when a field or referenced entity is missing.
type AppraisalFunc func(ctx Context) float64

// Appraisal is a named evaluator with an optional response curve. Appraisals
// are stateless and can be shared between considerations and agents.
type Appraisal struct {
	Name  string
	Eval  AppraisalFunc
	Curve Curve // nil means the raw score is used
}

// NewAppraisal builds an appraisal. curve may be nil.
func NewAppraisal(name string, fn AppraisalFunc, curve Curve) Appraisal {
	return Appraisal{Name: name, Eval: fn, Curve: curve}
}

// Score evaluates the appraisal and applies its curve. NaN and infinite
// results are reported as 0 so that a broken evaluator or curve reads as
// "inapplicable".
func (a Appraisal) Score(ctx Context) float64 {
	if a.Eval == nil {
		return 0
	}
	s := a.Eval(ctx)
	if a.Curve != nil {
		s = a.Curve(s)
	}
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}
