package utility

import (
	"fmt"
	"iter"
	"maps"
	"math"
	"slices"
)

// Consideration binds one Action to the appraisals that justify it.
// Its score is reduce(non-zero appraisal scores, bonusFactor) × weight.
type Consideration struct {
	action     Action
	appraisals []Appraisal
	method     ScoringMethod
	weight     float64
	bonus      float64
	params     map[string]any
}

// ConsiderationOption customises a Consideration at construction.
type ConsiderationOption func(*Consideration)

// WithWeight sets the priority/gate factor (default 1). A weight of zero or
// less removes the consideration from selection entirely.
func WithWeight(w float64) ConsiderationOption {
	return func(c *Consideration) { c.weight = w }
}

// WithBonusFactor sets the seed combined with appraisal scores (default 1).
func WithBonusFactor(b float64) ConsiderationOption {
	return func(c *Consideration) { c.bonus = b }
}

// WithParameters sets fields merged over the evaluation context before the
// appraisals run, letting one appraisal serve many considerations.
func WithParameters(p map[string]any) ConsiderationOption {
	return func(c *Consideration) { c.params = maps.Clone(p) }
}

// NewConsideration validates and builds a consideration. The appraisal slice
// is copied; its order is the evaluation order.
func NewConsideration(action Action, appraisals []Appraisal, method ScoringMethod, opts ...ConsiderationOption) (*Consideration, error) {
	if action.Name == "" {
		return nil, ErrEmptyActionName
	}
	if method == nil {
		return nil, fmt.Errorf("%s: %w", action.Name, ErrNoScoringMethod)
	}
	for i, a := range appraisals {
		if a.Eval == nil {
			return nil, fmt.Errorf("%s: appraisal %d (%s): %w", action.Name, i, a.Name, ErrNilAppraisal)
		}
	}

	c := &Consideration{
		action:     NewAction(action.Name, action.Params),
		appraisals: slices.Clone(appraisals),
		method:     method,
		weight:     1,
		bonus:      1,
	}
	for _, opt := range opts {
		opt(c)
	}

	if math.IsNaN(c.weight) || math.IsInf(c.weight, 0) {
		return nil, fmt.Errorf("%s: %w", action.Name, ErrInvalidWeight)
	}
	if math.IsNaN(c.bonus) || math.IsInf(c.bonus, 0) {
		return nil, fmt.Errorf("%s: %w", action.Name, ErrInvalidBonus)
	}
	if c.params == nil {
		c.params = map[string]any{}
	}
	return c, nil
}

// MustConsideration is NewConsideration for decision trees built in code;
// it panics on invalid configuration.
func MustConsideration(action Action, appraisals []Appraisal, method ScoringMethod, opts ...ConsiderationOption) *Consideration {
	c, err := NewConsideration(action, appraisals, method, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Action returns the action selected when this consideration wins.
func (c *Consideration) Action() Action { return c.action }

// Weight returns the configured weight.
func (c *Consideration) Weight() float64 { return c.weight }

// BonusFactor returns the configured seed.
func (c *Consideration) BonusFactor() float64 { return c.bonus }

// Parameters returns a copy of the context overrides.
func (c *Consideration) Parameters() map[string]any { return maps.Clone(c.params) }

// Appraisals returns a copy of the appraisal list.
func (c *Consideration) Appraisals() []Appraisal { return slices.Clone(c.appraisals) }

// Eligible reports whether the consideration takes part in selection.
func (c *Consideration) Eligible() bool { return c.weight > 0 }

// Score returns the weighted utility of the action for ctx. It is only
// meaningful for eligible considerations; the Reasoner never calls it otherwise.
func (c *Consideration) Score(ctx Context) float64 {
	effective := ctx.With(c.params)
	return c.method.Reduce(c.scores(effective, nil), c.bonus) * c.weight
}

// scores yields non-zero appraisal scores in order, evaluating each appraisal
// only when the scoring method asks for the next value. When trace is non-nil
// every evaluated appraisal is recorded, including excluded ones.
func (c *Consideration) scores(ctx Context, trace *[]AppraisalScore) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for _, a := range c.appraisals {
			s := a.Score(ctx)
			if trace != nil {
				*trace = append(*trace, AppraisalScore{Name: a.Name, Score: s, Excluded: s == 0})
			}
			if s == 0 {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// AppraisalScore is one evaluated appraisal inside an explanation.
type AppraisalScore struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Excluded bool    `json:"excluded"`
}

// ConsiderationScore is the read-only breakdown of one candidate. Appraisals
// lists only those actually evaluated, so a threshold short-circuit is visible.
type ConsiderationScore struct {
	Action     Action           `json:"action"`
	Weight     float64          `json:"weight"`
	Skipped    bool             `json:"skipped"`
	Reduced    float64          `json:"reduced"`
	Score      float64          `json:"score"`
	Dynamic    bool             `json:"dynamic"`
	Appraisals []AppraisalScore `json:"appraisals,omitempty"`
}

// Explain scores the consideration and records how the score was reached.
// Ineligible considerations are reported as skipped without evaluation.
func (c *Consideration) Explain(ctx Context) ConsiderationScore {
	out := ConsiderationScore{Action: c.action, Weight: c.weight}
	if !c.Eligible() {
		out.Skipped = true
		return out
	}
	var trace []AppraisalScore
	effective := ctx.With(c.params)
	out.Reduced = c.method.Reduce(c.scores(effective, &trace), c.bonus)
	out.Score = out.Reduced * c.weight
	out.Appraisals = trace
	return out
}
