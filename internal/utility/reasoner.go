package utility

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Reasoner picks the action of the highest-scoring eligible consideration.
//
// The base list is owned by the Reasoner and changed only through Add and
// Remove. Evaluation reads a snapshot of it and keeps no state between calls,
// so one Reasoner can serve many agents at once.
type Reasoner struct {
	mu             sync.RWMutex
	considerations []*Consideration
	fallback       Action
	logger         *slog.Logger
}

// ReasonerOption customises a Reasoner.
type ReasonerOption func(*Reasoner)

// WithFallback replaces the Idle action returned when nothing is eligible.
func WithFallback(a Action) ReasonerOption {
	return func(r *Reasoner) { r.fallback = NewAction(a.Name, a.Params) }
}

// WithLogger enables debug logging of every candidate score.
func WithLogger(l *slog.Logger) ReasonerOption {
	return func(r *Reasoner) { r.logger = l }
}

// NewReasoner creates a reasoner over a copy of base. Insertion order is the
// tie-break order.
func NewReasoner(base []*Consideration, opts ...ReasonerOption) *Reasoner {
	r := &Reasoner{
		considerations: slices.DeleteFunc(slices.Clone(base), func(c *Consideration) bool { return c == nil }),
		fallback:       Idle(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add appends considerations to the base list.
func (r *Reasoner) Add(cs ...*Consideration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cs {
		if c != nil {
			r.considerations = append(r.considerations, c)
		}
	}
}

// Remove drops every base consideration whose action has the given name and
// reports how many were removed.
func (r *Reasoner) Remove(name ActionName) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.considerations)
	r.considerations = slices.DeleteFunc(r.considerations, func(c *Consideration) bool {
		return c.action.Name == name
	})
	return before - len(r.considerations)
}

// Considerations returns a copy of the base list.
func (r *Reasoner) Considerations() []*Consideration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.considerations)
}

// Len returns the number of base considerations.
func (r *Reasoner) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.considerations)
}

// Fallback returns the action used when nothing is eligible.
func (r *Reasoner) Fallback() Action { return r.fallback }

// candidates returns base ++ dynamic and the length of the base part.
// nil dynamic entries are ignored.
func (r *Reasoner) candidates(dynamic []*Consideration) ([]*Consideration, int) {
	r.mu.RLock()
	out := make([]*Consideration, 0, len(r.considerations)+len(dynamic))
	out = append(out, r.considerations...)
	r.mu.RUnlock()
	nBase := len(out)
	for _, c := range dynamic {
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nBase
}

// Evaluate scores base ++ dynamic against ctx and returns the winning action,
// or the fallback when no candidate is eligible. Considerations with weight
// <= 0 are skipped without being scored. Only a strictly greater score
// replaces the current best, so ties go to the earlier candidate.
func (r *Reasoner) Evaluate(ctx Context, dynamic ...*Consideration) Action {
	a, _ := r.Choose(ctx, dynamic...)
	return a
}

// Choose is Evaluate that also reports whether a consideration was selected.
// ok is false when the fallback was returned.
func (r *Reasoner) Choose(ctx Context, dynamic ...*Consideration) (Action, bool) {
	best, bestScore := -1, math.Inf(-1)
	cands, _ := r.candidates(dynamic)
	for i, c := range cands {
		if !c.Eligible() {
			continue
		}
		score := c.Score(ctx)
		r.debug(c, score)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return r.result(cands, best, bestScore)
}

// EvaluateParallel is Evaluate with considerations scored concurrently by at
// most workers goroutines (workers <= 0 means no limit). The winner is chosen
// only after every score is in, using the same order-stable rule.
func (r *Reasoner) EvaluateParallel(ctx Context, workers int, dynamic ...*Consideration) Action {
	a, _ := r.ChooseParallel(ctx, workers, dynamic...)
	return a
}

// ChooseParallel is the concurrent form of Choose.
func (r *Reasoner) ChooseParallel(ctx Context, workers int, dynamic ...*Consideration) (Action, bool) {
	cands, _ := r.candidates(dynamic)
	scores := make([]float64, len(cands))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, c := range cands {
		if !c.Eligible() {
			continue
		}
		g.Go(func() error {
			scores[i] = c.Score(ctx)
			return nil
		})
	}
	_ = g.Wait() // scoring cannot fail

	best, bestScore := -1, math.Inf(-1)
	for i, c := range cands {
		if !c.Eligible() {
			continue
		}
		r.debug(c, scores[i])
		if scores[i] > bestScore {
			best, bestScore = i, scores[i]
		}
	}
	return r.result(cands, best, bestScore)
}

func (r *Reasoner) result(cands []*Consideration, best int, score float64) (Action, bool) {
	if best < 0 {
		if r.logger != nil {
			r.logger.Debug("no eligible consideration", "fallback", r.fallback.Name, "candidates", len(cands))
		}
		return r.fallback, false
	}
	if r.logger != nil {
		r.logger.Debug("action selected", "action", cands[best].action.String(), "score", score)
	}
	return cands[best].action, true
}

func (r *Reasoner) debug(c *Consideration, score float64) {
	if r.logger == nil || !r.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	r.logger.Debug("consideration scored", "action", c.action.String(), "weight", c.weight, "score", score)
}

// Decision is the full, read-only account of one evaluation, for UIs and logs.
type Decision struct {
	Action     Action               `json:"action"`
	Score      float64              `json:"score"`
	Fallback   bool                 `json:"fallback"`
	Candidates []ConsiderationScore `json:"candidates"`
}

// Explain evaluates like Evaluate and also returns every candidate's
// breakdown in base ++ dynamic order. When the fallback is chosen Score is 0.
func (r *Reasoner) Explain(ctx Context, dynamic ...*Consideration) Decision {
	cands, nBase := r.candidates(dynamic)
	d := Decision{Candidates: make([]ConsiderationScore, len(cands))}
	best, bestScore := -1, math.Inf(-1)
	for i, c := range cands {
		cs := c.Explain(ctx)
		cs.Dynamic = i >= nBase
		d.Candidates[i] = cs
		if cs.Skipped {
			continue
		}
		if cs.Score > bestScore {
			best, bestScore = i, cs.Score
		}
	}

	if best < 0 {
		d.Action = r.fallback
		d.Fallback = true
		return d
	}
	d.Action = cands[best].action
	d.Score = bestScore
	return d
}
