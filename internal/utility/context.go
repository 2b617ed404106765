// Package utility implements the utility-scoring decision pipeline:
// Appraisal → Consideration → Reasoner → selected Action.
//
// Every scoring function in this package treats the Context as read-only, so a
// single Reasoner may be evaluated concurrently for any number of agents.
package utility

import "maps"

// Context is the caller-owned snapshot of situational data an agent decides on.
// Values are numbers, positions, or nested lookups; scoring never mutates it.
type Context map[string]any

// With returns a shallow merge of overrides on top of ctx. Overrides win on
// key collisions. When there is nothing to merge ctx itself is returned, so
// the result must be treated as read-only just like ctx.
func (ctx Context) With(overrides map[string]any) Context {
	if len(overrides) == 0 {
		return ctx
	}
	merged := make(Context, len(ctx)+len(overrides))
	maps.Copy(merged, ctx)
	maps.Copy(merged, overrides)
	return merged
}

// Get returns the raw value stored under key.
func (ctx Context) Get(key string) (any, bool) {
	v, ok := ctx[key]
	return v, ok
}

// Float returns the value under key as a float64. Any Go numeric type is
// accepted; anything else reports false.
func (ctx Context) Float(key string) (float64, bool) {
	v, ok := ctx[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// FloatOr returns the numeric value under key, or def when it is missing or
// not a number.
func (ctx Context) FloatOr(key string, def float64) float64 {
	if f, ok := ctx.Float(key); ok {
		return f
	}
	return def
}

// Int returns the value under key truncated to an int.
func (ctx Context) Int(key string) (int, bool) {
	f, ok := ctx.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Clone returns a shallow copy. Handlers use it to build the next tick's
// context without aliasing the one that was scored.
func (ctx Context) Clone() Context {
	if ctx == nil {
		return Context{}
	}
	return maps.Clone(ctx)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
