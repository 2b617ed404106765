package utility

import "errors"

// Construction-time errors. Evaluation itself never fails.
var (
	ErrEmptyActionName  = errors.New("consideration action has no name")
	ErrNoScoringMethod  = errors.New("consideration has no scoring method")
	ErrNilAppraisal     = errors.New("appraisal has no evaluate function")
	ErrInvalidWeight    = errors.New("weight must be a finite number")
	ErrInvalidBonus     = errors.New("bonus factor must be a finite number")
	ErrInvalidThreshold = errors.New("threshold must be a non-negative number")
	ErrUnknownCurve     = errors.New("unknown curve")
	ErrUnknownMethod    = errors.New("unknown scoring method")
)
