package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/utility"
)

// Catalog lookup errors.
var (
	ErrUnknownAppraisal = errors.New("unknown appraisal")
	ErrDuplicateName    = errors.New("name already registered")
)

// ReasonerDef is a reasoner written down as data.
//
//	fallback: {name: Wait}
//	considerations:
//	  - action: {name: Eat}
//	    weight: 1.5
//	    scoring: {method: threshold, threshold: 0.2}
//	    appraisals:
//	      - {name: hunger, curve: logistic}
//	      - {name: foodProximity}
type ReasonerDef struct {
	Fallback       *ActionDef         `yaml:"fallback,omitempty"`
	Considerations []ConsiderationDef `yaml:"considerations"`
}

// ActionDef names an action and its fixed parameters.
type ActionDef struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params,omitempty"`
}

// ConsiderationDef describes one consideration. Weight and Bonus default
// to 1 when omitted.
type ConsiderationDef struct {
	Action     ActionDef      `yaml:"action"`
	Weight     *float64       `yaml:"weight,omitempty"`
	Bonus      *float64       `yaml:"bonus,omitempty"`
	Parameters map[string]any `yaml:"parameters,omitempty"`
	Scoring    ScoringDef     `yaml:"scoring"`
	Appraisals []AppraisalRef `yaml:"appraisals"`
}

// ScoringDef selects the scoring method. Threshold is only read by the
// "threshold" method.
type ScoringDef struct {
	Method    string  `yaml:"method"`
	Threshold float64 `yaml:"threshold,omitempty"`
}

// AppraisalRef points at a catalog appraisal, optionally shaped by a curve.
type AppraisalRef struct {
	Name  string `yaml:"name"`
	Curve string `yaml:"curve,omitempty"`
}

// Catalog maps the names used in definitions to code.
type Catalog struct {
	appraisals map[string]utility.AppraisalFunc
	curves     map[string]utility.Curve
}

// NewCatalog returns an empty catalog. The built-in curves (linear,
// quadratic, inverseQuadratic, logistic) are always available.
func NewCatalog() *Catalog {
	return &Catalog{
		appraisals: make(map[string]utility.AppraisalFunc),
		curves:     make(map[string]utility.Curve),
	}
}

// SurvivalCatalog returns a catalog holding the survival appraisals.
func SurvivalCatalog() *Catalog {
	c := NewCatalog()
	for name, fn := range agents.SurvivalAppraisals() {
		c.appraisals[name] = fn
	}
	return c
}

// RegisterAppraisal adds a named appraisal function.
func (c *Catalog) RegisterAppraisal(name string, fn utility.AppraisalFunc) error {
	if fn == nil {
		return fmt.Errorf("appraisal %q: %w", name, utility.ErrNilAppraisal)
	}
	if _, dup := c.appraisals[name]; dup {
		return fmt.Errorf("appraisal %q: %w", name, ErrDuplicateName)
	}
	c.appraisals[name] = fn
	return nil
}

// RegisterCurve adds a named curve. Built-in names cannot be shadowed.
func (c *Catalog) RegisterCurve(name string, curve utility.Curve) error {
	_, dup := c.curves[name]
	if builtin, _ := utility.CurveByName(name); dup || builtin != nil {
		return fmt.Errorf("curve %q: %w", name, ErrDuplicateName)
	}
	c.curves[name] = curve
	return nil
}

func (c *Catalog) curve(name string) (utility.Curve, error) {
	if cv, ok := c.curves[name]; ok {
		return cv, nil
	}
	return utility.CurveByName(name)
}

// Appraisal resolves a reference.
func (c *Catalog) Appraisal(ref AppraisalRef) (utility.Appraisal, error) {
	fn, ok := c.appraisals[ref.Name]
	if !ok {
		return utility.Appraisal{}, fmt.Errorf("%w: %q", ErrUnknownAppraisal, ref.Name)
	}
	cv, err := c.curve(ref.Curve)
	if err != nil {
		return utility.Appraisal{}, fmt.Errorf("appraisal %q: %w", ref.Name, err)
	}
	return utility.NewAppraisal(ref.Name, fn, cv), nil
}

// Consideration builds one consideration from its definition.
func (c *Catalog) Consideration(def ConsiderationDef) (*utility.Consideration, error) {
	appraisals := make([]utility.Appraisal, 0, len(def.Appraisals))
	for _, ref := range def.Appraisals {
		a, err := c.Appraisal(ref)
		if err != nil {
			return nil, err
		}
		appraisals = append(appraisals, a)
	}

	method, err := utility.ScoringMethodByName(def.Scoring.Method, def.Scoring.Threshold)
	if err != nil {
		return nil, err
	}

	opts := []utility.ConsiderationOption{utility.WithParameters(def.Parameters)}
	if def.Weight != nil {
		opts = append(opts, utility.WithWeight(*def.Weight))
	}
	if def.Bonus != nil {
		opts = append(opts, utility.WithBonusFactor(*def.Bonus))
	}
	return utility.NewConsideration(
		utility.NewAction(utility.ActionName(def.Action.Name), def.Action.Params),
		appraisals, method, opts...)
}

// Build turns a definition into a reasoner. Every broken consideration is
// reported, not just the first.
func (c *Catalog) Build(def ReasonerDef, opts ...utility.ReasonerOption) (*utility.Reasoner, error) {
	var (
		list []*utility.Consideration
		errs []error
	)
	for i, cd := range def.Considerations {
		cons, err := c.Consideration(cd)
		if err != nil {
			errs = append(errs, fmt.Errorf("consideration %d (%s): %w", i, cd.Action.Name, err))
			continue
		}
		list = append(list, cons)
	}
	if def.Fallback != nil {
		if def.Fallback.Name == "" {
			errs = append(errs, fmt.Errorf("fallback: %w", utility.ErrEmptyActionName))
		} else {
			fb := utility.NewAction(utility.ActionName(def.Fallback.Name), def.Fallback.Params)
			opts = append([]utility.ReasonerOption{utility.WithFallback(fb)}, opts...)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return utility.NewReasoner(list, opts...), nil
}

// ParseReasoner decodes a YAML (or JSON) definition. Unknown keys are
// rejected.
func ParseReasoner(r io.Reader) (ReasonerDef, error) {
	var def ReasonerDef
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return def, fmt.Errorf("parse reasoner: %w", err)
	}
	return def, nil
}

// LoadReasoner reads and builds the reasoner defined in path.
func (c *Catalog) LoadReasoner(path string, opts ...utility.ReasonerOption) (*utility.Reasoner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reasoner: %w", err)
	}
	def, err := ParseReasoner(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	r, err := c.Build(def, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// LoadContext reads a context from a YAML or JSON file.
func LoadContext(path string) (utility.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}
	ctx := utility.Context{}
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("parse context %s: %w", path, err)
	}
	return ctx, nil
}
