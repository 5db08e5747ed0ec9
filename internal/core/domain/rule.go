package domain

import (
	"fmt"
	"strings"
)

// Op is a comparison operator used by threshold predicates.
type Op string

const (
	OpGT Op = ">"
	OpGE Op = ">="
	OpLT Op = "<"
	OpLE Op = "<="
	OpEQ Op = "=="
)

// ParseOp validates an operator literal.
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.TrimSpace(s)); op {
	case OpGT, OpGE, OpLT, OpLE, OpEQ:
		return op, nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

func (o Op) compare(a, b float64) bool {
	switch o {
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpEQ:
		return a == b
	}
	return false
}

// Predicate decides whether a record qualifies for a rule.
type Predicate interface {
	Match(m MetricRecord) bool
	String() string
}

// Threshold compares one field against a constant. An undefined ratio never
// satisfies a threshold.
type Threshold struct {
	Field Field   `json:"field" yaml:"field"`
	Op    Op      `json:"op" yaml:"op"`
	Value float64 `json:"value" yaml:"value"`
}

func (t Threshold) Match(m MetricRecord) bool {
	v := m.Value(t.Field)
	if !v.Defined {
		return false
	}
	return t.Op.compare(v.Value, t.Value)
}

func (t Threshold) String() string {
	return fmt.Sprintf("%s %s %g", t.Field, t.Op, t.Value)
}

// Wasting matches records that spent without result: no conversions, or a
// defined ROI below ROIBelow.
type Wasting struct {
	ROIBelow float64 `json:"roi_below" yaml:"roi_below"`
}

func (w Wasting) Match(m MetricRecord) bool {
	if m.Conversions == 0 {
		return true
	}
	roi := m.ROI()
	return roi.Defined && roi.Value < w.ROIBelow
}

func (w Wasting) String() string {
	return fmt.Sprintf("(conversions == 0 OR roi < %g)", w.ROIBelow)
}

// RankKey orders candidates on one field.
type RankKey struct {
	Field Field `json:"field" yaml:"field"`
	Desc  bool  `json:"desc" yaml:"desc"`
}

// Rule is a declarative optimization rule. Predicates are combined with AND.
// Ties left after every ranking key are broken by entity id ascending.
type Rule struct {
	Name       string      `json:"name"`
	Target     EntityType  `json:"target"`
	Action     ActionKind  `json:"action"`
	Predicates []Predicate `json:"-"`
	Ranking    []RankKey   `json:"ranking"`
	// Cap bounds the number of candidates; 0 means unbounded.
	Cap int `json:"cap,omitempty"`
	// UndefinedAsWorst keeps entities with undefined ranking values and
	// sorts them last instead of excluding them.
	UndefinedAsWorst bool   `json:"undefined_as_worst,omitempty"`
	Description      string `json:"description,omitempty"`
}

// Match reports whether every predicate accepts m.
func (r Rule) Match(m MetricRecord) bool {
	for _, p := range r.Predicates {
		if !p.Match(m) {
			return false
		}
	}
	return true
}

// Conditions renders the predicates for listing and audit.
func (r Rule) Conditions() []string {
	out := make([]string, len(r.Predicates))
	for i, p := range r.Predicates {
		out[i] = p.String()
	}
	return out
}

// Validate checks the rule is evaluable.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if !r.Target.Valid() {
		return fmt.Errorf("rule %s: unknown target %q", r.Name, r.Target)
	}
	if r.Action != "" && !r.Action.Valid() {
		return fmt.Errorf("rule %s: unknown action %q", r.Name, r.Action)
	}
	if len(r.Predicates) == 0 {
		return fmt.Errorf("rule %s: at least one predicate is required", r.Name)
	}
	if r.Cap < 0 {
		return fmt.Errorf("rule %s: cap must not be negative", r.Name)
	}
	return nil
}

// Built-in rule names.
const (
	RuleUnderperformance = "underperformance"
	RuleTopPerformer     = "top_performer"
	RuleScalingCandidate = "scaling_candidate"
)

// UnderperformanceParams configures the wasted-spend rule.
type UnderperformanceParams struct {
	MinSpend     float64
	ROIThreshold float64
	// MaxConversions narrows the result when set.
	MaxConversions *int64
	Cap            int
}

// Underperformance builds cost >= MinSpend AND (conversions == 0 OR ROI <
// ROIThreshold), ranked by cost descending.
func Underperformance(target EntityType, p UnderperformanceParams) Rule {
	preds := []Predicate{
		Threshold{Field: FieldCost, Op: OpGE, Value: p.MinSpend},
		Wasting{ROIBelow: p.ROIThreshold},
	}
	if p.MaxConversions != nil {
		preds = append(preds, Threshold{Field: FieldConversions, Op: OpLE, Value: float64(*p.MaxConversions)})
	}
	return Rule{
		Name:        RuleUnderperformance,
		Target:      target,
		Action:      ActionBlacklist,
		Predicates:  preds,
		Ranking:     []RankKey{{Field: FieldCost, Desc: true}},
		Cap:         p.Cap,
		Description: "entities spending without converting or below the ROI threshold",
	}
}

// PerformerParams configures the top-performer and scaling rules.
type PerformerParams struct {
	MinConversions int64
	ROIThreshold   float64
	Cap            int
}

func performerRule(name string, target EntityType, action ActionKind, p PerformerParams) Rule {
	return Rule{
		Name:   name,
		Target: target,
		Action: action,
		Predicates: []Predicate{
			Threshold{Field: FieldConversions, Op: OpGE, Value: float64(p.MinConversions)},
			Threshold{Field: FieldROI, Op: OpGE, Value: p.ROIThreshold},
		},
		Ranking: []RankKey{{Field: FieldROI, Desc: true}, {Field: FieldConversions, Desc: true}},
		Cap:     p.Cap,
	}
}

// TopPerformer builds conversions >= MinConversions AND ROI >= ROIThreshold,
// ranked by ROI then conversions descending.
func TopPerformer(target EntityType, p PerformerParams) Rule {
	r := performerRule(RuleTopPerformer, target, ActionWhitelist, p)
	r.Description = "converting entities at or above the ROI threshold"
	return r
}

// ScalingCandidate is TopPerformer scoped to campaigns with a budget action.
func ScalingCandidate(p PerformerParams) Rule {
	r := performerRule(RuleScalingCandidate, EntityCampaign, ActionBudgetDelta, p)
	r.Description = "profitable campaigns worth a budget increase"
	return r
}
