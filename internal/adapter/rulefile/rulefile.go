// Package rulefile loads custom optimization rules from YAML.
//
//	rules:
//	  - name: costly_zones
//	    target: zone
//	    action: blacklist
//	    when:
//	      - {field: cost, op: ">=", value: 50}
//	      - {wasting_below_roi: 0}
//	    rank:
//	      - {field: cost, desc: true}
//	    cap: 25
package rulefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"adpilot/internal/core/domain"
)

type file struct {
	Rules []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	Name             string           `yaml:"name"`
	Target           string           `yaml:"target"`
	Action           string           `yaml:"action"`
	Description      string           `yaml:"description"`
	When             []predicateDoc   `yaml:"when"`
	Rank             []domain.RankKey `yaml:"rank"`
	Cap              int              `yaml:"cap"`
	UndefinedAsWorst bool             `yaml:"undefined_as_worst"`
}

// predicateDoc is either a threshold (field, op, value) or the wasted
// spend predicate (wasting_below_roi).
type predicateDoc struct {
	Field           string   `yaml:"field"`
	Op              string   `yaml:"op"`
	Value           *float64 `yaml:"value"`
	WastingBelowROI *float64 `yaml:"wasting_below_roi"`
}

func (p predicateDoc) predicate() (domain.Predicate, error) {
	if p.WastingBelowROI != nil {
		if p.Field != "" || p.Op != "" || p.Value != nil {
			return nil, errors.New("wasting_below_roi cannot be combined with a threshold")
		}
		return domain.Wasting{ROIBelow: *p.WastingBelowROI}, nil
	}
	field, err := domain.ParseField(p.Field)
	if err != nil {
		return nil, err
	}
	op, err := domain.ParseOp(p.Op)
	if err != nil {
		return nil, err
	}
	if p.Value == nil {
		return nil, fmt.Errorf("threshold on %s has no value", field)
	}
	return domain.Threshold{Field: field, Op: op, Value: *p.Value}, nil
}

// Load reads rules from path.
func Load(path string) ([]domain.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rules, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// Parse decodes and validates a rules document. Rule names must be unique.
func Parse(r io.Reader) ([]domain.Rule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	seen := make(map[string]bool, len(f.Rules))
	out := make([]domain.Rule, 0, len(f.Rules))
	for i, doc := range f.Rules {
		rule := domain.Rule{
			Name:             doc.Name,
			Target:           domain.EntityType(doc.Target),
			Action:           domain.ActionKind(doc.Action),
			Ranking:          doc.Rank,
			Cap:              doc.Cap,
			UndefinedAsWorst: doc.UndefinedAsWorst,
			Description:      doc.Description,
		}
		for j, p := range doc.When {
			pred, err := p.predicate()
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s) condition %d: %w", i+1, doc.Name, j+1, err)
			}
			rule.Predicates = append(rule.Predicates, pred)
		}
		for _, k := range rule.Ranking {
			if _, err := domain.ParseField(string(k.Field)); err != nil {
				return nil, fmt.Errorf("rule %d (%s) ranking: %w", i+1, doc.Name, err)
			}
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if seen[rule.Name] {
			return nil, fmt.Errorf("rule %d: duplicate name %q", i+1, rule.Name)
		}
		seen[rule.Name] = true
		out = append(out, rule)
	}
	return out, nil
}
