package usecase

import (
	"cmp"
	"slices"
	"time"

	"adpilot/internal/core/domain"
)

// RuleEngine turns metric records into ranked action candidates. The same
// rule over the same records always yields the same sequence.
type RuleEngine struct {
	now func() time.Time
}

// NewRuleEngine creates a RuleEngine stamping candidates with now.
func NewRuleEngine(now func() time.Time) *RuleEngine {
	if now == nil {
		now = time.Now
	}
	return &RuleEngine{now: now}
}

type scored struct {
	rec       domain.MetricRecord
	keys      []domain.Ratio
	undefined bool
}

// Evaluate applies rule to metrics. Records of another entity type or
// failing any predicate are dropped. A record whose ranking value is
// undefined is excluded unless the rule ranks undefined values as worst.
// Ties after every ranking key are broken by entity id ascending. The
// result is cut to rule.Cap when it is set.
func (e *RuleEngine) Evaluate(rule domain.Rule, metrics []domain.MetricRecord) []domain.ActionCandidate {
	var pool []scored
	for _, m := range metrics {
		if m.Entity.Type != rule.Target || !rule.Match(m) {
			continue
		}
		s := scored{rec: m, keys: make([]domain.Ratio, len(rule.Ranking))}
		for i, k := range rule.Ranking {
			s.keys[i] = m.Value(k.Field)
			if !s.keys[i].Defined {
				s.undefined = true
			}
		}
		if s.undefined && !rule.UndefinedAsWorst {
			continue
		}
		pool = append(pool, s)
	}

	slices.SortStableFunc(pool, func(a, b scored) int {
		for i, k := range rule.Ranking {
			if c := compareKey(a.keys[i], b.keys[i], k.Desc); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(a.rec.Entity.ID, b.rec.Entity.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.rec.Entity.CampaignID, b.rec.Entity.CampaignID)
	})

	if rule.Cap > 0 && len(pool) > rule.Cap {
		pool = pool[:rule.Cap]
	}

	now := e.now()
	out := make([]domain.ActionCandidate, len(pool))
	for i, s := range pool {
		out[i] = domain.ActionCandidate{
			Rule:       rule.Name,
			Target:     s.rec.Entity,
			Kind:       rule.Action,
			Snapshot:   s.rec,
			ObservedAt: now,
			Rank:       i,
		}
	}
	return out
}

// compareKey orders two ranking values. Undefined values sort after every
// defined one regardless of direction.
func compareKey(a, b domain.Ratio, desc bool) int {
	switch {
	case !a.Defined && !b.Defined:
		return 0
	case !a.Defined:
		return 1
	case !b.Defined:
		return -1
	}
	if desc {
		return cmp.Compare(b.Value, a.Value)
	}
	return cmp.Compare(a.Value, b.Value)
}
