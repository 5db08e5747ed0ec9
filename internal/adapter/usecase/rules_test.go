package usecase

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adpilot/internal/core/domain"
)

func zoneRecord(id int64, cost float64, conversions int64, revenue float64) domain.MetricRecord {
	return zoneRow(1, id, cost, conversions, revenue).Record(domain.LastDays(fixedNow(), 7))
}

func TestZoneScenario(t *testing.T) {
	engine := NewRuleEngine(fixedNow)
	metrics := []domain.MetricRecord{
		zoneRecord(1, 60, 0, 0),
		zoneRecord(2, 30, 5, 90),
	}

	under := engine.Evaluate(domain.Underperformance(domain.EntityZone, domain.UnderperformanceParams{MinSpend: 50}), metrics)
	require.Len(t, under, 1)
	assert.Equal(t, int64(1), under[0].Target.ID)
	assert.Equal(t, domain.ActionBlacklist, under[0].Kind)

	top := engine.Evaluate(domain.TopPerformer(domain.EntityZone, domain.PerformerParams{MinConversions: 1, ROIThreshold: 0}), metrics)
	require.Len(t, top, 1)
	assert.Equal(t, int64(2), top[0].Target.ID)
	// (90 - 30) / 30
	roi := top[0].Snapshot.ROI()
	require.True(t, roi.Defined)
	assert.InDelta(t, 2.0, roi.Value, 1e-9)
}

func TestCandidatesCarrySnapshot(t *testing.T) {
	engine := NewRuleEngine(fixedNow)
	rec := zoneRecord(9, 100, 0, 0)
	got := engine.Evaluate(domain.Underperformance(domain.EntityZone, domain.UnderperformanceParams{MinSpend: 10}), []domain.MetricRecord{rec})
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0].Snapshot)
	assert.Equal(t, fixedNow(), got[0].ObservedAt)
	assert.Equal(t, domain.RuleUnderperformance, got[0].Rule)
}

func TestUnderperformanceNeverFlagsProfitableConverters(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	engine := NewRuleEngine(fixedNow)
	for round := range 200 {
		threshold := float64(r.IntN(200)-50) / 100
		rule := domain.Underperformance(domain.EntityZone, domain.UnderperformanceParams{
			MinSpend:     float64(r.IntN(50)),
			ROIThreshold: threshold,
		})
		metrics := make([]domain.MetricRecord, 30)
		for i := range metrics {
			metrics[i] = zoneRecord(int64(i+1), float64(r.IntN(100)), int64(r.IntN(4)), float64(r.IntN(200)))
		}
		for _, c := range engine.Evaluate(rule, metrics) {
			roi := c.Snapshot.ROI()
			if c.Snapshot.Conversions > 0 && roi.Defined {
				assert.Less(t, roi.Value, threshold, "round %d zone %d", round, c.Target.ID)
			}
		}
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	engine := NewRuleEngine(fixedNow)
	metrics := []domain.MetricRecord{
		zoneRecord(5, 40, 0, 0),
		zoneRecord(3, 40, 0, 0),
		zoneRecord(4, 90, 0, 0),
		zoneRecord(1, 40, 0, 0),
	}
	rule := domain.Underperformance(domain.EntityZone, domain.UnderperformanceParams{MinSpend: 10})

	first := engine.Evaluate(rule, metrics)
	ids := make([]int64, len(first))
	for i, c := range first {
		ids[i] = c.Target.ID
		assert.Equal(t, i, c.Rank)
	}
	// Cost descending, then id ascending on ties.
	assert.Equal(t, []int64{4, 1, 3, 5}, ids)

	metrics[0], metrics[3] = metrics[3], metrics[0]
	assert.Equal(t, first, engine.Evaluate(rule, metrics))
}

func TestEvaluateCapAndTargetFilter(t *testing.T) {
	engine := NewRuleEngine(fixedNow)
	metrics := []domain.MetricRecord{
		zoneRecord(1, 10, 0, 0),
		zoneRecord(2, 30, 0, 0),
		zoneRecord(3, 20, 0, 0),
		{Entity: domain.EntityRef{Type: domain.EntityCampaign, ID: 4}, Cost: 99},
	}
	rule := domain.Underperformance(domain.EntityZone, domain.UnderperformanceParams{MinSpend: 1, Cap: 2})
	got := engine.Evaluate(rule, metrics)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].Target.ID)
	assert.Equal(t, int64(3), got[1].Target.ID)
}

func TestUndefinedRankingValues(t *testing.T) {
	engine := NewRuleEngine(fixedNow)
	noCost := domain.MetricRecord{Entity: domain.EntityRef{Type: domain.EntityZone, ID: 1}, Impressions: 10}
	metrics := []domain.MetricRecord{noCost, zoneRecord(2, 10, 1, 30), zoneRecord(3, 10, 1, 15)}
	rule := domain.Rule{
		Name:       "roi_rank",
		Target:     domain.EntityZone,
		Predicates: []domain.Predicate{domain.Threshold{Field: domain.FieldImpressions, Op: domain.OpGT, Value: 0}},
		Ranking:    []domain.RankKey{{Field: domain.FieldROI, Desc: true}},
	}

	got := engine.Evaluate(rule, metrics)
	require.Len(t, got, 2, "undefined ROI is excluded by default")
	assert.Equal(t, int64(2), got[0].Target.ID)

	rule.UndefinedAsWorst = true
	got = engine.Evaluate(rule, metrics)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[2].Target.ID, "undefined ROI sorts last")
}

func TestUndefinedRatiosNeverSatisfyThresholds(t *testing.T) {
	engine := NewRuleEngine(fixedNow)
	zero := domain.MetricRecord{Entity: domain.EntityRef{Type: domain.EntityZone, ID: 1}}
	rule := domain.Rule{
		Name:       "low_ctr",
		Target:     domain.EntityZone,
		Predicates: []domain.Predicate{domain.Threshold{Field: domain.FieldCTR, Op: domain.OpLT, Value: 0.5}},
	}
	assert.Empty(t, engine.Evaluate(rule, []domain.MetricRecord{zero}))
}
