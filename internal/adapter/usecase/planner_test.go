package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adpilot/internal/core/domain"
)

func candidate(id int64, rank int, end time.Time) domain.ActionCandidate {
	rec := zoneRecord(id, float64(1000-rank), 0, 0)
	rec.Window.End = end
	return domain.ActionCandidate{
		Rule:       domain.RuleUnderperformance,
		Target:     rec.Entity,
		Kind:       domain.ActionBlacklist,
		Snapshot:   rec,
		ObservedAt: fixedNow(),
		Rank:       rank,
	}
}

func TestPlanTruncatesToCap(t *testing.T) {
	p := NewPlanner(1000, fixedNow)
	end := fixedNow()
	candidates := make([]domain.ActionCandidate, 1200)
	for i := range candidates {
		candidates[i] = candidate(int64(i+1), i, end)
	}

	batch := p.Plan(candidates, domain.ActionBlacklist)
	assert.Equal(t, 1000, batch.Len())
	assert.True(t, batch.Truncated)
	assert.Equal(t, 200, batch.Discarded)

	// The best ranked subset survives, in rank order.
	assert.Equal(t, int64(1), batch.Actions[0].Target.ID)
	assert.Equal(t, int64(1000), batch.Actions[999].Target.ID)
	for i, a := range batch.Actions {
		assert.Equal(t, i+1, a.Seq)
	}
}

func TestPlanNeverDuplicatesEntityKind(t *testing.T) {
	p := NewPlanner(100, fixedNow)
	end := fixedNow()
	candidates := []domain.ActionCandidate{
		candidate(1, 0, end),
		candidate(2, 1, end),
		candidate(1, 2, end),
		candidate(3, 3, end),
		candidate(2, 4, end),
	}
	batch := p.Plan(candidates, domain.ActionBlacklist)

	seen := map[domain.EntityRef]bool{}
	for _, a := range batch.Actions {
		assert.False(t, seen[a.Target], "duplicate %s", a.Target)
		seen[a.Target] = true
	}
	assert.Equal(t, 3, batch.Len())
	assert.False(t, batch.Truncated)
}

func TestPlanKeepsMostRecentSnapshot(t *testing.T) {
	p := NewPlanner(100, fixedNow)
	older := candidate(1, 0, fixedNow().Add(-24*time.Hour))
	newer := candidate(1, 5, fixedNow())
	newer.Snapshot.Cost = 42

	batch := p.Plan([]domain.ActionCandidate{older, newer}, domain.ActionBlacklist)
	require.Equal(t, 1, batch.Len())
	require.NotNil(t, batch.Actions[0].Evidence)
	assert.Equal(t, 42.0, batch.Actions[0].Evidence.Cost)

	// Same snapshot time: the better ranked candidate wins.
	a, b := candidate(1, 3, fixedNow()), candidate(1, 1, fixedNow())
	b.Snapshot.Cost = 7
	batch = p.Plan([]domain.ActionCandidate{a, b}, domain.ActionBlacklist)
	require.Equal(t, 1, batch.Len())
	assert.Equal(t, 7.0, batch.Actions[0].Evidence.Cost)
}

func TestPlanAuditLine(t *testing.T) {
	p := NewPlanner(100, fixedNow)
	c := candidate(7, 0, fixedNow())
	batch := p.Plan([]domain.ActionCandidate{c}, domain.ActionBlacklist)
	require.Equal(t, 1, batch.Len())

	a := batch.Actions[0]
	assert.Equal(t, domain.SourceRule, a.Source)
	assert.Equal(t, domain.StatusPending, a.Status)
	assert.Equal(t, domain.RuleUnderperformance, a.Audit.Rule)
	assert.Equal(t, c.Target, a.Audit.Entity)
	assert.Equal(t, fixedNow(), a.Audit.Timestamp)
	assert.Equal(t, c.Snapshot.Cost, a.Audit.Metrics[domain.FieldCost].Value)
	assert.Equal(t, domain.DefinedRatio(-1), a.Audit.Metrics[domain.FieldROI])
}

func TestBatchDedupesCallerActions(t *testing.T) {
	p := NewPlanner(2, fixedNow)
	ref := func(id int64) domain.EntityRef {
		return domain.EntityRef{Type: domain.EntityZone, ID: id, CampaignID: 1}
	}
	actions := []domain.Action{
		domain.CallerAction(domain.ActionBlacklist, ref(1), domain.ActionParams{}, fixedNow()),
		domain.CallerAction(domain.ActionBlacklist, ref(1), domain.ActionParams{}, fixedNow()),
		domain.CallerAction(domain.ActionBlacklist, ref(2), domain.ActionParams{}, fixedNow()),
		domain.CallerAction(domain.ActionBlacklist, ref(3), domain.ActionParams{}, fixedNow()),
	}
	batch := p.Batch(domain.ActionBlacklist, actions)
	assert.Equal(t, 2, batch.Len())
	assert.True(t, batch.Truncated)
	assert.Equal(t, 1, batch.Discarded)
	assert.Equal(t, domain.SourceCaller, batch.Actions[0].Source)
}
