package usecase

import (
	"cmp"
	"slices"
	"time"

	"adpilot/internal/core/domain"
)

// DefaultMaxBatchSize keeps an accidental mass mutation small.
const DefaultMaxBatchSize = 100

// Planner builds action batches from candidates.
type Planner struct {
	maxBatch int
	now      func() time.Time
}

// NewPlanner creates a Planner capping batches at maxBatch actions.
func NewPlanner(maxBatch int, now func() time.Time) *Planner {
	if maxBatch < 1 {
		maxBatch = DefaultMaxBatchSize
	}
	if now == nil {
		now = time.Now
	}
	return &Planner{maxBatch: maxBatch, now: now}
}

type actionKey struct {
	entity domain.EntityRef
	kind   domain.ActionKind
}

// Plan converts candidates into a batch of kind actions. Candidates for the
// same entity are collapsed into the one with the most recent snapshot;
// on a tie the better ranked one wins. When more actions remain than the
// batch cap, the best ranked ones are kept and the batch is flagged as
// truncated. Every action gets an audit line with the metrics it was
// based on.
func (p *Planner) Plan(candidates []domain.ActionCandidate, kind domain.ActionKind) domain.ActionBatch {
	type entry struct {
		c   domain.ActionCandidate
		pos int
	}
	best := make(map[actionKey]entry, len(candidates))
	for i, c := range candidates {
		key := actionKey{entity: c.Target, kind: kind}
		prev, ok := best[key]
		if !ok || newer(c, prev.c) {
			best[key] = entry{c: c, pos: i}
		}
	}

	kept := make([]entry, 0, len(best))
	for _, e := range best {
		kept = append(kept, e)
	}
	slices.SortFunc(kept, func(a, b entry) int {
		if c := cmp.Compare(a.c.Rank, b.c.Rank); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})

	now := p.now()
	actions := make([]domain.Action, len(kept))
	for i, e := range kept {
		snapshot := e.c.Snapshot
		actions[i] = domain.Action{
			Kind:     kind,
			Target:   e.c.Target,
			Source:   domain.SourceRule,
			Rule:     e.c.Rule,
			Evidence: &snapshot,
			Params:   e.c.Params,
			Status:   domain.StatusPending,
			Audit: domain.AuditLine{
				Rule:      e.c.Rule,
				Source:    domain.SourceRule,
				Entity:    e.c.Target,
				Metrics:   snapshot.Values(),
				Timestamp: now,
			},
		}
	}
	return p.assemble(kind, actions, now)
}

// newer reports whether a should replace b for the same entity.
func newer(a, b domain.ActionCandidate) bool {
	if c := a.Snapshot.Window.End.Compare(b.Snapshot.Window.End); c != 0 {
		return c > 0
	}
	if c := a.ObservedAt.Compare(b.ObservedAt); c != 0 {
		return c > 0
	}
	return a.Rank < b.Rank
}

// Batch wraps caller-built actions. Duplicates of the same (entity, kind)
// keep the first occurrence and the batch cap applies as in Plan.
func (p *Planner) Batch(kind domain.ActionKind, actions []domain.Action) domain.ActionBatch {
	seen := make(map[actionKey]bool, len(actions))
	out := make([]domain.Action, 0, len(actions))
	for _, a := range actions {
		key := actionKey{entity: a.Target, kind: a.Kind}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return p.assemble(kind, out, p.now())
}

func (p *Planner) assemble(kind domain.ActionKind, actions []domain.Action, now time.Time) domain.ActionBatch {
	batch := domain.ActionBatch{Kind: kind, PlannedAt: now}
	if len(actions) > p.maxBatch {
		batch.Truncated = true
		batch.Discarded = len(actions) - p.maxBatch
		actions = actions[:p.maxBatch]
	}
	for i := range actions {
		actions[i].Seq = i + 1
		if actions[i].Status == "" {
			actions[i].Status = domain.StatusPending
		}
	}
	batch.Actions = actions
	return batch
}
