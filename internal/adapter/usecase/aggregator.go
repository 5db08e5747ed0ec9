package usecase

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"adpilot/internal/adapter/upstream"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// AggregateRequest selects the entities and window to summarise.
type AggregateRequest struct {
	EntityType domain.EntityType
	// IDs restricts the result; every requested id gets a record even
	// without traffic. Empty means every entity with rows.
	IDs []int64
	// CampaignID scopes zone and creative statistics to one campaign.
	CampaignID int64
	Window     domain.Window
	// Daily splits every entity into one record per day. Day windows are
	// half-open and never overlap.
	Daily bool
}

// Aggregation is the per-entity summary of one window.
type Aggregation struct {
	EntityType domain.EntityType `json:"entity_type"`
	Window     domain.Window     `json:"window"`
	// Records are sorted by entity id, then by window start.
	Records []domain.MetricRecord    `json:"records"`
	Warning *port.PartialDataWarning `json:"warning,omitempty"`
}

// ByID merges the records of every entity over the whole window.
func (a Aggregation) ByID() map[int64]domain.MetricRecord {
	out := make(map[int64]domain.MetricRecord, len(a.Records))
	for _, r := range a.Records {
		if prev, ok := out[r.Entity.ID]; ok {
			out[r.Entity.ID] = prev.Merge(r)
			continue
		}
		r.Window = a.Window
		out[r.Entity.ID] = r
	}
	return out
}

// Entities returns one whole-window record per entity, sorted by id.
func (a Aggregation) Entities() []domain.MetricRecord {
	byID := a.ByID()
	out := make([]domain.MetricRecord, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	slices.SortFunc(out, func(x, y domain.MetricRecord) int { return cmp.Compare(x.Entity.ID, y.Entity.ID) })
	return out
}

// Totals merges every record into one account level record.
func (a Aggregation) Totals() domain.MetricRecord {
	total := domain.MetricRecord{Entity: domain.EntityRef{Type: a.EntityType}, Window: a.Window}
	for _, r := range a.Records {
		total = total.Merge(r)
	}
	return total
}

// Aggregator fetches statistics through the rate limited client and folds
// them into per-entity metric records.
type Aggregator struct {
	platform port.AdPlatformClient
	pager    *upstream.Client
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator. platform must be the paced client
// and pager the executor it runs on.
func NewAggregator(platform port.AdPlatformClient, pager *upstream.Client, logger *slog.Logger) *Aggregator {
	return &Aggregator{platform: platform, pager: pager, logger: logger}
}

type recordKey struct {
	id  int64
	day time.Time
}

// Aggregate sums every statistics row of the requested entities. Rows of
// the same entity are merged by summing counts and money, so page order
// does not matter. Requested ids without rows get an empty record and are
// listed in the result's PartialDataWarning.
func (a *Aggregator) Aggregate(ctx context.Context, req AggregateRequest) (Aggregation, error) {
	if !req.EntityType.Valid() {
		return Aggregation{}, port.NewValidationError("aggregate", "entity_type", fmt.Sprintf("unknown entity type %q", req.EntityType))
	}
	if err := req.Window.Validate(); err != nil {
		return Aggregation{}, port.NewValidationError("aggregate", "window", err.Error())
	}

	query := port.StatsQuery{GroupBy: req.EntityType, Window: req.Window, Daily: req.Daily}
	switch req.EntityType {
	case domain.EntityCampaign:
		query.CampaignIDs = req.IDs
	case domain.EntityZone:
		query.ZoneIDs = req.IDs
	case domain.EntityCreative:
		query.CreativeIDs = req.IDs
	}
	if req.CampaignID != 0 && req.EntityType != domain.EntityCampaign {
		query.CampaignIDs = []int64{req.CampaignID}
	}

	wanted := make(map[int64]bool, len(req.IDs))
	for _, id := range req.IDs {
		wanted[id] = true
	}

	merged := make(map[recordKey]domain.MetricRecord)
	op := fmt.Sprintf("%s stats %s", req.EntityType, req.Window)
	pages := upstream.Paginate(ctx, a.pager, op, func(ctx context.Context, page port.PageRequest) (port.Page[port.StatRow], error) {
		return a.platform.GetStats(ctx, query, page)
	})
	rows := 0
	for page, err := range pages {
		if err != nil {
			return Aggregation{}, fmt.Errorf("aggregate %s: %w", op, err)
		}
		for _, row := range page.Items {
			if !a.accept(req, wanted, row) {
				continue
			}
			rows++
			key, window := recordKey{id: row.Entity.ID}, req.Window
			if req.Daily && !row.Day.IsZero() {
				window = domain.DayWindow(row.Day, row.Day)
				key.day = window.Start
			}
			rec := row.Record(window)
			if req.CampaignID != 0 {
				rec.Entity.CampaignID = req.CampaignID
			}
			if prev, ok := merged[key]; ok {
				if prev.Entity.CampaignID != rec.Entity.CampaignID {
					// Same zone in several campaigns: keep the entity level sum.
					prev.Entity.CampaignID = 0
				}
				rec = prev.Merge(rec)
			}
			merged[key] = rec
		}
	}

	agg := Aggregation{EntityType: req.EntityType, Window: req.Window}
	seen := make(map[int64]bool, len(merged))
	for key, rec := range merged {
		seen[key.id] = true
		agg.Records = append(agg.Records, rec)
	}

	var missing []domain.EntityRef
	for _, id := range req.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ref := domain.EntityRef{Type: req.EntityType, ID: id, CampaignID: req.CampaignID}
		if req.EntityType == domain.EntityCampaign {
			ref.CampaignID = id
		}
		missing = append(missing, ref)
		agg.Records = append(agg.Records, domain.MetricRecord{Entity: ref, Window: req.Window})
	}
	if len(missing) > 0 {
		agg.Warning = &port.PartialDataWarning{Missing: missing, Window: req.Window}
		a.logger.Warn("no statistics for requested entities",
			slog.String("entity_type", string(req.EntityType)),
			slog.Int("missing", len(missing)),
			slog.String("window", req.Window.String()))
	}

	slices.SortFunc(agg.Records, func(x, y domain.MetricRecord) int {
		if c := cmp.Compare(x.Entity.ID, y.Entity.ID); c != 0 {
			return c
		}
		return x.Window.Start.Compare(y.Window.Start)
	})

	a.logger.Debug("aggregated statistics",
		slog.String("entity_type", string(req.EntityType)),
		slog.Int("rows", rows),
		slog.Int("entities", len(seen)))
	return agg, nil
}

// accept drops rows the upstream returned despite the filters.
func (a *Aggregator) accept(req AggregateRequest, wanted map[int64]bool, row port.StatRow) bool {
	if row.Entity.Type != req.EntityType {
		return false
	}
	if len(wanted) > 0 && !wanted[row.Entity.ID] {
		return false
	}
	if req.CampaignID != 0 && row.Entity.CampaignID != 0 && row.Entity.CampaignID != req.CampaignID {
		return false
	}
	return true
}

// CompareRequest selects two non-overlapping windows to compare.
type CompareRequest struct {
	EntityType domain.EntityType
	IDs        []int64
	CampaignID int64
	A, B       domain.Window
}

// PeriodDelta holds one entity over both windows. Delta is the signed
// percentage change from A to B per field.
type PeriodDelta struct {
	Entity domain.EntityRef              `json:"entity"`
	A      domain.MetricRecord           `json:"a"`
	B      *domain.MetricRecord          `json:"b,omitempty"`
	Delta  map[domain.Field]domain.Ratio `json:"delta,omitempty"`
}

// Comparison is the result of ComparePeriods.
type Comparison struct {
	A        domain.Window                 `json:"window_a"`
	B        domain.Window                 `json:"window_b"`
	Entries  []PeriodDelta                 `json:"entries"`
	TotalA   domain.MetricRecord           `json:"total_a"`
	TotalB   *domain.MetricRecord          `json:"total_b,omitempty"`
	Delta    map[domain.Field]domain.Ratio `json:"delta,omitempty"`
	Warnings []*port.PartialDataWarning    `json:"warnings,omitempty"`
}

// ComparePeriods aggregates both windows and computes per-field deltas.
// An entity present in only one window gets an all-zero record for the
// other. When window B fails after A succeeded, the comparison holds A's
// data and the error is returned alongside it.
func (a *Aggregator) ComparePeriods(ctx context.Context, req CompareRequest) (Comparison, error) {
	if err := req.A.Validate(); err != nil {
		return Comparison{}, port.NewValidationError("compare periods", "period1", err.Error())
	}
	if err := req.B.Validate(); err != nil {
		return Comparison{}, port.NewValidationError("compare periods", "period2", err.Error())
	}
	if req.A.Overlaps(req.B) {
		return Comparison{}, port.NewValidationError("compare periods", "period2",
			fmt.Sprintf("window %s overlaps %s", req.B, req.A))
	}

	base := AggregateRequest{EntityType: req.EntityType, IDs: req.IDs, CampaignID: req.CampaignID}

	reqA := base
	reqA.Window = req.A
	aggA, err := a.Aggregate(ctx, reqA)
	if err != nil {
		return Comparison{}, fmt.Errorf("compare periods: window %s: %w", req.A, err)
	}

	out := Comparison{A: req.A, B: req.B, TotalA: aggA.Totals()}
	if aggA.Warning != nil {
		out.Warnings = append(out.Warnings, aggA.Warning)
	}

	reqB := base
	reqB.Window = req.B
	aggB, err := a.Aggregate(ctx, reqB)
	if err != nil {
		for _, rec := range aggA.Entities() {
			out.Entries = append(out.Entries, PeriodDelta{Entity: rec.Entity, A: rec})
		}
		return out, fmt.Errorf("compare periods: window %s: %w", req.B, err)
	}
	if aggB.Warning != nil {
		out.Warnings = append(out.Warnings, aggB.Warning)
	}

	byA, byB := aggA.ByID(), aggB.ByID()
	ids := make([]int64, 0, len(byA)+len(byB))
	for id := range byA {
		ids = append(ids, id)
	}
	for id := range byB {
		if _, ok := byA[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	for _, id := range ids {
		recA, okA := byA[id]
		recB, okB := byB[id]
		if !okA {
			recA = domain.MetricRecord{Entity: recB.Entity, Window: req.A}
		}
		if !okB {
			recB = domain.MetricRecord{Entity: recA.Entity, Window: req.B}
		}
		out.Entries = append(out.Entries, PeriodDelta{
			Entity: recA.Entity,
			A:      recA,
			B:      &recB,
			Delta:  domain.Delta(recA, recB),
		})
	}

	totalB := aggB.Totals()
	out.TotalB = &totalB
	out.Delta = domain.Delta(out.TotalA, totalB)
	return out, nil
}
