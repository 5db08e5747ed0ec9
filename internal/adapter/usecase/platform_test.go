package usecase

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"adpilot/internal/adapter/upstream"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// fakePlatform is an in-memory ad platform. Stats rows are filtered by the
// query and served in pages.
type fakePlatform struct {
	mu sync.Mutex

	campaigns map[int64]domain.Campaign
	// rows are served for every window; rowsFor overrides per window start.
	rows    []port.StatRow
	rowsFor map[time.Time][]port.StatRow
	statErr map[time.Time]error

	zoneErr   error
	updateErr map[int64]error
	nextID    int64

	calls      map[string]int
	zoneCalls  []zoneCall
	started    [][]int64
	stopped    [][]int64
	updates    map[int64]domain.CampaignPatch
	created    []domain.CampaignDraft
	clonedFrom []int64
}

type zoneCall struct {
	campaignID int64
	zones      []int64
	mode       domain.ListMode
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		campaigns: make(map[int64]domain.Campaign),
		rowsFor:   make(map[time.Time][]port.StatRow),
		statErr:   make(map[time.Time]error),
		updateErr: make(map[int64]error),
		calls:     make(map[string]int),
		updates:   make(map[int64]domain.CampaignPatch),
		nextID:    1000,
	}
}

func (f *fakePlatform) called(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakePlatform) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func page[T any](items []T, p port.PageRequest) port.Page[T] {
	size := p.Size
	if size < 1 {
		size = port.MaxPageSize
	}
	start := (p.Page - 1) * size
	if start >= len(items) {
		return port.Page[T]{Number: p.Page}
	}
	end := min(start+size, len(items))
	return port.Page[T]{Items: items[start:end], Number: p.Page, HasMore: end < len(items)}
}

func (f *fakePlatform) ListCampaigns(_ context.Context, filter port.CampaignFilter, p port.PageRequest) (port.Page[domain.Campaign], error) {
	f.called("ListCampaigns")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Campaign
	for _, c := range f.campaigns {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Campaign) int { return int(a.ID - b.ID) })
	return page(out, p), nil
}

func (f *fakePlatform) GetCampaign(_ context.Context, id int64) (domain.Campaign, error) {
	f.called("GetCampaign")
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return domain.Campaign{}, &port.APIError{Op: "get campaign", Status: 404, Message: "not found"}
	}
	return c, nil
}

func (f *fakePlatform) CreateCampaign(_ context.Context, draft domain.CampaignDraft) (domain.Campaign, error) {
	f.called("CreateCampaign")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created = append(f.created, draft)
	c := domain.Campaign{ID: f.nextID, Name: draft.Name, Status: domain.CampaignInDraft, DailyBudget: draft.DailyBudget}
	f.campaigns[c.ID] = c
	return c, nil
}

func (f *fakePlatform) UpdateCampaign(_ context.Context, id int64, patch domain.CampaignPatch) error {
	f.called("UpdateCampaign")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[id]; err != nil {
		return err
	}
	f.updates[id] = patch
	return nil
}

func (f *fakePlatform) StartCampaigns(_ context.Context, ids []int64) error {
	f.called("StartCampaigns")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, ids)
	return nil
}

func (f *fakePlatform) StopCampaigns(_ context.Context, ids []int64) error {
	f.called("StopCampaigns")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, ids)
	return nil
}

func (f *fakePlatform) CloneCampaign(_ context.Context, id int64, name string) (domain.Campaign, error) {
	f.called("CloneCampaign")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.clonedFrom = append(f.clonedFrom, id)
	return domain.Campaign{ID: f.nextID, Name: name}, nil
}

func (f *fakePlatform) GetStats(_ context.Context, q port.StatsQuery, p port.PageRequest) (port.Page[port.StatRow], error) {
	f.called("GetStats")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statErr[q.Window.Start]; err != nil {
		return port.Page[port.StatRow]{}, err
	}
	rows, ok := f.rowsFor[q.Window.Start]
	if !ok {
		rows = f.rows
	}
	var out []port.StatRow
	for _, r := range rows {
		if r.Entity.Type != q.GroupBy {
			continue
		}
		if len(q.CampaignIDs) > 0 && !slices.Contains(q.CampaignIDs, r.Entity.CampaignID) {
			continue
		}
		if len(q.ZoneIDs) > 0 && !slices.Contains(q.ZoneIDs, r.Entity.ID) {
			continue
		}
		if len(q.CreativeIDs) > 0 && !slices.Contains(q.CreativeIDs, r.Entity.ID) {
			continue
		}
		if !q.Daily {
			// Without a date grouping upstream rows carry no day.
			r.Day = time.Time{}
		}
		out = append(out, r)
	}
	return page(out, p), nil
}

func (f *fakePlatform) ListCreatives(_ context.Context, campaignID int64, p port.PageRequest) (port.Page[domain.Creative], error) {
	f.called("ListCreatives")
	return page([]domain.Creative{{ID: 1, CampaignID: campaignID, Title: "banner", Active: true}}, p), nil
}

func (f *fakePlatform) SetZoneList(_ context.Context, campaignID int64, zoneIDs []int64, mode domain.ListMode) error {
	f.called("SetZoneList")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.zoneErr != nil {
		return f.zoneErr
	}
	f.zoneCalls = append(f.zoneCalls, zoneCall{campaignID: campaignID, zones: slices.Clone(zoneIDs), mode: mode})
	return nil
}

func (f *fakePlatform) GetBalance(context.Context) (domain.Balance, error) {
	f.called("GetBalance")
	return domain.Balance{Amount: 123.45, Currency: "USD"}, nil
}

func (f *fakePlatform) GetCountries(context.Context) ([]domain.Country, error) {
	f.called("GetCountries")
	return []domain.Country{{Code: "US", Name: "United States"}}, nil
}

func (f *fakePlatform) GetAdFormats(context.Context) ([]domain.AdFormat, error) {
	f.called("GetAdFormats")
	return []domain.AdFormat{{Code: "push", Name: "Push"}}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// paced wraps fake in an unthrottled upstream client with small pages.
func paced(t *testing.T, fake *fakePlatform) (*upstream.Platform, *upstream.Client) {
	t.Helper()
	client := upstream.NewClient(rate.NewLimiter(rate.Inf, 1), upstream.Config{PageSize: 2, MaxAttempts: 1}, discard())
	return upstream.NewPlatform(fake, client), client
}

func zoneRow(campaignID, zoneID int64, cost float64, conversions int64, revenue float64) port.StatRow {
	return port.StatRow{
		Entity:      domain.EntityRef{Type: domain.EntityZone, ID: zoneID, CampaignID: campaignID},
		Impressions: 1000,
		Clicks:      10,
		Conversions: conversions,
		Cost:        cost,
		Revenue:     revenue,
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
}
