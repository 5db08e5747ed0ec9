package port

import (
	"context"
	"time"

	"adpilot/internal/core/domain"
)

// MaxPageSize is the largest page the upstream accepts.
const MaxPageSize = 100

// AdPlatformClient is the outbound port to the advertising platform. The
// engine depends only on this shape; implementations must be safe for
// concurrent use.
type AdPlatformClient interface {
	// ListCampaigns returns one page of campaigns matching the filter.
	ListCampaigns(ctx context.Context, filter CampaignFilter, page PageRequest) (Page[domain.Campaign], error)
	// GetCampaign returns a single campaign.
	GetCampaign(ctx context.Context, id int64) (domain.Campaign, error)
	CreateCampaign(ctx context.Context, draft domain.CampaignDraft) (domain.Campaign, error)
	UpdateCampaign(ctx context.Context, id int64, patch domain.CampaignPatch) error
	StartCampaigns(ctx context.Context, ids []int64) error
	StopCampaigns(ctx context.Context, ids []int64) error
	// CloneCampaign copies a campaign and returns the new one. An empty
	// name lets the upstream pick one.
	CloneCampaign(ctx context.Context, id int64, name string) (domain.Campaign, error)
	// GetStats returns one page of statistics rows grouped by the query's
	// entity type.
	GetStats(ctx context.Context, query StatsQuery, page PageRequest) (Page[StatRow], error)
	ListCreatives(ctx context.Context, campaignID int64, page PageRequest) (Page[domain.Creative], error)
	// SetZoneList adds zones to the whitelist or blacklist of a campaign.
	SetZoneList(ctx context.Context, campaignID int64, zoneIDs []int64, mode domain.ListMode) error
	GetBalance(ctx context.Context) (domain.Balance, error)
	GetCountries(ctx context.Context) ([]domain.Country, error)
	GetAdFormats(ctx context.Context) ([]domain.AdFormat, error)
}

// PageRequest selects a 1-based page.
type PageRequest struct {
	Page int
	Size int
}

// Page is one upstream page. HasMore is false on the last page.
type Page[T any] struct {
	Items   []T
	Number  int
	HasMore bool
}

// CampaignFilter narrows campaign listings. Zero values match everything.
type CampaignFilter struct {
	Status   *domain.CampaignStatus
	AdFormat string
	// Name matches campaigns whose name contains it, case-insensitively.
	Name string
}

// StatsQuery selects statistics rows. Rows are grouped by GroupBy and
// restricted to the given ids when they are set. Daily adds a per-day
// grouping so every row carries its Day.
type StatsQuery struct {
	GroupBy     domain.EntityType
	Window      domain.Window
	Daily       bool
	CampaignIDs []int64
	ZoneIDs     []int64
	CreativeIDs []int64
}

// StatRow is one raw statistics row. Several rows may describe the same
// entity, e.g. one per day or per page.
type StatRow struct {
	Entity      domain.EntityRef
	Day         time.Time
	Impressions int64
	Clicks      int64
	Conversions int64
	Cost        float64
	Revenue     float64
}

// Record converts the row into a metric record over w.
func (r StatRow) Record(w domain.Window) domain.MetricRecord {
	return domain.MetricRecord{
		Entity:      r.Entity,
		Window:      w,
		Impressions: r.Impressions,
		Clicks:      r.Clicks,
		Conversions: r.Conversions,
		Cost:        r.Cost,
		Revenue:     r.Revenue,
	}
}
