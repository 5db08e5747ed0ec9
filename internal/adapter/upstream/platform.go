package upstream

import (
	"context"
	"strconv"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// Platform decorates an AdPlatformClient so that every call is paced and
// retried by a Client. Reads use Read, mutations use Mutate.
type Platform struct {
	inner  port.AdPlatformClient
	client *Client
}

var _ port.AdPlatformClient = (*Platform)(nil)

// NewPlatform wraps inner.
func NewPlatform(inner port.AdPlatformClient, client *Client) *Platform {
	return &Platform{inner: inner, client: client}
}

// Client returns the executor, e.g. for Paginate.
func (p *Platform) Client() *Client { return p.client }

func (p *Platform) ListCampaigns(ctx context.Context, filter port.CampaignFilter, page port.PageRequest) (port.Page[domain.Campaign], error) {
	var out port.Page[domain.Campaign]
	err := p.client.Read(ctx, "list campaigns", func(ctx context.Context) error {
		var err error
		out, err = p.inner.ListCampaigns(ctx, filter, page)
		return err
	})
	return out, err
}

func (p *Platform) GetCampaign(ctx context.Context, id int64) (domain.Campaign, error) {
	var out domain.Campaign
	err := p.client.Read(ctx, "get campaign "+strconv.FormatInt(id, 10), func(ctx context.Context) error {
		var err error
		out, err = p.inner.GetCampaign(ctx, id)
		return err
	})
	return out, err
}

func (p *Platform) CreateCampaign(ctx context.Context, draft domain.CampaignDraft) (domain.Campaign, error) {
	var out domain.Campaign
	err := p.client.Mutate(ctx, "create campaign", func(ctx context.Context) error {
		var err error
		out, err = p.inner.CreateCampaign(ctx, draft)
		return err
	})
	return out, err
}

func (p *Platform) UpdateCampaign(ctx context.Context, id int64, patch domain.CampaignPatch) error {
	return p.client.Mutate(ctx, "update campaign "+strconv.FormatInt(id, 10), func(ctx context.Context) error {
		return p.inner.UpdateCampaign(ctx, id, patch)
	})
}

func (p *Platform) StartCampaigns(ctx context.Context, ids []int64) error {
	return p.client.Mutate(ctx, "start campaigns", func(ctx context.Context) error {
		return p.inner.StartCampaigns(ctx, ids)
	})
}

func (p *Platform) StopCampaigns(ctx context.Context, ids []int64) error {
	return p.client.Mutate(ctx, "stop campaigns", func(ctx context.Context) error {
		return p.inner.StopCampaigns(ctx, ids)
	})
}

func (p *Platform) CloneCampaign(ctx context.Context, id int64, name string) (domain.Campaign, error) {
	var out domain.Campaign
	err := p.client.Mutate(ctx, "clone campaign "+strconv.FormatInt(id, 10), func(ctx context.Context) error {
		var err error
		out, err = p.inner.CloneCampaign(ctx, id, name)
		return err
	})
	return out, err
}

func (p *Platform) GetStats(ctx context.Context, query port.StatsQuery, page port.PageRequest) (port.Page[port.StatRow], error) {
	var out port.Page[port.StatRow]
	err := p.client.Read(ctx, "get "+string(query.GroupBy)+" stats", func(ctx context.Context) error {
		var err error
		out, err = p.inner.GetStats(ctx, query, page)
		return err
	})
	return out, err
}

func (p *Platform) ListCreatives(ctx context.Context, campaignID int64, page port.PageRequest) (port.Page[domain.Creative], error) {
	var out port.Page[domain.Creative]
	err := p.client.Read(ctx, "list creatives", func(ctx context.Context) error {
		var err error
		out, err = p.inner.ListCreatives(ctx, campaignID, page)
		return err
	})
	return out, err
}

func (p *Platform) SetZoneList(ctx context.Context, campaignID int64, zoneIDs []int64, mode domain.ListMode) error {
	op := "add zones to " + string(mode) + " of campaign " + strconv.FormatInt(campaignID, 10)
	return p.client.Mutate(ctx, op, func(ctx context.Context) error {
		return p.inner.SetZoneList(ctx, campaignID, zoneIDs, mode)
	})
}

func (p *Platform) GetBalance(ctx context.Context) (domain.Balance, error) {
	var out domain.Balance
	err := p.client.Read(ctx, "get balance", func(ctx context.Context) error {
		var err error
		out, err = p.inner.GetBalance(ctx)
		return err
	})
	return out, err
}

func (p *Platform) GetCountries(ctx context.Context) ([]domain.Country, error) {
	var out []domain.Country
	err := p.client.Read(ctx, "get countries", func(ctx context.Context) error {
		var err error
		out, err = p.inner.GetCountries(ctx)
		return err
	})
	return out, err
}

func (p *Platform) GetAdFormats(ctx context.Context) ([]domain.AdFormat, error) {
	var out []domain.AdFormat
	err := p.client.Read(ctx, "get ad formats", func(ctx context.Context) error {
		var err error
		out, err = p.inner.GetAdFormats(ctx)
		return err
	})
	return out, err
}
