package propeller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

func (c *Client) ListCampaigns(ctx context.Context, filter port.CampaignFilter, page port.PageRequest) (port.Page[domain.Campaign], error) {
	q := pageQuery(nil, page)
	if filter.Status != nil {
		for i, code := range codesForStatus(*filter.Status) {
			q.Set(fmt.Sprintf("status[%d]", i), strconv.Itoa(code))
		}
		if *filter.Status == domain.CampaignArchived {
			q.Set("is_archived", "1")
		}
	}
	if filter.Status == nil || *filter.Status != domain.CampaignArchived {
		q.Set("is_archived", "0")
	}
	if filter.AdFormat != "" {
		q.Set("formats[0]", filter.AdFormat)
	}

	var dtos []campaignDTO
	if err := c.do(ctx, http.MethodGet, "/adv/campaigns", q, nil, &dtos); err != nil {
		return port.Page[domain.Campaign]{}, err
	}

	needle := strings.ToLower(filter.Name)
	items := make([]domain.Campaign, 0, len(dtos))
	for _, d := range dtos {
		if needle != "" && !strings.Contains(strings.ToLower(d.Name), needle) {
			continue
		}
		items = append(items, d.toDomain())
	}
	return port.Page[domain.Campaign]{Items: items, Number: page.Page, HasMore: hasMore(len(dtos), page)}, nil
}

func (c *Client) GetCampaign(ctx context.Context, id int64) (domain.Campaign, error) {
	var dto campaignDTO
	if err := c.do(ctx, http.MethodGet, "/adv/campaigns/"+strconv.FormatInt(id, 10), nil, nil, &dto); err != nil {
		return domain.Campaign{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) CreateCampaign(ctx context.Context, draft domain.CampaignDraft) (domain.Campaign, error) {
	var dto campaignDTO
	if err := c.do(ctx, http.MethodPost, "/adv/campaigns", nil, newCreateCampaignDTO(draft), &dto); err != nil {
		return domain.Campaign{}, err
	}
	created := dto.toDomain()
	if created.Name == "" {
		created.Name = draft.Name
	}
	return created, nil
}

// UpdateCampaign applies a patch. A status change goes through the start or
// stop endpoint because the update endpoint ignores it.
func (c *Client) UpdateCampaign(ctx context.Context, id int64, patch domain.CampaignPatch) error {
	if body, ok := newUpdateCampaignDTO(patch); ok {
		if err := c.do(ctx, http.MethodPut, "/adv/campaigns/"+strconv.FormatInt(id, 10), nil, body, nil); err != nil {
			return err
		}
	}
	if patch.Status == nil {
		return nil
	}
	switch *patch.Status {
	case domain.CampaignActive:
		return c.StartCampaigns(ctx, []int64{id})
	case domain.CampaignPaused:
		return c.StopCampaigns(ctx, []int64{id})
	}
	return fmt.Errorf("campaign %d: status %q cannot be set directly", id, *patch.Status)
}

type idsBody struct {
	IDs []int64 `json:"ids"`
}

func (c *Client) StartCampaigns(ctx context.Context, ids []int64) error {
	return c.do(ctx, http.MethodPost, "/adv/campaigns/start", nil, idsBody{IDs: ids}, nil)
}

func (c *Client) StopCampaigns(ctx context.Context, ids []int64) error {
	return c.do(ctx, http.MethodPost, "/adv/campaigns/stop", nil, idsBody{IDs: ids}, nil)
}

func (c *Client) CloneCampaign(ctx context.Context, id int64, name string) (domain.Campaign, error) {
	var body any
	if name != "" {
		body = map[string]string{"name": name}
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/adv/campaigns/"+strconv.FormatInt(id, 10)+"/clone", nil, body, &raw); err != nil {
		return domain.Campaign{}, err
	}
	// The clone endpoint answers either with the campaign or its bare id.
	var dto campaignDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		var newID flexInt
		if err := newID.UnmarshalJSON(raw); err != nil {
			return domain.Campaign{}, fmt.Errorf("clone campaign %d: unexpected response: %w", id, err)
		}
		dto.ID = newID
	}
	clone := dto.toDomain()
	if clone.Name == "" {
		clone.Name = name
	}
	return clone, nil
}

func (c *Client) ListCreatives(ctx context.Context, campaignID int64, page port.PageRequest) (port.Page[domain.Creative], error) {
	q := pageQuery(nil, page)
	if campaignID != 0 {
		q.Set("campaign_id", strconv.FormatInt(campaignID, 10))
	}
	var dtos []creativeDTO
	if err := c.do(ctx, http.MethodGet, "/adv/creatives", q, nil, &dtos); err != nil {
		return port.Page[domain.Creative]{}, err
	}
	items := make([]domain.Creative, len(dtos))
	for i, d := range dtos {
		items[i] = d.toDomain()
		if items[i].CampaignID == 0 {
			items[i].CampaignID = campaignID
		}
	}
	return port.Page[domain.Creative]{Items: items, Number: page.Page, HasMore: hasMore(len(dtos), page)}, nil
}

type zoneListBody struct {
	ZoneIDs []int64 `json:"zone_ids"`
}

func (c *Client) SetZoneList(ctx context.Context, campaignID int64, zoneIDs []int64, mode domain.ListMode) error {
	if _, err := domain.MembershipFor(mode); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("/adv/campaigns/%d/targeting/zones/%s", campaignID, url.PathEscape(string(mode)))
	return c.do(ctx, http.MethodPost, endpoint, nil, zoneListBody{ZoneIDs: zoneIDs}, nil)
}
