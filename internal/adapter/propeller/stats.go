package propeller

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

var groupByField = map[domain.EntityType]string{
	domain.EntityCampaign: "campaign_id",
	domain.EntityZone:     "zone_id",
	domain.EntityCreative: "creative_id",
}

// GetStats queries /adv/statistics. Upstream day ranges are inclusive, so
// the half-open window is converted to its first and last day.
func (c *Client) GetStats(ctx context.Context, query port.StatsQuery, page port.PageRequest) (port.Page[port.StatRow], error) {
	field, ok := groupByField[query.GroupBy]
	if !ok {
		return port.Page[port.StatRow]{}, fmt.Errorf("statistics cannot be grouped by %q", query.GroupBy)
	}

	q := pageQuery(url.Values{}, page)
	q.Set("day_from", query.Window.FirstDay())
	q.Set("day_to", query.Window.LastDay())
	groups := []string{field}
	if query.GroupBy != domain.EntityCampaign {
		// Keep the parent campaign on zone and creative rows.
		groups = append(groups, "campaign_id")
	}
	if query.Daily {
		groups = append(groups, "date_time")
	}
	for i, g := range groups {
		q.Set(fmt.Sprintf("group_by[%d]", i), g)
	}
	indexed(q, "campaign_id", query.CampaignIDs)
	indexed(q, "zone_id", query.ZoneIDs)
	indexed(q, "creative_id", query.CreativeIDs)
	if c.timezone != "" {
		q.Set("tz", c.timezone)
	}

	var dtos []statRowDTO
	if err := c.do(ctx, http.MethodGet, "/adv/statistics", q, nil, &dtos); err != nil {
		return port.Page[port.StatRow]{}, err
	}

	rows := make([]port.StatRow, len(dtos))
	for i, d := range dtos {
		rows[i] = port.StatRow{
			Entity:      d.entity(query.GroupBy),
			Day:         parseTime(d.DateTime),
			Impressions: int64(d.Impressions),
			Clicks:      int64(d.Clicks),
			Conversions: int64(d.Conversions),
			Cost:        d.cost(),
			Revenue:     float64(d.Revenue),
		}
	}
	return port.Page[port.StatRow]{Items: rows, Number: page.Page, HasMore: hasMore(len(dtos), page)}, nil
}
