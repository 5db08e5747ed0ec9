package domain

// Creative represents a single ad creative attached to a campaign.
type Creative struct {
	ID         int64  `json:"id"`
	CampaignID int64  `json:"campaign_id"`
	Title      string `json:"title,omitempty"`
	Active     bool   `json:"active"`
}
