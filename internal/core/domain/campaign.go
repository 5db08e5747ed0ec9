package domain

import "time"

// CampaignStatus is the normalised lifecycle state of a campaign. The
// upstream platform reports a finer set of numeric codes which adapters
// fold into these four values.
type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "active"
	CampaignPaused   CampaignStatus = "paused"
	CampaignInDraft  CampaignStatus = "draft"
	CampaignArchived CampaignStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignActive, CampaignPaused, CampaignInDraft, CampaignArchived:
		return true
	}
	return false
}

// Campaign represents an advertising campaign owned by the account.
// Budgets and bids are expressed in account currency units (USD).
type Campaign struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Status      CampaignStatus `json:"status"`
	Targeting   Targeting      `json:"targeting"`
	BidModel    string         `json:"bid_model,omitempty"`
	Bid         float64        `json:"bid"`
	DailyBudget float64        `json:"daily_budget"`
	TotalBudget float64        `json:"total_budget,omitempty"`
	TargetURL   string         `json:"target_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CampaignDraft carries the fields needed to create a campaign.
type CampaignDraft struct {
	Name        string   `json:"name"`
	AdFormat    string   `json:"ad_format"`
	Countries   []string `json:"countries"`
	DailyBudget float64  `json:"daily_budget"`
	TotalBudget float64  `json:"total_budget,omitempty"`
	Bid         float64  `json:"bid"`
	BidModel    string   `json:"bid_model,omitempty"`
	TargetURL   string   `json:"target_url"`
}

// CampaignPatch is a partial update. Nil fields are left untouched.
type CampaignPatch struct {
	Name        *string         `json:"name,omitempty"`
	DailyBudget *float64        `json:"daily_budget,omitempty"`
	TotalBudget *float64        `json:"total_budget,omitempty"`
	Bid         *float64        `json:"bid,omitempty"`
	Status      *CampaignStatus `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p CampaignPatch) Empty() bool {
	return p.Name == nil && p.DailyBudget == nil && p.TotalBudget == nil && p.Bid == nil && p.Status == nil
}

// Balance is the account balance as reported upstream.
type Balance struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Country is a targetable country.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AdFormat is an ad format offered by the platform.
type AdFormat struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
