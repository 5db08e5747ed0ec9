package propeller

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"adpilot/internal/core/domain"
)

// flexFloat accepts numbers encoded either as JSON numbers or strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexInt is flexFloat for counters and ids.
type flexInt int64

func (i *flexInt) UnmarshalJSON(data []byte) error {
	var f flexFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*i = flexInt(f)
	return nil
}

// Upstream campaign status codes.
const (
	statusDraft      = 1
	statusModeration = 2
	statusRejected   = 3
	statusReady      = 4
	statusWorking    = 6
	statusPaused     = 7
	statusStopped    = 8
	statusCompleted  = 9
)

func statusFromCode(code int) domain.CampaignStatus {
	switch code {
	case statusWorking:
		return domain.CampaignActive
	case statusPaused:
		return domain.CampaignPaused
	case statusStopped, statusCompleted:
		return domain.CampaignArchived
	default:
		return domain.CampaignInDraft
	}
}

func codesForStatus(s domain.CampaignStatus) []int {
	switch s {
	case domain.CampaignActive:
		return []int{statusWorking}
	case domain.CampaignPaused:
		return []int{statusPaused}
	case domain.CampaignArchived:
		return []int{statusStopped, statusCompleted}
	case domain.CampaignInDraft:
		return []int{statusDraft, statusModeration, statusRejected, statusReady}
	}
	return nil
}

type rateDTO struct {
	Amount    flexFloat `json:"amount"`
	Countries []string  `json:"countries,omitempty"`
}

type countryListDTO struct {
	List       []string `json:"list"`
	IsExcluded bool     `json:"is_excluded"`
}

type targetingDTO struct {
	Country countryListDTO `json:"country"`
}

type campaignDTO struct {
	ID          flexInt      `json:"id"`
	Name        string       `json:"name"`
	Status      flexInt      `json:"status"`
	Direction   string       `json:"direction"`
	RateModel   string       `json:"rate_model"`
	TargetURL   string       `json:"target_url"`
	DailyAmount flexFloat    `json:"daily_amount"`
	TotalAmount flexFloat    `json:"total_amount"`
	Rates       []rateDTO    `json:"rates"`
	Targeting   targetingDTO `json:"targeting"`
	CreatedAt   string       `json:"created_at"`
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", domain.DateLayout}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (d campaignDTO) toDomain() domain.Campaign {
	c := domain.Campaign{
		ID:          int64(d.ID),
		Name:        d.Name,
		Status:      statusFromCode(int(d.Status)),
		BidModel:    d.RateModel,
		DailyBudget: float64(d.DailyAmount),
		TotalBudget: float64(d.TotalAmount),
		TargetURL:   d.TargetURL,
		CreatedAt:   parseTime(d.CreatedAt),
		Targeting: domain.Targeting{
			AdFormat:  d.Direction,
			Countries: d.Targeting.Country.List,
		},
	}
	if len(d.Rates) > 0 {
		c.Bid = float64(d.Rates[0].Amount)
		if len(c.Targeting.Countries) == 0 {
			c.Targeting.Countries = d.Rates[0].Countries
		}
	}
	return c
}

type createCampaignDTO struct {
	Name        string       `json:"name"`
	Direction   string       `json:"direction"`
	RateModel   string       `json:"rate_model,omitempty"`
	TargetURL   string       `json:"target_url"`
	DailyAmount float64      `json:"daily_amount"`
	TotalAmount float64      `json:"total_amount,omitempty"`
	Rates       []rateDTO    `json:"rates"`
	Targeting   targetingDTO `json:"targeting"`
}

func newCreateCampaignDTO(d domain.CampaignDraft) createCampaignDTO {
	return createCampaignDTO{
		Name:        d.Name,
		Direction:   d.AdFormat,
		RateModel:   d.BidModel,
		TargetURL:   d.TargetURL,
		DailyAmount: d.DailyBudget,
		TotalAmount: d.TotalBudget,
		Rates:       []rateDTO{{Amount: flexFloat(d.Bid), Countries: d.Countries}},
		Targeting:   targetingDTO{Country: countryListDTO{List: d.Countries}},
	}
}

// updateCampaignDTO carries the non-status fields of a patch.
type updateCampaignDTO struct {
	Name        *string   `json:"name,omitempty"`
	DailyAmount *float64  `json:"daily_amount,omitempty"`
	TotalAmount *float64  `json:"total_amount,omitempty"`
	Rates       []rateDTO `json:"rates,omitempty"`
}

func newUpdateCampaignDTO(p domain.CampaignPatch) (updateCampaignDTO, bool) {
	dto := updateCampaignDTO{Name: p.Name, DailyAmount: p.DailyBudget, TotalAmount: p.TotalBudget}
	if p.Bid != nil {
		dto.Rates = []rateDTO{{Amount: flexFloat(*p.Bid)}}
	}
	return dto, dto.Name != nil || dto.DailyAmount != nil || dto.TotalAmount != nil || dto.Rates != nil
}

type statRowDTO struct {
	CampaignID  flexInt    `json:"campaign_id"`
	ZoneID      flexInt    `json:"zone_id"`
	CreativeID  flexInt    `json:"creative_id"`
	DateTime    string     `json:"date_time"`
	Impressions flexInt    `json:"impressions"`
	Clicks      flexInt    `json:"clicks"`
	Conversions flexInt    `json:"conversions"`
	Spend       *flexFloat `json:"spend"`
	Cost        *flexFloat `json:"cost"`
	Revenue     flexFloat  `json:"revenue"`
}

// cost prefers "spend" and falls back to "cost"; endpoints disagree.
func (r statRowDTO) cost() float64 {
	switch {
	case r.Spend != nil:
		return float64(*r.Spend)
	case r.Cost != nil:
		return float64(*r.Cost)
	}
	return 0
}

func (r statRowDTO) entity(t domain.EntityType) domain.EntityRef {
	ref := domain.EntityRef{Type: t, CampaignID: int64(r.CampaignID)}
	switch t {
	case domain.EntityZone:
		ref.ID = int64(r.ZoneID)
	case domain.EntityCreative:
		ref.ID = int64(r.CreativeID)
	default:
		ref.ID = int64(r.CampaignID)
	}
	return ref
}

type creativeDTO struct {
	ID         flexInt `json:"id"`
	CampaignID flexInt `json:"campaign_id"`
	Title      string  `json:"title"`
	Name       string  `json:"name"`
	Status     flexInt `json:"status"`
	IsActive   *bool   `json:"is_active"`
}

func (d creativeDTO) toDomain() domain.Creative {
	title := d.Title
	if title == "" {
		title = d.Name
	}
	active := int(d.Status) == statusWorking
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return domain.Creative{ID: int64(d.ID), CampaignID: int64(d.CampaignID), Title: title, Active: active}
}

// namedItem decodes dictionary entries that come either as plain strings
// or as objects with varying key names.
type namedItem struct {
	Code string
	Name string
}

func (n *namedItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.Code, n.Name = s, s
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	n.Code = firstString(obj, "code", "value", "id")
	n.Name = firstString(obj, "name", "title", "label")
	if n.Name == "" {
		n.Name = n.Code
	}
	return nil
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// parseBalance accepts a bare number, a numeric string or an object.
func parseBalance(raw json.RawMessage) (domain.Balance, error) {
	b := domain.Balance{Currency: "USD"}
	var amount flexFloat
	if err := amount.UnmarshalJSON(raw); err == nil {
		b.Amount = float64(amount)
		return b, nil
	}
	var obj struct {
		Balance  *flexFloat `json:"balance"`
		Amount   *flexFloat `json:"amount"`
		Currency string     `json:"currency"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return b, err
	}
	switch {
	case obj.Balance != nil:
		b.Amount = float64(*obj.Balance)
	case obj.Amount != nil:
		b.Amount = float64(*obj.Amount)
	}
	if obj.Currency != "" {
		b.Currency = strings.ToUpper(obj.Currency)
	}
	return b, nil
}
