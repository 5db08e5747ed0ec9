package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their argument name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes raw into T and validates it. Unknown fields, malformed JSON
// and failed constraints all come back as a *port.ValidationError, before
// anything is sent upstream.
func bind[T any](op string, raw json.RawMessage) (T, error) {
	var v T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, port.NewValidationError(op, "arguments", err.Error())
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return v, port.NewValidationError(op, "arguments", err.Error())
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
		return v, &port.ValidationError{Op: op, Fields: fields}
	}
	return v, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + fe.Param() + " item(s)"
	case "max":
		return "must have at most " + fe.Param() + " item(s)"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	case "url":
		return "must be a valid URL"
	case "len":
		return "must be " + fe.Param() + " characters long"
	case "unique":
		return "must not contain duplicates"
	default:
		return "is invalid"
	}
}

// dateRange is the optional inclusive day range shared by report tools.
type dateRange struct {
	DateFrom string `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// window resolves the range. A missing end defaults to today and a missing
// start to days days before the end.
func (r dateRange) window(op string, now time.Time, days int) (domain.Window, error) {
	return dayRange(op, "date_from", r.DateFrom, r.DateTo, now, days)
}

func dayRange(op, field, from, to string, now time.Time, days int) (domain.Window, error) {
	now = now.UTC()
	end := now
	if to != "" {
		t, err := time.ParseInLocation(domain.DateLayout, to, time.UTC)
		if err != nil {
			return domain.Window{}, port.NewValidationError(op, field, err.Error())
		}
		end = t
	}
	start := end.AddDate(0, 0, -(days - 1))
	if from != "" {
		t, err := time.ParseInLocation(domain.DateLayout, from, time.UTC)
		if err != nil {
			return domain.Window{}, port.NewValidationError(op, field, err.Error())
		}
		start = t
	}
	if start.After(end) {
		return domain.Window{}, port.NewValidationError(op, field,
			fmt.Sprintf("start %s is after end %s", start.Format(domain.DateLayout), end.Format(domain.DateLayout)))
	}
	return domain.DayWindow(start, end), nil
}

// percent converts a percentage argument into a fraction, falling back to
// def which is already a fraction.
func percent(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p / 100
}

func orInt64(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}

func orFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func orInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

type noArgs struct{}

type listCampaignsArgs struct {
	Status   string `json:"status" validate:"omitempty,oneof=active paused draft archived"`
	AdFormat string `json:"ad_format"`
	Name     string `json:"name"`
}

type campaignArgs struct {
	CampaignID int64 `json:"campaign_id" validate:"required,gt=0"`
}

type performanceReportArgs struct {
	dateRange
	GroupBy    string `json:"group_by" validate:"omitempty,oneof=campaign zone creative"`
	CampaignID int64  `json:"campaign_id" validate:"gte=0"`
	Daily      bool   `json:"daily"`
}

type campaignPerformanceArgs struct {
	dateRange
	CampaignID int64 `json:"campaign_id" validate:"required,gt=0"`
}

type comparePeriodsArgs struct {
	Period1From string `json:"period1_from" validate:"required,datetime=2006-01-02"`
	Period1To   string `json:"period1_to" validate:"required,datetime=2006-01-02"`
	Period2From string `json:"period2_from" validate:"required,datetime=2006-01-02"`
	Period2To   string `json:"period2_to" validate:"required,datetime=2006-01-02"`
	CampaignID  int64  `json:"campaign_id" validate:"gte=0"`
}

type zonePerformanceArgs struct {
	dateRange
	CampaignID int64  `json:"campaign_id" validate:"gte=0"`
	Limit      *int   `json:"limit" validate:"omitempty,gt=0"`
	SortBy     string `json:"sort_by" validate:"omitempty,oneof=spend conversions roi ctr"`
}

type creativePerformanceArgs struct {
	dateRange
	CampaignID int64 `json:"campaign_id" validate:"gte=0"`
}

type underperformingArgs struct {
	dateRange
	CampaignID     int64    `json:"campaign_id" validate:"required,gt=0"`
	MinSpend       *float64 `json:"min_spend" validate:"omitempty,gte=0"`
	MaxConversions *int64   `json:"max_conversions" validate:"omitempty,gte=0"`
	// MinROI is a percentage.
	MinROI *float64 `json:"min_roi"`
}

type autoBlacklistArgs struct {
	underperformingArgs
	// DryRun defaults to true.
	DryRun *bool `json:"dry_run"`
}

type topZonesArgs struct {
	dateRange
	CampaignID     int64    `json:"campaign_id" validate:"required,gt=0"`
	MinConversions *int64   `json:"min_conversions" validate:"omitempty,gte=0"`
	MinROI         *float64 `json:"min_roi"`
	Limit          *int     `json:"limit" validate:"omitempty,gt=0"`
}

type autoWhitelistArgs struct {
	topZonesArgs
	DryRun *bool `json:"dry_run"`
}

type scalingArgs struct {
	dateRange
	MinROI         *float64 `json:"min_roi"`
	MinConversions *int64   `json:"min_conversions" validate:"omitempty,gte=0"`
}

type scaleCampaignsArgs struct {
	scalingArgs
	// BudgetStep is the relative daily budget increase, 0.2 meaning +20%.
	BudgetStep *float64 `json:"budget_step" validate:"omitempty,gt=0,lte=10"`
}

type evaluateRuleArgs struct {
	dateRange
	Rule       string  `json:"rule" validate:"required"`
	CampaignID int64   `json:"campaign_id" validate:"gte=0"`
	IDs        []int64 `json:"ids" validate:"omitempty,dive,gt=0"`
}

type createCampaignArgs struct {
	Name        string   `json:"name" validate:"required"`
	AdFormat    string   `json:"ad_format" validate:"required"`
	Countries   []string `json:"countries" validate:"required,min=1,dive,len=2"`
	DailyBudget float64  `json:"daily_budget" validate:"required,gt=0"`
	TotalBudget float64  `json:"total_budget" validate:"gte=0"`
	Bid         float64  `json:"bid" validate:"required,gt=0"`
	BidModel    string   `json:"bid_model" validate:"omitempty,oneof=cpc cpm smart_cpc smart_cpm"`
	TargetURL   string   `json:"target_url" validate:"required,url"`
}

type updateCampaignArgs struct {
	CampaignID  int64    `json:"campaign_id" validate:"required,gt=0"`
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	DailyBudget *float64 `json:"daily_budget" validate:"omitempty,gt=0"`
	TotalBudget *float64 `json:"total_budget" validate:"omitempty,gte=0"`
	Bid         *float64 `json:"bid" validate:"omitempty,gt=0"`
	Status      *string  `json:"status" validate:"omitempty,oneof=active paused"`
}

type campaignIDsArgs struct {
	CampaignIDs []int64 `json:"campaign_ids" validate:"required,min=1,unique,dive,gt=0"`
}

type cloneCampaignArgs struct {
	CampaignID int64  `json:"campaign_id" validate:"required,gt=0"`
	Name       string `json:"name"`
}

type zoneListArgs struct {
	CampaignID int64   `json:"campaign_id" validate:"required,gt=0"`
	ZoneIDs    []int64 `json:"zone_ids" validate:"required,min=1,unique,dive,gt=0"`
}

type tokenArgs struct {
	Token string `json:"token" validate:"required"`
}
