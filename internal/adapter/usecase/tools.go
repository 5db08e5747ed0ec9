package usecase

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"adpilot/internal/adapter/upstream"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

func (o *Orchestrator) catalogue() []tool {
	read, write, gate := port.ToolRead, port.ToolWrite, port.ToolGate
	return []tool{
		{port.ToolInfo{Name: "list_campaigns", Kind: read, Description: "List campaigns, optionally filtered by status, ad format or name."}, handle("list_campaigns", o.listCampaigns)},
		{port.ToolInfo{Name: "get_campaign_details", Kind: read, Description: "Get one campaign with its creatives."}, handle("get_campaign_details", o.campaignDetails)},
		{port.ToolInfo{Name: "get_performance_report", Kind: read, Description: "Aggregate statistics per campaign, zone or creative over a date range."}, handle("get_performance_report", o.performanceReport)},
		{port.ToolInfo{Name: "get_campaign_performance", Kind: read, Description: "Daily statistics of one campaign with totals."}, handle("get_campaign_performance", o.campaignPerformance)},
		{port.ToolInfo{Name: "compare_periods", Kind: read, Description: "Compare two non-overlapping date ranges field by field."}, handle("compare_periods", o.comparePeriods)},
		{port.ToolInfo{Name: "get_zone_performance", Kind: read, Description: "Zone statistics sorted by spend, conversions, roi or ctr."}, handle("get_zone_performance", o.zonePerformance)},
		{port.ToolInfo{Name: "get_creative_performance", Kind: read, Description: "Creative statistics sorted by spend."}, handle("get_creative_performance", o.creativePerformance)},
		{port.ToolInfo{Name: "find_underperforming_zones", Kind: read, Description: "Zones spending without converting or below the ROI threshold."}, handle("find_underperforming_zones", o.findUnderperforming)},
		{port.ToolInfo{Name: "find_top_zones", Kind: read, Description: "Best converting zones at or above the ROI threshold."}, handle("find_top_zones", o.findTopZones)},
		{port.ToolInfo{Name: "find_scaling_opportunities", Kind: read, Description: "Profitable campaigns worth a budget increase."}, handle("find_scaling_opportunities", o.findScaling)},
		{port.ToolInfo{Name: "evaluate_rule", Kind: read, Description: "Evaluate a built-in or custom rule without proposing actions."}, handle("evaluate_rule", o.evaluateRule)},
		{port.ToolInfo{Name: "list_rules", Kind: read, Description: "List built-in and custom rules with their conditions."}, handle("list_rules", o.listRules)},
		{port.ToolInfo{Name: "get_balance", Kind: read, Description: "Current account balance."}, handle("get_balance", o.balance)},
		{port.ToolInfo{Name: "get_available_countries", Kind: read, Description: "Countries available for targeting."}, handle("get_available_countries", o.countries)},
		{port.ToolInfo{Name: "get_ad_formats", Kind: read, Description: "Ad formats offered by the platform."}, handle("get_ad_formats", o.adFormats)},

		{port.ToolInfo{Name: "create_campaign", Kind: write, Description: "Propose a new campaign."}, handle("create_campaign", o.createCampaign)},
		{port.ToolInfo{Name: "update_campaign", Kind: write, Description: "Propose changes to a campaign."}, handle("update_campaign", o.updateCampaign)},
		{port.ToolInfo{Name: "start_campaigns", Kind: write, Description: "Propose starting campaigns."}, handle("start_campaigns", o.startCampaigns)},
		{port.ToolInfo{Name: "stop_campaigns", Kind: write, Description: "Propose stopping campaigns."}, handle("stop_campaigns", o.stopCampaigns)},
		{port.ToolInfo{Name: "clone_campaign", Kind: write, Description: "Propose a copy of a campaign."}, handle("clone_campaign", o.cloneCampaign)},
		{port.ToolInfo{Name: "add_to_blacklist", Kind: write, Description: "Propose blacklisting zones on a campaign."}, handle("add_to_blacklist", o.zoneList(domain.ActionBlacklist))},
		{port.ToolInfo{Name: "add_to_whitelist", Kind: write, Description: "Propose whitelisting zones on a campaign."}, handle("add_to_whitelist", o.zoneList(domain.ActionWhitelist))},
		{port.ToolInfo{Name: "auto_blacklist_zones", Kind: write, Description: "Find underperforming zones and propose blacklisting them. Previews only unless dry_run is false."}, handle("auto_blacklist_zones", o.autoBlacklist)},
		{port.ToolInfo{Name: "auto_whitelist_zones", Kind: write, Description: "Find top zones and propose whitelisting them. Previews only unless dry_run is false."}, handle("auto_whitelist_zones", o.autoWhitelist)},
		{port.ToolInfo{Name: "scale_campaigns", Kind: write, Description: "Propose daily budget increases for scaling candidates."}, handle("scale_campaigns", o.scaleCampaigns)},

		{port.ToolInfo{Name: "confirm_actions", Kind: gate, Description: "Confirm a proposed batch and dispatch it."}, handle("confirm_actions", o.confirm)},
		{port.ToolInfo{Name: "reject_actions", Kind: gate, Description: "Discard a proposed batch."}, handle("reject_actions", o.reject)},
	}
}

// CampaignDetails is the result of get_campaign_details.
type CampaignDetails struct {
	Campaign  domain.Campaign   `json:"campaign"`
	Creatives []domain.Creative `json:"creatives"`
}

// Report is an aggregation together with its totals.
type Report struct {
	Aggregation
	Total domain.MetricRecord `json:"total"`
}

// CandidateReport is the outcome of a rule evaluation.
type CandidateReport struct {
	Rule       string                   `json:"rule"`
	Conditions []string                 `json:"conditions"`
	Window     domain.Window            `json:"window"`
	Evaluated  int                      `json:"evaluated"`
	Candidates []domain.ActionCandidate `json:"candidates"`
	Warning    *port.PartialDataWarning `json:"warning,omitempty"`
}

// Preview is returned by auto tools instead of a confirmation payload when
// nothing is proposed.
type Preview struct {
	CandidateReport
	DryRun bool `json:"dry_run"`
}

// RuleInfo describes a rule for list_rules.
type RuleInfo struct {
	Name        string            `json:"name"`
	Target      domain.EntityType `json:"target"`
	Action      domain.ActionKind `json:"action,omitempty"`
	Conditions  []string          `json:"conditions"`
	Ranking     []domain.RankKey  `json:"ranking"`
	Cap         int               `json:"cap,omitempty"`
	Description string            `json:"description,omitempty"`
	Custom      bool              `json:"custom"`
}

func (o *Orchestrator) listCampaigns(ctx context.Context, args listCampaignsArgs) (any, error) {
	filter := port.CampaignFilter{AdFormat: args.AdFormat, Name: args.Name}
	if args.Status != "" {
		s := domain.CampaignStatus(args.Status)
		filter.Status = &s
	}
	campaigns, err := upstream.Collect(upstream.Paginate(ctx, o.pager, "list campaigns",
		func(ctx context.Context, page port.PageRequest) (port.Page[domain.Campaign], error) {
			return o.platform.ListCampaigns(ctx, filter, page)
		}))
	if err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	return campaigns, nil
}

func (o *Orchestrator) campaignDetails(ctx context.Context, args campaignArgs) (any, error) {
	c, err := o.platform.GetCampaign(ctx, args.CampaignID)
	if err != nil {
		return nil, err
	}
	creatives, err := upstream.Collect(upstream.Paginate(ctx, o.pager, fmt.Sprintf("list creatives of campaign %d", c.ID),
		func(ctx context.Context, page port.PageRequest) (port.Page[domain.Creative], error) {
			return o.platform.ListCreatives(ctx, c.ID, page)
		}))
	if err != nil {
		return nil, err
	}
	if creatives == nil {
		creatives = []domain.Creative{}
	}
	return CampaignDetails{Campaign: c, Creatives: creatives}, nil
}

func (o *Orchestrator) performanceReport(ctx context.Context, args performanceReportArgs) (any, error) {
	w, err := o.window("get_performance_report", args.dateRange)
	if err != nil {
		return nil, err
	}
	entity := domain.EntityCampaign
	if args.GroupBy != "" {
		entity = domain.EntityType(args.GroupBy)
	}
	req := AggregateRequest{EntityType: entity, Window: w, Daily: args.Daily, CampaignID: args.CampaignID}
	if entity == domain.EntityCampaign && args.CampaignID != 0 {
		req.IDs, req.CampaignID = []int64{args.CampaignID}, 0
	}
	agg, err := o.agg.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}
	return Report{Aggregation: agg, Total: agg.Totals()}, nil
}

func (o *Orchestrator) campaignPerformance(ctx context.Context, args campaignPerformanceArgs) (any, error) {
	w, err := o.window("get_campaign_performance", args.dateRange)
	if err != nil {
		return nil, err
	}
	agg, err := o.agg.Aggregate(ctx, AggregateRequest{
		EntityType: domain.EntityCampaign,
		IDs:        []int64{args.CampaignID},
		Window:     w,
		Daily:      true,
	})
	if err != nil {
		return nil, err
	}
	return Report{Aggregation: agg, Total: agg.Totals()}, nil
}

func (o *Orchestrator) comparePeriods(ctx context.Context, args comparePeriodsArgs) (any, error) {
	const op = "compare_periods"
	a, err := dayRange(op, "period1_from", args.Period1From, args.Period1To, o.now(), o.defaults.WindowDays)
	if err != nil {
		return nil, err
	}
	b, err := dayRange(op, "period2_from", args.Period2From, args.Period2To, o.now(), o.defaults.WindowDays)
	if err != nil {
		return nil, err
	}
	req := CompareRequest{EntityType: domain.EntityCampaign, A: a, B: b}
	if args.CampaignID != 0 {
		req.IDs = []int64{args.CampaignID}
	}
	res, err := o.agg.ComparePeriods(ctx, req)
	if err != nil && res.A.Start.IsZero() {
		return nil, err
	}
	// A failed second window still returns the first one, even when it
	// had no rows.
	return res, err
}

var sortFields = map[string]domain.Field{
	"spend":       domain.FieldCost,
	"conversions": domain.FieldConversions,
	"roi":         domain.FieldROI,
	"ctr":         domain.FieldCTR,
}

func (o *Orchestrator) zonePerformance(ctx context.Context, args zonePerformanceArgs) (any, error) {
	w, err := o.window("get_zone_performance", args.dateRange)
	if err != nil {
		return nil, err
	}
	agg, err := o.agg.Aggregate(ctx, AggregateRequest{EntityType: domain.EntityZone, CampaignID: args.CampaignID, Window: w})
	if err != nil {
		return nil, err
	}
	field := domain.FieldCost
	if f, ok := sortFields[args.SortBy]; ok {
		field = f
	}
	agg.Records = sortDesc(agg.Entities(), field)
	if limit := orInt(args.Limit, o.defaults.ZoneReportLimit); limit > 0 && len(agg.Records) > limit {
		agg.Records = agg.Records[:limit]
	}
	return Report{Aggregation: agg, Total: agg.Totals()}, nil
}

func (o *Orchestrator) creativePerformance(ctx context.Context, args creativePerformanceArgs) (any, error) {
	w, err := o.window("get_creative_performance", args.dateRange)
	if err != nil {
		return nil, err
	}
	agg, err := o.agg.Aggregate(ctx, AggregateRequest{EntityType: domain.EntityCreative, CampaignID: args.CampaignID, Window: w})
	if err != nil {
		return nil, err
	}
	agg.Records = sortDesc(agg.Entities(), domain.FieldCost)
	return Report{Aggregation: agg, Total: agg.Totals()}, nil
}

// sortDesc orders records by field descending, undefined values last and
// ties by id.
func sortDesc(recs []domain.MetricRecord, field domain.Field) []domain.MetricRecord {
	slices.SortStableFunc(recs, func(a, b domain.MetricRecord) int {
		if c := compareKey(a.Value(field), b.Value(field), true); c != 0 {
			return c
		}
		return cmp.Compare(a.Entity.ID, b.Entity.ID)
	})
	return recs
}

func (o *Orchestrator) underperformanceRule(args underperformingArgs) domain.Rule {
	return domain.Underperformance(domain.EntityZone, domain.UnderperformanceParams{
		MinSpend:       orFloat(args.MinSpend, o.defaults.MinSpend),
		ROIThreshold:   percent(args.MinROI, o.defaults.ROIThreshold),
		MaxConversions: args.MaxConversions,
	})
}

func (o *Orchestrator) topZonesRule(args topZonesArgs) domain.Rule {
	return domain.TopPerformer(domain.EntityZone, domain.PerformerParams{
		MinConversions: orInt64(args.MinConversions, o.defaults.MinConversions),
		ROIThreshold:   percent(args.MinROI, o.defaults.ROIThreshold),
		Cap:            orInt(args.Limit, o.defaults.TopLimit),
	})
}

func (o *Orchestrator) scalingRule(args scalingArgs) domain.Rule {
	return domain.ScalingCandidate(domain.PerformerParams{
		MinConversions: orInt64(args.MinConversions, o.defaults.ScaleMinConversions),
		ROIThreshold:   percent(args.MinROI, o.defaults.ScaleROIThreshold),
	})
}

// evaluate aggregates the rule's target entities and runs the rule.
func (o *Orchestrator) evaluate(ctx context.Context, rule domain.Rule, req AggregateRequest) (CandidateReport, error) {
	req.EntityType = rule.Target
	agg, err := o.agg.Aggregate(ctx, req)
	if err != nil {
		return CandidateReport{}, fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	metrics := agg.Entities()
	candidates := o.engine.Evaluate(rule, metrics)
	if candidates == nil {
		candidates = []domain.ActionCandidate{}
	}
	return CandidateReport{
		Rule:       rule.Name,
		Conditions: rule.Conditions(),
		Window:     req.Window,
		Evaluated:  len(metrics),
		Candidates: candidates,
		Warning:    agg.Warning,
	}, nil
}

func (o *Orchestrator) findUnderperforming(ctx context.Context, args underperformingArgs) (any, error) {
	w, err := o.window("find_underperforming_zones", args.dateRange)
	if err != nil {
		return nil, err
	}
	return o.evaluate(ctx, o.underperformanceRule(args), AggregateRequest{CampaignID: args.CampaignID, Window: w})
}

func (o *Orchestrator) findTopZones(ctx context.Context, args topZonesArgs) (any, error) {
	w, err := o.window("find_top_zones", args.dateRange)
	if err != nil {
		return nil, err
	}
	return o.evaluate(ctx, o.topZonesRule(args), AggregateRequest{CampaignID: args.CampaignID, Window: w})
}

func (o *Orchestrator) findScaling(ctx context.Context, args scalingArgs) (any, error) {
	w, err := o.window("find_scaling_opportunities", args.dateRange)
	if err != nil {
		return nil, err
	}
	return o.evaluate(ctx, o.scalingRule(args), AggregateRequest{Window: w})
}

// builtinRules are the built-in rules at their default thresholds.
func (o *Orchestrator) builtinRules() []domain.Rule {
	return []domain.Rule{
		o.underperformanceRule(underperformingArgs{}),
		o.topZonesRule(topZonesArgs{}),
		o.scalingRule(scalingArgs{}),
	}
}

func (o *Orchestrator) lookupRule(name string) (domain.Rule, bool) {
	for _, r := range o.rules {
		if r.Name == name {
			return r, true
		}
	}
	for _, r := range o.builtinRules() {
		if r.Name == name {
			return r, true
		}
	}
	return domain.Rule{}, false
}

func (o *Orchestrator) evaluateRule(ctx context.Context, args evaluateRuleArgs) (any, error) {
	rule, ok := o.lookupRule(args.Rule)
	if !ok {
		return nil, port.NewValidationError("evaluate_rule", "rule", fmt.Sprintf("unknown rule %q", args.Rule))
	}
	w, err := o.window("evaluate_rule", args.dateRange)
	if err != nil {
		return nil, err
	}
	req := AggregateRequest{IDs: args.IDs, CampaignID: args.CampaignID, Window: w}
	if rule.Target == domain.EntityCampaign && args.CampaignID != 0 && len(args.IDs) == 0 {
		req.IDs, req.CampaignID = []int64{args.CampaignID}, 0
	}
	return o.evaluate(ctx, rule, req)
}

func (o *Orchestrator) listRules(_ context.Context, _ noArgs) (any, error) {
	var out []RuleInfo
	info := func(r domain.Rule, custom bool) RuleInfo {
		return RuleInfo{
			Name:        r.Name,
			Target:      r.Target,
			Action:      r.Action,
			Conditions:  r.Conditions(),
			Ranking:     r.Ranking,
			Cap:         r.Cap,
			Description: r.Description,
			Custom:      custom,
		}
	}
	for _, r := range o.builtinRules() {
		out = append(out, info(r, false))
	}
	for _, r := range o.rules {
		out = append(out, info(r, true))
	}
	return out, nil
}

func (o *Orchestrator) balance(ctx context.Context, _ noArgs) (any, error) {
	return o.platform.GetBalance(ctx)
}

func (o *Orchestrator) countries(ctx context.Context, _ noArgs) (any, error) {
	return o.platform.GetCountries(ctx)
}

func (o *Orchestrator) adFormats(ctx context.Context, _ noArgs) (any, error) {
	return o.platform.GetAdFormats(ctx)
}
