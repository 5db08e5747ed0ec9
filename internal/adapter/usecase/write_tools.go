package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

func campaignRef(id int64) domain.EntityRef {
	return domain.EntityRef{Type: domain.EntityCampaign, ID: id, CampaignID: id}
}

func (o *Orchestrator) createCampaign(ctx context.Context, args createCampaignArgs) (any, error) {
	draft := domain.CampaignDraft{
		Name:        args.Name,
		AdFormat:    args.AdFormat,
		Countries:   args.Countries,
		DailyBudget: args.DailyBudget,
		TotalBudget: args.TotalBudget,
		Bid:         args.Bid,
		BidModel:    args.BidModel,
		TargetURL:   args.TargetURL,
	}
	a := domain.CallerAction(domain.ActionCreateCampaign, campaignRef(0),
		domain.ActionParams{Draft: &draft, Args: callerArgs(args)}, o.now())
	return o.propose(ctx, o.planner.Batch(domain.ActionCreateCampaign, []domain.Action{a}))
}

func (o *Orchestrator) updateCampaign(ctx context.Context, args updateCampaignArgs) (any, error) {
	patch := domain.CampaignPatch{
		Name:        args.Name,
		DailyBudget: args.DailyBudget,
		TotalBudget: args.TotalBudget,
		Bid:         args.Bid,
	}
	if args.Status != nil {
		s := domain.CampaignStatus(*args.Status)
		patch.Status = &s
	}
	if patch.Empty() {
		return nil, port.NewValidationError("update_campaign", "arguments", "nothing to update")
	}
	a := domain.CallerAction(domain.ActionUpdateCampaign, campaignRef(args.CampaignID),
		domain.ActionParams{Patch: &patch, Args: callerArgs(args)}, o.now())
	return o.propose(ctx, o.planner.Batch(domain.ActionUpdateCampaign, []domain.Action{a}))
}

func (o *Orchestrator) startCampaigns(ctx context.Context, args campaignIDsArgs) (any, error) {
	return o.proposeEach(ctx, domain.ActionStart, args.CampaignIDs)
}

func (o *Orchestrator) stopCampaigns(ctx context.Context, args campaignIDsArgs) (any, error) {
	return o.proposeEach(ctx, domain.ActionPause, args.CampaignIDs)
}

func (o *Orchestrator) proposeEach(ctx context.Context, kind domain.ActionKind, ids []int64) (any, error) {
	now := o.now()
	actions := make([]domain.Action, len(ids))
	for i, id := range ids {
		actions[i] = domain.CallerAction(kind, campaignRef(id),
			domain.ActionParams{Args: map[string]any{"campaign_id": id}}, now)
	}
	return o.propose(ctx, o.planner.Batch(kind, actions))
}

func (o *Orchestrator) cloneCampaign(ctx context.Context, args cloneCampaignArgs) (any, error) {
	a := domain.CallerAction(domain.ActionCloneCampaign, campaignRef(args.CampaignID),
		domain.ActionParams{CloneName: args.Name, Args: callerArgs(args)}, o.now())
	return o.propose(ctx, o.planner.Batch(domain.ActionCloneCampaign, []domain.Action{a}))
}

func (o *Orchestrator) zoneList(kind domain.ActionKind) func(context.Context, zoneListArgs) (any, error) {
	return func(ctx context.Context, args zoneListArgs) (any, error) {
		now := o.now()
		actions := make([]domain.Action, len(args.ZoneIDs))
		for i, id := range args.ZoneIDs {
			ref := domain.EntityRef{Type: domain.EntityZone, ID: id, CampaignID: args.CampaignID}
			actions[i] = domain.CallerAction(kind, ref,
				domain.ActionParams{Args: map[string]any{"campaign_id": args.CampaignID, "zone_id": id}}, now)
		}
		return o.propose(ctx, o.planner.Batch(kind, actions))
	}
}

// planned proposes the candidates of report as one batch. Without
// candidates nothing is proposed and the report itself is returned.
func (o *Orchestrator) planned(ctx context.Context, report CandidateReport, kind domain.ActionKind, dryRun bool) (any, error) {
	if dryRun || len(report.Candidates) == 0 {
		return Preview{CandidateReport: report, DryRun: dryRun}, nil
	}
	return o.propose(ctx, o.planner.Plan(report.Candidates, kind))
}

func (o *Orchestrator) autoBlacklist(ctx context.Context, args autoBlacklistArgs) (any, error) {
	w, err := o.window("auto_blacklist_zones", args.dateRange)
	if err != nil {
		return nil, err
	}
	report, err := o.evaluate(ctx, o.underperformanceRule(args.underperformingArgs),
		AggregateRequest{CampaignID: args.CampaignID, Window: w})
	if err != nil {
		return nil, err
	}
	return o.planned(ctx, report, domain.ActionBlacklist, args.DryRun == nil || *args.DryRun)
}

func (o *Orchestrator) autoWhitelist(ctx context.Context, args autoWhitelistArgs) (any, error) {
	w, err := o.window("auto_whitelist_zones", args.dateRange)
	if err != nil {
		return nil, err
	}
	report, err := o.evaluate(ctx, o.topZonesRule(args.topZonesArgs),
		AggregateRequest{CampaignID: args.CampaignID, Window: w})
	if err != nil {
		return nil, err
	}
	return o.planned(ctx, report, domain.ActionWhitelist, args.DryRun == nil || *args.DryRun)
}

// scaleCampaigns proposes raising the daily budget of every scaling
// candidate by the budget step. Campaigns without a daily budget are left
// out since a relative increase would not change them.
func (o *Orchestrator) scaleCampaigns(ctx context.Context, args scaleCampaignsArgs) (any, error) {
	w, err := o.window("scale_campaigns", args.dateRange)
	if err != nil {
		return nil, err
	}
	report, err := o.evaluate(ctx, o.scalingRule(args.scalingArgs), AggregateRequest{Window: w})
	if err != nil {
		return nil, err
	}
	step := orFloat(args.BudgetStep, o.defaults.ScaleBudgetStep)

	candidates := report.Candidates[:0:0]
	for _, c := range report.Candidates {
		campaign, err := o.platform.GetCampaign(ctx, c.Target.ID)
		if err != nil {
			return nil, fmt.Errorf("scale campaigns: %w", err)
		}
		if campaign.DailyBudget <= 0 {
			o.logger.Info("skipping campaign without daily budget", slog.Int64("campaign_id", campaign.ID))
			continue
		}
		current := campaign.DailyBudget
		next := math.Round(current*(1+step)*100) / 100
		c.Params = domain.ActionParams{DailyBudget: &next, PreviousBudget: &current}
		candidates = append(candidates, c)
	}
	report.Candidates = candidates
	return o.planned(ctx, report, domain.ActionBudgetDelta, false)
}

func (o *Orchestrator) confirm(ctx context.Context, args tokenArgs) (any, error) {
	res, err := o.gate.Confirm(ctx, args.Token)
	if res == nil {
		return nil, err
	}
	return res, err
}

func (o *Orchestrator) reject(ctx context.Context, args tokenArgs) (any, error) {
	res, err := o.gate.Reject(ctx, args.Token)
	if err != nil {
		return nil, err
	}
	return res, nil
}
