package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// Dispatcher executes confirmed actions against the platform. Zone list and
// start/stop actions are grouped into one upstream call per group; all
// other kinds go one call per action. Calls run in order and stop at the
// first upstream failure: the remaining actions are marked skipped.
type Dispatcher struct {
	platform port.AdPlatformClient
	book     *domain.MembershipBook
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. book records zone memberships after
// successful list mutations and may be nil.
func NewDispatcher(platform port.AdPlatformClient, book *domain.MembershipBook, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{platform: platform, book: book, logger: logger}
}

type zoneGroup struct {
	campaignID int64
	mode       domain.ListMode
}

// step is one upstream call covering the actions at idx.
type step struct {
	idx  []int
	call func(ctx context.Context) error
}

// Dispatch runs every pending action of actions and returns them with their
// outcome. Once ctx is done the remaining actions are marked failed.
func (d *Dispatcher) Dispatch(ctx context.Context, actions []domain.Action) []domain.Action {
	out := make([]domain.Action, len(actions))
	copy(out, actions)

	var (
		zones     = make(map[zoneGroup][]int)
		zoneOrder []zoneGroup
		starts    []int
		stops     []int
		singles   []int
	)
	for i, a := range out {
		if a.Status != domain.StatusPending && a.Status != "" {
			continue
		}
		switch a.Kind {
		case domain.ActionBlacklist, domain.ActionWhitelist:
			mode, _ := a.Kind.ListMode()
			g := zoneGroup{campaignID: a.Target.CampaignID, mode: mode}
			if _, ok := zones[g]; !ok {
				zoneOrder = append(zoneOrder, g)
			}
			zones[g] = append(zones[g], i)
		case domain.ActionStart:
			starts = append(starts, i)
		case domain.ActionPause:
			stops = append(stops, i)
		default:
			singles = append(singles, i)
		}
	}

	var steps []step
	for _, g := range zoneOrder {
		idx := zones[g]
		if g.campaignID == 0 {
			d.fail(out, idx, fmt.Errorf("zone action without campaign"))
			continue
		}
		steps = append(steps, step{idx: idx, call: func(ctx context.Context) error {
			ids := targetIDs(out, idx)
			if err := d.platform.SetZoneList(ctx, g.campaignID, ids, g.mode); err != nil {
				return err
			}
			if d.book != nil {
				m, _ := domain.MembershipFor(g.mode)
				for _, id := range ids {
					d.book.Set(domain.ZoneKey{CampaignID: g.campaignID, ZoneID: id}, m)
				}
			}
			return nil
		}})
	}
	if len(starts) > 0 {
		steps = append(steps, step{idx: starts, call: func(ctx context.Context) error {
			return d.platform.StartCampaigns(ctx, targetIDs(out, starts))
		}})
	}
	if len(stops) > 0 {
		steps = append(steps, step{idx: stops, call: func(ctx context.Context) error {
			return d.platform.StopCampaigns(ctx, targetIDs(out, stops))
		}})
	}
	for _, i := range singles {
		a := &out[i]
		if err := incomplete(a); err != nil {
			d.fail(out, []int{i}, err)
			continue
		}
		steps = append(steps, step{idx: []int{i}, call: func(ctx context.Context) error { return d.single(ctx, a) }})
	}

	var halted error
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			d.fail(out, st.idx, err)
			continue
		}
		if halted != nil {
			d.skip(out, st.idx, halted)
			continue
		}
		err := st.call(ctx)
		d.settle(out, st.idx, err)
		if err != nil {
			halted = err
		}
	}
	return out
}

// incomplete reports actions that cannot be sent as they are.
func incomplete(a *domain.Action) error {
	switch a.Kind {
	case domain.ActionBudgetDelta:
		if a.Params.DailyBudget == nil {
			return fmt.Errorf("budget action without daily budget")
		}
	case domain.ActionUpdateCampaign:
		if a.Params.Patch == nil || a.Params.Patch.Empty() {
			return fmt.Errorf("update without changes")
		}
	case domain.ActionCreateCampaign:
		if a.Params.Draft == nil {
			return fmt.Errorf("create without draft")
		}
	case domain.ActionCloneCampaign:
	default:
		return fmt.Errorf("unsupported action kind %q", a.Kind)
	}
	return nil
}

func (d *Dispatcher) single(ctx context.Context, a *domain.Action) error {
	switch a.Kind {
	case domain.ActionBudgetDelta:
		return d.platform.UpdateCampaign(ctx, a.Target.ID, domain.CampaignPatch{DailyBudget: a.Params.DailyBudget})
	case domain.ActionUpdateCampaign:
		return d.platform.UpdateCampaign(ctx, a.Target.ID, *a.Params.Patch)
	case domain.ActionCreateCampaign:
		c, err := d.platform.CreateCampaign(ctx, *a.Params.Draft)
		if err != nil {
			return err
		}
		a.ResultID = c.ID
		return nil
	case domain.ActionCloneCampaign:
		c, err := d.platform.CloneCampaign(ctx, a.Target.ID, a.Params.CloneName)
		if err != nil {
			return err
		}
		a.ResultID = c.ID
		return nil
	}
	return fmt.Errorf("unsupported action kind %q", a.Kind)
}

func (d *Dispatcher) settle(out []domain.Action, idx []int, err error) {
	if err != nil {
		d.fail(out, idx, err)
		return
	}
	for _, i := range idx {
		out[i].Status = domain.StatusApplied
		out[i].Error = ""
	}
}

func (d *Dispatcher) fail(out []domain.Action, idx []int, err error) {
	for _, i := range idx {
		out[i].Status = domain.StatusFailed
		out[i].Error = err.Error()
	}
	d.logger.Warn("action dispatch failed",
		slog.String("kind", string(out[idx[0]].Kind)),
		slog.Int("actions", len(idx)),
		slog.Any("error", err))
}

func (d *Dispatcher) skip(out []domain.Action, idx []int, cause error) {
	for _, i := range idx {
		out[i].Status = domain.StatusSkipped
		out[i].Error = "not sent after an earlier failure: " + cause.Error()
	}
}

func targetIDs(actions []domain.Action, idx []int) []int64 {
	ids := make([]int64, len(idx))
	for j, i := range idx {
		ids[j] = actions[i].Target.ID
	}
	return ids
}
