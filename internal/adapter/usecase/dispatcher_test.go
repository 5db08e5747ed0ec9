package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adpilot/internal/core/domain"
)

func zoneAction(kind domain.ActionKind, campaignID, zoneID int64) domain.Action {
	ref := domain.EntityRef{Type: domain.EntityZone, ID: zoneID, CampaignID: campaignID}
	return domain.CallerAction(kind, ref, domain.ActionParams{}, fixedNow())
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakePlatform, *domain.MembershipBook) {
	fake := newFakePlatform()
	platform, _ := paced(t, fake)
	book := domain.NewMembershipBook()
	return NewDispatcher(platform, book, discard()), fake, book
}

func TestDispatchGroupsZoneActions(t *testing.T) {
	d, fake, book := newTestDispatcher(t)
	actions := []domain.Action{
		zoneAction(domain.ActionBlacklist, 1, 10),
		zoneAction(domain.ActionBlacklist, 2, 20),
		zoneAction(domain.ActionBlacklist, 1, 11),
		zoneAction(domain.ActionWhitelist, 1, 12),
	}

	out := d.Dispatch(context.Background(), actions)
	require.Len(t, out, 4)
	for _, a := range out {
		assert.Equal(t, domain.StatusApplied, a.Status)
	}
	assert.Equal(t, []zoneCall{
		{campaignID: 1, zones: []int64{10, 11}, mode: domain.ListBlacklist},
		{campaignID: 2, zones: []int64{20}, mode: domain.ListBlacklist},
		{campaignID: 1, zones: []int64{12}, mode: domain.ListWhitelist},
	}, fake.zoneCalls)
	assert.Equal(t, domain.Whitelisted, book.Get(domain.ZoneKey{CampaignID: 1, ZoneID: 12}))
	assert.Equal(t, domain.Neutral, book.Get(domain.ZoneKey{CampaignID: 2, ZoneID: 10}))

	// The input is left untouched.
	assert.Equal(t, domain.StatusPending, actions[0].Status)
}

func TestDispatchZoneFailureLeavesBookUntouched(t *testing.T) {
	d, fake, book := newTestDispatcher(t)
	fake.zoneErr = errors.New("zone list locked")

	out := d.Dispatch(context.Background(), []domain.Action{
		zoneAction(domain.ActionBlacklist, 1, 10),
		zoneAction(domain.ActionBlacklist, 0, 11),
	})
	assert.Equal(t, domain.StatusFailed, out[0].Status)
	assert.Contains(t, out[0].Error, "zone list locked")
	assert.Equal(t, domain.StatusFailed, out[1].Status)
	assert.Equal(t, "zone action without campaign", out[1].Error)
	assert.Empty(t, book.Campaign(1))
}

func TestDispatchCampaignActions(t *testing.T) {
	d, fake, _ := newTestDispatcher(t)
	fake.campaigns[5] = domain.Campaign{ID: 5, Name: "source"}
	budget := 75.0
	name := "renamed"
	actions := []domain.Action{
		domain.CallerAction(domain.ActionStart, campaignRef(1), domain.ActionParams{}, fixedNow()),
		domain.CallerAction(domain.ActionPause, campaignRef(2), domain.ActionParams{}, fixedNow()),
		domain.CallerAction(domain.ActionStart, campaignRef(3), domain.ActionParams{}, fixedNow()),
		domain.CallerAction(domain.ActionBudgetDelta, campaignRef(4), domain.ActionParams{DailyBudget: &budget}, fixedNow()),
		domain.CallerAction(domain.ActionCloneCampaign, campaignRef(5), domain.ActionParams{CloneName: "copy"}, fixedNow()),
		domain.CallerAction(domain.ActionUpdateCampaign, campaignRef(6), domain.ActionParams{Patch: &domain.CampaignPatch{Name: &name}}, fixedNow()),
		domain.CallerAction(domain.ActionCreateCampaign, campaignRef(0), domain.ActionParams{Draft: &domain.CampaignDraft{Name: "new"}}, fixedNow()),
	}

	out := d.Dispatch(context.Background(), actions)
	for _, a := range out {
		assert.Equal(t, domain.StatusApplied, a.Status, "%s %s", a.Kind, a.Target)
	}
	assert.Equal(t, [][]int64{{1, 3}}, fake.started)
	assert.Equal(t, [][]int64{{2}}, fake.stopped)
	require.NotNil(t, fake.updates[4].DailyBudget)
	assert.Equal(t, 75.0, *fake.updates[4].DailyBudget)
	assert.Equal(t, "renamed", *fake.updates[6].Name)
	assert.Equal(t, []int64{5}, fake.clonedFrom)
	assert.NotZero(t, out[4].ResultID)
	assert.NotZero(t, out[6].ResultID)
	require.Len(t, fake.created, 1)
}

func TestDispatchRejectsIncompleteActions(t *testing.T) {
	d, fake, _ := newTestDispatcher(t)
	out := d.Dispatch(context.Background(), []domain.Action{
		domain.CallerAction(domain.ActionBudgetDelta, campaignRef(4), domain.ActionParams{}, fixedNow()),
		domain.CallerAction(domain.ActionUpdateCampaign, campaignRef(6), domain.ActionParams{Patch: &domain.CampaignPatch{}}, fixedNow()),
	})
	assert.Equal(t, domain.StatusFailed, out[0].Status)
	assert.Equal(t, domain.StatusFailed, out[1].Status)
	assert.Zero(t, fake.total())
}

func TestDispatchSkipsSettledActions(t *testing.T) {
	d, fake, _ := newTestDispatcher(t)
	done := zoneAction(domain.ActionBlacklist, 1, 10)
	done.Status = domain.StatusApplied

	out := d.Dispatch(context.Background(), []domain.Action{done})
	assert.Equal(t, domain.StatusApplied, out[0].Status)
	assert.Zero(t, fake.total())
}

func TestDispatchStopsOnCancelledContext(t *testing.T) {
	d, fake, _ := newTestDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := d.Dispatch(ctx, []domain.Action{
		zoneAction(domain.ActionBlacklist, 1, 10),
		domain.CallerAction(domain.ActionStart, campaignRef(1), domain.ActionParams{}, fixedNow()),
	})
	for _, a := range out {
		assert.Equal(t, domain.StatusFailed, a.Status)
		assert.Equal(t, context.Canceled.Error(), a.Error)
	}
	assert.Zero(t, fake.total())
}

func TestDispatchStopsAfterFirstUpstreamFailure(t *testing.T) {
	d, fake, book := newTestDispatcher(t)
	fake.updateErr[2] = errors.New("budget too low")
	budget := func(id int64) domain.Action {
		v := 60.0
		return domain.CallerAction(domain.ActionBudgetDelta, campaignRef(id), domain.ActionParams{DailyBudget: &v}, fixedNow())
	}

	out := d.Dispatch(context.Background(), []domain.Action{
		budget(1),
		budget(2),
		budget(3),
		domain.CallerAction(domain.ActionStart, campaignRef(9), domain.ActionParams{}, fixedNow()),
		zoneAction(domain.ActionBlacklist, 1, 10),
	})

	// Zone groups and starts go first, then single actions in order.
	assert.Equal(t, domain.StatusApplied, out[4].Status)
	assert.Equal(t, domain.StatusApplied, out[3].Status)
	assert.Equal(t, domain.StatusApplied, out[0].Status)
	assert.Equal(t, domain.StatusFailed, out[1].Status)
	assert.Contains(t, out[1].Error, "budget too low")
	assert.Equal(t, domain.StatusSkipped, out[2].Status)
	assert.Contains(t, out[2].Error, "budget too low")
	assert.NotContains(t, fake.updates, int64(3))
	assert.Equal(t, domain.Blacklisted, book.Get(domain.ZoneKey{CampaignID: 1, ZoneID: 10}))
}

func TestDispatchLocalFailureDoesNotStopBatch(t *testing.T) {
	d, fake, _ := newTestDispatcher(t)
	out := d.Dispatch(context.Background(), []domain.Action{
		domain.CallerAction(domain.ActionBudgetDelta, campaignRef(4), domain.ActionParams{}, fixedNow()),
		domain.CallerAction(domain.ActionPause, campaignRef(2), domain.ActionParams{}, fixedNow()),
	})
	assert.Equal(t, domain.StatusFailed, out[0].Status)
	assert.Equal(t, domain.StatusApplied, out[1].Status)
	assert.Equal(t, [][]int64{{2}}, fake.stopped)
}
