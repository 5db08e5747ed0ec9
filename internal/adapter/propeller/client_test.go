package propeller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

type recorded struct {
	method string
	path   string
	query  map[string]string
	body   string
	auth   string
}

// newServer answers every request with status and body and records the
// last request.
func newServer(t *testing.T, status int, body string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.query = map[string]string{}
		for k, v := range r.URL.Query() {
			rec.query[k] = v[0]
		}
		b, _ := io.ReadAll(r.Body)
		rec.body = string(b)
		w.Header().Set("Content-Type", "application/json")
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "7")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret-token", WithTimezone("+0300")), rec
}

func TestListCampaigns(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"result":[
		{"id":12,"name":"Push RU","status":6,"direction":"push","rate_model":"cpc","daily_amount":"50.5",
		 "rates":[{"amount":0.03,"countries":["ru"]}],"created_at":"2026-01-02 10:00:00"},
		{"id":13,"name":"Other","status":2,"direction":"onclick"}]}`)

	active := domain.CampaignActive
	page, err := c.ListCampaigns(context.Background(), port.CampaignFilter{Status: &active, Name: "push"}, port.PageRequest{Page: 2, Size: 2})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/adv/campaigns", rec.path)
	assert.Equal(t, "Bearer secret-token", rec.auth)
	assert.Equal(t, "2", rec.query["page"])
	assert.Equal(t, "2", rec.query["page_size"])
	assert.Equal(t, "6", rec.query["status[0]"])
	assert.Equal(t, "0", rec.query["is_archived"])

	require.Len(t, page.Items, 1)
	got := page.Items[0]
	assert.Equal(t, int64(12), got.ID)
	assert.Equal(t, domain.CampaignActive, got.Status)
	assert.Equal(t, 50.5, got.DailyBudget)
	assert.Equal(t, 0.03, got.Bid)
	assert.Equal(t, []string{"ru"}, got.Targeting.Countries)
	assert.Equal(t, "push", got.Targeting.AdFormat)
	assert.Equal(t, time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC), got.CreatedAt)
	assert.True(t, page.HasMore, "a full page may be followed by another")
}

func TestStatusMapping(t *testing.T) {
	want := map[int]domain.CampaignStatus{
		1: domain.CampaignInDraft, 2: domain.CampaignInDraft, 3: domain.CampaignInDraft, 4: domain.CampaignInDraft,
		6: domain.CampaignActive, 7: domain.CampaignPaused, 8: domain.CampaignArchived, 9: domain.CampaignArchived,
	}
	for code, status := range want {
		assert.Equal(t, status, statusFromCode(code), code)
		assert.Contains(t, codesForStatus(status), code)
	}
}

func TestGetStats(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"result":[
		{"zone_id":"101","campaign_id":7,"impressions":1000,"clicks":"20","conversions":0,"spend":"60.00","revenue":0},
		{"zone_id":102,"campaign_id":7,"impressions":500,"clicks":10,"conversions":5,"cost":30,"revenue":"90"}]}`)

	w := domain.DayWindow(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	page, err := c.GetStats(context.Background(), port.StatsQuery{
		GroupBy:     domain.EntityZone,
		Window:      w,
		CampaignIDs: []int64{7},
	}, port.PageRequest{Page: 1, Size: 100})
	require.NoError(t, err)

	assert.Equal(t, "/adv/statistics", rec.path)
	assert.Equal(t, "2026-03-01", rec.query["day_from"])
	assert.Equal(t, "2026-03-07", rec.query["day_to"])
	assert.Equal(t, "zone_id", rec.query["group_by[0]"])
	assert.Equal(t, "campaign_id", rec.query["group_by[1]"])
	assert.Equal(t, "7", rec.query["campaign_id[0]"])
	assert.Equal(t, "+0300", rec.query["tz"])

	require.Len(t, page.Items, 2)
	assert.Equal(t, domain.EntityRef{Type: domain.EntityZone, ID: 101, CampaignID: 7}, page.Items[0].Entity)
	assert.Equal(t, 60.0, page.Items[0].Cost)
	assert.Equal(t, int64(20), page.Items[0].Clicks)
	assert.Equal(t, 30.0, page.Items[1].Cost)
	assert.Equal(t, 90.0, page.Items[1].Revenue)
	assert.False(t, page.HasMore)
	_, daily := rec.query["group_by[2]"]
	assert.False(t, daily)
}

func TestGetStatsDaily(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"result":[
		{"campaign_id":7,"date_time":"2026-10-10","cost":3},
		{"campaign_id":7,"date_time":"2026-10-11","cost":4}]}`)

	w := domain.DayWindow(time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC))
	page, err := c.GetStats(context.Background(), port.StatsQuery{
		GroupBy:     domain.EntityCampaign,
		Window:      w,
		Daily:       true,
		CampaignIDs: []int64{7},
	}, port.PageRequest{Page: 1, Size: 100})
	require.NoError(t, err)

	assert.Equal(t, "campaign_id", rec.query["group_by[0]"])
	assert.Equal(t, "date_time", rec.query["group_by[1]"])
	require.Len(t, page.Items, 2)
	assert.Equal(t, time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC), page.Items[1].Day)
	assert.Equal(t, 4.0, page.Items[1].Cost)
}

func TestSetZoneList(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"result":true}`)

	require.NoError(t, c.SetZoneList(context.Background(), 7, []int64{101, 103}, domain.ListBlacklist))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/adv/campaigns/7/targeting/zones/blacklist", rec.path)
	assert.JSONEq(t, `{"zone_ids":[101,103]}`, rec.body)

	assert.Error(t, c.SetZoneList(context.Background(), 7, []int64{1}, "greylist"))
}

func TestUpdateCampaignStatusUsesStartEndpoint(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{}`)

	active := domain.CampaignActive
	require.NoError(t, c.UpdateCampaign(context.Background(), 5, domain.CampaignPatch{Status: &active}))
	assert.Equal(t, "/adv/campaigns/start", rec.path)
	assert.JSONEq(t, `{"ids":[5]}`, rec.body)

	budget := 80.0
	require.NoError(t, c.UpdateCampaign(context.Background(), 5, domain.CampaignPatch{DailyBudget: &budget}))
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/adv/campaigns/5", rec.path)
	assert.JSONEq(t, `{"daily_amount":80}`, rec.body)
}

func TestCloneCampaignBareID(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"result":99}`)

	clone, err := c.CloneCampaign(context.Background(), 5, "copy")
	require.NoError(t, err)
	assert.Equal(t, int64(99), clone.ID)
	assert.Equal(t, "copy", clone.Name)
	assert.Equal(t, "/adv/campaigns/5/clone", rec.path)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(rec.body), &body))
	assert.Equal(t, "copy", body["name"])
}

func TestErrorResponses(t *testing.T) {
	c, _ := newServer(t, http.StatusTooManyRequests, `{"message":"too many requests"}`)
	_, err := c.GetBalance(context.Background())

	var apiErr *port.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "too many requests", apiErr.Message)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)

	c, _ = newServer(t, http.StatusNotFound, `campaign not found`)
	_, err = c.GetCampaign(context.Background(), 3)
	require.ErrorIs(t, err, port.ErrNotFound)
	assert.Contains(t, err.Error(), "campaign not found")
}

func TestBalanceShapes(t *testing.T) {
	for body, want := range map[string]float64{
		`"152.40"`:            152.40,
		`{"result":"152.40"}`: 152.40,
		`{"result":{"balance":12.5,"currency":"usd"}}`: 12.5,
	} {
		c, _ := newServer(t, http.StatusOK, body)
		b, err := c.GetBalance(context.Background())
		require.NoError(t, err, body)
		assert.Equal(t, want, b.Amount, body)
		assert.Equal(t, "USD", b.Currency)
	}
}

func TestDictionaries(t *testing.T) {
	c, _ := newServer(t, http.StatusOK, `{"result":[{"code":"us","name":"United States"},"de"]}`)
	countries, err := c.GetCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Country{{Code: "us", Name: "United States"}, {Code: "de", Name: "de"}}, countries)

	c, _ = newServer(t, http.StatusOK, `{"result":[{"id":"push","title":"Push"}]}`)
	formats, err := c.GetAdFormats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.AdFormat{{Code: "push", Name: "Push"}}, formats)
}

func TestListCreatives(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"result":[{"id":1,"name":"Banner","status":6},{"id":2,"title":"Alt","is_active":false}]}`)

	page, err := c.ListCreatives(context.Background(), 7, port.PageRequest{Page: 1, Size: 50})
	require.NoError(t, err)
	assert.Equal(t, "7", rec.query["campaign_id"])
	assert.Equal(t, []domain.Creative{
		{ID: 1, CampaignID: 7, Title: "Banner", Active: true},
		{ID: 2, CampaignID: 7, Title: "Alt", Active: false},
	}, page.Items)
}
