package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCTRUndefinedWithoutImpressions(t *testing.T) {
	for _, m := range []MetricRecord{
		{},
		{Clicks: 5},
		{Clicks: 3, Conversions: 1, Cost: 10, Revenue: 20},
	} {
		ctr := m.CTR()
		assert.False(t, ctr.Defined, "record %+v", m)
		assert.Zero(t, ctr.Value)
	}

	ctr := MetricRecord{Impressions: 200, Clicks: 5}.CTR()
	require.True(t, ctr.Defined)
	assert.InDelta(t, 0.025, ctr.Value, 1e-9)
}

func TestDerivedRatios(t *testing.T) {
	m := MetricRecord{Impressions: 1000, Clicks: 50, Conversions: 5, Cost: 30, Revenue: 90}

	assert.InDelta(t, 2.0, m.ROI().Value, 1e-9)
	assert.InDelta(t, 6.0, m.CPA().Value, 1e-9)
	assert.InDelta(t, 0.1, m.CVR().Value, 1e-9)
	assert.InDelta(t, 0.6, m.CPC().Value, 1e-9)

	empty := MetricRecord{}
	for _, f := range RatioFields {
		assert.False(t, empty.Value(f).Defined, f)
	}
	for _, f := range CountFields {
		assert.True(t, empty.Value(f).Defined, f)
	}
}

func TestMergeCommutativeAndAssociative(t *testing.T) {
	a := MetricRecord{Impressions: 100, Clicks: 4, Conversions: 1, Cost: 1.25, Revenue: 3}
	b := MetricRecord{Impressions: 50, Clicks: 1, Cost: 0.5}
	c := MetricRecord{Impressions: 7, Clicks: 7, Conversions: 2, Cost: 2.25, Revenue: 9.5}

	assert.Equal(t, a.Merge(b), b.Merge(a))
	assert.Equal(t, a.Merge(b).Merge(c), a.Merge(b.Merge(c)))

	sum := a.Merge(b).Merge(c)
	assert.Equal(t, int64(157), sum.Impressions)
	assert.Equal(t, int64(12), sum.Clicks)
	assert.Equal(t, int64(3), sum.Conversions)
	// Ratios come from the summed counts, not from summing ratios.
	assert.InDelta(t, 12.0/157.0, sum.CTR().Value, 1e-9)
}

func TestRatioJSON(t *testing.T) {
	out, err := json.Marshal(MetricRecord{Entity: EntityRef{Type: EntityZone, ID: 7}, Cost: 10})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Nil(t, decoded["ctr"])
	assert.Nil(t, decoded["cpa"])
	assert.InDelta(t, -1.0, decoded["roi"], 1e-9)

	var r Ratio
	require.NoError(t, json.Unmarshal([]byte("null"), &r))
	assert.False(t, r.Defined)
	require.NoError(t, json.Unmarshal([]byte("0.5"), &r))
	assert.Equal(t, DefinedRatio(0.5), r)
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name string
		a, b Ratio
		want Ratio
	}{
		{"drop to zero", DefinedRatio(3), DefinedRatio(0), DefinedRatio(-100)},
		{"double", DefinedRatio(10), DefinedRatio(20), DefinedRatio(100)},
		{"both zero", DefinedRatio(0), DefinedRatio(0), DefinedRatio(0)},
		{"from zero", DefinedRatio(0), DefinedRatio(4), Undefined},
		{"undefined side", Undefined, DefinedRatio(1), Undefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentChange(tt.a, tt.b)
			assert.Equal(t, tt.want.Defined, got.Defined)
			assert.InDelta(t, tt.want.Value, got.Value, 1e-9)
		})
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField("roi")
	require.NoError(t, err)
	assert.Equal(t, FieldROI, f)

	_, err = ParseField("profit")
	assert.Error(t, err)
}
