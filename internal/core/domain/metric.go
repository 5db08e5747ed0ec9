package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EntityType identifies what a metric record describes.
type EntityType string

const (
	EntityCampaign EntityType = "campaign"
	EntityZone     EntityType = "zone"
	EntityCreative EntityType = "creative"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityCampaign, EntityZone, EntityCreative:
		return true
	}
	return false
}

// EntityRef points at a campaign, zone or creative. CampaignID is the parent
// campaign for zones and creatives and equals ID for campaigns. It is zero
// when statistics were not scoped to one campaign.
type EntityRef struct {
	Type       EntityType `json:"type"`
	ID         int64      `json:"id"`
	CampaignID int64      `json:"campaign_id,omitempty"`
}

func (r EntityRef) String() string {
	return string(r.Type) + ":" + strconv.FormatInt(r.ID, 10)
}

// Ratio is a derived metric that may be undefined when its denominator is
// zero. Undefined ratios encode as JSON null.
type Ratio struct {
	Value   float64
	Defined bool
}

// Undefined is the zero-denominator ratio.
var Undefined = Ratio{}

// DefinedRatio wraps a known value.
func DefinedRatio(v float64) Ratio { return Ratio{Value: v, Defined: true} }

func divide(num, den float64) Ratio {
	if den == 0 {
		return Undefined
	}
	return DefinedRatio(num / den)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Undefined
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = DefinedRatio(v)
	return nil
}

func (r Ratio) String() string {
	if !r.Defined {
		return "undefined"
	}
	return strconv.FormatFloat(r.Value, 'f', 4, 64)
}

// Field names a raw or derived metric.
type Field string

const (
	FieldImpressions Field = "impressions"
	FieldClicks      Field = "clicks"
	FieldConversions Field = "conversions"
	FieldCost        Field = "cost"
	FieldRevenue     Field = "revenue"
	FieldCTR         Field = "ctr"
	FieldCVR         Field = "cvr"
	FieldCPC         Field = "cpc"
	FieldCPA         Field = "cpa"
	FieldROI         Field = "roi"
)

// CountFields are summed when records merge.
var CountFields = []Field{FieldImpressions, FieldClicks, FieldConversions, FieldCost, FieldRevenue}

// RatioFields are recomputed after every merge.
var RatioFields = []Field{FieldCTR, FieldCVR, FieldCPC, FieldCPA, FieldROI}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	f := Field(s)
	for _, known := range CountFields {
		if f == known {
			return f, nil
		}
	}
	for _, known := range RatioFields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown metric field %q", s)
}

// MetricRecord holds the performance of one entity over one window. Ratios
// are computed on read and never stored.
type MetricRecord struct {
	Entity      EntityRef `json:"entity"`
	Window      Window    `json:"window"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Conversions int64     `json:"conversions"`
	Cost        float64   `json:"cost"`
	Revenue     float64   `json:"revenue"`
}

// CTR is clicks / impressions.
func (m MetricRecord) CTR() Ratio { return divide(float64(m.Clicks), float64(m.Impressions)) }

// CVR is conversions / clicks.
func (m MetricRecord) CVR() Ratio { return divide(float64(m.Conversions), float64(m.Clicks)) }

// CPC is cost / clicks.
func (m MetricRecord) CPC() Ratio { return divide(m.Cost, float64(m.Clicks)) }

// CPA is cost / conversions.
func (m MetricRecord) CPA() Ratio { return divide(m.Cost, float64(m.Conversions)) }

// ROI is (revenue - cost) / cost, a fraction where 1.0 means 100%.
func (m MetricRecord) ROI() Ratio { return divide(m.Revenue-m.Cost, m.Cost) }

// Value returns any field as a ratio. Count fields are always defined.
func (m MetricRecord) Value(f Field) Ratio {
	switch f {
	case FieldImpressions:
		return DefinedRatio(float64(m.Impressions))
	case FieldClicks:
		return DefinedRatio(float64(m.Clicks))
	case FieldConversions:
		return DefinedRatio(float64(m.Conversions))
	case FieldCost:
		return DefinedRatio(m.Cost)
	case FieldRevenue:
		return DefinedRatio(m.Revenue)
	case FieldCTR:
		return m.CTR()
	case FieldCVR:
		return m.CVR()
	case FieldCPC:
		return m.CPC()
	case FieldCPA:
		return m.CPA()
	case FieldROI:
		return m.ROI()
	}
	return Undefined
}

// IsZero reports whether the record carries no traffic at all.
func (m MetricRecord) IsZero() bool {
	return m.Impressions == 0 && m.Clicks == 0 && m.Conversions == 0 && m.Cost == 0 && m.Revenue == 0
}

// Merge sums counts and money of two records describing the same entity
// and window. The result keeps the receiver's entity and window.
func (m MetricRecord) Merge(o MetricRecord) MetricRecord {
	m.Impressions += o.Impressions
	m.Clicks += o.Clicks
	m.Conversions += o.Conversions
	m.Cost += o.Cost
	m.Revenue += o.Revenue
	return m
}

// Values returns every field, raw and derived, keyed by name. It is the
// form stored in audit lines and returned to callers.
func (m MetricRecord) Values() map[Field]Ratio {
	out := make(map[Field]Ratio, len(CountFields)+len(RatioFields))
	for _, f := range CountFields {
		out[f] = m.Value(f)
	}
	for _, f := range RatioFields {
		out[f] = m.Value(f)
	}
	return out
}

// MarshalJSON adds the derived ratios to the encoded record.
func (m MetricRecord) MarshalJSON() ([]byte, error) {
	type raw MetricRecord
	return json.Marshal(struct {
		raw
		CTR Ratio `json:"ctr"`
		CVR Ratio `json:"cvr"`
		CPC Ratio `json:"cpc"`
		CPA Ratio `json:"cpa"`
		ROI Ratio `json:"roi"`
	}{raw(m), m.CTR(), m.CVR(), m.CPC(), m.CPA(), m.ROI()})
}

// PercentChange is the signed percentage change from a to b. It is 0 when
// both are zero and undefined when only a is zero or either side is
// undefined.
func PercentChange(a, b Ratio) Ratio {
	if !a.Defined || !b.Defined {
		return Undefined
	}
	if a.Value == 0 {
		if b.Value == 0 {
			return DefinedRatio(0)
		}
		return Undefined
	}
	return DefinedRatio((b.Value - a.Value) / a.Value * 100)
}

// Delta computes PercentChange for every field of two records.
func Delta(a, b MetricRecord) map[Field]Ratio {
	av, bv := a.Values(), b.Values()
	out := make(map[Field]Ratio, len(av))
	for f, v := range av {
		out[f] = PercentChange(v, bv[f])
	}
	return out
}
