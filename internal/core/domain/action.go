package domain

import "time"

// ActionKind is the mutation an action performs.
type ActionKind string

const (
	ActionBlacklist   ActionKind = "blacklist"
	ActionWhitelist   ActionKind = "whitelist"
	ActionPause       ActionKind = "pause"
	ActionStart       ActionKind = "start"
	ActionBudgetDelta ActionKind = "budget_delta"

	ActionUpdateCampaign ActionKind = "update_campaign"
	ActionCreateCampaign ActionKind = "create_campaign"
	ActionCloneCampaign  ActionKind = "clone_campaign"
)

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionBlacklist, ActionWhitelist, ActionPause, ActionStart, ActionBudgetDelta,
		ActionUpdateCampaign, ActionCreateCampaign, ActionCloneCampaign:
		return true
	}
	return false
}

// ListMode returns the zone list a zone action edits.
func (k ActionKind) ListMode() (ListMode, bool) {
	switch k {
	case ActionBlacklist:
		return ListBlacklist, true
	case ActionWhitelist:
		return ListWhitelist, true
	}
	return "", false
}

// ActionSource tells who asked for an action.
type ActionSource string

const (
	SourceRule   ActionSource = "rule"
	SourceCaller ActionSource = "caller"
)

// ActionParams carries kind-specific inputs. Only the fields relevant to the
// kind are set.
type ActionParams struct {
	// DailyBudget is the new daily budget of a budget_delta action.
	DailyBudget *float64 `json:"daily_budget,omitempty"`
	// PreviousBudget is the budget observed when the action was planned.
	PreviousBudget *float64       `json:"previous_budget,omitempty"`
	Patch          *CampaignPatch `json:"patch,omitempty"`
	Draft          *CampaignDraft `json:"draft,omitempty"`
	// CloneName names the copy made by a clone_campaign action.
	CloneName string         `json:"clone_name,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
}

// ActionCandidate is a rule outcome. It always carries the snapshot that
// justified it.
type ActionCandidate struct {
	Rule       string       `json:"rule"`
	Target     EntityRef    `json:"target"`
	Kind       ActionKind   `json:"kind"`
	Snapshot   MetricRecord `json:"snapshot"`
	ObservedAt time.Time    `json:"observed_at"`
	// Rank is the 0-based position in the rule result; lower is better.
	Rank   int          `json:"rank"`
	Params ActionParams `json:"params,omitempty"`
}

// AuditLine records why an action exists.
type AuditLine struct {
	Rule      string          `json:"rule"`
	Source    ActionSource    `json:"source"`
	Entity    EntityRef       `json:"entity"`
	Metrics   map[Field]Ratio `json:"metrics,omitempty"`
	Args      map[string]any  `json:"args,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ActionStatus is the dispatch outcome of one action.
type ActionStatus string

const (
	StatusPending ActionStatus = "pending"
	StatusApplied ActionStatus = "applied"
	StatusFailed  ActionStatus = "failed"
	StatusSkipped ActionStatus = "skipped"
)

// Action is one executable mutation inside a batch. Rule-sourced actions
// carry Evidence; caller-sourced actions carry their arguments in Audit.
type Action struct {
	Seq      int           `json:"seq"`
	Kind     ActionKind    `json:"kind"`
	Target   EntityRef     `json:"target"`
	Source   ActionSource  `json:"source"`
	Rule     string        `json:"rule,omitempty"`
	Evidence *MetricRecord `json:"evidence,omitempty"`
	Params   ActionParams  `json:"params,omitempty"`
	Audit    AuditLine     `json:"audit"`
	Status   ActionStatus  `json:"status"`
	Error    string        `json:"error,omitempty"`
	// ResultID is set by actions that create an entity.
	ResultID int64 `json:"result_id,omitempty"`
}

// ActionBatch is a planned set of actions awaiting confirmation or dispatch.
type ActionBatch struct {
	Kind      ActionKind `json:"kind"`
	Actions   []Action   `json:"actions"`
	Truncated bool       `json:"truncated"`
	Discarded int        `json:"discarded"`
	PlannedAt time.Time  `json:"planned_at"`
	// PartiallyApplied is set after dispatch when some actions failed.
	PartiallyApplied bool `json:"partially_applied,omitempty"`
}

// Len returns the number of actions.
func (b ActionBatch) Len() int { return len(b.Actions) }

// CallerAction builds an action requested directly by the caller. Its audit
// line records the request arguments instead of metrics.
func CallerAction(kind ActionKind, target EntityRef, params ActionParams, now time.Time) Action {
	return Action{
		Kind:   kind,
		Target: target,
		Source: SourceCaller,
		Params: params,
		Status: StatusPending,
		Audit: AuditLine{
			Rule:      string(kind),
			Source:    SourceCaller,
			Entity:    target,
			Args:      params.Args,
			Timestamp: now,
		},
	}
}
