package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"adpilot/internal/adapter/upstream"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// Defaults are the thresholds used when a tool call leaves them out. ROI
// values are fractions.
type Defaults struct {
	MinSpend            float64
	ROIThreshold        float64
	MinConversions      int64
	ScaleROIThreshold   float64
	ScaleMinConversions int64
	ScaleBudgetStep     float64
	TopLimit            int
	ZoneReportLimit     int
	WindowDays          int
}

// DefaultDefaults mirrors the optimizer configuration defaults.
var DefaultDefaults = Defaults{
	MinSpend:            10,
	MinConversions:      1,
	ScaleROIThreshold:   0.5,
	ScaleMinConversions: 10,
	ScaleBudgetStep:     0.2,
	TopLimit:            20,
	ZoneReportLimit:     100,
	WindowDays:          7,
}

// OrchestratorDeps groups the collaborators of an Orchestrator.
type OrchestratorDeps struct {
	// Platform must be the paced client; Pager is the executor behind it.
	Platform port.AdPlatformClient
	Pager    *upstream.Client
	Gate     *Gate
	Planner  *Planner
	// Rules are custom rules evaluated by name next to the built-in ones.
	Rules    []domain.Rule
	Defaults Defaults
	Now      func() time.Time
	Logger   *slog.Logger
}

// Orchestrator maps tool calls onto the engine pipelines. Read tools run
// immediately, write tools end in a confirmation payload and gate tools
// confirm or reject a pending batch.
type Orchestrator struct {
	platform port.AdPlatformClient
	pager    *upstream.Client
	agg      *Aggregator
	engine   *RuleEngine
	planner  *Planner
	gate     *Gate
	rules    []domain.Rule
	defaults Defaults
	now      func() time.Time
	logger   *slog.Logger

	tools []tool
	index map[string]int
}

var _ port.ToolUseCase = (*Orchestrator)(nil)

// NewOrchestrator builds an Orchestrator and its tool catalogue.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if deps.Defaults.WindowDays < 1 {
		deps.Defaults.WindowDays = DefaultDefaults.WindowDays
	}
	planner := deps.Planner
	if planner == nil {
		planner = NewPlanner(DefaultMaxBatchSize, now)
	}
	o := &Orchestrator{
		platform: deps.Platform,
		pager:    deps.Pager,
		agg:      NewAggregator(deps.Platform, deps.Pager, deps.Logger),
		engine:   NewRuleEngine(now),
		planner:  planner,
		gate:     deps.Gate,
		rules:    deps.Rules,
		defaults: deps.Defaults,
		now:      now,
		logger:   deps.Logger,
	}
	o.tools = o.catalogue()
	o.index = make(map[string]int, len(o.tools))
	for i, t := range o.tools {
		o.index[t.info.Name] = i
	}
	return o
}

// Tools lists the catalogue in registration order.
func (o *Orchestrator) Tools() []port.ToolInfo {
	out := make([]port.ToolInfo, len(o.tools))
	for i, t := range o.tools {
		out[i] = t.info
	}
	return out
}

// Call runs the named tool with JSON arguments.
func (o *Orchestrator) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	i, ok := o.index[name]
	if !ok {
		return nil, &port.UnknownOperationError{Name: name}
	}
	t := o.tools[i]
	start := o.now()
	res, err := t.run(ctx, args)
	o.logger.Debug("tool call",
		slog.String("tool", name),
		slog.String("kind", string(t.info.Kind)),
		slog.Duration("took", o.now().Sub(start)),
		slog.Bool("ok", err == nil))
	return res, err
}

type tool struct {
	info port.ToolInfo
	run  func(ctx context.Context, args json.RawMessage) (any, error)
}

// handle binds the arguments of a tool before running fn.
func handle[T any](name string, fn func(ctx context.Context, args T) (any, error)) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		args, err := bind[T](name, raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}

func (o *Orchestrator) window(op string, r dateRange) (domain.Window, error) {
	return r.window(op, o.now(), o.defaults.WindowDays)
}

// propose parks batch behind a token and returns the confirmation payload.
func (o *Orchestrator) propose(ctx context.Context, batch domain.ActionBatch) (any, error) {
	payload, err := o.gate.Propose(ctx, batch)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// callerArgs renders validated arguments for the audit line.
func callerArgs(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
