package port

import (
	"context"
	"encoding/json"
	"time"

	"adpilot/internal/core/domain"
)

// ToolKind classifies a tool for the confirmation gate.
type ToolKind string

const (
	// ToolRead executes immediately.
	ToolRead ToolKind = "read"
	// ToolWrite returns a confirmation payload instead of mutating.
	ToolWrite ToolKind = "write"
	// ToolGate confirms or rejects a pending batch.
	ToolGate ToolKind = "gate"
)

// ToolUseCase is the inbound port used by the HTTP surface and the CLI. It
// maps a tool name and JSON arguments onto an engine pipeline.
type ToolUseCase interface {
	// Tools lists the catalogue in a stable order.
	Tools() []ToolInfo
	// Call runs a tool. Read tools return their result, write tools return
	// a *ConfirmationPayload, gate tools return a *DispatchResult.
	Call(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// ToolInfo describes one catalogue entry.
type ToolInfo struct {
	Name        string   `json:"name"`
	Kind        ToolKind `json:"kind"`
	Description string   `json:"description"`
}

// ConfirmationPayload is returned by write tools until the batch is
// confirmed.
type ConfirmationPayload struct {
	BatchToken      string          `json:"batchToken"`
	ProposedActions []domain.Action `json:"proposedActions"`
	ExpiresAt       time.Time       `json:"expiresAt"`
	Truncated       bool            `json:"truncated"`
	Discarded       int             `json:"discarded"`
}

// DispatchResult is returned by a confirmed or rejected batch.
type DispatchResult struct {
	BatchToken       string            `json:"batchToken"`
	State            domain.BatchState `json:"state"`
	Actions          []domain.Action   `json:"actions"`
	PartiallyApplied bool              `json:"partiallyApplied"`
}
