package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// DefaultConfirmationTTL is how long a proposed batch stays confirmable.
const DefaultConfirmationTTL = 15 * time.Minute

// Gate parks mutating batches behind a single-use token. Nothing reaches
// the platform until Confirm is called with a live token.
type Gate struct {
	store      port.ConfirmationStore
	dispatcher *Dispatcher
	audit      port.AuditRecorder
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewGate creates a Gate. audit may be nil.
func NewGate(store port.ConfirmationStore, dispatcher *Dispatcher, audit port.AuditRecorder, ttl time.Duration, now func() time.Time, logger *slog.Logger) *Gate {
	if ttl <= 0 {
		ttl = DefaultConfirmationTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{store: store, dispatcher: dispatcher, audit: audit, ttl: ttl, now: now, logger: logger}
}

// Propose stores batch under a fresh token and returns the payload the
// caller has to confirm.
func (g *Gate) Propose(ctx context.Context, batch domain.ActionBatch) (*port.ConfirmationPayload, error) {
	if batch.Len() == 0 {
		return nil, port.NewValidationError("propose", "actions", "batch is empty")
	}
	now := g.now()
	pc := domain.PendingConfirmation{
		Token:     uuid.NewString(),
		Batch:     batch,
		State:     domain.StateAwaitingConfirmation,
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.store.Save(ctx, pc); err != nil {
		return nil, fmt.Errorf("propose batch: %w", err)
	}
	g.logger.Info("batch awaiting confirmation",
		slog.String("token", pc.Token),
		slog.String("kind", string(batch.Kind)),
		slog.Int("actions", batch.Len()),
		slog.Bool("truncated", batch.Truncated),
		slog.Time("expires_at", pc.ExpiresAt))
	return &port.ConfirmationPayload{
		BatchToken:      pc.Token,
		ProposedActions: batch.Actions,
		ExpiresAt:       pc.ExpiresAt,
		Truncated:       batch.Truncated,
		Discarded:       batch.Discarded,
	}, nil
}

// take consumes token and rejects expired batches.
func (g *Gate) take(ctx context.Context, token string) (domain.PendingConfirmation, error) {
	pc, err := g.store.Take(ctx, token)
	if err != nil {
		return pc, err
	}
	if pc.Expired(g.now()) {
		g.logger.Info("batch expired before confirmation", slog.String("token", token))
		return pc, fmt.Errorf("batch %s expired at %s: %w", token, pc.ExpiresAt.Format(time.RFC3339), port.ErrStaleConfirmation)
	}
	return pc, nil
}

// Confirm dispatches the batch behind token. A token is consumed on the
// first call, so a second call fails with ErrStaleConfirmation. When some
// actions fail the result is returned together with a
// *port.MutationFailedError.
func (g *Gate) Confirm(ctx context.Context, token string) (*port.DispatchResult, error) {
	pc, err := g.take(ctx, token)
	if err != nil {
		return nil, err
	}
	g.logger.Info("batch confirmed", slog.String("token", token), slog.Int("actions", pc.Batch.Len()))

	actions := g.dispatcher.Dispatch(ctx, pc.Batch.Actions)

	applied, failed := 0, 0
	for _, a := range actions {
		switch a.Status {
		case domain.StatusApplied:
			applied++
		case domain.StatusFailed:
			failed++
		}
	}
	if g.audit != nil {
		// The audit trail must not turn an applied mutation into an error.
		if err := g.audit.Record(context.WithoutCancel(ctx), token, actions); err != nil {
			g.logger.Error("record audit", slog.String("token", token), slog.Any("error", err))
		}
	}

	res := &port.DispatchResult{
		BatchToken:       token,
		State:            domain.StateDispatched,
		Actions:          actions,
		PartiallyApplied: failed > 0 && applied > 0,
	}
	g.logger.Info("batch dispatched",
		slog.String("token", token),
		slog.Int("applied", applied),
		slog.Int("failed", failed),
		slog.Int("skipped", len(actions)-applied-failed))
	if failed > 0 {
		return res, &port.MutationFailedError{Token: token, Actions: actions}
	}
	return res, nil
}

// Reject discards the batch behind token without touching the platform.
func (g *Gate) Reject(ctx context.Context, token string) (*port.DispatchResult, error) {
	pc, err := g.take(ctx, token)
	if err != nil {
		return nil, err
	}
	actions := make([]domain.Action, len(pc.Batch.Actions))
	for i, a := range pc.Batch.Actions {
		a.Status = domain.StatusSkipped
		actions[i] = a
	}
	g.logger.Info("batch rejected", slog.String("token", token), slog.Int("actions", len(actions)))
	return &port.DispatchResult{BatchToken: token, State: domain.StateRejected, Actions: actions}, nil
}

