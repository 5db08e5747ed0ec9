package port

import (
	"context"

	"adpilot/internal/core/domain"
)

// ConfirmationStore keeps pending batches keyed by token. Implementations
// must make Take atomic so that a token is handed out at most once, even
// across replicas sharing the store.
type ConfirmationStore interface {
	// Save parks a pending confirmation until its ExpiresAt.
	Save(ctx context.Context, pc domain.PendingConfirmation) error
	// Take removes and returns a pending confirmation. It fails with
	// ErrStaleConfirmation when the token was already taken or has
	// expired out of the store, and with ErrUnknownToken when it was
	// never issued.
	Take(ctx context.Context, token string) (domain.PendingConfirmation, error)
}

// AuditRecorder persists the outcome of dispatched actions.
type AuditRecorder interface {
	Record(ctx context.Context, token string, actions []domain.Action) error
}
