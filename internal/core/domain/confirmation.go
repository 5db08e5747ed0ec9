package domain

import "time"

// BatchState is the lifecycle of a mutating batch.
type BatchState string

const (
	StateProposed             BatchState = "proposed"
	StateAwaitingConfirmation BatchState = "awaiting_confirmation"
	StateConfirmed            BatchState = "confirmed"
	StateDispatched           BatchState = "dispatched"
	StateExpired              BatchState = "expired"
	StateRejected             BatchState = "rejected"
)

// PendingConfirmation is a batch parked until the caller confirms it. A
// token is consumed at most once.
type PendingConfirmation struct {
	Token     string      `json:"token"`
	Batch     ActionBatch `json:"batch"`
	State     BatchState  `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the confirmation is past its TTL at now.
func (p PendingConfirmation) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
