package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// ConfirmationStore keeps pending batches in process memory. Taken and
// swept tokens leave a tombstone so that reuse reports a stale token
// instead of an unknown one.
type ConfirmationStore struct {
	mu      sync.Mutex
	pending map[string]domain.PendingConfirmation
	// spent maps consumed or expired tokens to the time they can be forgotten.
	spent map[string]time.Time

	retain time.Duration
	now    func() time.Time
	logger *slog.Logger
}

var _ port.ConfirmationStore = (*ConfirmationStore)(nil)

// NewConfirmationStore creates an empty store. Tombstones are kept for
// retain after a token is spent.
func NewConfirmationStore(retain time.Duration, now func() time.Time, logger *slog.Logger) *ConfirmationStore {
	if now == nil {
		now = time.Now
	}
	if retain <= 0 {
		retain = 24 * time.Hour
	}
	return &ConfirmationStore{
		pending: make(map[string]domain.PendingConfirmation),
		spent:   make(map[string]time.Time),
		retain:  retain,
		now:     now,
		logger:  logger,
	}
}

func (s *ConfirmationStore) Save(_ context.Context, pc domain.PendingConfirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[pc.Token]; ok {
		return fmt.Errorf("save confirmation %s: token already pending", pc.Token)
	}
	if _, ok := s.spent[pc.Token]; ok {
		return fmt.Errorf("save confirmation %s: token already used", pc.Token)
	}
	s.pending[pc.Token] = pc
	return nil
}

// Take removes the pending confirmation. Expiry is left to the caller,
// which sees ExpiresAt, unless the sweeper already removed the entry.
func (s *ConfirmationStore) Take(_ context.Context, token string) (domain.PendingConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, ok := s.pending[token]
	if !ok {
		if _, spent := s.spent[token]; spent {
			return domain.PendingConfirmation{}, fmt.Errorf("batch %s: %w", token, port.ErrStaleConfirmation)
		}
		return domain.PendingConfirmation{}, fmt.Errorf("batch %s: %w", token, port.ErrUnknownToken)
	}
	delete(s.pending, token)
	s.spent[token] = s.now().Add(s.retain)
	return pc, nil
}

// Len returns the number of pending confirmations.
func (s *ConfirmationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Sweep drops expired confirmations and old tombstones.
func (s *ConfirmationStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	expired := 0
	for token, pc := range s.pending {
		if pc.Expired(now) {
			delete(s.pending, token)
			s.spent[token] = now.Add(s.retain)
			expired++
		}
	}
	for token, until := range s.spent {
		if !now.Before(until) {
			delete(s.spent, token)
		}
	}
	return expired
}

// Start sweeps every interval until ctx is done.
func (s *ConfirmationStore) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("expired pending batches", slog.Int("count", n))
			}
		}
	}
}
