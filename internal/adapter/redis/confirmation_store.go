// Package redisadapter shares confirmations and the request bucket between
// replicas serving the same upstream account.
package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

const (
	keyPending = "%sbatch:%s"
	keySeen    = "%sbatch:%s:seen"
)

// ConfirmationStore keeps pending batches in Redis. A batch lives under
// its own key until it expires; GETDEL hands it out at most once. A
// second seen key outlives it so that reuse is reported as stale.
type ConfirmationStore struct {
	rdb    redis.UniversalClient
	prefix string
	retain time.Duration
	now    func() time.Time
}

var _ port.ConfirmationStore = (*ConfirmationStore)(nil)

// NewConfirmationStore creates a store writing keys under prefix. Seen
// markers are kept for retain after a batch expires.
func NewConfirmationStore(rdb redis.UniversalClient, prefix string, retain time.Duration, now func() time.Time) *ConfirmationStore {
	if now == nil {
		now = time.Now
	}
	if retain <= 0 {
		retain = 24 * time.Hour
	}
	return &ConfirmationStore{rdb: rdb, prefix: prefix, retain: retain, now: now}
}

func (s *ConfirmationStore) Save(ctx context.Context, pc domain.PendingConfirmation) error {
	ttl := pc.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("save confirmation %s: already expired", pc.Token)
	}
	data, err := json.Marshal(pc)
	if err != nil {
		return fmt.Errorf("save confirmation %s: %w", pc.Token, err)
	}

	ok, err := s.rdb.SetNX(ctx, fmt.Sprintf(keySeen, s.prefix, pc.Token), 1, ttl+s.retain).Result()
	if err != nil {
		return fmt.Errorf("save confirmation %s: %w", pc.Token, err)
	}
	if !ok {
		return fmt.Errorf("save confirmation %s: token already used", pc.Token)
	}
	if err := s.rdb.Set(ctx, fmt.Sprintf(keyPending, s.prefix, pc.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("save confirmation %s: %w", pc.Token, err)
	}
	return nil
}

func (s *ConfirmationStore) Take(ctx context.Context, token string) (domain.PendingConfirmation, error) {
	var pc domain.PendingConfirmation
	data, err := s.rdb.GetDel(ctx, fmt.Sprintf(keyPending, s.prefix, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		n, err := s.rdb.Exists(ctx, fmt.Sprintf(keySeen, s.prefix, token)).Result()
		if err != nil {
			return pc, fmt.Errorf("take confirmation %s: %w", token, err)
		}
		if n > 0 {
			return pc, fmt.Errorf("batch %s: %w", token, port.ErrStaleConfirmation)
		}
		return pc, fmt.Errorf("batch %s: %w", token, port.ErrUnknownToken)
	}
	if err != nil {
		return pc, fmt.Errorf("take confirmation %s: %w", token, err)
	}
	if err := json.Unmarshal(data, &pc); err != nil {
		return pc, fmt.Errorf("take confirmation %s: %w", token, err)
	}
	return pc, nil
}
