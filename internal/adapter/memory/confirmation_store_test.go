package memory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newStore(t *testing.T) (*ConfirmationStore, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewConfirmationStore(time.Hour, c.now, slog.New(slog.NewTextHandler(io.Discard, nil))), c
}

func pending(token string, expires time.Time) domain.PendingConfirmation {
	return domain.PendingConfirmation{
		Token:     token,
		State:     domain.StateAwaitingConfirmation,
		ExpiresAt: expires,
		Batch:     domain.ActionBatch{Kind: domain.ActionBlacklist, Actions: []domain.Action{{Seq: 1}}},
	}
}

func TestTakeOnce(t *testing.T) {
	s, c := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, pending("t1", c.now().Add(time.Minute))))

	pc, err := s.Take(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", pc.Token)
	assert.Equal(t, 1, pc.Batch.Len())

	_, err = s.Take(ctx, "t1")
	assert.ErrorIs(t, err, port.ErrStaleConfirmation)
}

func TestTakeUnknown(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Take(context.Background(), "nope")
	assert.ErrorIs(t, err, port.ErrUnknownToken)
}

func TestSaveRejectsReusedToken(t *testing.T) {
	s, c := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, pending("t1", c.now().Add(time.Minute))))
	assert.Error(t, s.Save(ctx, pending("t1", c.now().Add(time.Minute))))

	_, err := s.Take(ctx, "t1")
	require.NoError(t, err)
	assert.Error(t, s.Save(ctx, pending("t1", c.now().Add(time.Minute))))
}

func TestSweepExpires(t *testing.T) {
	s, c := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, pending("old", c.now().Add(time.Minute))))
	require.NoError(t, s.Save(ctx, pending("new", c.now().Add(time.Hour))))

	c.advance(2 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	_, err := s.Take(ctx, "old")
	assert.ErrorIs(t, err, port.ErrStaleConfirmation)

	// Tombstones go away after the retention period.
	c.advance(2 * time.Hour)
	s.Sweep()
	_, err = s.Take(ctx, "old")
	assert.ErrorIs(t, err, port.ErrUnknownToken)
}

func TestConcurrentTakeHandsOutOnce(t *testing.T) {
	s, c := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, pending("t1", c.now().Add(time.Minute))))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "t1"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestStartStopsWithContext(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
