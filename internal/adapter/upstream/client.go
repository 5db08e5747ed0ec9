// Package upstream paces, retries and paginates calls to the ad platform.
// Every upstream request of the process goes through one Client so that all
// of them draw from the same token bucket.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"adpilot/internal/core/port"
)

// Limiter hands out request tokens. Wait blocks until a token is available
// or ctx is done.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Config tunes pacing and retries.
type Config struct {
	// MaxAttempts caps attempts when the upstream answers 429.
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffCap   time.Duration
	MaxQueueWait time.Duration
	// RequestTimeout bounds every single attempt.
	RequestTimeout time.Duration
	PageSize       int
	MaxPages       int
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 5
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 30 * time.Second
	}
	if c.MaxQueueWait <= 0 {
		c.MaxQueueWait = 30 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.PageSize < 1 || c.PageSize > port.MaxPageSize {
		c.PageSize = port.MaxPageSize
	}
	if c.MaxPages < 1 {
		c.MaxPages = 100
	}
	return c
}

// Client is the rate limited request executor.
type Client struct {
	limiter Limiter
	cfg     Config
	logger  *slog.Logger
	backoff backoff
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Client drawing tokens from limiter. The limiter must
// be shared by every Client talking to the same upstream account.
func NewClient(limiter Limiter, cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		limiter: limiter,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "upstream")),
		backoff: newBackoff(cfg.BackoffBase, cfg.BackoffCap),
		sleep:   sleepCtx,
	}
}

// Read runs an idempotent call. Transport failures, timeouts and 5xx
// responses are retried once.
func (c *Client) Read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return c.do(ctx, op, false, fn)
}

// Mutate runs a call with side effects. Only 429 responses, which the
// upstream did not apply, are retried; any other failure surfaces at once.
func (c *Client) Mutate(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return c.do(ctx, op, true, fn)
}

func (c *Client) do(ctx context.Context, op string, mutating bool, fn func(ctx context.Context) error) error {
	var (
		attempts     int
		throttled    int
		transportTry bool
	)
	for {
		if err := c.acquire(ctx, op); err != nil {
			return err
		}
		attempts++

		err := c.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}

		var apiErr *port.APIError
		isAPI := errors.As(err, &apiErr)
		switch {
		case isAPI && apiErr.Status == http.StatusTooManyRequests:
			throttled++
			if attempts >= c.cfg.MaxAttempts {
				return &port.UpstreamError{Op: op, Attempts: attempts, Err: err}
			}
			delay := max(c.backoff.delay(throttled), min(apiErr.RetryAfter, c.cfg.BackoffCap))
			c.logger.Warn("upstream rate limited, backing off",
				slog.String("op", op),
				slog.Int("attempt", attempts),
				slog.Duration("delay", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		case isAPI && apiErr.Status < http.StatusInternalServerError:
			return err
		default:
			if mutating {
				c.logger.Error("upstream mutation failed",
					slog.String("op", op), slog.Any("error", err))
				return fmt.Errorf("%s: %w", op, err)
			}
			if transportTry {
				return &port.UpstreamError{Op: op, Attempts: attempts, Err: err}
			}
			transportTry = true
			c.logger.Warn("upstream read failed, retrying once",
				slog.String("op", op), slog.Any("error", err))
			if err := c.sleep(ctx, c.backoff.delay(1)); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}
}

// attempt runs fn under its own timeout, independent of the retry policy.
func (c *Client) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	actx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	err := fn(actx)
	if err != nil && actx.Err() != nil && ctx.Err() == nil {
		return fmt.Errorf("request timed out after %s: %w", c.cfg.RequestTimeout, err)
	}
	return err
}

// acquire takes one token, waiting at most MaxQueueWait.
func (c *Client) acquire(ctx context.Context, op string) error {
	wctx, cancel := context.WithTimeout(ctx, c.cfg.MaxQueueWait)
	defer cancel()
	if err := c.limiter.Wait(wctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return fmt.Errorf("%s: %w (waited up to %s)", op, port.ErrRateLimitTimeout, c.cfg.MaxQueueWait)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
