package port

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"adpilot/internal/core/domain"
)

var (
	// ErrUpstreamUnavailable means backoff was exhausted or a read failed on
	// transport after its retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrRateLimitTimeout means no token became available within the
	// maximum queue wait.
	ErrRateLimitTimeout = errors.New("rate limit queue wait exceeded")
	// ErrStaleConfirmation is returned for consumed, expired or rejected
	// batch tokens.
	ErrStaleConfirmation = errors.New("stale confirmation")
	// ErrUnknownToken is returned for tokens that were never issued.
	ErrUnknownToken = errors.New("unknown batch token")
	// ErrNotFound is returned when the upstream has no such entity.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports bad caller input. It never reaches the upstream.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

// NewValidationError builds a single-field validation error.
func NewValidationError(op, field, reason string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Op, strings.Join(parts, "; "))
}

// APIError is an upstream response with a non-success status. Only 429 and
// 5xx statuses are ever retried.
type APIError struct {
	Op      string
	Status  int
	Message string
	// RetryAfter is the delay the upstream asked for, if any.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: upstream error (status %d): %s", e.Op, e.Status, e.Message)
}

// Is lets a 404 match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// UpstreamError wraps the last failure of an operation that could not be
// completed. It matches ErrUpstreamUnavailable.
type UpstreamError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream unavailable after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}

// MutationFailedError reports a confirmed batch whose dispatch failed for at
// least one action. Actions holds the per-action status of the whole batch.
type MutationFailedError struct {
	Token   string
	Actions []domain.Action
}

// Failed returns the actions that did not apply.
func (e *MutationFailedError) Failed() []domain.Action {
	var out []domain.Action
	for _, a := range e.Actions {
		if a.Status == domain.StatusFailed {
			out = append(out, a)
		}
	}
	return out
}

func (e *MutationFailedError) Error() string {
	failed := e.Failed()
	msg := fmt.Sprintf("batch %s: %d of %d actions failed", e.Token, len(failed), len(e.Actions))
	if len(failed) > 0 {
		msg += fmt.Sprintf(" (first: %s %s: %s)", failed[0].Kind, failed[0].Target, failed[0].Error)
	}
	return msg
}

// PartialDataWarning is attached to an otherwise successful aggregation when
// some requested entities returned no rows.
type PartialDataWarning struct {
	Missing []domain.EntityRef `json:"missing"`
	Window  domain.Window      `json:"window"`
}

func (w *PartialDataWarning) Error() string {
	ids := make([]string, len(w.Missing))
	for i, m := range w.Missing {
		ids[i] = m.String()
	}
	return fmt.Sprintf("no data for %s in %s", strings.Join(ids, ", "), w.Window)
}

// UnknownOperationError is returned for unmapped tool names.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}
