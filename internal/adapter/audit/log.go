// Package audit records dispatched actions.
package audit

import (
	"context"
	"errors"
	"log/slog"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// LogRecorder writes one structured log record per dispatched action.
type LogRecorder struct {
	logger *slog.Logger
}

var _ port.AuditRecorder = (*LogRecorder)(nil)

func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.With(slog.String("component", "audit"))}
}

func (r *LogRecorder) Record(ctx context.Context, token string, actions []domain.Action) error {
	for _, a := range actions {
		attrs := []slog.Attr{
			slog.String("token", token),
			slog.Int("seq", a.Seq),
			slog.String("kind", string(a.Kind)),
			slog.String("source", string(a.Source)),
			slog.String("entity", a.Target.String()),
			slog.String("status", string(a.Status)),
			slog.Time("planned_at", a.Audit.Timestamp),
		}
		if a.Rule != "" {
			attrs = append(attrs, slog.String("rule", a.Rule))
		}
		if len(a.Audit.Metrics) > 0 {
			attrs = append(attrs, slog.Any("metrics", a.Audit.Metrics))
		}
		if len(a.Audit.Args) > 0 {
			attrs = append(attrs, slog.Any("args", a.Audit.Args))
		}
		if a.Error != "" {
			attrs = append(attrs, slog.String("error", a.Error))
		}
		if a.ResultID != 0 {
			attrs = append(attrs, slog.Int64("result_id", a.ResultID))
		}
		level := slog.LevelInfo
		if a.Status == domain.StatusFailed {
			level = slog.LevelWarn
		}
		r.logger.LogAttrs(ctx, level, "action dispatched", attrs...)
	}
	return nil
}

// Tee records to every recorder and joins their errors.
type Tee []port.AuditRecorder

func (t Tee) Record(ctx context.Context, token string, actions []domain.Action) error {
	var errs []error
	for _, r := range t {
		if err := r.Record(ctx, token, actions); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
