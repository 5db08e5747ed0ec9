package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// AuditRepository implements port.AuditRecorder on the action_audit table.
type AuditRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ port.AuditRecorder = (*AuditRepository)(nil)

// NewAuditRepository returns a new repository instance.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool, now: time.Now}
}

const insertAudit = `
	INSERT INTO action_audit (
		batch_token, seq, kind, source, rule, entity_type, entity_id, campaign_id,
		status, error, result_id, audit, params, dispatched_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (batch_token, seq) DO NOTHING`

// Record writes one row per dispatched action in a single transaction. A
// batch recorded twice keeps its first rows.
func (r *AuditRepository) Record(ctx context.Context, token string, actions []domain.Action) (err error) {
	if len(actions) == 0 {
		return nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("record audit %s: %w", token, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	at := r.now().UTC()
	batch := &pgx.Batch{}
	for _, a := range actions {
		audit, err := json.Marshal(a.Audit)
		if err != nil {
			return fmt.Errorf("record audit %s #%d: %w", token, a.Seq, err)
		}
		params, err := json.Marshal(a.Params)
		if err != nil {
			return fmt.Errorf("record audit %s #%d: %w", token, a.Seq, err)
		}
		var resultID *int64
		if a.ResultID != 0 {
			resultID = &a.ResultID
		}
		batch.Queue(insertAudit,
			token, a.Seq, string(a.Kind), string(a.Source), a.Rule,
			string(a.Target.Type), a.Target.ID, a.Target.CampaignID,
			string(a.Status), a.Error, resultID, audit, params, at)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("record audit %s: %w", token, err)
	}
	return nil
}
