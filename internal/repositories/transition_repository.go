package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"pipeline/internal/models"
)

// TransitionRepository is the append-only stage move ledger. It has no
// update or delete.
type TransitionRepository struct {
	db Querier
}

func NewTransitionRepository(db Querier) *TransitionRepository {
	return &TransitionRepository{db: db}
}

func (r *TransitionRepository) WithTx(q Querier) *TransitionRepository {
	return &TransitionRepository{db: q}
}

func (r *TransitionRepository) Append(ctx context.Context, rec *models.TransitionRecord) error {
	query := `
		INSERT INTO deal_transitions (deal_id, tenant_id, from_stage_id, to_stage_id, moved_at, moved_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.DealID, rec.TenantID, rec.FromStageID, rec.ToStageID, rec.MovedAt, rec.MovedBy,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}
	return nil
}

// ListForDeal returns the deal's moves, newest first.
func (r *TransitionRepository) ListForDeal(ctx context.Context, tenantID, dealID int64) ([]models.TransitionRecord, error) {
	query := `
		SELECT id, deal_id, tenant_id, from_stage_id, to_stage_id, moved_at, moved_by
		FROM deal_transitions
		WHERE tenant_id = $1 AND deal_id = $2
		ORDER BY moved_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, dealID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	records := []models.TransitionRecord{}
	for rows.Next() {
		var rec models.TransitionRecord
		var from sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.DealID, &rec.TenantID, &from, &rec.ToStageID, &rec.MovedAt, &rec.MovedBy); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		rec.FromStageID = nullInt64Ptr(from)
		rec.MovedAt = rec.MovedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return records, nil
}
