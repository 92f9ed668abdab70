package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"pipeline/internal/models"
)

type ActivityRepository struct {
	db Querier
}

func NewActivityRepository(db Querier) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) WithTx(q Querier) *ActivityRepository {
	return &ActivityRepository{db: q}
}

func (r *ActivityRepository) Append(ctx context.Context, e *models.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (tenant_id, user_id, entity_type, entity_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var details sql.NullString
	if e.Details != "" {
		details = sql.NullString{String: e.Details, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		e.TenantID, e.UserID, e.EntityType, e.EntityID, e.Action, details, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListByTenant returns the latest entries first.
func (r *ActivityRepository) ListByTenant(ctx context.Context, tenantID int64, limit int) ([]models.ActivityEntry, error) {
	query := `
		SELECT id, tenant_id, user_id, entity_type, entity_id, action, details, created_at
		FROM activity_log
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := []models.ActivityEntry{}
	for rows.Next() {
		var e models.ActivityEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.EntityType, &e.EntityID, &e.Action, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Details = details.String
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
